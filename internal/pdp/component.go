package pdp

// ComponentType is the facet a layout component carries.
type ComponentType int

const (
	ComponentUnknown ComponentType = iota
	ComponentMedia
	ComponentDetail
	ComponentVariant
	ComponentContent
	ComponentShipment
)

// Markers recognized in the page cache.
const (
	rootQueryID       = "ROOT_QUERY"
	layoutKeyPrefix   = "pdpMainInfo"
	ratingKeyPrefix   = "productrevGetProductRatingAndTopics"
	searchKeyFragment = "searchProduct"
	shipmentName      = "shipment_v4"
	descriptionKey    = "deskripsi"
)

var componentTags = map[string]ComponentType{
	"product_media":   ComponentMedia,
	"product_detail":  ComponentDetail,
	"variant":         ComponentVariant,
	"product_content": ComponentContent,
}

func (t ComponentType) String() string {
	switch t {
	case ComponentMedia:
		return "product_media"
	case ComponentDetail:
		return "product_detail"
	case ComponentVariant:
		return "variant"
	case ComponentContent:
		return "product_content"
	case ComponentShipment:
		return shipmentName
	default:
		return "unknown"
	}
}

// Component is a resolved entry of the layout's components list.
type Component struct {
	ID   string
	Type ComponentType
	Data []string
	Node Object
}

// classifyComponent maps a resolved component node to its facet. Shipment
// components are tagged by name rather than by type.
func classifyComponent(node Object) ComponentType {
	if t, ok := componentTags[node.Str("type")]; ok {
		return t
	}
	if node.Str("name") == shipmentName {
		return ComponentShipment
	}
	return ComponentUnknown
}

// resolveComponents resolves every layout component in page order.
func resolveComponents(s *Snapshot, ids []string) []Component {
	out := make([]Component, 0, len(ids))
	for _, id := range ids {
		node := s.Resolve(id)
		out = append(out, Component{
			ID:   id,
			Type: classifyComponent(node),
			Data: node.Refs("data"),
			Node: node,
		})
	}
	return out
}
