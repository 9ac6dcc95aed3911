package pdp

import "errors"

var (
	// ErrMissingRootLayout means the cache has no product layout root.
	ErrMissingRootLayout = errors.New("layout root not found")
	// ErrNoProductContent means neither variants nor a content component
	// could be resolved.
	ErrNoProductContent = errors.New("no variant or content component")
)

// pageContext holds the facets shared by every record of one page.
type pageContext struct {
	shopName     string
	shopLocation *string
	sold         int64
	detail       *Detail
	media        []MediaEntry
	reviews      *ReviewSummary
}

// core is the per-record part of an assembled product.
type core struct {
	name     string
	url      string
	price    int64
	priceFmt string
	stock    int64
	spec     *VariantSpec
}

func (p *pageContext) merge(c core) AssembledProduct {
	return AssembledProduct{
		ShopName:        p.shopName,
		ShopLocation:    p.shopLocation,
		ProductName:     c.name,
		ProductURL:      c.url,
		ProductPrice:    c.price,
		ProductPriceFmt: c.priceFmt,
		ProductStock:    c.stock,
		ProductSold:     p.sold,
		VariantSpec:     c.spec,
		ProductDetail:   p.detail,
		ProductMedia:    p.media,
		ProductReviews:  p.reviews,
	}
}

// Assemble reconstructs the product records of one page cache: one record
// per variant, or a single record built from the content component when the
// listing has no variants. On failure it returns an empty slice together
// with ErrMissingRootLayout or ErrNoProductContent.
func Assemble(s *Snapshot) ([]AssembledProduct, error) {
	products := []AssembledProduct{}

	root := s.Resolve(rootQueryID)
	layoutKey, ok := root.KeyWithPrefix(layoutKeyPrefix)
	if !ok {
		return products, ErrMissingRootLayout
	}
	layout := s.Resolve(root.Ref(layoutKey))
	if layout.Empty() {
		return products, ErrMissingRootLayout
	}

	basicInfo := s.ResolveRef(s.ResolveRef(layout, "data"), "basicInfo")
	stats := s.ResolveRef(basicInfo, "txStats")
	components := resolveComponents(s, layout.Refs("components"))

	page := &pageContext{
		shopName: basicInfo.Str("shopName"),
		sold:     stats.Int("countSold"),
		detail:   NewOrderedMap[interface{}](),
		media:    []MediaEntry{},
	}
	var (
		variants []VariantOption
		content  *Component
	)
	for i := range components {
		comp := &components[i]
		switch comp.Type {
		case ComponentMedia:
			page.media = ExtractMedia(s, comp.Data)
		case ComponentDetail:
			page.detail = ExtractDetail(s, comp.Data)
		case ComponentVariant:
			variants = ExtractVariants(s, comp.Data)
		case ComponentContent:
			if content == nil {
				content = comp
			}
		case ComponentShipment, ComponentUnknown:
		}
	}
	page.shopLocation = ExtractLocation(s, components)
	page.reviews = ExtractReviews(s)

	if len(variants) > 0 {
		for _, v := range variants {
			products = append(products, page.merge(core{
				name:     v.Name,
				url:      v.URL,
				price:    v.Price,
				priceFmt: v.PriceFmt,
				stock:    v.Stock,
				spec:     v.VariantSpec,
			}))
		}
		return products, nil
	}

	if content == nil || len(content.Data) == 0 {
		return products, ErrNoProductContent
	}
	c := s.Resolve(content.Data[0])
	price := s.ResolveRef(c, "price")
	stock := s.ResolveRef(c, "stock")

	name := c.Str("name")
	if name == "" {
		name = basicInfo.Str("name")
	}
	products = append(products, page.merge(core{
		name:     name,
		url:      basicInfo.Str("url"),
		price:    price.Int("value"),
		priceFmt: price.Str("priceFmt"),
		stock:    stock.Int("value"),
		spec:     NewOrderedMap[string](),
	}))
	return products, nil
}
