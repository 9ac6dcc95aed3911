package pdp

// Detail maps normalized spec keys to their values. The description key
// always holds cleaned text.
type Detail = OrderedMap[interface{}]

// VariantSpec maps a variant axis name to the chosen option value.
type VariantSpec = OrderedMap[string]

// Topics maps a normalized review topic label to its score.
type Topics = OrderedMap[TopicScore]

// MediaEntry is one image or video of a product gallery.
type MediaEntry struct {
	URLOriginal     *string `json:"url_original"`
	URLThumbnail    *string `json:"url_thumbnail"`
	URLMaxRes       *string `json:"url_max_res"`
	URLVideoAndroid *string `json:"url_video_android"`
	Prefix          *string `json:"prefix"`
	Suffix          *string `json:"suffix"`
}

// VariantOption is one purchasable SKU of a listing.
type VariantOption struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Price       int64        `json:"price"`
	PriceFmt    string       `json:"price_fmt"`
	Stock       int64        `json:"stock"`
	VariantSpec *VariantSpec `json:"variant_spec"`
	IsCOD       bool         `json:"is_cod"`
}

// TopicScore is the rating of a single review topic.
type TopicScore struct {
	Score float64 `json:"score"`
	Count int64   `json:"count"`
}

// ReviewSummary aggregates the rating block of a product page.
type ReviewSummary struct {
	TotalRating  int64   `json:"total_rating"`
	AverageScore float64 `json:"average_score"`
	Topics       *Topics `json:"topics"`
}

// AssembledProduct is one ready-to-persist record per variant of a listing.
// ProductDetail, ProductMedia and ProductReviews are shared by every record
// assembled from the same page and must be treated as read-only.
type AssembledProduct struct {
	ShopName        string         `json:"shop_name"`
	ShopLocation    *string        `json:"shop_location"`
	ProductName     string         `json:"product_name"`
	ProductURL      string         `json:"product_url"`
	ProductPrice    int64          `json:"product_price"`
	ProductPriceFmt string         `json:"product_price_fmt"`
	ProductStock    int64          `json:"product_stock"`
	ProductSold     int64          `json:"product_sold"`
	VariantSpec     *VariantSpec   `json:"variant_spec"`
	ProductDetail   *Detail        `json:"product_detail"`
	ProductMedia    []MediaEntry   `json:"product_media"`
	ProductReviews  *ReviewSummary `json:"product_reviews"`
}

// Description returns the cleaned description text of the record, or "".
func (p AssembledProduct) Description() string {
	v, ok := p.ProductDetail.Get(descriptionKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
