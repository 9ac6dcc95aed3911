package pdp

import "math"

// ExtractMedia reads every media entry of the media groups referenced by data.
func ExtractMedia(s *Snapshot, data []string) []MediaEntry {
	media := []MediaEntry{}
	for _, groupID := range data {
		group := s.Resolve(groupID)
		for _, id := range group.Refs("media") {
			m := s.Resolve(id)
			media = append(media, MediaEntry{
				URLOriginal:     m.StrPtr("URLOriginal"),
				URLThumbnail:    m.StrPtr("URLThumbnail"),
				URLMaxRes:       m.StrPtr("URLMaxRes"),
				URLVideoAndroid: m.StrPtr("videoURLAndroid"),
				Prefix:          m.StrPtr("prefix"),
				Suffix:          m.StrPtr("suffix"),
			})
		}
	}
	return media
}

// ExtractDetail builds the spec table of the detail groups referenced by data.
// A productDetailDescription reference replaces any description taken from
// the content list.
func ExtractDetail(s *Snapshot, data []string) *Detail {
	detail := NewOrderedMap[interface{}]()
	for _, groupID := range data {
		group := s.Resolve(groupID)
		for _, id := range group.Refs("content") {
			c := s.Resolve(id)
			title := c.Str("title")
			if title == "" {
				continue
			}
			key := NormalizeKey(title)
			if key == descriptionKey {
				detail.Set(key, CleanText(c.Str("subtitle")))
			} else {
				detail.Set(key, c["subtitle"])
			}
		}

		if group.Has("productDetailDescription") {
			desc := s.ResolveRef(group, "productDetailDescription")
			if !desc.Empty() {
				detail.Set(descriptionKey, CleanText(desc.Str("content")))
			}
		}
	}
	return detail
}

// ExtractVariants expands the variant groups referenced by data into one
// option per child SKU. Axis names accumulate across groups in order.
func ExtractVariants(s *Snapshot, data []string) []VariantOption {
	var (
		axes     []string
		variants []VariantOption
	)
	for _, groupID := range data {
		group := s.Resolve(groupID)

		for _, id := range group.Refs("variants") {
			axis := s.Resolve(id)
			if axis.Empty() {
				continue
			}
			axes = append(axes, NormalizeKey(axis.Str("name")))
		}

		for _, id := range group.Refs("children") {
			child := s.Resolve(id)
			if child.Empty() {
				continue
			}
			stock := s.ResolveRef(child, "stock")
			price := int64(math.Round(child.Float("price")))

			variants = append(variants, VariantOption{
				Name:        child.Str("productName"),
				URL:         child.Str("productURL"),
				Price:       price,
				PriceFmt:    FormatPrice(price),
				Stock:       stock.Int("stock"),
				VariantSpec: ZipVariantSpec(axes, child.Map("optionName").List("json")),
				IsCOD:       child.Bool("isCOD"),
			})
		}
	}
	return variants
}

// ExtractLocation returns the first warehouse city found under the shipment
// component, or nil.
func ExtractLocation(s *Snapshot, components []Component) *string {
	for _, comp := range components {
		if comp.Node.Str("name") != shipmentName {
			continue
		}
		for _, containerID := range comp.Node.Refs("data") {
			container := s.Resolve(containerID)
			for _, itemID := range container.Refs("data") {
				if city := warehouseCity(s, s.Resolve(itemID)); city != "" {
					return &city
				}
			}
		}
	}
	return nil
}

func warehouseCity(s *Snapshot, item Object) string {
	info, ok := asObject(item["warehouse_info"])
	if !ok {
		return ""
	}
	if info.Str("type") == "id" {
		return s.Resolve(info.Str("id")).Str("city_name")
	}
	return info.Str("city_name")
}

// ExtractReviews reads the rating block referenced from the root query.
func ExtractReviews(s *Snapshot) *ReviewSummary {
	summary := &ReviewSummary{Topics: NewOrderedMap[TopicScore]()}

	root := s.Resolve(rootQueryID)
	key, ok := root.KeyWithPrefix(ratingKeyPrefix)
	if !ok {
		return summary
	}

	container := s.Resolve(root.Ref(key))
	rating := s.ResolveRef(container, "rating")
	summary.TotalRating = rating.Int("totalRating")
	summary.AverageScore = rating.Float("ratingScore")

	for _, id := range container.Refs("topics") {
		t := s.Resolve(id)
		if t.Empty() {
			continue
		}
		summary.Topics.Set(NormalizeKey(t.Str("formatted")), TopicScore{
			Score: t.Float("rating"),
			Count: t.Int("reviewCount"),
		})
	}
	return summary
}
