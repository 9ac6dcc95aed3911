package pdp

// SearchProductURLs lists the product URLs of a search or category listing
// cache, in page order. Products without a URL are skipped.
func SearchProductURLs(s *Snapshot) []string {
	root := s.Resolve(rootQueryID)
	key, ok := root.KeyContaining(searchKeyFragment)
	if !ok {
		return nil
	}
	search := s.Resolve(root.Ref(key))

	var urls []string
	for _, id := range search.Refs("products") {
		if u := s.Resolve(id).Str("url"); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
