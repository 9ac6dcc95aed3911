// Package naming recognizes phone brands and model series in listing titles.
package naming

import (
	"regexp"
	"strings"
)

// MaxModelTokens caps the number of tokens kept as the model name.
const MaxModelTokens = 6

// Brand lists checked in order; the first brand contained in a title wins.
var (
	AndroidBrands = []string{
		"ASUS", "SAMSUNG", "XIAOMI", "OPPO", "VIVO", "SONY", "HUAWEI", "NOKIA", "REALME",
		"MOTOROLA", "INFINIX", "LG", "HISENSE", "ITEL", "TECNO", "RED MAGIC", "ADVAN",
		"GOOGLE PIXEL", "IQOO", "SHARP", "ONEPLUS", "FAIRPHONE", "POCO",
	}
	IOSBrands = []string{"APPLE", "IPHONE"}
)

var categoryBrands = map[string][]string{
	"ANDROID OS": AndroidBrands,
	"IOS":        IOSBrands,
}

var modelStopwords = map[string]struct{}{
	"NEW": {}, "GARANSI": {}, "RESMI": {}, "INDONESIA": {}, "PAKET": {}, "HEMAT": {},
	"-": {}, "|": {}, "HP": {}, "/": {}, "HANDPHONE": {}, "IBOX": {},
}

var (
	memoryToken  = regexp.MustCompile(`^(\d+(\+?\d+)?[Gg][Bb]|[45][Gg])$`)
	modelToken   = regexp.MustCompile(`(?i)^[A-Z0-9]+[A-Z0-9\-/]*$`)
	tokenDivider = regexp.MustCompile(`[\s|,]+`)
)

// Classification is the brand and model recognized in a title.
type Classification struct {
	Brand          string `json:"brand,omitempty"`
	Model          string `json:"model,omitempty"`
	NormalizedName string `json:"normalized_name,omitempty"`
}

// BrandsFor returns the brand list of a level-3 category, or nil when the
// category is not brand-classifiable.
func BrandsFor(category string) []string {
	return categoryBrands[strings.ToUpper(strings.TrimSpace(category))]
}

// DetectBrand returns the first brand of brands contained in title.
func DetectBrand(title string, brands []string) string {
	upper := strings.ToUpper(title)
	for _, brand := range brands {
		if strings.Contains(upper, brand) {
			return brand
		}
	}
	return ""
}

// ExtractModel returns the model series that follows brand in title. The brand
// must stand as its own word. Scanning stops at a stopword or a memory/network
// token such as "8GB" or "5G".
func ExtractModel(title, brand string, maxTokens int) string {
	if brand == "" {
		return ""
	}
	upper := strings.ToUpper(title)
	loc := wordIndex(upper, brand)
	if loc < 0 {
		return ""
	}

	var model []string
	for _, tok := range tokenDivider.Split(upper[loc+len(brand):], -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, stop := modelStopwords[tok]; stop {
			break
		}
		if memoryToken.MatchString(tok) {
			break
		}
		if modelToken.MatchString(tok) {
			model = append(model, tok)
		}
		if len(model) >= maxTokens {
			break
		}
	}
	return strings.Join(model, " ")
}

// Classify recognizes the brand and model of a title listed under category.
// It reports false when the category has no brand list.
func Classify(title, category string) (Classification, bool) {
	brands := BrandsFor(category)
	if brands == nil {
		return Classification{}, false
	}

	brand := DetectBrand(title, brands)
	model := ExtractModel(title, brand, MaxModelTokens)
	c := Classification{Brand: brand, Model: model, NormalizedName: brand}
	if brand != "" && model != "" {
		c.NormalizedName = brand + " " + model
	}
	return c, true
}

// wordIndex returns the offset of the first occurrence of word in s that is
// not glued to other letters or digits, or -1.
func wordIndex(s, word string) int {
	re := regexp.MustCompile(`(^|[^A-Z0-9])` + regexp.QuoteMeta(word) + `([^A-Z0-9]|$)`)
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return -1
	}
	return m[3]
}
