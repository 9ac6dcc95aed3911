package pdp

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	notAvailable       = "Tidak tersedia"
	noDescription      = "Deskripsi produk tidak tersedia."
	noTopics           = "Detail ulasan topik tidak tersedia."
	topTopics          = 5
	topicScoreMaxScale = 5
)

// Render formats a product record as a human-readable summary.
func Render(p AssembledProduct) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Produk: %s\n", orNA(p.ProductName))
	p.VariantSpec.Each(func(axis, value string) {
		if axis != "" && value != "" {
			fmt.Fprintf(&b, "%s: %s\n", titleCase(axis), value)
		}
	})
	fmt.Fprintf(&b, "Toko: %s\n", orNA(p.ShopName))
	location := notAvailable
	if p.ShopLocation != nil && *p.ShopLocation != "" {
		location = *p.ShopLocation
	}
	fmt.Fprintf(&b, "Lokasi: %s\n", location)
	fmt.Fprintf(&b, "Harga: %s\n\n", renderPrice(p))

	description := p.Description()
	if description == "" {
		description = noDescription
	}
	fmt.Fprintf(&b, "Deskripsi:\n%s\n\n", description)

	b.WriteString("Ringkasan Ulasan:\n")
	b.WriteString(renderReviews(p.ProductReviews))

	return strings.TrimSpace(b.String())
}

func renderPrice(p AssembledProduct) string {
	if p.ProductPriceFmt != "" {
		return p.ProductPriceFmt
	}
	return FormatPrice(p.ProductPrice)
}

func renderReviews(r *ReviewSummary) string {
	var total int64
	var avg float64
	if r != nil {
		total, avg = r.TotalRating, r.AverageScore
	}
	summary := fmt.Sprintf("Rating %.1f dari %d ulasan.", avg, total)

	type topic struct {
		label string
		score TopicScore
	}
	var topics []topic
	if r != nil {
		r.Topics.Each(func(k string, v TopicScore) {
			topics = append(topics, topic{label: k, score: v})
		})
	}
	if len(topics) == 0 {
		return summary + "\n" + noTopics
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].score.Count > topics[j].score.Count
	})
	if len(topics) > topTopics {
		topics = topics[:topTopics]
	}
	phrases := make([]string, 0, len(topics))
	for _, t := range topics {
		label := titleCase(strings.ReplaceAll(t.label, "_", " "))
		phrases = append(phrases, fmt.Sprintf("%s (%.1f/%d)", label, t.score.Score, topicScoreMaxScale))
	}
	return summary + "\nKonsumen menilai: " + strings.Join(phrases, "; ") + "."
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// titleCase uses a fresh caser per call.
func titleCase(s string) string {
	return cases.Title(language.Indonesian).String(s)
}
