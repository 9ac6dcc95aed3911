// Package writer dumps assembled products to disk.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sjsage522/tokoworker/internal/pdp"
)

// Paths are the files written by SaveResults.
type Paths struct {
	JSON string
	Text string
}

// SaveResults writes <prefix>_full.json with every record and
// <prefix>_output.txt with every record rendered, separated by a
// "PRODUK VARIAN n" banner.
func SaveResults(products []pdp.AssembledProduct, prefix string) (Paths, error) {
	paths := Paths{JSON: prefix + "_full.json", Text: prefix + "_output.txt"}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Paths{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	if products == nil {
		products = []pdp.AssembledProduct{}
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("marshal products: %w", err)
	}
	if err := os.WriteFile(paths.JSON, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.JSON, err)
	}

	if err := os.WriteFile(paths.Text, []byte(RenderAll(products)), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write %s: %w", paths.Text, err)
	}
	return paths, nil
}

// RenderAll renders every record, each preceded by its variant banner.
func RenderAll(products []pdp.AssembledProduct) string {
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s\nPRODUK VARIAN %d\n%s\n", banner, i+1, banner)
		b.WriteString(pdp.Render(p))
	}
	if len(products) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

var banner = strings.Repeat("=", 40)
