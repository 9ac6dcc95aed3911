package writer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/tokoworker/internal/pdp"
)

func products() []pdp.AssembledProduct {
	return []pdp.AssembledProduct{
		{ShopName: "Enter Electronic", ProductName: "LG OLED evo 55 inch", ProductPrice: 15000000},
		{ShopName: "Enter Electronic", ProductName: "LG OLED evo 65 inch", ProductPrice: 25000000},
	}
}

func TestSaveResults(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out", "lg-oled55c4")

	paths, err := SaveResults(products(), prefix)
	require.NoError(t, err)
	assert.Equal(t, prefix+"_full.json", paths.JSON)
	assert.Equal(t, prefix+"_output.txt", paths.Text)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "LG OLED evo 65 inch", decoded[1]["product_name"])

	text, err := os.ReadFile(paths.Text)
	require.NoError(t, err)
	out := string(text)
	assert.Contains(t, out, "PRODUK VARIAN 1")
	assert.Contains(t, out, "PRODUK VARIAN 2")
	assert.Contains(t, out, "Produk: LG OLED evo 55 inch")
	assert.Contains(t, out, "Produk: LG OLED evo 65 inch")
	assert.Less(t, strings.Index(out, "55 inch"), strings.Index(out, "PRODUK VARIAN 2"))
}

func TestSaveResultsEmpty(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "empty")

	paths, err := SaveResults(nil, prefix)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	text, err := os.ReadFile(paths.Text)
	require.NoError(t, err)
	assert.Empty(t, text)
}
