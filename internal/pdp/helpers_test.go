package pdp

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T) map[string]Object {
	t.Helper()
	data, err := os.ReadFile("testdata/product_cache.json")
	require.NoError(t, err)

	var nodes map[string]Object
	require.NoError(t, json.Unmarshal(data, &nodes))
	return nodes
}

func loadFixture(t *testing.T) *Snapshot {
	t.Helper()
	return NewSnapshot(readFixture(t))
}

// withoutComponent drops one component reference from the layout.
func withoutComponent(t *testing.T, nodes map[string]Object, id string) {
	t.Helper()
	layout := nodes["$ROOT_QUERY.pdpMainInfo"]
	var kept []interface{}
	for _, c := range layout.List("components") {
		if ref, ok := asObject(c); ok && ref.Str("id") == id {
			continue
		}
		kept = append(kept, c)
	}
	layout["components"] = kept
}

func parseObject(t *testing.T, raw string) Object {
	t.Helper()
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(raw), &obj))
	return obj
}
