package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"sjsage522/tokoworker/logger"
)

// Rupiah is a price bound that accepts JSON numbers, numeric strings or null.
type Rupiah int64

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rupiah) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		// "1.000.000" uses Indonesian thousands separators
		s = strings.NewReplacer(`"`, "", ".", "", ",", "", " ", "").Replace(s)
	}
	if s == "" {
		*r = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*r = 0
		return nil
	}
	*r = Rupiah(f)
	return nil
}

// Filters are the structured constraints read out of a search query.
type Filters struct {
	Color     string `json:"color,omitempty"`
	Location  string `json:"location,omitempty"`
	Condition string `json:"condition,omitempty"`
	Storage   string `json:"storage,omitempty"`
	RAM       string `json:"ram,omitempty"`
	PriceMin  Rupiah `json:"harga_min,omitempty"`
	PriceMax  Rupiah `json:"harga_max,omitempty"`
}

// QueryIntent is the understood form of a search query.
type QueryIntent struct {
	Level2Matches []string `json:"category_level_2_matches"`
	Brand         string   `json:"brand,omitempty"`
	Filters       Filters  `json:"filters"`
}

// QueryUnderstander maps free-text queries onto the category tree.
type QueryUnderstander struct {
	chat  Chatter
	model string
}

// NewQueryUnderstander creates a query understander on top of chat.
func NewQueryUnderstander(chat Chatter, model string) *QueryUnderstander {
	return &QueryUnderstander{chat: chat, model: model}
}

func understandPrompt(level2 []string) string {
	return "Anda adalah sistem Query Understanding e-commerce. Tugas Anda adalah mengekstrak niat pengguna dan " +
		"mencocokkan query dengan kategori Level 2 yang paling relevan dari daftar berikut: [" +
		strings.Join(level2, ", ") + "]. Kategori yang cocok bisa lebih dari satu.\n\n" +
		"Prioritaskan kategori Level 2 yang berisi produk fisik utama. " +
		"Hanya setelah itu, tambahkan kategori yang relevan secara kontekstual.\n\n" +
		"Output HARUS berupa objek JSON valid yang mengikuti format yang diberikan.\n\n" +
		"Contoh Output:\n" +
		`{"category_level_2_matches": ["Elektronik", "Audio"], "brand": "Sony", ` +
		`"filters": {"color": "merah", "location": "jakarta", "condition": "bekas", ` +
		`"storage": "128GB", "ram": "4GB", "harga_min": 100000, "harga_max": 5000000}}`
}

func selectLevel3Prompt(level3 []string) string {
	return "Anda adalah sistem pencocokan kategori e-commerce. Tugas Anda adalah memilih SATU nama kategori " +
		"Level 3 yang paling akurat mencerminkan niat pengguna dari daftar berikut: [" +
		strings.Join(level3, ", ") + "].\n\n" +
		"ATURAN: Jika kueri mengandung nama produk atau brand (seperti 'iPhone', 'Samsung'), pilih kategori " +
		"sistem operasi atau brand yang sesuai (misal: 'iPhone' -> 'iOS', 'Samsung' -> 'Android OS').\n" +
		"Output HARUS berupa objek JSON valid dengan kunci 'best_l3_match'. " +
		"Jika tidak ada yang cocok, kembalikan string kosong.\n\n" +
		`Contoh Output: {"best_l3_match": "Sepatu Lari Pria"}`
}

// Understand extracts the level-2 category matches, brand and filters of
// query. An answer that is not valid JSON yields an empty intent.
func (q *QueryUnderstander) Understand(ctx context.Context, query string, level2 []string) (QueryIntent, error) {
	answer, err := q.chat.Chat(ctx, ChatRequest{
		Model:  q.model,
		System: understandPrompt(level2),
		User:   query,
		JSON:   true,
	})
	if err != nil {
		return QueryIntent{}, err
	}

	var intent QueryIntent
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &intent); err != nil {
		logger.ForLLM().Warn().Err(err).Str("query", query).Msg("query understanding returned invalid JSON")
		return QueryIntent{}, nil
	}
	return intent, nil
}

// SelectLevel3 picks the level-3 category name that best fits query. It
// returns "" when the model picks nothing or names a category outside level3.
func (q *QueryUnderstander) SelectLevel3(ctx context.Context, query string, level3 []string) (string, error) {
	answer, err := q.chat.Chat(ctx, ChatRequest{
		Model:  q.model,
		System: selectLevel3Prompt(level3),
		User:   "Kueri: '" + query + "'",
		JSON:   true,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		BestMatch string `json:"best_l3_match"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &out); err != nil {
		logger.ForLLM().Warn().Err(err).Str("query", query).Msg("level 3 selection returned invalid JSON")
		return "", nil
	}
	for _, name := range level3 {
		if name == out.BestMatch {
			return name, nil
		}
	}
	return "", nil
}
