package pdp

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownKey is the key used for blank titles.
const UnknownKey = "unknown_key"

var (
	nonKeyChars   = regexp.MustCompile(`[^a-z0-9_]+`)
	repeatedUnder = regexp.MustCompile(`_{2,}`)

	pricePrinter = message.NewPrinter(language.Indonesian)
)

// NormalizeKey lowercases s, joins its words with a single underscore and
// strips everything outside [a-z0-9_].
func NormalizeKey(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return UnknownKey
	}
	return nonKeyChars.ReplaceAllString(strings.Join(fields, "_"), "")
}

// CleanText tidies a free-text description: runs of underscores are dropped,
// every line is trimmed, consecutive blank lines collapse into one, and lines
// starting with "-" are rewritten as "- item".
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = repeatedUnder.ReplaceAllString(text, "")

	var out []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		if strings.HasPrefix(line, "-") {
			line = "- " + strings.TrimSpace(strings.TrimLeft(line, "-"))
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// FormatPrice renders a rupiah amount the Indonesian way, e.g. "Rp 15.000.000".
func FormatPrice(price int64) string {
	return "Rp " + pricePrinter.Sprintf("%d", price)
}

// ZipVariantSpec pairs axis names with option values by position. Values past
// the last axis are dropped and axes without a value are left out.
func ZipVariantSpec(axes []string, values []interface{}) *VariantSpec {
	spec := NewOrderedMap[string]()
	for i, v := range values {
		if i >= len(axes) {
			break
		}
		spec.Set(axes[i], optionString(v))
	}
	return spec
}

func optionString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(s)
	}
}
