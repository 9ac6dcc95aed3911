package pdp

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrPayloadNotFound means the markup has no cache assignment.
	ErrPayloadNotFound = errors.New("cache assignment not found")
	// ErrUnparsablePayload means the cache assignment is not valid JSON.
	ErrUnparsablePayload = errors.New("cache payload is not valid JSON")
)

const cacheVariable = "window.__cache"

var (
	cacheAssign = regexp.MustCompile(`window\.__cache\s*=\s*`)
	cacheExact  = regexp.MustCompile(`(?s)window\.__cache\s*=\s*(\{.*?\})\s*;`)
	cacheGreedy = regexp.MustCompile(`(?s)window\.__cache\s*=\s*(\{.*\})\s*`)
)

// ExtractCache locates the cache object assigned in the page markup and
// decodes it. Script elements are searched first, then the raw markup.
func ExtractCache(markup string) (*Snapshot, error) {
	sources := scriptSources(markup)
	sources = append(sources, markup)

	found := false
	var lastErr error
	for _, src := range sources {
		if !strings.Contains(src, cacheVariable) {
			continue
		}
		found = true
		snap, err := decodeAssignment(src)
		if err == nil {
			return snap, nil
		}
		lastErr = err
	}
	if !found {
		return nil, ErrPayloadNotFound
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparsablePayload, lastErr)
}

// ExtractPage runs ExtractCache and Assemble over one product page.
func ExtractPage(markup string) ([]AssembledProduct, error) {
	snap, err := ExtractCache(markup)
	if err != nil {
		return []AssembledProduct{}, err
	}
	return Assemble(snap)
}

func scriptSources(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if text := sel.Text(); strings.Contains(text, cacheVariable) {
			out = append(out, text)
		}
	})
	return out
}

// decodeAssignment decodes the object following the assignment. The first
// complete JSON value wins; the lazy and greedy patterns are fallbacks for
// payloads the streaming decoder rejects.
func decodeAssignment(src string) (*Snapshot, error) {
	loc := cacheAssign.FindStringIndex(src)
	if loc == nil {
		return nil, ErrPayloadNotFound
	}

	var nodes map[string]Object
	dec := json.NewDecoder(strings.NewReader(src[loc[1]:]))
	err := dec.Decode(&nodes)
	if err == nil {
		return NewSnapshot(nodes), nil
	}

	for _, re := range []*regexp.Regexp{cacheExact, cacheGreedy} {
		m := re.FindStringSubmatch(src)
		if m == nil {
			continue
		}
		snap, perr := ParseSnapshot([]byte(strings.TrimSpace(m[1])))
		if perr == nil {
			return snap, nil
		}
		err = perr
	}
	return nil, err
}
