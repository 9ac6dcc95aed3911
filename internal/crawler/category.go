package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/tokoworker/pkg/errors"
)

// Selectors of the category index page
const (
	masterBlockSelector = "div.css-s7tck8"
	masterLinkSelector  = "div.css-2wmm3i a"
	detailBlockSelector = "div.css-16mwuw1"
	detailNameSelector  = "span.css-38r5l3.e13h6i9f1"
	subBlockSelector    = "div.css-cdv2tj.e13h6i9f2"
	childLinkSelector   = "div.css-79elbk.e13h6i9f3 a"
)

// CategoryCrawler discovers the marketplace category tree
type CategoryCrawler struct {
	*BaseCrawler
	BaseURL string
}

// NewCategoryCrawler creates a category crawler. Relative links are
// resolved against baseURL.
func NewCategoryCrawler(base *BaseCrawler, baseURL string) *CategoryCrawler {
	return &CategoryCrawler{BaseCrawler: base, BaseURL: baseURL}
}

// IndexURL returns the URL of the category index page
func (c *CategoryCrawler) IndexURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/p"
}

// FetchTree fetches the category index page and parses its tree
func (c *CategoryCrawler) FetchTree(ctx context.Context) ([]*CategoryNode, error) {
	markup, err := c.fetch(ctx, c.IndexURL())
	if err != nil {
		return nil, err
	}

	tree, err := ParseCategoryTree(markup, c.BaseURL)
	if err != nil {
		return nil, errors.NewParsing(c.Name, "failed to parse category index", err)
	}
	return tree, nil
}

// ParseCategoryTree reads the three category levels of an index page.
// Nodes repeated under the same parent are merged by name.
func ParseCategoryTree(markup, baseURL string) ([]*CategoryNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var roots []*CategoryNode
	doc.Find(masterBlockSelector).Each(func(_ int, master *goquery.Selection) {
		masterURLs := make(map[string]string)
		master.Find(masterLinkSelector).Each(func(_ int, a *goquery.Selection) {
			masterURLs[strings.TrimSpace(a.Text())] = absoluteURL(baseURL, a.AttrOr("href", ""))
		})

		master.Find(detailBlockSelector).Each(func(_ int, detail *goquery.Selection) {
			name := strings.TrimSpace(detail.Find(detailNameSelector).First().Text())
			if name == "" {
				return
			}
			top := childNamed(&roots, name, masterURLs[name], LevelMain)

			detail.Find(subBlockSelector).Each(func(_ int, sub *goquery.Selection) {
				a := sub.ChildrenFiltered("a").First()
				subName := strings.TrimSpace(a.Text())
				if a.Length() == 0 || subName == "" {
					return
				}
				subNode := childNamed(&top.Children, subName, absoluteURL(baseURL, a.AttrOr("href", "")), LevelSub)

				sub.Find(childLinkSelector).Each(func(_ int, leaf *goquery.Selection) {
					leafName := strings.TrimSpace(leaf.Text())
					if leafName == "" {
						return
					}
					childNamed(&subNode.Children, leafName, absoluteURL(baseURL, leaf.AttrOr("href", "")), LevelLeaf)
				})
			})
		})
	})
	return roots, nil
}

// childNamed returns the node called name in nodes, appending it first if absent
func childNamed(nodes *[]*CategoryNode, name, url string, level int) *CategoryNode {
	for _, n := range *nodes {
		if n.Name == name {
			if n.URL == "" {
				n.URL = url
			}
			return n
		}
	}
	n := &CategoryNode{Name: name, URL: url, Level: level}
	*nodes = append(*nodes, n)
	return n
}

func absoluteURL(baseURL, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(href, "/")
}
