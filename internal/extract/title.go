package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Title extracts the <title> text from an HTML document.
// Returns an empty string if the document has no title or cannot be parsed.
func Title(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool

	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = collapseWhitespace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(doc)
	return title
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
