package prayer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const (
	nameClass = "waktu-solat"
	timeClass = "jam-solat"
)

// ScrapeTimes extracts prayer name/time pairs from a prayer times page. Names
// and times are matched pairwise in document order.
func ScrapeTimes(r io.Reader) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse prayer page: %w", err)
	}

	var names, times []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "span" {
			switch {
			case hasClass(n, nameClass):
				names = append(names, textContent(n))
			case hasClass(n, timeClass):
				times = append(times, textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	pairs := min(len(names), len(times))
	if pairs == 0 {
		return nil, ErrNoTimes
	}
	out := make(map[string]string, pairs)
	for i := 0; i < pairs; i++ {
		out[names[i]] = times[i]
	}
	return out, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, field := range strings.Fields(attr.Val) {
			if field == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}
