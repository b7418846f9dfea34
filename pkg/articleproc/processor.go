// Package articleproc turns article HTML into plain prose.
package articleproc

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Info contains the cleaned prose and metadata.
type Info struct {
	Prose     string
	WordCount int
}

// ExtractProse parses article HTML and keeps the leading body paragraphs,
// stopping at the first reference list or navigation box.
func ExtractProse(r io.Reader) (*Info, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := findParserOutput(doc)
	if root == nil {
		root = findBody(doc)
	}

	var paragraphs []string
	var words int
	if root != nil {
	walk:
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch {
			case isStructuralNoise(c):
				break walk
			case (c.DataAtom == atom.H2 || c.DataAtom == atom.H3) && isFollowedByStructuralNoise(c):
				break walk
			case c.DataAtom == atom.P:
				if text := cleanParagraph(c); text != "" {
					paragraphs = append(paragraphs, text)
					words += len(strings.Fields(text))
				}
			}
		}
	}

	return &Info{
		Prose:     strings.Join(paragraphs, "\n\n"),
		WordCount: words,
	}, nil
}

// Summarize reduces an intro extract to plain text. Unparseable input comes
// back with whitespace collapsed.
func Summarize(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.Contains(fragment, "<") {
		return collapseSpace(fragment)
	}
	info, err := ExtractProse(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return info.Prose
}

func findParserOutput(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, "mw-parser-output") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findParserOutput(c); res != nil {
			return res
		}
	}
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findBody(c); res != nil {
			return res
		}
	}
	return nil
}

func cleanParagraph(p *html.Node) string {
	var b strings.Builder
	traverseParagraph(p, &b)
	return collapseSpace(b.String())
}

func traverseParagraph(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		// citations [1], inline css, pronunciation helpers
		if n.DataAtom == atom.Sup || n.DataAtom == atom.Style || n.DataAtom == atom.Script {
			return
		}
		if hasClass(n, "mw-empty-elt") || hasClass(n, "reference") || hasClass(n, "noexcerpt") {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		traverseParagraph(c, b)
	}
}

func isStructuralNoise(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		val := strings.ToLower(a.Val)
		if strings.Contains(val, "reflist") ||
			strings.Contains(val, "references") ||
			strings.Contains(val, "navbox") ||
			strings.Contains(val, "asbox") ||
			strings.Contains(val, "catlinks") {
			return true
		}
	}
	return false
}

// isFollowedByStructuralNoise reports whether the next element after a header is noise.
func isFollowedByStructuralNoise(n *html.Node) bool {
	for next := n.NextSibling; next != nil; next = next.NextSibling {
		if next.Type == html.ElementNode {
			return isStructuralNoise(next)
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(a.Val, class) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
