package explorer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// CleanedPage is cleaned HTML content with page metadata.
type CleanedPage struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true,
	"header": true, "footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "tr": true, "td": true, "th": true,
	"form": true, "fieldset": true, "blockquote": true, "pre": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var globalAttributes = map[string]bool{
	"id":               true,
	"class":            true,
	"role":             true,
	"aria-label":       true,
	"aria-describedby": true,
}

// cleanHTML parses raw page HTML and rebuilds it with scripts, styles and
// other noise removed, keeping semantic structure and the attributes that
// matter for describing the UI.
func cleanHTML(rawHTML string, maxLength int) (*CleanedPage, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &CleanedPage{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
	}

	var b strings.Builder
	var length int
	result.Truncated = cleanNode(doc, &b, &length, maxLength, 0)
	result.HTML = b.String()
	return result, nil
}

// cleanNode recursively rewrites one node. Returns true once maxLength was
// reached and output was truncated.
func cleanNode(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	if *length >= maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return writeText(n.Data, b, length, maxLength)
	case html.ElementNode:
		if skippedElements[strings.ToLower(n.Data)] {
			return false
		}
		return writeElement(n, b, length, maxLength, depth)
	default:
		return cleanChildren(n, b, length, maxLength, depth)
	}
}

func writeText(text string, b *strings.Builder, length *int, maxLength int) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if *length+len(text) > maxLength {
		remaining := maxLength - *length
		b.WriteString(text[:remaining])
		b.WriteString("...")
		*length = maxLength
		return true
	}

	b.WriteString(text)
	*length += len(text)
	return false
}

func writeElement(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	tag := strings.ToLower(n.Data)

	if depth > 0 && blockElements[tag] {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth))
	}

	b.WriteString("<")
	b.WriteString(tag)
	for _, attr := range n.Attr {
		if keepAttribute(tag, attr.Key) {
			fmt.Fprintf(b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	b.WriteString(">")
	*length += len(tag) + 2

	truncated := cleanChildren(n, b, length, maxLength, depth+1)

	if !voidElements[tag] {
		if blockElements[tag] {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", depth))
		}
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteString(">")
		*length += len(tag) + 3
	}
	return truncated
}

func cleanChildren(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cleanNode(c, b, length, maxLength, depth) {
			return true
		}
	}
	return false
}

// keepAttribute decides whether an attribute survives cleaning. Global
// attributes and data-* always do; the rest depend on the tag.
func keepAttribute(tag, name string) bool {
	name = strings.ToLower(name)
	if globalAttributes[name] {
		return true
	}
	if strings.HasPrefix(name, "data-") {
		return true
	}

	switch tag {
	case "a":
		return name == "href" || name == "target"
	case "img":
		return name == "src" || name == "alt"
	case "input", "textarea", "select":
		return name == "name" || name == "type" || name == "placeholder" || name == "value"
	case "button":
		return name == "type" || name == "name"
	case "form":
		return name == "action" || name == "method"
	case "table":
		return name == "summary"
	}
	return false
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var description string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil && description == ""; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return description
}
