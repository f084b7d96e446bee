package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hiddenStyle is the inline style that hides an element.
const hiddenStyle = "display:none"

// Attr is an element attribute.
type Attr = html.Attribute

// A returns an attribute.
func A(key, val string) Attr {
	return Attr{Key: key, Val: val}
}

// El builds an element. Children may be elements or text nodes.
func El(tag string, attrs []Attr, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     append([]Attr(nil), attrs...),
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Text builds a text node. It is escaped when rendered.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attrs is shorthand for a literal attribute list.
func Attrs(kv ...string) []Attr {
	attrs := make([]Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, A(kv[i], kv[i+1]))
	}
	return attrs
}

// Hide adds the hidden style to every element in sel.
func Hide(sel *goquery.Selection) {
	sel.SetAttr("style", hiddenStyle)
}

// Show removes the inline style from every element in sel.
func Show(sel *goquery.Selection) {
	sel.RemoveAttr("style")
}

// Hidden reports whether the first element of sel or one of its ancestors is hidden.
func Hidden(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return true
	}
	for n := sel.Nodes[0]; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "style" && strings.Contains(strings.ReplaceAll(a.Val, " ", ""), hiddenStyle) {
				return true
			}
		}
	}
	return false
}

// Visible filters sel down to the elements that are not hidden.
func Visible(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !Hidden(s)
	})
}
