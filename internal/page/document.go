// Package page holds an HTML document in memory and dispatches DOM-style events
// over it. A Document is not safe for concurrent use; callers confine it to a
// single goroutine.
package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const skeleton = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Glossary</title></head><body></body></html>`

// Event is a dispatched DOM event.
type Event struct {
	Type string
	// Target is the node the event was dispatched on.
	Target *goquery.Selection
	// CurrentTarget is the node whose listener is running.
	CurrentTarget *goquery.Selection
	stopped       bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles an event.
type Listener func(ev *Event)

// Document is an in-memory HTML document.
type Document struct {
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]Listener
}

// New returns an empty document with a head and a body.
func New() *Document {
	d, err := Parse(strings.NewReader(skeleton))
	if err != nil {
		panic(fmt.Sprintf("page: parse skeleton: %v", err))
	}
	return d
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{doc: doc, listeners: make(map[*html.Node]map[string][]Listener)}, nil
}

// Find returns the elements matching a CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Body returns the body element.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body")
}

// ByID returns the element with the given id (possibly empty).
func (d *Document) ByID(id string) *goquery.Selection {
	return d.doc.FindMatcher(idMatcher(id)).First()
}

// AddEventListener registers l for events of type typ on every node in sel.
func (d *Document) AddEventListener(sel *goquery.Selection, typ string, l Listener) {
	for _, n := range sel.Nodes {
		byType, ok := d.listeners[n]
		if !ok {
			byType = make(map[string][]Listener)
			d.listeners[n] = byType
		}
		byType[typ] = append(byType[typ], l)
	}
}

// ListenerCount returns the number of listeners of type typ in the whole document.
func (d *Document) ListenerCount(typ string) int {
	n := 0
	for _, byType := range d.listeners {
		n += len(byType[typ])
	}
	return n
}

// Dispatch fires an event of type typ at the first node of target and bubbles it
// through the node's ancestors. It reports whether any listener ran.
func (d *Document) Dispatch(target *goquery.Selection, typ string) bool {
	if target.Length() == 0 {
		return false
	}
	ev := &Event{Type: typ, Target: target.First()}
	ran := false
	for n := target.Nodes[0]; n != nil && !ev.stopped; n = n.Parent {
		ls := d.listeners[n][typ]
		if len(ls) == 0 {
			continue
		}
		ev.CurrentTarget = goquery.NewDocumentFromNode(n).Selection
		for _, l := range ls {
			l(ev)
			ran = true
		}
	}
	return ran
}

// Click dispatches a click on the first element matching selector.
func (d *Document) Click(selector string) error {
	sel := d.Find(selector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("click: no element matches %q", selector)
	}
	d.Dispatch(sel, "click")
	return nil
}

// Forget drops the listeners of every node in sel and its descendants. Call it
// before removing a subtree that had listeners.
func (d *Document) Forget(sel *goquery.Selection) {
	for _, root := range sel.Nodes {
		walk(root, func(n *html.Node) { delete(d.listeners, n) })
	}
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render document: %w", err)
		}
	}
	return buf.String(), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

type idMatcher string

func (m idMatcher) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == string(m) {
			return true
		}
	}
	return false
}

func (m idMatcher) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) {
		if m.Match(c) {
			out = append(out, c)
		}
	})
	return out
}

func (m idMatcher) Filter(ns []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range ns {
		if m.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
