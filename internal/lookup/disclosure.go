package lookup

import (
	"fmt"
	"strconv"

	"github.com/hyperjump/glossary/internal/page"
)

// Disclosure is the collapsed/expanded state of one rendered entry.
type Disclosure int

const (
	Collapsed Disclosure = iota
	Expanded
)

func (d Disclosure) String() string {
	switch d {
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return fmt.Sprintf("Disclosure(%d)", int(d))
	}
}

// onClick is the single click listener on the result area. It resolves the
// toggle control that was clicked, if any, to its entry index.
func (c *Controller) onClick(ev *page.Event) {
	btn := ev.Target.Closest(".toggle-btn")
	if btn.Length() == 0 {
		return
	}
	i, err := strconv.Atoi(btn.AttrOr("data-index", ""))
	if err != nil {
		return
	}
	c.toggle(i)
}

// toggle flips entry i of the current pass. Only entry i's subtree changes.
func (c *Controller) toggle(i int) {
	p := c.pass
	if p == nil || i < 0 || i >= len(p.states) {
		return
	}
	item := p.area.Find("#result-" + strconv.Itoa(i))
	expand := item.ChildrenFiltered(`.toggle-btn[data-action="expand"]`)
	full := item.Find("#" + fullID(i))

	switch p.states[i] {
	case Collapsed:
		page.Show(full)
		page.Hide(expand)
		p.states[i] = Expanded
	case Expanded:
		page.Hide(full)
		page.Show(expand)
		p.states[i] = Collapsed
	}
}

// clickToggle dispatches a click on the visible toggle control of entry i.
func (c *Controller) clickToggle(i int) error {
	sel := fmt.Sprintf(`.toggle-btn[data-index="%d"]`, i)
	btn := page.Visible(c.results.Find(sel)).First()
	if btn.Length() == 0 {
		return fmt.Errorf("toggle: no visible control for entry %d", i)
	}
	c.doc.Dispatch(btn, "click")
	return nil
}
