package render

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// HeadMarker is replaced by the rendered head assets.
const HeadMarker = "<!--meridian:head-->"

// HydrateAttr on a script marks it as hydrating an island, which needs
// the island wrapper style.
const HydrateAttr = "data-meridian-hydrate"

const hydrationStyle = "meridian-island{display:contents}"

// Element is a head element: its attributes and raw children. An
// attribute with an empty value renders as a bare name.
type Element struct {
	Props    map[string]string
	Children string
}

// Assets are the head elements a component needs.
type Assets struct {
	Links   []Element
	Styles  []Element
	Scripts []Element
}

// Stylesheet is a shorthand for a stylesheet link.
func Stylesheet(href string) Element {
	return Element{Props: map[string]string{"rel": "stylesheet", "href": href}}
}

// InlineStyle is a shorthand for a style element.
func InlineStyle(css string) Element {
	return Element{Children: css}
}

// ModuleScript is a shorthand for an external module script.
func ModuleScript(src string) Element {
	return Element{Props: map[string]string{"type": "module", "src": src}}
}

// elementSet keeps insertion order and drops elements equal in props and
// children to one already present.
type elementSet struct {
	seen  map[string]bool
	items []Element
}

func (s *elementSet) add(e Element) {
	key := elementKey(e)
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, e)
}

func elementKey(e Element) string {
	b, _ := json.Marshal(struct {
		P map[string]string `json:"p"`
		C string            `json:"c"`
	}{e.Props, e.Children})
	return string(b)
}

// HeadAssets collects head elements for one page render. It is safe for
// concurrent use by async fragments.
type HeadAssets struct {
	mu      sync.Mutex
	links   elementSet
	styles  elementSet
	scripts elementSet
}

// Add merges a component's assets.
func (h *HeadAssets) Add(a Assets) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range a.Links {
		h.links.add(e)
	}
	for _, e := range a.Styles {
		h.styles.add(e)
	}
	for _, e := range a.Scripts {
		h.scripts.add(e)
	}
}

// AddLink adds a link element.
func (h *HeadAssets) AddLink(e Element) { h.Add(Assets{Links: []Element{e}}) }

// AddStyle adds a style element.
func (h *HeadAssets) AddStyle(e Element) { h.Add(Assets{Styles: []Element{e}}) }

// AddScript adds a script element.
func (h *HeadAssets) AddScript(e Element) { h.Add(Assets{Scripts: []Element{e}}) }

// Len returns the number of distinct elements collected.
func (h *HeadAssets) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.links.items) + len(h.styles.items) + len(h.scripts.items)
}

// Render returns links, then styles, then scripts, one per line. A
// hydration style is appended to the styles when any script carries
// HydrateAttr.
func (h *HeadAssets) Render() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []string
	for _, e := range h.links.items {
		out = append(out, renderElement("link", e))
	}
	for _, e := range h.styles.items {
		out = append(out, renderElement("style", e))
	}

	hydrate := false
	scripts := make([]string, 0, len(h.scripts.items))
	for _, e := range h.scripts.items {
		if _, ok := e.Props[HydrateAttr]; ok {
			hydrate = true
		}
		scripts = append(scripts, renderElement("script", e))
	}
	if hydrate {
		out = append(out, renderElement("style", Element{Children: hydrationStyle}))
	}
	out = append(out, scripts...)

	return strings.Join(out, "\n")
}

// renderElement writes one element with attributes in sorted order.
func renderElement(tag string, e Element) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)

	names := make([]string, 0, len(e.Props))
	for k := range e.Props {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteByte(' ')
		b.WriteString(k)
		if v := e.Props[k]; v != "" {
			b.WriteString(`="`)
			b.WriteString(escapeAttr(v))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if isVoidElement(tag) {
		return b.String()
	}
	b.WriteString(e.Children)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
	return b.String()
}

// voidElements have no closing tag.
var voidElements = map[string]bool{
	"base": true,
	"link": true,
	"meta": true,
}

func isVoidElement(tag string) bool {
	return voidElements[tag]
}

// injectHead splices head into html at the first marker, or prepends it
// when there is none, then removes any remaining markers.
func injectHead(html, head string) string {
	if i := strings.Index(html, HeadMarker); i >= 0 {
		html = html[:i] + head + strings.ReplaceAll(html[i+len(HeadMarker):], HeadMarker, "")
	} else {
		html = head + html
	}
	return html
}

const doctype = "<!DOCTYPE html>"

// ensureDoctype prefixes html with a doctype unless it already starts
// with one, ignoring case and leading whitespace.
func ensureDoctype(html string) string {
	trimmed := strings.TrimLeft(html, " \t\r\n")
	if len(trimmed) >= 9 && strings.EqualFold(trimmed[:9], "<!doctype") {
		return html
	}
	return doctype + "\n" + html
}
