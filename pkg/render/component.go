package render

import (
	"sort"
	"sync"
)

// Props are the values a component renders from.
type Props map[string]any

// RenderFunc produces a component's markup.
type RenderFunc func(ctx *Context, props Props, slots *Slots) (Fragment, error)

// Component is a renderable unit with the head assets it depends on.
type Component struct {
	Name   string
	Head   Assets
	Render RenderFunc
}

// NewComponent creates a component from a render function.
func NewComponent(name string, fn RenderFunc) *Component {
	return &Component{Name: name, Render: fn}
}

// WithHead returns c with its head assets replaced.
func (c *Component) WithHead(a Assets) *Component {
	c.Head = a
	return c
}

// Slots gives a component lazy access to the content its parent passed.
// Each named slot renders at most once per instance unless it is rendered
// with arguments.
type Slots struct {
	ctx   *Context
	fills map[string]Fragment

	mu    sync.Mutex
	cache map[string]string
}

func newSlots(ctx *Context, fills map[string]Fragment) *Slots {
	return &Slots{ctx: ctx, fills: fills, cache: make(map[string]string)}
}

// Has reports whether the parent filled slot name.
func (s *Slots) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.fills[name]
	return ok
}

// Render renders slot name to HTML. A missing slot renders as "".
func (s *Slots) Render(name string) (string, error) {
	if !s.Has(name) {
		return "", nil
	}

	s.mu.Lock()
	if html, ok := s.cache[name]; ok {
		s.mu.Unlock()
		return html, nil
	}
	s.mu.Unlock()

	html, err := s.ctx.renderToString(s.fills[name])
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = html
	return html, nil
}

// RenderWith renders slot name passing args to a SlotFunc fill. The
// output depends on args, so it bypasses the cache.
func (s *Slots) RenderWith(name string, args ...any) (string, error) {
	if !s.Has(name) {
		return "", nil
	}
	if len(args) == 0 {
		return s.Render(name)
	}
	fill := s.fills[name]
	fn, ok := fill.(slotFragment)
	if !ok {
		return s.ctx.renderToString(fill)
	}
	f, err := fn(s.ctx, args...)
	if err != nil {
		return "", err
	}
	return s.ctx.renderToString(f)
}

// Slot returns a fragment that renders slot name in place, falling back
// to fallback when the slot was not filled.
func (s *Slots) Slot(name string, fallback ...Fragment) Fragment {
	return Func(func(*Context) (Fragment, error) {
		if !s.Has(name) {
			return List(fallback...), nil
		}
		html, err := s.Render(name)
		if err != nil {
			return nil, err
		}
		return HTML(html), nil
	})
}

// Names returns the filled slot names, sorted.
func (s *Slots) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fills))
	for n := range s.fills {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
