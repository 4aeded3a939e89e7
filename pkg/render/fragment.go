package render

import (
	"context"
	"fmt"

	"github.com/a-h/templ"
)

// Fragment is a piece of markup waiting to be rendered. The set of
// implementations is closed; use the constructors in this file.
type Fragment interface {
	fragment()
}

type (
	textFragment  string
	htmlFragment  string
	listFragment  []Fragment
	funcFragment  func(*Context) (Fragment, error)
	valueFragment struct{ v any }
	templFragment struct{ c templ.Component }
	slotFragment  func(*Context, ...any) (Fragment, error)
)

func (textFragment) fragment()  {}
func (htmlFragment) fragment()  {}
func (listFragment) fragment()  {}
func (funcFragment) fragment()  {}
func (valueFragment) fragment() {}
func (templFragment) fragment() {}
func (slotFragment) fragment()  {}
func (*future) fragment()       {}
func (*instance) fragment()     {}

// Text renders s with HTML escaping.
func Text(s string) Fragment {
	return textFragment(s)
}

// HTML renders s verbatim. Use only for trusted markup.
func HTML(s string) Fragment {
	return htmlFragment(s)
}

// List renders fragments in order.
func List(fs ...Fragment) Fragment {
	return listFragment(fs)
}

// Func defers work until the fragment is rendered.
func Func(fn func(*Context) (Fragment, error)) Fragment {
	return funcFragment(fn)
}

// Value renders a primitive. Strings are escaped; nil, false, "" and NaN
// render nothing; numbers and true render their string form; a Fragment
// renders as itself; []any renders each element.
func Value(v any) Fragment {
	return valueFragment{v: v}
}

// Templ renders a templ component as trusted HTML.
func Templ(c templ.Component) Fragment {
	return templFragment{c: c}
}

// SlotFunc is a slot fill that takes arguments from the component that
// renders it. Renders with arguments are never cached.
func SlotFunc(fn func(ctx *Context, args ...any) (Fragment, error)) Fragment {
	return slotFragment(fn)
}

// future is a fragment computed on its own goroutine.
type future struct {
	done   chan struct{}
	cancel context.CancelFunc
	f      Fragment
	err    error
}

// Go starts fn now and returns a fragment that waits for it when
// rendered. Output order follows position in the tree, not completion.
//
// fn runs with a context derived from ctx, usually the render Context's
// Context(). It is canceled when ctx is, or when the renderer stops
// waiting for the fragment.
func Go(ctx context.Context, fn func(ctx context.Context) (Fragment, error)) Fragment {
	ctx, cancel := context.WithCancel(ctx)
	fut := &future{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(fut.done)
		defer func() {
			if r := recover(); r != nil {
				fut.err = fmt.Errorf("render: panic in async fragment: %v", r)
			}
		}()
		fut.f, fut.err = fn(ctx)
	}()
	return fut
}

// instance is a nested component invocation.
type instance struct {
	c     *Component
	props Props
	fills map[string]Fragment
}

// Render nests component c with props and slot fills.
func Render(c *Component, props Props, fills map[string]Fragment) Fragment {
	return &instance{c: c, props: props, fills: fills}
}

// HeadSlot marks where head assets are injected.
func HeadSlot() Fragment {
	return htmlFragment(HeadMarker)
}
