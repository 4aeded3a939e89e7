package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// renderToString drains f into a string.
func (c *Context) renderToString(f Fragment) (string, error) {
	var b strings.Builder
	if err := c.render(&b, f); err != nil {
		return "", err
	}
	return b.String(), nil
}

// render writes f to b depth-first. Nested components are drained into
// their own buffer before being spliced in.
func (c *Context) render(b *strings.Builder, f Fragment) error {
	switch x := f.(type) {
	case nil:
		return nil
	case textFragment:
		b.WriteString(EscapeHTML(string(x)))
	case htmlFragment:
		b.WriteString(string(x))
	case listFragment:
		for _, item := range x {
			if err := c.render(b, item); err != nil {
				return err
			}
		}
	case funcFragment:
		next, err := x(c)
		if err != nil {
			return err
		}
		return c.render(b, next)
	case slotFragment:
		next, err := x(c)
		if err != nil {
			return err
		}
		return c.render(b, next)
	case *future:
		defer x.cancel()
		select {
		case <-x.done:
		case <-c.std.Done():
		}
		if err := c.std.Err(); err != nil {
			return err
		}
		if x.err != nil {
			return x.err
		}
		return c.render(b, x.f)
	case valueFragment:
		return c.renderValue(b, x.v)
	case templFragment:
		if x.c == nil {
			return nil
		}
		var buf bytes.Buffer
		if err := x.c.Render(c.std, &buf); err != nil {
			return err
		}
		b.Write(buf.Bytes())
	case *instance:
		html, err := c.renderInstance(x)
		if err != nil {
			return err
		}
		b.WriteString(html)
	default:
		return fmt.Errorf("render: unknown fragment %T", f)
	}
	return nil
}

func (c *Context) renderInstance(in *instance) (string, error) {
	if in.c == nil || in.c.Render == nil {
		return "", nil
	}
	c.head.Add(in.c.Head)

	props := in.props
	if props == nil {
		props = Props{}
	}
	f, err := in.c.Render(c, props, newSlots(c, in.fills))
	if err != nil {
		return "", err
	}
	return c.renderToString(f)
}

func (c *Context) renderValue(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
	case Fragment:
		return c.render(b, x)
	case []Fragment:
		return c.render(b, listFragment(x))
	case []any:
		for _, item := range x {
			if err := c.renderValue(b, item); err != nil {
				return err
			}
		}
	case string:
		b.WriteString(EscapeHTML(x))
	case bool:
		if x {
			b.WriteString("true")
		}
	case int:
		b.WriteString(strconv.Itoa(x))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(x, 10))
	case float32:
		return c.renderValue(b, float64(x))
	case float64:
		if !math.IsNaN(x) {
			b.WriteString(strconv.FormatFloat(x, 'f', -1, 64))
		}
	case fmt.Stringer:
		b.WriteString(EscapeHTML(x.String()))
	default:
		b.WriteString(EscapeHTML(fmt.Sprint(x)))
	}
	return nil
}
