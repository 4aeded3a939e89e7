package router

import (
	"fmt"
	"regexp"
	"strings"
)

// Option configures Compile.
type Option func(*compileOptions)

type compileOptions struct {
	trailing TrailingSlash
}

// WithTrailingSlash sets the trailing slash mode. The default is
// TrailingIgnore.
func WithTrailingSlash(mode TrailingSlash) Option {
	return func(o *compileOptions) {
		o.trailing = mode
	}
}

// Compile turns a route template into a Route.
//
// Templates are slash-separated. Segments may mix static text with
// [name] parameters; [...name] (or *name) must stand alone and captures
// the remainder of the path. :name is accepted as a whole-segment alias
// for [name].
func Compile(template string, kind Kind, component string, opts ...Option) (*Route, error) {
	o := compileOptions{trailing: TrailingIgnore}
	for _, opt := range opts {
		opt(&o)
	}
	switch o.trailing {
	case TrailingIgnore, TrailingAlways, TrailingNever:
	default:
		return nil, fmt.Errorf("%w: unknown trailing slash mode %q", ErrInvalidRoute, o.trailing)
	}
	if kind == "" {
		kind = KindPage
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRoute, kind)
	}

	segments, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	return buildRoute(segments, kind, component, o.trailing)
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string, kind Kind, component string, opts ...Option) *Route {
	r, err := Compile(template, kind, component, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func buildRoute(segments [][]part, kind Kind, component string, trailing TrailingSlash) (*Route, error) {
	source := patternSource(segments, trailing)
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}

	var names []string
	static := true
	for _, seg := range segments {
		if len(seg) != 1 || seg[0].dynamic {
			static = false
		}
		for _, p := range seg {
			if !p.dynamic {
				continue
			}
			if p.spread {
				names = append(names, RestPrefix+p.content)
			} else {
				names = append(names, p.content)
			}
		}
	}

	r := &Route{
		Pattern:       re,
		ParamNames:    names,
		Component:     component,
		Kind:          kind,
		Template:      formatTemplate(segments),
		TrailingSlash: trailing,
		segments:      segments,
	}
	if static {
		r.Pathname = r.Template
	}
	return r, nil
}

func patternSource(segments [][]part, trailing TrailingSlash) string {
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 1 && seg[0].spread {
			b.WriteString(`(?:\/(.*?))?`)
			continue
		}
		b.WriteString(`\/`)
		for _, p := range seg {
			if p.dynamic {
				b.WriteString(`([^/]+?)`)
			} else {
				b.WriteString(escapeStatic(p.content))
			}
		}
	}

	path := b.String()
	if path == "" {
		path = `\/`
	}

	end := "$"
	if len(segments) > 0 {
		switch trailing {
		case TrailingAlways:
			end = `\/$`
		case TrailingIgnore:
			end = `\/?$`
		}
	}
	return "^" + path + end
}

var staticEscaper = strings.NewReplacer("?", "%3F", "#", "%23", "%5B", "[", "%5D", "]")

func escapeStatic(s string) string {
	return regexp.QuoteMeta(staticEscaper.Replace(s))
}

// parseTemplate splits a template into segments of parts. The root
// template yields an empty, non-nil slice.
func parseTemplate(template string) ([][]part, error) {
	trimmed := strings.Trim(template, "/")
	segments := [][]part{}
	if trimmed == "" {
		return segments, nil
	}

	for _, raw := range strings.Split(trimmed, "/") {
		seg := normalizeSegment(raw)
		if err := validateSegment(seg, template); err != nil {
			return nil, err
		}
		parts, err := getParts(seg, template)
		if err != nil {
			return nil, err
		}
		segments = append(segments, parts)
	}
	return segments, nil
}

// normalizeSegment rewrites :name and *name into bracket form.
func normalizeSegment(seg string) string {
	switch {
	case len(seg) > 1 && seg[0] == ':':
		return "[" + seg[1:] + "]"
	case len(seg) > 1 && seg[0] == '*':
		return "[" + RestPrefix + seg[1:] + "]"
	}
	return seg
}

var paramName = regexp.MustCompile(`^[A-Za-z0-9_$]+$`)

func getParts(seg, template string) ([]part, error) {
	var parts []part
	for seg != "" {
		open := strings.IndexByte(seg, '[')
		if open < 0 {
			parts = append(parts, part{content: seg})
			break
		}
		if open > 0 {
			parts = append(parts, part{content: seg[:open]})
		}
		closeAt := strings.IndexByte(seg[open:], ']')
		if closeAt < 0 {
			return nil, invalidf(template, "unclosed parameter in %q", seg)
		}
		inner := seg[open+1 : open+closeAt]
		spread := strings.HasPrefix(inner, RestPrefix)
		name := strings.TrimPrefix(inner, RestPrefix)
		if !paramName.MatchString(name) {
			return nil, invalidf(template, "invalid parameter name %q", inner)
		}
		parts = append(parts, part{content: name, dynamic: true, spread: spread})
		seg = seg[open+closeAt+1:]
	}
	return parts, nil
}

func formatTemplate(segments [][]part) string {
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		for _, p := range seg {
			switch {
			case p.spread:
				b.WriteString("[" + RestPrefix + p.content + "]")
			case p.dynamic:
				b.WriteString("[" + p.content + "]")
			default:
				b.WriteString(p.content)
			}
		}
	}
	return b.String()
}

func invalidf(template, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidRoute, template, fmt.Sprintf(format, args...))
}
