package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedParam is returned when a captured value is not valid
// percent-encoding.
var ErrMalformedParam = errors.New("router: malformed parameter encoding")

// ExtractParams matches pathname against the route and returns the decoded
// captures keyed by parameter name. A pathname the route does not match
// yields empty params. Rest captures that matched nothing are left out.
func (r *Route) ExtractParams(pathname string) (Params, error) {
	params := Params{}
	if r.Pattern == nil {
		return params, nil
	}
	loc := r.Pattern.FindStringSubmatchIndex(pathname)
	if loc == nil {
		return params, nil
	}

	for i, name := range r.ParamNames {
		start, end := -1, -1
		if 2*(i+1)+1 < len(loc) {
			start, end = loc[2*(i+1)], loc[2*(i+1)+1]
		}
		raw := ""
		if start >= 0 {
			raw = pathname[start:end]
		}

		if rest, ok := strings.CutPrefix(name, RestPrefix); ok {
			if raw == "" {
				continue
			}
			name = rest
		}

		v, err := url.PathUnescape(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrMalformedParam, name, raw)
		}
		params[name] = v
	}
	return params, nil
}

// Generate builds a pathname from params, the inverse of ExtractParams.
// Absent or empty rest params collapse their segment.
func (r *Route) Generate(params Params) (string, error) {
	segments := r.segments
	if segments == nil {
		if r.Template == "" {
			if r.Pathname != "" {
				return r.Pathname, nil
			}
			return "", fmt.Errorf("%w: route %s has no template", ErrInvalidRoute, r)
		}
		segs, err := parseTemplate(r.Template)
		if err != nil {
			return "", err
		}
		segments = segs
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 1 && seg[0].spread {
			if v := params[seg[0].content]; v != "" {
				b.WriteByte('/')
				b.WriteString(v)
			}
			continue
		}
		b.WriteByte('/')
		for _, p := range seg {
			if !p.dynamic {
				b.WriteString(p.content)
				continue
			}
			v, ok := params[p.content]
			if !ok {
				return "", fmt.Errorf("router: missing param %q for %s", p.content, r)
			}
			b.WriteString(v)
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}
	if r.TrailingSlash == TrailingAlways {
		b.WriteByte('/')
	}
	return b.String(), nil
}
