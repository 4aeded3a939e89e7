// Package routepath normalizes request paths before matching and derives
// canonical page URLs.
package routepath

import (
	"errors"
	"strings"
)

// Result is a cleaned request path.
type Result struct {
	// Path is the cleaned path, percent-encoding intact, no query.
	Path string

	// Query is the query string without the leading "?".
	Query string

	// Changed reports whether cleaning modified the path.
	Changed bool
}

// Path cleaning errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Clean normalizes a request path for matching:
//   - collapses repeated slashes (/blog//post → /blog/post)
//   - drops "." segments and resolves ".." segments
//   - keeps a trailing slash, since routes decide how to treat it
//
// Backslashes, NUL bytes, malformed percent-escapes and ".." above the
// root are rejected. A query string is split off and returned untouched.
func Clean(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	p, query, _ := strings.Cut(input, "?")

	if strings.Contains(p, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(p, "%") {
		if err := validatePercentEscapes(p); err != nil {
			return Result{}, err
		}
	}

	original := p
	trailing := len(p) > 1 && strings.HasSuffix(p, "/")

	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	cleaned := "/" + strings.Join(out, "/")
	if trailing && cleaned != "/" {
		cleaned += "/"
	}

	return Result{
		Path:    cleaned,
		Query:   query,
		Changed: cleaned != original,
	}, nil
}

func validatePercentEscapes(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			continue
		}
		if i+2 >= len(p) || !isHexDigit(p[i+1]) || !isHexDigit(p[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
