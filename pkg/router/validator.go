package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// validateSegment checks a bracket-form segment for structural errors.
func validateSegment(seg, template string) error {
	if seg == "" {
		return invalidf(template, "empty path segment")
	}
	if strings.Contains(seg, "][") {
		return invalidf(template, "parameters in %q must be separated by static text", seg)
	}
	if strings.Count(seg, "[") != strings.Count(seg, "]") {
		return invalidf(template, "unbalanced brackets in %q", seg)
	}
	if strings.Contains(seg, "["+RestPrefix) {
		if !strings.HasPrefix(seg, "["+RestPrefix) || !strings.HasSuffix(seg, "]") || strings.Count(seg, "[") != 1 {
			return invalidf(template, "rest parameter in %q must be a whole segment", seg)
		}
	}
	return nil
}

// Validate checks a set of routes for conflicts that compile cannot see on
// its own: two routes with the same template, and repeated parameter names
// within one route. All problems are reported together.
func Validate(routes []*Route) error {
	var errs []error
	seen := make(map[string]string, len(routes))

	for _, r := range routes {
		key := r.Template
		if key == "" && r.Pattern != nil {
			key = r.Pattern.String()
		}
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %s and %s both resolve to %s", ErrInvalidRoute, prev, r.Component, key))
		} else {
			seen[key] = r.Component
		}

		names := make(map[string]bool, len(r.ParamNames))
		for _, n := range r.ParamNames {
			n = strings.TrimPrefix(n, RestPrefix)
			if names[n] {
				errs = append(errs, fmt.Errorf("%w: %s declares param %q twice", ErrInvalidRoute, r, n))
			}
			names[n] = true
		}
	}
	return errors.Join(errs...)
}

// scanItem is one directory entry considered by the Scanner.
type scanItem struct {
	basename string
	file     string
	parts    []part
	isDir    bool
	isIndex  bool
	isPage   bool
}

func (it scanItem) isSpread() bool {
	return strings.Contains(it.basename, "["+RestPrefix)
}

// sortItems orders entries of one directory so that more specific routes
// come first: static before dynamic before rest, longer static text first,
// endpoints before pages on a tie, and finally by file name.
func sortItems(items []scanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareItems(items[i], items[j]) < 0
	})
}

func compareItems(a, b scanItem) int {
	if a.isIndex != b.isIndex {
		if a.isIndex {
			if b.isSpread() {
				return -1
			}
			return 1
		}
		if a.isSpread() {
			return 1
		}
		return -1
	}

	n := max(len(a.parts), len(b.parts))
	for i := 0; i < n; i++ {
		if i >= len(a.parts) {
			return 1
		}
		if i >= len(b.parts) {
			return -1
		}
		ap, bp := a.parts[i], b.parts[i]

		if ap.spread && bp.spread {
			if a.isIndex {
				return 1
			}
			return -1
		}
		if ap.spread != bp.spread {
			if ap.spread {
				return 1
			}
			return -1
		}
		if ap.dynamic != bp.dynamic {
			if ap.dynamic {
				return 1
			}
			return -1
		}
		if !ap.dynamic && ap.content != bp.content {
			if d := len(bp.content) - len(ap.content); d != 0 {
				return d
			}
			if ap.content < bp.content {
				return -1
			}
			return 1
		}
	}

	if a.isPage != b.isPage {
		if a.isPage {
			return 1
		}
		return -1
	}
	if a.file < b.file {
		return -1
	}
	if a.file > b.file {
		return 1
	}
	return 0
}
