package router

// Table is an ordered, read-only list of routes.
type Table struct {
	routes []*Route
}

// NewTable builds a table from routes in the given order. Nil routes are
// dropped.
func NewTable(routes ...*Route) *Table {
	t := &Table{routes: make([]*Route, 0, len(routes))}
	for _, r := range routes {
		if r != nil {
			t.routes = append(t.routes, r)
		}
	}
	return t
}

// Routes returns the routes in declaration order. The slice is a copy;
// the routes are shared.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Match returns the first route whose pattern matches pathname, or nil.
// Pathname is the cleaned request path with percent-encoding intact;
// ExtractParams does the decoding.
func (t *Table) Match(pathname string) *Route {
	if t == nil {
		return nil
	}
	for _, r := range t.routes {
		if r.Pattern != nil && r.Pattern.MatchString(pathname) {
			return r
		}
	}
	return nil
}

// MatchAll returns every matching route in declaration order.
func (t *Table) MatchAll(pathname string) []*Route {
	var out []*Route
	for _, r := range t.routes {
		if r.Pattern != nil && r.Pattern.MatchString(pathname) {
			out = append(out, r)
		}
	}
	return out
}

// ByComponent returns the first route for component, or nil.
func (t *Table) ByComponent(component string) *Route {
	for _, r := range t.routes {
		if r.Component == component {
			return r
		}
	}
	return nil
}
