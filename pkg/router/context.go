package router

import (
	"context"
	"sync/atomic"
)

type matchKey struct{}

// MatchRecorder carries the matched route back out to middleware that
// wrapped the handler, for example to label metrics by template.
type MatchRecorder struct {
	route atomic.Pointer[Route]
}

// WithMatchRecorder returns a context holding a recorder. A recorder
// already on ctx is reused so stacked middleware see the same match.
func WithMatchRecorder(ctx context.Context) (context.Context, *MatchRecorder) {
	if rec, ok := ctx.Value(matchKey{}).(*MatchRecorder); ok {
		return ctx, rec
	}
	rec := &MatchRecorder{}
	return context.WithValue(ctx, matchKey{}, rec), rec
}

// RecordMatch stores r in the context's recorder, if any.
func RecordMatch(ctx context.Context, r *Route) {
	if rec, ok := ctx.Value(matchKey{}).(*MatchRecorder); ok {
		rec.route.Store(r)
	}
}

// Route returns the recorded route or nil.
func (m *MatchRecorder) Route() *Route {
	if m == nil {
		return nil
	}
	return m.route.Load()
}

// Label returns the route template for use as a metric label, or
// "unmatched".
func (m *MatchRecorder) Label() string {
	if r := m.Route(); r != nil {
		return r.String()
	}
	return "unmatched"
}
