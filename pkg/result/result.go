// Package result defines the values that leave the rendering pipeline: the
// per-request Result and the raw Response that pages and endpoints may
// return (or throw) instead of markup.
package result

import (
	"net/http"
	"strconv"
)

// Kind discriminates the Result union.
type Kind int

const (
	// KindResponse carries a complete Response produced by user code.
	KindResponse Kind = iota
	// KindHTML carries rendered page markup plus the status/headers the
	// page set while rendering.
	KindHTML
	// KindSimple carries an endpoint body that still needs headers.
	KindSimple
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindHTML:
		return "html"
	case KindSimple:
		return "simple"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Init holds the status and headers applied to an HTML result.
type Init struct {
	Status int
	Header http.Header
}

// NewInit returns an Init with status 200 and an empty header.
func NewInit() *Init {
	return &Init{Status: http.StatusOK, Header: make(http.Header)}
}

// Body is the simple endpoint output form.
type Body struct {
	Body string
	// Encoding is "" for text or "base64" for binary payloads.
	Encoding string
	// ContentType is derived from the route when empty.
	ContentType string
}

// Result is produced once per request and never mutated afterwards.
type Result struct {
	Kind     Kind
	Response *Response
	HTML     string
	Init     *Init
	Simple   Body
}

// FromResponse wraps a Response.
func FromResponse(r *Response) Result {
	return Result{Kind: KindResponse, Response: r}
}

// FromHTML wraps rendered markup.
func FromHTML(html string, init *Init) Result {
	if init == nil {
		init = NewInit()
	}
	return Result{Kind: KindHTML, HTML: html, Init: init}
}

// FromBody wraps a simple endpoint body.
func FromBody(b Body) Result {
	return Result{Kind: KindSimple, Simple: b}
}
