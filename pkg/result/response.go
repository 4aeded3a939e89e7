package result

import (
	"fmt"
	"net/http"
)

// Response is a complete HTTP response produced by user code.
//
// It implements error so that a component can "throw" it: returning a
// *Response as the error from a render function short-circuits the page and
// the Response becomes the final answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a Response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// Text creates a text/plain Response.
func Text(status int, body string) *Response {
	r := NewResponse(status, []byte(body))
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return r
}

// Redirect creates a redirect Response. Status defaults to 302.
func Redirect(location string, status int) *Response {
	if status == 0 {
		status = http.StatusFound
	}
	r := NewResponse(status, nil)
	r.Header.Set("Location", location)
	return r
}

// Error implements error.
func (r *Response) Error() string {
	if loc := r.Header.Get("Location"); loc != "" {
		return fmt.Sprintf("response %d -> %s", r.Status, loc)
	}
	return fmt.Sprintf("response %d", r.Status)
}
