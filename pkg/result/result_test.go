package result

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResponseIsThrowable(t *testing.T) {
	resp := Redirect("/login", 0)
	err := fmt.Errorf("render: %w", resp)

	var got *Response
	if !errors.As(err, &got) {
		t.Fatal("errors.As should recover the thrown *Response")
	}
	if got.Status != http.StatusFound {
		t.Errorf("Status = %d, want 302", got.Status)
	}
	if got.Header.Get("Location") != "/login" {
		t.Errorf("Location = %q", got.Header.Get("Location"))
	}
	if got.Error() != "response 302 -> /login" {
		t.Errorf("Error() = %q", got.Error())
	}
}

func TestConstructors(t *testing.T) {
	r := Text(http.StatusTeapot, "short and stout")
	if r.Header.Get("Content-Type") != "text/plain; charset=utf-8" || string(r.Body) != "short and stout" {
		t.Errorf("Text() = %+v", r)
	}

	html := FromHTML("<p>x</p>", nil)
	if html.Kind != KindHTML || html.Init.Status != http.StatusOK || html.Init.Header == nil {
		t.Errorf("FromHTML() = %+v", html)
	}

	if FromResponse(r).Kind != KindResponse {
		t.Error("FromResponse kind mismatch")
	}
	if FromBody(Body{Body: "ok"}).Kind != KindSimple {
		t.Error("FromBody kind mismatch")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{KindResponse: "response", KindHTML: "html", KindSimple: "simple", Kind(9): "kind(9)"}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
