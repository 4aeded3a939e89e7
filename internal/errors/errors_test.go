package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "route integrity error",
			code:    "M001",
			wantMsg: "Invalid static paths result",
			wantCat: CategoryRoute,
		},
		{
			name:    "endpoint error",
			code:    "M006",
			wantMsg: "Endpoint handler not found",
			wantCat: CategoryEndpoint,
		},
		{
			name:    "manifest error",
			code:    "M010",
			wantMsg: "Invalid route manifest",
			wantCat: CategoryManifest,
		},
		{
			name:    "unknown error code",
			code:    "M999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New("M003").WithDetail("/blog/c")
	want := "M003: Route pattern matched, but no matching static path found (/blog/c)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestError_WrapSupportsIsAndAs(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("M002").Wrap(sentinel)
	wrapped := fmt.Errorf("route /blog/[slug]: %w", err)

	if !stderrors.Is(wrapped, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}

	var me *Error
	if !stderrors.As(wrapped, &me) {
		t.Fatal("errors.As should find *Error")
	}
	if me.Code != "M002" {
		t.Errorf("Code = %q, want M002", me.Code)
	}
	if CodeOf(wrapped) != "M002" {
		t.Errorf("CodeOf = %q, want M002", CodeOf(wrapped))
	}
	if CodeOf(sentinel) != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", CodeOf(sentinel))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "M001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("M004")
	if got := FromError(fmt.Errorf("wrap: %w", orig), "M001"); got != orig {
		t.Error("FromError should return the existing *Error from the chain")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "M009")
	if got.Code != "M009" || !stderrors.Is(got, plain) {
		t.Errorf("FromError = %+v, want M009 wrapping plain error", got)
	}
}

func TestFormat(t *testing.T) {
	err := New("M006").
		WithDetailf("expected export %q", "post").
		Wrap(stderrors.New("no handler"))

	out := err.Format()
	for _, want := range []string{"M006", "Endpoint handler not found", `expected export "post"`, "no handler", "Hint:", "meridian.dev/docs/errors/M006"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "M006: Endpoint handler not found" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, New("M007").WithDetail("pages/about.html"))
	if !strings.Contains(buf.String(), "pages/about.html") {
		t.Errorf("Fprint(structured) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %d", len(lines))
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
}

func TestAllCodesRegistered(t *testing.T) {
	codes := AllCodes()
	if len(codes) != 11 {
		t.Fatalf("AllCodes() = %v, want 11 codes", codes)
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has incomplete template: %+v", code, tmpl)
		}
	}
}
