package routepath

import (
	"net/url"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "no leading slash", input: "about", wantPath: "/about", wantChanged: true},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post", wantChanged: true},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other", wantChanged: true},
		{name: "double dot to root", input: "/blog/../", wantPath: "/", wantChanged: true},
		{name: "trailing slash kept", input: "/blog/", wantPath: "/blog/"},
		{name: "repeated trailing slash", input: "/blog//", wantPath: "/blog/", wantChanged: true},
		{name: "query preserved", input: "/blog/1?tab=x", wantPath: "/blog/1", wantQuery: "tab=x"},
		{name: "query escapes not validated", input: "/p?bad=%GG", wantPath: "/p", wantQuery: "bad=%GG"},
		{name: "valid escapes kept", input: "/a/%2Fok", wantPath: "/a/%2Fok"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Clean(tc.input)
			if err != nil {
				t.Fatalf("Clean(%q) unexpected error = %v", tc.input, err)
			}
			if got.Path != tc.wantPath {
				t.Errorf("Clean(%q).Path = %q, want %q", tc.input, got.Path, tc.wantPath)
			}
			if got.Query != tc.wantQuery {
				t.Errorf("Clean(%q).Query = %q, want %q", tc.input, got.Query, tc.wantQuery)
			}
			if got.Changed != tc.wantChanged {
				t.Errorf("Clean(%q).Changed = %v, want %v", tc.input, got.Changed, tc.wantChanged)
			}
		})
	}
}

func TestCleanErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{"/path\\with\\backslash", ErrBackslashInPath},
		{"/path/\x00/null", ErrNullByteInPath},
		{"/path/%00/null", ErrNullByteInPath},
		{"/path/%2", ErrInvalidPercentEscape},
		{"/path/%GG", ErrInvalidPercentEscape},
		{"/path/100%", ErrInvalidPercentEscape},
		{"/../secret", ErrPathEscapesRoot},
		{"/a/../../secret", ErrPathEscapesRoot},
	}
	for _, tc := range tests {
		if _, err := Clean(tc.input); err != tc.wantErr {
			t.Errorf("Clean(%q) error = %v, want %v", tc.input, err, tc.wantErr)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	site, _ := url.Parse("https://example.com")
	sub, _ := url.Parse("https://example.com/docs/")

	tests := []struct {
		name     string
		pathname string
		site     *url.URL
		want     string
	}{
		{"adds trailing slash", "/blog/hello", site, "https://example.com/blog/hello/"},
		{"keeps trailing slash", "/blog/hello/", site, "https://example.com/blog/hello/"},
		{"first page stripped", "/blog/1", site, "https://example.com/blog/"},
		{"first page slash stripped", "/blog/1/", site, "https://example.com/blog/"},
		{"second page kept", "/blog/2", site, "https://example.com/blog/2/"},
		{"index.html stripped", "/about/index.html", site, "https://example.com/about/"},
		{"file extension", "/feed.xml", site, "https://example.com/feed.xml"},
		{"collapse slashes", "//a//b", site, "https://example.com/a/b/"},
		{"root", "/", site, "https://example.com/"},
		{"site base path", "/guide", sub, "https://example.com/docs/guide/"},
		{"no site", "/blog/x", nil, "/blog/x/"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CanonicalURL(tc.pathname, tc.site).String()
			if got != tc.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tc.pathname, got, tc.want)
			}
		})
	}
}

func TestWithBase(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"", "/a.css", "/a.css"},
		{"/", "/a.css", "/a.css"},
		{"/docs", "/a.css", "/docs/a.css"},
		{"docs/", "/a.css", "/docs/a.css"},
		{"/docs", "/docs/a.css", "/docs/a.css"},
		{"/docs", "a.css", "a.css"},
		{"/docs", "https://cdn.example.com/a.css", "https://cdn.example.com/a.css"},
		{"/docs", "//cdn.example.com/a.css", "//cdn.example.com/a.css"},
	}
	for _, tc := range tests {
		if got := WithBase(tc.base, tc.ref); got != tc.want {
			t.Errorf("WithBase(%q, %q) = %q, want %q", tc.base, tc.ref, got, tc.want)
		}
	}
}
