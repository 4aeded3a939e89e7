package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestManifestResolve(t *testing.T) {
	m := NewManifest()
	m.Set("app.js", "app.abc12345.js")
	m.Set("css/site.css", "css/site.def67890.css")

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"found entry", "app.js", "app.abc12345.js"},
		{"nested entry", "css/site.css", "css/site.def67890.css"},
		{"missing entry returns original", "unknown.js", "unknown.js"},
		{"empty string returns empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Resolve(tt.source); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}

	if !m.Has("app.js") || m.Has("unknown.js") {
		t.Error("Has() disagrees with the entries")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	all := m.All()
	all["c.js"] = "c.789.js"
	if m.Has("c.js") {
		t.Error("All() should return a copy")
	}

	m.Delete("app.js")
	if m.Has("app.js") || m.Len() != 1 {
		t.Error("Delete() left the entry")
	}
}

func TestLoadAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.json")

	m := NewManifest()
	m.Set("site.css", "site.0123abcd.css")
	if err := m.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.Resolve("site.css"); got != "site.0123abcd.css" {
		t.Errorf("Resolve after Load = %q", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load of a missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load of invalid JSON should fail")
	}

	empty := filepath.Join(dir, "null.json")
	if err := os.WriteFile(empty, []byte("null"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(empty)
	if err != nil {
		t.Fatal(err)
	}
	m.Set("a", "b") // must not panic on a nil map
}

func TestBuild(t *testing.T) {
	fsys := fstest.MapFS{
		"public/css/site.css":        {Data: []byte("body{}")},
		"public/app.0123abcd.js":     {Data: []byte("console.log(1)")},
		"public/favicon.svg":         {Data: []byte("<svg/>")},
		"public/css/print.css":       {Data: []byte("body{}")},
		"elsewhere/not-included.txt": {Data: []byte("x")},
	}

	m, err := Build(fsys, "public")
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3: %v", m.Len(), m.All())
	}

	site := m.Resolve("css/site.css")
	if !strings.HasPrefix(site, "css/site.") || !strings.HasSuffix(site, ".css") || !Fingerprinted(site) {
		t.Errorf("css/site.css -> %q", site)
	}
	// Same content, same hash.
	if strings.TrimPrefix(site, "css/site") != strings.TrimPrefix(m.Resolve("css/print.css"), "css/print") {
		t.Error("identical files got different fingerprints")
	}
	if m.Has("app.0123abcd.js") {
		t.Error("already fingerprinted file was fingerprinted again")
	}
}

func TestFingerprinted(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"app.a1b2c3d4.css", true},
		{"js/app.DEADBEEF12.js", true},
		{"app.css", false},
		{"app.abc.css", false},
		{"app.zzzzzzzz.css", false},
	}
	for _, tt := range tests {
		if got := Fingerprinted(tt.path); got != tt.want {
			t.Errorf("Fingerprinted(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestResolvers(t *testing.T) {
	m := NewManifest()
	m.Set("site.css", "site.0123abcd.css")

	tests := []struct {
		name     string
		resolver Resolver
		in       string
		want     string
	}{
		{"manifest", NewResolver(m, "/"), "site.css", "/site.0123abcd.css"},
		{"manifest with prefix", NewResolver(m, "/static/"), "site.css", "/static/site.0123abcd.css"},
		{"unknown gets prefix", NewResolver(m, "/static"), "other.css", "/static/other.css"},
		{"absolute path untouched", NewResolver(m, "/static"), "/site.css", "/site.css"},
		{"url untouched", NewResolver(m, "/static"), "https://cdn.example/x.css", "https://cdn.example/x.css"},
		{"no prefix", NewResolver(m, ""), "site.css", "site.0123abcd.css"},
		{"passthrough", NewPassthroughResolver("/static/"), "site.css", "/static/site.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resolver.Asset(tt.in); got != tt.want {
				t.Errorf("Asset(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
