package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Sink stores exported files.
type Sink interface {
	// Write stores body under the slash-separated relative name.
	Write(ctx context.Context, name string, body []byte, contentType string) error
}

// OutputPath maps a pathname to the file that serves it. Pathnames whose
// last segment has an extension keep it; others become a directory index.
func OutputPath(pathname string) string {
	p := strings.Trim(pathname, "/")
	if p == "" {
		return "index.html"
	}
	if !strings.HasSuffix(pathname, "/") && path.Ext(p) != "" {
		return p
	}
	return p + "/index.html"
}

// DirSink writes files below a local directory.
type DirSink struct {
	Dir string
}

// Write implements Sink.
func (s DirSink) Write(_ context.Context, name string, body []byte, _ string) error {
	full := filepath.Join(s.Dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.Dir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("export: %q escapes output directory", name)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, body, 0o644)
}
