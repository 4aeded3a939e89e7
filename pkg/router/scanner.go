package router

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
)

// DefaultEndpointExts are the file extensions treated as endpoints.
var DefaultEndpointExts = []string{".go", ".js", ".ts"}

// Scanner discovers routes from a directory of page and endpoint files.
//
//	pages/
//	├── index.templ          → /
//	├── about.templ          → /about
//	├── feed.xml.go          → /feed.xml (endpoint)
//	├── _partials/           → ignored
//	└── blog/
//	    ├── [slug].templ     → /blog/[slug]
//	    └── [...rest].templ  → /blog/[...rest]
//
// Entries whose name starts with "_" or "." are skipped, except
// .well-known. Within each directory entries are ordered by specificity
// before descending, so the resulting table can be matched first-wins.
type Scanner struct {
	fsys         fs.FS
	root         string
	endpointExts []string
	trailing     TrailingSlash
	logger       *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithEndpointExts overrides DefaultEndpointExts.
func WithEndpointExts(exts ...string) ScannerOption {
	return func(s *Scanner) {
		s.endpointExts = exts
	}
}

// WithScanTrailingSlash sets the trailing slash mode for scanned routes.
func WithScanTrailingSlash(mode TrailingSlash) ScannerOption {
	return func(s *Scanner) {
		s.trailing = mode
	}
}

// WithScanLogger sets the logger used for skipped entries.
func WithScanLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = l
	}
}

// NewScanner creates a scanner rooted at root within fsys.
func NewScanner(fsys fs.FS, root string, opts ...ScannerOption) *Scanner {
	if root == "" {
		root = "."
	}
	s := &Scanner{
		fsys:         fsys,
		root:         path.Clean(root),
		endpointExts: DefaultEndpointExts,
		trailing:     TrailingIgnore,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the tree and returns the routes in match order.
func (s *Scanner) Scan() (*Table, error) {
	var routes []*Route
	if err := s.walk(s.root, [][]part{}, &routes); err != nil {
		return nil, err
	}
	if err := Validate(routes); err != nil {
		return nil, err
	}
	return NewTable(routes...), nil
}

func (s *Scanner) walk(dir string, parent [][]part, routes *[]*Route) error {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return fmt.Errorf("router: scan %s: %w", dir, err)
	}

	items := make([]scanItem, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name[0] == '_' || (name[0] == '.' && name != ".well-known") {
			continue
		}

		file := path.Join(dir, name)
		segment := name
		if !e.IsDir() {
			ext := path.Ext(name)
			if ext == "" {
				s.logger.Warn("skipping file without extension", "file", file)
				continue
			}
			segment = strings.TrimSuffix(name, ext)
		}

		if err := validateSegment(segment, file); err != nil {
			return err
		}
		parts, err := getParts(segment, file)
		if err != nil {
			return err
		}

		items = append(items, scanItem{
			basename: name,
			file:     file,
			parts:    parts,
			isDir:    e.IsDir(),
			isIndex:  !e.IsDir() && segment == "index",
			isPage:   !e.IsDir() && !slices.Contains(s.endpointExts, path.Ext(name)),
		})
	}
	sortItems(items)

	for _, it := range items {
		segments := slices.Clone(parent)
		if !it.isIndex {
			segments = append(segments, it.parts)
		}

		if it.isDir {
			if err := s.walk(it.file, segments, routes); err != nil {
				return err
			}
			continue
		}

		kind := KindEndpoint
		if it.isPage {
			kind = KindPage
		}
		r, err := buildRoute(segments, kind, s.component(it.file), s.trailing)
		if err != nil {
			return err
		}
		*routes = append(*routes, r)
	}
	return nil
}

func (s *Scanner) component(file string) string {
	if s.root == "." {
		return file
	}
	return strings.TrimPrefix(file, s.root+"/")
}
