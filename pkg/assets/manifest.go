// Package assets maps asset specifiers to fingerprinted public paths.
//
// A build step writes a manifest from source names to fingerprinted
// names:
//
//	{
//	  "css/site.css": "css/site.3f9a2c1d.css",
//	  "favicon.svg": "favicon.8b0e77aa.svg"
//	}
//
// Loaded into a Resolver, it backs render.Context.Resolve, so components
// link to "css/site.css" and get the name the static server caches as
// immutable:
//
//	m, _ := assets.Load("public/assets.json")
//	app := meridian.New(meridian.Config{Resolve: assets.NewResolver(m, "/").Asset})
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"strings"
	"sync"
)

// HashLength is the number of hex characters in a fingerprint.
const HashLength = 8

// Manifest maps source asset paths to fingerprinted paths. It is safe for
// concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads a JSON manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Manifest{entries: entries}, nil
}

// Build fingerprints every file under root in fsys by content. Files that
// already carry a fingerprint keep their name.
func Build(fsys fs.FS, root string) (*Manifest, error) {
	m := NewManifest()
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(p, root+"/")
		if root == "." {
			rel = p
		}
		if Fingerprinted(rel) {
			return nil
		}

		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		m.Set(rel, fingerprintName(rel, hex.EncodeToString(h.Sum(nil))[:HashLength]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// fingerprintName inserts hash before the extension: css/site.css becomes
// css/site.<hash>.css.
func fingerprintName(name, hash string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "." + hash + ext
}

// Fingerprinted reports whether name has a hash of at least HashLength
// hex characters before its extension, as in "app.a1b2c3d4.css".
func Fingerprinted(name string) bool {
	parts := strings.Split(path.Base(name), ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) < HashLength {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// Resolve returns the fingerprinted path for source, or source itself.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has reports whether the manifest contains source.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = resolved
}

// Delete removes an entry.
func (m *Manifest) Delete(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, source)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of the entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.entries)
}

// WriteFile writes the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m.All(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
