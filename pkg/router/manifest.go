package router

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ManifestVersion is written into every encoded manifest.
const ManifestVersion = 1

// Format selects the manifest encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks a format from a file extension. Anything other than
// .msgpack or .mpk is JSON.
func FormatFromPath(p string) Format {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".msgpack", ".mpk":
		return FormatMsgpack
	}
	return FormatJSON
}

// Manifest is the serialized route table produced at build time.
type Manifest struct {
	Version int             `json:"version" msgpack:"version"`
	Routes  []ManifestRoute `json:"routes" msgpack:"routes"`
}

// ManifestRoute is one serialized route.
type ManifestRoute struct {
	Pattern       string        `json:"pattern" msgpack:"pattern"`
	Params        []string      `json:"params" msgpack:"params"`
	Component     string        `json:"component" msgpack:"component"`
	Type          Kind          `json:"type" msgpack:"type"`
	Pathname      string        `json:"pathname,omitempty" msgpack:"pathname,omitempty"`
	Template      string        `json:"template,omitempty" msgpack:"template,omitempty"`
	TrailingSlash TrailingSlash `json:"trailingSlash,omitempty" msgpack:"trailingSlash,omitempty"`
}

// ManifestOf serializes a table.
func ManifestOf(t *Table) *Manifest {
	m := &Manifest{Version: ManifestVersion, Routes: make([]ManifestRoute, 0, t.Len())}
	for _, r := range t.routes {
		m.Routes = append(m.Routes, ManifestRoute{
			Pattern:       r.Pattern.String(),
			Params:        r.ParamNames,
			Component:     r.Component,
			Type:          r.Kind,
			Pathname:      r.Pathname,
			Template:      r.Template,
			TrailingSlash: r.TrailingSlash,
		})
	}
	return m
}

// Table rebuilds the route table. Patterns are compiled as given; a
// template, when present, is parsed so the route can Generate.
func (m *Manifest) Table() (*Table, error) {
	routes := make([]*Route, 0, len(m.Routes))
	for i, mr := range m.Routes {
		r, err := mr.route()
		if err != nil {
			return nil, fmt.Errorf("manifest route %d (%s): %w", i, mr.Component, err)
		}
		routes = append(routes, r)
	}
	return NewTable(routes...), nil
}

func (mr ManifestRoute) route() (*Route, error) {
	if mr.Pattern == "" {
		return nil, fmt.Errorf("%w: missing pattern", ErrInvalidRoute)
	}
	if mr.Component == "" {
		return nil, fmt.Errorf("%w: missing component", ErrInvalidRoute)
	}
	kind := mr.Type
	if kind == "" {
		kind = KindPage
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRoute, mr.Type)
	}

	re, err := regexp.Compile(mr.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	if re.NumSubexp() < len(mr.Params) {
		return nil, fmt.Errorf("%w: pattern has %d groups for %d params", ErrInvalidRoute, re.NumSubexp(), len(mr.Params))
	}

	r := &Route{
		Pattern:       re,
		ParamNames:    mr.Params,
		Component:     mr.Component,
		Kind:          kind,
		Pathname:      mr.Pathname,
		Template:      mr.Template,
		TrailingSlash: mr.TrailingSlash,
	}
	if mr.Template != "" {
		segs, err := parseTemplate(mr.Template)
		if err != nil {
			return nil, err
		}
		r.segments = segs
	}
	return r, nil
}

// EncodeManifest writes t to w.
func EncodeManifest(w io.Writer, t *Table, format Format) error {
	m := ManifestOf(t)
	switch format {
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(m)
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	return fmt.Errorf("router: unknown manifest format %q", format)
}

// DecodeManifest reads a manifest from r and rebuilds its table.
func DecodeManifest(r io.Reader, format Format) (*Table, error) {
	var m Manifest
	var err error
	switch format {
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&m)
	case FormatJSON, "":
		err = json.NewDecoder(r).Decode(&m)
	default:
		return nil, fmt.Errorf("router: unknown manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("router: decode manifest: %w", err)
	}
	if m.Version > ManifestVersion {
		return nil, fmt.Errorf("router: manifest version %d is newer than supported %d", m.Version, ManifestVersion)
	}
	return m.Table()
}

// LoadManifest reads a manifest file, choosing the format by extension.
func LoadManifest(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeManifest(f, FormatFromPath(path))
}

// WriteManifest writes t to path, choosing the format by extension.
func WriteManifest(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeManifest(f, t, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
