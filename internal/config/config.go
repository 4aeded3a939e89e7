package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	meridian "github.com/vango-dev/meridian"
	"github.com/vango-dev/meridian/internal/errors"
	"github.com/vango-dev/meridian/pkg/assets"
	"github.com/vango-dev/meridian/pkg/router"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "meridian.json"

	// TOMLFileName is the TOML configuration file name. It wins when both
	// files exist.
	TOMLFileName = "meridian.toml"

	// DefaultPort is the default server port.
	DefaultPort = 4321

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultExportDir is the default static export directory.
	DefaultExportDir = "dist"

	// DefaultPagesDir is the default pages directory scanned for routes.
	DefaultPagesDir = "pages"

	// DefaultPublicDir is the default directory of static files.
	DefaultPublicDir = "public"
)

// Output modes.
const (
	OutputStatic = "static"
	OutputServer = "server"
)

// Config represents a meridian.json or meridian.toml file.
type Config struct {
	// Site is the public origin, e.g. "https://example.com/docs".
	Site string `json:"site,omitempty" toml:"site,omitempty"`

	// Output is "static" (pages need static paths) or "server" (SSR).
	Output string `json:"output,omitempty" toml:"output,omitempty"`

	// Pages is the directory scanned for routes when there is no manifest.
	Pages string `json:"pages,omitempty" toml:"pages,omitempty"`

	// Manifest is a route manifest (.json or .msgpack). When set it is
	// used instead of scanning Pages.
	Manifest string `json:"manifest,omitempty" toml:"manifest,omitempty"`

	// TrailingSlash is "ignore", "always" or "never".
	TrailingSlash string `json:"trailingSlash,omitempty" toml:"trailingSlash,omitempty"`

	// StrictParams rejects static paths with invalid param types instead
	// of skipping them. Defaults to true.
	StrictParams *bool `json:"strictParams,omitempty" toml:"strictParams,omitempty"`

	// Dev enables live reload.
	Dev bool `json:"dev,omitempty" toml:"dev,omitempty"`

	Server  ServerConfig  `json:"server,omitempty" toml:"server,omitempty"`
	Export  ExportConfig  `json:"export,omitempty" toml:"export,omitempty"`
	Adapter AdapterConfig `json:"adapter,omitempty" toml:"adapter,omitempty"`
	Assets  AssetsConfig  `json:"assets,omitempty" toml:"assets,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// baseDir resolves relative paths when there is no config file.
	baseDir string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" toml:"port,omitempty"`
}

// ExportConfig contains static export settings. A non-empty Bucket
// exports to S3 instead of Dir.
type ExportConfig struct {
	Dir         string `json:"dir,omitempty" toml:"dir,omitempty"`
	Bucket      string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix      string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region      string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint    string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" toml:"concurrency,omitempty"`
}

// AssetsConfig contains static file settings.
type AssetsConfig struct {
	// Public is the directory served before routes and copied on export.
	Public string `json:"public,omitempty" toml:"public,omitempty"`

	// Manifest maps asset specifiers to fingerprinted names. Relative to
	// Public.
	Manifest string `json:"manifest,omitempty" toml:"manifest,omitempty"`

	// Prefix is the URL path Public is served under.
	Prefix string `json:"prefix,omitempty" toml:"prefix,omitempty"`
}

// AdapterConfig contains function host settings.
type AdapterConfig struct {
	// BinaryMediaTypes extends the set of content types returned base64
	// encoded.
	BinaryMediaTypes []string `json:"binaryMediaTypes,omitempty" toml:"binaryMediaTypes,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	strict := true
	return &Config{
		Output:        OutputStatic,
		Pages:         DefaultPagesDir,
		TrailingSlash: string(router.TrailingIgnore),
		StrictParams:  &strict,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Export: ExportConfig{
			Dir:         DefaultExportDir,
			Concurrency: 4,
		},
		Assets: AssetsConfig{
			Public: DefaultPublicDir,
			Prefix: "/",
		},
	}
}

// Load reads configuration from dir. It looks for meridian.toml, then
// meridian.json.
func Load(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return nil, errors.New("M009").
		WithDetail("No " + TOMLFileName + " or " + JSONFileName + " found in " + dir)
}

// LoadFile reads configuration from path. The format follows the file
// extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("M009").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("M009").Wrap(err)
	}

	cfg := New()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.New("M009").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithHint("Check that " + filepath.Base(path) + " is valid TOML")
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("M009").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithHint("Check that " + filepath.Base(path) + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, as TOML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("M009").Wrap(err)
		}
		data = buf.Bytes()
	} else {
		b, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("M009").Wrap(err)
		}
		data = append(b, '\n')
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("M009").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file, or the base
// directory set with SetBaseDir.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return c.baseDir
	}
	return filepath.Dir(c.configPath)
}

// SetBaseDir sets the directory relative paths resolve against when the
// config was not loaded from a file.
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = OutputStatic
	}
	if c.Pages == "" {
		c.Pages = DefaultPagesDir
	}
	if c.TrailingSlash == "" {
		c.TrailingSlash = string(router.TrailingIgnore)
	}
	if c.StrictParams == nil {
		strict := true
		c.StrictParams = &strict
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Export.Dir == "" {
		c.Export.Dir = DefaultExportDir
	}
	if c.Export.Concurrency <= 0 {
		c.Export.Concurrency = 4
	}
	if c.Assets.Public == "" {
		c.Assets.Public = DefaultPublicDir
	}
	if c.Assets.Prefix == "" {
		c.Assets.Prefix = "/"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputStatic, OutputServer:
	default:
		return errors.New("M009").
			WithDetailf("output must be %q or %q, got %q", OutputStatic, OutputServer, c.Output)
	}
	switch router.TrailingSlash(c.TrailingSlash) {
	case router.TrailingIgnore, router.TrailingAlways, router.TrailingNever:
	default:
		return errors.New("M009").
			WithDetailf("trailingSlash must be ignore, always or never, got %q", c.TrailingSlash)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("M009").
			WithDetail("Port must be between 0 and 65535")
	}
	if _, err := c.SiteURL(); err != nil {
		return err
	}
	return nil
}

// SiteURL parses Site. It returns nil when Site is empty.
func (c *Config) SiteURL() (*url.URL, error) {
	if c.Site == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Site)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("M009").
			WithDetailf("site must be an absolute URL, got %q", c.Site)
	}
	return u, nil
}

// SSR reports whether pages render on demand.
func (c *Config) SSR() bool {
	return c.Output == OutputServer
}

// Strict reports whether invalid static path params are errors.
func (c *Config) Strict() bool {
	return c.StrictParams == nil || *c.StrictParams
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PagesPath returns the absolute path to the pages directory.
func (c *Config) PagesPath() string {
	return c.resolve(c.Pages)
}

// ManifestPath returns the absolute path to the manifest, or "".
func (c *Config) ManifestPath() string {
	if c.Manifest == "" {
		return ""
	}
	return c.resolve(c.Manifest)
}

// PublicPath returns the absolute path to the public directory.
func (c *Config) PublicPath() string {
	return c.resolve(c.Assets.Public)
}

// AssetManifestPath returns the absolute path to the asset manifest, or "".
func (c *Config) AssetManifestPath() string {
	if c.Assets.Manifest == "" {
		return ""
	}
	if filepath.IsAbs(c.Assets.Manifest) {
		return c.Assets.Manifest
	}
	return filepath.Join(c.PublicPath(), c.Assets.Manifest)
}

// ExportPath returns the absolute path to the export directory.
func (c *Config) ExportPath() string {
	return c.resolve(c.Export.Dir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// ToAppConfig converts the file configuration to an app configuration.
// The public directory is served when it exists. Resolve puts specifiers
// under the asset prefix, through the asset manifest outside dev mode.
func (c *Config) ToAppConfig(logger *slog.Logger) (meridian.Config, error) {
	site, err := c.SiteURL()
	if err != nil {
		return meridian.Config{}, err
	}
	strict := c.Strict()
	cfg := meridian.Config{
		Site:             site,
		SSR:              c.SSR(),
		StrictParams:     &strict,
		TrailingSlash:    router.TrailingSlash(c.TrailingSlash),
		DevMode:          c.Dev,
		BinaryMediaTypes: append([]string(nil), c.Adapter.BinaryMediaTypes...),
		Logger:           logger,
		Static: meridian.StaticConfig{
			Prefix:       c.Assets.Prefix,
			CacheControl: meridian.CacheControlProduction,
		},
	}
	if c.Dev {
		cfg.Static.CacheControl = meridian.CacheControlNone
	}
	if info, err := os.Stat(c.PublicPath()); err == nil && info.IsDir() {
		cfg.Static.Dir = c.PublicPath()
	}

	cfg.Resolve = assets.NewPassthroughResolver(c.Assets.Prefix).Asset
	if p := c.AssetManifestPath(); p != "" && !c.Dev {
		m, err := assets.Load(p)
		if err != nil {
			return meridian.Config{}, errors.New("M009").
				WithDetail("Failed to load asset manifest " + p).
				Wrap(err)
		}
		cfg.Resolve = assets.NewResolver(m, c.Assets.Prefix).Asset
	}
	return cfg, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("M009").
				WithDetail("No " + TOMLFileName + " or " + JSONFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
