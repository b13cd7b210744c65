// Package config loads and saves the dayview YAML configuration.
//
// The file lives at <user config dir>/dayview/config.yaml unless a path is
// given. It is created with defaults on first use and always written with
// 0600 permissions because it may hold credentials.
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/dayview/pkg/errors"
	"github.com/matzehuels/dayview/pkg/pipeline"
	"github.com/matzehuels/dayview/pkg/render/sink"
)

// Backend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
)

// Defaults.
const (
	DefaultListen   = "127.0.0.1:8080"
	DefaultSchedule = "*/15 * * * *"
)

// RenderConfig holds the defaults for layout and rendering.
type RenderConfig struct {
	Formats       []string `yaml:"formats"`
	FrameWidth    float64  `yaml:"frame_width,omitempty"`
	PixelsPerUnit float64  `yaml:"pixels_per_unit,omitempty"`
	Scale         float64  `yaml:"scale,omitempty"`

	// Axis overrides. Empty fields fall back to the importer's axis (one
	// calendar day from 09:00 for iCalendar input) and then to minutes past
	// 09:00 over twelve hours.
	Unit   string  `yaml:"unit,omitempty"`
	Origin string  `yaml:"origin,omitempty"`
	Span   float64 `yaml:"span,omitempty"`

	// Verify re-checks layout invariants after every computation.
	Verify bool `yaml:"verify,omitempty"`
}

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	URL      string `yaml:"url,omitempty"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string      `yaml:"backend"` // file, redis or none
	Dir     string      `yaml:"dir,omitempty"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// MongoConfig addresses a MongoDB collection.
type MongoConfig struct {
	URI        string `yaml:"uri,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

// StoreConfig selects where saved layouts live.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory, file or mongo
	Dir     string      `yaml:"dir,omitempty"`
	TTL     string      `yaml:"ttl,omitempty"` // Go duration; empty keeps documents forever
	Mongo   MongoConfig `yaml:"mongo,omitempty"`
}

// BasicAuthConfig holds HTTP basic auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ServerConfig configures `dayview serve`.
type ServerConfig struct {
	Listen    string           `yaml:"listen"`
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty"`
}

// FeedConfig is a named iCalendar subscription for `dayview watch --feed`.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Schedule string `yaml:"schedule,omitempty"` // cron spec
}

// Config is the top-level configuration.
type Config struct {
	// Timezone is the IANA zone used to cut iCalendar feeds into days.
	// Empty means the local zone.
	Timezone string `yaml:"timezone,omitempty"`

	Render RenderConfig `yaml:"render"`
	Cache  CacheConfig  `yaml:"cache"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Feeds  []FeedConfig `yaml:"feeds"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults so that partial files behave
// like complete ones.
func (c *Config) Normalize() {
	if len(c.Render.Formats) == 0 {
		c.Render.Formats = []string{pipeline.DefaultFormat}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	for i := range c.Feeds {
		if c.Feeds[i].Schedule == "" {
			c.Feeds[i].Schedule = DefaultSchedule
		}
	}
}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c *Config) Validate() error {
	for _, f := range c.Render.Formats {
		if _, err := sink.ParseFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.formats")
		}
	}
	if c.Render.Span < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.span must not be negative")
	}
	if err := pipeline.ValidateOrigin(c.Render.Origin); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "render.origin")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "timezone")
		}
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q must be file, redis or none", c.Cache.Backend)
	}
	if !slices.Contains([]string{StoreMemory, StoreFile, StoreMongo}, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend %q must be memory, file or mongo", c.Store.Backend)
	}
	if c.Store.Backend == StoreMongo && c.Store.Mongo.URI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store.mongo.uri is required for the mongo backend")
	}
	if c.Store.Mongo.URI != "" {
		if err := errors.ValidateScheme(c.Store.Mongo.URI, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "store.mongo.uri")
		}
	}
	if _, err := c.Store.TTLDuration(); err != nil {
		return err
	}
	if a := c.Server.BasicAuth; a != nil && (a.Username == "") != (a.Password == "") {
		return errors.New(errors.ErrCodeInvalidConfig, "server.basic_auth needs both username and password")
	}
	for _, f := range c.Feeds {
		if f.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "feed %q has no name", f.URL)
		}
		if err := errors.ValidateURL(f.URL, "webcal", "webcals"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed %s", f.Name)
		}
		if _, err := cron.ParseStandard(f.Schedule); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "feed %s schedule", f.Name)
		}
	}
	return nil
}

// TTLDuration parses TTL. An empty TTL is zero.
func (s StoreConfig) TTLDuration() (time.Duration, error) {
	if s.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil || d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "store.ttl %q must be a positive duration", s.TTL)
	}
	return d, nil
}

// Feed returns the feed with the given name.
func (c *Config) Feed(name string) (FeedConfig, bool) {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f, true
		}
	}
	return FeedConfig{}, false
}

// PipelineOptions returns pipeline defaults taken from the render section.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Timezone:      c.Timezone,
		Unit:          c.Render.Unit,
		Origin:        c.Render.Origin,
		Span:          c.Render.Span,
		Verify:        c.Render.Verify,
		Formats:       slices.Clone(c.Render.Formats),
		FrameWidth:    c.Render.FrameWidth,
		PixelsPerUnit: c.Render.PixelsPerUnit,
		Scale:         c.Render.Scale,
	}
}

// =============================================================================
// Load / Save
// =============================================================================

// DefaultPath returns <user config dir>/dayview/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dayview", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file is created with
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			// The defaults are still usable when the file cannot be written.
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New(errors.ErrCodeInvalidPath, "config path is empty")
	}
	if cfg == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
