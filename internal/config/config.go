// Package config handles configuration loading and the persisted settings
// store.
package config

import (
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/woozymasta/foxfire/internal/adapter"
	"github.com/woozymasta/foxfire/internal/adapter/geocode"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// SettingGeocoderKey names the setting consulted for the geocoding API key
// when the geocoder section does not carry one.
const SettingGeocoderKey = "geocoder_api_key"

// Config represents the root configuration file structure.
type Config struct {
	Geocoder Geocoder          `yaml:"geocoder"`
	Output   Output            `yaml:"output"`
	Render   Render            `yaml:"render"`
	Batch    Batch             `yaml:"batch"`
	Layers   []Layer           `yaml:"layers,omitempty"`
	Settings map[string]string `yaml:"settings,omitempty"`

	mu   sync.RWMutex
	path string
}

// Geocoder configures the geocoding service client.
type Geocoder struct {
	// Disabled turns geocoding off; NewGeocoder then returns nil.
	Disabled bool          `yaml:"disabled,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	// Rate caps requests per second, 0 disables pacing.
	Rate  float64 `yaml:"rate,omitempty"`
	Burst int     `yaml:"burst,omitempty"`
	Cache Cache   `yaml:"cache"`
}

// Cache selects where geocoding responses are kept.
type Cache struct {
	// Type is one of "none", "memory" or "redis".
	Type  string        `yaml:"type"`
	Size  int           `yaml:"size,omitempty"`
	TTL   time.Duration `yaml:"ttl,omitempty"`
	Redis Redis         `yaml:"redis,omitempty"`
}

// Redis holds the connection parameters of the redis cache.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// Output holds writer defaults applied when a request does not override them.
type Output struct {
	DecimalDigits int     `yaml:"decimal_digits,omitempty"`
	Precision     float64 `yaml:"geohash_precision,omitempty"`
	BBox          bool    `yaml:"bbox,omitempty"`
	Minify        bool    `yaml:"minify,omitempty"`
}

// Render configures preview images.
type Render struct {
	Size       int    `yaml:"size,omitempty"`
	ZoomLimit  int    `yaml:"zoom,omitempty"`
	TileSize   int    `yaml:"tile_size,omitempty"`
	Quality    int    `yaml:"quality,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// Layer is a geometry file rendered into a tile pyramid by the loader and
// served under /tiles/{name}.
type Layer struct {
	Name string `yaml:"name" json:"name"`
	// Source is a geometry file in any readable format.
	Source string `yaml:"source" json:"-"`
	// Format forces the source format, detected when empty.
	Format      string `yaml:"format,omitempty" json:"-"`
	Attribution string `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	ZoomLimit   int    `yaml:"zoom,omitempty" json:"zoom"`
	// World renders longitude/latitude data as standard Web Mercator tiles
	// instead of fitting the pyramid to the layer bounds.
	World bool `yaml:"world,omitempty" json:"world,omitempty"`
}

// Batch configures directory conversion.
type Batch struct {
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Default returns a configuration with every section populated.
func Default() *Config {
	return &Config{
		Geocoder: Geocoder{
			Endpoint: geocode.DefaultEndpoint,
			Timeout:  10 * time.Second,
			Cache: Cache{
				Type: "memory",
				Size: 1024,
				TTL:  24 * time.Hour,
			},
		},
		Render: Render{
			Size:      512,
			ZoomLimit: 6,
			TileSize:  256,
			Quality:   85,
		},
		Batch: Batch{
			Concurrency: 4,
		},
		Settings: map[string]string{},
	}
}

// Load reads and parses the YAML configuration file from the specified path
// on top of Default. A missing file yields the defaults bound to path so a
// later Save creates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]string{}
	}
	for i := range cfg.Layers {
		if cfg.Layers[i].Name == "" {
			return nil, errors.Newf("config %s: layer %d has no name", path, i)
		}
		if cfg.Layers[i].ZoomLimit <= 0 {
			cfg.Layers[i].ZoomLimit = cfg.Render.ZoomLimit
		}
	}

	return cfg, nil
}

// Get returns the named setting.
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Settings[key]
	return v, ok
}

// Set stores the named setting; an empty value removes it.
func (c *Config) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Settings == nil {
		c.Settings = map[string]string{}
	}
	if value == "" {
		delete(c.Settings, key)
		return
	}
	c.Settings[key] = value
}

// Keys lists the stored setting names in order.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.Settings))
	for k := range c.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	return c.SaveAs(c.path)
}

// SaveAs writes the configuration to path through a temporary file.
func (c *Config) SaveAs(path string) error {
	c.mu.RLock()
	data, err := yaml.Marshal(c)
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrapf(err, "write config %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "replace config %s", path)
	}
	c.path = path
	return nil
}

// Options returns the writer defaults for the registry.
func (c *Config) Options() adapter.Options {
	return adapter.Options{
		DecimalDigits: c.Output.DecimalDigits,
		Precision:     c.Output.Precision,
		BBox:          c.Output.BBox,
		Minify:        c.Output.Minify,
	}
}

// NewGeocoder builds the geocoding client described by the geocoder section.
// It returns nil without error when geocoding is disabled.
func (c *Config) NewGeocoder() (*geocode.Geocoder, error) {
	g := c.Geocoder
	if g.Disabled {
		return nil, nil
	}

	key := g.APIKey
	if key == "" {
		key, _ = c.Get(SettingGeocoderKey)
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	gc := &geocode.Geocoder{
		Client:   &http.Client{Timeout: timeout},
		Endpoint: g.Endpoint,
		APIKey:   key,
	}

	if g.Rate > 0 {
		burst := g.Burst
		if burst <= 0 {
			burst = 1
		}
		gc.Limiter = rate.NewLimiter(rate.Limit(g.Rate), burst)
	}

	switch g.Cache.Type {
	case "", "none":
	case "memory":
		size := g.Cache.Size
		if size <= 0 {
			size = 1024
		}
		mc, err := geocode.NewMemoryCache(size, g.Cache.TTL)
		if err != nil {
			return nil, err
		}
		gc.Cache = mc
	case "redis":
		if g.Cache.Redis.Addr == "" {
			return nil, errors.New("redis cache requires an address")
		}
		rc := geocode.NewRedisCache(g.Cache.Redis.Addr, g.Cache.Redis.Password, g.Cache.Redis.DB, g.Cache.TTL)
		if g.Cache.Redis.Prefix != "" {
			rc.Prefix = g.Cache.Redis.Prefix
		}
		gc.Cache = rc
	default:
		return nil, errors.Newf("unknown geocoder cache type %q", g.Cache.Type)
	}

	return gc, nil
}
