package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/foxfire/internal/adapter/geocode"
)

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Batch.Concurrency)
	require.Equal(t, "memory", cfg.Geocoder.Cache.Type)
	require.Empty(t, cfg.Keys())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
geocoder:
  api_key: secret
  timeout: 3s
  rate: 5
  cache:
    type: none
output:
  decimal_digits: 6
  minify: true
render:
  zoom: 4
layers:
  - name: roads
    source: roads.shp
  - name: parks
    source: parks.geojson
    zoom: 2
settings:
  site_name: foxfire
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.Geocoder.APIKey)
	require.Equal(t, 3*time.Second, cfg.Geocoder.Timeout)
	require.Equal(t, "none", cfg.Geocoder.Cache.Type)
	require.Equal(t, 512, cfg.Render.Size)
	require.Len(t, cfg.Layers, 2)
	require.Equal(t, 4, cfg.Layers[0].ZoomLimit)
	require.Equal(t, 2, cfg.Layers[1].ZoomLimit)

	opts := cfg.Options()
	require.Equal(t, 6, opts.DecimalDigits)
	require.True(t, opts.Minify)

	v, ok := cfg.Get("site_name")
	require.True(t, ok)
	require.Equal(t, "foxfire", v)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geocoder: [1, 2"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadUnnamedLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layers:\n  - source: a.wkt\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSettingsSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Set("a", "1")
	cfg.Set("b", "2")
	cfg.Set("b", "")
	require.Equal(t, []string{"a"}, cfg.Keys())
	require.NoError(t, cfg.Save())

	again, err := Load(path)
	require.NoError(t, err)
	v, ok := again.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", v)
	require.Equal(t, 10*time.Second, again.Geocoder.Timeout)
}

func TestSaveWithoutPath(t *testing.T) {
	require.Error(t, Default().Save())
}

func TestSettingsConcurrent(t *testing.T) {
	cfg := Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg.Set("k", "v")
			_, _ = cfg.Get("k")
			_ = cfg.Keys()
		}()
	}
	wg.Wait()
	v, _ := cfg.Get("k")
	require.Equal(t, "v", v)
}

func TestNewGeocoder(t *testing.T) {
	cfg := Default()
	cfg.Set(SettingGeocoderKey, "from-settings")
	cfg.Geocoder.Rate = 2

	g, err := cfg.NewGeocoder()
	require.NoError(t, err)
	require.Equal(t, "from-settings", g.APIKey)
	require.NotNil(t, g.Limiter)
	_, ok := g.Cache.(*geocode.MemoryCache)
	require.True(t, ok)

	cfg.Geocoder.APIKey = "explicit"
	cfg.Geocoder.Cache = Cache{Type: "redis", Redis: Redis{Addr: "127.0.0.1:6379", Prefix: "test:"}}
	g, err = cfg.NewGeocoder()
	require.NoError(t, err)
	require.Equal(t, "explicit", g.APIKey)
	rc, ok := g.Cache.(*geocode.RedisCache)
	require.True(t, ok)
	require.Equal(t, "test:", rc.Prefix)

	cfg.Geocoder.Cache = Cache{Type: "redis"}
	_, err = cfg.NewGeocoder()
	require.Error(t, err)

	cfg.Geocoder.Cache = Cache{Type: "disk"}
	_, err = cfg.NewGeocoder()
	require.Error(t, err)

	cfg.Geocoder.Disabled = true
	g, err = cfg.NewGeocoder()
	require.NoError(t, err)
	require.Nil(t, g)
	require.Equal(t, "geocoder(disabled)", g.String())
}
