package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// isolate points the search path at an empty directory so a developer's own
// config never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 20*time.Second, cfg.Diagram.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Diagram.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Circuit.CompileTimeout)
	assert.Equal(t, "apa", cfg.Citation.DefaultStyle)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(dir, "cache", AppName), cfg.Cache.Dir)
	assert.Equal(t, []string{"pdf2svg", "dvisvgm", "inkscape"}, cfg.Circuit.ConverterOrder)
	assert.Equal(t, []string{"dvisvgm"}, cfg.Circuit.Converters[toolchain.DVISVGM])
	assert.True(t, cfg.Browser.Enabled)
	assert.NotEmpty(t, cfg.Browser.Candidates)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = "127.0.0.1:8080"
rate_limit = 0

[logging]
level = "debug"
format = "json"

[cache]
backend = "none"

[diagram]
timeout = "5s"
default_theme = "dark"

[circuit]
compiler = ["/opt/texlive/bin/pdflatex", "pdflatex"]
converter_order = ["dvisvgm"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Second, cfg.Diagram.Timeout)
	assert.Equal(t, "dark", cfg.Diagram.DefaultTheme)

	c := cfg.Candidates()
	assert.Equal(t, []string{"/opt/texlive/bin/pdflatex", "pdflatex"}, c.Compiler)
	assert.Equal(t, []string{"dvisvgm"}, c.ConverterOrder)

	level, err := cfg.Logging.ParseLevel()
	require.NoError(t, err)
	assert.Equal(t, "debug", level.String())
}

func TestLoadSearchPath(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sankorender.toml"), []byte("[code]\ntab_width = 2\n"), 0o644))

	v, err := Viper("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sankorender.toml"), File(v))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Code.TabWidth)
}

func TestEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SANKORENDER_SERVER_ADDR", ":9000")
	t.Setenv("SANKORENDER_DIAGRAM_TIMEOUT", "3s")
	t.Setenv("SANKORENDER_CACHE_BACKEND", "redis")
	t.Setenv("SANKORENDER_CACHE_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Diagram.Timeout)

	opts := cfg.CacheOptions()
	assert.Equal(t, "redis", opts.Backend)
	assert.Equal(t, "redis:6379", opts.Redis.Addr)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"level", "[logging]\nlevel = \"chatty\"\n", "logging.level"},
		{"format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"timeout", "[diagram]\ntimeout = \"0s\"\n", "diagram.timeout"},
		{"body", "[server]\nmax_body_bytes = 0\n", "max_body_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
