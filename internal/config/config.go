// Package config loads sankorender configuration.
//
// Values come from, in increasing precedence: built-in defaults, a TOML file
// (sankorender.toml in the working directory or $XDG_CONFIG_HOME/sankorender,
// or an explicit --config path) and SANKORENDER_* environment variables. The
// environment name of a key is its dotted path upper-cased with dots replaced
// by underscores, so diagram.timeout becomes SANKORENDER_DIAGRAM_TIMEOUT.
//
// Durations are written as Go duration strings ("30s", "1m30s").
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
)

const (
	// AppName names config and cache directories.
	AppName = "sankorender"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SANKORENDER"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" toml:"logging"`
	Cache    CacheConfig    `mapstructure:"cache" toml:"cache"`
	Math     MathConfig     `mapstructure:"math" toml:"math"`
	Code     CodeConfig     `mapstructure:"code" toml:"code"`
	Citation CitationConfig `mapstructure:"citation" toml:"citation"`
	Browser  BrowserConfig  `mapstructure:"browser" toml:"browser"`
	Diagram  DiagramConfig  `mapstructure:"diagram" toml:"diagram"`
	Circuit  CircuitConfig  `mapstructure:"circuit" toml:"circuit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" toml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" toml:"max_body_bytes"`

	// RateLimit is the sustained requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" toml:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" toml:"rate_burst"`

	BatchConcurrency int `mapstructure:"batch_concurrency" toml:"batch_concurrency"`
	MaxBatchItems    int `mapstructure:"max_batch_items" toml:"max_batch_items"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"` // text or json
}

// CacheConfig selects the render cache backend.
type CacheConfig struct {
	Backend string        `mapstructure:"backend" toml:"backend"` // none, file, redis, mongo
	Dir     string        `mapstructure:"dir" toml:"dir"`
	TTL     time.Duration `mapstructure:"ttl" toml:"ttl"`

	// KeyPrefix namespaces keys when several deployments share a backend.
	KeyPrefix string      `mapstructure:"key_prefix" toml:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis" toml:"redis"`
	Mongo     MongoConfig `mapstructure:"mongo" toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" toml:"addr"`
	Password string `mapstructure:"password" toml:"password"`
	DB       int    `mapstructure:"db" toml:"db"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri" toml:"uri"`
	Database   string `mapstructure:"database" toml:"database"`
	Collection string `mapstructure:"collection" toml:"collection"`
}

// MathConfig tunes the math typesetter.
type MathConfig struct {
	FontSize     float64 `mapstructure:"font_size" toml:"font_size"`
	DisplayScale float64 `mapstructure:"display_scale" toml:"display_scale"`
	FontFamily   string  `mapstructure:"font_family" toml:"font_family"`
}

// CodeConfig tunes the highlighter.
type CodeConfig struct {
	// Languages restricts the registered lexers. Empty registers all.
	Languages    []string `mapstructure:"languages" toml:"languages"`
	DefaultTheme string   `mapstructure:"default_theme" toml:"default_theme"`
	TabWidth     int      `mapstructure:"tab_width" toml:"tab_width"`
}

type CitationConfig struct {
	DefaultStyle string `mapstructure:"default_style" toml:"default_style"`
}

// BrowserConfig controls the headless browser used for diagrams.
type BrowserConfig struct {
	Enabled       bool          `mapstructure:"enabled" toml:"enabled"`
	Candidates    []string      `mapstructure:"candidates" toml:"candidates"`
	Flags         []string      `mapstructure:"flags" toml:"flags"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" toml:"launch_timeout"`
}

// DiagramConfig controls Mermaid rendering.
type DiagramConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" toml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
	DefaultTheme string        `mapstructure:"default_theme" toml:"default_theme"`

	// ScriptPath is a local copy of the Mermaid bundle. When empty the
	// bundle is downloaded from ScriptURL and cached on disk.
	ScriptPath     string        `mapstructure:"script_path" toml:"script_path"`
	ScriptURL      string        `mapstructure:"script_url" toml:"script_url"`
	ScriptCacheTTL time.Duration `mapstructure:"script_cache_ttl" toml:"script_cache_ttl"`
}

// CircuitConfig controls TikZ compilation.
type CircuitConfig struct {
	Enabled        bool                `mapstructure:"enabled" toml:"enabled"`
	Compiler       []string            `mapstructure:"compiler" toml:"compiler"`
	Converters     map[string][]string `mapstructure:"converters" toml:"converters"`
	ConverterOrder []string            `mapstructure:"converter_order" toml:"converter_order"`
	CompileTimeout time.Duration       `mapstructure:"compile_timeout" toml:"compile_timeout"`
	ConvertTimeout time.Duration       `mapstructure:"convert_timeout" toml:"convert_timeout"`
	WorkDir        string              `mapstructure:"work_dir" toml:"work_dir"`
	BasePackages   []string            `mapstructure:"base_packages" toml:"base_packages"`
}

// Load reads configuration. An empty path searches the default locations;
// a missing default file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	v := newViper()
	if err := readFile(v, path); err != nil {
		return nil, err
	}
	return decode(v)
}

// Viper returns the loader used by Load after the file has been read.
// `config show` uses it to print the effective settings.
func Viper(path string) (*viper.Viper, error) {
	v := newViper()
	if err := readFile(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			cfg.Cache.Dir = dir
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file in use, or empty when running on defaults.
func File(v *viper.Viper) string {
	return v.ConfigFileUsed()
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if _, err := c.Logging.ParseLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q (want text or json)", c.Logging.Format))
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendFile, cache.BackendRedis, cache.BackendMongo:
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	for name, d := range map[string]time.Duration{
		"browser.launch_timeout":  c.Browser.LaunchTimeout,
		"diagram.timeout":         c.Diagram.Timeout,
		"circuit.compile_timeout": c.Circuit.CompileTimeout,
		"circuit.convert_timeout": c.Circuit.ConvertTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// ParseLevel converts the configured level name.
func (l LoggingConfig) ParseLevel() (log.Level, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/sankorender (~/.config/sankorender).
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns $XDG_CACHE_HOME/sankorender (~/.cache/sankorender).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
