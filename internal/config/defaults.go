package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/Kevin-nav/sankosides-sub000/pkg/browser"
	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/pipeline"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/circuit"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/citation"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/code"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/diagram"
	"github.com/Kevin-nav/sankosides-sub000/pkg/render/mathtex"
	"github.com/Kevin-nav/sankosides-sub000/pkg/toolchain"
)

// DefaultAddr matches the port clients of the render service expect.
const DefaultAddr = ":3001"

// Durations are registered as strings so `config show` prints them the way
// they are written in a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.read_timeout", dur(30*time.Second))
	v.SetDefault("server.write_timeout", dur(90*time.Second))
	v.SetDefault("server.shutdown_timeout", dur(10*time.Second))
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.batch_concurrency", pipeline.DefaultBatchConcurrency)
	v.SetDefault("server.max_batch_items", pipeline.DefaultMaxBatchItems)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("cache.backend", cache.BackendFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", dur(pipeline.DefaultTTL))
	v.SetDefault("cache.key_prefix", "")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("cache.mongo.database", AppName)
	v.SetDefault("cache.mongo.collection", "renders")

	v.SetDefault("math.font_size", mathtex.DefaultFontSize)
	v.SetDefault("math.display_scale", mathtex.DefaultDisplayScale)
	v.SetDefault("math.font_family", mathtex.DefaultFontFamily)

	v.SetDefault("code.languages", []string{})
	v.SetDefault("code.default_theme", code.DefaultTheme)
	v.SetDefault("code.tab_width", 4)

	v.SetDefault("citation.default_style", citation.DefaultStyle)

	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.candidates", toolchain.DefaultBrowserCandidates())
	v.SetDefault("browser.flags", browser.DefaultFlags)
	v.SetDefault("browser.launch_timeout", dur(browser.DefaultLaunchTimeout))

	v.SetDefault("diagram.timeout", dur(diagram.DefaultTimeout))
	v.SetDefault("diagram.poll_interval", dur(diagram.DefaultPollInterval))
	v.SetDefault("diagram.default_theme", diagram.DefaultTheme)
	v.SetDefault("diagram.script_path", "")
	v.SetDefault("diagram.script_url", diagram.DefaultScriptURL)
	v.SetDefault("diagram.script_cache_ttl", dur(30*24*time.Hour))

	v.SetDefault("circuit.enabled", true)
	v.SetDefault("circuit.compiler", []string{"pdflatex"})
	v.SetDefault("circuit.converters", map[string][]string{
		toolchain.PDF2SVG:  {"pdf2svg"},
		toolchain.DVISVGM:  {"dvisvgm"},
		toolchain.Inkscape: {"inkscape"},
	})
	v.SetDefault("circuit.converter_order", circuit.DefaultConverterOrder)
	v.SetDefault("circuit.compile_timeout", dur(circuit.DefaultCompileTimeout))
	v.SetDefault("circuit.convert_timeout", dur(circuit.DefaultConvertTimeout))
	v.SetDefault("circuit.work_dir", "")
	v.SetDefault("circuit.base_packages", circuit.DefaultBasePackages)
}

func dur(d time.Duration) string { return d.String() }

// Candidates builds the tool discovery list from the browser and circuit
// sections.
func (c *Config) Candidates() toolchain.Candidates {
	return toolchain.Candidates{
		Browser:        c.Browser.Candidates,
		Compiler:       c.Circuit.Compiler,
		Converters:     c.Circuit.Converters,
		ConverterOrder: c.Circuit.ConverterOrder,
	}
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		},
		Mongo: cache.MongoConfig{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		},
	}
}

// MathOptions converts the math section.
func (c *Config) MathOptions() mathtex.Options {
	return mathtex.Options{
		FontSize:     c.Math.FontSize,
		DisplayScale: c.Math.DisplayScale,
		FontFamily:   c.Math.FontFamily,
	}
}
