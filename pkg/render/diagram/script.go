package diagram

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/pkg/cache"
	"github.com/Kevin-nav/sankosides-sub000/pkg/errors"
	"github.com/Kevin-nav/sankosides-sub000/pkg/httputil"
)

// DefaultScriptURL is the Mermaid bundle fetched when no local path is set.
const DefaultScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

// ScriptLoader provides the Mermaid bundle, reading it from Path or fetching
// it from URL. Fetched bundles are cached on disk and reused when a later
// refresh fails. A successful load is kept in memory for the life of the
// loader; failures are retried on the next call.
type ScriptLoader struct {
	Path   string
	URL    string
	Client *http.Client
	Cache  *httputil.Cache
	Logger *log.Logger

	mu     sync.Mutex
	script string
}

// Load returns the bundle source.
func (l *ScriptLoader) Load(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.script != "" {
		return l.script, nil
	}

	var (
		s   string
		err error
	)
	switch {
	case l.Path != "":
		s, err = l.readFile()
	case l.URL != "":
		s, err = l.fetch(ctx)
	default:
		err = errors.New(errors.ErrCodeToolchainMissing, "no diagram script configured").
			WithHint("set diagram.script_path to a local mermaid.min.js or diagram.script_url to a CDN URL")
	}
	if err != nil {
		return "", err
	}
	l.script = s
	return s, nil
}

func (l *ScriptLoader) readFile() (string, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeToolchainMissing, err, "read diagram script %s", l.Path).
			WithHint("download mermaid.min.js and point diagram.script_path at it")
	}
	return string(data), nil
}

func (l *ScriptLoader) fetch(ctx context.Context) (string, error) {
	key := cache.NewDefaultKeyer().ScriptKey(l.URL)
	var cached string
	if l.Cache != nil {
		if ok, err := l.Cache.Get(key, &cached); ok && err == nil && cached != "" {
			return cached, nil
		}
	}

	body, err := httputil.FetchWithRetry(ctx, l.Client, l.URL)
	if err == nil {
		s := string(body)
		if l.Cache != nil {
			if serr := l.Cache.Set(key, s); serr != nil {
				l.logger().Warn("cache diagram script", "err", serr)
			}
		}
		return s, nil
	}

	if l.Cache != nil {
		if ok, _ := l.Cache.GetStale(key, &cached); ok && cached != "" {
			l.logger().Warn("diagram script refresh failed, using stale copy", "url", l.URL, "err", err)
			return cached, nil
		}
	}
	return "", errors.Wrap(errors.ErrCodeNetwork, err, "fetch diagram script %s", l.URL).
		WithHint("check network access or set diagram.script_path to a local copy")
}

func (l *ScriptLoader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}
