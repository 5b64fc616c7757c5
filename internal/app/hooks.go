package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/pkg/observability"
)

// logHooks reports browser lifecycle and cache activity through the logger.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnLaunch(_ context.Context, execPath string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("browser launch failed", "path", execPath, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Info("browser launched", "path", execPath, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnDisconnect(_ context.Context, execPath string) {
	h.logger.Warn("browser disconnected, relaunching on next request", "path", execPath)
}

func (h logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

// RegisterLogHooks routes browser and cache events to logger.
func RegisterLogHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetBrowserHooks(h)
	observability.SetCacheHooks(h)
}
