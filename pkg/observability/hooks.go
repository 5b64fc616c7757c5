// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about renders, cache lookups, the browser pool and outbound
// HTTP fetches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main (or the server), never by libraries, which
// keeps renderer packages free of import cycles.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetRenderHooks(stats)
//	observability.SetBrowserHooks(&logBrowserHooks{logger})
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnRenderStart(ctx, "latex")
//	// ... render ...
//	observability.Render().OnRenderComplete(ctx, "latex", duration, "")
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events for every render, keyed by render kind.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, kind string)

	// OnRenderComplete reports the outcome. code is empty on success and the
	// error code (SYNTAX_ERROR, TIMEOUT, ...) otherwise.
	OnRenderComplete(ctx context.Context, kind string, duration time.Duration, code string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, kind string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, kind string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, kind string, size int)
}

// =============================================================================
// Browser Hooks
// =============================================================================

// BrowserHooks receives browser pool lifecycle events.
type BrowserHooks interface {
	// OnLaunch records a browser launch attempt.
	OnLaunch(ctx context.Context, execPath string, duration time.Duration, err error)

	// OnDisconnect records a detected browser disconnection.
	OnDisconnect(ctx context.Context, execPath string)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from outbound HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                           {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, time.Duration, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopBrowserHooks is a no-op implementation of BrowserHooks.
type NoopBrowserHooks struct{}

func (NoopBrowserHooks) OnLaunch(context.Context, string, time.Duration, error) {}
func (NoopBrowserHooks) OnDisconnect(context.Context, string)                   {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks  RenderHooks  = NoopRenderHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	browserHooks BrowserHooks = NoopBrowserHooks{}
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	hooksMu      sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any render.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetBrowserHooks registers custom browser pool hooks.
func SetBrowserHooks(h BrowserHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		browserHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Browser returns the registered browser hooks.
func Browser() BrowserHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return browserHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	cacheHooks = NoopCacheHooks{}
	browserHooks = NoopBrowserHooks{}
	httpHooks = NoopHTTPHooks{}
}
