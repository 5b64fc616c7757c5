package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// KindStats counts render outcomes for one kind.
type KindStats struct {
	OK     int64 `json:"ok"`
	Failed int64 `json:"failed"`
}

// Stats collects request and render counters. It implements
// observability.RenderHooks.
type Stats struct {
	requests atomic.Int64

	mu      sync.Mutex
	renders map[string]*KindStats
}

// NewStats returns empty counters.
func NewStats() *Stats {
	return &Stats{renders: make(map[string]*KindStats)}
}

func (s *Stats) OnRenderStart(context.Context, string) {}

func (s *Stats) OnRenderComplete(_ context.Context, kind string, _ time.Duration, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.renders[kind]
	if !ok {
		k = &KindStats{}
		s.renders[kind] = k
	}
	if code == "" {
		k.OK++
	} else {
		k.Failed++
	}
}

// Requests returns the number of handled HTTP requests.
func (s *Stats) Requests() int64 {
	return s.requests.Load()
}

// Renders returns a copy of the per-kind counters.
func (s *Stats) Renders() map[string]KindStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]KindStats, len(s.renders))
	for kind, k := range s.renders {
		out[kind] = *k
	}
	return out
}
