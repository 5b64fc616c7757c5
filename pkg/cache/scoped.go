package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share one
// Redis or Mongo instance without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "sankorender:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RenderKey generates a prefixed render key.
func (k *ScopedKeyer) RenderKey(kind string, request any) string {
	return k.prefix + k.inner.RenderKey(kind, request)
}

// ScriptKey generates a prefixed script key.
func (k *ScopedKeyer) ScriptKey(url string) string {
	return k.prefix + k.inner.ScriptKey(url)
}
