package cache

// ScopedKeyer wraps a Keyer with a prefix so that responses fetched with
// credentials are isolated from anonymous ones.
//
// Example usage:
//
//	// Token-specific keys for authenticated API requests
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "token:"+Hash([]byte(token))[:12]+":")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// TokenKeyer returns a keyer scoped to an API token, or the default keyer
// when token is empty.
func TokenKeyer(token string) Keyer {
	if token == "" {
		return NewDefaultKeyer()
	}
	return NewScopedKeyer(nil, "token:"+Hash([]byte(token))[:12]+":")
}
