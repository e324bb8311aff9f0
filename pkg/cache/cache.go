// Package cache provides byte-oriented cache backends for the HTTP transport.
//
// The resolver itself never caches; manifests, includes and host API
// responses are cached here, below the [Cache] interface, by the transport
// in [integrations]. Three backends are provided:
//
//   - [FileCache]: one JSON file per entry under the XDG cache directory
//   - [RedisCache]: a shared Redis instance, for the HTTP API server
//   - [NullCache]: caching disabled (--no-cache, tests)
//
// Keys are built with a [Keyer] so that responses fetched with different
// credentials never share an entry.
//
// [integrations]: github.com/matzehuels/pkgrepo/pkg/integrations
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with an optional time-to-live.
type Cache interface {
	// Get returns the payload stored under key. A miss is reported with
	// hit=false and a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for HTTP responses.
type Keyer interface {
	// HTTPKey returns the key for a response identified by namespace and key
	// (typically a host prefix such as "github:" and the request URL).
	HTTPKey(namespace, key string) string
}
