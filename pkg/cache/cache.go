// Package cache stores computed layout and render artifacts so repeated
// pipeline runs over an unchanged workflow skip the expensive stages.
//
// Keys are derived from the SHA-256 hash of the workflow's canonical
// serialization plus the options that influenced the result, so a cache
// entry can never be served for a graph or option set it was not computed
// for. Backends: file (CLI default), redis (shared deployments), and null
// (caching disabled).
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes per pipeline stage. Layouts are pure functions
// of graph and options so they could live forever; bounded TTLs keep the
// file backend from growing without a sweeper.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the cached data and true on a hit. A miss is (nil,
	// false, nil) - only backend failures produce an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys from workflow state.
type Keyer interface {
	// LayoutKey identifies a computed position map: the graph's canonical
	// hash plus the strategy and options that produced it.
	LayoutKey(graphHash, strategy string, opts any) string

	// RenderKey identifies a rendered artifact for a laid-out graph.
	RenderKey(graphHash, format string, detailed bool) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(graphHash, strategy string, opts any) string {
	return hashKey("layout", graphHash, strategy, opts)
}

// RenderKey implements Keyer.
func (k *DefaultKeyer) RenderKey(graphHash, format string, detailed bool) string {
	return hashKey("render", graphHash, format, detailed)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// one namespace per workflow store when several share a redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(graphHash, strategy string, opts any) string {
	return k.prefix + k.inner.LayoutKey(graphHash, strategy, opts)
}

// RenderKey implements Keyer.
func (k *ScopedKeyer) RenderKey(graphHash, format string, detailed bool) string {
	return k.prefix + k.inner.RenderKey(graphHash, format, detailed)
}
