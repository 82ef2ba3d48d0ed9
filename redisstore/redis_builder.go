// Package redisstore is a Redis-backed implementation of datastore.Store,
// for deployments that want flag data to survive a client restart or be
// shared across multiple client processes.
package redisstore

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flagcore/flagcore-go/flog"
)

// DefaultURL is the default Redis connection URL.
const DefaultURL = "redis://localhost:6379"

// DefaultPrefix is prepended (with a colon) to every Redis key this store uses.
const DefaultPrefix = "flagcore"

// Builder configures a Redis-backed data store.
//
//	store, err := redisstore.DataStore().URL("redis://hostname").Prefix("myapp").Build(loggers)
type Builder struct {
	prefix  string
	url     string
	options *redis.Options
}

// DataStore returns a configurable builder for a Redis-backed data store.
func DataStore() *Builder {
	return &Builder{prefix: DefaultPrefix, url: DefaultURL}
}

// Prefix sets the key prefix. If empty, DefaultPrefix is used.
func (b *Builder) Prefix(prefix string) *Builder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	b.prefix = prefix
	return b
}

// URL sets the Redis connection URL, e.g. "redis://host:6379/0". If empty, DefaultURL is used.
func (b *Builder) URL(url string) *Builder {
	if url == "" {
		url = DefaultURL
	}
	b.url = url
	return b
}

// HostAndPort is a shortcut for URL using a bare hostname and port.
func (b *Builder) HostAndPort(host string, port int) *Builder {
	return b.URL(fmt.Sprintf("redis://%s:%d", host, port))
}

// Options specifies a fully custom *redis.Options, overriding URL.
func (b *Builder) Options(options *redis.Options) *Builder {
	b.options = options
	return b
}

// Build creates the Store. Internally this is called by the client facade.
func (b *Builder) Build(loggers *flog.Loggers) (*Store, error) {
	options := b.options
	if options == nil {
		parsed, err := redis.ParseURL(b.url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		options = parsed
	}
	return newStore(redis.NewClient(options), b.prefix, loggers), nil
}
