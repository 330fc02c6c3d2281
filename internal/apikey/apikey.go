// Package apikey carries the upstream API keys through a request context.
package apikey

import (
	"context"

	"github.com/cricwidget/gateway/internal/config"
)

type keysKeyType int

const keysKey keysKeyType = iota

// NewContext returns a copy of ctx holding keys. Resolvers read them back
// with FromContext instead of consulting process-wide configuration.
func NewContext(ctx context.Context, keys config.Keys) context.Context {
	return context.WithValue(ctx, keysKey, keys)
}

// FromContext returns the keys stored in ctx. If none are present the zero
// value is returned, which upstreams reject like any other wrong key.
func FromContext(ctx context.Context) config.Keys {
	if ctx == nil {
		return config.Keys{}
	}
	keys, _ := ctx.Value(keysKey).(config.Keys)
	return keys
}
