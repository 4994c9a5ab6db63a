package inflight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ValkeyGuard shares pending submissions across instances through Valkey.
type ValkeyGuard struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewValkeyGuard constructs a guard backed by client.
func NewValkeyGuard(client valkey.Client, prefix string, ttl time.Duration, logger *slog.Logger) *ValkeyGuard {
	if prefix == "" {
		prefix = "inflight"
	}
	return &ValkeyGuard{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "inflight.valkey"),
	}
}

// Acquire claims key with SET NX PX.
func (g *ValkeyGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	k := g.key(key)
	token := uuid.NewString()

	cmd := g.client.B().Set().Key(k).Value(token).Nx().Px(g.ttl).Build()
	if err := g.client.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("claim in-flight key: %w", err)
	}

	release := func() {
		// The request context may already be cancelled here.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Exec(releaseCtx, g.client, []string{k}, []string{token}).Error(); err != nil {
			g.logger.Warn("release in-flight key failed", "key", k, "error", err)
		}
	}
	return release, true, nil
}

func (g *ValkeyGuard) key(key string) string {
	return fmt.Sprintf("%s:%s", g.prefix, key)
}
