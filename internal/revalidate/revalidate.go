// Package revalidate signals the rendering layer that cached output for
// a path went stale. Calls are best-effort: a failed invalidation is
// logged and never propagated into the mutation that triggered it.
package revalidate

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tazhibayda/events-service/internal/log"
	"go.uber.org/zap"
)

type Invalidator interface {
	Invalidate(ctx context.Context, path string)
}

// Noop is used in tests and when no page cache is configured.
type Noop struct{}

func (Noop) Invalidate(ctx context.Context, path string) {}

// Redis drops the rendered-page entry the frontend keeps under
// "page:<path>", forcing a recompute on next access.
type Redis struct {
	C *redis.Client
}

func NewRedis(addr string) *Redis {
	return &Redis{C: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *Redis) Ping(ctx context.Context) error { return r.C.Ping(ctx).Err() }
func (r *Redis) Close() error                   { return r.C.Close() }

func (r *Redis) Invalidate(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.C.Del(ctx, "page:"+path).Err(); err != nil {
		log.L.Warn("page invalidation failed", zap.String("path", path), zap.Error(err))
	}
}
