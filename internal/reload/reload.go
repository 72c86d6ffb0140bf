// Package reload implements the Hot Reload Controller: it rebuilds the
// GraphQL-like schema from the meta-collections whenever they change, and
// atomically swaps the live schema pointer so in-flight requests are never
// affected by a rebuild in progress.
//
// A change event arrives off a channel, is logged with zap, and dispatched
// to one rebuild rather than a per-query registry, since every request
// parses against the same single schema.
package reload

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/foretagq/typedstore/internal/logutil"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/gateway"
	"github.com/foretagq/typedstore/pkg/schema"
)

// ChangeEvent signals that one of the meta-collections may have changed.
// Table is the collection name, narrowed down to the two meta-collections
// metawatch actually watches.
type ChangeEvent struct {
	Table string
}

// Controller owns the live *schema.Schema and refreshes it on demand.
type Controller struct {
	gw  gateway.Gateway
	log *zap.Logger

	current atomic.Pointer[schema.Schema]
	ready   chan struct{}
}

// New builds a Controller with no schema loaded yet; call Refresh (or
// StartAutoRefresh, which calls it once up front) before Current returns
// anything useful.
func New(gw gateway.Gateway, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gw: gw, log: log.Named("reload"), ready: make(chan struct{})}
}

// Current returns the most recently built schema, or nil before the first
// successful Refresh.
func (c *Controller) Current() *schema.Schema {
	return c.current.Load()
}

// Refresh reloads the catalog and, if its checksum differs from the
// currently live schema's, rebuilds and swaps. Returns the live schema
// (old or new) on success.
func (c *Controller) Refresh(ctx context.Context) (*schema.Schema, error) {
	cat, err := catalog.Load(ctx, c.gw, c.log)
	if err != nil {
		return nil, err
	}

	if prev := c.current.Load(); prev != nil && prev.Catalog.Checksum() == cat.Checksum() {
		c.log.Debug("catalog unchanged, skipping schema rebuild", zap.String("checksum", checksumHex(cat.Checksum())))
		return prev, nil
	}

	next, err := schema.Build(cat)
	if err != nil {
		return nil, err
	}
	c.current.Store(next)
	c.log.Info("schema rebuilt", logutil.Values(
		zap.Int("entities", len(cat.Entities)),
		zap.Int("relationships", len(cat.Relationships)),
		zap.String("checksum", checksumHex(cat.Checksum())),
	))

	select {
	case <-c.ready:
	default:
		close(c.ready)
	}
	return next, nil
}

// WaitUntilRefreshed blocks until the first successful Refresh, or ctx is
// done.
func (c *Controller) WaitUntilRefreshed(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartAutoRefresh runs an initial Refresh, then refreshes again on every
// incoming ChangeEvent until ctx is cancelled or events is closed. It never
// returns on its own; run it in a goroutine.
func (c *Controller) StartAutoRefresh(ctx context.Context, events <-chan ChangeEvent) {
	if _, err := c.Refresh(ctx); err != nil {
		c.log.Error("initial schema load failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			elog := c.log.With(zap.String("table", ev.Table))
			elog.Debug("change event received, refreshing schema")
			if _, err := c.Refresh(ctx); err != nil {
				elog.Error("schema refresh failed", zap.Error(err))
			}
		}
	}
}

func checksumHex(sum [32]byte) string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, 0, 16)
	for i := 0; i < 8; i++ {
		buf = append(buf, hextable[sum[i]>>4], hextable[sum[i]&0xf])
	}
	return string(buf)
}
