// Package reqcontext carries the per-request dependencies threaded through
// a single typed operation call, the same way a Deps struct threads
// collaborators through a call chain without reaching for globals.
package reqcontext

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foretagq/typedstore/pkg/gateway"
)

// Context is materialized fresh for every incoming request. It holds no
// schema state at all (no Schema or Catalog reference), so a concurrent
// Hot Reload Controller swap never changes anything it carries.
type Context struct {
	// Auth is an opaque flag carried for the caller's own authorization
	// decisions. Nothing in pkg/catalog, pkg/queryir, pkg/filteralgebra,
	// pkg/schema, pkg/planner, pkg/resolvers or internal/reload reads it.
	Auth any

	Gateway       gateway.Gateway
	CorrelationID string
	Log           *zap.Logger
}

// New builds a Context with a fresh correlation id and a logger scoped to
// it, one uuid.NewString() call per request.
func New(gw gateway.Gateway, auth any, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Context{
		Auth:          auth,
		Gateway:       gw,
		CorrelationID: id,
		Log:           log.With(zap.String("correlation_id", id)),
	}
}

type contextKey struct{}

// Attach stashes c on ctx so a field Resolve function (which only receives
// a context.Context from graphql-go) can recover it.
func (c *Context) Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext recovers a Context previously stored with Attach, or nil.
func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}
