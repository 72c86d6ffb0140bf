package pgjsonb

import (
	"context"
	"database/sql"
	"fmt"
)

// Gateway is the Postgres/JSONB-backed pkg/gateway.Gateway implementation:
// every collection is a partition of a single `documents` table, and
// Submit interprets the AQL-style text pkg/queryir.Emit produces by
// tokenizing, parsing, and evaluating it directly against rows read out of
// Postgres, rather than translating it into SQL.
type Gateway struct {
	db *sql.DB
}

// New wraps an already-migrated *sql.DB. Run the migrations in this
// package's migrations directory (see Migrations) before first use.
func New(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// Submit implements pkg/gateway.Gateway.
func (g *Gateway) Submit(ctx context.Context, queryText string, bindings map[string]any) ([]map[string]any, error) {
	stmt, err := parse(queryText)
	if err != nil {
		return nil, fmt.Errorf("pgjsonb: parsing query text: %w\n%s", err, queryText)
	}
	return execStatement(ctx, g.db, stmt, bindings)
}

// ListDocuments implements pkg/gateway.Gateway: an unfiltered scan used
// only by the meta-catalog loader.
func (g *Gateway) ListDocuments(ctx context.Context, collection string) ([]map[string]any, error) {
	rows, err := fetchAll(ctx, g.db, collection)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		doc := make(map[string]any, len(r.doc)+1)
		for k, v := range r.doc {
			doc[k] = v
		}
		doc["_key"] = r.key
		out = append(out, doc)
	}
	return out, nil
}
