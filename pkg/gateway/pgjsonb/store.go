package pgjsonb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// storeRow is one document as read back from Postgres: the collection-local
// integer key plus its decoded JSONB body.
type storeRow struct {
	key int64
	doc map[string]any
}

// id renders the ArangoDB-style "<collection>/<key>" handle a row's _id
// field resolves to; pkg/resolvers embeds exactly this format into _from
// and _to when it creates a relationship edge.
func (r storeRow) id(collection string) string {
	return fmt.Sprintf("%s/%d", collection, r.key)
}

func fetchAll(ctx context.Context, db *sql.DB, collection string) ([]storeRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, doc FROM documents WHERE collection = $1 ORDER BY key`, collection)
	if err != nil {
		return nil, fmt.Errorf("pgjsonb: fetching %s: %w", collection, err)
	}
	defer rows.Close()

	var out []storeRow
	for rows.Next() {
		var key int64
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("pgjsonb: scanning %s row: %w", collection, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("pgjsonb: decoding %s row %d: %w", collection, key, err)
		}
		out = append(out, storeRow{key: key, doc: doc})
	}
	return out, rows.Err()
}

func fetchByKey(ctx context.Context, db *sql.DB, collection string, key int64) (storeRow, bool, error) {
	var raw []byte
	err := db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE collection = $1 AND key = $2`, collection, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return storeRow{}, false, nil
	}
	if err != nil {
		return storeRow{}, false, fmt.Errorf("pgjsonb: fetching %s/%d: %w", collection, key, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return storeRow{}, false, fmt.Errorf("pgjsonb: decoding %s/%d: %w", collection, key, err)
	}
	return storeRow{key: key, doc: doc}, true, nil
}

func insertDocument(ctx context.Context, db *sql.DB, collection string, doc map[string]any) (int64, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("pgjsonb: encoding new %s document: %w", collection, err)
	}
	var key int64
	err = db.QueryRowContext(ctx,
		`INSERT INTO documents (collection, doc) VALUES ($1, $2) RETURNING key`,
		collection, raw,
	).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("pgjsonb: inserting into %s: %w", collection, err)
	}
	return key, nil
}

// updateByKey shallow-merges patch into the existing document via the JSONB
// "||" operator, matching the <Entity>Set input's semantics: an omitted
// field in patch leaves the stored value untouched.
func updateByKey(ctx context.Context, db *sql.DB, collection string, key int64, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("pgjsonb: encoding %s/%d patch: %w", collection, key, err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE documents SET doc = doc || $3::jsonb WHERE collection = $1 AND key = $2`,
		collection, key, raw,
	)
	if err != nil {
		return fmt.Errorf("pgjsonb: updating %s/%d: %w", collection, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgjsonb: checking %s/%d update result: %w", collection, key, err)
	}
	if n == 0 {
		return fmt.Errorf("pgjsonb: no document at %s/%d", collection, key)
	}
	return nil
}

func removeByKey(ctx context.Context, db *sql.DB, collection string, key int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return fmt.Errorf("pgjsonb: removing %s/%d: %w", collection, key, err)
	}
	return nil
}
