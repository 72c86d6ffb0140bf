// Package resolvers implements the seven operation resolvers: get, getAll,
// create, update, updateAll, remove, removeAll. Each builds a Query IR,
// submits it through the Gateway, and
// returns the rows as plain maps/slices keyed by the client's requested
// field alias, which pkg/schema's per-field resolver reads back.
//
// Compound mutations (create with relationships, update, updateAll,
// remove, removeAll) submit their phases as separate Gateway calls and are
// not transactional across phases: a failure or cancellation after an
// earlier phase leaves that phase's writes in place.
package resolvers

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql/language/ast"
	"go.uber.org/zap"

	"github.com/foretagq/typedstore/internal/engineerr"
	"github.com/foretagq/typedstore/internal/reqcontext"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/filteralgebra"
	"github.com/foretagq/typedstore/pkg/planner"
	"github.com/foretagq/typedstore/pkg/queryir"
)

// submit renders q, merges binds with the root collection bind, and calls
// through the Gateway, wrapping any failure as engineerr.DatabaseError.
func submit(ctx context.Context, rc *reqcontext.Context, q *queryir.Query, binds map[string]any) ([]map[string]any, error) {
	text, err := queryir.Emit(q)
	if err != nil {
		return nil, engineerr.AsClientDatabaseError(err)
	}

	bindings := make(map[string]any, len(binds)+1)
	for k, v := range binds {
		bindings[k] = v
	}
	bindings[queryir.CollectionBindKey("collection")] = q.Collection
	if q.InnerLookup != nil {
		bindings[queryir.CollectionBindKey("inner_collection")] = q.InnerCollection
	}

	rc.Log.Debug("submitting query", zap.String("text", text))
	rows, err := rc.Gateway.Submit(ctx, text, bindings)
	if err != nil {
		return nil, &engineerr.DatabaseError{Detail: err.Error(), Cause: err}
	}
	return rows, nil
}

// Get implements the `get<Entity>` operation.
func Get(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any) (map[string]any, error) {
	ids := planner.NewIDAllocator()
	q, binds, err := planner.Plan(ids, cat, entity, selectionSet)
	if err != nil {
		return nil, err
	}
	filter, indexBinds := filteralgebra.ParseIndexFilter(q.ID, where)
	q.Filter = filter
	q.Limit = 1
	for k, v := range indexBinds {
		binds[k] = v
	}

	rows, err := submit(ctx, rc, q, binds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &engineerr.NotFoundError{Entity: entity.Name, Where: fmt.Sprintf("%v", where)}
	}
	return rows[0], nil
}

// GetAll implements `getAll<EntityPlural>`.
func GetAll(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any, limit int) ([]map[string]any, error) {
	ids := planner.NewIDAllocator()
	q, binds, err := planner.Plan(ids, cat, entity, selectionSet)
	if err != nil {
		return nil, err
	}
	if where != nil {
		composite, whereBinds, err := filteralgebra.ParseWhere(q.ID, where)
		if err != nil {
			return nil, err
		}
		q.Filter = queryir.Flatten(composite)
		for k, v := range whereBinds {
			binds[k] = v
		}
	}
	q.Limit = limit

	return submit(ctx, rc, q, binds)
}

// Create implements `create<Entity>`: insert attributes,
// insert each declared relationship edge, then re-run the caller's
// selection against the freshly inserted row.
func Create(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, object map[string]any) (map[string]any, error) {
	attrs, _ := object["attributes"].(map[string]any)
	payloadID := 1
	payload, binds := buildObjectPayload(payloadID, attrs)

	insertQuery := &queryir.Query{ID: payloadID, Method: queryir.MethodCreate, Collection: entity.CollectionName, CreatesPayload: payload}
	rows, err := submit(ctx, rc, insertQuery, binds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &engineerr.DatabaseError{Detail: "insert returned no row"}
	}
	newKey := rows[0]["_key"]

	if rels, ok := object["relationships"].(map[string]any); ok {
		if err := createRelationships(ctx, rc, cat, entity, newKey, rels); err != nil {
			return nil, err
		}
	}

	return Get(ctx, rc, cat, entity, selectionSet, map[string]any{"_key": newKey})
}

func createRelationships(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, fromKey any, rels map[string]any) error {
	for fieldName, raw := range rels {
		rel := findRelationshipByName(cat, entity, fieldName)
		if rel == nil {
			return &engineerr.ValidationError{Reason: "unknown relationship " + fieldName + " in insert"}
		}
		items := normalizeRelationshipItems(raw)
		for _, item := range items {
			if err := insertOneRelationship(ctx, rc, rel, fromKey, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalizeRelationshipItems(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}

func insertOneRelationship(ctx context.Context, rc *reqcontext.Context, rel *catalog.Relationship, fromKey any, item map[string]any) error {
	fromBind := "__from"
	binds := map[string]any{fromBind: fmt.Sprintf("%s/%v", rel.From.CollectionName, fromKey)}

	edgeQuery := &queryir.Query{
		ID:         1,
		Method:     queryir.MethodCreateRelationship,
		Collection: rel.EdgeCollection,
		FromBind:   fromBind,
	}

	if existing, ok := item["addExisting"].(map[string]any); ok {
		innerFilter, innerBinds := filteralgebra.ParseIndexFilter(0, existing)
		inner := &queryir.Query{
			ID:             0,
			Method:         queryir.MethodGet,
			CollectionBind: "inner_collection",
			Filter:         innerFilter,
			Limit:          1,
			Properties:     []queryir.Projection{{Alias: "_id", Property: "_id"}},
		}
		edgeQuery.InnerLookup = inner
		edgeQuery.InnerCollection = rel.To.CollectionName
		for k, v := range innerBinds {
			binds[k] = v
		}
	} else if newAttrs, ok := item["addNew"].(map[string]any); ok {
		createPayload, createBinds := buildObjectPayload(2, newAttrs)
		createQuery := &queryir.Query{ID: 2, Method: queryir.MethodCreate, Collection: rel.To.CollectionName, CreatesPayload: createPayload}
		rows, err := submit(ctx, rc, createQuery, createBinds)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return &engineerr.DatabaseError{Detail: "nested insert returned no row"}
		}
		toBind := "__to"
		binds[toBind] = fmt.Sprintf("%s/%v", rel.To.CollectionName, rows[0]["_key"])
		edgeQuery.ToBind = toBind
	} else {
		return &engineerr.ValidationError{Reason: "relationship item must set addExisting or addNew"}
	}

	_, err := submit(ctx, rc, edgeQuery, binds)
	return err
}

func findRelationshipByName(cat *catalog.Catalog, entity *catalog.Entity, name string) *catalog.Relationship {
	for _, r := range cat.RelationshipsFrom(entity) {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Update implements `update<Entity>`: two-phase mutate-then-read.
func Update(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any, set map[string]any) (map[string]any, error) {
	filter, indexBinds := filteralgebra.ParseIndexFilter(1, where)
	payload, setBinds := buildObjectPayload(1, set)
	binds := mergeMaps(indexBinds, setBinds)

	updateQuery := &queryir.Query{ID: 1, Method: queryir.MethodUpdate, Collection: entity.CollectionName, Filter: filter, UpdatesPayload: payload, Limit: 1}
	rows, err := submit(ctx, rc, updateQuery, binds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &engineerr.NotFoundError{Entity: entity.Name, Where: fmt.Sprintf("%v", where)}
	}

	return Get(ctx, rc, cat, entity, selectionSet, map[string]any{"_key": rows[0]["_key"]})
}

// UpdateAll implements `updateAll<EntityPlural>`.
func UpdateAll(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any, limit int, set map[string]any) ([]map[string]any, error) {
	var filter queryir.FilterNode
	whereBinds := map[string]any{}
	if where != nil {
		composite, b, err := filteralgebra.ParseWhere(1, where)
		if err != nil {
			return nil, err
		}
		filter = queryir.Flatten(composite)
		whereBinds = b
	}
	payload, setBinds := buildObjectPayload(1, set)
	binds := mergeMaps(whereBinds, setBinds)

	updateQuery := &queryir.Query{ID: 1, Method: queryir.MethodUpdate, Collection: entity.CollectionName, Filter: filter, UpdatesPayload: payload, Limit: limit}
	rows, err := submit(ctx, rc, updateQuery, binds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []map[string]any{}, nil
	}

	keys := make([]any, len(rows))
	for i, r := range rows {
		keys[i] = r["_key"]
	}
	return GetAll(ctx, rc, cat, entity, selectionSet, map[string]any{"_key": map[string]any{filteralgebra.In: keys}}, 0)
}

// Remove implements `remove<Entity>`: select (for the return projection),
// then remove, preserving the pre-deletion row.
func Remove(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any) (map[string]any, error) {
	row, err := Get(ctx, rc, cat, entity, selectionSet, where)
	if err != nil {
		return nil, err
	}

	filter, binds := filteralgebra.ParseIndexFilter(1, where)
	removeQuery := &queryir.Query{ID: 1, Method: queryir.MethodRemove, Collection: entity.CollectionName, Filter: filter, Limit: 1}
	if _, err := submit(ctx, rc, removeQuery, binds); err != nil {
		return nil, err
	}

	return row, nil
}

// RemoveAll implements `removeAll<EntityPlural>`.
func RemoveAll(ctx context.Context, rc *reqcontext.Context, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, where map[string]any, limit int) ([]map[string]any, error) {
	rows, err := GetAll(ctx, rc, cat, entity, selectionSet, where, limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	var filter queryir.FilterNode
	whereBinds := map[string]any{}
	if where != nil {
		composite, b, err := filteralgebra.ParseWhere(1, where)
		if err != nil {
			return nil, err
		}
		filter = queryir.Flatten(composite)
		whereBinds = b
	}
	removeQuery := &queryir.Query{ID: 1, Method: queryir.MethodRemove, Collection: entity.CollectionName, Filter: filter, Limit: limit}
	if _, err := submit(ctx, rc, removeQuery, whereBinds); err != nil {
		return nil, err
	}

	return rows, nil
}

func mergeMaps(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
