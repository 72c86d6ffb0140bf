package schema

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/foretagq/typedstore/internal/engineerr"
	"github.com/foretagq/typedstore/internal/inflect"
	"github.com/foretagq/typedstore/internal/reqcontext"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/resolvers"
)

// OperationEntry names one generated root field; every entity contributes
// exactly seven operations to the schema.
type OperationEntry struct {
	Name   string
	Field  *graphql.Field
	Mutates bool
}

func contextOf(p graphql.ResolveParams) (*reqcontext.Context, error) {
	rc := reqcontext.FromContext(p.Context)
	if rc == nil {
		return nil, engineerr.AsClientDatabaseError(engineerr.Unreachable("schema: resolver invoked without a reqcontext.Context attached"))
	}
	return rc, nil
}

func mapArg(p graphql.ResolveParams, name string) map[string]any {
	v, _ := p.Args[name].(map[string]any)
	return v
}

func intArg(p graphql.ResolveParams, name string, def int) int {
	v, ok := p.Args[name]
	if !ok || v == nil {
		return def
	}
	if i, ok := v.(int); ok {
		return i
	}
	return def
}

// buildOperations returns the seven OperationEntry values for one entity,
// each driven by the catalog entity's declared properties and relationships.
func (b *builder) buildOperations(e *catalog.Entity) []OperationEntry {
	objType := b.objects[e.Name]
	nonNullObjType := graphql.NewNonNull(objType)
	listType := graphql.NewNonNull(graphql.NewList(nonNullObjType))
	indexFilter := graphql.NewNonNull(b.indexFilterInput(e))
	boolExp := b.boolExpInput(e)
	setInput := graphql.NewNonNull(b.setInput(e))
	insertInput := graphql.NewNonNull(b.insertInput(e))

	get := &graphql.Field{
		Type: objType,
		Args: graphql.FieldConfigArgument{"where": &graphql.ArgumentConfig{Type: indexFilter}},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.Get(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"))
		},
	}

	getAll := &graphql.Field{
		Type: listType,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: boolExp},
			"limit": &graphql.ArgumentConfig{Type: graphql.Int},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.GetAll(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"), intArg(p, "limit", 0))
		},
	}

	create := &graphql.Field{
		Type: nonNullObjType,
		Args: graphql.FieldConfigArgument{"object": &graphql.ArgumentConfig{Type: insertInput}},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.Create(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "object"))
		},
	}

	update := &graphql.Field{
		Type: nonNullObjType,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: indexFilter},
			"_set":  &graphql.ArgumentConfig{Type: setInput},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.Update(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"), mapArg(p, "_set"))
		},
	}

	updateAll := &graphql.Field{
		Type: listType,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: boolExp},
			"limit": &graphql.ArgumentConfig{Type: graphql.Int},
			"_set":  &graphql.ArgumentConfig{Type: setInput},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.UpdateAll(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"), intArg(p, "limit", 0), mapArg(p, "_set"))
		},
	}

	remove := &graphql.Field{
		Type: nonNullObjType,
		Args: graphql.FieldConfigArgument{"where": &graphql.ArgumentConfig{Type: indexFilter}},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.Remove(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"))
		},
	}

	removeAll := &graphql.Field{
		Type: listType,
		Args: graphql.FieldConfigArgument{
			"where": &graphql.ArgumentConfig{Type: boolExp},
			"limit": &graphql.ArgumentConfig{Type: graphql.Int},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rc, err := contextOf(p)
			if err != nil {
				return nil, err
			}
			return resolvers.RemoveAll(p.Context, rc, b.cat, e, selectionOf(p), mapArg(p, "where"), intArg(p, "limit", 0))
		},
	}

	return []OperationEntry{
		{Name: inflect.OperationName("get", e.CollectionName), Field: get},
		{Name: inflect.OperationName("getAll", e.CollectionName), Field: getAll},
		{Name: inflect.OperationName("create", e.CollectionName), Field: create, Mutates: true},
		{Name: inflect.OperationName("update", e.CollectionName), Field: update, Mutates: true},
		{Name: inflect.OperationName("updateAll", e.CollectionName), Field: updateAll, Mutates: true},
		{Name: inflect.OperationName("remove", e.CollectionName), Field: remove, Mutates: true},
		{Name: inflect.OperationName("removeAll", e.CollectionName), Field: removeAll, Mutates: true},
	}
}

// selectionOf recovers the requested selection set for the currently
// resolving field, which the Selection Planner needs to fuse nested
// relationship reads into one Query IR.
func selectionOf(p graphql.ResolveParams) *ast.SelectionSet {
	for _, f := range p.Info.FieldASTs {
		return f.SelectionSet
	}
	return nil
}
