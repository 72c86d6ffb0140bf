// Package planner implements the Selection Planner: it
// walks an incoming GraphQL-like selection tree and fuses it, together
// with any nested relationship selections, into a single composed
// queryir.Query so that one top-level field resolves in one store round
// trip.
package planner

import (
	"github.com/graphql-go/graphql/language/ast"

	"github.com/foretagq/typedstore/internal/engineerr"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/filteralgebra"
	"github.com/foretagq/typedstore/pkg/jsonscalar"
	"github.com/foretagq/typedstore/pkg/queryir"
)

// IDAllocator hands out monotonically increasing query ids within one
// request, root = 1, so nested subqueries never collide with their parent's variable name.
type IDAllocator struct{ next int }

// NewIDAllocator starts the counter such that the first Next() call
// returns 1 (the root query's id).
func NewIDAllocator() *IDAllocator { return &IDAllocator{next: 1} }

func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Plan builds a queryir.Query for entity, rooted at the given selection
// set, allocating ids from ids. It returns the accumulated bind values for
// any inline where/limit arguments found on nested relationship fields.
func Plan(ids *IDAllocator, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet) (*queryir.Query, map[string]any, error) {
	binds := map[string]any{}
	q := &queryir.Query{ID: ids.Next(), Method: queryir.MethodGet, Collection: entity.CollectionName}
	if err := planSelections(ids, cat, entity, selectionSet, q, binds); err != nil {
		return nil, nil, err
	}
	return q, binds, nil
}

// PlanRelationship builds the nested Query for a relationship field that
// was already resolved against the parent entity's catalog relationships.
func PlanRelationship(ids *IDAllocator, cat *catalog.Catalog, rel *catalog.Relationship, field *ast.Field, parentVariable string) (*queryir.Query, map[string]any, error) {
	binds := map[string]any{}
	q := &queryir.Query{
		ID:         ids.Next(),
		Method:     queryir.MethodGet,
		Collection: rel.To.CollectionName,
		Relationship: &queryir.RelationshipDescriptor{
			EdgeCollection: rel.EdgeCollection,
			Direction:      rel.Direction.String(),
			ReturnsArray:   rel.Kind.ReturnsArray(),
			ParentVariable: parentVariable,
		},
	}

	if rel.Kind.ReturnsArray() {
		if limitArg := findArgument(field, "limit"); limitArg != nil {
			if f, ok := jsonscalar.ParseLiteral(limitArg.Value).(float64); ok {
				q.Limit = int(f)
			}
		}
		if whereArg := findArgument(field, "where"); whereArg != nil {
			whereMap, _ := jsonscalar.ParseLiteral(whereArg.Value).(map[string]any)
			if whereMap != nil {
				composite, b, err := filteralgebra.ParseWhere(q.ID, whereMap)
				if err != nil {
					return nil, nil, err
				}
				q.Filter = queryir.Flatten(composite)
				for k, v := range b {
					binds[k] = v
				}
			}
		}
	}

	if field.SelectionSet == nil {
		return nil, nil, &engineerr.ValidationError{Reason: "relationship field " + rel.Name + " requires a selection set"}
	}
	if err := planSelections(ids, cat, rel.To, field.SelectionSet, q, binds); err != nil {
		return nil, nil, err
	}
	return q, binds, nil
}

func planSelections(ids *IDAllocator, cat *catalog.Catalog, entity *catalog.Entity, selectionSet *ast.SelectionSet, q *queryir.Query, binds map[string]any) error {
	if selectionSet == nil {
		return nil
	}
	for _, sel := range selectionSet.Selections {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		name := field.Name.Value
		if name == "__typename" {
			continue
		}
		alias := name
		if field.Alias != nil {
			alias = field.Alias.Value
		}

		if field.SelectionSet == nil {
			q.Properties = append(q.Properties, queryir.Projection{Alias: alias, Property: name})
			continue
		}

		rel := findRelationship(cat, entity, name)
		if rel == nil {
			return &engineerr.ValidationError{Reason: "unknown relationship field " + name + " on entity " + entity.Name}
		}
		nested, nestedBinds, err := PlanRelationship(ids, cat, rel, field, q.Variable())
		if err != nil {
			return err
		}
		q.Properties = append(q.Properties, queryir.Projection{Alias: alias, Nested: nested})
		for k, v := range nestedBinds {
			binds[k] = v
		}
	}
	return nil
}

func findRelationship(cat *catalog.Catalog, entity *catalog.Entity, fieldName string) *catalog.Relationship {
	for _, rel := range cat.RelationshipsFrom(entity) {
		if rel.Name == fieldName {
			return rel
		}
	}
	return nil
}

func findArgument(field *ast.Field, name string) *ast.Argument {
	for _, a := range field.Arguments {
		if a.Name != nil && a.Name.Value == name {
			return a
		}
	}
	return nil
}
