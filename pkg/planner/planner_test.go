package planner

import (
	"testing"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/queryir"
)

func testCatalog() (*catalog.Catalog, *catalog.Entity) {
	account := &catalog.Entity{Name: "Account", CollectionName: "accounts", Properties: []catalog.Property{
		{Name: "_key", Kind: catalog.ScalarInt, Required: true},
		{Name: "first_name", Kind: catalog.ScalarString, Required: true},
	}}
	post := &catalog.Entity{Name: "Post", CollectionName: "posts", Properties: []catalog.Property{
		{Name: "_key", Kind: catalog.ScalarInt, Required: true},
		{Name: "title", Kind: catalog.ScalarString, Required: true},
	}}
	rel := &catalog.Relationship{Name: "posts", EdgeCollection: "posts_edge", From: account, To: post, Kind: catalog.OneToMany, Direction: catalog.DirectionOutbound}
	return &catalog.Catalog{Entities: []*catalog.Entity{account, post}, Relationships: []*catalog.Relationship{rel}}, account
}

func rootSelectionSet(t *testing.T, query string) *ast.SelectionSet {
	t.Helper()
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	require.NoError(t, err)
	opDef := doc.Definitions[0].(*ast.OperationDefinition)
	rootField := opDef.SelectionSet.Selections[0].(*ast.Field)
	return rootField.SelectionSet
}

func TestPlanScalarFieldsOnly(t *testing.T) {
	cat, account := testCatalog()
	sel := rootSelectionSet(t, `{ getAccount { first_name } }`)

	q, _, err := Plan(NewIDAllocator(), cat, account, sel)
	require.NoError(t, err)
	require.Equal(t, 1, q.ID)
	require.Len(t, q.Properties, 1)
	require.Equal(t, "first_name", q.Properties[0].Property)
}

func TestPlanFusesNestedRelationship(t *testing.T) {
	cat, account := testCatalog()
	sel := rootSelectionSet(t, `{ getAccount { first_name posts { title } } }`)

	q, _, err := Plan(NewIDAllocator(), cat, account, sel)
	require.NoError(t, err)
	require.Len(t, q.Properties, 2)

	postsProj := q.Properties[1]
	require.NotNil(t, postsProj.Nested)
	assert.Equal(t, 2, postsProj.Nested.ID)
	assert.Equal(t, "OUTBOUND", postsProj.Nested.Relationship.Direction)
	assert.True(t, postsProj.Nested.Relationship.ReturnsArray)
}

func TestPlanUnknownRelationshipFieldErrors(t *testing.T) {
	cat, account := testCatalog()
	sel := rootSelectionSet(t, `{ getAccount { bogus { title } } }`)

	_, _, err := Plan(NewIDAllocator(), cat, account, sel)
	require.Error(t, err)
}

func TestPlanNestedWhereAndLimit(t *testing.T) {
	cat, account := testCatalog()
	sel := rootSelectionSet(t, `{ getAccount { posts(limit: 5, where: {title: {_eq: "Hi"}}) { title } } }`)

	q, binds, err := Plan(NewIDAllocator(), cat, account, sel)
	require.NoError(t, err)
	nested := q.Properties[0].Nested
	require.Equal(t, 5, nested.Limit)
	require.NotNil(t, nested.Filter)
	require.NotEmpty(t, binds)
}

func TestVariableNamingAvoidsCollisions(t *testing.T) {
	cat, account := testCatalog()
	sel := rootSelectionSet(t, `{ getAccount { posts { title } } }`)

	q, _, err := Plan(NewIDAllocator(), cat, account, sel)
	require.NoError(t, err)
	text, err := queryir.Emit(q)
	require.NoError(t, err)
	require.Contains(t, text, "i_1")
	require.Contains(t, text, "i_2")
}
