package schema

import (
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foretagq/typedstore/pkg/catalog"
)

func testCatalog() *catalog.Catalog {
	status := &catalog.Enum{Name: "AccountStatusEnum", Variants: []string{"ACTIVE", "DISABLED"}}
	account := &catalog.Entity{Name: "Account", CollectionName: "accounts", Properties: []catalog.Property{
		{Name: "_key", Kind: catalog.ScalarInt, Required: true},
		{Name: "first_name", Kind: catalog.ScalarString, Required: true},
		{Name: "status", Kind: catalog.ScalarEnum, AssociatedEnum: status},
	}}
	post := &catalog.Entity{Name: "Post", CollectionName: "posts", Properties: []catalog.Property{
		{Name: "_key", Kind: catalog.ScalarInt, Required: true},
		{Name: "title", Kind: catalog.ScalarString, Required: true},
	}}
	rel := &catalog.Relationship{Name: "posts", EdgeCollection: "posts_edge", From: account, To: post, Kind: catalog.OneToMany, Direction: catalog.DirectionOutbound}
	return &catalog.Catalog{Entities: []*catalog.Entity{account, post}, Relationships: []*catalog.Relationship{rel}}
}

func TestBuildRegistersSevenOperationsPerEntity(t *testing.T) {
	cat := testCatalog()
	s, err := Build(cat)
	require.NoError(t, err)

	queryType := s.GraphQL.QueryType()
	mutationType := s.GraphQL.MutationType()
	require.NotNil(t, queryType)
	require.NotNil(t, mutationType)

	for _, name := range []string{"getAccount", "getAllAccounts"} {
		_, ok := queryType.Fields()[name]
		assert.True(t, ok, "missing query field %s", name)
	}
	for _, name := range []string{"createAccount", "updateAccount", "updateAllAccounts", "removeAccount", "removeAllAccounts"} {
		_, ok := mutationType.Fields()[name]
		assert.True(t, ok, "missing mutation field %s", name)
	}
}

func TestBuildWiresRelationshipFieldOnObjectType(t *testing.T) {
	cat := testCatalog()
	s, err := Build(cat)
	require.NoError(t, err)

	accountObj := s.Entities["Account"]
	field, ok := accountObj.Fields()["posts"]
	require.True(t, ok)
	list, ok := field.Type.(*graphql.List)
	require.True(t, ok, "posts field should be a list type")
	assert.Equal(t, "Post", list.OfType.Name())
}

func TestBuildWiresEnumFieldType(t *testing.T) {
	cat := testCatalog()
	s, err := Build(cat)
	require.NoError(t, err)

	accountObj := s.Entities["Account"]
	field, ok := accountObj.Fields()["status"]
	require.True(t, ok)
	enumType, ok := field.Type.(*graphql.Enum)
	require.True(t, ok)
	assert.Equal(t, "AccountStatusEnum", enumType.Name())
}

func TestGetAccountArgIsIndexFilter(t *testing.T) {
	cat := testCatalog()
	s, err := Build(cat)
	require.NoError(t, err)

	field := s.GraphQL.QueryType().Fields()["getAccount"]
	var whereArg *graphql.Argument
	for _, a := range field.Args {
		if a.Name() == "where" {
			whereArg = a
		}
	}
	require.NotNil(t, whereArg)
	nonNull, ok := whereArg.Type.(*graphql.NonNull)
	require.True(t, ok)
	assert.Equal(t, "AccountIndexFilter", nonNull.OfType.Name())
}
