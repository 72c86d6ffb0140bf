package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRootGetWithFilterAndLimit(t *testing.T) {
	q := &Query{
		ID:         1,
		Method:     MethodGet,
		Collection: "accounts",
		Properties: []Projection{
			{Alias: "first_name", Property: "first_name"},
			{Alias: "tags", Property: "tags"},
		},
		Filter: FilterOp{Left: Parameter{Field: "_key"}, Op: OpEqual, Right: Bind{Name: BindKey(1, "_key")}},
		Limit:  1,
	}

	text, err := Emit(q)
	require.NoError(t, err)
	assert.Equal(t, `FOR i_1 IN @@collection FILTER (i_1._key == @arg_1__key) LIMIT 1 RETURN {"first_name": i_1.first_name, "tags": i_1.tags}`, text)
}

func TestEmitLogicalAndOfTwoComparisons(t *testing.T) {
	filter := Logical{
		Op: LogicalAnd,
		Children: []FilterNode{
			FilterOp{Left: Parameter{Field: "first_name"}, Op: OpEqual, Right: Value{Text: `"Ann"`}},
			FunctionCall{Name: "LIKE", Args: []Operand{Parameter{Field: "last_name"}, Value{Text: `"S%"`}}},
		},
	}
	q := &Query{ID: 1, Method: MethodGet, Collection: "accounts", Properties: []Projection{{Alias: "_key", Property: "_key"}}, Filter: filter, Limit: 10}

	text, err := Emit(q)
	require.NoError(t, err)
	assert.Contains(t, text, `((i_1.first_name == "Ann") AND LIKE(i_1.last_name, "S%"))`)
	assert.Contains(t, text, "LIMIT 10")
}

func TestEmptyCompositeOmitsFilterClause(t *testing.T) {
	q := &Query{ID: 1, Method: MethodGet, Collection: "accounts", Properties: []Projection{{Alias: "_key", Property: "_key"}}, Filter: Flatten(Composite{})}
	text, err := Emit(q)
	require.NoError(t, err)
	assert.NotContains(t, text, "FILTER")
}

func TestFlattenNilWhenEmpty(t *testing.T) {
	assert.Nil(t, Flatten(Composite{}))
}

func TestEmitNestedRelationshipArrayQuery(t *testing.T) {
	child := &Query{
		ID:     2,
		Method: MethodGet,
		Relationship: &RelationshipDescriptor{
			EdgeCollection: "posts_edge",
			Direction:      "OUTBOUND",
			ReturnsArray:   true,
			ParentVariable: "i_1",
		},
		Properties: []Projection{{Alias: "title", Property: "title"}},
	}
	root := &Query{
		ID:         1,
		Method:     MethodGet,
		Collection: "accounts",
		Properties: []Projection{
			{Alias: "_key", Property: "_key"},
			{Alias: "posts", Nested: child},
		},
		Limit: 1,
	}

	text, err := Emit(root)
	require.NoError(t, err)
	assert.Contains(t, text, `"posts": (FOR i_2 IN OUTBOUND i_1 posts_edge RETURN {"title": i_2.title})`)
	assert.NotContains(t, text, `)[0]`)
}

func TestEmitNestedRelationshipSingleQueryAddsIndex(t *testing.T) {
	child := &Query{
		ID:     2,
		Method: MethodGet,
		Relationship: &RelationshipDescriptor{
			EdgeCollection: "profile_edge",
			Direction:      "OUTBOUND",
			ReturnsArray:   false,
			ParentVariable: "i_1",
		},
		Properties: []Projection{{Alias: "bio", Property: "bio"}},
	}
	root := &Query{ID: 1, Method: MethodGet, Collection: "accounts", Properties: []Projection{{Alias: "profile", Nested: child}}}

	text, err := Emit(root)
	require.NoError(t, err)
	assert.Contains(t, text, `)[0]`)
}

func TestEmitUpdate(t *testing.T) {
	q := &Query{
		ID:             1,
		Method:         MethodUpdate,
		Collection:     "accounts",
		UpdatesPayload: `{"last_name": @arg_1_last_name}`,
		Filter:         FilterOp{Left: Parameter{Field: "first_name"}, Op: OpEqual, Right: Value{Text: `"X"`}},
	}
	text, err := Emit(q)
	require.NoError(t, err)
	assert.Contains(t, text, "UPDATE i_1._key WITH")
	assert.Contains(t, text, "RETURN { _key: NEW._key }")
}

func TestEmitRemove(t *testing.T) {
	q := &Query{ID: 1, Method: MethodRemove, Collection: "accounts", Filter: FilterOp{Left: Parameter{Field: "_key"}, Op: OpEqual, Right: Bind{Name: BindKey(1, "_key")}}}
	text, err := Emit(q)
	require.NoError(t, err)
	assert.Contains(t, text, "REMOVE i_1._key IN accounts")
	assert.Contains(t, text, "RETURN { _key: OLD._key }")
}

func TestEmitCreate(t *testing.T) {
	q := &Query{ID: 1, Method: MethodCreate, Collection: "accounts", CreatesPayload: `{"first_name": @arg_1_first_name}`}
	text, err := Emit(q)
	require.NoError(t, err)
	assert.Equal(t, `INSERT {"first_name": @arg_1_first_name} INTO accounts RETURN { _key: NEW._key }`, text)
}

func TestEmitCreateRelationshipWithInnerLookup(t *testing.T) {
	inner := &Query{
		ID:             0,
		Method:         MethodGet,
		CollectionBind: "inner_collection",
		Filter:         FilterOp{Left: Parameter{Field: "_key"}, Op: OpEqual, Right: Value{Text: "3"}},
		Limit:          1,
		Properties:     []Projection{{Alias: "_id", Property: "_id"}},
	}
	q := &Query{
		ID:              1,
		Method:          MethodCreateRelationship,
		Collection:      "posts_edge",
		FromBind:        "__from",
		InnerLookup:     inner,
		InnerCollection: "posts",
	}
	text, err := Emit(q)
	require.NoError(t, err)
	assert.Contains(t, text, "INSERT { _from: @__from, _to: (")
	assert.Contains(t, text, `)[0]["_id"]`)
	assert.Contains(t, text, "INTO @@collection")
	assert.Contains(t, text, "FOR i_0 IN @@inner_collection", "inner lookup must bind a collection, not a value")
}

func TestBindKeyFormat(t *testing.T) {
	assert.Equal(t, "arg_3_first_name", BindKey(3, "first_name"))
}
