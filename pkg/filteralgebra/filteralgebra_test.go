package filteralgebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/queryir"
)

func TestComparatorsForString(t *testing.T) {
	cmps := ComparatorsFor(catalog.ScalarString)
	assert.Contains(t, cmps, Eq)
	assert.Contains(t, cmps, Like)
	assert.Contains(t, cmps, Nilike)
}

func TestComparatorsForBool(t *testing.T) {
	assert.Equal(t, []string{Eq}, ComparatorsFor(catalog.ScalarBoolean))
}

func TestCompilePropertySingleEq(t *testing.T) {
	node, binds, err := CompileProperty(1, PropertyFilter{Property: "first_name", Comparators: map[string]any{Eq: "Ann"}}, "")
	require.NoError(t, err)
	op, ok := node.(queryir.FilterOp)
	require.True(t, ok)
	assert.Equal(t, queryir.OpEqual, op.Op)
	assert.Equal(t, "Ann", binds[queryir.BindKey(1, "first_name__eq")])
}

func TestCompilePropertyInList(t *testing.T) {
	node, binds, err := CompileProperty(1, PropertyFilter{Property: "status", Comparators: map[string]any{In: []any{"a", "b"}}}, "")
	require.NoError(t, err)
	inOp, ok := node.(queryir.InOp)
	require.True(t, ok)
	assert.Len(t, inOp.List, 2)
	assert.Equal(t, "a", binds[queryir.BindKey(1, "status__in")+"_0"])
	assert.Equal(t, "b", binds[queryir.BindKey(1, "status__in")+"_1"])
}

func TestParseWhereSimpleAnd(t *testing.T) {
	where := map[string]any{
		"_and": []any{
			map[string]any{"first_name": map[string]any{Eq: "Ann"}},
			map[string]any{"last_name": map[string]any{Like: "S%"}},
		},
	}
	composite, binds, err := ParseWhere(1, where)
	require.NoError(t, err)
	flat := queryir.Flatten(composite)
	require.NotNil(t, flat)
	logical, ok := flat.(queryir.Logical)
	require.True(t, ok)
	assert.Equal(t, queryir.LogicalAnd, logical.Op)
	assert.Len(t, binds, 2)
}

func TestParseWhereEmptyIsEmptyComposite(t *testing.T) {
	composite, _, err := ParseWhere(1, map[string]any{})
	require.NoError(t, err)
	assert.True(t, composite.IsEmpty())
}

func TestParseWhereSiblingBranchesDoNotCollideBindNames(t *testing.T) {
	where := map[string]any{
		"_or": []any{
			map[string]any{"first_name": map[string]any{Eq: "Ann"}},
			map[string]any{"first_name": map[string]any{Eq: "Bo"}},
		},
	}
	_, binds, err := ParseWhere(1, where)
	require.NoError(t, err)
	assert.Len(t, binds, 2, "each branch's bind value must survive distinctly")
}

func TestCompilePropertyUnknownComparatorIsValidationError(t *testing.T) {
	_, _, err := CompileProperty(1, PropertyFilter{Property: "x", Comparators: map[string]any{"_bogus": 1}}, "")
	require.Error(t, err)
}
