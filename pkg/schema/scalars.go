package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/foretagq/typedstore/pkg/jsonscalar"
)

// The four per-scalar-kind comparator input types are
// shape-identical across every entity, so they are built exactly once and
// shared, rather than regenerated per property.
var (
	stringComparatorInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "StringComparators",
		Fields: graphql.InputObjectConfigFieldMap{
			"_eq":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_neq":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_gt":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_gte":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_lt":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_lte":    &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_regex":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_nregex": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_in":     &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
			"_nin":    &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
			"_like":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_nlike":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_ilike":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"_nilike": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	intComparatorInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IntComparators",
		Fields: graphql.InputObjectConfigFieldMap{
			"_eq":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_neq": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_gt":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_gte": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_lt":  &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_lte": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"_in":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Int)},
			"_nin": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Int)},
		},
	})

	floatComparatorInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "FloatComparators",
		Fields: graphql.InputObjectConfigFieldMap{
			"_eq":  &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_neq": &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_gt":  &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_gte": &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_lt":  &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_lte": &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"_in":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
			"_nin": &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.Float)},
		},
	})

	boolComparatorInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "BooleanComparators",
		Fields: graphql.InputObjectConfigFieldMap{
			"_eq": &graphql.InputObjectFieldConfig{Type: graphql.Boolean},
		},
	})
)

// JSONType is the Json scalar, registered wherever a Property's
// scalar_kind is Object.
var JSONType = jsonscalar.GraphQLType
