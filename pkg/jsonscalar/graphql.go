package jsonscalar

import (
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// GraphQLType is the *graphql.Scalar registered as "Json" wherever a
// Property's scalar_kind is Object.
var GraphQLType = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Json",
	Description: "An arbitrarily nested JSON value.",
	Serialize: func(value any) any {
		if v, ok := value.(Value); ok {
			return ToGo(v)
		}
		return value
	},
	ParseValue: func(value any) any {
		return FromGo(value)
	},
	ParseLiteral: func(valueAST ast.Value) any {
		return FromGo(ParseLiteral(valueAST))
	},
})

// ParseLiteral converts a GraphQL AST value node into a plain Go value
// (nil, bool, float64, string, []any, map[string]any). The Selection
// Planner reuses this to read inline `where`/`limit` arguments on nested
// relationship fields, which graphql-go does not resolve automatically
// outside of the top-level field's own Args.
func ParseLiteral(valueAST ast.Value) any {
	switch v := valueAST.(type) {
	case *ast.NullValue:
		return nil
	case *ast.BooleanValue:
		return v.Value
	case *ast.IntValue:
		f, _ := strconv.ParseFloat(v.Value, 64)
		return f
	case *ast.FloatValue:
		f, _ := strconv.ParseFloat(v.Value, 64)
		return f
	case *ast.StringValue:
		return v.Value
	case *ast.ListValue:
		out := make([]any, len(v.Values))
		for i, e := range v.Values {
			out[i] = ParseLiteral(e)
		}
		return out
	case *ast.ObjectValue:
		out := make(map[string]any, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name.Value] = ParseLiteral(f.Value)
		}
		return out
	default:
		return nil
	}
}
