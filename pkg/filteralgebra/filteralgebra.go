// Package filteralgebra implements the per-scalar comparator tables and
// the _and/_or/_not composite parsing, compiling a client's
// typed filter input into a queryir.FilterNode tree.
package filteralgebra

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/foretagq/typedstore/internal/engineerr"
	"github.com/foretagq/typedstore/pkg/catalog"
	"github.com/foretagq/typedstore/pkg/queryir"
)

// Comparator names shared across every scalar kind's BoolExp input.
const (
	Eq      = "_eq"
	Neq     = "_neq"
	Gt      = "_gt"
	Gte     = "_gte"
	Lt      = "_lt"
	Lte     = "_lte"
	Regex   = "_regex"
	Nregex  = "_nregex"
	In      = "_in"
	Nin     = "_nin"
	Like    = "_like"
	Nlike   = "_nlike"
	Ilike   = "_ilike"
	Nilike  = "_nilike"
)

// ComparatorsFor returns the wire comparator keys available for a scalar
// kind.
func ComparatorsFor(kind catalog.ScalarKind) []string {
	switch kind {
	case catalog.ScalarString:
		return []string{Eq, Neq, Gt, Gte, Lt, Lte, Regex, Nregex, In, Nin, Like, Nlike, Ilike, Nilike}
	case catalog.ScalarInt, catalog.ScalarFloat:
		return []string{Eq, Neq, Gt, Gte, Lt, Lte, In, Nin}
	case catalog.ScalarBoolean:
		return []string{Eq}
	default:
		return nil
	}
}

// PropertyFilter is one property's parsed comparator set, e.g.
// {first_name: {_eq: "Ann"}}. Values are the raw argument values;
// CompileProperty turns them into bind operands.
type PropertyFilter struct {
	Property    string
	Comparators map[string]any // comparator key -> raw argument value (scalar or list)
}

// CompileProperty compiles one property's comparator map into a single
// FilterNode (AND-combined across comparators), binding each value through
// the given query's id using Bind operands. path disambiguates bind names
// across sibling _and/_or branches (see ParseWhere); pass "" at the top
// level.
func CompileProperty(queryID int, pf PropertyFilter, path string) (queryir.FilterNode, map[string]any, error) {
	keys := lo.Keys(pf.Comparators)
	sort.Strings(keys)

	var nodes []queryir.FilterNode
	binds := map[string]any{}

	for _, key := range keys {
		val := pf.Comparators[key]
		bindName := queryir.BindKey(queryID, fmt.Sprintf("%s%s__%s", path, pf.Property, stripLeadingUnderscore(key)))
		node, bindValue, multi, err := compileComparator(pf.Property, key, val, bindName)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, node)
		if multi != nil {
			for k, v := range multi {
				binds[k] = v
			}
		} else {
			binds[bindName] = bindValue
		}
	}

	if len(nodes) == 0 {
		return nil, binds, nil
	}
	if len(nodes) == 1 {
		return nodes[0], binds, nil
	}
	return queryir.Logical{Op: queryir.LogicalAnd, Children: nodes}, binds, nil
}

func stripLeadingUnderscore(s string) string {
	if len(s) > 0 && s[0] == '_' {
		return s[1:]
	}
	return s
}

func compileComparator(property, key string, val any, bindName string) (queryir.FilterNode, any, map[string]any, error) {
	left := queryir.Parameter{Field: property}

	switch key {
	case Eq:
		return queryir.FilterOp{Left: left, Op: queryir.OpEqual, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Neq:
		return queryir.FilterOp{Left: left, Op: queryir.OpNotEqual, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Gt:
		return queryir.FilterOp{Left: left, Op: queryir.OpGreater, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Gte:
		return queryir.FilterOp{Left: left, Op: queryir.OpGreaterEq, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Lt:
		return queryir.FilterOp{Left: left, Op: queryir.OpLess, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Lte:
		return queryir.FilterOp{Left: left, Op: queryir.OpLessEq, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Regex:
		return queryir.FilterOp{Left: left, Op: queryir.OpRegex, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case Nregex:
		return queryir.FilterOp{Left: left, Op: queryir.OpNotRegex, Right: queryir.Bind{Name: bindName}}, val, nil, nil
	case In:
		return compileInList(left, bindName, val, false)
	case Nin:
		return compileInList(left, bindName, val, true)
	case Like:
		return queryir.FunctionCall{Name: "LIKE", Args: []queryir.Operand{left, queryir.Bind{Name: bindName}}}, val, nil, nil
	case Nlike:
		return queryir.Not{Child: queryir.FunctionCall{Name: "LIKE", Args: []queryir.Operand{left, queryir.Bind{Name: bindName}}}}, val, nil, nil
	case Ilike:
		return queryir.FunctionCall{Name: "LIKE", Args: []queryir.Operand{left, queryir.Bind{Name: bindName}, queryir.Raw{Text: "true"}}}, val, nil, nil
	case Nilike:
		return queryir.Not{Child: queryir.FunctionCall{Name: "LIKE", Args: []queryir.Operand{left, queryir.Bind{Name: bindName}, queryir.Raw{Text: "true"}}}}, val, nil, nil
	default:
		return nil, nil, nil, &engineerr.ValidationError{Reason: "unknown comparator " + key + " for property " + property}
	}
}

func compileInList(left queryir.Operand, bindName string, val any, negate bool) (queryir.FilterNode, any, map[string]any, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, nil, nil, &engineerr.ValidationError{Reason: "expected list for _in/_nin"}
	}
	operands := make([]queryir.Operand, len(list))
	binds := map[string]any{}
	for i := range list {
		elemBind := fmt.Sprintf("%s_%d", bindName, i)
		operands[i] = queryir.Bind{Name: elemBind}
		binds[elemBind] = list[i]
	}
	node := queryir.FilterNode(queryir.InOp{Left: left, List: operands})
	if negate {
		node = queryir.Not{Child: node}
	}
	return node, nil, binds, nil
}
