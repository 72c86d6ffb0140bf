package filteralgebra

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/foretagq/typedstore/pkg/queryir"
)

// ParseIndexFilter compiles an IndexFilter input (the "indexed by
// _key only" stub) into an equality FilterNode AND-combining every
// supplied index attribute.
func ParseIndexFilter(queryID int, where map[string]any) (queryir.FilterNode, map[string]any) {
	keys := lo.Keys(where)
	sort.Strings(keys)

	var nodes []queryir.FilterNode
	binds := map[string]any{}
	for _, k := range keys {
		bindName := queryir.BindKey(queryID, fmt.Sprintf("index_%s", k))
		nodes = append(nodes, queryir.FilterOp{Left: queryir.Parameter{Field: k}, Op: queryir.OpEqual, Right: queryir.Bind{Name: bindName}})
		binds[bindName] = where[k]
	}
	if len(nodes) == 0 {
		return nil, binds
	}
	if len(nodes) == 1 {
		return nodes[0], binds
	}
	return queryir.Logical{Op: queryir.LogicalAnd, Children: nodes}, binds
}

// ParseWhere recursively parses a client-supplied `where` input map into a
// queryir.Composite: nested `_and`/`_or`/`_not` keys recurse;
// remaining keys are grouped by property and compiled into per-property
// comparator trees, AND-combined together with the parsed `_and`.
//
// Returns the composite plus the accumulated bind values keyed by this
// query id's bind names.
func ParseWhere(queryID int, where map[string]any) (queryir.Composite, map[string]any, error) {
	binds := map[string]any{}
	composite, err := parseWhere(queryID, where, "", binds)
	return composite, binds, err
}

// parseWhere does the actual recursion. path disambiguates bind names
// across sibling _and/_or branches so two branches filtering the same
// property with the same comparator never collide on one bind key.
func parseWhere(queryID int, where map[string]any, path string, binds map[string]any) (queryir.Composite, error) {
	var composite queryir.Composite

	propertyKeys := lo.Filter(lo.Keys(where), func(k string, _ int) bool {
		return k != "_and" && k != "_or" && k != "_not"
	})
	sort.Strings(propertyKeys)

	for _, prop := range propertyKeys {
		comparators, ok := where[prop].(map[string]any)
		if !ok {
			continue
		}
		node, b, err := CompileProperty(queryID, PropertyFilter{Property: prop, Comparators: comparators}, path)
		if err != nil {
			return queryir.Composite{}, err
		}
		if node != nil {
			composite.Attrs = append(composite.Attrs, node)
		}
		for k, v := range b {
			binds[k] = v
		}
	}

	if rawAnd, ok := where["_and"].([]any); ok {
		for i, sub := range rawAnd {
			subMap, ok := sub.(map[string]any)
			if !ok {
				continue
			}
			subPath := path + "a" + strconv.Itoa(i) + "_"
			subComposite, err := parseWhere(queryID, subMap, subPath, binds)
			if err != nil {
				return queryir.Composite{}, err
			}
			if flat := queryir.Flatten(subComposite); flat != nil {
				composite.And = append(composite.And, flat)
			}
		}
	}

	if rawOr, ok := where["_or"].([]any); ok {
		for i, sub := range rawOr {
			subMap, ok := sub.(map[string]any)
			if !ok {
				continue
			}
			subPath := path + "o" + strconv.Itoa(i) + "_"
			subComposite, err := parseWhere(queryID, subMap, subPath, binds)
			if err != nil {
				return queryir.Composite{}, err
			}
			if flat := queryir.Flatten(subComposite); flat != nil {
				composite.Or = append(composite.Or, flat)
			}
		}
	}

	if rawNot, ok := where["_not"].(map[string]any); ok {
		subPath := path + "n_"
		subComposite, err := parseWhere(queryID, rawNot, subPath, binds)
		if err != nil {
			return queryir.Composite{}, err
		}
		composite.Not = queryir.Flatten(subComposite)
	}

	return composite, nil
}
