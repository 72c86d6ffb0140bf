package resolvers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/foretagq/typedstore/pkg/queryir"
)

// buildObjectPayload renders a flat attribute map into an AQL object
// literal whose values are bind placeholders, e.g.
// `{"first_name": @arg_1_first_name}`, returning the accumulated bind
// values keyed exactly as queryir.BindKey would produce them.
func buildObjectPayload(queryID int, attrs map[string]any) (string, map[string]any) {
	keys := lo.Keys(attrs)
	sort.Strings(keys)

	binds := make(map[string]any, len(keys))
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		bindKey := queryir.BindKey(queryID, k)
		fmt.Fprintf(&b, "%q: @%s", k, bindKey)
		binds[bindKey] = attrs[k]
	}
	b.WriteByte('}')
	return b.String(), binds
}
