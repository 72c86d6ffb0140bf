package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/foretagq/typedstore/internal/engineerr"
)

// Emit renders a Query tree to AQL-style wire text. It never
// interpolates untrusted user text outside of bind slots; the only raw
// identifiers it writes are catalog-sourced collection/edge names and the
// query's own generated variable names.
func Emit(q *Query) (string, error) {
	var b strings.Builder
	if err := emitQuery(&b, q, true); err != nil {
		return "", err
	}
	return b.String(), nil
}

// BindKey builds the wire parameter name for a (query id, field) pair:
// "arg_<id>_<name>".
func BindKey(queryID int, name string) string {
	return fmt.Sprintf("arg_%d_%s", queryID, name)
}

// CollectionBindKey builds the bindings-map key for a collection-name bind
// parameter, mirroring the store's own convention that a "@@name" token in
// query text is supplied under the bindings key "@name".
func CollectionBindKey(name string) string {
	return "@" + name
}

func emitQuery(b *strings.Builder, q *Query, root bool) error {
	switch q.Method {
	case MethodGet:
		return emitGet(b, q, root)
	case MethodUpdate:
		return emitUpdate(b, q)
	case MethodRemove:
		return emitRemove(b, q)
	case MethodCreate:
		return emitCreate(b, q)
	case MethodCreateRelationship:
		return emitCreateRelationship(b, q)
	default:
		return engineerr.Unreachable("queryir.Emit: unknown method")
	}
}

func emitGet(b *strings.Builder, q *Query, root bool) error {
	nested := q.Relationship != nil
	if nested {
		b.WriteByte('(')
	}
	fmt.Fprintf(b, "FOR %s IN ", q.Variable())
	if nested {
		fmt.Fprintf(b, "%s %s %s", q.Relationship.Direction, q.Relationship.ParentVariable, q.Relationship.EdgeCollection)
	} else if q.CollectionBind != "" {
		b.WriteString("@@")
		b.WriteString(q.CollectionBind)
	} else {
		b.WriteString("@@collection")
	}
	if q.Filter != nil {
		b.WriteString(" FILTER ")
		if err := emitFilter(b, q.Filter, q.ID); err != nil {
			return err
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(b, " LIMIT %d", q.Limit)
	}
	b.WriteString(" RETURN ")
	if err := emitProjection(b, q); err != nil {
		return err
	}
	if nested {
		b.WriteByte(')')
		if !q.Relationship.ReturnsArray {
			b.WriteString("[0]")
		}
	}
	return nil
}

func emitUpdate(b *strings.Builder, q *Query) error {
	fmt.Fprintf(b, "FOR %s IN %s", q.Variable(), q.Collection)
	if q.Filter != nil {
		b.WriteString(" FILTER ")
		if err := emitFilter(b, q.Filter, q.ID); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, " UPDATE %s._key WITH %s IN %s", q.Variable(), q.UpdatesPayload, q.Collection)
	if q.Limit > 0 {
		fmt.Fprintf(b, " LIMIT %d", q.Limit)
	}
	b.WriteString(" RETURN { _key: NEW._key }")
	return nil
}

func emitRemove(b *strings.Builder, q *Query) error {
	fmt.Fprintf(b, "FOR %s IN %s", q.Variable(), q.Collection)
	if q.Filter != nil {
		b.WriteString(" FILTER ")
		if err := emitFilter(b, q.Filter, q.ID); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, " REMOVE %s._key IN %s", q.Variable(), q.Collection)
	if q.Limit > 0 {
		fmt.Fprintf(b, " LIMIT %d", q.Limit)
	}
	b.WriteString(" RETURN { _key: OLD._key }")
	return nil
}

func emitCreate(b *strings.Builder, q *Query) error {
	fmt.Fprintf(b, "INSERT %s INTO %s RETURN { _key: NEW._key }", q.CreatesPayload, q.Collection)
	return nil
}

func emitCreateRelationship(b *strings.Builder, q *Query) error {
	b.WriteString("INSERT { _from: @")
	b.WriteString(q.FromBind)
	b.WriteString(", _to: ")
	if q.InnerLookup != nil {
		b.WriteByte('(')
		if err := emitQuery(b, q.InnerLookup, false); err != nil {
			return err
		}
		b.WriteString(")[0][\"_id\"]")
	} else {
		b.WriteByte('@')
		b.WriteString(q.ToBind)
	}
	b.WriteString(" } INTO @@collection")
	return nil
}

func emitProjection(b *strings.Builder, q *Query) error {
	if len(q.Properties) == 0 {
		fmt.Fprintf(b, "%s", q.Variable())
		return nil
	}
	b.WriteByte('{')
	for i, p := range q.Properties {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%q: ", p.Alias)
		if p.Nested != nil {
			if err := emitQuery(b, p.Nested, false); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(b, "%s.%s", q.Variable(), p.Property)
		}
	}
	b.WriteByte('}')
	return nil
}

func emitFilter(b *strings.Builder, n FilterNode, queryID int) error {
	switch v := n.(type) {
	case FilterOp:
		return emitFilterOp(b, v, queryID)
	case InOp:
		return emitInOp(b, v, queryID)
	case FunctionCall:
		return emitFunctionCall(b, v, queryID)
	case Not:
		b.WriteString("(NOT ")
		if err := emitFilter(b, v.Child, queryID); err != nil {
			return err
		}
		b.WriteByte(')')
		return nil
	case Logical:
		return emitLogical(b, v, queryID)
	case Composite:
		flat := Flatten(v)
		if flat == nil {
			return nil
		}
		return emitFilter(b, flat, queryID)
	default:
		return engineerr.Unreachable("queryir.emitFilter: unknown FilterNode variant")
	}
}

func emitLogical(b *strings.Builder, l Logical, queryID int) error {
	if len(l.Children) == 0 {
		return nil
	}
	if len(l.Children) == 1 {
		return emitFilter(b, l.Children[0], queryID)
	}
	op := " AND "
	if l.Op == LogicalOr {
		op = " OR "
	}
	b.WriteByte('(')
	for i, c := range l.Children {
		if i > 0 {
			b.WriteString(op)
		}
		if err := emitFilter(b, c, queryID); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

func emitFilterOp(b *strings.Builder, f FilterOp, queryID int) error {
	b.WriteByte('(')
	if err := emitOperand(b, f.Left, queryID); err != nil {
		return err
	}
	b.WriteByte(' ')
	b.WriteString(compareOpText(f.Op))
	b.WriteByte(' ')
	if err := emitOperand(b, f.Right, queryID); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}

func compareOpText(op CompareOp) string {
	switch op {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpRegex:
		return "=~"
	case OpNotRegex:
		return "!~"
	default:
		return "=="
	}
}

func emitInOp(b *strings.Builder, f InOp, queryID int) error {
	b.WriteByte('(')
	if err := emitOperand(b, f.Left, queryID); err != nil {
		return err
	}
	b.WriteString(" IN [")
	for i, el := range f.List {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := emitOperand(b, el, queryID); err != nil {
			return err
		}
	}
	b.WriteString("])")
	return nil
}

func emitFunctionCall(b *strings.Builder, f FunctionCall, queryID int) error {
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := emitOperand(b, a, queryID); err != nil {
			return err
		}
	}
	b.WriteByte(')')
	return nil
}

func emitOperand(b *strings.Builder, op Operand, queryID int) error {
	switch v := op.(type) {
	case Parameter:
		fmt.Fprintf(b, "i_%s.%s", strconv.Itoa(queryID), v.Field)
		return nil
	case Bind:
		// v.Name is already a fully qualified bind key (built via
		// BindKey at the point the operand was constructed), so it is
		// written verbatim rather than re-qualified here.
		b.WriteByte('@')
		b.WriteString(v.Name)
		return nil
	case Value:
		b.WriteString(v.Text)
		return nil
	case Raw:
		b.WriteString(v.Text)
		return nil
	default:
		return engineerr.Unreachable("queryir.emitOperand: unknown Operand variant")
	}
}
