package pgjsonb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// execStatement runs one parsed statement against db and returns the rows
// pkg/resolvers expects back from Gateway.Submit.
func execStatement(ctx context.Context, db *sql.DB, stmt statement, bindings map[string]any) ([]map[string]any, error) {
	switch s := stmt.(type) {
	case *getQuery:
		return evalGet(ctx, db, s, bindings, nil, "")
	case *updateStmt:
		return evalUpdate(ctx, db, s, bindings)
	case *removeStmt:
		return evalRemove(ctx, db, s, bindings)
	case *insertStmt:
		return evalInsert(ctx, db, s, bindings)
	case *insertRelationshipStmt:
		return evalInsertRelationship(ctx, db, s, bindings)
	default:
		return nil, fmt.Errorf("pgjsonb: unhandled statement type %T", stmt)
	}
}

func resolveCollection(literal, bind string, bindings map[string]any) (string, error) {
	if bind == "" {
		return literal, nil
	}
	v, ok := bindings[bind]
	if !ok {
		return "", fmt.Errorf("pgjsonb: missing collection binding %q", bind)
	}
	name, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("pgjsonb: collection binding %q is not a string", bind)
	}
	return name, nil
}

// evalGet runs a getQuery, either a root scan (q.edgeCollection == "") or a
// relationship traversal rooted at parent (q.edgeCollection != ""), and
// projects every matching row.
func evalGet(ctx context.Context, db *sql.DB, q *getQuery, bindings map[string]any, parent *storeRow, parentCollection string) ([]map[string]any, error) {
	var candidates []storeRow
	var collection string
	var err error

	if q.edgeCollection != "" {
		collection, candidates, err = traverseRelationship(ctx, db, q, bindings, parent, parentCollection)
		if err != nil {
			return nil, err
		}
	} else {
		collection, err = resolveCollection(q.collection, q.collectionBind, bindings)
		if err != nil {
			return nil, err
		}
		candidates, err = fetchAll(ctx, db, collection)
		if err != nil {
			return nil, err
		}
	}

	var matched []storeRow
	for _, row := range candidates {
		ok, err := evalFilterRow(q.filter, row, collection, bindings)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	if q.limit > 0 && len(matched) > q.limit {
		matched = matched[:q.limit]
	}

	out := make([]map[string]any, 0, len(matched))
	for _, row := range matched {
		projected, err := evalProjection(ctx, db, row, collection, q.projection, bindings)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// traverseRelationship resolves the edge-collection join implied by a
// nested getQuery purely from the self-describing "<collection>/<key>"
// shape of _from/_to — it never needs to know which catalog relationship
// produced the edge.
func traverseRelationship(ctx context.Context, db *sql.DB, q *getQuery, bindings map[string]any, parent *storeRow, parentCollection string) (string, []storeRow, error) {
	if parent == nil {
		return "", nil, fmt.Errorf("pgjsonb: relationship traversal with no parent row")
	}
	parentID := parent.id(parentCollection)

	edges, err := fetchAll(ctx, db, q.edgeCollection)
	if err != nil {
		return "", nil, err
	}

	var targetIDs []string
	for _, e := range edges {
		from, _ := e.doc["_from"].(string)
		to, _ := e.doc["_to"].(string)
		switch q.direction {
		case "OUTBOUND":
			if from == parentID {
				targetIDs = append(targetIDs, to)
			}
		case "INBOUND":
			if to == parentID {
				targetIDs = append(targetIDs, from)
			}
		default: // ANY
			if from == parentID {
				targetIDs = append(targetIDs, to)
			}
			if to == parentID {
				targetIDs = append(targetIDs, from)
			}
		}
	}

	if len(targetIDs) == 0 {
		return "", nil, nil
	}

	var targetCollection string
	var rows []storeRow
	for _, id := range targetIDs {
		coll, key, err := splitID(id)
		if err != nil {
			return "", nil, err
		}
		if targetCollection == "" {
			targetCollection = coll
		}
		row, ok, err := fetchByKey(ctx, db, coll, key)
		if err != nil {
			return "", nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return targetCollection, rows, nil
}

func splitID(id string) (string, int64, error) {
	parts := strings.SplitN(id, "/", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("pgjsonb: malformed document id %q", id)
	}
	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("pgjsonb: malformed document key in id %q: %w", id, err)
	}
	return parts[0], key, nil
}

func evalProjection(ctx context.Context, db *sql.DB, row storeRow, collection string, items []projectionItem, bindings map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(items))
	for _, item := range items {
		if item.query != nil {
			rows, err := evalGet(ctx, db, item.query, bindings, &row, collection)
			if err != nil {
				return nil, err
			}
			if item.first {
				if len(rows) == 0 {
					out[item.alias] = nil
				} else {
					out[item.alias] = rows[0]
				}
			} else {
				out[item.alias] = rows
			}
			continue
		}
		out[item.alias] = fieldValue(row, collection, item.field)
	}
	return out, nil
}

// fieldValue reads a named field off row, synthesizing the two virtual
// fields (_key, _id) that are never actually stored inside doc.
func fieldValue(row storeRow, collection, field string) any {
	switch field {
	case "_key":
		return row.key
	case "_id":
		return row.id(collection)
	default:
		return row.doc[field]
	}
}

func resolveOperand(op operand, row storeRow, collection string, bindings map[string]any) (any, error) {
	switch v := op.(type) {
	case fieldOperand:
		return fieldValue(row, collection, v.field), nil
	case bindOperand:
		val, ok := bindings[v.key]
		if !ok {
			return nil, fmt.Errorf("pgjsonb: missing binding %q", v.key)
		}
		return val, nil
	case literalOperand:
		return decodeLiteral(v.text), nil
	default:
		return nil, fmt.Errorf("pgjsonb: unhandled operand type %T", op)
	}
}

func decodeLiteral(text string) any {
	switch text {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return n
	}
	return text
}

func evalFilterRow(f filterExpr, row storeRow, collection string, bindings map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}
	switch v := f.(type) {
	case compareExpr:
		left, err := resolveOperand(v.left, row, collection, bindings)
		if err != nil {
			return false, err
		}
		right, err := resolveOperand(v.right, row, collection, bindings)
		if err != nil {
			return false, err
		}
		return compareValues(left, v.op, right)
	case inExpr:
		left, err := resolveOperand(v.left, row, collection, bindings)
		if err != nil {
			return false, err
		}
		for _, el := range v.list {
			rv, err := resolveOperand(el, row, collection, bindings)
			if err != nil {
				return false, err
			}
			eq, err := compareValues(left, "==", rv)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	case funcExpr:
		return evalFuncExpr(v, row, collection, bindings)
	case notExpr:
		ok, err := evalFilterRow(v.child, row, collection, bindings)
		return !ok, err
	case logicalExpr:
		for i, child := range v.children {
			ok, err := evalFilterRow(child, row, collection, bindings)
			if err != nil {
				return false, err
			}
			if v.op == "OR" {
				if ok {
					return true, nil
				}
				if i == len(v.children)-1 {
					return false, nil
				}
				continue
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("pgjsonb: unhandled filter type %T", f)
	}
}

func evalFuncExpr(f funcExpr, row storeRow, collection string, bindings map[string]any) (bool, error) {
	if f.name != "LIKE" {
		return false, fmt.Errorf("pgjsonb: unknown filter function %q", f.name)
	}
	left, err := resolveOperand(f.args[0], row, collection, bindings)
	if err != nil {
		return false, err
	}
	pattern, err := resolveOperand(f.args[1], row, collection, bindings)
	if err != nil {
		return false, err
	}
	caseInsensitive := len(f.args) > 2
	re, err := likePatternToRegexp(fmt.Sprintf("%v", pattern), caseInsensitive)
	if err != nil {
		return false, err
	}
	return re.MatchString(fmt.Sprintf("%v", left)), nil
}

// likePatternToRegexp translates a SQL-style LIKE pattern ('%' any run,
// '_' any one character) into an anchored regexp.
func likePatternToRegexp(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	expr := b.String()
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

func compareValues(left any, op string, right any) (bool, error) {
	if op == "=~" || op == "!~" {
		re, err := regexp.Compile(fmt.Sprintf("%v", right))
		if err != nil {
			return false, err
		}
		matched := re.MatchString(fmt.Sprintf("%v", left))
		if op == "!~" {
			return !matched, nil
		}
		return matched, nil
	}

	if lf, lok := toFloat(left); lok {
		if rf, rok := toFloat(right); rok {
			return compareOrdered(op, lf, rf)
		}
	}
	ls, rs := fmt.Sprintf("%v", left), fmt.Sprintf("%v", right)
	return compareOrdered(op, ls, rs)
}

type ordered interface {
	~float64 | ~string
}

func compareOrdered[T ordered](op string, left, right T) (bool, error) {
	switch op {
	case "==":
		return left == right, nil
	case "!=":
		return left != right, nil
	case "<":
		return left < right, nil
	case "<=":
		return left <= right, nil
	case ">":
		return left > right, nil
	case ">=":
		return left >= right, nil
	default:
		return false, fmt.Errorf("pgjsonb: unknown comparison operator %q", op)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func evalUpdate(ctx context.Context, db *sql.DB, s *updateStmt, bindings map[string]any) ([]map[string]any, error) {
	rows, err := fetchAll(ctx, db, s.collection)
	if err != nil {
		return nil, err
	}
	var matched []storeRow
	for _, row := range rows {
		ok, err := evalFilterRow(s.filter, row, s.collection, bindings)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	if s.limit > 0 && len(matched) > s.limit {
		matched = matched[:s.limit]
	}

	patch, err := resolvePayload(s.payload, bindings)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(matched))
	for _, row := range matched {
		if err := updateByKey(ctx, db, s.collection, row.key, patch); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{"_key": row.key})
	}
	return out, nil
}

func evalRemove(ctx context.Context, db *sql.DB, s *removeStmt, bindings map[string]any) ([]map[string]any, error) {
	rows, err := fetchAll(ctx, db, s.collection)
	if err != nil {
		return nil, err
	}
	var matched []storeRow
	for _, row := range rows {
		ok, err := evalFilterRow(s.filter, row, s.collection, bindings)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, row)
		}
	}
	if s.limit > 0 && len(matched) > s.limit {
		matched = matched[:s.limit]
	}

	out := make([]map[string]any, 0, len(matched))
	for _, row := range matched {
		if err := removeByKey(ctx, db, s.collection, row.key); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{"_key": row.key})
	}
	return out, nil
}

func evalInsert(ctx context.Context, db *sql.DB, s *insertStmt, bindings map[string]any) ([]map[string]any, error) {
	collection, err := resolveCollection(s.collection, s.collectionBind, bindings)
	if err != nil {
		return nil, err
	}
	doc, err := resolvePayload(s.payload, bindings)
	if err != nil {
		return nil, err
	}
	key, err := insertDocument(ctx, db, collection, doc)
	if err != nil {
		return nil, err
	}
	return []map[string]any{{"_key": key}}, nil
}

func evalInsertRelationship(ctx context.Context, db *sql.DB, s *insertRelationshipStmt, bindings map[string]any) ([]map[string]any, error) {
	fromVal, ok := bindings[s.fromBind.key]
	if !ok {
		return nil, fmt.Errorf("pgjsonb: missing binding %q for _from", s.fromBind.key)
	}

	var toVal any
	switch {
	case s.toInline != nil:
		v, ok := bindings[s.toInline.key]
		if !ok {
			return nil, fmt.Errorf("pgjsonb: missing binding %q for _to", s.toInline.key)
		}
		toVal = v
	case s.toLookup != nil:
		rows, err := evalGet(ctx, db, s.toLookup, bindings, nil, "")
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("pgjsonb: relationship target lookup matched no document")
		}
		if s.toLookupFirst {
			toVal = rows[0][s.toLookupField]
		} else {
			toVal = rows[0]
		}
	default:
		return nil, fmt.Errorf("pgjsonb: relationship insert has neither an inline target nor a lookup")
	}

	collection, err := resolveCollection("", s.collectionBind, bindings)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{"_from": fromVal, "_to": toVal}
	if _, err := insertDocument(ctx, db, collection, doc); err != nil {
		return nil, err
	}
	return nil, nil
}

// resolvePayload resolves a flat object literal's values; pkg/resolvers
// always renders these as bind placeholders (see buildObjectPayload), so
// in practice every value here is a bindOperand, but literals are honored
// too for robustness.
func resolvePayload(fields []payloadField, bindings map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val, err := resolveOperand(f.value, storeRow{}, "", bindings)
		if err != nil {
			return nil, err
		}
		out[f.key] = val
	}
	return out, nil
}
