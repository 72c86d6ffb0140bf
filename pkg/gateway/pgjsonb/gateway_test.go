package pgjsonb

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foretagq/typedstore/pkg/fixgres"
	"github.com/foretagq/typedstore/pkg/queryir"
)

func TestMain(m *testing.M) {
	fixgres.BootOnce(&testing.T{}, fixgres.WithDBName("typedstore"), fixgres.WithGooseUp(Migrations()))
	code := m.Run()
	_ = fixgres.ShutdownNow()
	os.Exit(code)
}

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	sbx := fixgres.NewSandbox(t)
	_, err := sbx.DB.Exec(`TRUNCATE documents`)
	require.NoError(t, err)
	return New(sbx.DB)
}

func TestGatewayCreateThenGet(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)

	createQuery := &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "accounts", CreatesPayload: `{"first_name": @arg_1_first_name}`}
	text, err := queryir.Emit(createQuery)
	require.NoError(t, err)
	rows, err := gw.Submit(ctx, text, map[string]any{"@collection": "accounts", "arg_1_first_name": "Ann"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	key := rows[0]["_key"]
	require.NotNil(t, key)

	getQuery := &queryir.Query{
		ID:         1,
		Method:     queryir.MethodGet,
		Collection: "accounts",
		Filter: queryir.FilterOp{
			Left:  queryir.Parameter{Field: "_key"},
			Op:    queryir.OpEqual,
			Right: queryir.Bind{Name: "arg_1__key"},
		},
		Limit:      1,
		Properties: []queryir.Projection{{Alias: "first_name", Property: "first_name"}},
	}
	text, err = queryir.Emit(getQuery)
	require.NoError(t, err)
	rows, err = gw.Submit(ctx, text, map[string]any{"@collection": "accounts", "arg_1__key": key})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0]["first_name"])
}

func TestGatewayUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)

	createQuery := &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "accounts", CreatesPayload: `{"first_name": @arg_1_first_name, "status": @arg_1_status}`}
	text, _ := queryir.Emit(createQuery)
	rows, err := gw.Submit(ctx, text, map[string]any{"@collection": "accounts", "arg_1_first_name": "Ann", "arg_1_status": "ACTIVE"})
	require.NoError(t, err)
	key := rows[0]["_key"]

	updateQuery := &queryir.Query{
		ID:         1,
		Method:     queryir.MethodUpdate,
		Collection: "accounts",
		Filter: queryir.FilterOp{
			Left:  queryir.Parameter{Field: "_key"},
			Op:    queryir.OpEqual,
			Right: queryir.Bind{Name: "arg_1__key"},
		},
		UpdatesPayload: `{"status": @arg_1_status}`,
		Limit:          1,
	}
	text, _ = queryir.Emit(updateQuery)
	_, err = gw.Submit(ctx, text, map[string]any{"@collection": "accounts", "arg_1__key": key, "arg_1_status": "DISABLED"})
	require.NoError(t, err)

	docs, err := gw.ListDocuments(ctx, "accounts")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Ann", docs[0]["first_name"], "update must not clobber fields it didn't set")
	assert.Equal(t, "DISABLED", docs[0]["status"])
}

func TestGatewayRelationshipTraversal(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)

	accountRows, err := gw.Submit(ctx,
		mustEmit(t, &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "accounts", CreatesPayload: `{"first_name": @arg_1_first_name}`}),
		map[string]any{"@collection": "accounts", "arg_1_first_name": "Ann"})
	require.NoError(t, err)
	accountKey := accountRows[0]["_key"]

	postRows, err := gw.Submit(ctx,
		mustEmit(t, &queryir.Query{ID: 1, Method: queryir.MethodCreate, Collection: "posts", CreatesPayload: `{"title": @arg_1_title}`}),
		map[string]any{"@collection": "posts", "arg_1_title": "Hello"})
	require.NoError(t, err)
	postKey := postRows[0]["_key"]

	edgeQuery := &queryir.Query{ID: 1, Method: queryir.MethodCreateRelationship, Collection: "accounts_posts_edge", FromBind: "__from", ToBind: "__to"}
	_, err = gw.Submit(ctx, mustEmit(t, edgeQuery), map[string]any{
		"@collection": "accounts_posts_edge",
		"__from":      "accounts/" + toStr(accountKey),
		"__to":        "posts/" + toStr(postKey),
	})
	require.NoError(t, err)

	nested := &queryir.Query{
		ID:     2,
		Method: queryir.MethodGet,
		Relationship: &queryir.RelationshipDescriptor{
			EdgeCollection: "accounts_posts_edge",
			Direction:      "OUTBOUND",
			ReturnsArray:   true,
			ParentVariable: "i_1",
		},
		Properties: []queryir.Projection{{Alias: "title", Property: "title"}},
	}
	root := &queryir.Query{
		ID:         1,
		Method:     queryir.MethodGet,
		Collection: "accounts",
		Filter: queryir.FilterOp{
			Left:  queryir.Parameter{Field: "_key"},
			Op:    queryir.OpEqual,
			Right: queryir.Bind{Name: "arg_1__key"},
		},
		Limit: 1,
		Properties: []queryir.Projection{
			{Alias: "first_name", Property: "first_name"},
			{Alias: "posts", Nested: nested},
		},
	}
	rows, err := gw.Submit(ctx, mustEmit(t, root), map[string]any{"@collection": "accounts", "arg_1__key": accountKey})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	posts, ok := rows[0]["posts"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0]["title"])
}

func mustEmit(t *testing.T, q *queryir.Query) string {
	t.Helper()
	text, err := queryir.Emit(q)
	require.NoError(t, err)
	return text
}

func toStr(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	default:
		return ""
	}
}
