package reload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foretagq/typedstore/pkg/catalog"
)

type fakeGateway struct {
	entities      []map[string]any
	relationships []map[string]any
	loads         int
}

func (g *fakeGateway) Submit(ctx context.Context, queryText string, bindings map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func (g *fakeGateway) ListDocuments(ctx context.Context, collection string) ([]map[string]any, error) {
	g.loads++
	switch collection {
	case catalog.EntitiesMetaCollection:
		return g.entities, nil
	case catalog.RelationshipsMetaCollection:
		return g.relationships, nil
	default:
		return nil, nil
	}
}

func accountEntityDoc() map[string]any {
	return map[string]any{
		"name": "accounts",
		"schema": map[string]any{
			"properties": map[string]any{
				"first_name": map[string]any{"type": "string"},
			},
			"required": []any{"first_name"},
		},
	}
}

func TestRefreshBuildsSchemaOnFirstCall(t *testing.T) {
	gw := &fakeGateway{entities: []map[string]any{accountEntityDoc()}}
	c := New(gw, nil)

	s, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Same(t, s, c.Current())
}

func TestRefreshSkipsRebuildWhenChecksumUnchanged(t *testing.T) {
	gw := &fakeGateway{entities: []map[string]any{accountEntityDoc()}}
	c := New(gw, nil)

	first, err := c.Refresh(context.Background())
	require.NoError(t, err)
	second, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "unchanged catalog checksum must not trigger a rebuild")
	assert.Equal(t, 4, gw.loads, "two Refresh calls each read both meta-collections")
}

func TestWaitUntilRefreshedUnblocksAfterRefresh(t *testing.T) {
	gw := &fakeGateway{entities: []map[string]any{accountEntityDoc()}}
	c := New(gw, nil)

	done := make(chan error, 1)
	go func() {
		done <- c.WaitUntilRefreshed(context.Background())
	}()

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitUntilRefreshed did not unblock after Refresh")
	}
}

func TestStartAutoRefreshReactsToChangeEvent(t *testing.T) {
	gw := &fakeGateway{entities: []map[string]any{accountEntityDoc()}}
	c := New(gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan ChangeEvent)
	go c.StartAutoRefresh(ctx, events)

	require.NoError(t, c.WaitUntilRefreshed(context.Background()))
	loadsAfterInitial := gw.loads

	events <- ChangeEvent{Table: catalog.EntitiesMetaCollection}
	time.Sleep(20 * time.Millisecond)

	assert.Greater(t, gw.loads, loadsAfterInitial)
	cancel()
}
