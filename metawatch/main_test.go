package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeEventForFiltersToMetaCollections(t *testing.T) {
	cases := []struct {
		name   string
		change wal2jsonChange
		want   ChangeEvent
		wantOk bool
	}{
		{
			name: "entities meta-collection row",
			change: wal2jsonChange{
				Kind:         "insert",
				Table:        "documents",
				ColumnNames:  []string{"id", "collection", "doc"},
				ColumnValues: []interface{}{int64(1), "_typedstore_entities", "{}"},
			},
			want:   ChangeEvent{Table: "_typedstore_entities"},
			wantOk: true,
		},
		{
			name: "relationships meta-collection row",
			change: wal2jsonChange{
				Kind:         "update",
				Table:        "documents",
				ColumnNames:  []string{"id", "collection", "doc"},
				ColumnValues: []interface{}{int64(2), "_typedstore_relationships", "{}"},
			},
			want:   ChangeEvent{Table: "_typedstore_relationships"},
			wantOk: true,
		},
		{
			name: "unrelated collection row is ignored",
			change: wal2jsonChange{
				Table:        "documents",
				ColumnNames:  []string{"id", "collection", "doc"},
				ColumnValues: []interface{}{int64(3), "accounts", "{}"},
			},
			wantOk: false,
		},
		{
			name: "wrong table is ignored",
			change: wal2jsonChange{
				Table:        "schema_migrations",
				ColumnNames:  []string{"collection"},
				ColumnValues: []interface{}{"_typedstore_entities"},
			},
			wantOk: false,
		},
		{
			name: "missing collection column is ignored",
			change: wal2jsonChange{
				Table:        "documents",
				ColumnNames:  []string{"id", "doc"},
				ColumnValues: []interface{}{int64(4), "{}"},
			},
			wantOk: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := changeEventFor(tc.change)
			assert.Equal(t, tc.wantOk, ok)
			if tc.wantOk {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	a := make(chan ChangeEvent, 1)
	c := make(chan ChangeEvent, 1)
	b.AddListener(a)
	b.AddListener(c)

	ev := ChangeEvent{Table: "_typedstore_entities"}
	b.Broadcast(ev)

	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-c)

	b.RemoveListener(a)
	b.Broadcast(ChangeEvent{Table: "_typedstore_relationships"})
	assert.Len(t, a, 0)
	assert.Len(t, c, 1)
}

func TestBroadcasterDropsOnFullListener(t *testing.T) {
	b := NewBroadcaster()
	full := make(chan ChangeEvent)
	b.AddListener(full)

	// Broadcast must not block even though nothing drains full.
	b.Broadcast(ChangeEvent{Table: "_typedstore_entities"})
}

func TestGetenvFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "fallback", getenv("METAWATCH_TEST_UNSET_VAR", "fallback"))

	t.Setenv("METAWATCH_TEST_SET_VAR", "actual")
	assert.Equal(t, "actual", getenv("METAWATCH_TEST_SET_VAR", "fallback"))
}
