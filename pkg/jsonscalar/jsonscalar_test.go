package jsonscalar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGoClampsOutOfRangeIntegers(t *testing.T) {
	v := FromGo(float64(1) << 40)
	require.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int32Max, int(ToGo(v).(int32)))

	v = FromGo(-(float64(1) << 40))
	assert.Equal(t, int32Min, int(ToGo(v).(int32)))
}

func TestFromGoNonIntegerBecomesFloat(t *testing.T) {
	v := FromGo(3.14)
	assert.Equal(t, KindFloat, v.Kind())
	assert.Equal(t, 3.14, ToGo(v))
}

func TestFromGoIntegerBecomesInt(t *testing.T) {
	v := FromGo(float64(42))
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int32(42), ToGo(v))
}

func TestFromGoNestedStructures(t *testing.T) {
	v := FromGo(map[string]any{
		"tags": []any{"a", "b"},
		"n":    float64(7),
	})
	require.Equal(t, KindObject, v.Kind())
	back := ToGo(v).(map[string]any)
	assert.Equal(t, []any{"a", "b"}, back["tags"])
	assert.Equal(t, int32(7), back["n"])
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	v := Object(map[string]Value{"ok": Bool(true), "n": Int(5)})
	data, err := v.MarshalJSON()
	require.NoError(t, err)

	var out Value
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, KindObject, out.Kind())
}
