package entityaccess

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Rank string

type localDate time.Time

func TestConvert(t *testing.T) {
	str := "x"
	born := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   any
	}{
		{"int64 to int", int64(7), reflect.TypeOf(0), 7},
		{"int64 to float64", int64(2), reflect.TypeOf(0.0), 2.0},
		{"float64 to float32", 1.5, reflect.TypeOf(float32(0)), float32(1.5)},
		{"integral float64 to int", 1964.0, reflect.TypeOf(0), 1964},
		{"integral float64 to uint8", 255.0, reflect.TypeOf(uint8(0)), uint8(255)},
		{"string to named", "gold", reflect.TypeOf(Rank("")), Rank("gold")},
		{"string to pointer", "x", reflect.TypeOf((*string)(nil)), &str},
		{"pointer to value", &str, reflect.TypeOf(""), "x"},
		{"list to typed slice", []any{"a", "b"}, reflect.TypeOf([]string{}), []string{"a", "b"}},
		{"list to int slice", []any{int64(1), int64(2)}, reflect.TypeOf([]int{}), []int{1, 2}},
		{"rfc3339 to time", "2001-02-03T04:05:06Z", reflect.TypeOf(time.Time{}), born},
		{"driver temporal to time", localDate(born), reflect.TypeOf(time.Time{}), born},
		{"nil to pointer", nil, reflect.TypeOf((*int64)(nil)), (*int64)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}

func TestConvertRejects(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		target reflect.Type
	}{
		{"overflow", int64(300), reflect.TypeOf(int8(0))},
		{"negative to unsigned", int64(-1), reflect.TypeOf(uint(0))},
		{"unsigned overflow", uint64(256), reflect.TypeOf(uint8(0))},
		{"fractional float to int", 1964.9, reflect.TypeOf(0)},
		{"fractional float to unsigned", 0.5, reflect.TypeOf(uint(0))},
		{"float out of int range", 1e19, reflect.TypeOf(int64(0))},
		{"float overflows int8", 300.0, reflect.TypeOf(int8(0))},
		{"negative float to unsigned", -1.0, reflect.TypeOf(uint(0))},
		{"not a number to int", math.NaN(), reflect.TypeOf(0)},
		{"float32 overflow", 1e300, reflect.TypeOf(float32(0))},
		{"int to string", int64(65), reflect.TypeOf("")},
		{"string to int", "12", reflect.TypeOf(0)},
		{"bad time", "yesterday", reflect.TypeOf(time.Time{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.value, tt.target)
			assert.Error(t, err)
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	collection := reflect.TypeOf([]string{})

	once, err := Merge(collection, []any{"a", "b", "a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, once)

	twice, err := Merge(collection, []any{"a", "b", "a"}, once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	more, err := Merge(collection, []string{"c", "a", "c"}, twice)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "c", "c"}, more)
}

func TestMergeKeepsRepeatedIncomingValues(t *testing.T) {
	merged, err := Merge(reflect.TypeOf([]string{}), []any{"Drama", "Drama", "SciFi"}, []string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "Drama", "SciFi"}, merged)

	merged, err = Merge(reflect.TypeOf([]string{}), []any{"Drama", "Drama", "Crime"}, []string{"Drama"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "Crime"}, merged)
}

func TestMergeEntitiesByIdentity(t *testing.T) {
	collection := reflect.TypeOf([]*Target{})
	a, b := &Target{Label: "same"}, &Target{Label: "same"}

	merged, err := Merge(collection, []any{a, b, a}, []*Target{a})
	require.NoError(t, err)
	got := merged.([]*Target)
	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
}

func TestMergeInterfaceElements(t *testing.T) {
	merged, err := Merge(reflect.TypeOf([]any{}), []any{int64(1), "x"}, []any{int64(1)})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "x"}, merged)
}

func TestMergeRejectsScalar(t *testing.T) {
	_, err := Merge(reflect.TypeOf(""), "a", nil)
	assert.Error(t, err)
}
