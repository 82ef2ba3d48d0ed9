package fvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullValue(t *testing.T) {
	v := Null()
	assert.True(t, v.IsNull())
	assert.Equal(t, NullType, v.Type())
	assert.Equal(t, "null", v.JSONString())
}

func TestBoolValue(t *testing.T) {
	assert.True(t, Bool(true).Bool())
	assert.False(t, Bool(false).Bool())
	assert.False(t, Null().Bool())
}

func TestNumberValue(t *testing.T) {
	assert.Equal(t, 3, Int(3).Int())
	assert.True(t, Int(3).IsInt())
	assert.False(t, Float64(3.5).IsInt())
	assert.Equal(t, 3.5, Float64(3.5).Float64())
	assert.Equal(t, float64(0), Float64(0).Float64())
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "abc", String("abc").String())
	assert.Equal(t, "", String("").String())
	assert.Equal(t, "", Null().String())
}

func TestArrayBuilderIsImmutableAfterBuild(t *testing.T) {
	builder := ArrayBuild(2).Add(Int(1)).Add(Int(2))
	v1 := builder.Build()
	builder.Add(Int(3))
	v2 := builder.Build()
	assert.Equal(t, 2, v1.Count())
	assert.Equal(t, 3, v2.Count())
}

func TestObjectBuilderIsImmutableAfterBuild(t *testing.T) {
	builder := ObjectBuild(1).Set("a", Int(1))
	v1 := builder.Build()
	builder.Set("b", Int(2))
	v2 := builder.Build()
	assert.Equal(t, 1, v1.Count())
	assert.Equal(t, 2, v2.Count())
	a, ok := v1.TryGetByKey("a")
	assert.True(t, ok)
	assert.Equal(t, 1, a.Int())
}

func TestCopyArbitraryCoercesNumbers(t *testing.T) {
	assert.Equal(t, Int(3), CopyArbitrary(int8(3)))
	assert.Equal(t, Int(3), CopyArbitrary(uint(3)))
	assert.Equal(t, Float64(3.5), CopyArbitrary(float32(3.5)))
}

func TestAsPointer(t *testing.T) {
	assert.Nil(t, Null().AsPointer())
	p := Int(5).AsPointer()
	if assert.NotNil(t, p) {
		assert.Equal(t, 5, p.Int())
	}
}
