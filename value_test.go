package tmplc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTruthy(t *testing.T) {
	assert.False(t, Nil().Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, Int(-1).Truthy())
	assert.False(t, Str("").Truthy())
	assert.True(t, Str("x").Truthy())
	assert.False(t, List(nil).Truthy())
	assert.True(t, List([]Value{Int(1)}).Truthy())
}

func TestValueLen(t *testing.T) {
	assert.Equal(t, 5, Str("hello").Len())
	assert.Equal(t, 3, List([]Value{Int(1), Int(2), Int(3)}).Len())
	assert.Equal(t, 0, Int(7).Len())
}

func TestCompareIntFastPath(t *testing.T) {
	r, err := compare("<", Int(1), Int(2))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), r)

	r, err = compare(">=", Int(5), Int(5))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), r)
}

func TestCompareCrossKindStringNeverCoerces(t *testing.T) {
	r, err := compare("==", Bool(true), Str("true"))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), r)
}

func TestCompareCrossKindBoolIntCoerces(t *testing.T) {
	r, err := compare("==", Bool(true), Int(1))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), r)

	r, err = compare("==", Bool(false), Int(1))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), r)
}

func TestCompareEqualityOnLists(t *testing.T) {
	a := List([]Value{Str("x"), Int(1)})
	b := List([]Value{Str("x"), Int(1)})
	c := List([]Value{Str("x"), Int(2)})

	r, err := compare("==", a, b)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), r)

	r, err = compare("!=", a, c)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), r)
}

func TestCompareUnknownOperator(t *testing.T) {
	_, err := compare("~=", Int(1), Int(2))
	assert.Error(t, err)
}
