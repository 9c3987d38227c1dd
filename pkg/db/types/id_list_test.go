package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDListScanValueRoundTrip(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	list := IDList{a, b}

	v, err := list.Value()
	require.NoError(t, err)

	var scanned IDList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, list, scanned)

	require.NoError(t, scanned.Scan([]byte("null")))
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.NotNil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestIDListNilValueIsEmptyArray(t *testing.T) {
	var list IDList
	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestIDListWithWithout(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	list := IDList{a}

	list = list.With(b).With(b)
	assert.Equal(t, IDList{a, b}, list)

	list = list.Without(a)
	assert.Equal(t, IDList{b}, list)
	assert.False(t, list.Contains(a))
}

func TestIDListDiff(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	current := IDList{a, b}
	next := IDList{b, c}

	toAdd, toRemove := current.Diff(next)
	assert.Equal(t, IDList{c}, toAdd)
	assert.Equal(t, IDList{a}, toRemove)

	toAdd, toRemove = next.Diff(next)
	assert.Empty(t, toAdd)
	assert.Empty(t, toRemove)
}

func TestIDListDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, IDList{a, b}, IDList{a, b, a}.Dedupe())
}
