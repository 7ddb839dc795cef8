package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLog_NewestFirst(t *testing.T) {
	l := NewRecordLog[int](5)
	for i := 1; i <= 3; i++ {
		l.Push(i)
	}

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{3, 2, 1}, l.Items())
}

func TestRecordLog_EvictsOldestAtCap(t *testing.T) {
	l := NewRecordLog[int](3)
	for i := 1; i <= 10; i++ {
		l.Push(i)
	}

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int{10, 9, 8}, l.Items())
}

func TestRecordLog_Recent(t *testing.T) {
	l := NewRecordLog[int](10)
	for i := 1; i <= 6; i++ {
		l.Push(i)
	}

	assert.Equal(t, []int{6, 5}, l.Recent(2))
	// Asking for more than stored returns everything.
	assert.Len(t, l.Recent(100), 6)
	assert.Nil(t, l.Recent(0))
}

func TestFromSlice_RoundTrip(t *testing.T) {
	items := []int{5, 4, 3, 2, 1}
	l := FromSlice(10, items)

	require.Equal(t, items, l.Items())
}

func TestFromSlice_DropsBeyondCapacity(t *testing.T) {
	l := FromSlice(3, []int{9, 8, 7, 6, 5})

	assert.Equal(t, []int{9, 8, 7}, l.Items())
}
