package anchormap_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchormap/anchormap"
)

func TestReferenceStabilityAcrossGrowth(t *testing.T) {
	m := anchormap.New[string, int]()
	m.Insert("pinned", 42)

	e := m.Find("pinned")
	require.NotNil(t, e)
	v, err := m.At("pinned")
	require.NoError(t, err)

	growths := anchormap.CollectMapStats(m).TotalGrowths
	for i := 0; i < 1000; i++ {
		m.Insert(strconv.Itoa(i), i)
	}
	require.Greater(t, anchormap.CollectMapStats(m).TotalGrowths, growths,
		"the inserts were expected to grow the table")

	assert.Same(t, e, m.Find("pinned"))
	assert.Equal(t, 42, e.Value)
	assert.Same(t, v, &e.Value)

	// writes through the old reference stay visible
	e.Value = 43
	got, ok := m.Load("pinned")
	require.True(t, ok)
	assert.Equal(t, 43, got)
}

func TestReferenceStabilityAcrossDeletes(t *testing.T) {
	const numEntries = 100
	m := anchormap.New[int, int]()
	for i := 0; i < numEntries; i++ {
		m.Insert(i, i)
	}

	entries := make([]*anchormap.Entry[int, int], 0, numEntries/2)
	for i := 1; i < numEntries; i += 2 {
		e := m.Find(i)
		require.NotNil(t, e)
		entries = append(entries, e)
	}

	for i := 0; i < numEntries; i += 2 {
		m.Delete(i)
	}

	for _, e := range entries {
		assert.Same(t, e, m.Find(e.Key()))
		assert.Equal(t, e.Key(), e.Value)
	}
}

func TestFindReturnsSameEntry(t *testing.T) {
	m := anchormap.New[string, int]()
	m.Insert("foo", 1)
	assert.Same(t, m.Find("foo"), m.Find("foo"))
	assert.Same(t, m.Find("foo"), m.Front())
}
