package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int) *time.Time {
	t := time.Date(2024, 5, 1, 10, 0, sec, 0, time.UTC)
	return &t
}

func TestKeys_SyntheticBorrowsLatestEarlierInstant(t *testing.T) {
	keys := Keys([]*time.Time{at(5), at(2), nil})
	require.Len(t, keys, 3)

	assert.False(t, keys[0].Synthetic)
	assert.True(t, keys[2].Timed)
	assert.True(t, keys[2].Synthetic)
	assert.True(t, keys[2].At.Equal(*at(5)), "latest, not most recent")
}

func TestKeys_LeadingUntimedStayUntimed(t *testing.T) {
	keys := Keys([]*time.Time{nil, nil, at(1)})
	assert.False(t, keys[0].Timed)
	assert.False(t, keys[1].Timed)
	assert.True(t, keys[2].Timed)
}

func TestOrder_Ascending(t *testing.T) {
	// index:            0      1    2      3      4
	keys := Keys([]*time.Time{at(5), nil, at(1), at(5), nil})
	got := Order(keys, false)

	// untimed-after-5 records sort after every real record at 5
	assert.Equal(t, []int{2, 0, 3, 1, 4}, got)
}

func TestOrder_LeadingUntimedFirst(t *testing.T) {
	keys := Keys([]*time.Time{nil, at(3), nil, at(1)})
	assert.Equal(t, []int{0, 3, 1, 2}, Order(keys, false))
}

func TestOrder_Descending(t *testing.T) {
	keys := Keys([]*time.Time{at(1), at(3), nil, at(3), nil})
	assert.Equal(t, []int{4, 2, 3, 1, 0}, Order(keys, true))
}

func TestCompare_TotalOrder(t *testing.T) {
	keys := Keys([]*time.Time{at(2), nil, at(2), nil, at(0)})
	for _, a := range keys {
		assert.Equal(t, 0, Compare(a, a))
		for _, b := range keys {
			if a.Index != b.Index {
				assert.NotZero(t, Compare(a, b))
				assert.Equal(t, -Compare(a, b), Compare(b, a))
			}
		}
	}
}

func TestOrder_Empty(t *testing.T) {
	assert.Empty(t, Order(Keys(nil), false))
}
