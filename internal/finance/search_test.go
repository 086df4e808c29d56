package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderNoQuery(t *testing.T) {
	n, ok := ParseOrderNoQuery("#34")
	require.True(t, ok)
	assert.Equal(t, int64(34), n)

	n, ok = ParseOrderNoQuery("34")
	require.True(t, ok)
	assert.Equal(t, int64(34), n)

	_, ok = ParseOrderNoQuery("acme traders")
	assert.False(t, ok)

	_, ok = ParseOrderNoQuery("#34x")
	assert.False(t, ok)

	_, ok = ParseOrderNoQuery("")
	assert.False(t, ok)
}

func TestRankOrderSearchResultsExactMatchFirst(t *testing.T) {
	candidates := []Order{
		{ID: 1, OrderNo: 340},
		{ID: 2, OrderNo: 345},
		{ID: 3, OrderNo: 34},
	}

	ranked := RankOrderSearchResults("#34", candidates)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(34), ranked[0].OrderNo, "exact match must be promoted to the front")
	assert.Equal(t, int64(340), ranked[1].OrderNo)
	assert.Equal(t, int64(345), ranked[2].OrderNo)

	// Input order must not matter.
	reversed := []Order{
		{ID: 2, OrderNo: 345},
		{ID: 3, OrderNo: 34},
		{ID: 1, OrderNo: 340},
	}
	ranked = RankOrderSearchResults("#34", reversed)
	assert.Equal(t, int64(34), ranked[0].OrderNo)
}

func TestRankOrderSearchResultsFallbackAscending(t *testing.T) {
	candidates := []Order{
		{ID: 1, OrderNo: 31},
		{ID: 2, OrderNo: 3000},
		{ID: 3, OrderNo: 300},
	}

	ranked := RankOrderSearchResults("3", candidates)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(31), ranked[0].OrderNo)
	assert.Equal(t, int64(300), ranked[1].OrderNo)
	assert.Equal(t, int64(3000), ranked[2].OrderNo)
}

func TestRankOrderSearchResultsFreeTextUntouched(t *testing.T) {
	candidates := []Order{
		{ID: 1, OrderNo: 9},
		{ID: 2, OrderNo: 2},
	}
	ranked := RankOrderSearchResults("acme", candidates)
	assert.Equal(t, candidates, ranked)
}

func TestRankOrderSearchResultsDoesNotMutateInput(t *testing.T) {
	candidates := []Order{
		{ID: 1, OrderNo: 9},
		{ID: 2, OrderNo: 2},
	}
	_ = RankOrderSearchResults("2", candidates)
	assert.Equal(t, int64(9), candidates[0].OrderNo)
}

func TestRankOrderSearchResultsLeadingZerosNotPromoted(t *testing.T) {
	candidates := []Order{
		{ID: 1, OrderNo: 34},
		{ID: 2, OrderNo: 3},
	}

	ranked := RankOrderSearchResults("#034", candidates)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(3), ranked[0].OrderNo)
	assert.Equal(t, int64(34), ranked[1].OrderNo)
}
