package recommender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorCountsDistinctNeighbors(t *testing.T) {
	agg := NewAggregator("org/repo-a", 0)

	// u1 star repo-b hai lần trong edge set, chỉ được tính một
	agg.Accumulate("u1", []Interaction{
		{Repo: "org/repo-b", Kind: Star},
		{Repo: "org/repo-b", Kind: Star},
	})
	agg.Accumulate("u2", []Interaction{
		{Repo: "org/repo-b", Kind: Star},
	})

	candidates := agg.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "org/repo-b", candidates[0].Repo)
	assert.Equal(t, 2, candidates[0].Stargazers)
}

func TestAggregatorExcludesSubject(t *testing.T) {
	agg := NewAggregator("org/repo-a", 0)

	agg.Accumulate("u1", []Interaction{
		{Repo: "org/repo-a", Kind: Star},
		{Repo: "org/repo-b", Kind: Star},
	})

	candidates := agg.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, "org/repo-b", candidates[0].Repo)
}

func TestAggregatorMaxNeighborsStopsAccepting(t *testing.T) {
	agg := NewAggregator("org/repo-a", 2)

	assert.True(t, agg.Accumulate("u1", []Interaction{{Repo: "org/x", Kind: Star}}))
	assert.True(t, agg.Accumulate("u2", []Interaction{{Repo: "org/x", Kind: Star}}))
	// Đã đạt giới hạn, neighbor thứ ba bị từ chối
	assert.False(t, agg.Accumulate("u3", []Interaction{{Repo: "org/y", Kind: Star}}))
	// Và mọi neighbor sau đó cũng vậy
	assert.False(t, agg.Accumulate("u4", []Interaction{{Repo: "org/z", Kind: Star}}))

	assert.Equal(t, 2, agg.NeighborsSeen())
	candidates := agg.Candidates()
	require.Len(t, candidates, 1)
	assert.Equal(t, 2, candidates[0].Stargazers)
}

func TestAggregatorDerivesRatio(t *testing.T) {
	agg := NewAggregator("org/repo-a", 0)

	agg.Accumulate("u1", []Interaction{
		{Repo: "org/repo-b", Kind: Star},
		{Repo: "org/repo-b", Kind: Fork},
	})
	agg.Accumulate("u2", []Interaction{
		{Repo: "org/repo-b", Kind: Star},
	})
	agg.Accumulate("u3", []Interaction{
		{Repo: "org/repo-c", Kind: Star},
	})

	candidates := agg.Candidates()
	require.Len(t, candidates, 2)

	b := candidates[0]
	assert.Equal(t, "org/repo-b", b.Repo)
	assert.Equal(t, 2, b.Stargazers)
	assert.Equal(t, 1, b.Forkers)
	require.True(t, b.HasRatio)
	assert.InDelta(t, 2.0, b.Ratio, 1e-9)

	c := candidates[1]
	assert.Equal(t, "org/repo-c", c.Repo)
	assert.False(t, c.HasRatio)
}

func TestAggregatorKeepsDiscoveryOrder(t *testing.T) {
	agg := NewAggregator("org/repo-a", 0)

	agg.Accumulate("u1", []Interaction{
		{Repo: "org/first", Kind: Star},
		{Repo: "org/second", Kind: Star},
	})
	agg.Accumulate("u2", []Interaction{
		{Repo: "org/third", Kind: Star},
		{Repo: "org/first", Kind: Star},
	})

	candidates := agg.Candidates()
	require.Len(t, candidates, 3)
	assert.Equal(t, "org/first", candidates[0].Repo)
	assert.Equal(t, "org/second", candidates[1].Repo)
	assert.Equal(t, "org/third", candidates[2].Repo)
}

func TestAggregatorKeepsFirstMetadata(t *testing.T) {
	agg := NewAggregator("org/repo-a", 0)

	meta := &Repo{FullName: "org/repo-b", Language: "Go"}
	agg.Accumulate("u1", []Interaction{{Repo: "org/repo-b", Kind: Star}})
	agg.Accumulate("u2", []Interaction{{Repo: "org/repo-b", Kind: Star, Meta: meta}})

	candidates := agg.Candidates()
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Meta)
	assert.Equal(t, "Go", candidates[0].Meta.Language)
}
