package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExScore(t *testing.T) {
	j := Judgments{EarlyPG: 400, LatePG: 300, EarlyGR: 200, LateGR: 100, EarlyGD: 50}
	assert.Equal(t, 1700, ExScore(j))
	assert.Equal(t, 1050, j.Total())
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 50.0, Percentage(1000, 1000))
	assert.Equal(t, 0.0, Percentage(500, 0), "zero notes must not divide")
}

func TestRankFor(t *testing.T) {
	cases := []struct {
		name string
		ex   int
		want Rank
	}{
		{"AAA at exact 8/9 boundary", 1778, RankAAA},
		{"AA just under 8/9", 1777, RankAA},
		{"AA at 7/9", 1556, RankAA},
		{"A", 1400, RankA},
		{"B", 1150, RankB},
		{"C", 900, RankC},
		{"D", 700, RankD},
		{"E", 500, RankE},
		{"F below 2/9", 400, RankF},
		{"F at zero", 0, RankF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RankFor(Percentage(tc.ex, 1000)))
		})
	}
}

func TestNextRankGap(t *testing.T) {
	t.Run("one point to AAA", func(t *testing.T) {
		next := NextRankGap(1777, 2000, RankAA)
		assert.Equal(t, RankAAA, next.Rank)
		assert.Equal(t, 1, next.Gap)
	})

	t.Run("top rank has no next level", func(t *testing.T) {
		assert.Equal(t, NextRank{}, NextRankGap(1900, 2000, RankAAA))
	})

	t.Run("gap never negative", func(t *testing.T) {
		next := NextRankGap(1800, 2000, RankAA)
		assert.Equal(t, 0, next.Gap)
	})

	t.Run("unknown rank yields zero value", func(t *testing.T) {
		assert.Equal(t, NextRank{}, NextRankGap(100, 2000, Rank("X")))
	})
}

func TestCompute(t *testing.T) {
	t.Run("zero notes yields zeroed result", func(t *testing.T) {
		res := Compute(Judgments{EarlyPG: 10}, 0)
		assert.Equal(t, Result{Rank: RankF}, res)
	})

	t.Run("full result", func(t *testing.T) {
		res := Compute(Judgments{EarlyPG: 800, LatePG: 89, EarlyGR: 0}, 1000)
		assert.Equal(t, 1778, res.ExScore)
		assert.Equal(t, 2000, res.MaxScore)
		assert.InDelta(t, 88.9, res.Percentage, 1e-9)
		assert.Equal(t, RankAAA, res.Rank)
		assert.Equal(t, NextRank{}, res.Next)
	})
}

func TestClearTypeString(t *testing.T) {
	assert.Equal(t, "NoPlay", ClearNoPlay.String())
	assert.Equal(t, "Max", ClearMax.String())
	assert.Equal(t, "Hard", ClearHard.String())
	assert.Equal(t, "Unknown", ClearType(42).String())
}
