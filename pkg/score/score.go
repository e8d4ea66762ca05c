// Package score computes normalized EX scores, letter ranks, and per-day
// improvement events from a player's raw play records.
package score

import "math"

// Judgments holds raw judgment counts from a single play or a stored best.
// Early/late pairs are kept separate because the game records them that way.
type Judgments struct {
	EarlyPG int `json:"epg" db:"epg"`
	LatePG  int `json:"lpg" db:"lpg"`
	EarlyGR int `json:"egr" db:"egr"`
	LateGR  int `json:"lgr" db:"lgr"`
	EarlyGD int `json:"egd" db:"egd"`
	LateGD  int `json:"lgd" db:"lgd"`
	EarlyBD int `json:"ebd" db:"ebd"`
	LateBD  int `json:"lbd" db:"lbd"`
	EarlyPR int `json:"epr" db:"epr"`
	LatePR  int `json:"lpr" db:"lpr"`
}

// Total returns the number of judged notes.
func (j Judgments) Total() int {
	return j.EarlyPG + j.LatePG + j.EarlyGR + j.LateGR + j.EarlyGD + j.LateGD +
		j.EarlyBD + j.LateBD + j.EarlyPR + j.LatePR
}

// ExScore weights a top-tier judgment at 2 points and a second-tier one at 1.
func ExScore(j Judgments) int {
	return (j.EarlyPG+j.LatePG)*2 + j.EarlyGR + j.LateGR
}

// MaxScore is the highest EX score a chart allows.
func MaxScore(notes int) int {
	return notes * 2
}

// Percentage is the EX score as a percentage of the maximum, 0 when the
// chart has no notes.
func Percentage(ex, notes int) float64 {
	if notes <= 0 {
		return 0
	}
	return float64(ex) / float64(MaxScore(notes)) * 100
}

// Rank is the 8-tier letter classification of a percentage score.
type Rank string

const (
	RankF   Rank = "F"
	RankE   Rank = "E"
	RankD   Rank = "D"
	RankC   Rank = "C"
	RankB   Rank = "B"
	RankA   Rank = "A"
	RankAA  Rank = "AA"
	RankAAA Rank = "AAA"
)

// rankTiers lists ranks lowest to highest with their minimum score ratio,
// in ninths of the maximum.
var rankTiers = []struct {
	rank Rank
	min  float64
}{
	{RankF, 0},
	{RankE, 2.0 / 9.0},
	{RankD, 3.0 / 9.0},
	{RankC, 4.0 / 9.0},
	{RankB, 5.0 / 9.0},
	{RankA, 6.0 / 9.0},
	{RankAA, 7.0 / 9.0},
	{RankAAA, 8.0 / 9.0},
}

// RankFor returns the letter rank for a percentage score.
func RankFor(percentage float64) Rank {
	ratio := percentage / 100
	for i := len(rankTiers) - 1; i > 0; i-- {
		if ratio >= rankTiers[i].min {
			return rankTiers[i].rank
		}
	}
	return RankF
}

// NextRank describes the distance to the next letter rank. Rank is empty
// and Gap zero when the current rank is already the top tier.
type NextRank struct {
	Rank Rank `json:"rank,omitempty"`
	Gap  int  `json:"gap"`
}

// NextRankGap returns how many EX score points separate score from the
// next rank's threshold on a chart with the given maximum.
func NextRankGap(score, maxScore int, current Rank) NextRank {
	idx := -1
	for i, t := range rankTiers {
		if t.rank == current {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(rankTiers)-1 {
		return NextRank{}
	}
	next := rankTiers[idx+1]
	target := int(math.Ceil(next.min * float64(maxScore)))
	gap := target - score
	if gap < 0 {
		gap = 0
	}
	return NextRank{Rank: next.rank, Gap: gap}
}

// Result bundles the computed score fields for one chart.
type Result struct {
	ExScore    int      `json:"ex_score"`
	MaxScore   int      `json:"max_score"`
	Percentage float64  `json:"percentage"`
	Rank       Rank     `json:"rank"`
	Next       NextRank `json:"next"`
}

// Compute evaluates judgment counts against a chart's note count. A chart
// without notes yields a zeroed result rather than an error.
func Compute(j Judgments, notes int) Result {
	if notes <= 0 {
		return Result{Rank: RankF}
	}
	ex := ExScore(j)
	max := MaxScore(notes)
	pct := Percentage(ex, notes)
	rank := RankFor(pct)
	return Result{
		ExScore:    ex,
		MaxScore:   max,
		Percentage: pct,
		Rank:       rank,
		Next:       NextRankGap(ex, max, rank),
	}
}
