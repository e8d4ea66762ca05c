package table

import (
	"sort"
	"strconv"
	"strings"
)

// unranked sorts charts without a table membership (or with an unparsable
// level) after everything else.
const unranked = 999

// Membership is one (chart, table) pair.
type Membership struct {
	Table    *Table
	Chart    Chart
	Symbol   string
	Level    string
	Priority int
}

// Resolution is the display view of a chart's table memberships. The
// zero-membership case carries empty strings and unranked sort keys.
type Resolution struct {
	Symbol            string
	Level             string
	TableName         string
	LevelOrderIndex   float64
	Priority          int
	HasMultipleTables bool
	Memberships       []Membership
}

// Resolve scans every table for the chart identity, preferring sha256 and
// falling back to md5, and derives the display fields from the
// highest-priority membership. The combined symbol label covers every
// membership, not only the primary one.
func Resolve(tables []Table, md5, sha256 string) Resolution {
	var members []Membership
	for i := range tables {
		t := &tables[i]
		for _, c := range t.Charts {
			if !chartMatches(c, md5, sha256) {
				continue
			}
			members = append(members, Membership{
				Table:    t,
				Chart:    c,
				Symbol:   t.Symbol,
				Level:    c.Level,
				Priority: t.Priority,
			})
			break
		}
	}
	if len(members) == 0 {
		return Resolution{LevelOrderIndex: unranked, Priority: unranked}
	}

	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Priority < members[j].Priority
	})
	primary := members[0]

	labels := make([]string, len(members))
	for i, m := range members {
		labels[i] = m.Symbol + m.Level
	}

	return Resolution{
		Symbol:            strings.Join(labels, " "),
		Level:             primary.Level,
		TableName:         primary.Table.Name,
		LevelOrderIndex:   levelOrderIndex(primary.Table, primary.Level),
		Priority:          primary.Priority,
		HasMultipleTables: len(members) > 1,
		Memberships:       members,
	}
}

func chartMatches(c Chart, md5, sha256 string) bool {
	if sha256 != "" && c.SHA256 == sha256 {
		return true
	}
	return md5 != "" && c.MD5 == md5
}

// levelOrderIndex positions a level within its table's declared level
// order, falling back to numeric parsing when the table declares none.
func levelOrderIndex(t *Table, level string) float64 {
	if len(t.LevelOrder) > 0 {
		for i, lv := range t.LevelOrder {
			if lv == level {
				return float64(i)
			}
		}
	}
	if f, err := strconv.ParseFloat(level, 64); err == nil {
		return f
	}
	return unranked
}
