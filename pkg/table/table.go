// Package table loads externally published difficulty tables and resolves
// charts against them.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Chart is one entry of a difficulty table's chart list.
type Chart struct {
	MD5    string `json:"md5"`
	SHA256 string `json:"sha256"`
	Level  string `json:"level"`
	Title  string `json:"title"`
}

// UnmarshalJSON accepts both string and numeric level values; published
// tables use both.
func (c *Chart) UnmarshalJSON(data []byte) error {
	var raw struct {
		MD5    string      `json:"md5"`
		SHA256 string      `json:"sha256"`
		Level  levelString `json:"level"`
		Title  string      `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.MD5 = raw.MD5
	c.SHA256 = raw.SHA256
	c.Level = string(raw.Level)
	c.Title = raw.Title
	return nil
}

// Table is a fully loaded difficulty table. Priority is the table's
// position in the configured list; lower wins.
type Table struct {
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Symbol     string   `json:"symbol"`
	Priority   int      `json:"priority"`
	LevelOrder []string `json:"level_order,omitempty"`
	Charts     []Chart  `json:"charts"`
}

// Header is a table's header document.
type Header struct {
	Name       string     `json:"name"`
	Symbol     string     `json:"symbol"`
	DataURL    string     `json:"data_url"`
	LevelOrder levelOrder `json:"level_order"`
}

// levelOrder accepts mixed numeric and string level labels.
type levelOrder []string

func (lo *levelOrder) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, formatLevelNumber(t))
		default:
			return fmt.Errorf("level_order entry has type %T", v)
		}
	}
	*lo = out
	return nil
}

type levelString string

func (l *levelString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = levelString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = levelString(formatLevelNumber(f))
	return nil
}

func formatLevelNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Body is a table's data document. Published tables use two shapes: a
// flat chart array, or an object grouping chart lists by level.
type Body struct {
	Flat    []Chart
	Grouped []LevelBucket
}

// LevelBucket is one level group of a grouped body document.
type LevelBucket struct {
	Level  string
	Charts []Chart
}

func (b *Body) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &b.Flat)
	}
	var groups map[string][]Chart
	if err := json.Unmarshal(data, &groups); err != nil {
		return fmt.Errorf("table body is neither a chart array nor a level map: %w", err)
	}
	levels := make([]string, 0, len(groups))
	for lv := range groups {
		levels = append(levels, lv)
	}
	sort.Strings(levels)
	for _, lv := range levels {
		b.Grouped = append(b.Grouped, LevelBucket{Level: lv, Charts: groups[lv]})
	}
	return nil
}

// Normalize flattens the body into a single chart list. Grouped charts
// inherit their bucket's level when they carry none of their own.
func (b Body) Normalize() []Chart {
	if b.Grouped == nil {
		return b.Flat
	}
	var charts []Chart
	for _, bucket := range b.Grouped {
		for _, c := range bucket.Charts {
			if c.Level == "" {
				c.Level = bucket.Level
			}
			charts = append(charts, c)
		}
	}
	return charts
}
