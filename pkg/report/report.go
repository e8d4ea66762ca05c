// Package report builds the per-day score update report: for every chart
// the player touched that day, what improved, the normalized score and
// rank against the all-time best, and the chart's difficulty table
// placement.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/scoradar/scoradar/pkg/score"
	"github.com/scoradar/scoradar/pkg/table"
)

// ChartInfo is the song metadata for one chart.
type ChartInfo struct {
	MD5      string `json:"md5"`
	SHA256   string `json:"sha256"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre"`
	Level    int    `json:"level"`
	Notes    int    `json:"notes"`
	Mode     int    `json:"mode"`
}

// Best is the stored all-time best for one chart, kept separate from the
// day's deltas and used only for display.
type Best struct {
	Judgments score.Judgments
	Clear     int
	MissCount int
	Combo     int
	Notes     int
}

// Source supplies the external lookups the aggregator needs. The storage
// behind it owns filtering the day's records to [start, end).
type Source interface {
	DayPlayRecords(ctx context.Context, start, end time.Time) ([]score.PlayRecord, error)
	ChartMetadata(ctx context.Context, sha256 string) (*ChartInfo, error)
	CurrentBest(ctx context.Context, sha256 string) (*Best, error)
	DayTotalNotes(ctx context.Context, start, end time.Time) (int, error)
}

// Song is one chart of the daily report. Fields are set once at
// construction; only TableSymbol is amended, when a duplicate identity is
// merged in.
type Song struct {
	MD5      string `json:"md5"`
	SHA256   string `json:"sha256"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Level    int    `json:"level"`
	Notes    int    `json:"notes"`

	ExScore    int             `json:"ex_score"`
	MaxScore   int             `json:"max_score"`
	Percentage float64         `json:"percentage"`
	Rank       score.Rank      `json:"rank"`
	NextRank   score.NextRank  `json:"next_rank"`
	Clear      score.ClearType `json:"clear"`
	MissCount  int             `json:"miss_count"`

	Events []score.Event `json:"events"`

	TableSymbol       string  `json:"table_symbol"`
	TableLevel        string  `json:"table_level"`
	TableName         string  `json:"table_name"`
	LevelOrderIndex   float64 `json:"level_order_index"`
	Priority          int     `json:"priority"`
	HasMultipleTables bool    `json:"has_multiple_tables"`

	Unknown bool `json:"unknown_song"`
}

// Stats summarizes one day.
type Stats struct {
	TotalSongs       int `json:"total_songs"`
	TotalPlayedSongs int `json:"total_played_songs"`
	TotalNotes       int `json:"total_notes"`
	DisplayedSongs   int `json:"displayed_songs"`
	HiddenSongs      int `json:"hidden_songs"`
	UnknownSongs     int `json:"unknown_songs"`
}

// Report is the aggregator's output for one day.
type Report struct {
	Date  time.Time `json:"date"`
	Songs []Song    `json:"songs"`
	Stats Stats     `json:"stats"`
}

// Aggregator builds daily reports. It holds no cache and no mutable
// state: a report is purely a function of the source, the table set, and
// the day.
type Aggregator struct {
	source  Source
	tables  []table.Table
	logger  *zap.Logger
	workers int
}

// NewAggregator creates an aggregator over a record source and a table
// set pre-sorted ascending by priority.
func NewAggregator(source Source, tables []table.Table, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		source:  source,
		tables:  tables,
		logger:  logger,
		workers: 8,
	}
}

// BuildDay produces the report for one calendar day, bounded by
// [start, end). Per-chart lookup failures are logged and treated as "no
// update"; only a failure of the day-record source itself aborts.
func (a *Aggregator) BuildDay(ctx context.Context, start, end time.Time) (*Report, error) {
	records, err := a.source.DayPlayRecords(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("day play records: %w", err)
	}

	// Group the day's records per chart, keeping first-encounter order.
	var order []string
	byChart := make(map[string][]score.PlayRecord)
	for _, r := range records {
		if _, ok := byChart[r.SHA256]; !ok {
			order = append(order, r.SHA256)
		}
		byChart[r.SHA256] = append(byChart[r.SHA256], r)
	}

	// Per-chart lookups are independent and side-effect-free, so they run
	// with bounded parallelism; everything is collected before the merge
	// phase, which needs the complete set.
	results := make([]*Song, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, sha := range order {
		g.Go(func() error {
			song, err := a.buildSong(gctx, sha, byChart[sha])
			if err != nil {
				a.logger.Warn("chart lookup failed, treating as no update",
					zap.String("sha256", sha), zap.Error(err))
				return nil
			}
			results[i] = song
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{TotalPlayedSongs: len(order)}
	songs := a.mergeAndSort(results, &stats)

	total, err := a.source.DayTotalNotes(ctx, start, end)
	if err != nil {
		a.logger.Warn("day note total unavailable", zap.Error(err))
	} else {
		stats.TotalNotes = total
	}

	return &Report{Date: start, Songs: songs, Stats: stats}, nil
}

// buildSong constructs the result for one chart, or nil when the chart is
// excluded (no metadata, or no qualifying improvement).
func (a *Aggregator) buildSong(ctx context.Context, sha string, records []score.PlayRecord) (*Song, error) {
	info, err := a.source.ChartMetadata(ctx, sha)
	if err != nil {
		return nil, fmt.Errorf("chart metadata: %w", err)
	}
	if info == nil {
		// Still a play, just nothing to display.
		return nil, nil
	}

	events := score.Classify(records, info.Notes)
	if len(events) == 0 {
		return nil, nil
	}

	best, err := a.source.CurrentBest(ctx, sha)
	if err != nil {
		return nil, fmt.Errorf("current best: %w", err)
	}

	notes := info.Notes
	if notes == 0 && best != nil {
		notes = best.Notes
	}

	var (
		result score.Result
		clear  score.ClearType
		miss   int
	)
	if best != nil {
		result = score.Compute(best.Judgments, notes)
		clear = score.ClearType(best.Clear)
		miss = best.MissCount
	} else {
		// No stored best yet; show the day's final state instead.
		last := records[len(records)-1]
		pct := score.Percentage(last.Score, notes)
		rank := score.RankFor(pct)
		result = score.Result{
			ExScore:    last.Score,
			MaxScore:   score.MaxScore(notes),
			Percentage: pct,
			Rank:       rank,
			Next:       score.NextRankGap(last.Score, score.MaxScore(notes), rank),
		}
		clear = score.ClearType(last.Clear)
		miss = last.MissCount
	}

	res := table.Resolve(a.tables, info.MD5, sha)

	return &Song{
		MD5:      info.MD5,
		SHA256:   sha,
		Title:    info.Title,
		Subtitle: info.Subtitle,
		Artist:   info.Artist,
		Level:    info.Level,
		Notes:    info.Notes,

		ExScore:    result.ExScore,
		MaxScore:   result.MaxScore,
		Percentage: result.Percentage,
		Rank:       result.Rank,
		NextRank:   result.Next,
		Clear:      clear,
		MissCount:  miss,

		Events: events,

		TableSymbol:       res.Symbol,
		TableLevel:        res.Level,
		TableName:         res.TableName,
		LevelOrderIndex:   res.LevelOrderIndex,
		Priority:          res.Priority,
		HasMultipleTables: res.HasMultipleTables,

		Unknown: strings.TrimSpace(info.Title) == "",
	}, nil
}

// mergeAndSort deduplicates constructed entries by sha256, removes
// unknown songs from the displayed list, sorts, and fills the count
// stats. Exposed to BuildDay only; entries must be in encounter order.
func (a *Aggregator) mergeAndSort(entries []*Song, stats *Stats) []Song {
	seen := make(map[string]int)
	var kept []*Song
	for _, s := range entries {
		if s == nil {
			continue
		}
		stats.TotalSongs++
		if i, ok := seen[s.SHA256]; ok {
			mergeSymbol(kept[i], s.TableSymbol)
			stats.HiddenSongs++
			continue
		}
		seen[s.SHA256] = len(kept)
		kept = append(kept, s)
	}

	var displayed []Song
	for _, s := range kept {
		if s.Unknown {
			stats.UnknownSongs++
			stats.HiddenSongs++
			continue
		}
		displayed = append(displayed, *s)
	}

	// Table members first, ordered by table priority then level position;
	// the rest by title. Stable, so equal keys keep encounter order.
	// CompareString mutates collator state, so the collator is local to
	// this call; reports may build concurrently.
	collator := collate.New(language.Und)
	sort.SliceStable(displayed, func(i, j int) bool {
		si, sj := displayed[i], displayed[j]
		mi, mj := si.TableName != "", sj.TableName != ""
		if mi != mj {
			return mi
		}
		if mi {
			if si.Priority != sj.Priority {
				return si.Priority < sj.Priority
			}
			return si.LevelOrderIndex < sj.LevelOrderIndex
		}
		return collator.CompareString(si.Title, sj.Title) < 0
	})

	stats.DisplayedSongs = len(displayed)
	return displayed
}

// mergeSymbol appends a duplicate entry's table label to the kept entry
// unless it is already shown.
func mergeSymbol(dst *Song, symbol string) {
	if symbol == "" || strings.Contains(dst.TableSymbol, symbol) {
		return
	}
	if dst.TableSymbol == "" {
		dst.TableSymbol = symbol
		return
	}
	dst.TableSymbol += " " + symbol
}
