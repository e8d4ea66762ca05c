// Package store reads the player's sqlite databases: the song index, the
// all-time best scores, the per-play delta log, and the daily judgment
// totals. The game owns these files; this package never writes them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/scoradar/scoradar/pkg/report"
	"github.com/scoradar/scoradar/pkg/score"
)

// Paths locates the individual database files.
type Paths struct {
	SongData string // song index (song table)
	Score    string // all-time bests (score table)
	ScoreLog string // per-play delta log (scorelog table)
	Player   string // daily judgment totals (player table)
}

// Store implements report.Source over the player's databases.
type Store struct {
	songs  *sqlx.DB
	scores *sqlx.DB
	log    *sqlx.DB
	days   *sqlx.DB
}

// Open opens every configured database read-only. The daily-totals
// database is optional; the others are required.
func Open(p Paths) (*Store, error) {
	s := &Store{}
	var err error

	if s.songs, err = open(p.SongData); err != nil {
		return nil, fmt.Errorf("open song index: %w", err)
	}
	if s.scores, err = open(p.Score); err != nil {
		s.Close()
		return nil, fmt.Errorf("open score database: %w", err)
	}
	if s.log, err = open(p.ScoreLog); err != nil {
		s.Close()
		return nil, fmt.Errorf("open play log: %w", err)
	}
	if p.Player != "" {
		if s.days, err = open(p.Player); err != nil {
			s.Close()
			return nil, fmt.Errorf("open player log: %w", err)
		}
	}
	return s, nil
}

func open(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, errors.New("no path configured")
	}
	// The driver only honors the query on file: URIs; a bare path would
	// open read-write and create missing files.
	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The connection is lazy; ping so a missing or unreadable file fails
	// here instead of at the first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// Close closes every open database.
func (s *Store) Close() error {
	var errs []error
	for _, db := range []*sqlx.DB{s.songs, s.scores, s.log, s.days} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}

type songRow struct {
	MD5      string `db:"md5"`
	SHA256   string `db:"sha256"`
	Title    string `db:"title"`
	Subtitle string `db:"subtitle"`
	Artist   string `db:"artist"`
	Genre    string `db:"genre"`
	Level    int    `db:"level"`
	Notes    int    `db:"notes"`
	Mode     int    `db:"mode"`
}

// ChartMetadata looks up the song index entry for a chart. A chart the
// index has never seen yields (nil, nil), not an error.
func (s *Store) ChartMetadata(ctx context.Context, sha256 string) (*report.ChartInfo, error) {
	var row songRow
	err := s.songs.GetContext(ctx, &row, `
		SELECT md5, sha256, title, subtitle, artist, genre, level, notes, mode
		FROM song WHERE sha256 = ? LIMIT 1`, sha256)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("song lookup %s: %w", sha256, err)
	}
	return &report.ChartInfo{
		MD5:      row.MD5,
		SHA256:   row.SHA256,
		Title:    row.Title,
		Subtitle: row.Subtitle,
		Artist:   row.Artist,
		Genre:    row.Genre,
		Level:    row.Level,
		Notes:    row.Notes,
		Mode:     row.Mode,
	}, nil
}

type bestRow struct {
	score.Judgments
	Clear     int `db:"clear"`
	MissCount int `db:"minbp"`
	Combo     int `db:"combo"`
	Notes     int `db:"notes"`
}

// CurrentBest returns the stored all-time best for a chart, or (nil, nil)
// when the chart has never been scored.
func (s *Store) CurrentBest(ctx context.Context, sha256 string) (*report.Best, error) {
	var row bestRow
	err := s.scores.GetContext(ctx, &row, `
		SELECT epg, lpg, egr, lgr, egd, lgd, ebd, lbd, epr, lpr, clear, minbp, combo, notes
		FROM score WHERE sha256 = ? LIMIT 1`, sha256)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("best lookup %s: %w", sha256, err)
	}
	return &report.Best{
		Judgments: row.Judgments,
		Clear:     row.Clear,
		MissCount: row.MissCount,
		Combo:     row.Combo,
		Notes:     row.Notes,
	}, nil
}

// DayPlayRecords returns every play log row in [start, end), ordered by
// timestamp ascending.
func (s *Store) DayPlayRecords(ctx context.Context, start, end time.Time) ([]score.PlayRecord, error) {
	var records []score.PlayRecord
	err := s.log.SelectContext(ctx, &records, `
		SELECT sha256, mode, clear, oldclear, score, oldscore, combo, oldcombo, minbp, oldminbp, date
		FROM scorelog WHERE date >= ? AND date < ? ORDER BY date ASC`,
		start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("play log %s: %w", start.Format("2006-01-02"), err)
	}
	return records, nil
}

// DayTotalNotes sums the day's judged notes from the daily totals table,
// a source independent of any song's note count. Without a player log
// database the total is simply 0.
func (s *Store) DayTotalNotes(ctx context.Context, start, end time.Time) (int, error) {
	if s.days == nil {
		return 0, nil
	}
	var total int
	err := s.days.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(epg + lpg + egr + lgr + egd + lgd + ebd + lbd + epr + lpr), 0)
		FROM player WHERE date >= ? AND date < ?`,
		start.Unix(), end.Unix())
	if err != nil {
		return 0, fmt.Errorf("daily note total: %w", err)
	}
	return total, nil
}
