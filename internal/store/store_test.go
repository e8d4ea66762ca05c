package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		SongData: filepath.Join(dir, "songdata.db"),
		Score:    filepath.Join(dir, "score.db"),
		ScoreLog: filepath.Join(dir, "scorelog.db"),
		Player:   filepath.Join(dir, "player.db"),
	}

	seedDB(t, p.SongData,
		`CREATE TABLE song (md5 TEXT, sha256 TEXT, title TEXT, subtitle TEXT,
			artist TEXT, genre TEXT, level INTEGER, notes INTEGER, mode INTEGER)`,
		`INSERT INTO song VALUES
			('m1', 's1', 'Alpha', 'another', 'someone', 'core', 11, 1200, 7),
			('m2', 's2', '', '', '', '', 3, 400, 7)`,
	)
	seedDB(t, p.Score,
		`CREATE TABLE score (sha256 TEXT, epg INTEGER, lpg INTEGER, egr INTEGER,
			lgr INTEGER, egd INTEGER, lgd INTEGER, ebd INTEGER, lbd INTEGER,
			epr INTEGER, lpr INTEGER, clear INTEGER, minbp INTEGER,
			combo INTEGER, notes INTEGER)`,
		`INSERT INTO score VALUES ('s1', 700, 100, 200, 50, 30, 10, 5, 5, 50, 50, 6, 12, 340, 1200)`,
	)
	seedDB(t, p.ScoreLog,
		`CREATE TABLE scorelog (sha256 TEXT, mode INTEGER, clear INTEGER,
			oldclear INTEGER, score INTEGER, oldscore INTEGER, combo INTEGER,
			oldcombo INTEGER, minbp INTEGER, oldminbp INTEGER, date INTEGER)`,
		`INSERT INTO scorelog VALUES
			('s1', 7, 6, 5, 1600, 1500, 300, 280, 12, 15, 1000200),
			('s1', 7, 6, 6, 1650, 1600, 310, 300, 12, 12, 1000100),
			('s2', 7, 4, 0, 500, 0, 90, 0, 40, 2147483647, 999999),
			('s1', 7, 6, 6, 1700, 1650, 320, 310, 10, 12, 1100000)`,
	)
	seedDB(t, p.Player,
		`CREATE TABLE player (epg INTEGER, lpg INTEGER, egr INTEGER, lgr INTEGER,
			egd INTEGER, lgd INTEGER, ebd INTEGER, lbd INTEGER, epr INTEGER,
			lpr INTEGER, playcount INTEGER, date INTEGER)`,
		`INSERT INTO player VALUES
			(100, 100, 50, 50, 20, 20, 5, 5, 25, 25, 12, 1000000),
			(10, 10, 5, 5, 2, 2, 1, 1, 2, 2, 3, 2000000)`,
	)

	s, err := Open(p)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChartMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		infoEntry, err := s.ChartMetadata(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, infoEntry)
		assert.Equal(t, "Alpha", infoEntry.Title)
		assert.Equal(t, "m1", infoEntry.MD5)
		assert.Equal(t, 1200, infoEntry.Notes)
		assert.Equal(t, 11, infoEntry.Level)
	})

	t.Run("absent is not an error", func(t *testing.T) {
		infoEntry, err := s.ChartMetadata(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, infoEntry)
	})
}

func TestCurrentBest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		best, err := s.CurrentBest(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, best)
		assert.Equal(t, 700, best.Judgments.EarlyPG)
		assert.Equal(t, 100, best.Judgments.LatePG)
		assert.Equal(t, 6, best.Clear)
		assert.Equal(t, 12, best.MissCount)
		assert.Equal(t, 1200, best.Notes)
	})

	t.Run("never scored", func(t *testing.T) {
		best, err := s.CurrentBest(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, best)
	})
}

func TestDayPlayRecords(t *testing.T) {
	s := newTestStore(t)

	start := time.Unix(1000000, 0)
	end := time.Unix(1050000, 0)
	records, err := s.DayPlayRecords(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, records, 2, "rows outside the window are excluded")
	assert.Equal(t, int64(1000100), records[0].Timestamp, "ordered by timestamp ascending")
	assert.Equal(t, int64(1000200), records[1].Timestamp)
}

func TestDayTotalNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("sums only the window", func(t *testing.T) {
		total, err := s.DayTotalNotes(ctx, time.Unix(900000, 0), time.Unix(1500000, 0))
		require.NoError(t, err)
		assert.Equal(t, 400, total)
	})

	t.Run("empty window is zero", func(t *testing.T) {
		total, err := s.DayTotalNotes(ctx, time.Unix(0, 0), time.Unix(1, 0))
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})
}

func TestDayTotalNotesWithoutPlayerDB(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		SongData: filepath.Join(dir, "songdata.db"),
		Score:    filepath.Join(dir, "score.db"),
		ScoreLog: filepath.Join(dir, "scorelog.db"),
	}
	seedDB(t, p.SongData, `CREATE TABLE song (sha256 TEXT)`)
	seedDB(t, p.Score, `CREATE TABLE score (sha256 TEXT)`)
	seedDB(t, p.ScoreLog, `CREATE TABLE scorelog (sha256 TEXT)`)

	s, err := Open(p)
	require.NoError(t, err)
	defer s.Close()

	total, err := s.DayTotalNotes(context.Background(), time.Unix(0, 0), time.Unix(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestOpenRequiresPaths(t *testing.T) {
	_, err := Open(Paths{})
	assert.Error(t, err)
}

func TestOpenMissingDatabaseFails(t *testing.T) {
	// A mistyped path must error, not silently create an empty database
	// that reports an empty day.
	dir := t.TempDir()
	missing := filepath.Join(dir, "songdata.db")

	_, err := Open(Paths{
		SongData: missing,
		Score:    filepath.Join(dir, "score.db"),
		ScoreLog: filepath.Join(dir, "scorelog.db"),
	})
	require.Error(t, err)

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "read-only open must not create the file")
}

func TestRecordSentinelWindow(t *testing.T) {
	s := newTestStore(t)

	records, err := s.DayPlayRecords(context.Background(), time.Unix(999999, 0), time.Unix(1000000, 0))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s2", records[0].SHA256)
	assert.Equal(t, 0, records[0].OldScore)
	assert.Equal(t, 2147483647, records[0].OldMissCount, "sentinels survive the round trip")
}
