package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scoradar/scoradar/internal/config"
	"github.com/scoradar/scoradar/internal/notify"
	"github.com/scoradar/scoradar/internal/scheduler"
	"github.com/scoradar/scoradar/internal/store"
	"github.com/scoradar/scoradar/pkg/report"
	"github.com/scoradar/scoradar/pkg/score"
	"github.com/scoradar/scoradar/pkg/server"
	"github.com/scoradar/scoradar/pkg/table"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger() *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(store.Paths{
		SongData: cfg.Database.SongData,
		Score:    cfg.Database.Score,
		ScoreLog: cfg.Database.ScoreLog,
		Player:   cfg.Database.Player,
	})
}

// loadTables returns the difficulty table set, honoring the on-disk cache
// unless refresh forces a refetch. On fetch failure a stale cache is
// still usable.
func loadTables(ctx context.Context, cfg *config.Config, refresh bool, logger *zap.Logger) ([]table.Table, error) {
	cachePath := filepath.Join(cfg.Cache.Dir, "tables.json")

	var cached *table.Cache
	if data, err := os.ReadFile(cachePath); err == nil {
		var c table.Cache
		if err := json.Unmarshal(data, &c); err == nil {
			cached = &c
		}
	}

	refs := make([]table.Ref, len(cfg.Tables))
	for i, t := range cfg.Tables {
		refs[i] = table.Ref{Name: t.Name, URL: t.URL}
	}

	ttl := cfg.Cache.ParseTTL()
	isFresh := func(fetched time.Time) bool {
		return !refresh && time.Since(fetched) < ttl
	}

	cache, err := table.NewLoader().Load(ctx, refs, cached, isFresh)
	if err != nil {
		if cached != nil {
			logger.Warn("table fetch failed, using stale cache", zap.Error(err))
			return cached.Tables, nil
		}
		return nil, fmt.Errorf("load tables: %w", err)
	}

	if cache != cached {
		if err := writeTableCache(cachePath, cache); err != nil {
			logger.Warn("table cache write failed", zap.Error(err))
		}
	}
	return cache.Tables, nil
}

func writeTableCache(path string, cache *table.Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// dayWindow returns the [start, end) bounds of one calendar day in the
// configured timezone.
func dayWindow(cfg *config.Config, date string) (time.Time, time.Time, error) {
	loc := cfg.Report.Location()
	day := time.Now().In(loc)
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}

func runReport(date string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()
	defer logger.Sync()

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	tables, err := loadTables(ctx, cfg, false, logger)
	if err != nil {
		return err
	}

	start, end, err := dayWindow(cfg, date)
	if err != nil {
		return err
	}

	agg := report.NewAggregator(db, tables, logger)
	rep, err := agg.BuildDay(ctx, start, end)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	return renderReport(rep, start)
}

func renderReport(rep *report.Report, day time.Time) error {
	if len(rep.Songs) == 0 {
		fmt.Printf("no updates on %s\n", day.Format("2006-01-02"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tTITLE\tRANK\tEX\tRATE\tLAMP\tUPDATES")
	for _, s := range rep.Songs {
		label := s.TableSymbol
		if label == "" {
			label = fmt.Sprintf("lv%d", s.Level)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.2f%%\t%s\t%s\n",
			label, s.Title, s.Rank, s.ExScore, s.MaxScore,
			s.Percentage, s.Clear, formatUpdates(s.Events))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	st := rep.Stats
	fmt.Printf("\n%s: %d updated / %d played, %d shown (%d hidden, %d unknown), %d notes\n",
		day.Format("2006-01-02"), st.TotalSongs, st.TotalPlayedSongs,
		st.DisplayedSongs, st.HiddenSongs, st.UnknownSongs, st.TotalNotes)
	return nil
}

// formatUpdates renders a chart's improvement events on one line. A
// first-play marker suppresses the per-metric deltas.
func formatUpdates(events []score.Event) string {
	firstPlay := false
	for _, e := range events {
		if e.Kind == score.EventFirstPlay {
			firstPlay = true
			break
		}
	}

	var parts []string
	if firstPlay {
		parts = append(parts, "NEW")
		for _, e := range events {
			if e.Kind == score.EventClear && e.NewValue > 0 {
				parts = append(parts, score.ClearType(e.NewValue).String())
			}
		}
		return strings.Join(parts, " ")
	}

	for _, e := range events {
		switch e.Kind {
		case score.EventScore:
			parts = append(parts, fmt.Sprintf("score +%d", e.Delta))
		case score.EventMiss:
			parts = append(parts, fmt.Sprintf("miss %d", e.Delta))
		case score.EventClear:
			parts = append(parts, fmt.Sprintf("lamp %s", score.ClearType(e.NewValue)))
		}
	}
	return strings.Join(parts, ", ")
}

func runTables(refresh, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()
	defer logger.Sync()

	if len(cfg.Tables) == 0 {
		return fmt.Errorf("no difficulty tables configured")
	}

	tables, err := loadTables(context.Background(), cfg, refresh, logger)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tSYMBOL\tNAME\tCHARTS\tURL")
	for _, t := range tables {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", t.Priority, t.Symbol, t.Name, len(t.Charts), t.URL)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()
	defer logger.Sync()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	tables, err := loadTables(ctx, cfg, false, logger)
	if err != nil {
		return err
	}

	agg := report.NewAggregator(db, tables, logger)
	srv := server.New(agg, tables, cfg.Report.Location(), port, logger)
	return srv.ListenAndServe()
}

func buildNotifyManager(cfg *config.Config) *notify.Manager {
	var notifiers []notify.Notifier

	if cfg.Notify.Webhook.Enabled && cfg.Notify.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Secret))
	}

	return notify.NewManager(notifiers)
}

func runWatch(interval string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger()
	defer logger.Sync()

	if interval != "" {
		cfg.Watch.Interval = interval
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tables, err := loadTables(ctx, cfg, false, logger)
	if err != nil {
		return err
	}

	agg := report.NewAggregator(db, tables, logger)
	sched := scheduler.New(agg, buildNotifyManager(cfg), cfg.Report.Location(),
		cfg.Watch.ParseInterval(), logger)

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
