// Package server exposes daily reports and table info over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scoradar/scoradar/pkg/report"
	"github.com/scoradar/scoradar/pkg/table"
)

// Server provides the HTTP API.
type Server struct {
	agg    *report.Aggregator
	tables []table.Table
	loc    *time.Location
	port   int
	logger *zap.Logger
}

// New creates a new HTTP server.
func New(agg *report.Aggregator, tables []table.Table, loc *time.Location, port int, logger *zap.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		agg:    agg,
		tables: tables,
		loc:    loc,
		port:   port,
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/report", s.handleReport)
	mux.HandleFunc("/api/v1/tables", s.handleTables)

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	day := time.Now().In(s.loc)
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, s.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	rep, err := s.agg.BuildDay(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	type tableInfo struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		URL      string `json:"url"`
		Priority int    `json:"priority"`
		Charts   int    `json:"charts"`
	}

	infos := make([]tableInfo, 0, len(s.tables))
	for _, t := range s.tables {
		infos = append(infos, tableInfo{
			Name:     t.Name,
			Symbol:   t.Symbol,
			URL:      t.URL,
			Priority: t.Priority,
			Charts:   len(t.Charts),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
