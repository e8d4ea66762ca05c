package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoradar/scoradar/pkg/report"
)

func TestWebhookSend(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
		gotUA   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotUA = r.Header.Get("User-Agent")
		gotSig = r.Header.Get("X-Scoradar-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	t.Cleanup(srv.Close)

	n := &Notification{
		Title: "2 chart update(s) on 2026-08-30",
		Date:  "2026-08-30",
		Songs: []report.Song{{SHA256: "abc", Title: "Alpha"}},
		Stats: report.Stats{DisplayedSongs: 2},
	}
	err := NewWebhook(srv.URL, "topsecret").Send(context.Background(), n)
	require.NoError(t, err)

	assert.Equal(t, "scoradar/1.0", gotUA)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig,
		"signature covers the exact request body")

	var payload struct {
		Event string `json:"event"`
		Date  string `json:"date"`
		Songs []report.Song
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "daily_report", payload.Event)
	assert.Equal(t, "2026-08-30", payload.Date)
	require.Len(t, payload.Songs, 1)
	assert.Equal(t, "Alpha", payload.Songs[0].Title)
}

func TestWebhookWithoutSecretSkipsSignature(t *testing.T) {
	var signed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signed = r.Header["X-Scoradar-Signature"]
	}))
	t.Cleanup(srv.Close)

	err := NewWebhook(srv.URL, "").Send(context.Background(), &Notification{})
	require.NoError(t, err)
	assert.False(t, signed)
}

func TestWebhookNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	err := NewWebhook(srv.URL, "").Send(context.Background(), &Notification{})
	assert.ErrorContains(t, err, "status 502")
}
