package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestServerLogsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	srv := New(":0", logger, func(r chi.Router) {
		r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})
	})

	tests := []struct {
		path      string
		wantCode  int
		wantLevel string
	}{
		{"/ok", http.StatusOK, "INFO"},
		{"/missing", http.StatusNotFound, "WARN"},
		{"/boom", http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var entry struct {
				Level  string `json:"level"`
				Msg    string `json:"msg"`
				Path   string `json:"path"`
				Status int    `json:"status"`
			}
			for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
				if err := json.Unmarshal(line, &entry); err == nil && entry.Msg == "http request" {
					break
				}
			}
			if entry.Msg != "http request" {
				t.Fatalf("no request log in %s", buf.String())
			}
			if entry.Level != tt.wantLevel || entry.Path != tt.path || entry.Status != tt.wantCode {
				t.Errorf("log = %+v, want level %s path %s status %d", entry, tt.wantLevel, tt.path, tt.wantCode)
			}
		})
	}
}
