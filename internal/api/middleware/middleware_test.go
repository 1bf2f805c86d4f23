package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/", "/"},
		{"/dashboard", "/dashboard"},
		{"/health/ready", "/health/ready"},
		{"/static/css/app.css", "/static/*"},
		{"/feedback/42/moderate", "/feedback/{id}/moderate"},
		{"/feedback/a1b2c3/delete", "/feedback/{id}/delete"},
		{"/feedback/x/edit", "/feedback/{id}/edit"},
		{"/feedback/x/unknown", "/feedback/{id}"},
		{"/wp-admin", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.input); got != tt.expected {
			t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.input, got, tt.expected)
		}
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "status=500") {
		t.Errorf("ожидалась запись уровня ERROR, получено: %s", buf.String())
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if buf.Len() != 0 {
		t.Errorf("probe не должен логироваться на уровне INFO: %s", buf.String())
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if !strings.Contains(buf.String(), "bytes=2") {
		t.Errorf("ожидался размер ответа 2, получено: %s", buf.String())
	}
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feedback/7/moderate", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("статус = %d, ожидается 303", rec.Code)
	}
}
