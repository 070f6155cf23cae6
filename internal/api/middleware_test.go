package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateDate(t *testing.T) {
	valid := []string{"2024-01-02", "1999-12-31", "2025-02-28"}
	for _, d := range valid {
		if !validateDate(d) {
			t.Errorf("expected %q to be valid", d)
		}
	}

	invalid := []string{"", "2024-1-2", "02-01-2024", "2024-13-01", "2024-02-30", "tomorrow", "2024-01-02T00:00:00Z"}
	for _, d := range invalid {
		if validateDate(d) {
			t.Errorf("expected %q to be invalid", d)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/predictions?"+tc.query, nil)
		if got := parsePage(r); got != tc.want {
			t.Errorf("parsePage(%q) = %d, want %d", tc.query, got, tc.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"limit=25", 25},
		{"limit=0", 10},
		{"limit=-5", 10},
		{"limit=abc", 10},
		{"limit=99999", maxQueryLimit},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/predictions?"+tc.query, nil)
		if got := parseLimit(r, 10); got != tc.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.query, got, tc.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/predictions?symbol=AAPL&from=2024-01-01&to=2024-02-01", nil)
	f, msg := parseFilter(r)
	if msg != "" {
		t.Fatalf("unexpected error message: %s", msg)
	}
	if f.Symbol != "AAPL" {
		t.Errorf("symbol: got %q", f.Symbol)
	}
	if f.From.IsZero() || f.To.IsZero() {
		t.Error("expected both bounds set")
	}

	r = httptest.NewRequest(http.MethodGet, "/predictions?from=January", nil)
	if _, msg := parseFilter(r); msg == "" {
		t.Error("expected error message for malformed from date")
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := &Server{apiKey: "secret"}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := s.authMiddleware(next)

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/predictions", "", http.StatusUnauthorized},
		{"not bearer", "/predictions", "secret", http.StatusUnauthorized},
		{"wrong token", "/predictions", "Bearer nope", http.StatusUnauthorized},
		{"correct token", "/predictions", "Bearer secret", http.StatusOK},
		{"health bypasses auth", "/health", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tc.want {
				t.Fatalf("got status %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestAuthMiddleware_DisabledWithoutKey(t *testing.T) {
	s := &Server{}
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/predictions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("auth must be disabled when no key configured, got %d", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "https://dashboard.example.com")

	r := httptest.NewRequest(http.MethodGet, "/predictions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Errorf("unexpected allow-origin: %q", got)
	}

	// Preflight short-circuits before the handler.
	r = httptest.NewRequest(http.MethodOptions, "/predictions", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("preflight: got status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("preflight must carry allow-methods")
	}
}

func TestCORSMiddleware_DefaultsToWildcard(t *testing.T) {
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), "")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
