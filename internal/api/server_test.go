package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/oracle/internal/loop"
)

func testServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(8760, nil, nil, nil, nil, loop.Config{}, logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/api/v1/oracle/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["agent"] != "oracle" {
		t.Errorf("expected agent oracle, got %q", body["agent"])
	}
}

func TestAskEndpoint_RejectsEmptyQuestion(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("POST", "/api/v1/oracle/ask", strings.NewReader(`{"question":""}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAskEndpoint_RejectsBadBody(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("POST", "/api/v1/oracle/ask", strings.NewReader(`not json`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestIngestEndpoint_Validation(t *testing.T) {
	srv := testServer()

	cases := []struct {
		name string
		body string
	}{
		{"empty content", `{"source_type":"meeting","title":"sync","content":""}`},
		{"bad source id", `{"source_id":"not-a-uuid","content":"Alice: hi"}`},
		{"bad date", `{"date":"11/02/2026","content":"Alice: hi"}`},
		{"bad body", `{{{`},
	}
	for _, c := range cases {
		req := httptest.NewRequest("POST", "/api/v1/oracle/ingest", strings.NewReader(c.body))
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", c.name, w.Code)
		}
	}
}

func TestStatusFor_MapsErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&loop.Error{Kind: loop.KindRateLimited}, http.StatusTooManyRequests},
		{&loop.Error{Kind: loop.KindTimeout}, http.StatusGatewayTimeout},
		{&loop.Error{Kind: loop.KindQuerySyntax}, http.StatusUnprocessableEntity},
		{&loop.Error{Kind: loop.KindUnavailable}, http.StatusBadGateway},
		{errors.New("untyped"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
