package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormatCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})
	l.Info("hello", FieldExpenseID, 42)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentLedger {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldExpenseID] != float64(42) {
		t.Errorf("expense_id = %v", rec[FieldExpenseID])
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	l := Discard().WithComponent(ComponentHTTP)
	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != l {
		t.Fatalf("logger not found in request context")
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Fatalf("fallback logger should use the app component")
	}
}

func TestComponentAndRequestIDMiddleware(t *testing.T) {
	var got *Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})
	h := Middleware(Discard())(
		RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
			ComponentMiddleware(ComponentLedger)(inner)))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentLedger {
		t.Fatalf("expected ledger component logger, got %+v", got)
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentHTTP, Output: &buf})
	NewStructuredLogger(l).LogError(context.Background(), "Ledger operation failed", errors.New("disk full"),
		ComponentLedger, "add_income", NewFields().WithRequestID("req_7"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldRequestID] != "req_7" || rec[FieldError] != "disk full" || rec[FieldOperation] != "add_income" {
		t.Errorf("unexpected record %v", rec)
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v", rec["level"])
	}
}

func TestSlogSharesHandler(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentHTTP, Output: &buf})
	slog.NewLogLogger(l.Slog().Handler(), slog.LevelError).Print("tls handshake error")

	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"tls handshake error"`)) {
		t.Errorf("std logger output not routed: %q", buf.String())
	}
}
