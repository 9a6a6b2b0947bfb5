package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		for _, format := range []string{"json", "console"} {
			logger, atom, err := New(Config{Level: tt.level, Format: format, OutputPath: "stderr"})
			if err != nil {
				t.Fatalf("New(%q, %q): %v", tt.level, format, err)
			}
			if atom.Level() != tt.want {
				t.Errorf("New(%q, %q) level = %v, want %v", tt.level, format, atom.Level(), tt.want)
			}
			logger.Sync()
		}
	}
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	var seenID string
	var seenLogger *zap.Logger
	h := Middleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = WithContext(r.Context(), nil)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan?root=/x", nil))

	if seenID == "" {
		t.Fatal("request ID not stored in context")
	}
	if rec.Header().Get("X-Request-ID") != seenID {
		t.Errorf("X-Request-ID = %q, want %q", rec.Header().Get("X-Request-ID"), seenID)
	}
	if seenLogger == nil {
		t.Error("request logger not stored in context")
	}

	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 1 {
		t.Fatalf("got %d completion logs, want 1", len(completed))
	}
	fields := completed[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["size"] != int64(len("missing")) {
		t.Errorf("size field = %v", fields["size"])
	}
	if fields["request_id"] != seenID {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	h := Middleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestWithContextFallback(t *testing.T) {
	fallback := zap.NewNop()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if WithContext(req.Context(), fallback) != fallback {
		t.Error("expected fallback logger")
	}
	if GetRequestID(req.Context()) != "" {
		t.Error("expected empty request ID")
	}
}
