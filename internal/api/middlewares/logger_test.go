package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	mw "github.com/aashish4533/bloombook/internal/api/middlewares"
)

func zapNop() *zap.Logger { return zap.NewNop() }

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := mw.RequestID(mw.RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/listings/wizard/sell/next", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(422) || fields["path"] != "/listings/wizard/sell/next" || fields["request_id"] == "" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if entries[0].Level != zap.WarnLevel {
		t.Fatalf("4xx should log at warn, got %v", entries[0].Level)
	}
}
