package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/worker/poll"
)

func TestTriggerSync_ReturnsResult(t *testing.T) {
	runner := &mockSyncRunner{
		tryRunCycleFunc: func(context.Context) (model.SyncResult, error) {
			return model.SyncResultSynced, nil
		},
	}
	h := NewSyncHandler(runner, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	h.TriggerSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp syncResponse
	decodeJSON(t, rec, &resp)
	if resp.Result != "synced" {
		t.Errorf("result = %q, want synced", resp.Result)
	}
}

func TestTriggerSync_ConflictWhenInFlight(t *testing.T) {
	runner := &mockSyncRunner{
		tryRunCycleFunc: func(context.Context) (model.SyncResult, error) {
			return "", poll.ErrSyncInFlight
		},
	}
	h := NewSyncHandler(runner, newTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec := httptest.NewRecorder()
	h.TriggerSync(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTriggerSync_UpstreamErrorMapped(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"通信障害", model.NewTransportError("t", nil), http.StatusBadGateway},
		{"メンテナンス", model.NewMaintenanceError("m"), http.StatusServiceUnavailable},
		{"ストア障害", model.NewStoreError("s", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockSyncRunner{
				tryRunCycleFunc: func(context.Context) (model.SyncResult, error) {
					return "", tt.err
				},
			}
			h := NewSyncHandler(runner, newTestLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
			rec := httptest.NewRecorder()
			h.TriggerSync(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
