package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/worker/poll"
)

// SyncRunner はオンデマンドの同期サイクル実行インターフェース。
// *poll.Coordinatorが実装する。
type SyncRunner interface {
	// TryRunCycle は同期サイクルを1回実行する。
	// 既にサイクルが実行中の場合はpoll.ErrSyncInFlightを返す。
	TryRunCycle(ctx context.Context) (model.SyncResult, error)
}

// SyncHandler はオンデマンド同期のHTTPハンドラー。
type SyncHandler struct {
	runner SyncRunner
	logger *slog.Logger
}

// NewSyncHandler はSyncHandlerを生成する。
func NewSyncHandler(runner SyncRunner, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, logger: logger}
}

// syncResponse はオンデマンド同期のレスポンス。
type syncResponse struct {
	Result string `json:"result"`
}

// TriggerSync は同期サイクルを即時実行する。
// POST /api/sync
// 定期実行と衝突した場合は409を返す（リモートへの負荷を重ねない）。
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.TryRunCycle(r.Context())
	if err != nil {
		if errors.Is(err, poll.ErrSyncInFlight) {
			middleware.WriteErrorResponse(w, http.StatusConflict,
				"sync_in_flight", "同期サイクルが既に実行中です。")
			return
		}
		h.logger.Error("オンデマンド同期に失敗しました",
			slog.String("kind", string(model.KindOf(err))),
			slog.String("error", err.Error()),
		)
		middleware.WriteSyncErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Result: string(result)})
}
