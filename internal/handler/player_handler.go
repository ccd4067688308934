// Package handler はAPIのHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/repository"
	"github.com/hitoshi/otolog/internal/worker/poll"
)

// PlayerHandler はプレイヤー情報のHTTPハンドラー。
// 同期サイクルが書き戻したカーソル状態をそのまま返す。
type PlayerHandler struct {
	stateRepo repository.AppStateRepository
	logger    *slog.Logger
}

// NewPlayerHandler はPlayerHandlerを生成する。
func NewPlayerHandler(stateRepo repository.AppStateRepository, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{stateRepo: stateRepo, logger: logger}
}

// playerResponse はプレイヤー情報のレスポンス。
type playerResponse struct {
	DisplayName    string     `json:"display_name"`
	Rating         int64      `json:"rating"`
	TotalPlayCount int64      `json:"total_play_count"`
	SyncedAt       *time.Time `json:"synced_at,omitempty"`
}

// GetPlayer はプレイヤー情報を取得する。
// GET /api/player
// まだ一度も同期していない場合は404を返す。
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.stateRepo.GetInt(ctx, poll.StateKeyTotalPlayCount)
	if err != nil {
		h.logger.Error("カーソル状態の読み込みに失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if total == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound,
			"not_synced", "まだ同期が完了していません。")
		return
	}

	rating, err := h.stateRepo.GetInt(ctx, poll.StateKeyRating)
	if err != nil {
		h.logger.Error("カーソル状態の読み込みに失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	resp := playerResponse{TotalPlayCount: *total}
	if rating != nil {
		resp.Rating = *rating
	}

	if name, err := h.stateRepo.Get(ctx, poll.StateKeyDisplayName); err == nil && name != nil {
		resp.DisplayName = name.Value
		resp.SyncedAt = &name.UpdatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}
