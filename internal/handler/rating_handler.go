package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/rating"
	"github.com/hitoshi/otolog/internal/repository"
	"github.com/hitoshi/otolog/internal/songdata"
)

// SongIndexProvider は現在の曲メタデータインデックスを提供する。
// *songdata.Storeが実装する。
type SongIndexProvider interface {
	Current() *songdata.Index
}

// RatingHandler はレーティング構成のHTTPハンドラー。
// スナップショット上の全ベスト記録から構成をリクエスト時に再計算する。
type RatingHandler struct {
	scoreRepo repository.ScoreRepository
	songIndex SongIndexProvider
	logger    *slog.Logger
}

// NewRatingHandler はRatingHandlerを生成する。
func NewRatingHandler(scoreRepo repository.ScoreRepository, songIndex SongIndexProvider, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		scoreRepo: scoreRepo,
		songIndex: songIndex,
		logger:    logger,
	}
}

// GetRating はレーティング構成を取得する。
// GET /api/rating
// 曲メタデータが読み込まれていない場合も欠損数を含めて応答する。
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	scores, err := h.scoreRepo.ListRated(r.Context())
	if err != nil {
		h.logger.Error("スコアの取得に失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	set := rating.BuildRatedSet(scores, h.songIndex.Current())
	writeJSON(w, http.StatusOK, set)
}
