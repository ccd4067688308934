package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/repository"
)

// defaultRecentLimit はプレイ履歴一覧の1回の取得件数（デフォルト）。
const defaultRecentLimit = 50

// maxRecentLimit はプレイ履歴一覧の1回の取得件数の上限。
const maxRecentLimit = 200

// PlaylogHandler はプレイ履歴台帳のHTTPハンドラー。
type PlaylogHandler struct {
	playlogRepo repository.PlaylogRepository
	logger      *slog.Logger

	// now はテストで時刻を差し替えるためのフック。
	now func() time.Time
}

// NewPlaylogHandler はPlaylogHandlerを生成する。
func NewPlaylogHandler(playlogRepo repository.PlaylogRepository, logger *slog.Logger) *PlaylogHandler {
	return &PlaylogHandler{
		playlogRepo: playlogRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// playlogResponse はプレイ履歴1件のレスポンス。
type playlogResponse struct {
	PlayedAtUnix       int64    `json:"played_at_unixtime"`
	PlayedAt           string   `json:"played_at"`
	Track              *int64   `json:"track"`
	CreditPlayCount    *int64   `json:"credit_play_count"`
	Title              string   `json:"title"`
	ChartType          string   `json:"chart_type"`
	DiffCategory       string   `json:"diff_category"`
	Level              string   `json:"level"`
	AchievementPercent *float64 `json:"achievement_percent"`
	NewRecord          bool     `json:"new_record"`
	FirstPlay          bool     `json:"first_play"`
	ScoreRank          string   `json:"score_rank"`
	Fc                 string   `json:"fc"`
	Sync               string   `json:"sync"`
	DxScore            *int64   `json:"dx_score"`
	DxScoreMax         *int64   `json:"dx_score_max"`
}

// playlogListResponse はプレイ履歴一覧のレスポンス。
type playlogListResponse struct {
	Playlogs []playlogResponse `json:"playlogs"`
	Count    int               `json:"count"`
}

func toPlaylogResponse(rec *model.PlaylogRecord) playlogResponse {
	return playlogResponse{
		PlayedAtUnix:       rec.PlayedAtUnix,
		PlayedAt:           rec.PlayedAt,
		Track:              rec.Track,
		CreditPlayCount:    rec.CreditPlayCount,
		Title:              rec.Title,
		ChartType:          string(rec.ChartType),
		DiffCategory:       string(rec.DiffCategory),
		Level:              rec.Level,
		AchievementPercent: achievementPercent(rec.AchievementX10000),
		NewRecord:          rec.NewRecord,
		FirstPlay:          rec.FirstPlay,
		ScoreRank:          rec.ScoreRank,
		Fc:                 rec.Fc,
		Sync:               rec.Sync,
		DxScore:            rec.DxScore,
		DxScoreMax:         rec.DxScoreMax,
	}
}

func toPlaylogListResponse(records []*model.PlaylogRecord) playlogListResponse {
	resp := playlogListResponse{Playlogs: make([]playlogResponse, 0, len(records))}
	for _, rec := range records {
		resp.Playlogs = append(resp.Playlogs, toPlaylogResponse(rec))
	}
	resp.Count = len(resp.Playlogs)
	return resp
}

// ListRecent はプレイ履歴を新しい順に取得する。
// GET /api/recent?limit=50
func (h *PlaylogHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				"invalid_limit", "limitには正の整数を指定してください。")
			return
		}
		if n > maxRecentLimit {
			n = maxRecentLimit
		}
		limit = n
	}

	records, err := h.playlogRepo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("プレイ履歴の取得に失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, toPlaylogListResponse(records))
}

// dayWindow はtを含むローカル日の0:00からt直後までの範囲を返す。
func dayWindow(t time.Time) (startUnix, endUnix int64) {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Unix(), t.Unix() + 1
}

// ListToday は1日分のプレイ履歴を取得する。
// GET /api/today は今日（ローカル時0:00から現在まで）、
// GET /api/today?date=2026-01-23 は指定日のローカル時0:00から24時間分を返す。
func (h *PlaylogHandler) ListToday(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	startUnix, endUnix := dayWindow(now)

	if s := r.URL.Query().Get("date"); s != "" {
		day, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				"invalid_date", "dateにはYYYY-MM-DD形式の日付を指定してください。")
			return
		}
		startUnix = day.Unix()
		endUnix = day.AddDate(0, 0, 1).Unix()
	}

	records, err := h.playlogRepo.ListByRange(r.Context(), startUnix, endUnix)
	if err != nil {
		h.logger.Error("プレイ履歴の取得に失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, toPlaylogListResponse(records))
}
