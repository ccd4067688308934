package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/repository"
)

// ScoreHandler はベストスコアスナップショットのHTTPハンドラー。
type ScoreHandler struct {
	scoreRepo repository.ScoreRepository
	logger    *slog.Logger
}

// NewScoreHandler はScoreHandlerを生成する。
func NewScoreHandler(scoreRepo repository.ScoreRepository, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scoreRepo: scoreRepo, logger: logger}
}

// scoreResponse はベストスコア1件のレスポンス。
type scoreResponse struct {
	Title              string   `json:"title"`
	ChartType          string   `json:"chart_type"`
	DiffCategory       string   `json:"diff_category"`
	Level              string   `json:"level"`
	AchievementPercent *float64 `json:"achievement_percent"`
	Rank               string   `json:"rank"`
	Fc                 string   `json:"fc"`
	Sync               string   `json:"sync"`
	DxScore            *int64   `json:"dx_score"`
	DxScoreMax         *int64   `json:"dx_score_max"`
}

// scoreListResponse はベストスコア一覧のレスポンス。
type scoreListResponse struct {
	Scores []scoreResponse `json:"scores"`
	Count  int             `json:"count"`
}

func toScoreResponse(rec *model.ScoreRecord) scoreResponse {
	return scoreResponse{
		Title:              rec.Title,
		ChartType:          string(rec.ChartType),
		DiffCategory:       string(rec.DiffCategory),
		Level:              rec.Level,
		AchievementPercent: achievementPercent(rec.AchievementX10000),
		Rank:               rec.Rank,
		Fc:                 rec.Fc,
		Sync:               rec.Sync,
		DxScore:            rec.DxScore,
		DxScoreMax:         rec.DxScoreMax,
	}
}

// SearchScores はベストスコアの一覧を返す。
// GET /api/scores は記録済みの全スコア、GET /api/scores?q=曲名 は
// タイトルの部分一致で絞り込んだスコアを返す。
func (h *ScoreHandler) SearchScores(w http.ResponseWriter, r *http.Request) {
	var records []*model.ScoreRecord
	var err error

	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		records, err = h.scoreRepo.SearchByTitle(r.Context(), query)
	} else {
		records, err = h.scoreRepo.ListRated(r.Context())
	}
	if err != nil {
		h.logger.Error("スコアの取得に失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	resp := scoreListResponse{Scores: make([]scoreResponse, 0, len(records))}
	for _, rec := range records {
		resp.Scores = append(resp.Scores, toScoreResponse(rec))
	}
	resp.Count = len(resp.Scores)

	writeJSON(w, http.StatusOK, resp)
}

// GetChart は譜面キー（曲名・譜面種別・難易度）の完全一致でベストスコアを1件取得する。
// GET /api/scores/chart?title=曲名&type=DX&diff=MASTER
func (h *ScoreHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	title := strings.TrimSpace(q.Get("title"))
	if title == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			"missing_title", "曲名titleを指定してください。")
		return
	}

	chartType, ok := parseChartTypeParam(q.Get("type"))
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			"invalid_chart_type", "typeにはSTDまたはDXを指定してください。")
		return
	}

	diffCategory, ok := parseDiffCategoryParam(q.Get("diff"))
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			"invalid_diff_category", "diffにはBASIC/ADVANCED/EXPERT/MASTER/REMASTERのいずれかを指定してください。")
		return
	}

	rec, err := h.scoreRepo.FindByChart(r.Context(), title, chartType, diffCategory)
	if err != nil {
		h.logger.Error("スコアの取得に失敗しました", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if rec == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound,
			"chart_not_found", "指定した譜面のスコアはまだ記録されていません。")
		return
	}

	writeJSON(w, http.StatusOK, toScoreResponse(rec))
}

func parseChartTypeParam(s string) (model.ChartType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STD":
		return model.ChartTypeStd, true
	case "DX":
		return model.ChartTypeDx, true
	}
	return "", false
}

func parseDiffCategoryParam(s string) (model.DifficultyCategory, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BASIC":
		return model.DifficultyBasic, true
	case "ADVANCED":
		return model.DifficultyAdvanced, true
	case "EXPERT":
		return model.DifficultyExpert, true
	case "MASTER":
		return model.DifficultyMaster, true
	case "REMASTER", "RE:MASTER":
		return model.DifficultyReMaster, true
	}
	return "", false
}
