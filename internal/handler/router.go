package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/otolog/internal/metrics"
	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/repository"
)

// DBPinger はデータベースの疎通確認インターフェース。*sql.DBが実装する。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger

	// ストア
	PlaylogRepo repository.PlaylogRepository
	ScoreRepo   repository.ScoreRepository
	StateRepo   repository.AppStateRepository
	DB          DBPinger

	// 曲メタデータ
	SongIndex SongIndexProvider

	// 同期
	SyncRunner SyncRunner

	// メトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	playerHandler := NewPlayerHandler(deps.StateRepo, deps.Logger)
	playlogHandler := NewPlaylogHandler(deps.PlaylogRepo, deps.Logger)
	scoreHandler := NewScoreHandler(deps.ScoreRepo, deps.Logger)
	ratingHandler := NewRatingHandler(deps.ScoreRepo, deps.SongIndex, deps.Logger)
	syncHandler := NewSyncHandler(deps.SyncRunner, deps.Logger)

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/health", healthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- APIエンドポイント ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api", func(r chi.Router) {
			r.Get("/player", playerHandler.GetPlayer)
			r.Get("/recent", playlogHandler.ListRecent)
			r.Get("/today", playlogHandler.ListToday)
			r.Get("/scores", scoreHandler.SearchScores)
			r.Get("/scores/chart", scoreHandler.GetChart)
			r.Get("/rating", ratingHandler.GetRating)

			// POST /api/sync - オンデマンド同期（専用レート制限を追加）
			r.With(deps.RateLimiter.SyncTriggerMiddleware()).Post("/sync", syncHandler.TriggerSync)
		})
	})

	return r
}

// healthHandler はデータベースの疎通を確認して200/503を返す。
func healthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
