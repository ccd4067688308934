package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/otolog/internal/config"
	"github.com/hitoshi/otolog/internal/database"
	"github.com/hitoshi/otolog/internal/handler"
	"github.com/hitoshi/otolog/internal/logger"
	"github.com/hitoshi/otolog/internal/metrics"
	"github.com/hitoshi/otolog/internal/middleware"
	"github.com/hitoshi/otolog/internal/repository"
	"github.com/hitoshi/otolog/internal/scrape"
	"github.com/hitoshi/otolog/internal/security"
	"github.com/hitoshi/otolog/internal/songdata"
	"github.com/hitoshi/otolog/internal/worker/poll"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Duration("poll_interval", cfg.PollInterval),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// syncDeps は同期サイクルに必要な依存関係一式。
type syncDeps struct {
	db          *sql.DB
	playlogRepo *repository.PostgresPlaylogRepo
	scoreRepo   *repository.PostgresScoreRepo
	stateRepo   *repository.PostgresAppStateRepo
	songStore   *songdata.Store
	registry    *prometheus.Registry
	coordinator *poll.Coordinator
	scheduler   *poll.Scheduler
}

// buildSyncDeps はDB接続からスケジューラまでの依存関係をワイヤリングする。
func buildSyncDeps(cfg *config.Config) (*syncDeps, error) {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	playlogRepo := repository.NewPostgresPlaylogRepo(db)
	scoreRepo := repository.NewPostgresScoreRepo(db)
	stateRepo := repository.NewPostgresAppStateRepo(db)

	// 3. リモート取得クライアントの初期化
	ssrfGuard := security.NewSSRFGuard()
	client, err := scrape.NewClient(cfg, ssrfGuard, slog.Default())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build remote client: %w", err)
	}

	// 4. 曲メタデータストアの初期化（ファイル欠如は警告のみで続行する）
	songStore, err := songdata.NewStore(cfg.SongDataPath, slog.Default())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load song data: %w", err)
	}

	// 5. メトリクスと同期コーディネータの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	coordinator := poll.NewCoordinator(
		client, playlogRepo, scoreRepo, stateRepo, collector, slog.Default(),
	)
	scheduler := poll.NewScheduler(coordinator, slog.Default())

	return &syncDeps{
		db:          db,
		playlogRepo: playlogRepo,
		scoreRepo:   scoreRepo,
		stateRepo:   stateRepo,
		songStore:   songStore,
		registry:    registry,
		coordinator: coordinator,
		scheduler:   scheduler,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 同期スケジューラと曲メタデータの監視もバックグラウンドで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	deps, err := buildSyncDeps(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 同期スケジューラと曲メタデータの監視をバックグラウンドで起動
	go deps.scheduler.Start(ctx, cfg.PollInterval)
	go func() {
		if err := deps.songStore.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Error("曲メタデータの監視が停止しました", slog.String("error", err.Error()))
		}
	}()

	// ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimiterConfig(cfg.RateLimitGeneral),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		RateLimiter: rateLimiter,
		Logger:      slog.Default(),
		PlaylogRepo: deps.playlogRepo,
		ScoreRepo:   deps.scoreRepo,
		StateRepo:   deps.stateRepo,
		DB:          deps.db,
		SongIndex:   deps.songStore,
		SyncRunner:  deps.coordinator,
		Gatherer:    deps.registry,
	})

	// HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// HTTPサーバーを持たず、同期スケジューラのみを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	deps, err := buildSyncDeps(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("poll_interval", cfg.PollInterval),
	)

	// 曲メタデータの監視をバックグラウンドで起動
	go func() {
		if err := deps.songStore.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Error("曲メタデータの監視が停止しました", slog.String("error", err.Error()))
		}
	}()

	// 同期スケジューラをメインgoroutineで実行（ブロッキング）
	deps.scheduler.Start(ctx, cfg.PollInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
