package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/otolog/internal/model"
)

// Scheduler は同期サイクルを一定間隔で実行する。
type Scheduler struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(coordinator *Coordinator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("同期スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("同期スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	result, err := s.coordinator.RunCycle(ctx)
	if err != nil {
		s.logger.Error("同期サイクルの実行に失敗しました",
			slog.String("kind", string(model.KindOf(err))),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("同期サイクルを終了しました", slog.String("result", string(result)))
}
