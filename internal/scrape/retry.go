package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/otolog/internal/model"
)

// retryBaseDelay はリトライ間隔の初期値。試行ごとに2倍になる。
const retryBaseDelay = 1 * time.Second

// withRetry はfnを最大attempts回試行する。
// リトライ対象は通信エラー（transport）のみで、認証失効・メンテナンス・
// パース失敗は即座に呼び出し元へ返す。
func withRetry(ctx context.Context, logger *slog.Logger, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := retryBaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if model.KindOf(err) != model.ErrKindTransport {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.Warn("通信エラーのためリトライします",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
