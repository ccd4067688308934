package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/otolog/internal/metrics"
	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/repository"
	"github.com/hitoshi/otolog/internal/scrape"
)

// カーソル状態のキー。
const (
	StateKeyTotalPlayCount = "player.total_play_count"
	StateKeyRating         = "player.rating"
	StateKeyDisplayName    = "player.display_name"
)

// ErrSyncInFlight は同期サイクルが既に実行中であることを示す。
// オンデマンド実行が定期実行と衝突した場合に返される。
var ErrSyncInFlight = errors.New("同期サイクルが既に実行中です")

// Coordinator は同期サイクルの状態機械を実行する。
//
// サイクルの流れ: プレイヤーサマリーを取得し、保存済みの累計プレイ回数と
// 比較して変化がなければスキップ、初回なら初期投入、変化があれば
// フルリスキャンを行う。いずれの場合も最後にカーソル状態を書き戻す
// （プレイ回数が変わらなくてもレーティングは変動しうるため）。
//
// フルリスキャンはシステム全体で同時に1つしか実行されない。
// 定期実行はガードを待ち、オンデマンド実行は実行中なら即座に引き返す。
type Coordinator struct {
	source      scrape.RemoteSource
	playlogRepo repository.PlaylogRepository
	scoreRepo   repository.ScoreRepository
	stateRepo   repository.AppStateRepository
	collector   metrics.MetricsCollector
	logger      *slog.Logger

	// now はテストで時刻を差し替えるためのフック。
	now func() time.Time

	// mu はFullRescanのクリティカルセクションを直列化する。
	mu sync.Mutex
}

// NewCoordinator はCoordinatorの新しいインスタンスを生成する。
func NewCoordinator(
	source scrape.RemoteSource,
	playlogRepo repository.PlaylogRepository,
	scoreRepo repository.ScoreRepository,
	stateRepo repository.AppStateRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		source:      source,
		playlogRepo: playlogRepo,
		scoreRepo:   scoreRepo,
		stateRepo:   stateRepo,
		collector:   collector,
		logger:      logger,
		now:         time.Now,
	}
}

// RunCycle は同期サイクルを1回実行する。実行中のサイクルがあれば待つ。
// 定期実行（スケジューラ）から呼ばれる。
func (c *Coordinator) RunCycle(ctx context.Context) (model.SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runCycleLocked(ctx)
}

// TryRunCycle は同期サイクルを1回実行する。実行中のサイクルがあれば
// 待たずにErrSyncInFlightを返す。オンデマンド実行から呼ばれる。
func (c *Coordinator) TryRunCycle(ctx context.Context) (model.SyncResult, error) {
	if !c.mu.TryLock() {
		return "", ErrSyncInFlight
	}
	defer c.mu.Unlock()
	return c.runCycleLocked(ctx)
}

func (c *Coordinator) runCycleLocked(ctx context.Context) (model.SyncResult, error) {
	start := c.now()
	result, err := c.cycle(ctx)
	c.collector.RecordSyncLatency(time.Since(start))

	if err != nil {
		// メンテナンス時間帯はエラーではなくスキップとして扱う
		if model.IsMaintenance(err) {
			c.logger.Info("メンテナンス時間帯のため同期をスキップします")
			c.collector.RecordSyncCycle(string(model.SyncResultSkipped))
			return model.SyncResultSkipped, nil
		}
		c.collector.RecordSyncError(string(model.KindOf(err)))
		return "", err
	}

	c.collector.RecordSyncCycle(string(result))
	return result, nil
}

func (c *Coordinator) cycle(ctx context.Context) (model.SyncResult, error) {
	summary, err := c.source.FetchPlayerSummary(ctx)
	if err != nil {
		return "", fmt.Errorf("プレイヤーサマリーの取得に失敗しました: %w", err)
	}

	storedTotal, err := c.stateRepo.GetInt(ctx, StateKeyTotalPlayCount)
	if err != nil {
		return "", model.NewStoreError("保存済みプレイ回数の読み込みに失敗しました", err)
	}
	firstRun := storedTotal == nil

	if !firstRun && *storedTotal == int64(summary.TotalPlayCount) {
		c.logger.Info("プレイ回数に変化がないため同期をスキップします",
			slog.Int("total_play_count", summary.TotalPlayCount))
		if err := c.persistCursor(ctx, summary); err != nil {
			return "", err
		}
		return model.SyncResultSkipped, nil
	}

	if err := c.fullRescan(ctx, summary, firstRun); err != nil {
		return "", err
	}

	if err := c.persistCursor(ctx, summary); err != nil {
		return "", err
	}

	if firstRun {
		c.logger.Info("初回同期でストアを初期投入しました",
			slog.Int("total_play_count", summary.TotalPlayCount))
		return model.SyncResultSeeded, nil
	}
	c.logger.Info("新規プレイを検出しフルリスキャンを完了しました",
		slog.Int("total_play_count", summary.TotalPlayCount))
	return model.SyncResultSynced, nil
}

// fullRescan はプレイ履歴とスコアスナップショットを取り直す。
//
// 順序が重要: 初プレイ判定はリスキャン前のスナップショットに対して行う必要が
// あるため、プレイ履歴の取得と判定を先に済ませる。書き込みはスコア置き換えの
// トランザクションが先にコミットされ、その後に台帳への挿入が走る。後者が
// 失敗しても前者はロールバックされない。
func (c *Coordinator) fullRescan(ctx context.Context, summary *model.PlayerSummary, firstRun bool) error {
	entries, err := c.source.FetchRecentPlays(ctx)
	if err != nil {
		return fmt.Errorf("プレイ履歴の取得に失敗しました: %w", err)
	}

	entries = SegmentCredits(entries, int64(summary.TotalPlayCount))
	if len(entries) == 0 {
		c.logger.Warn("取得ウィンドウに完結したクレジットが含まれていません")
	}

	if !firstRun {
		if err := ClassifyFirstPlays(ctx, c.scoreRepo, entries); err != nil {
			return err
		}
	}

	var scores []*model.ScoreRecord
	for diff := 0; diff <= 4; diff++ {
		recs, err := c.source.FetchScoreList(ctx, diff)
		if err != nil {
			return fmt.Errorf("スコア一覧の取得に失敗しました（diff=%d）: %w", diff, err)
		}
		for i := range recs {
			scores = append(scores, &recs[i])
		}
	}

	if err := c.scoreRepo.ReplaceAll(ctx, scores); err != nil {
		return model.NewStoreError("スコアスナップショットの置き換えに失敗しました", err)
	}
	c.collector.RecordScoresReplaced(len(scores))

	records := buildPlaylogRecords(entries, c.now())
	inserted, err := c.playlogRepo.InsertBatch(ctx, records)
	if err != nil {
		return model.NewStoreError("プレイ履歴台帳への挿入に失敗しました", err)
	}
	c.collector.RecordPlaylogsInserted(inserted)

	c.logger.Info("フルリスキャンが完了しました",
		slog.Int("scores", len(scores)),
		slog.Int("playlog_candidates", len(records)),
		slog.Int("playlog_inserted", inserted))
	return nil
}

// persistCursor はカーソル状態を無条件に書き戻す。
// スキップしたサイクルでも実行される（レーティングはプレイ回数と独立に変動する）。
func (c *Coordinator) persistCursor(ctx context.Context, summary *model.PlayerSummary) error {
	now := c.now()
	if err := c.stateRepo.SetInt(ctx, StateKeyTotalPlayCount, int64(summary.TotalPlayCount), now); err != nil {
		return model.NewStoreError("プレイ回数の保存に失敗しました", err)
	}
	if err := c.stateRepo.SetInt(ctx, StateKeyRating, int64(summary.Rating), now); err != nil {
		return model.NewStoreError("レーティングの保存に失敗しました", err)
	}
	if err := c.stateRepo.Set(ctx, StateKeyDisplayName, summary.DisplayName, now); err != nil {
		return model.NewStoreError("プレイヤー名の保存に失敗しました", err)
	}
	return nil
}

// buildPlaylogRecords はパース済みエントリを台帳レコードへ変換する。
// Unix時刻を導出できなかったエントリは不変キーを持てないため保存しない。
func buildPlaylogRecords(entries []model.PlayEntry, scrapedAt time.Time) []*model.PlaylogRecord {
	var records []*model.PlaylogRecord
	for _, e := range entries {
		if e.PlayedAtUnix == nil {
			continue
		}

		var track *int64
		if e.Track != nil {
			v := int64(*e.Track)
			track = &v
		}

		records = append(records, &model.PlaylogRecord{
			PlayedAtUnix:      *e.PlayedAtUnix,
			PlayedAt:          e.PlayedAt,
			Track:             track,
			CreditPlayCount:   e.CreditPlayCount,
			Title:             e.Title,
			ChartType:         e.ChartType,
			DiffCategory:      e.DiffCategory,
			Level:             e.Level,
			AchievementX10000: e.AchievementX10000,
			NewRecord:         e.NewRecord,
			FirstPlay:         e.FirstPlay,
			ScoreRank:         e.ScoreRank,
			Fc:                e.Fc,
			Sync:              e.Sync,
			DxScore:           e.DxScore,
			DxScoreMax:        e.DxScoreMax,
			ScrapedAt:         scrapedAt,
		})
	}
	return records
}
