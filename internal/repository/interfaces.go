// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/otolog/internal/model"
)

// PlaylogRepository はプレイ履歴台帳の永続化インターフェース。
// 台帳は挿入専用であり、既存行を更新する操作は提供しない。
type PlaylogRepository interface {
	// InsertBatch はプレイ履歴を1トランザクションで挿入する。
	// キー（played_at_unixtime）が衝突した行は丸ごと破棄される（先勝ち）。
	// 実際に挿入された行数を返す。
	InsertBatch(ctx context.Context, records []*model.PlaylogRecord) (int, error)

	// ListRecent は新しい順にプレイ履歴を取得する。
	ListRecent(ctx context.Context, limit int) ([]*model.PlaylogRecord, error)

	// ListByRange は[startUnix, endUnix)の範囲のプレイ履歴を新しい順に取得する。
	ListByRange(ctx context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error)

	// Count は台帳の総行数を返す。
	Count(ctx context.Context) (int, error)
}

// ScoreRepository はベストスコアスナップショットの永続化インターフェース。
type ScoreRepository interface {
	// ReplaceAll はスナップショット全体を1トランザクションで置き換える。
	// 全削除と全挿入が原子的に行われるため、途中失敗時は旧スナップショットが維持される。
	ReplaceAll(ctx context.Context, records []*model.ScoreRecord) error

	// FindByChart は指定チャートのスコアを取得する。見つからない場合はnilを返す。
	FindByChart(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (*model.ScoreRecord, error)

	// HasRecordedAchievement は指定チャートに達成率が記録済みかどうかを返す。
	// FirstPlayClassifierの照会に使用する。
	HasRecordedAchievement(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (bool, error)

	// ListRated は達成率が記録されている全スコアを取得する。
	ListRated(ctx context.Context) ([]*model.ScoreRecord, error)

	// SearchByTitle はタイトルの部分一致でスコアを検索する。
	SearchByTitle(ctx context.Context, query string) ([]*model.ScoreRecord, error)
}

// AppStateRepository はカーソル状態などのキー/バリュー永続化インターフェース。
type AppStateRepository interface {
	// Get は指定キーの値を取得する。見つからない場合はnilを返す。
	Get(ctx context.Context, key string) (*model.CursorValue, error)

	// GetInt は指定キーの値を整数として取得する。見つからない場合はnilを返す。
	GetInt(ctx context.Context, key string) (*int64, error)

	// Set は値と更新時刻を原子的に書き込む（キーごとに1行）。
	Set(ctx context.Context, key, value string, updatedAt time.Time) error

	// SetInt は整数値を書き込む。
	SetInt(ctx context.Context, key string, value int64, updatedAt time.Time) error
}
