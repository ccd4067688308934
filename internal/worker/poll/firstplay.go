package poll

import (
	"context"

	"github.com/hitoshi/otolog/internal/model"
)

// ScoreSnapshotChecker は初プレイ判定に必要なスナップショット照会のインターフェース。
type ScoreSnapshotChecker interface {
	HasRecordedAchievement(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (bool, error)
}

// ClassifyFirstPlays は各エントリがその難易度での初プレイかどうかを付与する。
// 判定はリスキャン前のスコアスナップショットに対して行う必要がある
// （リスキャン後では今回のプレイ自体が記録に含まれてしまう）。
//
// 自己ベスト更新マークのないエントリと難易度カテゴリ不明のエントリは
// 判定対象外（FirstPlay=false のまま）。初回同期ではスナップショットが
// 存在しないため、呼び出し側はこの関数自体をスキップする。
func ClassifyFirstPlays(ctx context.Context, checker ScoreSnapshotChecker, entries []model.PlayEntry) error {
	for i := range entries {
		e := &entries[i]
		if !e.NewRecord {
			continue
		}
		if e.DiffCategory == "" {
			continue
		}

		recorded, err := checker.HasRecordedAchievement(ctx, e.Title, e.ChartType, e.DiffCategory)
		if err != nil {
			return model.NewStoreError("初プレイ判定の照会に失敗しました", err)
		}
		if !recorded {
			e.FirstPlay = true
		}
	}
	return nil
}
