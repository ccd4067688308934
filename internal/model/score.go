package model

import "time"

// ScoreRecord はチャート（曲 × 譜面種別 × 難易度カテゴリ）ごとの現在のベスト記録を表す。
// リモートは履歴ではなく現在値のみを報告するため、フルリスキャンのたびに
// スナップショット全体が置き換えられる（ラストライター勝ち）。
type ScoreRecord struct {
	Title        string
	ChartType    ChartType
	DiffCategory DifficultyCategory
	Level        string

	AchievementX10000 *int64
	Rank              string
	Fc                string
	Sync              string
	DxScore           *int64
	DxScoreMax        *int64

	// SourceIdx はリモートページ上の曲識別子。カバー画像の照合などに使われる。
	SourceIdx string
	ScrapedAt time.Time
}

// ScoreKey はScoreRecordの複合キー。
type ScoreKey struct {
	Title        string
	ChartType    ChartType
	DiffCategory DifficultyCategory
}

// Key はこのレコードの複合キーを返す。
func (s *ScoreRecord) Key() ScoreKey {
	return ScoreKey{Title: s.Title, ChartType: s.ChartType, DiffCategory: s.DiffCategory}
}
