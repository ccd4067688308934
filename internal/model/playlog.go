// Package model はドメインモデルを定義する。
package model

import "time"

// ChartType は譜面の種別（スタンダード/でらっくす）を表す。
type ChartType string

const (
	// ChartTypeStd はスタンダード譜面。
	ChartTypeStd ChartType = "STD"
	// ChartTypeDx はでらっくす譜面。
	ChartTypeDx ChartType = "DX"
)

// DifficultyCategory は難易度カテゴリを表す。
// 一部のページでは省略されるため、PlayEntryでは空文字が「不明」を意味する。
type DifficultyCategory string

const (
	DifficultyBasic    DifficultyCategory = "BASIC"
	DifficultyAdvanced DifficultyCategory = "ADVANCED"
	DifficultyExpert   DifficultyCategory = "EXPERT"
	DifficultyMaster   DifficultyCategory = "MASTER"
	DifficultyReMaster DifficultyCategory = "Re:MASTER"
)

// PlayEntry はリモートのプレイ履歴ページから取得した1件のプレイを表す。
// パーサー出力の一時データであり、1回の同期サイクル内でのみ存在する。
// CreditPlayCountとFirstPlayは同期処理中にCreditSegmenter/FirstPlayClassifierが付与する。
type PlayEntry struct {
	// PlayedAtUnix はプレイ日時ラベルから導出したUnix時刻。
	// 台帳の不変キーとなる。導出できない場合はnil（そのエントリは保存されない）。
	PlayedAtUnix *int64
	// PlayedAt は表示上のプレイ日時ラベル（例: "2026/01/23 12:34"）。
	PlayedAt string
	// Track はクレジット内のトラック位置（1..4）。取得できない場合はnil。
	Track *int

	Title        string
	ChartType    ChartType
	DiffCategory DifficultyCategory // 空文字は不明
	Level        string             // 表示レベルラベル（例: "13+"）。空文字は不明

	// AchievementX10000 は達成率（%）を1万倍した固定小数点値。
	// 浮動小数点の誤差を避けるためパース時点で整数化する。
	AchievementX10000 *int64

	// NewRecord は「自己ベスト更新」マークが付いていたかどうか。
	NewRecord  bool
	ScoreRank  string
	Fc         string
	Sync       string
	DxScore    *int64
	DxScoreMax *int64

	// CreditPlayCount はこのエントリが属するクレジット時点の累計プレイ回数。
	// CreditSegmenterが付与する。
	CreditPlayCount *int64
	// FirstPlay はこの難易度での初クリアかどうか。FirstPlayClassifierが付与する。
	FirstPlay bool
}

// PlaylogRecord は永続化されたプレイ履歴の1行を表す。
// played_at_unixtimeをキーとする挿入専用の台帳であり、一度書き込まれた行は
// 以降の同期で一切更新されない。
type PlaylogRecord struct {
	// PlayedAtUnix は不変の一意キー。
	PlayedAtUnix    int64
	PlayedAt        string
	Track           *int64
	CreditPlayCount *int64

	Title        string
	ChartType    ChartType
	DiffCategory DifficultyCategory
	Level        string

	AchievementX10000 *int64
	NewRecord         bool
	FirstPlay         bool
	ScoreRank         string
	Fc                string
	Sync              string
	DxScore           *int64
	DxScoreMax        *int64

	// ScrapedAt はこの行を取得した同期サイクルの時刻（来歴情報）。
	ScrapedAt time.Time
}

// IsApLike はクリア状態がAP相当（AP / AP+）かどうかを返す。
// レーティング計算のパーフェクトボーナス判定に使用する。
func IsApLike(fc string) bool {
	return fc == "AP" || fc == "AP+"
}
