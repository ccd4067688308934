package model

import "time"

// PlayerSummary はプレイヤーデータページから取得したサマリーを表す。
// TotalPlayCountはリモート側の単調増加カウンターであり、差分検出の基準となる。
type PlayerSummary struct {
	DisplayName             string
	Rating                  int
	CurrentVersionPlayCount int
	TotalPlayCount          int
}

// CursorValue はapp_stateテーブルの1行（値と更新時刻）を表す。
type CursorValue struct {
	Value     string
	UpdatedAt time.Time
}

// SyncResult は同期サイクルの結果を表す。
type SyncResult string

const (
	// SyncResultSkipped はメンテナンス時間帯またはプレイ回数変化なしでサイクルを終えたことを示す。
	SyncResultSkipped SyncResult = "skipped"
	// SyncResultSeeded は初回同期でストアを初期投入したことを示す（通知対象ではない）。
	SyncResultSeeded SyncResult = "seeded"
	// SyncResultSynced は新規プレイを検出してフルリスキャンを完了したことを示す。
	SyncResultSynced SyncResult = "synced"
)
