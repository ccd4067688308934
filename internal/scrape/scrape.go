// Package scrape はリモートのプレイデータサービスへのアクセスを提供する。
// 認証セッションの管理、HTMLページの取得、goqueryによるパースを担当し、
// 同期ワーカーにはRemoteSourceインターフェースとして公開される。
package scrape

import (
	"context"

	"github.com/hitoshi/otolog/internal/model"
)

// RemoteSource はリモートサービスからの取得操作のインターフェース。
// 実装は認証・リトライ・メンテナンス時間帯の回避をすべて内側で処理し、
// 呼び出し側にはパース済みのドメインモデルだけを返す。
type RemoteSource interface {
	// FetchPlayerSummary はプレイヤーデータページを取得してサマリーを返す。
	FetchPlayerSummary(ctx context.Context) (*model.PlayerSummary, error)

	// FetchRecentPlays はプレイ履歴ページを取得し、新しい順で最大50件を返す。
	FetchRecentPlays(ctx context.Context) ([]model.PlayEntry, error)

	// FetchScoreList は指定した難易度階層（0=BASIC 〜 4=Re:MASTER）の
	// スコア一覧ページを取得して返す。
	FetchScoreList(ctx context.Context, diffIndex int) ([]model.ScoreRecord, error)
}
