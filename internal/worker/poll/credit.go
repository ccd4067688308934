// Package poll は同期サイクルのバックグラウンド実行を提供する。
// コーディネータ（状態機械）、クレジット分割、初プレイ判定、スケジューラを含む。
package poll

import "github.com/hitoshi/otolog/internal/model"

// SegmentCredits はプレイ履歴ウィンドウをクレジット単位に分割し、
// 各エントリにクレジット時点の累計プレイ回数を付与する。
//
// エントリは新しい順で渡される。走査して最後（最も古い側）のトラック1を
// 直近の完結したクレジットの先頭とみなし、それより古いエントリは
// 不完全なクレジットの断片として捨てる。トラック1が1件もない場合は
// ウィンドウが完全なクレジットを捉えていないため、全体を破棄して空を返す。
//
// 累計プレイ回数はtotalPlayCountから始まり、トラック1を跨ぐたびに1ずつ
// 減っていく。これによりクレジットidを持たないソースでも、同一ウィンドウ内の
// 複数クレジットをカウンタ値で区別できる。
// トラック位置が取得できなかったエントリは現在のカウンタ値を受け取るが、
// カウンタを進めることはない。
func SegmentCredits(entries []model.PlayEntry, totalPlayCount int64) []model.PlayEntry {
	lastTrackOne := -1
	for i, e := range entries {
		if e.Track != nil && *e.Track == 1 {
			lastTrackOne = i
		}
	}
	if lastTrackOne < 0 {
		return nil
	}

	segmented := entries[:lastTrackOne+1]

	var seen int64
	for i := range segmented {
		count := totalPlayCount - seen
		if count < 0 {
			count = 0
		}
		segmented[i].CreditPlayCount = &count

		if segmented[i].Track != nil && *segmented[i].Track == 1 {
			seen++
		}
	}

	return segmented
}
