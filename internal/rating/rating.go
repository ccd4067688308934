// Package rating はレーティング計算の純粋関数群を提供する。
// 係数テーブルは第3世代のもので、達成率の上限は100.5%。
package rating

import (
	"math"
	"strconv"
	"strings"
)

// AchievementCap は計算に使う達成率の上限（%）。
const AchievementCap = 100.5

// Coefficient は達成率（%）に対応する係数を返す。
// 達成率は上限でクランプされ、単調増加の階段テーブルで[0.0, 22.4]に写される。
func Coefficient(achievementPercent float64) float64 {
	a := math.Min(achievementPercent, AchievementCap)

	switch {
	case a >= 100.5:
		return 22.4
	case a >= 100.4999:
		return 22.2
	case a >= 100.0:
		return 21.6
	case a >= 99.9999:
		return 21.4
	case a >= 99.5:
		return 21.1
	case a >= 99.0:
		return 20.8
	case a >= 98.9999:
		return 20.6
	case a >= 98.0:
		return 20.3
	case a >= 97.0:
		return 20.0
	case a >= 96.9999:
		return 17.6
	case a >= 94.0:
		return 16.8
	case a >= 90.0:
		return 15.2
	case a >= 80.0:
		return 13.6
	case a >= 79.9999:
		return 12.8
	case a >= 75.0:
		return 12.0
	case a >= 70.0:
		return 11.2
	case a >= 60.0:
		return 9.6
	case a >= 50.0:
		return 8.0
	case a >= 40.0:
		return 6.4
	case a >= 30.0:
		return 4.8
	case a >= 20.0:
		return 3.2
	case a >= 10.0:
		return 1.6
	}
	return 0.0
}

// Points は1譜面のレーティングポイントを計算する。
// floor(係数 × 譜面定数 × 達成率 / 100)。非有限・負の結果は0にクランプし、
// パーフェクトボーナス（AP / AP+）は切り捨て後に+1する。
func Points(internalLevel, achievementPercent float64, perfectBonus bool) int {
	coef := Coefficient(achievementPercent)
	ach := math.Min(achievementPercent, AchievementCap)
	base := math.Floor(coef * internalLevel * ach / 100.0)

	points := 0
	if !math.IsInf(base, 0) && !math.IsNaN(base) && base > 0 {
		points = int(base)
	}
	if perfectBonus {
		points++
	}
	return points
}

// FallbackInternalLevel は表示レベルラベルから暫定の譜面定数を導出する。
// "+"付きは数値部+0.6（例: "13+" → 13.6）、それ以外は数値そのまま。
// 空文字・"N/A"・数値でないラベルはfalseを返す（その譜面はレーティング対象外）。
func FallbackInternalLevel(level string) (float64, bool) {
	level = strings.TrimSpace(level)
	if level == "" || level == "N/A" {
		return 0, false
	}

	hasPlus := strings.HasSuffix(level, "+")
	numeric := strings.TrimSpace(strings.TrimSuffix(level, "+"))

	base, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	if hasPlus {
		return base + 0.6, true
	}
	return base, true
}
