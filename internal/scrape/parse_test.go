package scrape

import (
	"testing"

	"github.com/hitoshi/otolog/internal/model"
)

// TestParseAchievementX10000 は達成率表示を固定小数点整数に変換できることを検証する。
func TestParseAchievementX10000(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		isNil bool
	}{
		{name: "小数4桁", input: "99.8056%", want: 998056},
		{name: "小数4桁（100超）", input: "100.5000%", want: 1005000},
		{name: "小数1桁は0埋めされる", input: "98.5%", want: 985000},
		{name: "整数のみ", input: "97%", want: 970000},
		{name: "前後の空白は無視される", input: "  99.8056%\n", want: 998056},
		{name: "小数5桁以上は切り捨てられる", input: "99.80567%", want: 998056},
		{name: "パーセント記号なしはnil", input: "99.8056", isNil: true},
		{name: "数値でない文字列はnil", input: "N/A%", isNil: true},
		{name: "空文字はnil", input: "", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAchievementX10000(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("nilが返るべきですが %d が返りました", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("%d が返るべきですがnilが返りました", tt.want)
			}
			if *got != tt.want {
				t.Errorf("達成率の変換結果が異なります: got=%d want=%d", *got, tt.want)
			}
		})
	}
}

// TestParseDxScorePair はでらっくすスコアの分数表記をパースできることを検証する。
func TestParseDxScorePair(t *testing.T) {
	cur, max := parseDxScorePair("1,234 / 1,500")
	if cur == nil || max == nil {
		t.Fatal("分数表記がパースできるべきです")
	}
	if *cur != 1234 || *max != 1500 {
		t.Errorf("でらっくすスコアが異なります: got=%d/%d want=1234/1500", *cur, *max)
	}
}

// TestParseDxScorePair_NotFraction は分数でないテキストにnilを返すことを検証する。
func TestParseDxScorePair_NotFraction(t *testing.T) {
	cur, max := parseDxScorePair("99.8056%")
	if cur != nil || max != nil {
		t.Error("分数でないテキストにはnilが返るべきです")
	}
}

// TestMergeSync は同時プレイ称号の序列で強い方が採用されることを検証する。
func TestMergeSync(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		candidate string
		want      string
	}{
		{name: "候補が空なら既存を維持する", existing: "FS", candidate: "", want: "FS"},
		{name: "既存が空なら候補を採用する", existing: "", candidate: "FS+", want: "FS+"},
		{name: "序列の高い候補が採用される", existing: "FS", candidate: "FDX+", want: "FDX+"},
		{name: "序列の低い候補は無視される", existing: "FDX", candidate: "SYNC", want: "FDX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeSync(tt.existing, tt.candidate); got != tt.want {
				t.Errorf("mergeSync(%q, %q) = %q, want %q", tt.existing, tt.candidate, got, tt.want)
			}
		})
	}
}

// TestParseDiffCategoryFromIconSrc は難易度アイコンのsrcからカテゴリを判定できることを検証する。
func TestParseDiffCategoryFromIconSrc(t *testing.T) {
	diff, ok := parseDiffCategoryFromIconSrc("https://example.com/img/diff_remaster.png?ver=1.50")
	if !ok {
		t.Fatal("難易度カテゴリが判定できるべきです")
	}
	if diff != model.DifficultyReMaster {
		t.Errorf("難易度カテゴリが異なります: got=%s want=%s", diff, model.DifficultyReMaster)
	}

	if _, ok := parseDiffCategoryFromIconSrc("https://example.com/img/music_dx.png"); ok {
		t.Error("難易度アイコン以外にはfalseが返るべきです")
	}
}

// TestSanitizeText はHTMLタグの除去とエンティティの復元を検証する。
func TestSanitizeText(t *testing.T) {
	got := sanitizeText("  <b>Oshama Scramble!</b> &amp; more  ")
	want := "Oshama Scramble! & more"
	if got != want {
		t.Errorf("サニタイズ結果が異なります: got=%q want=%q", got, want)
	}
}
