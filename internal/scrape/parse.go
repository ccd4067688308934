package scrape

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/otolog/internal/model"
)

// textPolicy はHTMLから抽出したテキストの無害化ポリシー。
// 曲名などのユーザー可視文字列はすべてこのポリシーを通してから保存する。
var textPolicy = bluemonday.StrictPolicy()

// sanitizeText はHTMLから抽出したテキストからタグを除去し、
// エンティティを元の文字に戻して返す。
func sanitizeText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(s)))
}

// parseAchievementX10000 は達成率の表示文字列（例: "99.8056%"）を
// 1万倍の固定小数点整数にパースする。浮動小数点を経由しないため誤差が出ない。
// パースできない場合はnilを返す。
func parseAchievementX10000(text string) *int64 {
	t := strings.TrimSpace(text)
	if !strings.Contains(t, "%") {
		return nil
	}
	t = strings.NewReplacer("%", "", " ", "", "\n", "").Replace(t)
	if t == "" {
		return nil
	}

	intPart, fracPart, _ := strings.Cut(t, ".")
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return nil
	}

	// 小数部は4桁に揃える（不足分は0埋め、超過分は切り捨て）
	if len(fracPart) > 4 {
		fracPart = fracPart[:4]
	}
	for len(fracPart) < 4 {
		fracPart += "0"
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return nil
	}

	v := whole*10000 + frac
	return &v
}

// parseDxScorePair は "1,234 / 1,500" 形式のでらっくすスコア表記をパースする。
func parseDxScorePair(text string) (*int64, *int64) {
	if !strings.Contains(text, "/") {
		return nil, nil
	}
	left, right, _ := strings.Cut(text, "/")
	cur, ok1 := digitsToInt64(left)
	max, ok2 := digitsToInt64(right)
	if !ok1 || !ok2 {
		return nil, nil
	}
	return &cur, &max
}

// digitsToInt64 は文字列中のASCII数字だけを連結して整数にする。
// 桁区切りのカンマを含む表記にも対応する。
func digitsToInt64(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// iconFileName はimg srcからクエリ文字列を除いたファイル名を取り出す。
func iconFileName(src string) string {
	file := src
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	if i := strings.Index(file, "?"); i >= 0 {
		file = file[:i]
	}
	return file
}

// parseChartTypeFromIconSrc は譜面種別アイコンのsrcからChartTypeを判定する。
func parseChartTypeFromIconSrc(src string) (model.ChartType, bool) {
	if strings.Contains(src, "/img/music_dx.png") {
		return model.ChartTypeDx, true
	}
	if strings.Contains(src, "/img/music_standard.png") {
		return model.ChartTypeStd, true
	}
	return "", false
}

// parseDiffCategoryFromIconSrc は難易度アイコンのsrcからカテゴリを判定する。
func parseDiffCategoryFromIconSrc(src string) (model.DifficultyCategory, bool) {
	switch iconFileName(src) {
	case "diff_basic.png":
		return model.DifficultyBasic, true
	case "diff_advanced.png":
		return model.DifficultyAdvanced, true
	case "diff_expert.png":
		return model.DifficultyExpert, true
	case "diff_master.png":
		return model.DifficultyMaster, true
	case "diff_remaster.png":
		return model.DifficultyReMaster, true
	}
	return "", false
}

// syncRank は同時プレイ称号の強さの序列。複数アイコンが並ぶ場合は最上位を採用する。
func syncRank(s string) int {
	switch s {
	case "FDX+":
		return 5
	case "FDX":
		return 4
	case "FS+":
		return 3
	case "FS":
		return 2
	case "SYNC":
		return 1
	}
	return 0
}

// mergeSync は既存の称号と新しい候補のうち序列の高い方を返す。
func mergeSync(existing, candidate string) string {
	if candidate == "" {
		return existing
	}
	if existing == "" {
		return candidate
	}
	if syncRank(candidate) > syncRank(existing) {
		return candidate
	}
	return existing
}
