package scrape

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/otolog/internal/model"
)

// diffCategoryByIndex は難易度階層インデックスとカテゴリの対応。
var diffCategoryByIndex = [5]model.DifficultyCategory{
	model.DifficultyBasic,
	model.DifficultyAdvanced,
	model.DifficultyExpert,
	model.DifficultyMaster,
	model.DifficultyReMaster,
}

// parseScoreList はスコア一覧ページのHTMLからベスト記録の一覧を抽出する。
// diffIndexはページ自体に含まれないため、取得時のパラメータをそのまま使う。
func parseScoreList(body []byte, diffIndex int, scrapedAt time.Time) ([]model.ScoreRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewMalformedDocumentError("スコア一覧ページのパースに失敗しました", err)
	}

	diffCategory := diffCategoryByIndex[diffIndex]

	var records []model.ScoreRecord
	var parseErr error
	doc.Find(`div[class*="music_"][class*="_score_back"]`).EachWithBreak(func(_ int, entry *goquery.Selection) bool {
		title := sanitizeText(entry.Find(".music_name_block").First().Text())

		level := strings.TrimSpace(entry.Find(".music_lv_block").First().Text())
		if level == "" {
			parseErr = model.NewMalformedDocumentError(
				"スコアエントリにレベル（.music_lv_block）がありません", nil)
			return false
		}

		rec := model.ScoreRecord{
			Title:        title,
			ChartType:    model.ChartTypeStd,
			DiffCategory: diffCategory,
			Level:        level,
			ScrapedAt:    scrapedAt,
		}

		if idx, ok := entry.Find(`input[name="idx"]`).First().Attr("value"); ok {
			rec.SourceIdx = idx
		}

		// 達成率とでらっくすスコアは同じクラスのブロックに並ぶため、内容で見分ける
		entry.Find(".music_score_block").Each(func(_ int, block *goquery.Selection) {
			text := block.Text()
			if rec.AchievementX10000 == nil {
				if v := parseAchievementX10000(text); v != nil {
					rec.AchievementX10000 = v
					return
				}
			}
			if rec.DxScore == nil {
				if cur, max := parseDxScorePair(text); cur != nil {
					rec.DxScore = cur
					rec.DxScoreMax = max
				}
			}
		})

		entry.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, ok := img.Attr("src")
			if !ok {
				return
			}
			if rec.Rank == "" {
				rec.Rank = parseRankFromMusicIconSrc(src)
			}
			if rec.Fc == "" {
				rec.Fc = parseFcFromMusicIconSrc(src)
			}
			rec.Sync = mergeSync(rec.Sync, parseSyncFromMusicIconSrc(src))
		})

		// 譜面種別アイコンはエントリの外側（祖先側）に置かれる
		entry.Parents().EachWithBreak(func(_ int, ancestor *goquery.Selection) bool {
			src, ok := ancestor.Find("img.music_kind_icon").First().Attr("src")
			if !ok {
				return true
			}
			if ct, ok := parseChartTypeFromIconSrc(src); ok {
				rec.ChartType = ct
				return false
			}
			return true
		})

		records = append(records, rec)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return records, nil
}

// musicIconKey は "music_icon_*.png" 形式のアイコンからキーを取り出す。
func musicIconKey(src string) string {
	file := iconFileName(src)
	key, ok := strings.CutPrefix(file, "music_icon_")
	if !ok {
		return ""
	}
	key, ok = strings.CutSuffix(key, ".png")
	if !ok {
		return ""
	}
	return key
}

func parseRankFromMusicIconSrc(src string) string {
	switch musicIconKey(src) {
	case "s":
		return "S"
	case "sp":
		return "S+"
	case "ss":
		return "SS"
	case "ssp":
		return "SS+"
	case "sss":
		return "SSS"
	case "sssp":
		return "SSS+"
	}
	return ""
}

func parseFcFromMusicIconSrc(src string) string {
	switch musicIconKey(src) {
	case "fc":
		return "FC"
	case "fcp":
		return "FC+"
	case "ap":
		return "AP"
	case "app":
		return "AP+"
	}
	return ""
}

func parseSyncFromMusicIconSrc(src string) string {
	switch musicIconKey(src) {
	case "fdxp":
		return "FDX+"
	case "fdx":
		return "FDX"
	case "fsp":
		return "FS+"
	case "fs":
		return "FS"
	case "sync":
		return "SYNC"
	}
	return ""
}
