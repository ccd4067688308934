package scrape

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/otolog/internal/model"
)

// playedAtLayout はプレイ日時ラベルの形式。リモートはローカル時刻で表示する。
const playedAtLayout = "2006/01/02 15:04"

// parseRecentPlays はプレイ履歴ページのHTMLからプレイ一覧を抽出する。
// ページの表示順（新しい順）を保ったまま返す。
// 個々のエントリの欠損は許容し、構造が完全に壊れている場合のみエラーを返す。
func parseRecentPlays(body []byte, _ time.Time) ([]model.PlayEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewMalformedDocumentError("プレイ履歴ページのパースに失敗しました", err)
	}

	var entries []model.PlayEntry
	doc.Find(".playlog_top_container").Each(func(_ int, top *goquery.Selection) {
		entry := top.ParentsFiltered("div.p_10.t_l.v_b").First()
		if entry.Length() == 0 {
			return
		}

		var e model.PlayEntry

		if src, ok := entry.Find("img.playlog_diff").First().Attr("src"); ok {
			if diff, ok := parseDiffCategoryFromIconSrc(src); ok {
				e.DiffCategory = diff
			}
		}

		track, playedAt := parseSubtitleText(entry.Find(".sub_title").First().Text())
		e.Track = track
		e.PlayedAt = playedAt
		e.PlayedAtUnix = playedAtToUnix(playedAt)

		container := entry.Find(`div[class*="playlog_"][class*="_container"]`).
			FilterFunction(func(_ int, s *goquery.Selection) bool {
				return s.Find("div.basic_block").Length() > 0
			}).First()
		if container.Length() == 0 {
			return
		}
		songBlock := container.Find("div.basic_block").First()

		e.Level = strings.TrimSpace(songBlock.Find(".playlog_level_icon").First().Text())
		e.Title = sanitizeText(stripLevelPrefix(songBlock.Text(), e.Level))

		e.AchievementX10000 = parseAchievementX10000(entry.Find(".playlog_achievement_txt").First().Text())

		if src, ok := entry.Find("img.playlog_scorerank").First().Attr("src"); ok {
			e.ScoreRank = parseRankFromPlaylogIconSrc(src)
		}

		e.DxScore, e.DxScoreMax = parseDxScorePair(entry.Find(".playlog_score_block .white").First().Text())

		e.ChartType = model.ChartTypeStd
		if src, ok := entry.Find("img.playlog_music_kind_icon").First().Attr("src"); ok {
			if ct, ok := parseChartTypeFromIconSrc(src); ok {
				e.ChartType = ct
			}
		}

		// クリア状態・同時プレイ称号・自己ベスト更新マークはアイコン群から拾う
		entry.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, ok := img.Attr("src")
			if !ok {
				return
			}
			if e.Fc == "" {
				e.Fc = parseFcFromPlaylogIconSrc(src)
			}
			e.Sync = mergeSync(e.Sync, parseSyncFromPlaylogIconSrc(src))
			if strings.Contains(src, "playlog_achievement_newrecord") {
				e.NewRecord = true
			}
		})

		entries = append(entries, e)
	})

	return entries, nil
}

// parseSubtitleText はサブタイトル行からトラック番号とプレイ日時ラベルを取り出す。
// 例: "TRACK 03　2026/01/23 12:34"
func parseSubtitleText(text string) (*int, string) {
	normalized := strings.NewReplacer(" ", " ", "　", " ").Replace(text)

	var track *int
	if i := strings.Index(normalized, "TRACK"); i >= 0 {
		after := normalized[i+len("TRACK"):]
		var b strings.Builder
		started := false
		for _, r := range after {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
				started = true
				continue
			}
			if started {
				break
			}
		}
		if v, err := strconv.Atoi(b.String()); err == nil {
			track = &v
		}
	}

	var playedAt string
	if pos := strings.Index(normalized, "/"); pos >= 0 {
		start := pos - 4
		if start < 0 {
			start = 0
		}
		playedAt = strings.TrimSpace(normalized[start:])
	}

	return track, playedAt
}

// playedAtToUnix はプレイ日時ラベルをUnix時刻へ変換する。
// 変換できない場合はnil（そのエントリは台帳に保存されない）。
func playedAtToUnix(label string) *int64 {
	if label == "" {
		return nil
	}
	candidate := label
	if len(candidate) > len(playedAtLayout) {
		candidate = strings.TrimSpace(candidate[:len(playedAtLayout)])
	}
	t, err := time.ParseInLocation(playedAtLayout, candidate, time.Local)
	if err != nil {
		return nil
	}
	unix := t.Unix()
	return &unix
}

// stripLevelPrefix は曲名ブロックのテキストから先頭のレベルラベルを取り除く。
// 曲名ブロックにはレベルアイコンのテキストが連結されて含まれることがある。
func stripLevelPrefix(raw, level string) string {
	s := strings.TrimSpace(raw)
	level = strings.TrimSpace(level)
	if level != "" {
		s = strings.TrimSpace(strings.TrimPrefix(s, level))
	}
	return s
}

// parseRankFromPlaylogIconSrc はプレイ履歴のランクアイコンからランク表記を得る。
func parseRankFromPlaylogIconSrc(src string) string {
	file := iconFileName(src)
	stem, ok := strings.CutSuffix(file, ".png")
	if !ok {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(stem)) {
	case "sssplus":
		return "SSS+"
	case "sss":
		return "SSS"
	case "ssplus":
		return "SS+"
	case "ss":
		return "SS"
	case "splus":
		return "S+"
	case "s":
		return "S"
	case "aaa":
		return "AAA"
	case "aa":
		return "AA"
	case "a":
		return "A"
	case "bbb":
		return "BBB"
	case "bb":
		return "BB"
	case "b":
		return "B"
	case "c":
		return "C"
	case "d":
		return "D"
	}
	return ""
}

// parseFcFromPlaylogIconSrc は "fc_*.png" 形式のアイコンからクリア状態を得る。
// ダミーアイコン（fc_dummy.png）は未達成を意味する。
func parseFcFromPlaylogIconSrc(src string) string {
	file := iconFileName(src)
	stem, ok := strings.CutSuffix(file, ".png")
	if !ok {
		return ""
	}
	stem, ok = strings.CutPrefix(stem, "fc_")
	if !ok || stem == "dummy" {
		return ""
	}
	// 表記を正規化する（"+"付きの称号はアイコン名でplus/p表記になる）
	switch strings.ToLower(stem) {
	case "fc":
		return "FC"
	case "fcp", "fcplus":
		return "FC+"
	case "ap":
		return "AP"
	case "app", "applus":
		return "AP+"
	}
	return strings.ToUpper(stem)
}

// parseSyncFromPlaylogIconSrc は "sync_*.png" 形式のアイコンから同時プレイ称号を得る。
func parseSyncFromPlaylogIconSrc(src string) string {
	file := iconFileName(src)
	stem, ok := strings.CutSuffix(file, ".png")
	if !ok {
		return ""
	}
	stem, ok = strings.CutPrefix(stem, "sync_")
	if !ok || stem == "dummy" {
		return ""
	}
	switch strings.ToLower(stem) {
	case "sync":
		return "SYNC"
	case "fs":
		return "FS"
	case "fsp", "fsplus":
		return "FS+"
	case "fdx":
		return "FDX"
	case "fdxp", "fdxplus":
		return "FDX+"
	}
	return strings.ToUpper(stem)
}
