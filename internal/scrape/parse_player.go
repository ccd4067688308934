package scrape

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/otolog/internal/model"
)

// プレイヤーデータページの抽出マーカー。
const (
	markerCurrentVersionPlayCount = "play count of current version"
	markerTotalPlayCount          = "maimaiDX total play count"
)

// parsePlayerSummary はプレイヤーデータページのHTMLからサマリーを抽出する。
// 必須要素が欠けている場合はmalformed_documentエラーを返す。
func parsePlayerSummary(body []byte) (*model.PlayerSummary, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.NewMalformedDocumentError("プレイヤーデータページのパースに失敗しました", err)
	}

	name := sanitizeText(doc.Find(".name_block").First().Text())
	if name == "" {
		return nil, model.NewMalformedDocumentError("プレイヤー名（.name_block）が見つかりません", nil)
	}

	rating, ok := digitsToInt64(doc.Find(".rating_block").First().Text())
	if !ok {
		return nil, model.NewMalformedDocumentError("レーティング（.rating_block）が見つかりません", nil)
	}

	// プレイ回数のブロックを探す。クラス名はレイアウト依存のため、
	// マーカーテキストを含むブロックをテキスト側から特定する。
	var countsText string
	doc.Find("div.m_5.m_b_5.t_r.f_12").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := s.Text()
		if strings.Contains(t, markerCurrentVersionPlayCount) {
			countsText = t
			return false
		}
		return true
	})
	if countsText == "" {
		return nil, model.NewMalformedDocumentError("プレイ回数のブロックが見つかりません", nil)
	}

	currentVersion, ok := extractNumberAfter(countsText, markerCurrentVersionPlayCount)
	if !ok {
		return nil, model.NewMalformedDocumentError("現行バージョンのプレイ回数が見つかりません", nil)
	}
	total, ok := extractNumberAfter(countsText, markerTotalPlayCount)
	if !ok {
		return nil, model.NewMalformedDocumentError("累計プレイ回数が見つかりません", nil)
	}

	return &model.PlayerSummary{
		DisplayName:             name,
		Rating:                  int(rating),
		CurrentVersionPlayCount: currentVersion,
		TotalPlayCount:          total,
	}, nil
}

// extractNumberAfter はマーカー文字列の直後に現れる最初の数値を取り出す。
func extractNumberAfter(haystack, needle string) (int, bool) {
	i := strings.Index(haystack, needle)
	if i < 0 {
		return 0, false
	}
	after := haystack[i+len(needle):]

	start := -1
	for j, r := range after {
		if r >= '0' && r <= '9' {
			start = j
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(after) && after[end] >= '0' && after[end] <= '9' {
		end++
	}

	v, err := strconv.Atoi(after[start:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
