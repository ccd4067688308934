// Package songdata は曲メタデータ（譜面定数・収録バージョン・カバー画像名）の
// インデックスを提供する。データは外部ツールが生成するdata.jsonから読み込み、
// ファイル更新を検出して自動的に再読み込みする。
// インデックスが存在しなくても同期処理は続行できる（照会は常に「不明」を返すだけ）。
package songdata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/hitoshi/otolog/internal/model"
)

// Bucket は曲の収録世代（現行バージョン/旧バージョン）を表す。
type Bucket string

const (
	// BucketNew は現行バージョン収録曲。レーティングでは上位15曲が対象。
	BucketNew Bucket = "NEW"
	// BucketOld は旧バージョン収録曲。レーティングでは上位35曲が対象。
	BucketOld Bucket = "OLD"
)

// newVersions は現行バージョン扱いとする収録バージョン名。
var newVersions = map[string]bool{
	"PRiSM PLUS": true,
	"CiRCLE":     true,
}

// Index はdata.jsonから構築した読み取り専用の照会テーブル。
// 構築後は変更されないため、ロックなしで並行に参照できる。
type Index struct {
	levels    map[sheetKey]float64
	version   map[string]string
	imageName map[string]string
}

type sheetKey struct {
	titleNorm    string
	chartType    model.ChartType
	diffCategory model.DifficultyCategory
}

// data.jsonのスキーマ。
type songDataRoot struct {
	Songs []songDataSong `json:"songs"`
}

type songDataSong struct {
	Title     string          `json:"title"`
	Version   string          `json:"version"`
	ImageName string          `json:"imageName"`
	Sheets    []songDataSheet `json:"sheets"`
}

type songDataSheet struct {
	Type               string  `json:"type"`
	Difficulty         string  `json:"difficulty"`
	InternalLevelValue float64 `json:"internalLevelValue"`
}

// LoadIndex はdata.jsonを読み込んでIndexを構築する。
// ファイルが存在しない場合は(nil, nil)を返す（インデックスなしで運用可能）。
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("曲データの読み込みに失敗しました: %w", err)
	}

	var root songDataRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("曲データのパースに失敗しました: %w", err)
	}

	return buildIndex(&root), nil
}

func buildIndex(root *songDataRoot) *Index {
	idx := &Index{
		levels:    make(map[sheetKey]float64),
		version:   make(map[string]string),
		imageName: make(map[string]string),
	}

	for _, song := range root.Songs {
		titleNorm := normalizeTitle(song.Title)

		if v := strings.TrimSpace(song.Version); v != "" {
			if _, ok := idx.version[titleNorm]; !ok {
				idx.version[titleNorm] = v
			}
		}
		if img := strings.TrimSpace(song.ImageName); img != "" {
			if _, ok := idx.imageName[titleNorm]; !ok {
				idx.imageName[titleNorm] = img
			}
		}

		for _, sheet := range song.Sheets {
			chartType, ok := mapChartType(sheet.Type)
			if !ok {
				continue
			}
			diffCategory, ok := mapDiffCategory(sheet.Difficulty)
			if !ok {
				continue
			}
			idx.levels[sheetKey{
				titleNorm:    titleNorm,
				chartType:    chartType,
				diffCategory: diffCategory,
			}] = sheet.InternalLevelValue
		}
	}

	return idx
}

// InternalLevel は譜面定数を返す。未収録の譜面はfalse。
// nilレシーバも「常に不明」として扱える。
func (x *Index) InternalLevel(title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (float64, bool) {
	if x == nil {
		return 0, false
	}
	v, ok := x.levels[sheetKey{
		titleNorm:    normalizeTitle(title),
		chartType:    chartType,
		diffCategory: diffCategory,
	}]
	return v, ok
}

// SongBucket は曲の収録世代を返す。バージョン不明の曲はfalse。
func (x *Index) SongBucket(title string) (Bucket, bool) {
	if x == nil {
		return "", false
	}
	version, ok := x.version[normalizeTitle(title)]
	if !ok {
		return "", false
	}
	if newVersions[version] {
		return BucketNew, true
	}
	return BucketOld, true
}

// ImageName はカバー画像のファイル名を返す。不明な曲はfalse。
func (x *Index) ImageName(title string) (string, bool) {
	if x == nil {
		return "", false
	}
	img, ok := x.imageName[normalizeTitle(title)]
	return img, ok
}

// Size は収録譜面数を返す。
func (x *Index) Size() int {
	if x == nil {
		return 0
	}
	return len(x.levels)
}

// normalizeTitle は曲名の照合キーを作る。
// ページ側とdata.json側で空白や大文字小文字の揺れがあるため、両方を落とす。
func normalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func mapChartType(sheetType string) (model.ChartType, bool) {
	switch strings.ToLower(strings.TrimSpace(sheetType)) {
	case "std":
		return model.ChartTypeStd, true
	case "dx":
		return model.ChartTypeDx, true
	}
	return "", false
}

func mapDiffCategory(difficulty string) (model.DifficultyCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "basic":
		return model.DifficultyBasic, true
	case "advanced":
		return model.DifficultyAdvanced, true
	case "expert":
		return model.DifficultyExpert, true
	case "master":
		return model.DifficultyMaster, true
	case "remaster":
		return model.DifficultyReMaster, true
	}
	return "", false
}
