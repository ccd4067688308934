package rating

import (
	"sort"

	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/songdata"
)

// レーティング対象曲数。現行バージョン曲は上位15、旧バージョン曲は上位35。
const (
	newBucketLimit = 15
	oldBucketLimit = 35
)

// ScoredChart はレーティングポイント計算済みの1譜面。
type ScoredChart struct {
	Title        string                   `json:"title"`
	ChartType    model.ChartType          `json:"chart_type"`
	DiffCategory model.DifficultyCategory `json:"diff_category"`
	Level        string                   `json:"level"`

	InternalLevel      float64         `json:"internal_level"`
	AchievementPercent float64         `json:"achievement_percent"`
	Rank               string          `json:"rank,omitempty"`
	RatingPoints       int             `json:"rating_points"`
	Bucket             songdata.Bucket `json:"bucket"`
}

// RatedSet はTop-15/Top-35選抜の結果。
type RatedSet struct {
	New []ScoredChart `json:"new"`
	Old []ScoredChart `json:"old"`

	NewSum int `json:"new_sum"`
	OldSum int `json:"old_sum"`
	Total  int `json:"total"`

	// レーティングから除外された譜面の数。ポイント0として混ぜるのではなく、
	// データ欠損として別枠で報告する。
	MissingInternalLevel int `json:"missing_internal_level"`
	MissingBucket        int `json:"missing_bucket"`
}

// BuildRatedSet はベスト記録の一覧からレーティング構成を計算する。
// 達成率のない（未プレイの）記録は黙って飛ばす。収録世代が不明な曲、
// 譜面定数も表示レベルも解決できない譜面は除外し、欠損として数える。
func BuildRatedSet(scores []*model.ScoreRecord, idx *songdata.Index) *RatedSet {
	set := &RatedSet{}

	var charts []ScoredChart
	for _, s := range scores {
		if s.AchievementX10000 == nil {
			continue
		}

		bucket, ok := idx.SongBucket(s.Title)
		if !ok {
			set.MissingBucket++
			continue
		}

		internal, ok := idx.InternalLevel(s.Title, s.ChartType, s.DiffCategory)
		if !ok {
			internal, ok = FallbackInternalLevel(s.Level)
			if !ok {
				set.MissingInternalLevel++
				continue
			}
		}

		achievement := float64(*s.AchievementX10000) / 10000.0
		charts = append(charts, ScoredChart{
			Title:              s.Title,
			ChartType:          s.ChartType,
			DiffCategory:       s.DiffCategory,
			Level:              s.Level,
			InternalLevel:      internal,
			AchievementPercent: achievement,
			Rank:               s.Rank,
			RatingPoints:       Points(internal, achievement, model.IsApLike(s.Fc)),
			Bucket:             bucket,
		})
	}

	for _, c := range charts {
		switch c.Bucket {
		case songdata.BucketNew:
			set.New = append(set.New, c)
		case songdata.BucketOld:
			set.Old = append(set.Old, c)
		}
	}

	sortChartsDesc(set.New)
	sortChartsDesc(set.Old)

	if len(set.New) > newBucketLimit {
		set.New = set.New[:newBucketLimit]
	}
	if len(set.Old) > oldBucketLimit {
		set.Old = set.Old[:oldBucketLimit]
	}

	for _, c := range set.New {
		set.NewSum += c.RatingPoints
	}
	for _, c := range set.Old {
		set.OldSum += c.RatingPoints
	}
	set.Total = set.NewSum + set.OldSum

	return set
}

// sortChartsDesc は(レーティングポイント, 達成率)の降順で安定ソートする。
func sortChartsDesc(charts []ScoredChart) {
	sort.SliceStable(charts, func(i, j int) bool {
		if charts[i].RatingPoints != charts[j].RatingPoints {
			return charts[i].RatingPoints > charts[j].RatingPoints
		}
		return charts[i].AchievementPercent > charts[j].AchievementPercent
	})
}
