package rating

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/songdata"
)

// buildTestIndex は指定数のNEW/OLD曲を持つ曲データインデックスを組み立てる。
// 曲名は "new-N" / "old-N"、譜面はすべてDXのMASTER（定数13.0）。
func buildTestIndex(t *testing.T, newCount, oldCount int) *songdata.Index {
	t.Helper()

	var songs []string
	for i := 0; i < newCount; i++ {
		songs = append(songs, fmt.Sprintf(`{
  "title": "new-%d",
  "version": "PRiSM PLUS",
  "sheets": [{"type": "dx", "difficulty": "master", "internalLevelValue": 13.0}]
}`, i))
	}
	for i := 0; i < oldCount; i++ {
		songs = append(songs, fmt.Sprintf(`{
  "title": "old-%d",
  "version": "BUDDiES",
  "sheets": [{"type": "dx", "difficulty": "master", "internalLevelValue": 13.0}]
}`, i))
	}

	path := filepath.Join(t.TempDir(), "data.json")
	content := `{"songs": [` + strings.Join(songs, ",") + `]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("フィクスチャの書き込みに失敗しました: %v", err)
	}

	idx, err := songdata.LoadIndex(path)
	if err != nil {
		t.Fatalf("インデックスの構築に失敗しました: %v", err)
	}
	return idx
}

func scoreFor(title string, achievementX10000 int64) *model.ScoreRecord {
	return &model.ScoreRecord{
		Title:             title,
		ChartType:         model.ChartTypeDx,
		DiffCategory:      model.DifficultyMaster,
		Level:             "13",
		AchievementX10000: &achievementX10000,
	}
}

// TestBuildRatedSet_TopSelection は20曲のNEWと40曲のOLDから上位15/35が
// 選ばれることを検証する。
func TestBuildRatedSet_TopSelection(t *testing.T) {
	idx := buildTestIndex(t, 20, 40)

	var scores []*model.ScoreRecord
	// 達成率を曲ごとにずらして順位が一意になるようにする
	for i := 0; i < 20; i++ {
		scores = append(scores, scoreFor(fmt.Sprintf("new-%d", i), 900000+int64(i)*10000))
	}
	for i := 0; i < 40; i++ {
		scores = append(scores, scoreFor(fmt.Sprintf("old-%d", i), 700000+int64(i)*5000))
	}

	set := BuildRatedSet(scores, idx)

	if len(set.New) != 15 {
		t.Errorf("NEW枠の曲数が異なります: got=%d want=15", len(set.New))
	}
	if len(set.Old) != 35 {
		t.Errorf("OLD枠の曲数が異なります: got=%d want=35", len(set.Old))
	}
	if set.Total != set.NewSum+set.OldSum {
		t.Errorf("合計が枠ごとの和と一致しません: total=%d new=%d old=%d",
			set.Total, set.NewSum, set.OldSum)
	}

	// 降順に並んでいること
	for i := 1; i < len(set.New); i++ {
		prev, cur := set.New[i-1], set.New[i]
		if cur.RatingPoints > prev.RatingPoints {
			t.Fatalf("NEW枠がポイント降順になっていません: [%d]=%d [%d]=%d",
				i-1, prev.RatingPoints, i, cur.RatingPoints)
		}
		if cur.RatingPoints == prev.RatingPoints && cur.AchievementPercent > prev.AchievementPercent {
			t.Fatalf("同ポイント内が達成率降順になっていません")
		}
	}

	// 最高達成率のNEW曲が先頭に来ること
	if set.New[0].Title != "new-19" {
		t.Errorf("NEW枠の先頭が異なります: got=%q want=%q", set.New[0].Title, "new-19")
	}
}

// TestBuildRatedSet_MissingData は欠損データが除外かつ計数されることを検証する。
func TestBuildRatedSet_MissingData(t *testing.T) {
	idx := buildTestIndex(t, 1, 1)

	unknownBucket := scoreFor("インデックスにない曲", 990000)
	// 収録世代は分かるが定数も表示レベルも解決できない譜面
	noLevel := scoreFor("new-0", 990000)
	noLevel.DiffCategory = model.DifficultyReMaster
	noLevel.Level = "N/A"

	ok := scoreFor("old-0", 990000)

	set := BuildRatedSet([]*model.ScoreRecord{unknownBucket, noLevel, ok}, idx)

	if set.MissingBucket != 1 {
		t.Errorf("収録世代の欠損数が異なります: got=%d want=1", set.MissingBucket)
	}
	if set.MissingInternalLevel != 1 {
		t.Errorf("譜面定数の欠損数が異なります: got=%d want=1", set.MissingInternalLevel)
	}
	if len(set.New) != 0 || len(set.Old) != 1 {
		t.Errorf("選抜結果が異なります: new=%d old=%d", len(set.New), len(set.Old))
	}
}

// TestBuildRatedSet_FallbackLevel は定数未収録の譜面が表示レベルで補完されることを検証する。
func TestBuildRatedSet_FallbackLevel(t *testing.T) {
	idx := buildTestIndex(t, 1, 0)

	// EXPERTはインデックスに入れていないため表示レベル"13+"が使われる
	s := scoreFor("new-0", 998056)
	s.DiffCategory = model.DifficultyExpert
	s.Level = "13+"

	set := BuildRatedSet([]*model.ScoreRecord{s}, idx)

	if len(set.New) != 1 {
		t.Fatalf("1曲選ばれるべきです: got=%d", len(set.New))
	}
	if set.New[0].InternalLevel != 13.6 {
		t.Errorf("表示レベルから導出した定数が異なります: got=%v want=13.6", set.New[0].InternalLevel)
	}
}

// TestBuildRatedSet_UnplayedSkipped は達成率のない記録が黙って飛ばされることを検証する。
func TestBuildRatedSet_UnplayedSkipped(t *testing.T) {
	idx := buildTestIndex(t, 1, 0)

	unplayed := &model.ScoreRecord{
		Title:        "new-0",
		ChartType:    model.ChartTypeDx,
		DiffCategory: model.DifficultyMaster,
		Level:        "13",
	}

	set := BuildRatedSet([]*model.ScoreRecord{unplayed}, idx)

	if len(set.New) != 0 || set.MissingBucket != 0 || set.MissingInternalLevel != 0 {
		t.Error("未プレイの記録は欠損として数えずに飛ばされるべきです")
	}
}

// TestBuildRatedSet_PerfectBonus はAP譜面のポイントに+1が乗ることを検証する。
func TestBuildRatedSet_PerfectBonus(t *testing.T) {
	idx := buildTestIndex(t, 1, 0)

	plain := scoreFor("new-0", 998056)
	set := BuildRatedSet([]*model.ScoreRecord{plain}, idx)
	base := set.New[0].RatingPoints

	ap := *plain
	ap.Fc = "AP"
	set = BuildRatedSet([]*model.ScoreRecord{&ap}, idx)

	if got := set.New[0].RatingPoints; got != base+1 {
		t.Errorf("APのポイントが異なります: got=%d want=%d", got, base+1)
	}
}
