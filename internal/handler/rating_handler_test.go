package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/rating"
	"github.com/hitoshi/otolog/internal/songdata"
)

const ratingTestSongData = `{
  "songs": [
    {
      "title": "Oshama Scramble!",
      "version": "PRiSM PLUS",
      "imageName": "oshama.png",
      "sheets": [
        {"type": "dx", "difficulty": "master", "internalLevelValue": 13.7}
      ]
    }
  ]
}`

func ratedScore(title string) *model.ScoreRecord {
	ach := int64(1000000)
	return &model.ScoreRecord{
		Title:             title,
		ChartType:         model.ChartTypeDx,
		DiffCategory:      model.DifficultyMaster,
		Level:             "13+",
		AchievementX10000: &ach,
		Rank:              "SSS",
	}
}

func TestGetRating_ComputesRatedSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte(ratingTestSongData), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := songdata.LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex がエラーを返した: %v", err)
	}

	repo := &mockScoreRepo{
		listRatedFunc: func(context.Context) ([]*model.ScoreRecord, error) {
			return []*model.ScoreRecord{ratedScore("Oshama Scramble!")}, nil
		},
	}
	h := NewRatingHandler(repo, &mockIndexProvider{idx: idx}, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rating", nil)
	rec := httptest.NewRecorder()
	h.GetRating(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var set rating.RatedSet
	decodeJSON(t, rec, &set)

	if len(set.New) != 1 {
		t.Fatalf("len(New) = %d, want 1", len(set.New))
	}
	if set.New[0].InternalLevel != 13.7 {
		t.Errorf("InternalLevel = %v, want 13.7", set.New[0].InternalLevel)
	}
	if set.Total != set.NewSum+set.OldSum {
		t.Errorf("Total = %d, NewSum+OldSum = %d", set.Total, set.NewSum+set.OldSum)
	}
}

func TestGetRating_WithoutSongIndex(t *testing.T) {
	// 曲メタデータ未読み込みでも500にはせず、欠損として報告する
	repo := &mockScoreRepo{
		listRatedFunc: func(context.Context) ([]*model.ScoreRecord, error) {
			return []*model.ScoreRecord{ratedScore("未知の曲")}, nil
		},
	}
	h := NewRatingHandler(repo, &mockIndexProvider{idx: nil}, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/rating", nil)
	rec := httptest.NewRecorder()
	h.GetRating(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var set rating.RatedSet
	decodeJSON(t, rec, &set)

	if set.MissingBucket != 1 {
		t.Errorf("MissingBucket = %d, want 1", set.MissingBucket)
	}
	if len(set.New) != 0 || len(set.Old) != 0 {
		t.Errorf("New = %v, Old = %v（空を期待）", set.New, set.Old)
	}
}
