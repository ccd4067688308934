package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/otolog/internal/model"
)

func TestSearchScores_ReturnsMatches(t *testing.T) {
	ach := int64(1005000)
	var gotQuery string
	repo := &mockScoreRepo{
		searchByTitleFunc: func(_ context.Context, query string) ([]*model.ScoreRecord, error) {
			gotQuery = query
			return []*model.ScoreRecord{
				{
					Title:             "Oshama Scramble!",
					ChartType:         model.ChartTypeDx,
					DiffCategory:      model.DifficultyMaster,
					Level:             "13+",
					AchievementX10000: &ach,
					Rank:              "SSS+",
					Fc:                "AP",
				},
			}, nil
		},
	}
	h := NewScoreHandler(repo, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/scores?q=Oshama", nil)
	rec := httptest.NewRecorder()
	h.SearchScores(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotQuery != "Oshama" {
		t.Errorf("query = %q, want Oshama", gotQuery)
	}

	var resp scoreListResponse
	decodeJSON(t, rec, &resp)

	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	s := resp.Scores[0]
	if s.AchievementPercent == nil || *s.AchievementPercent != 100.5 {
		t.Errorf("AchievementPercent = %v, want 100.5", s.AchievementPercent)
	}
	if s.Rank != "SSS+" || s.Fc != "AP" {
		t.Errorf("Rank = %q, Fc = %q", s.Rank, s.Fc)
	}
}

func TestSearchScores_NoQueryReturnsAllScores(t *testing.T) {
	listRatedCalls := 0
	repo := &mockScoreRepo{
		listRatedFunc: func(context.Context) ([]*model.ScoreRecord, error) {
			listRatedCalls++
			return []*model.ScoreRecord{
				{Title: "曲A", ChartType: model.ChartTypeStd, DiffCategory: model.DifficultyExpert},
				{Title: "曲B", ChartType: model.ChartTypeDx, DiffCategory: model.DifficultyMaster},
			}, nil
		},
		searchByTitleFunc: func(context.Context, string) ([]*model.ScoreRecord, error) {
			t.Fatal("qなしのリクエストで部分一致検索が呼ばれた")
			return nil, nil
		},
	}
	h := NewScoreHandler(repo, newTestLogger())

	// qなし・空白のみのqはどちらも全件にフォールバックする
	for _, target := range []string{"/api/scores", "/api/scores?q=%20%20"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.SearchScores(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", target, rec.Code)
		}

		var resp scoreListResponse
		decodeJSON(t, rec, &resp)
		if resp.Count != 2 {
			t.Errorf("%s: count = %d, want 2", target, resp.Count)
		}
	}
	if listRatedCalls != 2 {
		t.Errorf("ListRated の呼び出し回数 = %d, want 2", listRatedCalls)
	}
}

func TestSearchScores_EmptyResult(t *testing.T) {
	h := NewScoreHandler(&mockScoreRepo{}, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/scores?q=存在しない曲", nil)
	rec := httptest.NewRecorder()
	h.SearchScores(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp scoreListResponse
	decodeJSON(t, rec, &resp)
	if resp.Count != 0 || resp.Scores == nil {
		t.Errorf("count = %d, scores = %v（空配列を期待）", resp.Count, resp.Scores)
	}
}

func TestGetChart_ReturnsRecord(t *testing.T) {
	ach := int64(995000)
	repo := &mockScoreRepo{
		findByChartFunc: func(_ context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (*model.ScoreRecord, error) {
			if title != "Oshama Scramble!" || chartType != model.ChartTypeDx || diffCategory != model.DifficultyReMaster {
				t.Errorf("検索キーが一致しない: %q %q %q", title, chartType, diffCategory)
			}
			return &model.ScoreRecord{
				Title:             title,
				ChartType:         chartType,
				DiffCategory:      diffCategory,
				Level:             "14",
				AchievementX10000: &ach,
				Rank:              "SSS",
			}, nil
		},
	}
	h := NewScoreHandler(repo, newTestLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/scores/chart?title=Oshama+Scramble%21&type=dx&diff=remaster", nil)
	rec := httptest.NewRecorder()
	h.GetChart(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp scoreResponse
	decodeJSON(t, rec, &resp)
	if resp.Title != "Oshama Scramble!" || resp.DiffCategory != "Re:MASTER" {
		t.Errorf("Title = %q, DiffCategory = %q", resp.Title, resp.DiffCategory)
	}
	if resp.AchievementPercent == nil || *resp.AchievementPercent != 99.5 {
		t.Errorf("AchievementPercent = %v, want 99.5", resp.AchievementPercent)
	}
}

func TestGetChart_NotFound(t *testing.T) {
	h := NewScoreHandler(&mockScoreRepo{}, newTestLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/scores/chart?title=未知の曲&type=STD&diff=MASTER", nil)
	rec := httptest.NewRecorder()
	h.GetChart(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetChart_InvalidParams(t *testing.T) {
	h := NewScoreHandler(&mockScoreRepo{}, newTestLogger())

	cases := []struct {
		name   string
		target string
	}{
		{"曲名なし", "/api/scores/chart?type=DX&diff=MASTER"},
		{"譜面種別が不正", "/api/scores/chart?title=x&type=DELUXE&diff=MASTER"},
		{"難易度が不正", "/api/scores/chart?title=x&type=DX&diff=ULTIMA"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			h.GetChart(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
