package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/otolog/internal/model"
)

func samplePlaylog(playedAtUnix int64) *model.PlaylogRecord {
	track := int64(1)
	ach := int64(998056)
	return &model.PlaylogRecord{
		PlayedAtUnix:      playedAtUnix,
		PlayedAt:          "2026/01/23 12:34",
		Track:             &track,
		Title:             "Oshama Scramble!",
		ChartType:         model.ChartTypeDx,
		DiffCategory:      model.DifficultyMaster,
		Level:             "13+",
		AchievementX10000: &ach,
		NewRecord:         true,
		ScoreRank:         "SS+",
	}
}

func TestListRecent_ReturnsPlaylogs(t *testing.T) {
	var gotLimit int
	repo := &mockPlaylogRepo{
		listRecentFunc: func(_ context.Context, limit int) ([]*model.PlaylogRecord, error) {
			gotLimit = limit
			return []*model.PlaylogRecord{samplePlaylog(1769139240)}, nil
		},
	}
	h := NewPlaylogHandler(repo, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/recent", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotLimit != defaultRecentLimit {
		t.Errorf("limit = %d, want %d", gotLimit, defaultRecentLimit)
	}

	var resp playlogListResponse
	decodeJSON(t, rec, &resp)

	if resp.Count != 1 || len(resp.Playlogs) != 1 {
		t.Fatalf("count = %d, len = %d", resp.Count, len(resp.Playlogs))
	}
	p := resp.Playlogs[0]
	if p.Title != "Oshama Scramble!" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.AchievementPercent == nil || *p.AchievementPercent != 99.8056 {
		t.Errorf("AchievementPercent = %v, want 99.8056", p.AchievementPercent)
	}
	if p.PlayedAtUnix != 1769139240 {
		t.Errorf("PlayedAtUnix = %d", p.PlayedAtUnix)
	}
}

func TestListRecent_CustomLimit(t *testing.T) {
	var gotLimit int
	repo := &mockPlaylogRepo{
		listRecentFunc: func(_ context.Context, limit int) ([]*model.PlaylogRecord, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := NewPlaylogHandler(repo, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/recent?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if gotLimit != 10 {
		t.Errorf("limit = %d, want 10", gotLimit)
	}
}

func TestListRecent_LimitCapped(t *testing.T) {
	var gotLimit int
	repo := &mockPlaylogRepo{
		listRecentFunc: func(_ context.Context, limit int) ([]*model.PlaylogRecord, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := NewPlaylogHandler(repo, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/recent?limit=9999", nil)
	rec := httptest.NewRecorder()
	h.ListRecent(rec, req)

	if gotLimit != maxRecentLimit {
		t.Errorf("limit = %d, want %d", gotLimit, maxRecentLimit)
	}
}

func TestListRecent_InvalidLimit(t *testing.T) {
	h := NewPlaylogHandler(&mockPlaylogRepo{}, newTestLogger())

	for _, q := range []string{"limit=abc", "limit=0", "limit=-5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/recent?"+q, nil)
		rec := httptest.NewRecorder()
		h.ListRecent(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestListToday_QueriesFromLocalMidnight(t *testing.T) {
	var gotStart, gotEnd int64
	repo := &mockPlaylogRepo{
		listByRangeFunc: func(_ context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error) {
			gotStart, gotEnd = startUnix, endUnix
			return []*model.PlaylogRecord{samplePlaylog(startUnix + 3600)}, nil
		},
	}
	h := NewPlaylogHandler(repo, newTestLogger())

	now := time.Date(2026, 1, 23, 15, 45, 0, 0, time.Local)
	h.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/api/today", nil)
	rec := httptest.NewRecorder()
	h.ListToday(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	wantStart := time.Date(2026, 1, 23, 0, 0, 0, 0, time.Local).Unix()
	if gotStart != wantStart {
		t.Errorf("startUnix = %d, want %d", gotStart, wantStart)
	}
	if gotEnd != now.Unix()+1 {
		t.Errorf("endUnix = %d, want %d", gotEnd, now.Unix()+1)
	}

	var resp playlogListResponse
	decodeJSON(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestListToday_WithDateParam(t *testing.T) {
	var gotStart, gotEnd int64
	repo := &mockPlaylogRepo{
		listByRangeFunc: func(_ context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error) {
			gotStart, gotEnd = startUnix, endUnix
			return nil, nil
		},
	}
	h := NewPlaylogHandler(repo, newTestLogger())
	h.now = func() time.Time { return time.Date(2026, 1, 23, 15, 45, 0, 0, time.Local) }

	req := httptest.NewRequest(http.MethodGet, "/api/today?date=2026-01-10", nil)
	rec := httptest.NewRecorder()
	h.ListToday(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	day := time.Date(2026, 1, 10, 0, 0, 0, 0, time.Local)
	if gotStart != day.Unix() {
		t.Errorf("startUnix = %d, want %d", gotStart, day.Unix())
	}
	if gotEnd != day.AddDate(0, 0, 1).Unix() {
		t.Errorf("endUnix = %d, want %d", gotEnd, day.AddDate(0, 0, 1).Unix())
	}
}

func TestListToday_InvalidDateParam(t *testing.T) {
	h := NewPlaylogHandler(&mockPlaylogRepo{}, newTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/today?date=2026%2F01%2F10", nil)
	rec := httptest.NewRecorder()
	h.ListToday(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
