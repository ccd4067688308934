package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/otolog/internal/model"
	"github.com/hitoshi/otolog/internal/songdata"
)

// --- モック定義 ---

// mockPlaylogRepo はPlaylogRepositoryのテスト用モック。
type mockPlaylogRepo struct {
	listRecentFunc  func(ctx context.Context, limit int) ([]*model.PlaylogRecord, error)
	listByRangeFunc func(ctx context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error)
}

func (m *mockPlaylogRepo) InsertBatch(ctx context.Context, records []*model.PlaylogRecord) (int, error) {
	return len(records), nil
}

func (m *mockPlaylogRepo) ListRecent(ctx context.Context, limit int) ([]*model.PlaylogRecord, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockPlaylogRepo) ListByRange(ctx context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error) {
	if m.listByRangeFunc != nil {
		return m.listByRangeFunc(ctx, startUnix, endUnix)
	}
	return nil, nil
}

func (m *mockPlaylogRepo) Count(ctx context.Context) (int, error) {
	return 0, nil
}

// mockScoreRepo はScoreRepositoryのテスト用モック。
type mockScoreRepo struct {
	searchByTitleFunc func(ctx context.Context, query string) ([]*model.ScoreRecord, error)
	listRatedFunc     func(ctx context.Context) ([]*model.ScoreRecord, error)
	findByChartFunc   func(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (*model.ScoreRecord, error)
}

func (m *mockScoreRepo) ReplaceAll(ctx context.Context, records []*model.ScoreRecord) error {
	return nil
}

func (m *mockScoreRepo) FindByChart(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (*model.ScoreRecord, error) {
	if m.findByChartFunc != nil {
		return m.findByChartFunc(ctx, title, chartType, diffCategory)
	}
	return nil, nil
}

func (m *mockScoreRepo) HasRecordedAchievement(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (bool, error) {
	return false, nil
}

func (m *mockScoreRepo) ListRated(ctx context.Context) ([]*model.ScoreRecord, error) {
	if m.listRatedFunc != nil {
		return m.listRatedFunc(ctx)
	}
	return nil, nil
}

func (m *mockScoreRepo) SearchByTitle(ctx context.Context, query string) ([]*model.ScoreRecord, error) {
	if m.searchByTitleFunc != nil {
		return m.searchByTitleFunc(ctx, query)
	}
	return nil, nil
}

// mockStateRepo はAppStateRepositoryのテスト用モック。
type mockStateRepo struct {
	ints    map[string]int64
	strings map[string]string
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{
		ints:    make(map[string]int64),
		strings: make(map[string]string),
	}
}

func (m *mockStateRepo) Get(ctx context.Context, key string) (*model.CursorValue, error) {
	v, ok := m.strings[key]
	if !ok {
		return nil, nil
	}
	return &model.CursorValue{Value: v, UpdatedAt: time.Date(2026, 1, 23, 12, 40, 0, 0, time.UTC)}, nil
}

func (m *mockStateRepo) GetInt(ctx context.Context, key string) (*int64, error) {
	v, ok := m.ints[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *mockStateRepo) Set(ctx context.Context, key, value string, updatedAt time.Time) error {
	m.strings[key] = value
	return nil
}

func (m *mockStateRepo) SetInt(ctx context.Context, key string, value int64, updatedAt time.Time) error {
	m.ints[key] = value
	return nil
}

// mockSyncRunner はSyncRunnerのテスト用モック。
type mockSyncRunner struct {
	tryRunCycleFunc func(ctx context.Context) (model.SyncResult, error)
}

func (m *mockSyncRunner) TryRunCycle(ctx context.Context) (model.SyncResult, error) {
	if m.tryRunCycleFunc != nil {
		return m.tryRunCycleFunc(ctx)
	}
	return model.SyncResultSynced, nil
}

// mockPinger はDBPingerのテスト用モック。
type mockPinger struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockIndexProvider はSongIndexProviderのテスト用モック。
type mockIndexProvider struct {
	idx *songdata.Index
}

func (m *mockIndexProvider) Current() *songdata.Index {
	return m.idx
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗した: %v", err)
	}
}
