package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/otolog/internal/model"
)

// PostgresScoreRepo はPostgreSQLを使用したベストスコアリポジトリ。
type PostgresScoreRepo struct {
	db *sql.DB
}

// NewPostgresScoreRepo はPostgresScoreRepoを生成する。
func NewPostgresScoreRepo(db *sql.DB) *PostgresScoreRepo {
	return &PostgresScoreRepo{db: db}
}

// ReplaceAll はスナップショット全体を1トランザクションで置き換える。
// 全削除と全挿入を同一トランザクションで行うため、途中で失敗しても
// 読み取り側が部分的に置き換わったスナップショットを観測することはない。
func (r *PostgresScoreRepo) ReplaceAll(ctx context.Context, records []*model.ScoreRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("スコアスナップショットの削除に失敗しました: %w", err)
	}

	for _, rec := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scores (
			    title, chart_type, diff_category, level,
			    achievement_x10000, rank, fc, sync,
			    dx_score, dx_score_max, source_idx, scraped_at
			 )
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (title, chart_type, diff_category) DO UPDATE SET
			    level = EXCLUDED.level,
			    achievement_x10000 = EXCLUDED.achievement_x10000,
			    rank = EXCLUDED.rank,
			    fc = EXCLUDED.fc,
			    sync = EXCLUDED.sync,
			    dx_score = EXCLUDED.dx_score,
			    dx_score_max = EXCLUDED.dx_score_max,
			    source_idx = EXCLUDED.source_idx,
			    scraped_at = EXCLUDED.scraped_at`,
			rec.Title, string(rec.ChartType), string(rec.DiffCategory), rec.Level,
			rec.AchievementX10000, nullString(rec.Rank), nullString(rec.Fc), nullString(rec.Sync),
			rec.DxScore, rec.DxScoreMax, nullString(rec.SourceIdx), rec.ScrapedAt,
		)
		if err != nil {
			return fmt.Errorf("スコアの挿入に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindByChart は指定チャートのスコアを取得する。見つからない場合はnilを返す。
func (r *PostgresScoreRepo) FindByChart(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (*model.ScoreRecord, error) {
	row := r.db.QueryRowContext(ctx,
		selectScoreColumns+`
		 FROM scores
		 WHERE title = $1 AND chart_type = $2 AND diff_category = $3`,
		title, string(chartType), string(diffCategory),
	)

	rec, err := scanScoreRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スコアの取得に失敗しました: %w", err)
	}
	return rec, nil
}

// HasRecordedAchievement は指定チャートに達成率が記録済みかどうかを返す。
func (r *PostgresScoreRepo) HasRecordedAchievement(ctx context.Context, title string, chartType model.ChartType, diffCategory model.DifficultyCategory) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1
		 FROM scores
		 WHERE title = $1 AND chart_type = $2 AND diff_category = $3
		   AND achievement_x10000 IS NOT NULL
		 LIMIT 1`,
		title, string(chartType), string(diffCategory),
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("既存スコアの照会に失敗しました: %w", err)
	}
	return true, nil
}

// ListRated は達成率が記録されている全スコアを取得する。
func (r *PostgresScoreRepo) ListRated(ctx context.Context) ([]*model.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectScoreColumns+`
		 FROM scores
		 WHERE achievement_x10000 IS NOT NULL
		 ORDER BY title, chart_type, diff_category`,
	)
	if err != nil {
		return nil, fmt.Errorf("スコア一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanScoreRows(rows)
}

// SearchByTitle はタイトルの部分一致でスコアを検索する。
func (r *PostgresScoreRepo) SearchByTitle(ctx context.Context, query string) ([]*model.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectScoreColumns+`
		 FROM scores
		 WHERE title ILIKE '%' || $1 || '%' AND achievement_x10000 IS NOT NULL
		 ORDER BY title`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("タイトルによるスコア検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanScoreRows(rows)
}

const selectScoreColumns = `SELECT title, chart_type, diff_category, level,
        achievement_x10000, rank, fc, sync,
        dx_score, dx_score_max, source_idx, scraped_at`

// scanScoreRow は1行分のスキャン関数からScoreRecordを組み立てる。
func scanScoreRow(scan func(dest ...any) error) (*model.ScoreRecord, error) {
	rec := &model.ScoreRecord{}
	var chartType, diffCategory string
	var rank, fc, syncStatus, sourceIdx sql.NullString

	if err := scan(
		&rec.Title, &chartType, &diffCategory, &rec.Level,
		&rec.AchievementX10000, &rank, &fc, &syncStatus,
		&rec.DxScore, &rec.DxScoreMax, &sourceIdx, &rec.ScrapedAt,
	); err != nil {
		return nil, err
	}

	rec.ChartType = model.ChartType(chartType)
	rec.DiffCategory = model.DifficultyCategory(diffCategory)
	rec.Rank = nullStringValue(rank)
	rec.Fc = nullStringValue(fc)
	rec.Sync = nullStringValue(syncStatus)
	rec.SourceIdx = nullStringValue(sourceIdx)
	return rec, nil
}

// scanScoreRows は検索結果の行をScoreRecordに変換する。
func scanScoreRows(rows *sql.Rows) ([]*model.ScoreRecord, error) {
	var records []*model.ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("スコア行の読み取りに失敗しました: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スコア一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// compile-time interface check
var _ ScoreRepository = (*PostgresScoreRepo)(nil)
