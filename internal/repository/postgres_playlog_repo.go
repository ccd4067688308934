package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/otolog/internal/model"
)

// PostgresPlaylogRepo はPostgreSQLを使用したプレイ履歴リポジトリ。
type PostgresPlaylogRepo struct {
	db *sql.DB
}

// NewPostgresPlaylogRepo はPostgresPlaylogRepoを生成する。
func NewPostgresPlaylogRepo(db *sql.DB) *PostgresPlaylogRepo {
	return &PostgresPlaylogRepo{db: db}
}

// InsertBatch はプレイ履歴を1トランザクションで挿入する。
// ON CONFLICT DO NOTHINGにより、既存キーの行は新しい値を一切反映せず破棄される。
// 後続の不安定なスクレイプが確定済みの履歴を壊さないための挿入専用セマンティクス。
func (r *PostgresPlaylogRepo) InsertBatch(ctx context.Context, records []*model.PlaylogRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, rec := range records {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO playlogs (
			    played_at_unixtime, played_at, track, credit_play_count,
			    title, chart_type, diff_category, level,
			    achievement_x10000, achievement_new_record, first_play,
			    score_rank, fc, sync, dx_score, dx_score_max, scraped_at
			 )
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			 ON CONFLICT (played_at_unixtime) DO NOTHING`,
			rec.PlayedAtUnix, nullString(rec.PlayedAt), rec.Track, rec.CreditPlayCount,
			rec.Title, string(rec.ChartType), nullString(string(rec.DiffCategory)), nullString(rec.Level),
			rec.AchievementX10000, rec.NewRecord, rec.FirstPlay,
			nullString(rec.ScoreRank), nullString(rec.Fc), nullString(rec.Sync),
			rec.DxScore, rec.DxScoreMax, rec.ScrapedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("プレイ履歴の挿入に失敗しました: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("挿入結果の取得に失敗しました: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return inserted, nil
}

// ListRecent は新しい順にプレイ履歴を取得する。
func (r *PostgresPlaylogRepo) ListRecent(ctx context.Context, limit int) ([]*model.PlaylogRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectPlaylogColumns+`
		 FROM playlogs
		 ORDER BY played_at_unixtime DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("プレイ履歴一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPlaylogRows(rows)
}

// ListByRange は[startUnix, endUnix)の範囲のプレイ履歴を新しい順に取得する。
func (r *PostgresPlaylogRepo) ListByRange(ctx context.Context, startUnix, endUnix int64) ([]*model.PlaylogRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		selectPlaylogColumns+`
		 FROM playlogs
		 WHERE played_at_unixtime >= $1 AND played_at_unixtime < $2
		 ORDER BY played_at_unixtime DESC`,
		startUnix, endUnix,
	)
	if err != nil {
		return nil, fmt.Errorf("期間指定のプレイ履歴取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPlaylogRows(rows)
}

// Count は台帳の総行数を返す。
func (r *PostgresPlaylogRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlogs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("プレイ履歴の件数取得に失敗しました: %w", err)
	}
	return count, nil
}

const selectPlaylogColumns = `SELECT played_at_unixtime, played_at, track, credit_play_count,
        title, chart_type, diff_category, level,
        achievement_x10000, achievement_new_record, first_play,
        score_rank, fc, sync, dx_score, dx_score_max, scraped_at`

// scanPlaylogRows は検索結果の行をPlaylogRecordに変換する。
func scanPlaylogRows(rows *sql.Rows) ([]*model.PlaylogRecord, error) {
	var records []*model.PlaylogRecord
	for rows.Next() {
		rec := &model.PlaylogRecord{}
		var playedAt, diffCategory, level, scoreRank, fc, syncStatus sql.NullString
		var chartType string

		if err := rows.Scan(
			&rec.PlayedAtUnix, &playedAt, &rec.Track, &rec.CreditPlayCount,
			&rec.Title, &chartType, &diffCategory, &level,
			&rec.AchievementX10000, &rec.NewRecord, &rec.FirstPlay,
			&scoreRank, &fc, &syncStatus, &rec.DxScore, &rec.DxScoreMax, &rec.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("プレイ履歴行の読み取りに失敗しました: %w", err)
		}

		rec.PlayedAt = nullStringValue(playedAt)
		rec.ChartType = model.ChartType(chartType)
		rec.DiffCategory = model.DifficultyCategory(nullStringValue(diffCategory))
		rec.Level = nullStringValue(level)
		rec.ScoreRank = nullStringValue(scoreRank)
		rec.Fc = nullStringValue(fc)
		rec.Sync = nullStringValue(syncStatus)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プレイ履歴一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// compile-time interface check
var _ PlaylogRepository = (*PostgresPlaylogRepo)(nil)
