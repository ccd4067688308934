package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/hitoshi/otolog/internal/model"
)

// PostgresAppStateRepo はPostgreSQLを使用したキー/バリューリポジトリ。
// 同期カーソル（累計プレイ回数・レーティング）の保存に使用する。
type PostgresAppStateRepo struct {
	db *sql.DB
}

// NewPostgresAppStateRepo はPostgresAppStateRepoを生成する。
func NewPostgresAppStateRepo(db *sql.DB) *PostgresAppStateRepo {
	return &PostgresAppStateRepo{db: db}
}

// Get は指定キーの値を取得する。見つからない場合はnilを返す。
func (r *PostgresAppStateRepo) Get(ctx context.Context, key string) (*model.CursorValue, error) {
	cv := &model.CursorValue{}
	err := r.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM app_state WHERE key = $1`,
		key,
	).Scan(&cv.Value, &cv.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("app_stateの取得に失敗しました: %w", err)
	}
	return cv, nil
}

// GetInt は指定キーの値を整数として取得する。見つからない場合はnilを返す。
func (r *PostgresAppStateRepo) GetInt(ctx context.Context, key string) (*int64, error) {
	cv, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(cv.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("app_stateの整数パースに失敗しました (key=%s): %w", key, err)
	}
	return &parsed, nil
}

// Set は値と更新時刻を原子的に書き込む。
func (r *PostgresAppStateRepo) Set(ctx context.Context, key, value string, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_state (key, value, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET
		    value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at`,
		key, value, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("app_stateの書き込みに失敗しました: %w", err)
	}
	return nil
}

// SetInt は整数値を書き込む。
func (r *PostgresAppStateRepo) SetInt(ctx context.Context, key string, value int64, updatedAt time.Time) error {
	return r.Set(ctx, key, strconv.FormatInt(value, 10), updatedAt)
}

// compile-time interface check
var _ AppStateRepository = (*PostgresAppStateRepo)(nil)
