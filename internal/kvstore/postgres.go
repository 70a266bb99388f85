package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type PGStore struct {
	DB sqlx.ExtContext
}

func NewPGStore(db sqlx.ExtContext) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, scope, key string) (*Entry, error) {
	var e Entry
	query := `SELECT scope, key, blob, version, updated_at FROM app_kv_store WHERE scope = $1 AND key = $2`
	if err := sqlx.GetContext(ctx, s.DB, &e, query, scope, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s/%s: %w", scope, key, err)
	}
	return &e, nil
}

func (s *PGStore) Put(ctx context.Context, scope, key string, blob []byte, expectedVersion int64) (int64, error) {
	now := time.Now().UTC()

	var (
		res sql.Result
		err error
	)
	if expectedVersion == 0 {
		res, err = s.DB.ExecContext(ctx, `
            INSERT INTO app_kv_store (scope, key, blob, version, updated_at)
            VALUES ($1, $2, $3, 1, $4)
            ON CONFLICT (scope, key) DO NOTHING
        `, scope, key, string(blob), now)
	} else {
		res, err = s.DB.ExecContext(ctx, `
            UPDATE app_kv_store SET blob = $1, version = version + 1, updated_at = $2
            WHERE scope = $3 AND key = $4 AND version = $5
        `, string(blob), now, scope, key, expectedVersion)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write %s/%s: %w", scope, key, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}
