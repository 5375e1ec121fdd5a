package apperrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// FromDatabase 把死結與序列化失敗轉成可重試的衝突，其他錯誤原樣回傳
func FromDatabase(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgDeadlockDetected, pgSerializationFailure:
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	}
	return err
}
