package pkg

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// WithTx runs fn inside a transaction bound to ctx. The transaction is
// committed when fn succeeds and ctx is still live; it is rolled back when
// fn returns an error, panics, or ctx is done before commit.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			rollback(ctx, tx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(ctx, tx)
		return err
	}
	if err := ctx.Err(); err != nil {
		rollback(ctx, tx)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func rollback(ctx context.Context, tx *gorm.DB) {
	if err := tx.Rollback().Error; err != nil {
		slog.WarnContext(ctx, "transaction rollback failed", slog.Any("error", err))
	}
}
