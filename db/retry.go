package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fitforge/server/apperr"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// InTx runs fn inside a transaction, retrying up to attempts times on
// transient store contention (lock/deadlock/busy). Business-rule errors from
// the apperr taxonomy are never retried. When the budget is exhausted the
// last transient failure is surfaced as apperr.Conflict.
func InTx(ctx context.Context, gdb *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := gdb.WithContext(ctx).Transaction(fn)
		if txErr == nil {
			return nil
		}
		if transient(txErr) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err == nil {
		return nil
	}
	if transient(err) {
		return apperr.Conflict("storage contention: %v", err)
	}
	return err
}

// transient reports whether err looks like lock contention rather than a
// business or programming error.
func transient(err error) bool {
	if err == nil {
		return false
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "busy")
}
