package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrTransient marks store contention or timeout failures that are safe
// to retry. Callers match it with errors.Is.
var ErrTransient = errors.New("transient_failure")

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsTransientErr reports whether err is a retryable store failure:
// context timeouts on the transaction, serialization conflicts, or
// lock contention.
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()

	// PostgreSQL serialization failure (40001) and deadlock (40P01)
	if strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected") {
		return true
	}

	// MySQL lock wait timeout (1205) and deadlock (1213)
	if strings.Contains(msg, "Error 1205") || strings.Contains(msg, "Error 1213") {
		return true
	}

	// SQLite busy
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return true
	}

	return false
}

// AsTransient wraps err in ErrTransient when it is retryable, otherwise
// returns err unchanged.
func AsTransient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) {
		return err
	}
	if IsTransientErr(err) {
		return errors.Join(ErrTransient, err)
	}
	return err
}
