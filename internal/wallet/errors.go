package wallet

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found or not active")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidChangeType   = errors.New("invalid change type")

	// ErrConflict wraps lock timeouts, deadlocks and serialization failures.
	// Nothing committed, so the whole operation is safe to retry.
	ErrConflict = errors.New("transaction conflict")
)

// TranslateStoreError surfaces retriable driver failures as ErrConflict so
// callers can match them with errors.Is. Everything else passes through.
func TranslateStoreError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014": // query_canceled (statement/lock timeout)
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Code)
		}
	}
	return err
}
