package wallet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateStoreError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"query cancelled", &pgconn.PgError{Code: "57014"}, true},
		{"wrapped deadlock", fmt.Errorf("tx failed: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation passes through", &pgconn.PgError{Code: "23505"}, false},
		{"plain error passes through", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateStoreError(tt.err)
			assert.Equal(t, tt.conflict, errors.Is(got, ErrConflict))
			if !tt.conflict {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestTranslateStoreErrorNil(t *testing.T) {
	assert.NoError(t, TranslateStoreError(nil))
}

func TestTranslateStoreErrorKeepsSentinels(t *testing.T) {
	assert.ErrorIs(t, TranslateStoreError(ErrInsufficientBalance), ErrInsufficientBalance)
	assert.ErrorIs(t, TranslateStoreError(ErrWalletNotFound), ErrWalletNotFound)
}
