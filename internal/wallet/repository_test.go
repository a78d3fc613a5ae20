package wallet

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_URL not set, skipping database tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(&Wallet{}, &BalanceHistory{}))
	require.NoError(t, db.Exec("TRUNCATE wallets, wallet_balance_history CASCADE").Error)

	return db
}

func seedWallet(t *testing.T, db *gorm.DB, balance string) *Wallet {
	t.Helper()

	w := &Wallet{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		WalletNumber: uuid.NewString()[:10],
		Balance:      decimal.RequireFromString(balance),
		Currency:     "PKR",
		Status:       StatusActive,
		IsPrimary:    true,
		PinHash:      "hash",
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func TestUpdateBalanceCreditAndDebit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "100.00")

	updated, err := repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("50.00"), ChangeCredit, "ref-1", "transaction", "")
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("150.00")))

	updated, err = repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("30.00"), ChangeDebit, "ref-2", "transaction", "")
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("120.00")))

	entries, err := repo.History(ctx, w.ID.String(), 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestUpdateBalanceRejectsOverdraft(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "20.00")

	_, err := repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("20.01"), ChangeDebit, "ref-1", "transaction", "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// failed debit leaves no trace
	count, err := repo.CountHistory(ctx, w.ID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	current, err := repo.GetWalletByID(ctx, w.ID.String())
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(decimal.RequireFromString("20.00")))
}

func TestUpdateBalanceToExactlyZero(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "20.00")

	updated, err := repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("20.00"), ChangeDebit, "ref-1", "transaction", "")
	require.NoError(t, err)
	assert.True(t, updated.Balance.IsZero())
}

func TestUpdateBalanceUnknownOrInactiveWallet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.UpdateBalance(ctx, uuid.NewString(), decimal.RequireFromString("10.00"), ChangeCredit, "ref-1", "transaction", "")
	assert.ErrorIs(t, err, ErrWalletNotFound)

	w := seedWallet(t, db, "100.00")
	require.NoError(t, repo.CloseWallet(ctx, w.ID.String()))

	_, err = repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("10.00"), ChangeCredit, "ref-2", "transaction", "")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "100.00")

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString("30.00"), ChangeDebit, uuid.NewString(), "transaction", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 3, succeeded)

	current, err := repo.GetWalletByID(ctx, w.ID.String())
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(decimal.RequireFromString("10.00")))
}

func TestHistoryReconstructsBalance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "0.00")

	amounts := []struct {
		amount string
		change ChangeType
	}{
		{"100.00", ChangeCredit},
		{"40.00", ChangeDebit},
		{"15.50", ChangeCredit},
		{"0.50", ChangeDebit},
	}
	for i, a := range amounts {
		_, err := repo.UpdateBalance(ctx, w.ID.String(), decimal.RequireFromString(a.amount), a.change, uuid.NewString(), "transaction", "")
		require.NoError(t, err, "mutation %d", i)
	}

	entries, err := repo.History(ctx, w.ID.String(), 100, 0)
	require.NoError(t, err)
	require.Len(t, entries, len(amounts))

	replayed := decimal.Zero
	for _, e := range entries {
		if e.ChangeType == ChangeCredit {
			replayed = replayed.Add(e.ChangeAmount)
		} else {
			replayed = replayed.Sub(e.ChangeAmount)
		}
		assert.True(t, e.NewBalance.Sub(e.OldBalance).Abs().Equal(e.ChangeAmount))
	}

	current, err := repo.GetWalletByID(ctx, w.ID.String())
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(replayed))
}

func TestCloseWalletIsNotRepeatable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "0.00")

	require.NoError(t, repo.CloseWallet(ctx, w.ID.String()))
	assert.ErrorIs(t, repo.CloseWallet(ctx, w.ID.String()), ErrWalletNotFound)

	// the row survives closure
	closed, err := repo.GetWalletByID(ctx, w.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
}

func TestGetPrimaryWallet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w := seedWallet(t, db, "75.00")

	found, err := repo.GetPrimaryWallet(ctx, w.UserID.String())
	require.NoError(t, err)
	assert.Equal(t, w.ID, found.ID)

	_, err = repo.GetPrimaryWallet(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrWalletNotFound)
}
