package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWalletRepo struct {
	wallets map[string]*Wallet
	updates int
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]*Wallet)}
}

func (f *fakeWalletRepo) CreateWallet(ctx context.Context, w *Wallet) error {
	w.ID = uuid.New()
	f.wallets[w.ID.String()] = w
	return nil
}

func (f *fakeWalletRepo) GetPrimaryWallet(ctx context.Context, userID string) (*Wallet, error) {
	for _, w := range f.wallets {
		if w.UserID.String() == userID && w.IsPrimary {
			return w, nil
		}
	}
	return nil, ErrWalletNotFound
}

func (f *fakeWalletRepo) GetWalletByID(ctx context.Context, walletID string) (*Wallet, error) {
	if w, ok := f.wallets[walletID]; ok {
		return w, nil
	}
	return nil, ErrWalletNotFound
}

func (f *fakeWalletRepo) GetWalletByNumber(ctx context.Context, number string) (*Wallet, error) {
	for _, w := range f.wallets {
		if w.WalletNumber == number {
			return w, nil
		}
	}
	return nil, ErrWalletNotFound
}

func (f *fakeWalletRepo) UpdateBalance(ctx context.Context, walletID string, amount decimal.Decimal, changeType ChangeType, referenceID, referenceType, notes string) (*Wallet, error) {
	w, ok := f.wallets[walletID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	f.updates++
	if changeType == ChangeCredit {
		w.Balance = w.Balance.Add(amount)
	} else {
		next := w.Balance.Sub(amount)
		if next.IsNegative() {
			return nil, ErrInsufficientBalance
		}
		w.Balance = next
	}
	return w, nil
}

func (f *fakeWalletRepo) CloseWallet(ctx context.Context, walletID string) error {
	w, ok := f.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Status = StatusClosed
	return nil
}

func (f *fakeWalletRepo) History(ctx context.Context, walletID string, limit, offset int) ([]BalanceHistory, error) {
	return nil, nil
}

func (f *fakeWalletRepo) CountHistory(ctx context.Context, walletID string) (int64, error) {
	return 0, nil
}

type recordingNotifier struct {
	kinds    []string
	payloads []map[string]interface{}
}

func (n *recordingNotifier) Notify(ctx context.Context, ownerID, kind string, payload map[string]interface{}) {
	n.kinds = append(n.kinds, kind)
	n.payloads = append(n.payloads, payload)
}

func TestCreatePrimaryWallet(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, nil)

	owner := uuid.New()
	w, err := svc.CreatePrimaryWallet(context.Background(), owner, "PKR", "pin-hash")
	require.NoError(t, err)

	assert.Equal(t, owner, w.UserID)
	assert.True(t, w.IsPrimary)
	assert.Equal(t, StatusActive, w.Status)
	assert.True(t, w.Balance.IsZero())
	assert.Len(t, w.WalletNumber, 10)

	found, err := svc.GetBalance(context.Background(), owner.String())
	require.NoError(t, err)
	assert.Equal(t, w.ID, found.ID)
}

func TestCreateWalletIsNotPrimary(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, nil)

	w, err := svc.CreateWallet(context.Background(), uuid.New(), "PKR", "pin-hash")
	require.NoError(t, err)
	assert.False(t, w.IsPrimary)
}

func TestUpdateBalanceRejectsInvalidAmounts(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, nil)

	tests := []string{"0", "-5.00", "1.005"}
	for _, raw := range tests {
		_, err := svc.UpdateBalance(context.Background(), uuid.NewString(), decimal.RequireFromString(raw), ChangeCredit, "ref", "transaction", "")
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %s", raw)
	}
	assert.Zero(t, repo.updates)
}

func TestUpdateBalanceNotifiesByDirection(t *testing.T) {
	repo := newFakeWalletRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier)

	w, err := svc.CreatePrimaryWallet(context.Background(), uuid.New(), "PKR", "pin-hash")
	require.NoError(t, err)

	_, err = svc.UpdateBalance(context.Background(), w.ID.String(), decimal.RequireFromString("100.00"), ChangeCredit, "ref-1", "transaction", "")
	require.NoError(t, err)

	_, err = svc.UpdateBalance(context.Background(), w.ID.String(), decimal.RequireFromString("40.00"), ChangeDebit, "ref-2", "transaction", "")
	require.NoError(t, err)

	require.Equal(t, []string{NotifyCredited, NotifyDebited}, notifier.kinds)
	assert.Equal(t, "100", notifier.payloads[0]["amount"])
	assert.Equal(t, "60", notifier.payloads[1]["new_balance"])
}

func TestUpdateBalanceFailureSkipsNotification(t *testing.T) {
	repo := newFakeWalletRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier)

	w, err := svc.CreatePrimaryWallet(context.Background(), uuid.New(), "PKR", "pin-hash")
	require.NoError(t, err)

	_, err = svc.UpdateBalance(context.Background(), w.ID.String(), decimal.RequireFromString("1.00"), ChangeDebit, "ref-1", "transaction", "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, notifier.kinds)
}

func TestGenerateWalletNumber(t *testing.T) {
	for i := 0; i < 20; i++ {
		number := generateWalletNumber()
		assert.Len(t, number, 10)
		for _, c := range number {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}
