package wallet

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finpak/go-wallet-core/pkg/money"
)

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never return delivery problems to the ledger path.
type Notifier interface {
	Notify(ctx context.Context, ownerID, kind string, payload map[string]interface{})
}

const (
	NotifyCredited = "wallet.credited"
	NotifyDebited  = "wallet.debited"
)

// Service is the single source of truth for balance mutation. All writes to
// wallets and wallet_balance_history go through here or through the transfer
// flow in the transaction package; nothing else touches those rows.
type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// GetBalance returns the owner's active primary wallet.
func (s *Service) GetBalance(ctx context.Context, ownerID string) (*Wallet, error) {
	return s.repo.GetPrimaryWallet(ctx, ownerID)
}

func (s *Service) CreateWallet(ctx context.Context, ownerID uuid.UUID, currency, pinHash string) (*Wallet, error) {
	return s.createWallet(ctx, ownerID, currency, pinHash, false)
}

// CreatePrimaryWallet is called at onboarding. The partial unique index on
// (user_id) where is_primary enforces at most one primary wallet per owner.
func (s *Service) CreatePrimaryWallet(ctx context.Context, ownerID uuid.UUID, currency, pinHash string) (*Wallet, error) {
	return s.createWallet(ctx, ownerID, currency, pinHash, true)
}

func (s *Service) createWallet(ctx context.Context, ownerID uuid.UUID, currency, pinHash string, primary bool) (*Wallet, error) {
	wallet := Wallet{
		UserID:       ownerID,
		WalletNumber: generateWalletNumber(),
		Balance:      money.Zero(),
		Currency:     currency,
		Status:       StatusActive,
		IsPrimary:    primary,
		PinHash:      pinHash,
	}
	if err := s.repo.CreateWallet(ctx, &wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return &wallet, nil
}

// UpdateBalance applies a single credit or debit and records exactly one
// history row. Notification failure after commit never affects the result.
func (s *Service) UpdateBalance(ctx context.Context, walletID string, amount decimal.Decimal, changeType ChangeType, referenceID, referenceType, notes string) (*Wallet, error) {
	if !money.IsValidAmount(amount) {
		return nil, ErrInvalidAmount
	}

	updated, err := s.repo.UpdateBalance(ctx, walletID, amount, changeType, referenceID, referenceType, notes)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		kind := NotifyCredited
		if changeType == ChangeDebit {
			kind = NotifyDebited
		}
		s.notifier.Notify(ctx, updated.UserID.String(), kind, map[string]interface{}{
			"wallet_id":      updated.ID.String(),
			"amount":         amount.String(),
			"new_balance":    updated.Balance.String(),
			"currency":       updated.Currency,
			"reference_id":   referenceID,
			"reference_type": referenceType,
		})
	}

	return updated, nil
}

func (s *Service) History(ctx context.Context, walletID string, limit, offset int) ([]BalanceHistory, int64, error) {
	entries, err := s.repo.History(ctx, walletID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountHistory(ctx, walletID)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (s *Service) GetWalletByNumber(ctx context.Context, number string) (*Wallet, error) {
	return s.repo.GetWalletByNumber(ctx, number)
}

func (s *Service) CloseWallet(ctx context.Context, walletID string) error {
	return s.repo.CloseWallet(ctx, walletID)
}

func generateWalletNumber() string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%010d", r.Int63n(10000000000))
}
