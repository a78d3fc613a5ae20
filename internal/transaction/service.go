package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finpak/go-wallet-core/internal/wallet"
	"github.com/finpak/go-wallet-core/pkg/logger"
	"github.com/finpak/go-wallet-core/pkg/money"
)

const (
	NotifyTransferSent     = "transfer.sent"
	NotifyTransferReceived = "transfer.received"
	NotifyTopUp            = "wallet.topup"

	// collisions on the reference unique index are retried this many times
	// before surfacing as an internal error
	maxReferenceAttempts = 3
)

type Service struct {
	repo     Repository
	notifier wallet.Notifier
}

func NewService(repo Repository, notifier wallet.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// ProcessTransfer moves funds between the primary wallets of two owners as a
// single atomic unit. Notifications go out only after the commit; their
// failure never unwinds the transfer.
func (s *Service) ProcessTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amount decimal.Decimal, description string) (*Transaction, error) {
	if !money.IsValidAmount(amount) {
		return nil, wallet.ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	result, err := s.withFreshReference(func(reference string) (*Transaction, error) {
		return s.repo.ProcessTransfer(ctx, TransferInput{
			SenderID:    senderID,
			ReceiverID:  receiverID,
			Amount:      amount,
			Fee:         decimal.Zero,
			Reference:   reference,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, senderID.String(), NotifyTransferSent, result)
	s.notify(ctx, receiverID.String(), NotifyTransferReceived, result)

	return result, nil
}

func (s *Service) TopUp(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, method, description string) (*Transaction, error) {
	if !money.IsValidAmount(amount) {
		return nil, wallet.ErrInvalidAmount
	}
	if method == "" {
		method = "external"
	}

	result, err := s.withFreshReference(func(reference string) (*Transaction, error) {
		return s.repo.TopUp(ctx, TopUpInput{
			OwnerID:     ownerID,
			Amount:      amount,
			Reference:   reference,
			Method:      method,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, ownerID.String(), NotifyTopUp, result)

	return result, nil
}

type CreateInput struct {
	Type          Type
	SenderID      *uuid.UUID
	ReceiverID    *uuid.UUID
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	Currency      string
	PaymentMethod string
	Description   string
	Metadata      Metadata
}

// CreateTransaction records a pending transaction without touching balances.
// Settlement is the caller's responsibility (bill-payment receipts and the
// like), a deliberately looser contract than ProcessTransfer.
func (s *Service) CreateTransaction(ctx context.Context, in CreateInput) (*Transaction, error) {
	if !money.IsValidAmount(in.Amount) {
		return nil, wallet.ErrInvalidAmount
	}
	if in.Fee.IsNegative() {
		return nil, wallet.ErrInvalidAmount
	}
	if in.Type == TypeTransfer && (in.SenderID == nil || in.ReceiverID == nil) {
		return nil, ErrInvalidParticipants
	}
	if in.SenderID == nil && in.ReceiverID == nil {
		return nil, ErrInvalidParticipants
	}

	return s.withFreshReference(func(reference string) (*Transaction, error) {
		row := Transaction{
			Reference:     reference,
			SenderID:      in.SenderID,
			ReceiverID:    in.ReceiverID,
			Amount:        in.Amount,
			FeeAmount:     in.Fee,
			TotalAmount:   in.Amount.Add(in.Fee),
			Currency:      in.Currency,
			Type:          in.Type,
			PaymentMethod: in.PaymentMethod,
			Status:        StatusPending,
			Description:   in.Description,
			Metadata:      in.Metadata,
		}
		if err := s.repo.Create(ctx, &row); err != nil {
			return nil, err
		}
		return &row, nil
	})
}

// CancelTransaction is allowed only while the transaction is pending.
// Completed transfers are never reversed here; that takes a new compensating
// transfer.
func (s *Service) CancelTransaction(ctx context.Context, id, reason string) (*Transaction, error) {
	return s.repo.Cancel(ctx, id, reason)
}

func (s *Service) ReconcileTransactions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.Reconcile(ctx, ids)
}

func (s *Service) GetUnreconciledTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repo.GetUnreconciled(ctx, limit)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Transaction, int64, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (s *Service) withFreshReference(attempt func(reference string) (*Transaction, error)) (*Transaction, error) {
	var lastErr error
	for i := 0; i < maxReferenceAttempts; i++ {
		reference := GenerateReference()
		result, err := attempt(reference)
		if errors.Is(err, ErrReferenceCollision) {
			logger.Warn("Transaction reference collision, regenerating", logger.Fields{
				logger.ReferenceKey: reference,
				"attempt":           i + 1,
			})
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("could not allocate a unique reference after %d attempts: %w", maxReferenceAttempts, lastErr)
}

func (s *Service) notify(ctx context.Context, ownerID, kind string, tx *Transaction) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, ownerID, kind, map[string]interface{}{
		"reference": tx.Reference,
		"amount":    tx.Amount.String(),
		"currency":  tx.Currency,
		"type":      string(tx.Type),
		"status":    string(tx.Status),
	})
}
