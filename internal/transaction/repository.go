package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finpak/go-wallet-core/internal/wallet"
)

type TransferInput struct {
	SenderID    uuid.UUID
	ReceiverID  uuid.UUID
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Reference   string
	Description string
	Metadata    Metadata
}

type TopUpInput struct {
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Reference   string
	Method      string
	Description string
}

type Repository interface {
	ProcessTransfer(ctx context.Context, in TransferInput) (*Transaction, error)
	TopUp(ctx context.Context, in TopUpInput) (*Transaction, error)
	Create(ctx context.Context, tx *Transaction) error
	Cancel(ctx context.Context, id, reason string) (*Transaction, error)
	Reconcile(ctx context.Context, ids []uuid.UUID) (int64, error)
	GetUnreconciled(ctx context.Context, limit int) ([]Transaction, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	GetByReference(ctx context.Context, reference string) (*Transaction, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Transaction, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ProcessTransfer runs the whole transfer as one database transaction: both
// wallet mutations, both history rows and the transaction record commit
// together or not at all. It does not call wallet.UpdateBalance, which opens
// its own transaction; two separate commit points could leave a debit without
// its matching credit.
func (r *repository) ProcessTransfer(ctx context.Context, in TransferInput) (*Transaction, error) {
	var result Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sender, err := primaryWallet(tx, in.SenderID)
		if err != nil {
			return err
		}
		receiver, err := primaryWallet(tx, in.ReceiverID)
		if err != nil {
			return err
		}
		if sender.ID == receiver.ID {
			return ErrSelfTransfer
		}

		// Locks are taken in ascending wallet id order, not sender-first.
		// Two opposite-direction transfers between the same pair then queue
		// behind each other instead of deadlocking.
		for _, walletID := range sortedIDs(sender.ID, receiver.ID) {
			locked, err := lockWallet(tx, walletID)
			if err != nil {
				return err
			}
			if locked.ID == sender.ID {
				sender = locked
			} else {
				receiver = locked
			}
		}

		if sender.Currency != receiver.Currency {
			return ErrCurrencyMismatch
		}

		total := in.Amount.Add(in.Fee)
		if sender.Balance.LessThan(total) {
			return wallet.ErrInsufficientBalance
		}

		row := Transaction{
			Reference:        in.Reference,
			SenderID:         &in.SenderID,
			SenderWalletID:   &sender.ID,
			ReceiverID:       &in.ReceiverID,
			ReceiverWalletID: &receiver.ID,
			Amount:           in.Amount,
			FeeAmount:        in.Fee,
			TotalAmount:      total,
			Currency:         sender.Currency,
			Type:             TypeTransfer,
			PaymentMethod:    "wallet",
			Status:           StatusProcessing,
			Description:      in.Description,
			Metadata:         in.Metadata,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrReferenceCollision
			}
			return err
		}

		if err := applyChange(tx, sender, total, wallet.ChangeDebit, row.Reference, in.Description); err != nil {
			return err
		}
		if err := applyChange(tx, receiver, in.Amount, wallet.ChangeCredit, row.Reference, in.Description); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&Transaction{}).
			Where("id = ? AND status = ?", row.ID, StatusProcessing).
			Updates(map[string]interface{}{"status": StatusCompleted, "completed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		row.Status = StatusCompleted
		row.CompletedAt = &now
		result = row
		return nil
	})
	if err != nil {
		return nil, wallet.TranslateStoreError(err)
	}
	return &result, nil
}

// TopUp follows the same transactional pattern with a single wallet. The
// transaction record is inserted completed; there is no pending phase and no
// balance check, external credits cannot overdraw.
func (r *repository) TopUp(ctx context.Context, in TopUpInput) (*Transaction, error) {
	var result Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockPrimaryWallet(tx, in.OwnerID)
		if err != nil {
			return err
		}

		now := time.Now()
		row := Transaction{
			Reference:        in.Reference,
			SenderID:         &in.OwnerID,
			SenderWalletID:   &w.ID,
			ReceiverID:       &in.OwnerID,
			ReceiverWalletID: &w.ID,
			Amount:           in.Amount,
			FeeAmount:        decimal.Zero,
			TotalAmount:      in.Amount,
			Currency:         w.Currency,
			Type:             TypeTopUp,
			PaymentMethod:    in.Method,
			Status:           StatusCompleted,
			Description:      in.Description,
			CompletedAt:      &now,
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrReferenceCollision
			}
			return err
		}

		if err := applyChange(tx, w, in.Amount, wallet.ChangeCredit, row.Reference, in.Description); err != nil {
			return err
		}

		result = row
		return nil
	})
	if err != nil {
		return nil, wallet.TranslateStoreError(err)
	}
	return &result, nil
}

// Create inserts a bare pending record. Settlement, if any, is the caller's
// separate responsibility.
func (r *repository) Create(ctx context.Context, row *Transaction) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrReferenceCollision
	}
	return err
}

func (r *repository) Cancel(ctx context.Context, id, reason string) (*Transaction, error) {
	var row Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}

		res := tx.Model(&Transaction{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]interface{}{"status": StatusCancelled, "failure_reason": reason})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		row.Status = StatusCancelled
		row.FailureReason = reason
		return nil
	})
	if err != nil {
		return nil, wallet.TranslateStoreError(err)
	}
	return &row, nil
}

// Reconcile is fail-soft: ids that do not match a completed, unreconciled
// transaction are skipped and only the actual update count comes back.
func (r *repository) Reconcile(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id IN ? AND status = ? AND reconciled = ?", ids, StatusCompleted, false).
		Updates(map[string]interface{}{"reconciled": true, "reconciled_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *repository) GetUnreconciled(ctx context.Context, limit int) ([]Transaction, error) {
	var rows []Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND reconciled = ?", StatusCompleted, false).
		Order("completed_at asc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Transaction, error) {
	var rows []Transaction
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", ownerID, ownerID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

func (r *repository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("sender_id = ? OR receiver_id = ?", ownerID, ownerID).
		Count(&count).Error
	return count, err
}

// --- helpers ---

func primaryWallet(tx *gorm.DB, userID uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := tx.Where("user_id = ? AND is_primary = ? AND status = ?", userID, true, wallet.StatusActive).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func lockWallet(tx *gorm.DB, walletID uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", walletID, wallet.StatusActive).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func lockPrimaryWallet(tx *gorm.DB, userID uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND is_primary = ? AND status = ?", userID, true, wallet.StatusActive).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// applyChange mutates an already-locked wallet and writes its history row in
// the caller's transaction.
func applyChange(tx *gorm.DB, w *wallet.Wallet, amount decimal.Decimal, changeType wallet.ChangeType, reference, notes string) error {
	oldBalance := w.Balance
	var newBalance decimal.Decimal
	if changeType == wallet.ChangeCredit {
		newBalance = oldBalance.Add(amount)
	} else {
		newBalance = oldBalance.Sub(amount)
		if newBalance.IsNegative() {
			return wallet.ErrInsufficientBalance
		}
	}

	if err := tx.Model(&wallet.Wallet{}).Where("id = ?", w.ID).
		UpdateColumn("balance", newBalance).Error; err != nil {
		return err
	}

	history := wallet.BalanceHistory{
		WalletID:      w.ID,
		OldBalance:    oldBalance,
		NewBalance:    newBalance,
		ChangeAmount:  amount,
		ChangeType:    changeType,
		ReferenceID:   reference,
		ReferenceType: "transaction",
		Notes:         notes,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	w.Balance = newBalance
	return nil
}

func sortedIDs(a, b uuid.UUID) []uuid.UUID {
	if a.String() <= b.String() {
		return []uuid.UUID{a, b}
	}
	return []uuid.UUID{b, a}
}
