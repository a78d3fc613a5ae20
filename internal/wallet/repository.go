package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateWallet(ctx context.Context, wallet *Wallet) error
	GetPrimaryWallet(ctx context.Context, userID string) (*Wallet, error)
	GetWalletByID(ctx context.Context, walletID string) (*Wallet, error)
	GetWalletByNumber(ctx context.Context, number string) (*Wallet, error)
	UpdateBalance(ctx context.Context, walletID string, amount decimal.Decimal, changeType ChangeType, referenceID, referenceType, notes string) (*Wallet, error)
	CloseWallet(ctx context.Context, walletID string) error
	History(ctx context.Context, walletID string, limit, offset int) ([]BalanceHistory, error)
	CountHistory(ctx context.Context, walletID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWallet(ctx context.Context, wallet *Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) GetPrimaryWallet(ctx context.Context, userID string) (*Wallet, error) {
	var wallet Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ? AND status = ?", userID, true, StatusActive).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) GetWalletByID(ctx context.Context, walletID string) (*Wallet, error) {
	var wallet Wallet
	err := r.db.WithContext(ctx).Where("id = ?", walletID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) GetWalletByNumber(ctx context.Context, number string) (*Wallet, error) {
	var wallet Wallet
	err := r.db.WithContext(ctx).Where("wallet_number = ?", number).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// UpdateBalance mutates one wallet inside its own short transaction. The row
// lock taken here serializes concurrent mutations of the same wallet, so two
// debits racing against a low balance cannot both pass the overdraft check.
// Exactly one history row is written per successful mutation.
func (r *repository) UpdateBalance(ctx context.Context, walletID string, amount decimal.Decimal, changeType ChangeType, referenceID, referenceType, notes string) (*Wallet, error) {
	var updated Wallet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w Wallet
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", walletID, StatusActive).
			First(&w).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletNotFound
		}
		if err != nil {
			return err
		}

		oldBalance := w.Balance
		var newBalance decimal.Decimal
		switch changeType {
		case ChangeCredit:
			newBalance = oldBalance.Add(amount)
		case ChangeDebit:
			newBalance = oldBalance.Sub(amount)
			if newBalance.IsNegative() {
				return ErrInsufficientBalance
			}
		default:
			return ErrInvalidChangeType
		}

		if err := tx.Model(&Wallet{}).Where("id = ?", w.ID).
			UpdateColumn("balance", newBalance).Error; err != nil {
			return err
		}

		history := BalanceHistory{
			WalletID:      w.ID,
			OldBalance:    oldBalance,
			NewBalance:    newBalance,
			ChangeAmount:  amount,
			ChangeType:    changeType,
			ReferenceID:   referenceID,
			ReferenceType: referenceType,
			Notes:         notes,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		w.Balance = newBalance
		updated = w
		return nil
	})
	if err != nil {
		return nil, TranslateStoreError(err)
	}
	return &updated, nil
}

// CloseWallet flips status to closed. Wallet rows are never deleted.
func (r *repository) CloseWallet(ctx context.Context, walletID string) error {
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("id = ? AND status <> ?", walletID, StatusClosed).
		Update("status", StatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *repository) History(ctx context.Context, walletID string, limit, offset int) ([]BalanceHistory, error) {
	var entries []BalanceHistory
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *repository) CountHistory(ctx context.Context, walletID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BalanceHistory{}).
		Where("wallet_id = ?", walletID).
		Count(&count).Error
	return count, err
}
