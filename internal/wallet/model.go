package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

type ChangeType string

const (
	ChangeCredit ChangeType = "credit"
	ChangeDebit  ChangeType = "debit"
)

type Wallet struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:uniq_primary_wallet,where:is_primary = true" json:"user_id"`
	WalletNumber string          `gorm:"uniqueIndex;not null" json:"wallet_number"`
	Balance      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Currency     string          `gorm:"type:varchar(3);not null;default:'PKR'" json:"currency"`
	Status       Status          `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	IsPrimary    bool            `gorm:"not null;default:false" json:"is_primary"`
	PinHash      string          `gorm:"not null" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BalanceHistory is the append-only audit trail. Rows are written in the same
// database transaction as the balance they record and are never updated or
// deleted; replaying them from wallet creation reproduces the current balance.
type BalanceHistory struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	WalletID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	OldBalance    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"old_balance"`
	NewBalance    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"new_balance"`
	ChangeAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"change_amount"`
	ChangeType    ChangeType      `gorm:"type:varchar(6);not null" json:"change_type"`
	ReferenceID   string          `gorm:"index;not null" json:"reference_id"`
	ReferenceType string          `gorm:"not null" json:"reference_type"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (BalanceHistory) TableName() string {
	return "wallet_balance_history"
}
