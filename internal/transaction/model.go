package transaction

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeTransfer    Type = "transfer"
	TypeTopUp       Type = "top_up"
	TypePayment     Type = "payment"
	TypeWithdrawal  Type = "withdrawal"
	TypeUtilityBill Type = "utility_bill"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// CanTransition encodes the state machine:
// pending -> processing -> completed, pending -> failed, pending -> cancelled.
// Terminal states accept no transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed || next == StatusCancelled
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Metadata is an opaque key-value bag stored as jsonb.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported metadata type")
	}
	return json.Unmarshal(data, m)
}

type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Reference        string          `gorm:"uniqueIndex;not null" json:"reference"`
	SenderID         *uuid.UUID      `gorm:"type:uuid;index" json:"sender_id,omitempty"`
	SenderWalletID   *uuid.UUID      `gorm:"type:uuid;index" json:"sender_wallet_id,omitempty"`
	ReceiverID       *uuid.UUID      `gorm:"type:uuid;index" json:"receiver_id,omitempty"`
	ReceiverWalletID *uuid.UUID      `gorm:"type:uuid;index" json:"receiver_wallet_id,omitempty"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	FeeAmount        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"fee_amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Type             Type            `gorm:"type:varchar(15);not null;index" json:"type"`
	PaymentMethod    string          `gorm:"type:varchar(30)" json:"payment_method,omitempty"`
	Status           Status          `gorm:"type:varchar(12);not null;index" json:"status"`
	Description      string          `json:"description,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	Metadata         Metadata        `gorm:"type:jsonb" json:"metadata,omitempty"`
	Reconciled       bool            `gorm:"not null;default:false;index" json:"reconciled"`
	ReconciledAt     *time.Time      `json:"reconciled_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
