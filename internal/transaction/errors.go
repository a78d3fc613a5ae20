package transaction

import "errors"

var (
	ErrCurrencyMismatch    = errors.New("sender and receiver wallet currencies differ")
	ErrInvalidState        = errors.New("transaction is not in the required state")
	ErrReferenceCollision  = errors.New("transaction reference already exists")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSelfTransfer        = errors.New("cannot transfer to the same wallet")
	ErrInvalidParticipants = errors.New("transaction participants do not match its type")
)
