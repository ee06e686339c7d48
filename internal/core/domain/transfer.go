package domain

import (
	"errors"
	"time"
)

// ErrDuplicateTransfer signals an idempotency-key collision on the transfers
// table, the defense-in-depth constraint behind the coordinator.
var ErrDuplicateTransfer = errors.New("transfer idempotency key already used")

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusSucceeded TransferStatus = "succeeded"
	TransferStatusFailed    TransferStatus = "failed"
)

// Transfer records one money movement between two wallets. The idempotency
// key is globally unique; the constraint is defense-in-depth behind the
// idempotency coordinator, which prevents a duplicate row from ever being
// attempted.
type Transfer struct {
	ID               int64          `json:"id"`
	SenderWalletID   int64          `json:"sender_wallet_id"`
	ReceiverWalletID int64          `json:"receiver_wallet_id"`
	Amount           int64          `json:"amount"`     // minor units
	FeeAmount        int64          `json:"fee_amount"` // minor units
	Status           TransferStatus `json:"status"`
	IdempotencyKey   string         `json:"idempotency_key"`
	Error            *string        `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsTerminal returns true if the transfer is in a final state.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusSucceeded || t.Status == TransferStatusFailed
}
