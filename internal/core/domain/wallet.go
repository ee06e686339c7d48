package domain

import (
	"errors"
	"time"
)

// ErrDuplicateWallet signals a violated one-wallet-per-user invariant.
var ErrDuplicateWallet = errors.New("wallet already exists for user")

// WalletStatus represents the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusInactive WalletStatus = "inactive"
)

// Wallet holds a user's authoritative balance. There is exactly one wallet
// per user; wallets are never deleted, only deactivated.
type Wallet struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Balance   int64        `json:"balance"` // minor units, always >= 0
	Status    WalletStatus `json:"status"`
	PINHash   *string      `json:"-"` // never expose
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsActive returns true if the wallet can participate in transfers.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// BalanceMoney returns the balance as a Money value in the deployment currency.
func (w *Wallet) BalanceMoney() Money {
	return NewMoney(w.Balance)
}
