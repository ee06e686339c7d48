package domain

import "time"

// BalanceSnapshot is a point-in-time copy of a wallet balance, taken by the
// snapshot command for offline reconciliation against the ledger.
type BalanceSnapshot struct {
	ID        int64     `json:"id"`
	WalletID  int64     `json:"wallet_id"`
	Balance   int64     `json:"balance"` // minor units
	TakenAt   time.Time `json:"taken_at"`
	CreatedAt time.Time `json:"created_at"`
}
