package domain

import "time"

// EntryDirection is the sign of a ledger entry. Amounts are stored as
// non-negative magnitudes; the direction carries the sign.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "credit"
	DirectionDebit  EntryDirection = "debit"
)

// EntryType classifies the balance-affecting event.
type EntryType string

const (
	EntryTypeDeposit     EntryType = "deposit"
	EntryTypeWithdrawal  EntryType = "withdrawal"
	EntryTypeTransferIn  EntryType = "transfer_in"
	EntryTypeTransferOut EntryType = "transfer_out"
	EntryTypeFee         EntryType = "fee"
)

// ReferenceKind enumerates the entity kinds a ledger entry may point at.
// The set is closed so reconciliation code can match exhaustively.
type ReferenceKind string

const (
	ReferenceKindTransfer ReferenceKind = "transfer"
)

// Reference is a tagged pointer to the entity that originated an entry.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   int64         `json:"id"`
}

// LedgerEntry is one immutable record of a balance-affecting event. Entries
// are only ever inserted, in the same transaction as the balance write they
// document; there is no update or delete path.
type LedgerEntry struct {
	ID           int64             `json:"id"`
	WalletID     *int64            `json:"wallet_id"` // retained even if the wallet reference is severed
	Direction    EntryDirection    `json:"direction"`
	Type         EntryType         `json:"type"`
	Amount       int64             `json:"amount"`        // non-negative magnitude, minor units
	BalanceAfter int64             `json:"balance_after"` // wallet balance immediately after this entry
	Reference    *Reference        `json:"reference,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"` // immutable, no updated_at
}

// SignedAmount returns the amount with the direction applied: positive for
// credits, negative for debits. Prefix-summing signed amounts over a wallet's
// entries in id order reconstructs its balance.
func (e *LedgerEntry) SignedAmount() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}
