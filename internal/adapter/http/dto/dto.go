package dto

import (
	"time"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
)

// DepositRequest is the request body for a wallet deposit. Amounts are
// integer minor units.
type DepositRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required,safe_id,max=255"`
}

// WithdrawRequest is the request body for a wallet withdrawal.
type WithdrawRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"required,safe_id,max=255"`
}

// TransferRequest is the request body for a transfer to another user.
type TransferRequest struct {
	ReceiverUserID int64  `json:"receiver_user_id" binding:"required,gt=0"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"omitempty,safe_id,max=255"`
}

// WalletResponse is the response body for wallet state.
type WalletResponse struct {
	WalletID  int64  `json:"wallet_id"`
	UserID    int64  `json:"user_id"`
	Balance   int64  `json:"balance"`
	Formatted string `json:"formatted"`
	Status    string `json:"status"`
}

// BalanceResponse is the response body for deposit and withdraw.
type BalanceResponse struct {
	Balance   int64  `json:"balance"`
	Formatted string `json:"formatted"`
}

// TransferResponse is the response body for a completed transfer.
type TransferResponse struct {
	TransferID      int64 `json:"transfer_id"`
	SenderBalance   int64 `json:"sender_balance"`
	ReceiverBalance int64 `json:"receiver_balance"`
	Fee             int64 `json:"fee"`
}

// TransferDetailResponse is the response body for a transfer lookup.
type TransferDetailResponse struct {
	TransferID       int64  `json:"transfer_id"`
	SenderWalletID   int64  `json:"sender_wallet_id"`
	ReceiverWalletID int64  `json:"receiver_wallet_id"`
	Amount           int64  `json:"amount"`
	FeeAmount        int64  `json:"fee_amount"`
	Status           string `json:"status"`
	IdempotencyKey   string `json:"idempotency_key"`
	CreatedAt        string `json:"created_at"`
}

// LedgerEntryResponse is one journal line in the ledger listing.
type LedgerEntryResponse struct {
	ID           int64             `json:"id"`
	Direction    string            `json:"direction"`
	Type         string            `json:"type"`
	Amount       int64             `json:"amount"`
	BalanceAfter int64             `json:"balance_after"`
	Reference    *ReferenceDTO     `json:"reference,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    string            `json:"created_at"`
}

// ReferenceDTO is the tagged pointer to the originating entity.
type ReferenceDTO struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

// PINResponse carries a freshly provisioned transaction PIN. The plaintext
// is shown exactly once.
type PINResponse struct {
	PIN string `json:"pin"`
}

// ToWalletResponse converts a domain wallet.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:  w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		Formatted: w.BalanceMoney().String(),
		Status:    string(w.Status),
	}
}

// ToBalanceResponse converts a service balance result.
func ToBalanceResponse(r *ports.BalanceResult) BalanceResponse {
	return BalanceResponse{
		Balance:   r.Balance,
		Formatted: domain.NewMoney(r.Balance).String(),
	}
}

// ToTransferResponse converts a service transfer result.
func ToTransferResponse(r *ports.TransferResult) TransferResponse {
	return TransferResponse{
		TransferID:      r.TransferID,
		SenderBalance:   r.SenderBalance,
		ReceiverBalance: r.ReceiverBalance,
		Fee:             r.Fee,
	}
}

// ToTransferDetailResponse converts a domain transfer.
func ToTransferDetailResponse(t *domain.Transfer) TransferDetailResponse {
	return TransferDetailResponse{
		TransferID:       t.ID,
		SenderWalletID:   t.SenderWalletID,
		ReceiverWalletID: t.ReceiverWalletID,
		Amount:           t.Amount,
		FeeAmount:        t.FeeAmount,
		Status:           string(t.Status),
		IdempotencyKey:   t.IdempotencyKey,
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToLedgerEntryResponses converts domain ledger entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := LedgerEntryResponse{
			ID:           e.ID,
			Direction:    string(e.Direction),
			Type:         string(e.Type),
			Amount:       e.Amount,
			BalanceAfter: e.BalanceAfter,
			Metadata:     e.Metadata,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if e.Reference != nil {
			resp.Reference = &ReferenceDTO{Kind: string(e.Reference.Kind), ID: e.Reference.ID}
		}
		out = append(out, resp)
	}
	return out
}
