package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/metrics"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/apperror"
)

const (
	scopeDeposit  = "deposit"
	scopeWithdraw = "withdraw"
	scopeTransfer = "transfer"
)

// WalletServiceImpl implements ports.WalletService. Every balance mutation
// runs in one database transaction holding row locks on the wallets it
// touches, with the matching ledger entries appended before commit.
type WalletServiceImpl struct {
	walletRepo   ports.WalletRepository
	ledgerRepo   ports.LedgerRepository
	transferRepo ports.TransferRepository
	coordinator  ports.IdempotencyCoordinator
	feePolicy    ports.FeePolicy
	hashSvc      ports.HashService
	transactor   ports.DBTransactor
	cfg          config.WalletConfig
	log          zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transferRepo ports.TransferRepository,
	coordinator ports.IdempotencyCoordinator,
	feePolicy ports.FeePolicy,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	cfg config.WalletConfig,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		transferRepo: transferRepo,
		coordinator:  coordinator,
		feePolicy:    feePolicy,
		hashSvc:      hashSvc,
		transactor:   transactor,
		cfg:          cfg,
		log:          log,
	}
}

// EnsureWallet returns the user's wallet, creating a zero-balance active one
// on first use. A concurrent create racing us is resolved by re-reading.
func (s *WalletServiceImpl) EnsureWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet, err = s.walletRepo.CreateForUser(ctx, userID)
	if err != nil {
		if err == domain.ErrDuplicateWallet {
			wallet, err = s.walletRepo.FindByUserID(ctx, userID)
			if err != nil || wallet == nil {
				return nil, apperror.InternalError(fmt.Errorf("reread wallet after duplicate: %w", err))
			}
			return wallet, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Int64("user_id", userID).Int64("wallet_id", wallet.ID).Msg("wallet created")
	return wallet, nil
}

// Deposit credits the user's wallet and appends one ledger entry.
func (s *WalletServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*ports.BalanceResult, error) {
	start := time.Now()
	result, err := s.depositOnce(ctx, req)
	s.observe(scopeDeposit, start, err)
	return result, err
}

func (s *WalletServiceImpl) depositOnce(ctx context.Context, req ports.DepositRequest) (*ports.BalanceResult, error) {
	if err := s.validateAmount(req.Amount); err != nil {
		return nil, err
	}

	idemReq := ports.IdempotentRequest{
		UserID:      req.UserID,
		Key:         req.IdempotencyKey,
		Scope:       scopeDeposit,
		RequestHash: requestHash(scopeDeposit, req.UserID, req.Amount),
	}

	body, err := s.coordinator.Execute(ctx, idemReq, func(ctx context.Context) ([]byte, error) {
		return s.runBalanceOp(ctx, req.UserID, func(dbTx pgx.Tx, wallet *domain.Wallet) (int64, *domain.LedgerEntry, error) {
			newBalance, err := wallet.BalanceMoney().Add(req.Amount)
			if err != nil {
				return 0, nil, apperror.ErrAmountOverflow()
			}
			return newBalance.Cents, &domain.LedgerEntry{
				WalletID:     &wallet.ID,
				Direction:    domain.DirectionCredit,
				Type:         domain.EntryTypeDeposit,
				Amount:       req.Amount.Cents,
				BalanceAfter: newBalance.Cents,
			}, nil
		})
	})
	if err != nil {
		return nil, err
	}

	return unmarshalResult[ports.BalanceResult](body)
}

// Withdraw debits the user's wallet and appends one ledger entry.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*ports.BalanceResult, error) {
	start := time.Now()
	result, err := s.withdrawOnce(ctx, req)
	s.observe(scopeWithdraw, start, err)
	return result, err
}

func (s *WalletServiceImpl) withdrawOnce(ctx context.Context, req ports.WithdrawRequest) (*ports.BalanceResult, error) {
	if err := s.validateAmount(req.Amount); err != nil {
		return nil, err
	}

	idemReq := ports.IdempotentRequest{
		UserID:      req.UserID,
		Key:         req.IdempotencyKey,
		Scope:       scopeWithdraw,
		RequestHash: requestHash(scopeWithdraw, req.UserID, req.Amount),
	}

	body, err := s.coordinator.Execute(ctx, idemReq, func(ctx context.Context) ([]byte, error) {
		return s.runBalanceOp(ctx, req.UserID, func(dbTx pgx.Tx, wallet *domain.Wallet) (int64, *domain.LedgerEntry, error) {
			if wallet.Balance < req.Amount.Cents {
				return 0, nil, apperror.ErrInsufficientBalance()
			}
			newBalance, err := wallet.BalanceMoney().Subtract(req.Amount)
			if err != nil {
				return 0, nil, apperror.ErrAmountOverflow()
			}
			return newBalance.Cents, &domain.LedgerEntry{
				WalletID:     &wallet.ID,
				Direction:    domain.DirectionDebit,
				Type:         domain.EntryTypeWithdrawal,
				Amount:       req.Amount.Cents,
				BalanceAfter: newBalance.Cents,
			}, nil
		})
	})
	if err != nil {
		return nil, err
	}

	return unmarshalResult[ports.BalanceResult](body)
}

// runBalanceOp is the shared single-wallet mutation path: lock the wallet
// row, apply the mutation, append its ledger entry, commit.
func (s *WalletServiceImpl) runBalanceOp(
	ctx context.Context,
	userID int64,
	mutate func(dbTx pgx.Tx, wallet *domain.Wallet) (int64, *domain.LedgerEntry, error),
) ([]byte, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.LockForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !wallet.IsActive() {
		return nil, apperror.ErrWalletInactive()
	}

	newBalance, entry, err := mutate(dbTx, wallet)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Int64("wallet_id", wallet.ID).
		Str("type", string(entry.Type)).
		Int64("amount", entry.Amount).
		Int64("balance", newBalance).
		Msg("balance operation committed")

	return json.Marshal(ports.BalanceResult{Balance: newBalance})
}

// Transfer moves funds between two users' wallets, charging the sender the
// policy fee, atomically in one database transaction.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	start := time.Now()
	result, err := s.transferOnce(ctx, req)
	s.observe(scopeTransfer, start, err)
	return result, err
}

func (s *WalletServiceImpl) transferOnce(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if err := s.validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.SenderUserID == req.ReceiverUserID {
		return nil, apperror.ErrSelfTransfer()
	}

	fee, err := s.feePolicy.ComputeFee(req.Amount)
	if err != nil {
		return nil, apperror.ErrAmountOverflow()
	}

	// A client-supplied key scopes coordination to the sender; generated
	// keys still make the transfer row traceable.
	key := req.IdempotencyKey
	if key == "" {
		key = "tx_" + uuid.NewString()
	}

	idemReq := ports.IdempotentRequest{
		UserID:      req.SenderUserID,
		Key:         req.IdempotencyKey,
		Scope:       scopeTransfer,
		RequestHash: requestHash(scopeTransfer, req.SenderUserID, req.Amount, req.ReceiverUserID),
	}

	body, err := s.coordinator.Execute(ctx, idemReq, func(ctx context.Context) ([]byte, error) {
		return s.executeTransfer(ctx, req, fee, key)
	})
	if err != nil {
		return nil, err
	}

	return unmarshalResult[ports.TransferResult](body)
}

func (s *WalletServiceImpl) executeTransfer(ctx context.Context, req ports.TransferRequest, fee domain.Money, key string) ([]byte, error) {
	totalDebit, err := req.Amount.Add(fee)
	if err != nil {
		return nil, apperror.ErrAmountOverflow()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both rows in ascending user-id order so two opposing transfers
	// can never deadlock; roles are assigned after the locks are held.
	firstUserID, secondUserID := req.SenderUserID, req.ReceiverUserID
	if firstUserID > secondUserID {
		firstUserID, secondUserID = secondUserID, firstUserID
	}

	first, err := s.walletRepo.LockForUpdate(ctx, dbTx, firstUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	second, err := s.walletRepo.LockForUpdate(ctx, dbTx, secondUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if first == nil || second == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	sender, receiver := first, second
	if sender.UserID != req.SenderUserID {
		sender, receiver = second, first
	}

	if !sender.IsActive() || !receiver.IsActive() {
		return nil, apperror.ErrWalletInactive()
	}
	if sender.Balance < totalDebit.Cents {
		return nil, apperror.ErrInsufficientBalance()
	}

	senderAfter, err := sender.BalanceMoney().Subtract(totalDebit)
	if err != nil {
		return nil, apperror.ErrAmountOverflow()
	}
	receiverAfter, err := receiver.BalanceMoney().Add(req.Amount)
	if err != nil {
		return nil, apperror.ErrAmountOverflow()
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, sender.ID, senderAfter.Cents); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update sender balance: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, receiver.ID, receiverAfter.Cents); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update receiver balance: %w", err))
	}

	transfer := &domain.Transfer{
		SenderWalletID:   sender.ID,
		ReceiverWalletID: receiver.ID,
		Amount:           req.Amount.Cents,
		FeeAmount:        fee.Cents,
		Status:           domain.TransferStatusSucceeded,
		IdempotencyKey:   key,
	}
	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	ref := &domain.Reference{Kind: domain.ReferenceKindTransfer, ID: transfer.ID}
	entries := []*domain.LedgerEntry{
		{
			WalletID:     &sender.ID,
			Direction:    domain.DirectionDebit,
			Type:         domain.EntryTypeTransferOut,
			Amount:       req.Amount.Cents,
			BalanceAfter: senderAfter.Cents,
			Reference:    ref,
		},
	}
	if fee.IsPositive() {
		entries = append(entries, &domain.LedgerEntry{
			WalletID:     &sender.ID,
			Direction:    domain.DirectionDebit,
			Type:         domain.EntryTypeFee,
			Amount:       fee.Cents,
			BalanceAfter: senderAfter.Cents,
			Reference:    ref,
		})
	}
	entries = append(entries, &domain.LedgerEntry{
		WalletID:     &receiver.ID,
		Direction:    domain.DirectionCredit,
		Type:         domain.EntryTypeTransferIn,
		Amount:       req.Amount.Cents,
		BalanceAfter: receiverAfter.Cents,
		Reference:    ref,
	})
	for _, entry := range entries {
		if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("append ledger entry: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	metrics.FeesCollectedTotal.Add(float64(fee.Cents))
	s.log.Info().
		Int64("transfer_id", transfer.ID).
		Int64("sender_wallet", sender.ID).
		Int64("receiver_wallet", receiver.ID).
		Int64("amount", req.Amount.Cents).
		Int64("fee", fee.Cents).
		Msg("transfer committed")

	return json.Marshal(ports.TransferResult{
		SenderBalance:   senderAfter.Cents,
		ReceiverBalance: receiverAfter.Cents,
		TransferID:      transfer.ID,
		Fee:             fee.Cents,
	})
}

// GetTransfer returns one transfer the user's wallet participated in,
// addressed either by numeric id or by idempotency key. Transfers the
// wallet was not a party to are indistinguishable from missing ones.
func (s *WalletServiceImpl) GetTransfer(ctx context.Context, userID int64, ref string) (*domain.Transfer, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	var transfer *domain.Transfer
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		transfer, err = s.transferRepo.GetByID(ctx, id)
	} else {
		transfer, err = s.transferRepo.GetByIdempotencyKey(ctx, ref)
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load transfer: %w", err))
	}
	if transfer == nil || (transfer.SenderWalletID != wallet.ID && transfer.ReceiverWalletID != wallet.ID) {
		return nil, apperror.ErrTransferNotFound()
	}
	return transfer, nil
}

// Ledger returns the newest ledger entries for the user's wallet.
func (s *WalletServiceImpl) Ledger(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	entries, err := s.ledgerRepo.EntriesForWallet(ctx, wallet.ID, limit)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load ledger entries: %w", err))
	}
	return entries, nil
}

// GeneratePIN provisions a fresh 6-digit transaction PIN for the user's
// wallet, stores only its hash, and returns the plaintext exactly once.
func (s *WalletServiceImpl) GeneratePIN(ctx context.Context, userID int64) (string, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return "", apperror.ErrWalletNotFound()
	}
	if !wallet.IsActive() {
		return "", apperror.ErrWalletInactive()
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("generate pin: %w", err))
	}
	pin := fmt.Sprintf("%06d", n.Int64())

	hash, err := s.hashSvc.Hash(pin)
	if err != nil {
		return "", apperror.InternalError(fmt.Errorf("hash pin: %w", err))
	}
	if err := s.walletRepo.UpdatePINHash(ctx, wallet.ID, hash); err != nil {
		return "", apperror.InternalError(fmt.Errorf("store pin hash: %w", err))
	}

	s.log.Info().Int64("wallet_id", wallet.ID).Msg("transaction pin rotated")
	return pin, nil
}

// validateAmount enforces the shared amount rules: positive, in the
// deployment currency, and under the per-operation ceiling.
func (s *WalletServiceImpl) validateAmount(amount domain.Money) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if amount.Currency != s.cfg.Currency {
		return apperror.ErrCurrencyMismatch()
	}
	if s.cfg.MaxAmount > 0 && amount.Cents > s.cfg.MaxAmount {
		return apperror.ErrInvalidAmount()
	}
	return nil
}

func (s *WalletServiceImpl) observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// requestHash fingerprints the semantic payload of a request so a key reused
// with different parameters is detectable.
func requestHash(scope string, userID int64, amount domain.Money, extra ...int64) string {
	payload := fmt.Sprintf("%s:%d:%d:%s", scope, userID, amount.Cents, amount.Currency)
	for _, v := range extra {
		payload += fmt.Sprintf(":%d", v)
	}
	return HashPayload([]byte(payload))
}

func unmarshalResult[T any](body []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal memoized result: %w", err))
	}
	return &result, nil
}
