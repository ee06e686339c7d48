package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/adapter/http/dto"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/adapter/http/middleware"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/domain"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/core/ports"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/apperror"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/response"
)

// WalletHandler handles wallet and transaction endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetWallet handles GET /api/v1/wallet. The wallet is created on first use.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletSvc.EnsureWallet(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletResponse(wallet))
}

// Deposit handles POST /api/v1/wallet/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		UserID:         userID,
		Amount:         domain.NewMoney(req.Amount),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToBalanceResponse(result))
}

// Withdraw handles POST /api/v1/wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		UserID:         userID,
		Amount:         domain.NewMoney(req.Amount),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToBalanceResponse(result))
}

// Transfer handles POST /api/v1/wallet/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.walletSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SenderUserID:   userID,
		ReceiverUserID: req.ReceiverUserID,
		Amount:         domain.NewMoney(req.Amount),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransferResponse(result))
}

// GetTransfer handles GET /api/v1/wallet/transfers/:ref. The path segment
// is a numeric transfer id or an idempotency key.
func (h *WalletHandler) GetTransfer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	transfer, err := h.walletSvc.GetTransfer(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransferDetailResponse(transfer))
}

// Ledger handles GET /api/v1/wallet/ledger.
func (h *WalletHandler) Ledger(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			response.Error(c, apperror.Validation("limit must be an integer between 1 and 500"))
			return
		}
		limit = parsed
	}

	entries, err := h.walletSvc.Ledger(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToLedgerEntryResponses(entries))
}

// GeneratePIN handles POST /api/v1/wallet/pin.
func (h *WalletHandler) GeneratePIN(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	pin, err := h.walletSvc.GeneratePIN(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.PINResponse{PIN: pin})
}
