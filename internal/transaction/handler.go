package transaction

import (
	"errors"
	"math"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/finpak/go-wallet-core/internal/user"
	"github.com/finpak/go-wallet-core/internal/wallet"
	"github.com/finpak/go-wallet-core/pkg/config"
	"github.com/finpak/go-wallet-core/pkg/id"
	"github.com/finpak/go-wallet-core/pkg/logger"
	"github.com/finpak/go-wallet-core/pkg/utils"
)

type Handler struct {
	Config  config.Config
	Service *Service
	Wallets *wallet.Service
	Users   user.Repository
}

func NewHandler(cfg config.Config, service *Service, wallets *wallet.Service, users user.Repository) *Handler {
	return &Handler{Config: cfg, Service: service, Wallets: wallets, Users: users}
}

type TransferRequest struct {
	ReceiverPhone string          `json:"receiver_phone"`
	WalletNumber  string          `json:"wallet_number"`
	Amount        decimal.Decimal `json:"amount"`
	Pin           string          `json:"pin"`
	Description   string          `json:"description"`
}

func (h *Handler) TransferFunds(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	var req TransferRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.Amount.LessThan(h.Config.MinTransactionAmount) {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Amount is below the transaction minimum", nil)
		return
	}

	senderWallet, err := h.Wallets.GetBalance(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Sender wallet not found", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(senderWallet.PinHash), []byte(req.Pin)); err != nil {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid PIN", nil)
		return
	}

	receiverID, ok := h.resolveReceiver(w, r, req)
	if !ok {
		return
	}

	tx, err := h.Service.ProcessTransfer(r.Context(), usr.ID, receiverID, req.Amount, req.Description)
	if err != nil {
		h.writeServiceError(w, err, "Transfer failed")
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transfer completed", tx)
}

// resolveReceiver accepts either a phone number or a wallet number, the two
// receiver identifiers the mobile client can produce.
func (h *Handler) resolveReceiver(w http.ResponseWriter, r *http.Request, req TransferRequest) (uuid.UUID, bool) {
	if req.ReceiverPhone != "" {
		receiver, err := h.Users.FindByPhone(req.ReceiverPhone)
		if err != nil {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Recipient not found", nil)
			return uuid.Nil, false
		}
		return receiver.ID, true
	}

	if req.WalletNumber != "" {
		receiverWallet, err := h.Wallets.GetWalletByNumber(r.Context(), req.WalletNumber)
		if err != nil {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Recipient wallet not found", nil)
			return uuid.Nil, false
		}
		return receiverWallet.UserID, true
	}

	utils.BuildErrorResponse(w, http.StatusBadRequest, "receiver_phone or wallet_number is required", nil)
	return uuid.Nil, false
}

type TopUpRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	var req TopUpRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.Amount.LessThan(h.Config.MinTransactionAmount) {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Amount is below the transaction minimum", nil)
		return
	}

	tx, err := h.Service.TopUp(r.Context(), usr.ID, req.Amount, req.Method, req.Description)
	if err != nil {
		h.writeServiceError(w, err, "Top-up failed")
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Top-up completed", tx)
}

type CreateTransactionRequest struct {
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description"`
	Metadata      Metadata        `json:"metadata"`
}

// CreateTransaction records a pending receipt (utility bills and similar);
// it never moves money.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	var req CreateTransactionRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	txType := Type(req.Type)
	switch txType {
	case TypePayment, TypeWithdrawal, TypeUtilityBill:
	default:
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Unsupported transaction type", nil)
		return
	}

	senderWallet, err := h.Wallets.GetBalance(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	tx, err := h.Service.CreateTransaction(r.Context(), CreateInput{
		Type:          txType,
		SenderID:      &usr.ID,
		Amount:        req.Amount,
		Fee:           req.Fee,
		Currency:      senderWallet.Currency,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Metadata:      req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, err, "Failed to record transaction")
		return
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Transaction recorded", tx)
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	txID := vars["id"]
	if _, err := id.IsValidUUID(txID); err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid transaction id", nil)
		return
	}

	var req CancelRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	tx, err := h.Service.CancelTransaction(r.Context(), txID, req.Reason)
	if err != nil {
		h.writeServiceError(w, err, "Failed to cancel transaction")
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction cancelled", tx)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reference := vars["reference"]

	tx, err := h.Service.GetByReference(r.Context(), reference)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction retrieved", tx)
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	limit, offset, page := utils.GetPaginationDetails(r)

	txs, count, err := h.Service.ListByOwner(r.Context(), usr.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch transactions", nil)
		return
	}

	totalPages := int(math.Ceil(float64(count) / float64(limit)))

	utils.BuildSuccessResponse(w, http.StatusOK, "Transaction History", map[string]interface{}{
		"transactions": txs,
		"meta": map[string]interface{}{
			"total_items":  count,
			"total_pages":  totalPages,
			"current_page": page,
			"limit":        limit,
		},
	})
}

type ReconcileRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) ReconcileTransactions(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		parsed, err := id.IsValidUUID(raw)
		if err != nil {
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid transaction id: "+raw, nil)
			return
		}
		ids = append(ids, parsed)
	}

	count, err := h.Service.ReconcileTransactions(r.Context(), ids)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Reconciliation failed", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Transactions reconciled", map[string]interface{}{
		"requested": len(ids),
		"updated":   count,
	})
}

func (h *Handler) GetUnreconciledTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _, _ := utils.GetPaginationDetails(r)

	txs, err := h.Service.GetUnreconciledTransactions(r.Context(), limit)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch transactions", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Unreconciled transactions", txs)
}

// writeServiceError maps ledger errors onto the HTTP boundary. Internal
// details are logged, not returned.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Insufficient balance", nil)
	case errors.Is(err, wallet.ErrInvalidAmount):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid amount", nil)
	case errors.Is(err, ErrCurrencyMismatch):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Sender and receiver currencies differ", nil)
	case errors.Is(err, ErrSelfTransfer):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Cannot transfer to self", nil)
	case errors.Is(err, ErrInvalidParticipants):
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid transaction participants", nil)
	case errors.Is(err, ErrInvalidState):
		utils.BuildErrorResponse(w, http.StatusConflict, "Transaction is not in the required state", nil)
	case errors.Is(err, ErrTransactionNotFound):
		utils.BuildErrorResponse(w, http.StatusNotFound, "Transaction not found", nil)
	case errors.Is(err, wallet.ErrConflict):
		utils.BuildErrorResponse(w, http.StatusConflict, "Operation conflicted, please retry", nil)
	default:
		logger.Error(fallback, logger.WithError(err))
		utils.BuildErrorResponse(w, http.StatusInternalServerError, fallback, nil)
	}
}
