package wallet

import (
	"errors"
	"math"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/finpak/go-wallet-core/internal/user"
	"github.com/finpak/go-wallet-core/pkg/config"
	"github.com/finpak/go-wallet-core/pkg/utils"
)

type Handler struct {
	Config  config.Config
	Service *Service
}

func NewHandler(cfg config.Config, service *Service) *Handler {
	return &Handler{Config: cfg, Service: service}
}

type CreateWalletRequest struct {
	Pin      string `json:"pin"`
	Currency string `json:"currency"`
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	usr, ok := r.Context().Value(utils.UserKey).(user.User)
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CreateWalletRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if len(req.Pin) != 4 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "PIN must be 4 digits", nil)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.Config.DefaultCurrency
	}

	hashedPin, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to secure PIN", nil)
		return
	}

	// first wallet for an owner becomes the primary one
	var created *Wallet
	if _, err := h.Service.GetBalance(r.Context(), usr.ID.String()); errors.Is(err, ErrWalletNotFound) {
		created, err = h.Service.CreatePrimaryWallet(r.Context(), usr.ID, currency, string(hashedPin))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.BuildErrorResponse(w, http.StatusConflict, "User already has a primary wallet", nil)
			return
		}
		if err != nil {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create wallet", nil)
			return
		}
	} else {
		created, err = h.Service.CreateWallet(r.Context(), usr.ID, currency, string(hashedPin))
		if err != nil {
			utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to create wallet", nil)
			return
		}
	}

	utils.BuildSuccessResponse(w, http.StatusCreated, "Wallet created successfully", map[string]interface{}{
		"wallet_number": created.WalletNumber,
		"balance":       created.Balance,
		"currency":      created.Currency,
		"is_primary":    created.IsPrimary,
	})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	wallet, err := h.Service.GetBalance(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Details", wallet)
}

func (h *Handler) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	wallet, err := h.Service.GetBalance(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet Balance", map[string]any{
		"balance":  wallet.Balance,
		"currency": wallet.Currency,
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	usr, _ := r.Context().Value(utils.UserKey).(user.User)

	wallet, err := h.Service.GetBalance(r.Context(), usr.ID.String())
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}

	limit, offset, page := utils.GetPaginationDetails(r)

	entries, count, err := h.Service.History(r.Context(), wallet.ID.String(), limit, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to fetch history", nil)
		return
	}

	totalPages := int(math.Ceil(float64(count) / float64(limit)))

	utils.BuildSuccessResponse(w, http.StatusOK, "Balance History", map[string]interface{}{
		"history": entries,
		"meta": map[string]interface{}{
			"total_items":  count,
			"total_pages":  totalPages,
			"current_page": page,
			"limit":        limit,
		},
	})
}
