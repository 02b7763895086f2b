package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type AccountHandler struct {
	authService   *service.AuthService
	ledgerService *service.LedgerService
}

func NewAccountHandler(authService *service.AuthService, ledgerService *service.LedgerService) *AccountHandler {
	return &AccountHandler{
		authService:   authService,
		ledgerService: ledgerService,
	}
}

type RegisterRequest struct {
	Name string `json:"name"`
	Pin  string `json:"pin"`
}

type RegisterResponse struct {
	AccountNo string `json:"account_no"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid request body").WithDetails(err.Error()))
		return
	}

	account, err := h.authService.Register(req.Name, req.Pin)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		AccountNo: account.AccountNo,
		Name:      account.Name,
		Balance:   account.Balance.StringFixed(2),
	})
}

type LoginRequest struct {
	AccountNo string `json:"account_no"`
	Pin       string `json:"pin"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid request body").WithDetails(err.Error()))
		return
	}

	session, err := h.authService.Login(req.AccountNo, req.Pin)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type BalanceResponse struct {
	AccountNo string `json:"account_no"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountNo := mux.Vars(r)["account_no"]

	account, err := h.ledgerService.Balance(accountNo)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		AccountNo: account.AccountNo,
		Name:      account.Name,
		Balance:   account.Balance.StringFixed(2),
	})
}

type HistoryEntry struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	BalanceAfter   string `json:"balance_after"`
	RelatedAccount string `json:"related_account,omitempty"`
	Note           string `json:"note,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	accountNo := mux.Vars(r)["account_no"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.NewAppError(errors.ValidationError, "invalid limit"))
			return
		}
		limit = parsed
	}

	transactions, err := h.ledgerService.History(accountNo, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries := make([]HistoryEntry, 0, len(transactions))
	for _, tx := range transactions {
		entry := HistoryEntry{
			ID:           tx.ID.String(),
			Type:         string(tx.Type),
			Amount:       tx.Amount.StringFixed(2),
			BalanceAfter: tx.BalanceAfter.StringFixed(2),
			Note:         tx.Note,
			CreatedAt:    tx.CreatedAt.UTC().Format(time.RFC3339),
		}
		if tx.RelatedAccount != nil {
			entry.RelatedAccount = *tx.RelatedAccount
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}
