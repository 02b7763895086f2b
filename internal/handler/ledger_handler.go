package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type LedgerHandler struct {
	ledgerService *service.LedgerService
}

func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type BalanceChangeResponse struct {
	AccountNo  string `json:"account_no"`
	NewBalance string `json:"new_balance"`
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountNo := mux.Vars(r)["account_no"]

	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	newBalance, err := h.ledgerService.Deposit(accountNo, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceChangeResponse{
		AccountNo:  accountNo,
		NewBalance: newBalance.StringFixed(2),
	})
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountNo := mux.Vars(r)["account_no"]

	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	newBalance, err := h.ledgerService.Withdraw(accountNo, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceChangeResponse{
		AccountNo:  accountNo,
		NewBalance: newBalance.StringFixed(2),
	})
}

type TransferRequest struct {
	FromAccountNo string `json:"from_account_no"`
	ToAccountNo   string `json:"to_account_no"`
	Amount        string `json:"amount"`
}

type TransferResponse struct {
	FromAccountNo  string `json:"from_account_no"`
	ToAccountNo    string `json:"to_account_no"`
	Amount         string `json:"amount"`
	NewFromBalance string `json:"new_from_balance"`
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid amount format").WithDetails(err.Error()))
		return
	}

	newFromBalance, err := h.ledgerService.Transfer(req.FromAccountNo, req.ToAccountNo, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{
		FromAccountNo:  req.FromAccountNo,
		ToAccountNo:    req.ToAccountNo,
		Amount:         amount.StringFixed(2),
		NewFromBalance: newFromBalance.StringFixed(2),
	})
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (decimal.Decimal, bool) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid request body").WithDetails(err.Error()))
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.ValidationError, "invalid amount format").WithDetails(err.Error()))
		return decimal.Zero, false
	}
	return amount, true
}
