package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeWithdraw    TransactionType = "WITHDRAW"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
	TypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Transaction is one append-only ledger record. Seq is the insertion order
// assigned by the store; records are never mutated after insertion.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Seq            int64           `json:"-"`
	AccountNo      string          `json:"account_no"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	RelatedAccount *string         `json:"related_account,omitempty"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type TransactionRepository interface {
	// AppendTransaction inserts a new record, filling in ID, Seq and
	// CreatedAt on the passed struct.
	AppendTransaction(tx *Transaction) error
	// ListByAccount returns the most recent limit records for the account in
	// descending insertion order. Each call is an independent snapshot.
	ListByAccount(accountNo string, limit int) ([]Transaction, error)
}
