package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one ledger account with its credential state. Balance never goes
// negative through a committed operation; Locked is monotonic, once set it is
// never cleared by the core.
type Account struct {
	AccountNo      string          `json:"account_no"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	PinHash        string          `json:"-"`
	Salt           string          `json:"-"`
	FailedAttempts int             `json:"-"`
	Locked         bool            `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Session is the result of a successful login.
type Session struct {
	AccountNo  string    `json:"account_no"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

type AccountRepository interface {
	CreateAccount(account *Account) error
	GetAccount(accountNo string) (*Account, error)
	// LockAccounts acquires exclusive row locks on the given accounts, always
	// in canonical (sorted account number) order regardless of argument order,
	// within the current unit of work. Missing accounts are absent from the
	// returned map rather than an error.
	LockAccounts(accountNos ...string) (map[string]*Account, error)
	UpdateBalance(accountNo string, newBalance decimal.Decimal) error
	UpdateCredential(accountNo string, failedAttempts int, locked bool) error
}

// Store is the unit-of-work boundary shared by all repositories. Repositories
// obtained inside WithTransaction operate on the same database transaction;
// the unit commits when fn returns nil and rolls back otherwise.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	WithTransaction(fn func(Store) error) error
}

// IdentityProvider supplies externally visible account numbers and PIN salts.
type IdentityProvider interface {
	NewAccountNo() (string, error)
	NewSalt() (string, error)
}

// PinHasher derives and verifies the salted PIN digest stored on an account.
type PinHasher interface {
	Hash(pin, salt string) string
	Verify(pin, salt, storedHash string) bool
}
