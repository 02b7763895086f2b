package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// memStore is an in-memory domain.Store for service tests. A unit of work
// holds the store mutex for its whole duration, mirroring the exclusive row
// locks of the real store, and rolls the state back when fn fails.
type memStore struct {
	mu sync.Mutex
	st *memState
}

type memState struct {
	accounts map[string]*domain.Account
	txns     []domain.Transaction
	nextSeq  int64
}

func newMemStore() *memStore {
	return &memStore{st: &memState{accounts: make(map[string]*domain.Account)}}
}

func (s *memStore) Accounts() domain.AccountRepository {
	return lockedAccounts{s}
}

func (s *memStore) Transactions() domain.TransactionRepository {
	return lockedTransactions{s}
}

func (s *memStore) WithTransaction(fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(txMemStore{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// balance reads a committed balance directly, for assertions.
func (s *memStore) balance(accountNo string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.accounts[accountNo].Balance
}

// records returns a copy of the full committed log, for assertions.
func (s *memStore) records() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.st.txns...)
}

func (st *memState) clone() *memState {
	accounts := make(map[string]*domain.Account, len(st.accounts))
	for no, account := range st.accounts {
		clone := *account
		accounts[no] = &clone
	}
	return &memState{
		accounts: accounts,
		txns:     append([]domain.Transaction(nil), st.txns...),
		nextSeq:  st.nextSeq,
	}
}

// txMemStore is the view handed to the unit-of-work callback; the caller
// already holds the store mutex.
type txMemStore struct {
	st *memState
}

func (t txMemStore) Accounts() domain.AccountRepository {
	return stateAccounts{t.st}
}

func (t txMemStore) Transactions() domain.TransactionRepository {
	return stateTransactions{t.st}
}

func (t txMemStore) WithTransaction(func(domain.Store) error) error {
	return errors.ErrCannotBeginTransaction
}

type stateAccounts struct {
	st *memState
}

func (a stateAccounts) CreateAccount(account *domain.Account) error {
	if _, ok := a.st.accounts[account.AccountNo]; ok {
		return errors.ErrDuplicateAccount
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	clone := *account
	a.st.accounts[account.AccountNo] = &clone
	return nil
}

func (a stateAccounts) GetAccount(accountNo string) (*domain.Account, error) {
	account, ok := a.st.accounts[accountNo]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (a stateAccounts) LockAccounts(accountNos ...string) (map[string]*domain.Account, error) {
	locked := make(map[string]*domain.Account, len(accountNos))
	for _, no := range accountNos {
		if account, ok := a.st.accounts[no]; ok {
			clone := *account
			locked[no] = &clone
		}
	}
	return locked, nil
}

func (a stateAccounts) UpdateBalance(accountNo string, newBalance decimal.Decimal) error {
	account, ok := a.st.accounts[accountNo]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = newBalance
	account.UpdatedAt = time.Now()
	return nil
}

func (a stateAccounts) UpdateCredential(accountNo string, failedAttempts int, locked bool) error {
	account, ok := a.st.accounts[accountNo]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.FailedAttempts = failedAttempts
	account.Locked = locked
	account.UpdatedAt = time.Now()
	return nil
}

type stateTransactions struct {
	st *memState
}

func (t stateTransactions) AppendTransaction(tx *domain.Transaction) error {
	t.st.nextSeq++
	tx.Seq = t.st.nextSeq
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now()
	t.st.txns = append(t.st.txns, *tx)
	return nil
}

func (t stateTransactions) ListByAccount(accountNo string, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for i := len(t.st.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if t.st.txns[i].AccountNo == accountNo {
			out = append(out, t.st.txns[i])
		}
	}
	return out, nil
}

// lockedAccounts and lockedTransactions serve repository calls made outside
// any unit of work, taking the mutex per call.
type lockedAccounts struct {
	s *memStore
}

func (l lockedAccounts) CreateAccount(account *domain.Account) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateAccounts{l.s.st}.CreateAccount(account)
}

func (l lockedAccounts) GetAccount(accountNo string) (*domain.Account, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateAccounts{l.s.st}.GetAccount(accountNo)
}

func (l lockedAccounts) LockAccounts(accountNos ...string) (map[string]*domain.Account, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateAccounts{l.s.st}.LockAccounts(accountNos...)
}

func (l lockedAccounts) UpdateBalance(accountNo string, newBalance decimal.Decimal) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateAccounts{l.s.st}.UpdateBalance(accountNo, newBalance)
}

func (l lockedAccounts) UpdateCredential(accountNo string, failedAttempts int, locked bool) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateAccounts{l.s.st}.UpdateCredential(accountNo, failedAttempts, locked)
}

type lockedTransactions struct {
	s *memStore
}

func (l lockedTransactions) AppendTransaction(tx *domain.Transaction) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateTransactions{l.s.st}.AppendTransaction(tx)
}

func (l lockedTransactions) ListByAccount(accountNo string, limit int) ([]domain.Transaction, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return stateTransactions{l.s.st}.ListByAccount(accountNo, limit)
}
