package service

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// LedgerService executes deposits, withdrawals and transfers as atomic units
// of work and maintains the append-only transaction log. Every mutating
// operation locks all touched account rows up front, so two operations on the
// same account never interleave their read-modify-write sequences.
type LedgerService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewLedgerService(store domain.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
	}
}

// Deposit credits amount to the account and returns the new balance.
func (s *LedgerService) Deposit(accountNo string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	var newBalance decimal.Decimal
	err := s.store.WithTransaction(func(tx domain.Store) error {
		locked, err := tx.Accounts().LockAccounts(accountNo)
		if err != nil {
			return err
		}
		account, ok := locked[accountNo]
		if !ok {
			return errors.ErrAccountNotFound
		}

		newBalance = account.Balance.Add(amount)
		if err := tx.Accounts().UpdateBalance(accountNo, newBalance); err != nil {
			return err
		}
		return tx.Transactions().AppendTransaction(&domain.Transaction{
			AccountNo:    accountNo,
			Type:         domain.TypeDeposit,
			Amount:       amount,
			BalanceAfter: newBalance,
			Note:         "Cash deposit",
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("Deposit committed", "account_no", accountNo, "amount", amount, "new_balance", newBalance)
	return newBalance, nil
}

// Withdraw debits amount from the account, rejecting any debit that would
// drive the balance below zero, and returns the new balance.
func (s *LedgerService) Withdraw(accountNo string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	var newBalance decimal.Decimal
	err := s.store.WithTransaction(func(tx domain.Store) error {
		locked, err := tx.Accounts().LockAccounts(accountNo)
		if err != nil {
			return err
		}
		account, ok := locked[accountNo]
		if !ok {
			return errors.ErrAccountNotFound
		}

		if account.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		newBalance = account.Balance.Sub(amount)
		if err := tx.Accounts().UpdateBalance(accountNo, newBalance); err != nil {
			return err
		}
		return tx.Transactions().AppendTransaction(&domain.Transaction{
			AccountNo:    accountNo,
			Type:         domain.TypeWithdraw,
			Amount:       amount,
			BalanceAfter: newBalance,
			Note:         "Cash withdrawal",
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("Withdrawal committed", "account_no", accountNo, "amount", amount, "new_balance", newBalance)
	return newBalance, nil
}

// Transfer moves amount between two accounts, writing both balances and the
// TRANSFER_OUT/TRANSFER_IN record pair in one unit of work. Both rows are
// locked by a single ordered query, so opposing concurrent transfers on the
// same pair cannot form a wait cycle. Returns the sender's new balance.
func (s *LedgerService) Transfer(fromNo, toNo string, amount decimal.Decimal) (decimal.Decimal, error) {
	if fromNo == toNo {
		return decimal.Zero, errors.ErrSameAccountTransfer
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.ErrInvalidAmount
	}

	var newFromBalance decimal.Decimal
	err := s.store.WithTransaction(func(tx domain.Store) error {
		locked, err := tx.Accounts().LockAccounts(fromNo, toNo)
		if err != nil {
			return err
		}
		fromAccount, fromOK := locked[fromNo]
		toAccount, toOK := locked[toNo]
		if !fromOK || !toOK {
			return errors.ErrAccountsNotFound
		}

		if fromAccount.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		newFromBalance = fromAccount.Balance.Sub(amount)
		newToBalance := toAccount.Balance.Add(amount)

		if err := tx.Accounts().UpdateBalance(fromNo, newFromBalance); err != nil {
			return err
		}
		if err := tx.Accounts().UpdateBalance(toNo, newToBalance); err != nil {
			return err
		}

		if err := tx.Transactions().AppendTransaction(&domain.Transaction{
			AccountNo:      fromNo,
			Type:           domain.TypeTransferOut,
			Amount:         amount,
			BalanceAfter:   newFromBalance,
			RelatedAccount: &toNo,
			Note:           "Transfer to " + toNo,
		}); err != nil {
			return err
		}
		return tx.Transactions().AppendTransaction(&domain.Transaction{
			AccountNo:      toNo,
			Type:           domain.TypeTransferIn,
			Amount:         amount,
			BalanceAfter:   newToBalance,
			RelatedAccount: &fromNo,
			Note:           "Transfer from " + fromNo,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("Transfer committed",
		"from_account", fromNo,
		"to_account", toNo,
		"amount", amount,
		"new_from_balance", newFromBalance)
	return newFromBalance, nil
}

// Balance reads the account outside any unit of work.
func (s *LedgerService) Balance(accountNo string) (*domain.Account, error) {
	return s.store.Accounts().GetAccount(accountNo)
}

// History returns the most recent records for the account in descending
// insertion order. Each call re-queries the store, so repeated calls see an
// independently consistent snapshot rather than a shared cursor.
func (s *LedgerService) History(accountNo string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	// Distinguishes an unknown account from one with no transactions yet.
	if _, err := s.store.Accounts().GetAccount(accountNo); err != nil {
		return nil, err
	}

	return s.store.Transactions().ListByAccount(accountNo, limit)
}
