package repository

import (
	"database/sql"
	"log/slog"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

const accountColumns = `account_no, name, balance, pin_hash, salt, failed_attempts, is_locked, created_at, updated_at`

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *accountRepository) CreateAccount(account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_no, name, balance, pin_hash, salt, failed_attempts, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now()
	_, err := r.db.Exec(
		query,
		account.AccountNo,
		account.Name,
		account.Balance.String(),
		account.PinHash,
		account.Salt,
		account.FailedAttempts,
		account.Locked,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			r.logger.Warn("Account number collision", "account_no", account.AccountNo)
			return errors.ErrDuplicateAccount
		}
		r.logger.Error("Failed to create account", "account_no", account.AccountNo, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created", "account_no", account.AccountNo)
	return nil
}

func (r *accountRepository) GetAccount(accountNo string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_no = $1`

	account, err := r.scanAccount(r.db.QueryRow(query, accountNo))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_no", accountNo, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}
	return account, nil
}

// LockAccounts takes exclusive row locks in one query, ordered by account
// number so any two units touching the same pair acquire locks in the same
// global order and cannot deadlock.
func (r *accountRepository) LockAccounts(accountNos ...string) (map[string]*domain.Account, error) {
	nos := make([]string, len(accountNos))
	copy(nos, accountNos)
	sort.Strings(nos)

	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE account_no = ANY($1)
		ORDER BY account_no FOR UPDATE
	`

	rows, err := r.db.Query(query, pq.Array(nos))
	if err != nil {
		if isLockTimeout(err) {
			r.logger.Warn("Lock wait timed out", "account_nos", nos)
			return nil, errors.ErrLockTimeout
		}
		r.logger.Error("Failed to lock accounts", "account_nos", nos, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to lock accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	locked := make(map[string]*domain.Account, len(nos))
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan locked account").WithDetails(err.Error())
		}
		locked[account.AccountNo] = account
	}
	if err := rows.Err(); err != nil {
		if isLockTimeout(err) {
			r.logger.Warn("Lock wait timed out", "account_nos", nos)
			return nil, errors.ErrLockTimeout
		}
		return nil, errors.NewAppError(errors.InternalError, "failed to lock accounts").WithDetails(err.Error())
	}

	return locked, nil
}

func (r *accountRepository) UpdateBalance(accountNo string, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = $2 WHERE account_no = $3`

	result, err := r.db.Exec(query, newBalance.String(), time.Now(), accountNo)
	if err != nil {
		r.logger.Error("Failed to update balance", "account_no", accountNo, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateCredential(accountNo string, failedAttempts int, locked bool) error {
	query := `UPDATE accounts SET failed_attempts = $1, is_locked = $2, updated_at = $3 WHERE account_no = $4`

	result, err := r.db.Exec(query, failedAttempts, locked, time.Now(), accountNo)
	if err != nil {
		r.logger.Error("Failed to update credential", "account_no", accountNo, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update credential").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}
	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *accountRepository) scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string

	err := row.Scan(
		&account.AccountNo,
		&account.Name,
		&balanceStr,
		&account.PinHash,
		&account.Salt,
		&account.FailedAttempts,
		&account.Locked,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, err
	}
	account.Balance = balance
	return &account, nil
}

// isLockTimeout reports whether err is Postgres 55P03 (lock_not_available),
// raised when lock_timeout expires while waiting on a row lock.
func isLockTimeout(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "55P03"
}
