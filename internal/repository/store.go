package repository

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Store is the unit-of-work entry point over a Postgres database. A Store
// built from *sql.DB runs each repository call on its own connection; inside
// WithTransaction every call shares one transaction and its row locks.
type Store struct {
	executor    SQLExecutor
	lockTimeout time.Duration
	logger      *slog.Logger
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *sql.DB, lockTimeout time.Duration, logger *slog.Logger) *Store {
	return &Store{
		executor:    db,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

func (s *Store) Accounts() domain.AccountRepository {
	return NewAccountRepository(s.executor, s.logger)
}

func (s *Store) Transactions() domain.TransactionRepository {
	return NewTransactionRepository(s.executor, s.logger)
}

// WithTransaction runs fn as one atomic, isolated unit of work. Row locks
// taken inside are bounded by the configured lock timeout and are released on
// commit or rollback, never held past the unit.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return errors.NewAppError(errors.InternalError, "failed to set lock timeout").WithDetails(err.Error())
		}
	}

	txStore := &Store{
		executor:    &TxWrapper{Tx: tx},
		lockTimeout: s.lockTimeout,
		logger:      s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit unit of work", "error", err)
		return errors.NewAppError(errors.InternalError, "failed to commit transaction").WithDetails(err.Error())
	}
	return nil
}
