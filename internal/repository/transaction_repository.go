package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// AppendTransaction inserts one ledger record. The table has no update path;
// records are immutable once this returns.
func (r *transactionRepository) AppendTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_no, type, amount, balance_after, related_account, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	now := time.Now()

	var related interface{}
	if tx.RelatedAccount != nil {
		related = *tx.RelatedAccount
	}

	err := r.db.QueryRow(
		query,
		tx.ID,
		tx.AccountNo,
		string(tx.Type),
		tx.Amount.String(),
		tx.BalanceAfter.String(),
		related,
		tx.Note,
		now,
	).Scan(&tx.Seq)

	if err != nil {
		r.logger.Error("Failed to append transaction",
			"account_no", tx.AccountNo,
			"type", tx.Type,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to append transaction").WithDetails(err.Error())
	}

	tx.CreatedAt = now
	return nil
}

func (r *transactionRepository) ListByAccount(accountNo string, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, seq, account_no, type, amount, balance_after, related_account, note, created_at
		FROM transactions WHERE account_no = $1
		ORDER BY seq DESC LIMIT $2
	`

	rows, err := r.db.Query(query, accountNo, limit)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_no", accountNo, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var typeStr, amountStr, balanceStr string
		var related sql.NullString

		err := rows.Scan(
			&tx.ID,
			&tx.Seq,
			&tx.AccountNo,
			&typeStr,
			&amountStr,
			&balanceStr,
			&related,
			&tx.Note,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		tx.Type = domain.TransactionType(typeStr)
		if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		if tx.BalanceAfter, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}
		if related.Valid {
			rel := related.String
			tx.RelatedAccount = &rel
		}

		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}

	return transactions, nil
}
