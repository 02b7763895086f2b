package service

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// AuthService registers accounts and runs the login lockout state machine.
type AuthService struct {
	store          domain.Store
	ids            domain.IdentityProvider
	hasher         domain.PinHasher
	maxPinAttempts int
	logger         *slog.Logger
}

func NewAuthService(
	store domain.Store,
	ids domain.IdentityProvider,
	hasher domain.PinHasher,
	maxPinAttempts int,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		ids:            ids,
		hasher:         hasher,
		maxPinAttempts: maxPinAttempts,
		logger:         logger,
	}
}

// Register creates a new account with a zero balance. Input is validated
// before any store access; an account-number collision surfaces as a
// duplicate-account error and the caller may retry (a fresh number is drawn
// per call).
func (s *AuthService) Register(name, pin string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ErrEmptyName
	}
	if !pinPattern.MatchString(pin) {
		return nil, errors.ErrInvalidPin
	}

	accountNo, err := s.ids.NewAccountNo()
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to generate account number").WithDetails(err.Error())
	}
	salt, err := s.ids.NewSalt()
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to generate salt").WithDetails(err.Error())
	}

	account := &domain.Account{
		AccountNo: accountNo,
		Name:      name,
		Balance:   decimal.Zero,
		PinHash:   s.hasher.Hash(pin, salt),
		Salt:      salt,
	}

	if err := s.store.Accounts().CreateAccount(account); err != nil {
		return nil, err
	}

	s.logger.Info("Account registered", "account_no", account.AccountNo)
	return account, nil
}

// Login verifies the PIN under an exclusive row lock so concurrent attempts
// on the same account are serialized. A wrong PIN commits the incremented
// failed-attempt counter (locking the account when the budget is exhausted);
// every other failure rolls back without mutation. A locked account is
// rejected before the hash check, so a later correct PIN never unlocks it.
func (s *AuthService) Login(accountNo, pin string) (*domain.Session, error) {
	var session *domain.Session
	var authErr *errors.AppError

	err := s.store.WithTransaction(func(tx domain.Store) error {
		locked, err := tx.Accounts().LockAccounts(accountNo)
		if err != nil {
			return err
		}
		account, ok := locked[accountNo]
		if !ok {
			return errors.ErrAccountNotFound
		}

		if account.Locked {
			return errors.ErrAccountLocked
		}

		if !s.hasher.Verify(pin, account.Salt, account.PinHash) {
			attempts := account.FailedAttempts + 1
			lockNow := attempts >= s.maxPinAttempts

			if err := tx.Accounts().UpdateCredential(accountNo, attempts, lockNow); err != nil {
				return err
			}

			if lockNow {
				s.logger.Warn("Account locked after wrong PIN attempts", "account_no", accountNo, "attempts", attempts)
				authErr = errors.ErrAccountLocked
			} else {
				authErr = errors.NewWrongPin(s.maxPinAttempts - attempts)
			}
			// Commit the counter update; the failure is reported after.
			return nil
		}

		if err := tx.Accounts().UpdateCredential(accountNo, 0, false); err != nil {
			return err
		}

		session = &domain.Session{
			AccountNo:  accountNo,
			LoggedInAt: time.Now(),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}

	s.logger.Info("Login successful", "account_no", accountNo)
	return session, nil
}
