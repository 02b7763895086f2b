package service

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/identity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(store domain.Store) *AuthService {
	return NewAuthService(store, identity.NewGenerator(), identity.NewHasher(), 3, testLogger())
}

func storedAccount(s *memStore, accountNo string) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.accounts[accountNo]
}

// fixedIdentity always returns the same account number, to force collisions.
type fixedIdentity struct {
	accountNo string
	salt      string
}

func (f fixedIdentity) NewAccountNo() (string, error) { return f.accountNo, nil }
func (f fixedIdentity) NewSalt() (string, error)      { return f.salt, nil }

func TestRegisterCreatesZeroBalanceAccount(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	assert.Regexp(t, `^[1-9][0-9]{9}$`, account.AccountNo)
	assert.Equal(t, "Alice", account.Name)
	assert.True(t, account.Balance.IsZero())
	assert.Zero(t, account.FailedAttempts)
	assert.False(t, account.Locked)
	assert.NotEmpty(t, account.Salt)
	assert.Len(t, account.PinHash, 64)
	assert.NotEqual(t, identity.NewHasher().Hash("0000", account.Salt), account.PinHash)
}

func TestRegisterRejectsMalformedPins(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	for _, pin := range []string{"", "123", "12345", "12a4", "12 4", "-123"} {
		_, err := auth.Register("Alice", pin)
		assert.Equal(t, errors.ErrInvalidPin, err, "pin %q", pin)
	}
}

func TestRegisterRejectsBlankName(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	_, err := auth.Register("   ", "1234")
	assert.Equal(t, errors.ErrEmptyName, err)
}

func TestRegisterAccountNumberCollision(t *testing.T) {
	store := newMemStore()
	auth := NewAuthService(store, fixedIdentity{accountNo: "1000000001", salt: "c2FsdHNhbHRzYWx0"}, identity.NewHasher(), 3, testLogger())

	_, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	_, err = auth.Register("Bob", "5678")
	assert.Equal(t, errors.ErrDuplicateAccount, err)
}

func TestLoginSuccess(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	session, err := auth.Login(account.AccountNo, "1234")
	require.NoError(t, err)
	assert.Equal(t, account.AccountNo, session.AccountNo)
	assert.False(t, session.LoggedInAt.IsZero())
}

func TestLoginUnknownAccount(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	_, err := auth.Login("9999999999", "1234")
	assert.Equal(t, errors.ErrAccountNotFound, err)
}

func TestLoginWrongPinCommitsCounter(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	_, err = auth.Login(account.AccountNo, "0000")
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.WrongPin, appErr.Code)
	assert.Contains(t, appErr.Message, "2 attempts remaining")

	// The counter must be committed even though the call failed.
	assert.Equal(t, 1, storedAccount(store, account.AccountNo).FailedAttempts)
	assert.False(t, storedAccount(store, account.AccountNo).Locked)
}

func TestLoginLocksAfterMaxAttempts(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	_, err = auth.Login(account.AccountNo, "0000")
	assert.Equal(t, errors.WrongPin, err.(*errors.AppError).Code)

	_, err = auth.Login(account.AccountNo, "0000")
	appErr := err.(*errors.AppError)
	assert.Equal(t, errors.WrongPin, appErr.Code)
	assert.Contains(t, appErr.Message, "1 attempt remaining")

	// Third wrong attempt flips the lock in the same unit as the counter.
	_, err = auth.Login(account.AccountNo, "0000")
	assert.Equal(t, errors.AccountLocked, err.(*errors.AppError).Code)

	got := storedAccount(store, account.AccountNo)
	assert.True(t, got.Locked)
	assert.Equal(t, 3, got.FailedAttempts)
}

func TestLockedAccountRejectsCorrectPin(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		auth.Login(account.AccountNo, "0000")
	}
	require.True(t, storedAccount(store, account.AccountNo).Locked)

	// The lock is terminal: a correct PIN never reaches the match branch.
	_, err = auth.Login(account.AccountNo, "1234")
	assert.Equal(t, errors.ErrAccountLocked, err)
	assert.True(t, storedAccount(store, account.AccountNo).Locked)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	auth.Login(account.AccountNo, "0000")
	auth.Login(account.AccountNo, "0000")
	require.Equal(t, 2, storedAccount(store, account.AccountNo).FailedAttempts)

	_, err = auth.Login(account.AccountNo, "1234")
	require.NoError(t, err)
	assert.Zero(t, storedAccount(store, account.AccountNo).FailedAttempts)

	// The budget is fresh again after the reset.
	_, err = auth.Login(account.AccountNo, "0000")
	assert.Contains(t, err.(*errors.AppError).Message, "2 attempts remaining")
}

func TestConcurrentWrongPinAttempts(t *testing.T) {
	store := newMemStore()
	auth := newTestAuthService(store)

	account, err := auth.Register("Alice", "1234")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			auth.Login(account.AccountNo, "0000")
		}()
	}
	wg.Wait()

	// Attempts are serialized by the row lock: the counter never runs past
	// the budget, and the account ends up locked.
	got := storedAccount(store, account.AccountNo)
	assert.True(t, got.Locked)
	assert.Equal(t, 3, got.FailedAttempts)
}
