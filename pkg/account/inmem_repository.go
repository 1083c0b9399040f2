package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryAccountRepository implements AccountRepository using in-memory
// storage. It backs unit tests and the quick-start mode of accountd.
type InMemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	byName   map[string]uuid.UUID
}

// NewInMemoryAccountRepository creates a new in-memory account repository
func NewInMemoryAccountRepository() *InMemoryAccountRepository {
	return &InMemoryAccountRepository{
		accounts: make(map[uuid.UUID]Account),
		byName:   make(map[string]uuid.UUID),
	}
}

func (r *InMemoryAccountRepository) Create(ctx context.Context, acct Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[acct.Username]; exists {
		return Account{}, ErrDuplicateUsername
	}

	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	if acct.APIKey == uuid.Nil {
		acct.APIKey = uuid.New()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	r.accounts[acct.ID] = acct
	r.byName[acct.Username] = acct.ID
	return acct, nil
}

func (r *InMemoryAccountRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return r.accounts[id], nil
}

func (r *InMemoryAccountRepository) FindByEmail(ctx context.Context, email string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Account
	for _, acct := range r.accounts {
		if strings.EqualFold(acct.Email, email) || strings.EqualFold(acct.UnconfirmedEmail, email) {
			matches = append(matches, acct)
		}
	}
	return matches, nil
}

func (r *InMemoryAccountRepository) FindByUnconfirmedEmail(ctx context.Context, email, username string) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Account
	for _, acct := range r.accounts {
		if !strings.EqualFold(acct.UnconfirmedEmail, email) {
			continue
		}
		if username != "" && acct.Username != username {
			continue
		}
		matches = append(matches, acct)
	}
	return matches, nil
}

func (r *InMemoryAccountRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[params.ID]
	if !ok {
		return ErrAccountNotFound
	}

	acct.EmailAllowed = params.EmailAllowed
	acct.UnconfirmedEmail = params.PendingEmail
	acct.EmailConfirmationToken = params.ConfirmationToken
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[params.ID] = acct
	return nil
}

func (r *InMemoryAccountRepository) SetAPIKey(ctx context.Context, username string, key uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[username]
	if !ok {
		return ErrAccountNotFound
	}
	acct := r.accounts[id]
	acct.APIKey = key
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return nil
}

func (r *InMemoryAccountRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string, version int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.PasswordHash = hash
	acct.PasswordVersion = version
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return nil
}

func (r *InMemoryAccountRepository) SetResetToken(ctx context.Context, params SetResetTokenParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[params.ID]
	if !ok {
		return ErrAccountNotFound
	}
	// Replaces any prior token: the old one is superseded and can no
	// longer be consumed.
	expiresAt := params.ExpiresAt
	acct.PasswordResetToken = params.Token
	acct.PasswordResetExpiresAt = &expiresAt
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[params.ID] = acct
	return nil
}

func (r *InMemoryAccountRepository) ConsumeResetToken(ctx context.Context, params ConsumeResetTokenParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[params.Username]
	if !ok {
		return false, nil
	}
	acct := r.accounts[id]

	if params.Token == "" || acct.PasswordResetToken != params.Token {
		return false, nil
	}
	if acct.PasswordResetExpiresAt == nil || !time.Now().UTC().Before(*acct.PasswordResetExpiresAt) {
		return false, nil
	}

	acct.PasswordHash = params.PasswordHash
	acct.PasswordVersion = params.PasswordVersion
	acct.PasswordResetToken = ""
	acct.PasswordResetExpiresAt = nil
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return true, nil
}

func (r *InMemoryAccountRepository) EnsureConfirmationToken(ctx context.Context, id uuid.UUID, candidate string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return "", ErrAccountNotFound
	}
	if acct.EmailConfirmationToken != "" {
		return acct.EmailConfirmationToken, nil
	}

	acct.EmailConfirmationToken = candidate
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return candidate, nil
}

func (r *InMemoryAccountRepository) ConsumeConfirmationToken(ctx context.Context, username, token string) (ConfirmOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[username]
	if !ok {
		return ConfirmOutcome{}, ErrAccountNotFound
	}
	acct := r.accounts[id]

	if token == "" || acct.EmailConfirmationToken != token || acct.UnconfirmedEmail == "" {
		return ConfirmOutcome{}, nil
	}

	outcome := ConfirmOutcome{
		Consumed:      true,
		WasNewAccount: acct.Email == "",
		PreviousEmail: acct.Email,
		Email:         acct.UnconfirmedEmail,
	}

	acct.Email = acct.UnconfirmedEmail
	acct.UnconfirmedEmail = ""
	acct.EmailConfirmationToken = ""
	acct.UpdatedAt = time.Now().UTC()
	r.accounts[id] = acct
	return outcome, nil
}
