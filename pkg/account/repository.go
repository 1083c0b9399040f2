package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UpdateProfileParams carries a profile update. PendingEmail and
// ConfirmationToken are set together to start (or keep) an email
// change; both empty cancels any pending change.
type UpdateProfileParams struct {
	ID                uuid.UUID
	EmailAllowed      bool
	PendingEmail      string
	ConfirmationToken string
}

// SetResetTokenParams issues a password reset token, superseding any
// prior outstanding token for the account.
type SetResetTokenParams struct {
	ID        uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// ConsumeResetTokenParams is the atomic consume of a reset token: the
// credential is set and the token cleared only when the token matches
// and is unexpired.
type ConsumeResetTokenParams struct {
	Username        string
	Token           string
	PasswordHash    string
	PasswordVersion int32
}

// ConfirmOutcome reports the result of consuming a confirmation token.
type ConfirmOutcome struct {
	// Consumed is true only when the presented token matched exactly;
	// the token is cleared in the same operation.
	Consumed bool

	// WasNewAccount is true when the account had no confirmed email
	// before this confirmation (first activation).
	WasNewAccount bool

	// PreviousEmail is the confirmed email before the change, empty for
	// new accounts.
	PreviousEmail string

	// Email is the newly confirmed address.
	Email string
}

// AccountRepository defines the persistence operations the account and
// recovery services need. Both token-consume operations must be atomic
// against the backing store: validate and clear happen as one
// conditional update, so concurrent consumers get at most one success.
type AccountRepository interface {
	Create(ctx context.Context, acct Account) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)

	// FindByEmail matches confirmed OR unconfirmed email, case-insensitively.
	FindByEmail(ctx context.Context, email string) ([]Account, error)

	// FindByUnconfirmedEmail matches unconfirmed email only,
	// case-insensitively; a non-empty username narrows the result.
	FindByUnconfirmedEmail(ctx context.Context, email, username string) ([]Account, error)

	UpdateProfile(ctx context.Context, params UpdateProfileParams) error
	SetAPIKey(ctx context.Context, username string, key uuid.UUID) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string, version int32) error

	SetResetToken(ctx context.Context, params SetResetTokenParams) error
	ConsumeResetToken(ctx context.Context, params ConsumeResetTokenParams) (bool, error)

	// EnsureConfirmationToken stores candidate as the account's
	// confirmation token only if none is outstanding, and returns the
	// token now in effect.
	EnsureConfirmationToken(ctx context.Context, id uuid.UUID, candidate string) (string, error)

	ConsumeConfirmationToken(ctx context.Context, username, token string) (ConfirmOutcome, error)
}
