package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/packgallery/account-idm/pkg/account"
	"github.com/packgallery/account-idm/pkg/notification"
	"github.com/packgallery/account-idm/pkg/password"
	"github.com/packgallery/account-idm/pkg/utils"
)

// DefaultResetTokenExpiryMinutes bounds how long a password reset link
// stays valid after issuance.
const DefaultResetTokenExpiryMinutes = 1440

const tokenLength = 32

// Coordinator decides whether email confirmations and password resets
// succeed and which notifications follow. All persistence and delivery
// is delegated; the token compare-and-clear itself is requested from
// the repository as a single atomic operation.
type Coordinator struct {
	repo                account.AccountRepository
	passwords           *password.Manager
	urls                *account.URLBuilder
	notificationManager *notification.NotificationManager
	resetTokenExpiry    time.Duration
}

// CoordinatorOption defines configuration options
type CoordinatorOption func(*Coordinator)

// WithResetTokenExpiry overrides the reset token lifetime
func WithResetTokenExpiry(expiry time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.resetTokenExpiry = expiry
	}
}

// WithNotificationManager wires email delivery
func WithNotificationManager(nm *notification.NotificationManager) CoordinatorOption {
	return func(c *Coordinator) {
		c.notificationManager = nm
	}
}

// NewCoordinator creates a new confirmation and recovery coordinator
func NewCoordinator(repo account.AccountRepository, passwords *password.Manager, urls *account.URLBuilder, opts ...CoordinatorOption) *Coordinator {
	coordinator := &Coordinator{
		repo:             repo,
		passwords:        passwords,
		urls:             urls,
		resetTokenExpiry: DefaultResetTokenExpiryMinutes * time.Minute,
	}

	for _, opt := range opts {
		opt(coordinator)
	}

	return coordinator
}

// RequestPasswordReset issues a reset token for the single account whose
// confirmed or unconfirmed email matches, superseding any outstanding
// token, and emails reset instructions. An unconfirmed address is
// deliberately accepted: the user can confirm later, when they actually
// need a confirmed email.
func (c *Coordinator) RequestPasswordReset(ctx context.Context, email string) (account.Account, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return account.Account{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	matches, err := c.repo.FindByEmail(ctx, email)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to look up accounts by email: %w", err)
	}

	switch len(matches) {
	case 0:
		return account.Account{}, ErrAccountNotFound
	case 1:
		// fall through
	default:
		// Never guess which account the requester meant.
		slog.Warn("Password reset requested for contested email", "accounts", len(matches))
		return account.Account{}, ErrAmbiguousEmail
	}

	acct := matches[0]
	token := utils.GenerateRandomString(tokenLength)
	expiresAt := time.Now().UTC().Add(c.resetTokenExpiry)

	err = c.repo.SetResetToken(ctx, account.SetResetTokenParams{
		ID:        acct.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to save reset token: %w", err)
	}

	c.sendNotice(notification.PasswordResetNotice, acct.BestEmail(), map[string]string{
		"Username":    acct.Username,
		"ResetLink":   c.urls.ResetPasswordURL(acct.Username, token),
		"ExpiryHours": fmt.Sprintf("%.0f", c.resetTokenExpiry.Hours()),
	})

	slog.Info("Password reset token issued", "username", acct.Username, "expires_at", expiresAt)
	return acct, nil
}

// ResetPassword consumes a reset token and sets the new credential.
// Wrong user, wrong token and expired token are indistinguishable in
// the result, and failure leaves no partial mutation.
func (c *Coordinator) ResetPassword(ctx context.Context, username, token, newPassword string) error {
	if username == "" || token == "" {
		return ErrInvalidToken
	}

	if err := c.passwords.CheckComplexity(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	hash, version, err := c.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	consumed, err := c.repo.ConsumeResetToken(ctx, account.ConsumeResetTokenParams{
		Username:        username,
		Token:           token,
		PasswordHash:    hash,
		PasswordVersion: int32(version),
	})
	if err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if !consumed {
		slog.Warn("Password reset rejected", "username", username)
		return ErrInvalidToken
	}

	slog.Info("Password reset", "username", username)
	return nil
}

// RequestConfirmation resends the confirmation email for the account
// whose UNCONFIRMED email matches. Confirmed accounts are out of reach
// on this path, so verified users cannot be spammed with confirmations.
// When several accounts claim the address, a username is required.
func (c *Coordinator) RequestConfirmation(ctx context.Context, email, username string) (account.Account, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return account.Account{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	matches, err := c.repo.FindByUnconfirmedEmail(ctx, email, username)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to look up accounts by unconfirmed email: %w", err)
	}

	switch len(matches) {
	case 0:
		return account.Account{}, ErrAccountNotFound
	case 1:
		// fall through
	default:
		return account.Account{}, ErrAmbiguousEmail
	}

	acct := matches[0]

	// Reuses the outstanding token when one exists; resending must not
	// invalidate a link that is already in the user's inbox.
	token, err := c.repo.EnsureConfirmationToken(ctx, acct.ID, utils.GenerateRandomString(tokenLength))
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to ensure confirmation token: %w", err)
	}

	c.sendNotice(notification.EmailConfirmationNotice, acct.UnconfirmedEmail, map[string]string{
		"Username":         acct.Username,
		"ConfirmationLink": c.urls.ConfirmEmailURL(acct.Username, token),
	})

	slog.Info("Confirmation email resent", "username", acct.Username)
	return acct, nil
}

// ConfirmResult reports a successful email confirmation.
type ConfirmResult struct {
	// ConfirmingNewAccount is true when the account had no confirmed
	// email before this call (first activation).
	ConfirmingNewAccount bool

	// Email is the newly confirmed address.
	Email string
}

// ConfirmEmail consumes a confirmation token. The token comparison is
// the only gate: account existence alone never yields success, and a
// consumed token cannot be replayed. When the confirmation replaces a
// previously confirmed address, the old address is notified so a silent
// takeover cannot go unseen.
func (c *Coordinator) ConfirmEmail(ctx context.Context, username, token string) (ConfirmResult, error) {
	if username == "" || token == "" {
		return ConfirmResult{}, ErrAccountNotFound
	}

	outcome, err := c.repo.ConsumeConfirmationToken(ctx, username, token)
	if err != nil {
		// The repository's not-found is translated to this package's
		// sentinel so API layers map it alongside ErrInvalidToken.
		if errors.Is(err, account.ErrAccountNotFound) {
			return ConfirmResult{}, ErrAccountNotFound
		}
		return ConfirmResult{}, err
	}
	if !outcome.Consumed {
		slog.Warn("Email confirmation rejected", "username", username)
		return ConfirmResult{}, ErrInvalidToken
	}

	if !outcome.WasNewAccount {
		c.sendNotice(notification.EmailChangeNotice, outcome.PreviousEmail, map[string]string{
			"Username": username,
			"NewEmail": outcome.Email,
		})
	}

	slog.Info("Email confirmed", "username", username, "new_account", outcome.WasNewAccount)
	return ConfirmResult{
		ConfirmingNewAccount: outcome.WasNewAccount,
		Email:                outcome.Email,
	}, nil
}

// sendNotice delivers a notification email, best effort. Dispatch
// failure never rolls back the state change it announces; it is logged
// distinctly instead.
func (c *Coordinator) sendNotice(noticeType notification.NoticeType, to string, data map[string]string) {
	if c.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send", "notice", noticeType)
		return
	}

	err := c.notificationManager.Send(noticeType, notification.NotificationData{
		To:   to,
		Data: data,
	})
	if err != nil {
		slog.Error("Failed to send notice", "notice", noticeType, "err", err)
	}
}
