package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/packgallery/account-idm/pkg/notification"
	"github.com/packgallery/account-idm/pkg/password"
	"github.com/packgallery/account-idm/pkg/utils"
)

// CuratedFeedLister lists the curated feeds an account manages. The
// feed catalog is owned by the gallery's feed service.
type CuratedFeedLister interface {
	FeedsForManager(ctx context.Context, accountID uuid.UUID) ([]string, error)
}

// PackageLister lists the packages an account owns. The package catalog
// is owned by the gallery's package service.
type PackageLister interface {
	PackagesByOwner(ctx context.Context, username string) ([]PackageInfo, error)
}

// Service handles account profile operations
type Service struct {
	repo                AccountRepository
	passwords           *password.Manager
	urls                *URLBuilder
	notificationManager *notification.NotificationManager
	feeds               CuratedFeedLister
	packages            PackageLister
}

// ServiceOption defines configuration options for the account service
type ServiceOption func(*Service)

// WithNotificationManager wires email delivery for profile changes
func WithNotificationManager(nm *notification.NotificationManager) ServiceOption {
	return func(s *Service) {
		s.notificationManager = nm
	}
}

// WithCuratedFeeds wires the external curated feed service
func WithCuratedFeeds(feeds CuratedFeedLister) ServiceOption {
	return func(s *Service) {
		s.feeds = feeds
	}
}

// WithPackages wires the external package service
func WithPackages(packages PackageLister) ServiceOption {
	return func(s *Service) {
		s.packages = packages
	}
}

// NewService creates a new account service
func NewService(repo AccountRepository, passwords *password.Manager, urls *URLBuilder, opts ...ServiceOption) *Service {
	service := &Service{
		repo:      repo,
		passwords: passwords,
		urls:      urls,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Register creates a new unconfirmed account and sends the confirmation
// email for its pending address.
func (s *Service) Register(ctx context.Context, username, email, plainPassword string) (Account, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, ErrInvalidEmail
	}
	if err := s.passwords.CheckComplexity(plainPassword); err != nil {
		return Account{}, err
	}

	hash, version, err := s.passwords.Hash(plainPassword)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acct, err := s.repo.Create(ctx, Account{
		Username:               username,
		UnconfirmedEmail:       email,
		EmailAllowed:           true,
		EmailConfirmationToken: utils.GenerateRandomString(32),
		PasswordHash:           hash,
		PasswordVersion:        int32(version),
	})
	if err != nil {
		return Account{}, err
	}

	s.sendNotice(notification.EmailConfirmationNotice, acct.UnconfirmedEmail, map[string]string{
		"Username":         acct.Username,
		"ConfirmationLink": s.urls.ConfirmEmailURL(acct.Username, acct.EmailConfirmationToken),
	})

	slog.Info("Account registered", "username", acct.Username)
	return acct, nil
}

// Overview returns the authenticated account landing view
func (s *Service) Overview(ctx context.Context, username string) (Overview, error) {
	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		Username: acct.Username,
		APIKey:   acct.APIKey,
	}

	if s.feeds != nil {
		feeds, err := s.feeds.FeedsForManager(ctx, acct.ID)
		if err != nil {
			slog.Error("Failed to list curated feeds", "username", username, "err", err)
		} else {
			overview.CuratedFeeds = feeds
		}
	}

	return overview, nil
}

// Profile returns the data behind the profile edit form
func (s *Service) Profile(ctx context.Context, username string) (ProfileView, error) {
	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return ProfileView{}, err
	}

	return ProfileView{
		Email:        acct.Email,
		EmailAllowed: acct.EmailAllowed,
		PendingEmail: acct.UnconfirmedEmail,
	}, nil
}

// UpdateProfileResult reports what a profile update did.
type UpdateProfileResult struct {
	// ConfirmationSent is true when the email changed and a confirmation
	// message went to the new address.
	ConfirmationSent bool
	PendingEmail     string
}

// UpdateProfile applies a profile edit. Changing the email never takes
// effect directly: the new address becomes pending with a fresh
// confirmation token, and the old address stays in effect until the
// token is consumed.
func (s *Service) UpdateProfile(ctx context.Context, username, newEmail string, emailAllowed bool) (UpdateProfileResult, error) {
	if _, err := mail.ParseAddress(newEmail); err != nil {
		return UpdateProfileResult{}, ErrInvalidEmail
	}

	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return UpdateProfileResult{}, err
	}

	params := UpdateProfileParams{
		ID:           acct.ID,
		EmailAllowed: emailAllowed,
	}

	switch {
	case strings.EqualFold(newEmail, acct.Email):
		// Email unchanged; cancels any pending change.

	case strings.EqualFold(newEmail, acct.UnconfirmedEmail):
		// Same pending change, keep the outstanding token.
		params.PendingEmail = acct.UnconfirmedEmail
		params.ConfirmationToken = acct.EmailConfirmationToken

	default:
		// New pending address supersedes any prior token.
		params.PendingEmail = newEmail
		params.ConfirmationToken = utils.GenerateRandomString(32)
	}

	if err := s.repo.UpdateProfile(ctx, params); err != nil {
		return UpdateProfileResult{}, err
	}

	result := UpdateProfileResult{PendingEmail: params.PendingEmail}
	if params.PendingEmail != "" && params.ConfirmationToken != acct.EmailConfirmationToken {
		s.sendNotice(notification.EmailChangeConfirmationNotice, params.PendingEmail, map[string]string{
			"Username":         acct.Username,
			"ConfirmationLink": s.urls.ConfirmEmailURL(acct.Username, params.ConfirmationToken),
		})
		result.ConfirmationSent = true
	}

	slog.Info("Profile updated", "username", username, "confirmation_sent", result.ConfirmationSent)
	return result, nil
}

// GenerateAPIKey replaces the account's API key and returns the new one
func (s *Service) GenerateAPIKey(ctx context.Context, username string) (uuid.UUID, error) {
	key := uuid.New()
	if err := s.repo.SetAPIKey(ctx, username, key); err != nil {
		return uuid.Nil, err
	}

	slog.Info("API key regenerated", "username", username)
	return key, nil
}

// ChangePassword changes the password after verifying the current one
func (s *Service) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	match, err := s.passwords.Verify(currentPassword, acct.PasswordHash, password.Version(acct.PasswordVersion))
	if err != nil {
		return err
	}
	if !match {
		return ErrPasswordMismatch
	}

	if err := s.passwords.CheckComplexity(newPassword); err != nil {
		return err
	}

	hash, version, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.SetPassword(ctx, acct.ID, hash, int32(version)); err != nil {
		return err
	}

	slog.Info("Password changed", "username", username)
	return nil
}

// PublicProfile returns the public view for a username
func (s *Service) PublicProfile(ctx context.Context, username string) (PublicProfile, error) {
	acct, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return PublicProfile{}, err
	}

	profile := PublicProfile{
		Username: acct.Username,
		Email:    acct.Email,
	}

	if s.packages != nil {
		packages, err := s.packages.PackagesByOwner(ctx, acct.Username)
		if err != nil {
			slog.Error("Failed to list packages", "username", username, "err", err)
		} else {
			profile.Packages = packages
			for _, p := range packages {
				profile.TotalDownloads += p.Downloads
			}
		}
	}

	return profile, nil
}

// sendNotice delivers a notification email, best effort. Dispatch
// failure is reported in the log, never to the caller: the state change
// it announces has already committed.
func (s *Service) sendNotice(noticeType notification.NoticeType, to string, data map[string]string) {
	if s.notificationManager == nil {
		slog.Warn("Notification manager not configured, skipping email send", "notice", noticeType)
		return
	}

	err := s.notificationManager.Send(noticeType, notification.NotificationData{
		To:   to,
		Data: data,
	})
	if err != nil {
		slog.Error("Failed to send notice", "notice", noticeType, "err", err)
	}
}
