// Package recovery implements the account confirmation and recovery
// flows for account-idm.
//
// This package coordinates password resets and email confirmations:
// issuing single-use tokens, delivering them through the notification
// manager, and consuming them atomically against the account store.
//
// # Overview
//
// The recovery package provides:
//   - Password reset requests (token issue with expiry window)
//   - Password reset consumption (single-use, compare-and-clear)
//   - Confirmation email resend for pending addresses
//   - Email confirmation consumption (activation and address change)
//   - Change notices to the previous address on confirmed changes
//
// # Basic Usage
//
//	import "github.com/packgallery/account-idm/pkg/recovery"
//
//	coordinator := recovery.NewCoordinator(
//		repo, passwords, urls,
//		recovery.WithNotificationManager(notificationManager),
//		recovery.WithResetTokenExpiry(24*time.Hour),
//	)
//
//	// User forgot their password
//	_, err := coordinator.RequestPasswordReset(ctx, "user@example.com")
//
//	// User follows the emailed link and submits a new password
//	err = coordinator.ResetPassword(ctx, username, token, newPassword)
//
//	// User follows an emailed confirmation link
//	result, err := coordinator.ConfirmEmail(ctx, username, token)
//
// # Error Semantics
//
// ErrAccountNotFound and ErrInvalidToken are distinct for logging and
// tests, but API layers must present them identically: differing
// messages would reveal which usernames exist.
package recovery
