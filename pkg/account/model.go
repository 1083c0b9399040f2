package account

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a gallery user account in the domain model.
// Username is the immutable identifier; Email stays empty until the
// first confirmation succeeds.
type Account struct {
	ID                     uuid.UUID
	Username               string
	Email                  string
	UnconfirmedEmail       string
	EmailAllowed           bool
	APIKey                 uuid.UUID
	EmailConfirmationToken string
	PasswordResetToken     string
	PasswordResetExpiresAt *time.Time
	PasswordHash           string
	PasswordVersion        int32
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Confirmed reports whether the account has a confirmed email address.
func (a Account) Confirmed() bool {
	return a.Email != ""
}

// BestEmail returns the confirmed address when present, otherwise the
// pending one.
func (a Account) BestEmail() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UnconfirmedEmail
}

// PackageInfo is the slice of package data the account service surfaces
// on public profiles. The package catalog itself is owned by the
// gallery's package service.
type PackageInfo struct {
	ID            string
	LatestVersion string
	Downloads     int64
}

// Overview is the authenticated account landing view.
type Overview struct {
	Username     string
	APIKey       uuid.UUID
	CuratedFeeds []string
}

// ProfileView is the data behind the profile edit form.
type ProfileView struct {
	Email        string
	EmailAllowed bool
	PendingEmail string
}

// PublicProfile is the view anyone can see for a username.
type PublicProfile struct {
	Username       string
	Email          string
	Packages       []PackageInfo
	TotalDownloads int64
}
