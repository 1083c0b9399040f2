package api

// OverviewResponse represents the authenticated account landing view
type OverviewResponse struct {
	Username     string   `json:"username"`
	ApiKey       string   `json:"api_key"`
	CuratedFeeds []string `json:"curated_feeds,omitempty"`
}

// ProfileResponse represents the data behind the profile edit form
type ProfileResponse struct {
	Email        string `json:"email"`
	PendingEmail string `json:"pending_email,omitempty"`
	EmailAllowed bool   `json:"email_allowed"`
}

// UpdateProfileRequest represents a profile edit
type UpdateProfileRequest struct {
	Email        string `json:"email"`
	EmailAllowed bool   `json:"email_allowed"`
}

// UpdateProfileResponse represents the result of a profile edit
type UpdateProfileResponse struct {
	Message          string `json:"message"`
	PendingEmail     string `json:"pending_email,omitempty"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// GenerateApiKeyResponse carries a freshly generated API key
type GenerateApiKeyResponse struct {
	ApiKey string `json:"api_key"`
}

// ChangePasswordRequest represents a password change for an
// authenticated account
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordResponse represents the response after a password change
type ChangePasswordResponse struct {
	Message string `json:"message"`
}

// PackageSummary represents one owned package in a public profile
type PackageSummary struct {
	Id            string `json:"id"`
	LatestVersion string `json:"latest_version"`
	Downloads     int64  `json:"downloads"`
}

// PublicProfileResponse represents the public view of an account
type PublicProfileResponse struct {
	Username       string           `json:"username"`
	Packages       []PackageSummary `json:"packages"`
	TotalDownloads int64            `json:"total_downloads"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
