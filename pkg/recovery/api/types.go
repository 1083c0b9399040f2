package api

// ForgotPasswordRequest represents the request to start a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse represents the response after a password reset request
type ForgotPasswordResponse struct {
	Message string `json:"message"`
}

// ResetPasswordRequest represents the request to consume a reset token
type ResetPasswordRequest struct {
	Username    string `json:"username"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetPasswordResponse represents the response after a successful reset
type ResetPasswordResponse struct {
	Message string `json:"message"`
}

// ResendConfirmationRequest represents the request to resend a
// confirmation email for a pending address
type ResendConfirmationRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// ResendConfirmationResponse represents the response after resending
type ResendConfirmationResponse struct {
	Message string `json:"message"`
}

// ConfirmResponse represents the response after consuming a confirmation token
type ConfirmResponse struct {
	Message    string `json:"message"`
	Email      string `json:"email"`
	NewAccount bool   `json:"new_account"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
