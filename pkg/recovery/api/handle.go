package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/packgallery/account-idm/pkg/recovery"
)

// Message shown whenever a lookup or token check fails. Unknown
// accounts and bad tokens read the same to the caller so responses
// cannot be used to enumerate accounts.
const genericFailureMessage = "The account could not be found or the token is invalid"

// Handler exposes the public recovery endpoints
type Handler struct {
	coordinator *recovery.Coordinator
}

// NewHandler creates a new recovery API handler
func NewHandler(coordinator *recovery.Coordinator) *Handler {
	return &Handler{
		coordinator: coordinator,
	}
}

// ForgotPassword handles POST /forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	_, err := h.coordinator.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "A valid email address is required"})
		case errors.Is(err, recovery.ErrAccountNotFound),
			errors.Is(err, recovery.ErrAmbiguousEmail):
			// Ambiguity reads the same as not-found; revealing that an
			// address has multiple claimants is itself a leak.
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: genericFailureMessage})
		default:
			slog.Error("Failed to request password reset", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while processing the request"})
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ForgotPasswordResponse{
		Message: "Password reset instructions have been sent",
	})
}

// ResetPassword handles POST /reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	err := h.coordinator.ResetPassword(r.Context(), req.Username, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: err.Error()})
		case errors.Is(err, recovery.ErrAccountNotFound),
			errors.Is(err, recovery.ErrInvalidToken):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: genericFailureMessage})
		default:
			slog.Error("Failed to reset password", "username", req.Username, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while resetting the password"})
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResetPasswordResponse{
		Message: "Password has been reset",
	})
}

// ResendConfirmation handles POST /resend-confirmation
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req ResendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	_, err := h.coordinator.RequestConfirmation(r.Context(), req.Email, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "A valid email address is required"})
		case errors.Is(err, recovery.ErrAmbiguousEmail):
			// Multiple unconfirmed accounts claim this address; the
			// caller has to say which one by supplying a username.
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ErrorResponse{Error: "Multiple accounts are pending for this address, specify a username"})
		case errors.Is(err, recovery.ErrAccountNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: genericFailureMessage})
		default:
			slog.Error("Failed to resend confirmation", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while sending the confirmation email"})
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ResendConfirmationResponse{
		Message: "Confirmation email has been sent",
	})
}

// Confirm handles GET /confirm. It is the landing endpoint for the
// links sent in confirmation emails, so inputs arrive as query params.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	token := r.URL.Query().Get("token")

	result, err := h.coordinator.ConfirmEmail(r.Context(), username, token)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrAccountNotFound),
			errors.Is(err, recovery.ErrInvalidToken):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: genericFailureMessage})
		default:
			slog.Error("Failed to confirm email", "username", username, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while confirming the email address"})
		}
		return
	}

	message := "Email address confirmed"
	if result.ConfirmingNewAccount {
		message = "Account confirmed"
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ConfirmResponse{
		Message:    message,
		Email:      result.Email,
		NewAccount: result.ConfirmingNewAccount,
	})
}

// Routes returns a http.Handler for the public recovery API
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/resend-confirmation", h.ResendConfirmation)
	r.Get("/confirm", h.Confirm)

	return r
}
