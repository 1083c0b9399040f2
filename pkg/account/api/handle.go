package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/packgallery/account-idm/pkg/account"
	"github.com/packgallery/account-idm/pkg/password"
)

// Handler exposes the account management endpoints
type Handler struct {
	service *account.Service
}

// NewHandler creates a new account API handler
func NewHandler(service *account.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetOverview handles GET /
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r)
	if err != nil {
		slog.Error("Failed to get username from context", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	overview, err := h.service.Overview(r.Context(), username)
	if err != nil {
		renderAccountError(w, r, username, err, "An error occurred while loading the account")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, OverviewResponse{
		Username:     overview.Username,
		ApiKey:       overview.APIKey.String(),
		CuratedFeeds: overview.CuratedFeeds,
	})
}

// GetProfile handles GET /profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r)
	if err != nil {
		slog.Error("Failed to get username from context", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	view, err := h.service.Profile(r.Context(), username)
	if err != nil {
		renderAccountError(w, r, username, err, "An error occurred while loading the profile")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ProfileResponse{
		Email:        view.Email,
		PendingEmail: view.PendingEmail,
		EmailAllowed: view.EmailAllowed,
	})
}

// UpdateProfile handles PUT /profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r)
	if err != nil {
		slog.Error("Failed to get username from context", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.UpdateProfile(r.Context(), username, req.Email, req.EmailAllowed)
	if err != nil {
		if errors.Is(err, account.ErrInvalidEmail) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "A valid email address is required"})
			return
		}
		renderAccountError(w, r, username, err, "An error occurred while updating the profile")
		return
	}

	message := "Profile updated"
	if result.ConfirmationSent {
		message = "Profile updated, confirmation email sent to the new address"
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, UpdateProfileResponse{
		Message:          message,
		PendingEmail:     result.PendingEmail,
		ConfirmationSent: result.ConfirmationSent,
	})
}

// GenerateApiKey handles POST /api-key
func (h *Handler) GenerateApiKey(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r)
	if err != nil {
		slog.Error("Failed to get username from context", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	key, err := h.service.GenerateAPIKey(r.Context(), username)
	if err != nil {
		renderAccountError(w, r, username, err, "An error occurred while generating the API key")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, GenerateApiKeyResponse{
		ApiKey: key.String(),
	})
}

// ChangePassword handles POST /change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username, err := usernameFromContext(r)
	if err != nil {
		slog.Error("Failed to get username from context", "err", err)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request body", "err", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	err = h.service.ChangePassword(r.Context(), username, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrPasswordMismatch):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "The current password is incorrect"})
		case errors.Is(err, account.ErrAccountNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Error: "Account not found"})
		case errors.Is(err, password.ErrComplexity):
			// Complexity failures carry actionable text; everything else
			// stays generic.
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: err.Error()})
		default:
			slog.Error("Failed to change password", "username", username, "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "An error occurred while changing the password"})
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ChangePasswordResponse{
		Message: "Password changed",
	})
}

// GetPublicProfile handles GET /users/{username}
func (h *Handler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.service.PublicProfile(r.Context(), username)
	if err != nil {
		renderAccountError(w, r, username, err, "An error occurred while loading the profile")
		return
	}

	packages := make([]PackageSummary, 0, len(profile.Packages))
	for _, p := range profile.Packages {
		packages = append(packages, PackageSummary{
			Id:            p.ID,
			LatestVersion: p.LatestVersion,
			Downloads:     p.Downloads,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, PublicProfileResponse{
		Username:       profile.Username,
		Packages:       packages,
		TotalDownloads: profile.TotalDownloads,
	})
}

// SecureRoutes returns a http.Handler for the authenticated account API
func SecureRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.GetOverview)
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Post("/api-key", h.GenerateApiKey)
	r.Post("/change-password", h.ChangePassword)

	return r
}

// PublicRoutes returns a http.Handler for the public profile API
func PublicRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/{username}", h.GetPublicProfile)

	return r
}

// renderAccountError maps service errors shared by most endpoints
func renderAccountError(w http.ResponseWriter, r *http.Request, username string, err error, fallback string) {
	if errors.Is(err, account.ErrAccountNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Account not found"})
		return
	}

	slog.Error("Account request failed", "username", username, "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: fallback})
}

// usernameFromContext extracts the username claim from the JWT placed
// in the request context by the jwtauth middleware
func usernameFromContext(r *http.Request) (string, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", err
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("username not found in JWT claims")
	}
	return username, nil
}
