package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packgallery/account-idm/pkg/account"
	"github.com/packgallery/account-idm/pkg/password"
	"github.com/packgallery/account-idm/pkg/recovery"
)

func newTestRouter(t *testing.T) (http.Handler, *account.InMemoryAccountRepository) {
	t.Helper()

	repo := account.NewInMemoryAccountRepository()
	coordinator := recovery.NewCoordinator(repo, password.NewManager(nil), account.NewURLBuilder("https://gallery.example.com"))
	return Routes(NewHandler(coordinator)), repo
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestForgotPasswordEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("KnownEmail", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{Username: "alice", Email: "a@x.com"})
		require.NoError(t, err)

		rec := postJSON(t, router, "/forgot-password", ForgotPasswordRequest{Email: "a@x.com"})
		assert.Equal(t, http.StatusOK, rec.Code)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordResetToken)
	})

	t.Run("MalformedEmail", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := postJSON(t, router, "/forgot-password", ForgotPasswordRequest{Email: "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		router, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/forgot-password", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownAndContestedEmailsReadTheSame", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{Username: "alice", Email: "shared@x.com"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, account.Account{Username: "bob", UnconfirmedEmail: "shared@x.com"})
		require.NoError(t, err)

		unknown := postJSON(t, router, "/forgot-password", ForgotPasswordRequest{Email: "nobody@x.com"})
		contested := postJSON(t, router, "/forgot-password", ForgotPasswordRequest{Email: "shared@x.com"})

		assert.Equal(t, http.StatusNotFound, unknown.Code)
		assert.Equal(t, unknown.Code, contested.Code)
		assert.Equal(t, errorBody(t, unknown), errorBody(t, contested))
	})
}

func TestResetPasswordEndpoint(t *testing.T) {
	ctx := context.Background()

	issueToken := func(t *testing.T, router http.Handler, repo *account.InMemoryAccountRepository) string {
		t.Helper()
		_, err := repo.Create(ctx, account.Account{Username: "alice", Email: "a@x.com"})
		require.NoError(t, err)
		rec := postJSON(t, router, "/forgot-password", ForgotPasswordRequest{Email: "a@x.com"})
		require.Equal(t, http.StatusOK, rec.Code)
		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		return stored.PasswordResetToken
	}

	t.Run("ValidTokenThenReplay", func(t *testing.T) {
		router, repo := newTestRouter(t)
		token := issueToken(t, router, repo)

		rec := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Username: "alice", Token: token, NewPassword: "N3w&Secret!pw",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		replay := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Username: "alice", Token: token, NewPassword: "An0ther&pw!X",
		})
		assert.Equal(t, http.StatusNotFound, replay.Code)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		router, repo := newTestRouter(t)
		token := issueToken(t, router, repo)

		rec := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Username: "alice", Token: token, NewPassword: "weak",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownUserAndBadTokenReadTheSame", func(t *testing.T) {
		router, repo := newTestRouter(t)
		issueToken(t, router, repo)

		unknown := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Username: "nobody", Token: "whatever", NewPassword: "N3w&Secret!pw",
		})
		badToken := postJSON(t, router, "/reset-password", ResetPasswordRequest{
			Username: "alice", Token: "wrong", NewPassword: "N3w&Secret!pw",
		})

		assert.Equal(t, http.StatusNotFound, unknown.Code)
		assert.Equal(t, unknown.Code, badToken.Code)
		assert.Equal(t, errorBody(t, unknown), errorBody(t, badToken))
	})
}

func TestResendConfirmationEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("PendingAccount", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{Username: "alice", UnconfirmedEmail: "a@x.com"})
		require.NoError(t, err)

		rec := postJSON(t, router, "/resend-confirmation", ResendConfirmationRequest{Email: "a@x.com"})
		assert.Equal(t, http.StatusOK, rec.Code)

		stored, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.EmailConfirmationToken)
	})

	t.Run("ContestedEmailNeedsUsername", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{Username: "alice", UnconfirmedEmail: "shared@x.com"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, account.Account{Username: "bob", UnconfirmedEmail: "shared@x.com"})
		require.NoError(t, err)

		rec := postJSON(t, router, "/resend-confirmation", ResendConfirmationRequest{Email: "shared@x.com"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = postJSON(t, router, "/resend-confirmation", ResendConfirmationRequest{Email: "shared@x.com", Username: "bob"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ConfirmedAccountOutOfReach", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{Username: "alice", Email: "a@x.com"})
		require.NoError(t, err)

		rec := postJSON(t, router, "/resend-confirmation", ResendConfirmationRequest{Email: "a@x.com"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestConfirmEndpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("NewAccountActivation", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{
			Username: "alice", UnconfirmedEmail: "a@x.com", EmailConfirmationToken: "CT1",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/confirm?username=alice&token=CT1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp ConfirmResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.NewAccount)
		assert.Equal(t, "a@x.com", resp.Email)
	})

	t.Run("UnknownUserAndBadTokenReadTheSame", func(t *testing.T) {
		router, repo := newTestRouter(t)
		_, err := repo.Create(ctx, account.Account{
			Username: "alice", UnconfirmedEmail: "a@x.com", EmailConfirmationToken: "CT1",
		})
		require.NoError(t, err)

		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			return rec
		}

		unknown := get("/confirm?username=nobody&token=CT1")
		badToken := get("/confirm?username=alice&token=WRONG")
		missing := get("/confirm")

		assert.Equal(t, http.StatusNotFound, unknown.Code)
		assert.Equal(t, unknown.Code, badToken.Code)
		assert.Equal(t, unknown.Code, missing.Code)
		assert.Equal(t, errorBody(t, unknown), errorBody(t, badToken))
	})
}
