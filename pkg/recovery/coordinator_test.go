package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packgallery/account-idm/pkg/account"
	"github.com/packgallery/account-idm/pkg/notification"
	"github.com/packgallery/account-idm/pkg/password"
)

type fixture struct {
	repo        *account.InMemoryAccountRepository
	coordinator *Coordinator
	mock        *notification.MockNotifier
}

func newFixture(t *testing.T, opts ...CoordinatorOption) *fixture {
	t.Helper()

	repo := account.NewInMemoryAccountRepository()
	mock := &notification.MockNotifier{}

	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, mock)
	for _, noticeType := range []notification.NoticeType{
		notification.PasswordResetNotice,
		notification.EmailConfirmationNotice,
		notification.EmailChangeNotice,
	} {
		require.NoError(t, nm.RegisterNotification(noticeType, notification.EmailSystem, notification.NoticeTemplate{
			Subject: string(noticeType),
		}))
	}

	urls := account.NewURLBuilder("https://gallery.example.com")
	opts = append([]CoordinatorOption{WithNotificationManager(nm)}, opts...)

	return &fixture{
		repo:        repo,
		coordinator: NewCoordinator(repo, password.NewManager(nil), urls, opts...),
		mock:        mock,
	}
}

func (f *fixture) mustCreate(t *testing.T, acct account.Account) account.Account {
	t.Helper()
	created, err := f.repo.Create(context.Background(), acct)
	require.NoError(t, err)
	return created
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("IssuesTokenAndSendsInstructions", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})

		acct, err := f.coordinator.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "alice", acct.Username)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordResetToken)
		require.NotNil(t, stored.PasswordResetExpiresAt)
		assert.WithinDuration(t,
			time.Now().UTC().Add(DefaultResetTokenExpiryMinutes*time.Minute),
			*stored.PasswordResetExpiresAt, time.Minute)

		sent := f.mock.SentOfType(notification.PasswordResetNotice)
		require.Len(t, sent, 1)
		assert.Equal(t, "a@x.com", sent[0].Notification.To)
		assert.Contains(t, sent[0].Notification.Data["ResetLink"], stored.PasswordResetToken)
	})

	t.Run("CaseInsensitiveLookup", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "Alice@X.com"})

		_, err := f.coordinator.RequestPasswordReset(ctx, "alice@x.COM")
		assert.NoError(t, err)
	})

	t.Run("MatchesUnconfirmedEmail", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "bob", UnconfirmedEmail: "b@x.com"})

		acct, err := f.coordinator.RequestPasswordReset(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Equal(t, "bob", acct.Username)

		sent := f.mock.SentOfType(notification.PasswordResetNotice)
		require.Len(t, sent, 1)
		assert.Equal(t, "b@x.com", sent[0].Notification.To)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coordinator.RequestPasswordReset(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Empty(t, f.mock.SentNotifications)
	})

	t.Run("ContestedEmailRefusedDeterministically", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "shared@x.com"})
		f.mustCreate(t, account.Account{Username: "bob", UnconfirmedEmail: "shared@x.com"})

		_, err := f.coordinator.RequestPasswordReset(ctx, "shared@x.com")
		assert.ErrorIs(t, err, ErrAmbiguousEmail)
		assert.Empty(t, f.mock.SentNotifications)
	})

	t.Run("MalformedEmail", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coordinator.RequestPasswordReset(ctx, "not-an-email")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("ReissueSupersedesPriorToken", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})

		_, err := f.coordinator.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
		first, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)

		_, err = f.coordinator.RequestPasswordReset(ctx, "a@x.com")
		require.NoError(t, err)
		second, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotEqual(t, first.PasswordResetToken, second.PasswordResetToken)

		// The superseded token no longer works.
		err = f.coordinator.ResetPassword(ctx, "alice", first.PasswordResetToken, "N3w&Secret!pw")
		assert.ErrorIs(t, err, ErrInvalidToken)

		// The replacement does.
		err = f.coordinator.ResetPassword(ctx, "alice", second.PasswordResetToken, "N3w&Secret!pw")
		assert.NoError(t, err)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, f *fixture, email string) string {
		t.Helper()
		acct, err := f.coordinator.RequestPasswordReset(ctx, email)
		require.NoError(t, err)
		stored, err := f.repo.FindByUsername(ctx, acct.Username)
		require.NoError(t, err)
		return stored.PasswordResetToken
	}

	t.Run("SetsCredentialAndClearsToken", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})
		token := issue(t, f, "a@x.com")

		err := f.coordinator.ResetPassword(ctx, "alice", token, "N3w&Secret!pw")
		require.NoError(t, err)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, stored.PasswordResetToken)
		assert.Nil(t, stored.PasswordResetExpiresAt)

		pm := password.NewManager(nil)
		match, err := pm.Verify("N3w&Secret!pw", stored.PasswordHash, password.Version(stored.PasswordVersion))
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("ConsumedTokenCannotBeReplayed", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})
		token := issue(t, f, "a@x.com")

		require.NoError(t, f.coordinator.ResetPassword(ctx, "alice", token, "N3w&Secret!pw"))

		err := f.coordinator.ResetPassword(ctx, "alice", token, "An0ther&pw!X")
		assert.ErrorIs(t, err, ErrInvalidToken)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		pm := password.NewManager(nil)
		match, err := pm.Verify("N3w&Secret!pw", stored.PasswordHash, password.Version(stored.PasswordVersion))
		require.NoError(t, err)
		assert.True(t, match, "replay must not change the credential")
	})

	t.Run("ExpiredTokenFails", func(t *testing.T) {
		f := newFixture(t, WithResetTokenExpiry(-time.Minute))
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})
		token := issue(t, f, "a@x.com")

		err := f.coordinator.ResetPassword(ctx, "alice", token, "N3w&Secret!pw")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongUsernameFailsWithoutMutation", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com", PasswordHash: "old-hash", PasswordVersion: 1})
		token := issue(t, f, "a@x.com")

		err := f.coordinator.ResetPassword(ctx, "mallory", token, "N3w&Secret!pw")
		assert.ErrorIs(t, err, ErrInvalidToken)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, token, stored.PasswordResetToken, "failure must not consume the token")
	})

	t.Run("WrongTokenExactMatchOnly", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})
		token := issue(t, f, "a@x.com")

		err := f.coordinator.ResetPassword(ctx, "alice", token[:len(token)-1], "N3w&Secret!pw")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("EmptyToken", func(t *testing.T) {
		f := newFixture(t)
		err := f.coordinator.ResetPassword(ctx, "alice", "", "N3w&Secret!pw")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WeakPasswordRejectedBeforeConsume", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})
		token := issue(t, f, "a@x.com")

		err := f.coordinator.ResetPassword(ctx, "alice", token, "weak")
		assert.ErrorIs(t, err, ErrValidation)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, token, stored.PasswordResetToken, "validation failure must not consume the token")
	})
}

func TestRequestConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleUnconfirmedMatchReusesToken", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{
			Username:               "alice",
			UnconfirmedEmail:       "a@x.com",
			EmailConfirmationToken: "existing-token",
		})

		acct, err := f.coordinator.RequestConfirmation(ctx, "a@x.com", "")
		require.NoError(t, err)
		assert.Equal(t, "alice", acct.Username)

		sent := f.mock.SentOfType(notification.EmailConfirmationNotice)
		require.Len(t, sent, 1)
		assert.Equal(t, "a@x.com", sent[0].Notification.To)
		assert.Contains(t, sent[0].Notification.Data["ConfirmationLink"], "existing-token",
			"resend must reuse the outstanding token")
	})

	t.Run("IssuesTokenWhenNoneOutstanding", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", UnconfirmedEmail: "a@x.com"})

		_, err := f.coordinator.RequestConfirmation(ctx, "a@x.com", "")
		require.NoError(t, err)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.EmailConfirmationToken)
	})

	t.Run("ConfirmedAccountsAreOutOfReach", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", Email: "a@x.com"})

		_, err := f.coordinator.RequestConfirmation(ctx, "a@x.com", "")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Empty(t, f.mock.SentNotifications)
	})

	t.Run("MultipleClaimantsNeedUsername", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", UnconfirmedEmail: "shared@x.com"})
		f.mustCreate(t, account.Account{Username: "bob", UnconfirmedEmail: "shared@x.com"})

		_, err := f.coordinator.RequestConfirmation(ctx, "shared@x.com", "")
		assert.ErrorIs(t, err, ErrAmbiguousEmail)

		acct, err := f.coordinator.RequestConfirmation(ctx, "shared@x.com", "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", acct.Username)
	})

	t.Run("NoMatch", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coordinator.RequestConfirmation(ctx, "nobody@x.com", "")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestConfirmEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("NewAccountActivationSendsNoNotice", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{
			Username:               "alice",
			UnconfirmedEmail:       "a@x.com",
			EmailConfirmationToken: "T1",
		})

		result, err := f.coordinator.ConfirmEmail(ctx, "alice", "T1")
		require.NoError(t, err)
		assert.True(t, result.ConfirmingNewAccount)
		assert.Equal(t, "a@x.com", result.Email)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", stored.Email)
		assert.Empty(t, stored.UnconfirmedEmail)
		assert.Empty(t, stored.EmailConfirmationToken)

		assert.Empty(t, f.mock.SentOfType(notification.EmailChangeNotice),
			"activation must not fire a previous-address notice")
	})

	t.Run("ChangeConfirmationNotifiesPreviousAddress", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{
			Username:               "alice",
			Email:                  "a@x.com",
			UnconfirmedEmail:       "b@x.com",
			EmailConfirmationToken: "T1",
		})

		result, err := f.coordinator.ConfirmEmail(ctx, "alice", "T1")
		require.NoError(t, err)
		assert.False(t, result.ConfirmingNewAccount)
		assert.Equal(t, "b@x.com", result.Email)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", stored.Email)
		assert.Empty(t, stored.UnconfirmedEmail)

		notices := f.mock.SentOfType(notification.EmailChangeNotice)
		require.Len(t, notices, 1, "exactly one previous-address notice")
		assert.Equal(t, "a@x.com", notices[0].Notification.To)
		assert.Equal(t, "b@x.com", notices[0].Notification.Data["NewEmail"])
	})

	t.Run("ConsumedTokenCannotBeReplayed", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{
			Username:               "alice",
			Email:                  "a@x.com",
			UnconfirmedEmail:       "b@x.com",
			EmailConfirmationToken: "T1",
		})

		_, err := f.coordinator.ConfirmEmail(ctx, "alice", "T1")
		require.NoError(t, err)

		_, err = f.coordinator.ConfirmEmail(ctx, "alice", "T1")
		assert.ErrorIs(t, err, ErrInvalidToken)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", stored.Email, "replay must not change state")
		assert.Len(t, f.mock.SentOfType(notification.EmailChangeNotice), 1,
			"replay must not fire another notice")
	})

	t.Run("EmptyTokenIsNotFound", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", UnconfirmedEmail: "a@x.com", EmailConfirmationToken: "T1"})

		_, err := f.coordinator.ConfirmEmail(ctx, "alice", "")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coordinator.ConfirmEmail(ctx, "nobody", "T1")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		// Repository sentinels must not cross this boundary: API layers
		// only map this package's errors, and anything else would make
		// unknown usernames respond differently from bad tokens.
		assert.NotErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("WrongTokenNeverSucceedsOnExistenceAlone", func(t *testing.T) {
		f := newFixture(t)
		f.mustCreate(t, account.Account{Username: "alice", UnconfirmedEmail: "a@x.com", EmailConfirmationToken: "T1"})

		_, err := f.coordinator.ConfirmEmail(ctx, "alice", "T2")
		assert.ErrorIs(t, err, ErrInvalidToken)

		stored, err := f.repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, stored.Email, "failed confirmation must not promote the pending address")
		assert.Equal(t, "T1", stored.EmailConfirmationToken)
	})
}
