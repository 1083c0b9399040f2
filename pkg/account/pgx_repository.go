package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packgallery/account-idm/pkg/utils"
)

const accountColumns = `
	id, username, email, unconfirmed_email, email_allowed, api_key,
	email_confirmation_token, password_reset_token, password_reset_expires_at,
	password, password_version, created_at, updated_at
`

// PostgresAccountRepository implements AccountRepository on PostgreSQL.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	var email, unconfirmed, confirmToken, resetToken sql.NullString
	var resetExpires sql.NullTime

	err := row.Scan(
		&acct.ID,
		&acct.Username,
		&email,
		&unconfirmed,
		&acct.EmailAllowed,
		&acct.APIKey,
		&confirmToken,
		&resetToken,
		&resetExpires,
		&acct.PasswordHash,
		&acct.PasswordVersion,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		return Account{}, err
	}

	acct.Email = email.String
	acct.UnconfirmedEmail = unconfirmed.String
	acct.EmailConfirmationToken = confirmToken.String
	acct.PasswordResetToken = resetToken.String
	if resetExpires.Valid {
		t := resetExpires.Time
		acct.PasswordResetExpiresAt = &t
	}
	return acct, nil
}

func (r *PostgresAccountRepository) Create(ctx context.Context, acct Account) (Account, error) {
	query := `
		INSERT INTO accounts (username, unconfirmed_email, email_allowed, api_key, email_confirmation_token, password, password_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountColumns

	apiKey := acct.APIKey
	if apiKey == uuid.Nil {
		apiKey = uuid.New()
	}

	created, err := scanAccount(r.db.QueryRow(ctx, query,
		acct.Username,
		utils.ToNullString(acct.UnconfirmedEmail),
		acct.EmailAllowed,
		apiKey,
		utils.ToNullString(acct.EmailConfirmationToken),
		acct.PasswordHash,
		acct.PasswordVersion,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateUsername
		}
		return Account{}, err
	}
	return created, nil
}

func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE username = $1
	`

	acct, err := scanAccount(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return acct, nil
}

func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) ([]Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
		OR LOWER(unconfirmed_email) = LOWER($1)
		ORDER BY created_at
	`

	return r.queryAccounts(ctx, query, email)
}

func (r *PostgresAccountRepository) FindByUnconfirmedEmail(ctx context.Context, email, username string) ([]Account, error) {
	if username != "" {
		query := `
			SELECT ` + accountColumns + `
			FROM accounts
			WHERE LOWER(unconfirmed_email) = LOWER($1)
			AND username = $2
		`
		return r.queryAccounts(ctx, query, email, username)
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(unconfirmed_email) = LOWER($1)
		ORDER BY created_at
	`
	return r.queryAccounts(ctx, query, email)
}

func (r *PostgresAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, params UpdateProfileParams) error {
	query := `
		UPDATE accounts
		SET email_allowed = $2,
		    unconfirmed_email = $3,
		    email_confirmation_token = $4,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		params.ID,
		params.EmailAllowed,
		utils.ToNullString(params.PendingEmail),
		utils.ToNullString(params.ConfirmationToken),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) SetAPIKey(ctx context.Context, username string, key uuid.UUID) error {
	query := `
		UPDATE accounts
		SET api_key = $2,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE username = $1
	`

	tag, err := r.db.Exec(ctx, query, username, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string, version int32) error {
	query := `
		UPDATE accounts
		SET password = $2,
		    password_version = $3,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, hash, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) SetResetToken(ctx context.Context, params SetResetTokenParams) error {
	// Overwrites any outstanding token so it is superseded.
	query := `
		UPDATE accounts
		SET password_reset_token = $2,
		    password_reset_expires_at = $3,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, params.ID, params.Token, params.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepository) ConsumeResetToken(ctx context.Context, params ConsumeResetTokenParams) (bool, error) {
	if params.Token == "" {
		return false, nil
	}

	// Validate and clear in one conditional update; concurrent attempts
	// on the same token get at most one success.
	query := `
		UPDATE accounts
		SET password = $3,
		    password_version = $4,
		    password_reset_token = NULL,
		    password_reset_expires_at = NULL,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE username = $1
		AND password_reset_token = $2
		AND password_reset_expires_at > NOW() AT TIME ZONE 'UTC'
	`

	tag, err := r.db.Exec(ctx, query, params.Username, params.Token, params.PasswordHash, params.PasswordVersion)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresAccountRepository) EnsureConfirmationToken(ctx context.Context, id uuid.UUID, candidate string) (string, error) {
	// COALESCE keeps an outstanding token in place, making reissue idempotent.
	query := `
		UPDATE accounts
		SET email_confirmation_token = COALESCE(email_confirmation_token, $2),
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
		RETURNING email_confirmation_token
	`

	var token sql.NullString
	err := r.db.QueryRow(ctx, query, id, candidate).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	return token.String, nil
}

func (r *PostgresAccountRepository) ConsumeConfirmationToken(ctx context.Context, username, token string) (ConfirmOutcome, error) {
	if token == "" {
		return r.confirmMiss(ctx, username)
	}

	// Promote pending to confirmed and clear the token in one statement;
	// the CTE captures the prior confirmed address for the change notice.
	query := `
		WITH prior AS (
			SELECT id, email AS previous_email
			FROM accounts
			WHERE username = $1
			AND email_confirmation_token = $2
			AND unconfirmed_email IS NOT NULL
		)
		UPDATE accounts a
		SET email = a.unconfirmed_email,
		    unconfirmed_email = NULL,
		    email_confirmation_token = NULL,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		FROM prior p
		WHERE a.id = p.id
		RETURNING p.previous_email, a.email
	`

	var previous, confirmed sql.NullString
	err := r.db.QueryRow(ctx, query, username, token).Scan(&previous, &confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.confirmMiss(ctx, username)
		}
		return ConfirmOutcome{}, err
	}

	return ConfirmOutcome{
		Consumed:      true,
		WasNewAccount: !previous.Valid || previous.String == "",
		PreviousEmail: previous.String,
		Email:         confirmed.String,
	}, nil
}

// confirmMiss distinguishes an unknown account from a token mismatch
// after a failed consume. The distinction only feeds the error taxonomy;
// user-facing messages treat both the same.
func (r *PostgresAccountRepository) confirmMiss(ctx context.Context, username string) (ConfirmOutcome, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return ConfirmOutcome{}, err
	}
	if !exists {
		return ConfirmOutcome{}, ErrAccountNotFound
	}
	return ConfirmOutcome{}, nil
}
