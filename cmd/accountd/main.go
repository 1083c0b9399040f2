package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/packgallery/account-idm/pkg/account"
	accountapi "github.com/packgallery/account-idm/pkg/account/api"
	"github.com/packgallery/account-idm/pkg/config"
	"github.com/packgallery/account-idm/pkg/notification"
	"github.com/packgallery/account-idm/pkg/password"
	"github.com/packgallery/account-idm/pkg/recovery"
	recoveryapi "github.com/packgallery/account-idm/pkg/recovery/api"
)

type Config struct {
	ServerConfig         config.ServerConfig
	DatabaseConfig       config.DatabaseConfig
	EmailConfig          config.EmailConfig
	JwtConfig            config.JwtConfig
	PasswordPolicyConfig config.PasswordPolicyConfig

	// PersistenceType selects the account store: "postgres" or
	// "memory". Memory mode needs no external services and suits
	// local experimentation only.
	PersistenceType string `env:"PERSISTENCE_TYPE" env-default:"postgres"`

	ResetTokenExpiry string `env:"RESET_TOKEN_EXPIRY" env-default:"24h"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	repo, cleanup := buildRepository(&cfg)
	defer cleanup()

	notificationManager, err := notification.NewNotificationManagerWithOptions(
		notification.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		slog.Error("Failed to set up notifications", "err", err)
		os.Exit(1)
	}

	passwords := password.NewManager(cfg.PasswordPolicyConfig.ToPolicy())
	urls := account.NewURLBuilder(cfg.ServerConfig.ExternalURL())

	accountService := account.NewService(repo, passwords, urls,
		account.WithNotificationManager(notificationManager))

	resetExpiry, err := time.ParseDuration(cfg.ResetTokenExpiry)
	if err != nil {
		slog.Error("Invalid RESET_TOKEN_EXPIRY", "value", cfg.ResetTokenExpiry, "err", err)
		os.Exit(1)
	}
	coordinator := recovery.NewCoordinator(repo, passwords, urls,
		recovery.WithNotificationManager(notificationManager),
		recovery.WithResetTokenExpiry(resetExpiry))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	// Public recovery endpoints, reachable without credentials: they
	// exist to get locked-out users back in.
	r.Mount("/api/recovery", recoveryapi.Routes(recoveryapi.NewHandler(coordinator)))

	accountHandle := accountapi.NewHandler(accountService)
	r.Mount("/api/users", accountapi.PublicRoutes(accountHandle))

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.Secret), nil)
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Mount("/api/account", accountapi.SecureRoutes(accountHandle))
	})

	addr := cfg.ServerConfig.Addr()
	slog.Info("Starting account service", "addr", addr, "base_url", cfg.ServerConfig.ExternalURL(), "persistence", cfg.PersistenceType)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

// buildRepository creates the account store selected by
// PERSISTENCE_TYPE. Without a configured database host the service
// falls back to memory mode rather than dialing a guessed address.
// The returned cleanup closes the database pool.
func buildRepository(cfg *Config) (account.AccountRepository, func()) {
	if cfg.PersistenceType == "memory" || !cfg.DatabaseConfig.IsConfigured() {
		slog.Warn("Using in-memory persistence, data is lost on restart")
		return account.NewInMemoryAccountRepository(), func() {}
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed to connect to database",
			"host", cfg.DatabaseConfig.Host,
			"port", cfg.DatabaseConfig.Port,
			"database", cfg.DatabaseConfig.Database,
			"err", err)
		os.Exit(1)
	}

	slog.Info("Database connected", "database", cfg.DatabaseConfig.Database, "schema", cfg.DatabaseConfig.Schema)
	return account.NewPostgresAccountRepository(pool), pool.Close
}

// loadEnvFile loads a .env file from the executable directory or the
// working directory, if one exists
func loadEnvFile() {
	execPath, err := os.Executable()
	if err != nil {
		return
	}

	envFile := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		envFile = filepath.Join(cwd, ".env")
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "path", envFile, "err", err)
		return
	}
	slog.Info("Loaded environment from file", "path", envFile)
}
