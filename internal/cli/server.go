package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/identity"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/postgres"
	redisinfra "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/metrics"
	transport "trivia-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the leaderboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var (
		scores app.ScoreRepository = memory.NewScoreRepository()
		users  auth.UserRepository = memory.NewUserRepository()
		store  auth.SessionStore   = memory.NewSessionStore()
	)

	if cfg.Postgres.URL != "" {
		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()
		if err := migrateDB(ctx, db, logger); err != nil {
			return err
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		scores = postgres.NewScoreRepository(db)
		users = postgres.NewUserRepository(pool)
	} else {
		logger.Warn("postgres not configured; scores are kept in memory")
	}

	feed := app.NewFeed()
	var (
		publisher app.Publisher = feed
		bus       *redisinfra.ScoreEventBus
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		store = redisinfra.NewSessionStore(client)
		bus = redisinfra.NewScoreEventBus(client, logger)
		publisher = bus
	}

	salt := cfg.Security.IPHashSalt
	if salt == "" {
		salt = randomSalt()
		logger.Warn("security.ip_hash_salt not set; using a random salt, ip hashes will not survive restarts")
	}
	service := app.NewLeaderboardService(scores, app.NewIPHasher(salt), publisher)

	var provider auth.Provider
	if cfg.OAuthEnabled() {
		provider = auth.NewOAuthProvider(auth.OAuthConfig{
			Name:         cfg.OAuth.Provider,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			AuthURL:      cfg.OAuth.AuthURL,
			TokenURL:     cfg.OAuth.TokenURL,
			UserInfoURL:  cfg.OAuth.UserInfoURL,
			Scopes:       cfg.OAuth.Scopes,
		}, &http.Client{Timeout: 10 * time.Second})
	} else {
		logger.Info("oauth not configured; sign-in disabled")
	}
	authService := auth.New(provider, users, store, service, auth.Config{
		SessionTTL: config.TTLDuration(cfg.Identity.SessionTTL, auth.DefaultConfig().SessionTTL),
	}, logger)

	resolver := identity.NewResolver(identity.Config{
		GuestCookie:    cfg.Identity.GuestCookie,
		SessionCookie:  cfg.Identity.SessionCookie,
		SecureCookies:  cfg.Identity.SecureCookies,
		TrustProxy:     cfg.Identity.TrustProxy,
		SkipGuestPaths: []string{"/healthz", "/metrics"},
	}, authService, logger)

	router := transport.NewRouter(transport.RouterConfig{
		Logger:        logger,
		Metrics:       metrics.New("trivia"),
		Leaderboard:   service,
		Feed:          feed,
		Auth:          authService,
		Identity:      resolver,
		AfterLoginURL: cfg.OAuth.AfterLoginURL,
		CheckOrigin:   transport.OriginChecker(cfg.Server.AllowedOrigins),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}
	shutdownTimeout := config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Run(gctx, feed)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func randomSalt() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintln(os.Stderr, "random salt:", err)
	}
	return hex.EncodeToString(b)
}
