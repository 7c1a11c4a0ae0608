package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/latchauth/latch/internal/application/auth"
	"github.com/latchauth/latch/internal/application/ports"
	"github.com/latchauth/latch/internal/config"
	infraauth "github.com/latchauth/latch/internal/infrastructure/auth"
	httprouter "github.com/latchauth/latch/internal/infrastructure/http"
	"github.com/latchauth/latch/internal/infrastructure/http/handlers"
	"github.com/latchauth/latch/internal/infrastructure/http/middleware"
	"github.com/latchauth/latch/internal/infrastructure/idp"
	"github.com/latchauth/latch/internal/infrastructure/persistence/postgres"
	"github.com/latchauth/latch/internal/infrastructure/persistence/redisstore"
	"github.com/latchauth/latch/internal/infrastructure/queue"
	"github.com/latchauth/latch/internal/infrastructure/security"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}

	// Redis holds the shared auth flow state; the service cannot run
	// without it.
	redisOpt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("ping redis")
	}

	healthHandler := handlers.NewHealthHandler(pool, redisClient)

	userRepo := postgres.NewUserRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	tokenStore := postgres.NewTokenStore(pool)
	magicLinkStore := redisstore.NewMagicLinkStore(redisClient)
	stateStore := redisstore.NewOAuthStateStore(redisClient, cfg.OAuth.TTLBuffer)

	var taskEnqueuer ports.TaskEnqueuer
	var worker *queue.Worker
	if cfg.MagicLink.EmailEnabled {
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq, err := queue.NewAsynqEnqueuer(asynqOpt, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create asynq enqueuer")
		}
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		worker = queue.NewWorker(asynqOpt, log)
		go func() {
			if err := worker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewNoopEnqueuer()
	}

	hasher := security.NewHasher()

	pemBytes, err := cfg.LoadJWTPrivateKey()
	if err != nil {
		log.Fatal().Err(err).Msg("load JWT private key")
	}
	privateKey, err := infraauth.LoadRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("parse JWT private key")
	}
	issuer := infraauth.NewTokenIssuer(privateKey, cfg.JWT.Issuer, cfg.JWT.Audience)

	idpClient := idp.NewClient()
	if cfg.OAuth.Google.ClientID != "" {
		idpClient.RegisterGoogle(cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.RedirectURL)
	}
	if cfg.OAuth.GitHub.ClientID != "" {
		idpClient.RegisterGitHub(cfg.OAuth.GitHub.ClientID, cfg.OAuth.GitHub.ClientSecret, cfg.OAuth.RedirectURL)
	}

	requestMagicLinkUC := auth.NewRequestMagicLink(magicLinkStore, hasher, taskEnqueuer, cfg.MagicLink.BaseURL, cfg.MagicLink.Expiry)
	consumeMagicLinkUC := auth.NewConsumeMagicLink(magicLinkStore, hasher, userRepo, issuer, tokenStore, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	beginOAuthUC := auth.NewBeginOAuth(stateStore, idpClient, cfg.OAuth.StateTTL, cfg.OAuth.RetryWindow, cfg.OAuth.TTLBuffer)
	exchangeOAuthUC := auth.NewExchangeOAuth(stateStore, idpClient, userRepo, hasher, issuer, tokenStore, cfg.OAuth.RetryWindow, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry, log)
	refreshUC := auth.NewRefresh(hasher, issuer, tokenStore, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	logoutUC := auth.NewLogout(hasher, tokenStore)

	tenantResolver := middleware.NewTenantResolver(tenantRepo, middleware.SHA256HashAPIKey())

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	tenantLimit, err := middleware.NewTenantRateLimiter(cfg.RateLimit.RatePerTenant)
	if err != nil {
		log.Fatal().Err(err).Msg("create tenant rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment))

	authHandler := handlers.NewAuthHandler(requestMagicLinkUC, consumeMagicLinkUC, beginOAuthUC, exchangeOAuthUC, refreshUC, logoutUC, log)
	usersHandler := handlers.NewUsersHandler(userRepo)
	requireJWT := middleware.NewAuthValidator(issuer).Handler
	router := httprouter.NewRouter(httprouter.RouterConfig{
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		HealthHandler:   healthHandler,
		Tenant:          tenantResolver,
		RequireJWT:      requireJWT,
		Log:             log,
		Secure:          secureMiddleware,
		IPRateLimit:     ipLimit,
		TenantRateLimit: tenantLimit,
		Metrics:         true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if worker != nil {
		worker.Shutdown()
	}
	log.Info().Msg("server stopped")
}
