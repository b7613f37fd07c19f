package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-medstore-api/config"
	"go-medstore-api/db"
	"go-medstore-api/handler"
	"go-medstore-api/logger"
	"go-medstore-api/mailer"
	"go-medstore-api/repository"
	"go-medstore-api/router"
	"go-medstore-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// App is the fully wired application. Background workers are not started
// until Start is called.
type App struct {
	DB      *sql.DB
	Redis   *redis.Client
	Router  http.Handler
	Reaper  *repository.TokenReaper
	Limiter service.RateLimiter
}

// New builds every layer from cfg. rdb may be nil when redis is disabled.
func New(cfg config.Config, database *sql.DB, rdb *redis.Client) (*App, error) {
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)

	codec, err := service.NewTokenCodec(map[service.TokenKind]service.TokenSpec{
		service.KindAccess:       {Secret: []byte(cfg.JWT.AccessSecret), TTL: cfg.JWT.AccessTTL},
		service.KindRefresh:      {Secret: []byte(cfg.JWT.RefreshSecret), TTL: cfg.JWT.RefreshTTL},
		service.KindVerification: {Secret: []byte(cfg.JWT.VerificationSecret), TTL: cfg.JWT.VerificationTTL},
	})
	if err != nil {
		return nil, err
	}

	sender, err := newSender(cfg)
	if err != nil {
		return nil, err
	}

	var cache service.ICacheClient
	if rdb != nil {
		cache = rdb
	}

	limiter, err := newLimiter(cfg, rdb)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(database, userRepo, tokenRepo, codec, sender, service.AuthOptions{
		FrontendURL:          cfg.Server.FrontendURL,
		VerificationTemplate: cfg.Mail.TemplateVerification,
	})
	otpService := service.NewOTPService(database, userRepo, sender, cfg.Mail.TemplateOTP, service.OTPPolicy{
		MaxAttempts: cfg.OTP.MaxAttempts,
		Window:      cfg.OTP.Window,
		CodeTTL:     cfg.OTP.CodeTTL,
	})
	userService := service.NewUserService(database, userRepo, tokenRepo, authService, otpService, cache)
	resolver := service.NewSessionResolver(codec, authService)

	cookies := handler.CookieConfig{
		Secure:     cfg.IsProduction(),
		RefreshTTL: cfg.JWT.RefreshTTL,
	}

	r := router.NewRouter(router.Deps{
		Auth: handler.NewAuthHandler(authService, cookies),
		OTP:  handler.NewOTPHandler(otpService),
		User: handler.NewUserHandler(userService, cookies),
		Session: handler.NewSessionMiddleware(resolver, handler.SessionConfig{
			LoginPath:   cfg.Server.LoginPath,
			CSRFEnabled: cfg.Security.CSRFEnabled,
			Cookies:     cookies,
		}),
		Limiter:    limiter,
		Cookies:    cookies,
		CORSOrigin: cfg.Server.CORSOrigin,
		TrustProxy: cfg.Server.TrustProxy,
	})

	return &App{
		DB:      database,
		Redis:   rdb,
		Router:  r,
		Reaper:  repository.NewTokenReaper(tokenRepo, userRepo, cfg.Security.ReaperInterval, cfg.Security.DeletionGrace),
		Limiter: limiter,
	}, nil
}

func newSender(cfg config.Config) (mailer.Sender, error) {
	if cfg.Mail.Enabled {
		return mailer.NewEmailJSSender(mailer.EmailJSConfig{
			Endpoint:   cfg.Mail.Endpoint,
			ServiceID:  cfg.Mail.ServiceID,
			PublicKey:  cfg.Mail.PublicKey,
			PrivateKey: cfg.Mail.PrivateKey,
			Timeout:    cfg.Mail.Timeout,
		}), nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("mail must be enabled in production")
	}
	logger.Log.Warn("Mail delivery disabled, messages are only logged")
	return mailer.LogSender{}, nil
}

func newLimiter(cfg config.Config, rdb *redis.Client) (service.RateLimiter, error) {
	switch cfg.RateLimit.Backend {
	case "", "memory":
		return service.NewMemoryRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("rate_limit.backend=redis requires redis.enabled")
		}
		return service.NewRedisRateLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
}

// Start launches the background workers.
func (a *App) Start(ctx context.Context) {
	a.Reaper.Start(ctx)
}

// Stop ends the background workers.
func (a *App) Stop() {
	a.Reaper.Stop()
	if l, ok := a.Limiter.(interface{ Stop() }); ok {
		l.Stop()
	}
}

func Run() {
	config.LoadConfig(".")
	cfg := config.AppConfig
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	logger.Log.WithField("env", cfg.Env).Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath, db.URL()); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = db.ConnectRedis()
		if err != nil {
			logger.Log.Fatalf("Error connecting to redis: %v", err)
		}
		defer rdb.Close()
	}

	application, err := New(cfg, database, rdb)
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.Start(ctx)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}
	application.Stop()

	logger.Log.Info("Server exited properly")
}
