package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendly/internal/auth"
	"spendly/internal/config"
	"spendly/internal/handlers"
	"spendly/internal/logger"
	"spendly/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogDevelopment, logger.Level(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrapAdmin(ctx, db, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return err
	}

	sweeper := scheduleSessionSweep(db, cfg.SessionCleanupInterval, logger.Component(log, "sessions"))
	defer func() { <-sweeper.Stop().Done() }()

	h := handlers.NewHandlers(db, log, handlers.Options{
		TemplateDir:     cfg.TemplateDir,
		SecureCookie:    cfg.SecureCookie,
		SessionDuration: cfg.SessionDuration,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, cfg.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers, staticDir string) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)

	// Protected routes
	protected := http.NewServeMux()
	protected.HandleFunc("GET /{$}", h.Dashboard)
	protected.HandleFunc("GET /statistics", h.Statistics)
	protected.HandleFunc("POST /expenses", h.CreateExpense)
	protected.HandleFunc("POST /expenses/bulk", h.CreateExpenses)
	protected.HandleFunc("POST /expenses/{id}/update", h.UpdateExpense)
	protected.HandleFunc("POST /expenses/{id}/delete", h.DeleteExpense)
	protected.HandleFunc("GET /categories", h.ListCategories)
	protected.HandleFunc("POST /categories", h.CreateCategory)
	protected.HandleFunc("GET /categories/{id}", h.CategoryDetail)
	protected.HandleFunc("POST /categories/{id}/update", h.UpdateCategory)
	protected.HandleFunc("POST /categories/{id}/delete", h.DeleteCategory)

	protected.HandleFunc("GET /api/categories", h.APIListCategories)
	protected.HandleFunc("POST /api/categories", h.APICreateCategory)
	protected.HandleFunc("DELETE /api/categories/{id}", h.APIDeleteCategory)
	protected.HandleFunc("GET /api/expenses", h.APIListExpenses)
	protected.HandleFunc("POST /api/expenses", h.APICreateExpenses)
	protected.HandleFunc("GET /api/summary", h.APISummary)

	mux.Handle("/", h.AuthMiddleware(protected))

	return h.RequestLogger(handlers.SecurityHeaders(mux))
}

// bootstrapAdmin creates the configured admin account while no user exists.
func bootstrapAdmin(ctx context.Context, db *storage.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	count, err := db.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := db.CreateUser(ctx, username, hash, nil); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	return nil
}

// scheduleSessionSweep removes expired sessions every interval. Intervals
// are rounded to whole seconds. Stop the returned scheduler to end the sweep.
func scheduleSessionSweep(db *storage.DB, interval time.Duration, log *zap.Logger) *cron.Cron {
	c := cron.New()
	c.Schedule(cron.Every(interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := db.CleanExpiredSessions(ctx)
		if err != nil {
			log.Warn("clean expired sessions", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("removed expired sessions", zap.Int64("count", n))
		}
	}))
	c.Start()
	return c
}
