// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/brainswarm/brainswarm/internal/config"
	"github.com/brainswarm/brainswarm/internal/handler"
	"github.com/brainswarm/brainswarm/internal/imaging"
	"github.com/brainswarm/brainswarm/internal/logging"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/notify"
	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/scheduler"
	"github.com/brainswarm/brainswarm/internal/server"
	"github.com/brainswarm/brainswarm/internal/session"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/upload"
	"github.com/brainswarm/brainswarm/internal/version"
	"github.com/brainswarm/brainswarm/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	createAdmin := flag.String("create-admin", "", "Create or promote an administrator (username:email:password) and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Brain Swarm - marketing site and admin back-office\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_SESSION_SECRET  Session signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_DB_DRIVER       sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_DB_PATH         SQLite database path (default: ./data/brainswarm.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_BASE_PATH       Sub-path when not served from the host root\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_REDIS_URL       Keep sessions in Redis (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BRAINSWARM_SMTP_HOST       Mail form submissions to the admin (optional)\n")
	}
	flag.Parse()

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info, *createAdmin); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, createAdmin string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations", "driver", cfg.DBDriver)
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and above with an audit attribute also land in audit_log.
	logger := slog.New(logging.NewAuditHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}), db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if createAdmin != "" {
		p, err := parseAdmin(createAdmin)
		if err != nil {
			return err
		}
		return store.EnsureAdmin(ctx, db, p)
	}

	var redisClient *redis.Client
	if cfg.UseRedisSessions() {
		redisClient, err = session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
	}

	sessionManager, err := session.New(session.Options{
		DB:       db,
		Driver:   cfg.DBDriver,
		Redis:    redisClient,
		Lifetime: cfg.SessionLifetime,
		IsDev:    cfg.IsDevelopment(),
		BasePath: cfg.BasePath,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	slog.Info("session manager initialized", "redis", redisClient != nil)

	var staticFS fs.FS = web.Static()
	if cfg.StaticDir != "" {
		staticFS = os.DirFS(cfg.StaticDir)
	}

	imageDirs := map[store.PostKind]string{
		store.KindEvent: cfg.EventImagesDir,
		store.KindBlog:  cfg.BlogImagesDir,
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		StaticFS:       staticFS,
		SessionManager: sessionManager,
		SiteName:       cfg.SiteName,
		SiteURL:        cfg.SiteURL,
		BasePath:       cfg.BasePath,
		ImageDirs:      imageDirs,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	uploads := upload.NewStore(cfg.UploadDir, imaging.NewThumbnailer())
	for _, dir := range []string{cfg.EventImagesDir, cfg.BlogImagesDir, cfg.ProfilePicsDir} {
		if err := os.MkdirAll(filepath.Join(cfg.UploadDir, dir), 0o755); err != nil {
			return fmt.Errorf("creating upload directory: %w", err)
		}
	}

	var notifier handler.SubmissionNotifier
	mailer := newNotifier(cfg)
	if mailer != nil {
		notifier = mailer
		defer mailer.Wait()
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sched := scheduler.New(db, uploads, scheduler.Config{
		SweepSchedule: cfg.SweepSchedule,
		ImageDirs:     imageDirs,
		Cleaners:      []scheduler.Cleaner{loginProtection},
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr: cfg.ServerAddr(),
		Handler: server.NewRouter(server.Deps{
			Config:          cfg,
			DB:              db,
			Sessions:        sessionManager,
			Renderer:        renderer,
			Uploads:         uploads,
			StaticFS:        staticFS,
			Notifier:        notifier,
			LoginProtection: loginProtection,
		}),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version, "base_path", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	var dsn string
	switch cfg.DBDriver {
	case store.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = store.SQLiteDSN(cfg.DBPath)
		slog.Info("initializing database", "driver", cfg.DBDriver, "path", cfg.DBPath)
	case store.DriverMySQL:
		dsn = store.MySQLDSN(store.MySQLParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			Charset:  cfg.DBCharset,
		})
		slog.Info("initializing database", "driver", cfg.DBDriver, "host", cfg.DBHost, "name", cfg.DBName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := store.NewDB(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}

// newNotifier prefers the Resend API over SMTP. It returns nil when neither is configured.
func newNotifier(cfg *config.Config) *notify.Notifier {
	if !cfg.NotifyEnabled() {
		slog.Info("form notifications disabled")
		return nil
	}
	if cfg.ResendAPIKey != "" {
		slog.Info("form notifications enabled", "transport", "resend", "to", cfg.AdminEmail)
		return notify.New(notify.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom()), cfg.AdminEmail, cfg.SiteName)
	}
	slog.Info("form notifications enabled", "transport", "smtp", "host", cfg.SMTPHost, "to", cfg.AdminEmail)
	return notify.New(notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom(),
	}), cfg.AdminEmail, cfg.SiteName)
}

func parseAdmin(s string) (store.AdminParams, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return store.AdminParams{}, errors.New("-create-admin expects username:email:password")
	}
	return store.AdminParams{Username: parts[0], Email: parts[1], Password: parts[2]}, nil
}
