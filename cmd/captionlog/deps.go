package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rpggio/captionlog/internal/cache"
	"github.com/rpggio/captionlog/internal/config"
	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/i18n"
	"github.com/rpggio/captionlog/internal/sqlstore"
)

// deps holds everything a command may need, built from config.
type deps struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sqlstore.DB
	dir      *sqlstore.Directory
	streams  *activity.Streams
	renderer *activity.Renderer
}

// withDeps loads config and builds dependencies, then calls fn.
// Resources are released when fn returns.
func withDeps(ctx context.Context, fn func(*deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// Use stderr for logs to keep stdout clean for JSON-RPC and command output.
	logWriter := io.Writer(os.Stderr)
	if logPath := os.Getenv("CAPTIONLOG_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := newLogger(logWriter, cfg.Log.Level)

	if err := ensureDBDir(cfg.DB.Driver, cfg.DB.DSN); err != nil {
		return fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlstore.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	var streamCache activity.StreamCache = activity.NopCache{}
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer closeRedis(client, logger)
		streamCache = cache.New(client, cfg.Cache.TTL, cfg.Cache.Prefix, logger)
	}

	catalog, err := i18n.Load(cfg.I18n.CatalogDir)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}

	store := sqlstore.NewStore(db)
	dir := sqlstore.NewDirectory(db)
	d := &deps{
		cfg:    cfg,
		logger: logger,
		db:     db,
		dir:    dir,
		streams: activity.NewStreams(store, dir, logger,
			activity.WithStreamCache(streamCache),
			activity.WithPageSize(cfg.Streams.PageSize, cfg.Streams.MaxPageSize)),
		renderer: activity.NewRenderer(store, dir, catalog, platform.NewLinks(cfg.Site.BaseURL), logger,
			activity.WithDefaultLocale(cfg.I18n.DefaultLocale)),
	}
	return fn(d)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
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

func ensureDBDir(driver, dsn string) error {
	if driver != sqlstore.DriverSQLite || dsn == ":memory:" || dsn == "" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	return ensureParentDir(dsn)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("closing redis", "error", err)
	}
}
