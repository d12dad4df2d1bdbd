package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/soochol/hydrahunt/internal/config"
	"github.com/soochol/hydrahunt/internal/crypto"
	"github.com/soochol/hydrahunt/internal/db"
	"github.com/soochol/hydrahunt/internal/extract"
	"github.com/soochol/hydrahunt/internal/llm"
	"github.com/soochol/hydrahunt/internal/parse"
	"github.com/soochol/hydrahunt/internal/repository"
	"github.com/soochol/hydrahunt/internal/storage"
)

const importCacheSize = 1000

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadDefault()
	}
	return config.Load(path)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newExtractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	opts := []extract.Option{
		extract.WithMinTextLength(cfg.Extraction.MinTextLength),
		extract.WithMaxSize(cfg.Extraction.MaxUploadBytes),
		extract.WithTimeout(cfg.Extraction.Timeout),
		extract.WithLogger(logger),
	}
	if cfg.Extraction.Strict {
		opts = append(opts, extract.WithStrictFormats())
	}
	return extract.New(opts...)
}

// newParser builds the parser for the configured provider. Without one, or
// when heuristicOnly is set, every parse is heuristic.
func newParser(cfg *config.Config, logger *slog.Logger, heuristicOnly bool) (*parse.Parser, error) {
	policy := parse.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Parse.MaxAttempts
	opts := []parse.Option{parse.WithRetryPolicy(policy), parse.WithLogger(logger)}

	name := cfg.Parse.Provider
	if name == "" || heuristicOnly {
		return parse.NewParser(nil, opts...), nil
	}
	completer, ok := llm.Build(name, cfg.Providers[name])
	if !ok {
		return nil, fmt.Errorf("provider %q: unknown type %q", name, cfg.Providers[name].Type)
	}
	logger.Info("parse provider configured", "provider", name, "type", cfg.Providers[name].Type)
	return parse.NewParser(completer, opts...), nil
}

// newImportRepository returns an in-memory repository, backed by the
// database when one is configured. The returned close func is never nil.
func newImportRepository(ctx context.Context, cfg *config.Config) (repository.ImportRepository, func(), error) {
	if cfg.Database.URL == "" {
		slog.Info("no database configured, import records kept in memory")
		return repository.NewMemoryImportRepository(), func() {}, nil
	}
	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	slog.Info("database connected", "dialect", string(database.Dialect()))
	cache := repository.NewImportCache(importCacheSize)
	return repository.NewPersistentImportRepository(cache, database), func() { database.Close() }, nil
}

func newFileStorage(cfg *config.Config) (*storage.LocalStorage, error) {
	files, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ParseKey(cfg.Storage.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if sealer.Enabled() {
		files.SetSealer(sealer)
		slog.Info("upload encryption enabled")
	}
	return files, nil
}
