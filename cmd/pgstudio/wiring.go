package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/marcogbarcellos/pgstudio/internal/config"
	"github.com/marcogbarcellos/pgstudio/internal/events"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/ai"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/credentials"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/database/postgres"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/pgtools"
	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/storage"
	"github.com/marcogbarcellos/pgstudio/internal/service"
)

// keyringPasswordEnv unlocks the file keyring without a terminal prompt.
const keyringPasswordEnv = "PGSTUDIO_KEYRING_PASSWORD"

// app is the assembled backend shared by serve and the one-shot commands.
type app struct {
	store    *storage.Store
	hub      *events.Hub
	services service.Services
}

func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	backend, err := credentials.ParseBackend(cfg.Keyring.Backend)
	if err != nil {
		return nil, err
	}
	secrets, err := credentials.Open(credentials.Options{
		Backend:      backend,
		FileDir:      cfg.Keyring.FileDir,
		FilePassword: os.Getenv(keyringPasswordEnv),
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.StateDB)
	if err != nil {
		return nil, err
	}

	locator := pgtools.NewLocator(cfg.Tools.ExtraDirs...)
	hub := events.NewHub()
	services := service.NewServices(service.Deps{
		RootCtx:  ctx,
		Open:     postgres.Opener,
		Store:    store,
		Secrets:  secrets,
		Events:   hub,
		Runner:   pgtools.NewRunner(locator),
		Detector: locator,
		AI:       ai.NewClient(cfg.AI.Timeout),
		MaxRows:  cfg.Query.MaxRows,
		PageSize: cfg.Query.DefaultPageSize,
	})

	if err := services.Assistant.Restore(ctx); err != nil {
		slog.WarnContext(ctx, "failed to restore ai configuration", slog.Any("err", err))
	}
	return &app{store: store, hub: hub, services: services}, nil
}

func (a *app) Close() {
	a.services.Close()
	a.hub.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close state database", slog.Any("err", err))
	}
}
