package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"villaledger/internal/app/commands"
	pricingapp "villaledger/internal/app/handlers/pricing"
	"villaledger/internal/app/handlers/remotesync"
	"villaledger/internal/app/dto"
	"villaledger/internal/infra/config"
	ginserver "villaledger/internal/infra/http/gin"
	"villaledger/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger := obs.NewLogger(os.Getenv("APP_ENV"))
	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Warn("dotenv not loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if seeded, err := pricingapp.EnsureSeeded(ctx, app.rules); err != nil {
		logger.Error("price list seeding failed", "error", err)
		os.Exit(1)
	} else if seeded {
		logger.Info("price list seeded with default season")
	}

	if cfg.SyncOnStart && app.remoteConfigured {
		res, err := commands.Dispatch[remotesync.SyncRemoteCommand, dto.SyncResult](ctx, app.commands, remotesync.SyncRemoteCommand{})
		if err != nil {
			logger.Warn("initial remote sync failed", "error", err)
		} else {
			logger.Info("initial remote sync finished", "reservations", res.Reservations, "prices", res.Prices, "price_source", res.PriceSource)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := app.relay.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if app.scheduler != nil {
		g.Go(func() error {
			_ = app.scheduler.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "rules_store", cfg.RulesStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("villaledger stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("villaledger stopped")
}

func closeQuietly(logger *slog.Logger, name string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("close failed", "component", name, "error", err)
	}
}
