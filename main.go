package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"print-roll-console/internal/api"
	"print-roll-console/internal/area"
	"print-roll-console/internal/board"
	"print-roll-console/internal/file"
	"print-roll-console/internal/geometry"
	"print-roll-console/internal/pkg"
	"print-roll-console/internal/pkg/config"
	"print-roll-console/internal/push"
	"print-roll-console/internal/reconciler"
	"print-roll-console/internal/session"
	"print-roll-console/internal/telegram"
	"print-roll-console/internal/upload"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	setupLogger(&cfg.Log)

	sess, err := session.New(cfg.API.Token, cfg.API.Operator)
	if err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	httpClient := pkg.NewHTTPClient(cfg.API.Timeout, cfg.API.RateLimit)
	apiClient, err := api.NewClient(cfg.API.BaseURL, httpClient, sess)
	if err != nil {
		log.Fatal(err)
	}

	var measurementRepo geometry.Repo
	var pool *pgxpool.Pool
	if cfg.DB.DSN != "" {
		pool, err = pgxpool.New(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()

		repo := geometry.NewDefaultRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
		measurementRepo = repo
	} else {
		slog.Info("No database configured, measurements will not be cached")
	}

	geometryService := geometry.NewDefaultService(&cfg.Geometry, measurementRepo)
	areaService := area.NewDefaultService(apiClient)
	uploadService := upload.NewDefaultService(apiClient, areaService, geometryService, cfg.Geometry.MaxWidthMeters)
	fileService := file.NewDefaultService(&cfg.TelegramCfg, &cfg.Geometry)

	boardService := board.NewDefaultService(apiClient, cfg.Board.Area)
	if err := boardService.Reload(ctx, "startup"); err != nil {
		slog.Error("Initial board load failed, will retry on the next trigger", "error", err)
	}

	if _, err := areaService.Load(ctx); err != nil {
		slog.Warn("Area mapping unavailable, only the default width limit applies", "error", err)
	}

	reconcilerService := reconciler.NewDefaultService(boardService, &cfg.Board)
	reconcilerService.Start(ctx)

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Push.URL != "" {
		listener := push.NewDefaultListener(&cfg.Push, sess, func(context.Context) {
			reconcilerService.Trigger()
		})
		group.Go(func() error {
			return listener.Run(groupCtx)
		})
	} else {
		slog.Info("No push url configured, relying on periodic reloads")
	}

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		group.Go(func() error {
			slog.Info("Serving metrics", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfg.TelegramCfg.Token != "" {
		bot, err := telegram.NewBot(boardService, geometryService, uploadService, fileService, httpClient, &cfg.TelegramCfg)
		if err != nil {
			log.Fatal(err)
		}
		bot.Start(ctx)
	} else {
		slog.Warn("No telegram token configured, running without the operator bot")
	}

	<-ctx.Done()
	slog.Info("Shutting down...")
	shutdownCtx, shutdown := context.WithTimeout(context.Background(), time.Second*15)
	defer shutdown()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop metrics server", "error", err)
		}
	}
	if err := group.Wait(); err != nil {
		slog.Error("Background task failed", "error", err)
	}
	if err := reconcilerService.Stop(shutdownCtx); err != nil {
		slog.Error("Failed to stop reconciler", "error", err)
	}
	fileService.Wait()
	geometryService.Wait()
}

func setupLogger(cfg *config.LogCfg) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
