package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/config"
	"github.com/Vovarama1992/portfolio-admin/internal/delivery"
	ws "github.com/Vovarama1992/portfolio-admin/internal/delivery/ws"
	"github.com/Vovarama1992/portfolio-admin/internal/domain"
	"github.com/Vovarama1992/portfolio-admin/internal/domain/imagepath"
	"github.com/Vovarama1992/portfolio-admin/internal/infra"
	"github.com/Vovarama1992/portfolio-admin/internal/metrics"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer zcore.Sync() //nolint:errcheck
	zl := logger.NewZapLogger(zcore.Sugar())

	fatal := func(msg string, err error) {
		zl.Log(logger.LogEntry{Level: "error", Message: msg, Error: err})
		os.Exit(1)
	}

	// CONFIG
	cfg, err := config.Load()
	if err != nil {
		fatal("config", err)
	}
	if err := cfg.ServerReady(); err != nil {
		fatal("config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// POSTGRES (optional in rest mode, required for the gallery)
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = infra.NewPgxPool(ctx, cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			fatal("postgres", err)
		}
		defer pool.Close()
	}

	supabase := infra.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.HTTPTimeout)

	// RECORD STORE
	var store ports.RecordStore
	if cfg.RecordStore == config.StoreREST {
		store = infra.NewRestRecordStore(supabase)
	} else {
		store = infra.NewPostgresRecordStore(pool)
	}

	// METRICS
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	normMetrics, err := metrics.NewNormalizerMetrics(registry)
	if err != nil {
		fatal("metrics", err)
	}

	// SERVICES
	rewriter, err := imagepath.NewRewriter(cfg.ImagePrefixes...)
	if err != nil {
		fatal("image prefixes", err)
	}

	normalizer := domain.NewNormalizerService(store, rewriter, domain.NormalizerConfig{
		Workers:        cfg.Workers,
		UpdateTimeout:  cfg.UpdateTimeout,
		AllowedTargets: cfg.NormalizeTargets,
	}, normMetrics, zl)

	authService := domain.NewAuthService(cfg.AdminPassword, cfg.AuthSecret)

	// WS HUB
	hub := ws.NewHub(zl)
	go hub.Relay(normalizer.Events())

	// HANDLERS
	hAuth := delivery.NewAuthHandler(authService, zl)
	hNormalize := delivery.NewNormalizeHandler(normalizer, cfg.ImageCollection, cfg.ImageColumn, zl)

	var hImages *delivery.ImagesHandler
	if pool != nil && cfg.SupabaseURL != "" {
		images := domain.NewProjectImageService(
			infra.NewPostgresProjectImageRepo(pool),
			infra.NewSupabaseStorage(supabase, cfg.SupabaseURL, cfg.StorageBucket),
			cfg.MaxUploadBytes,
			zl,
		)
		hImages = delivery.NewImagesHandler(images, cfg.MaxUploadBytes, zl)
	} else {
		zl.Log(logger.LogEntry{
			Level:   "warn",
			Message: "project gallery disabled, needs DATABASE_URL and SUPABASE_URL",
		})
	}

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth", "Authorization"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, hAuth, authService, hNormalize, hImages,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	r.Get("/ws", ws.WSHandler(hub, normalizer, authService, models.NormalizeRequest{
		Collection: cfg.ImageCollection,
		Column:     cfg.ImageColumn,
	}, ws.DefaultRunTimeout, zl))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields:  map[string]any{"port": cfg.Port, "store": cfg.RecordStore},
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}
