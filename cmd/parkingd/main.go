package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gorilla/handlers"

	"parking-status-backend/config"
	"parking-status-backend/internal/api"
	"parking-status-backend/internal/db"
	"parking-status-backend/internal/history"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/notification"
	"parking-status-backend/internal/poller"
	"parking-status-backend/internal/relay"
	"parking-status-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "parking-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rel := relay.New()

	// Sinks receive every store mutation through the worker pool.
	var sinks []notification.Sink
	if cfg.Relay.BroadcastStoreEvents {
		sinks = append(sinks, relay.NewEventSink(rel))
	}

	var recorder *history.Recorder
	var pruner *history.Pruner
	if cfg.History.Enabled {
		recorder = history.NewRecorder(gormDB)
		sinks = append(sinks, recorder)
		pruner, err = history.NewPruner(recorder, cfg.History.Retention, cfg.History.PruneSchedule)
		if err != nil {
			logger.Fatalf("failed to schedule history pruning: %v", err)
		}
		pruner.Start()
		logger.Printf("history enabled, keeping %s of slot events", cfg.History.Retention)
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		sinks = append(sinks, notification.NewWebPushSink(gormDB, webpushOptions))
	} else {
		logger.Println("VAPID keys are not configured, reservation expiry notifications are disabled")
	}

	var storeOpts []store.Option
	if len(sinks) > 0 {
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, sinks...)
		pool.Start(ctx)
		storeOpts = append(storeOpts, store.WithPublisher(pool))
	}
	appStore := store.NewMemoryStore(cfg.Store.SlotCount, storeOpts...)
	logger.Printf("reservation store initialized with %d slots", cfg.Store.SlotCount)

	var engine *poller.Engine
	if cfg.Poller.Enabled {
		var opts []poller.Option
		if cfg.Poller.IngestIntoStore {
			opts = append(opts, poller.WithSnapshotHook(func(readings []model.SlotReading) {
				appStore.IngestReadings(readings)
			}))
		}
		engine = poller.NewEngine(cfg.Poller, opts...)
		go engine.Run(ctx, cfg.Poller.Address)
	}

	router := api.NewRouter(api.Services{
		Store:   appStore,
		Relay:   rel,
		Engine:  engine,
		History: recorder,
		DB:      gormDB,
		WebPush: webpushOptions,
	}, *cfg)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: cors(router),
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	if pruner != nil {
		pruner.Stop()
	}
	appStore.Close()

	logger.Println("Server gracefully stopped")
}
