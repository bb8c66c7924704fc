package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/mobilityquest/internal/backup"
	"github.com/dukerupert/mobilityquest/internal/catalog"
	"github.com/dukerupert/mobilityquest/internal/config"
	"github.com/dukerupert/mobilityquest/internal/database"
	"github.com/dukerupert/mobilityquest/internal/logging"
	"github.com/dukerupert/mobilityquest/internal/loop"
	"github.com/dukerupert/mobilityquest/internal/metrics"
	"github.com/dukerupert/mobilityquest/internal/model"
	"github.com/dukerupert/mobilityquest/internal/persist"
	"github.com/dukerupert/mobilityquest/internal/push"
	"github.com/dukerupert/mobilityquest/internal/quest"
	"github.com/dukerupert/mobilityquest/internal/server"
	"github.com/dukerupert/mobilityquest/internal/store"
	ws "github.com/dukerupert/mobilityquest/internal/websocket"
)

func main() {
	genVAPID := flag.Bool("gen-vapid", false, "print a new VAPID key pair and exit")
	flag.Parse()

	if *genVAPID {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate VAPID keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("MQ_VAPID_PUBLIC_KEY=%s\nMQ_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON})
	defer logCloser.Close()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	m := metrics.NewManager("mobilityquest", "", reg)

	hub := ws.NewHub(logger.With("component", "websocket"))
	hub.OnCount(func(n int) { m.GaugeWSClients.Set(float64(n)) })

	blobStore := store.NewBlobStore(db)
	svc := quest.New(quest.Options{
		Catalog:  cat,
		Blobs:    persist.NewBlobs(blobStore, logger.With("component", "persist"), m.PersistenceFailed),
		Location: cfg.Location,
		Logger:   logger,
		Publish:  server.Publisher(hub),
		Recorder: m,
	})
	svc.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// One-second countdown tick and the daily reset wake-up.
	ticker := loop.New("timer", time.Second, logger, func(context.Context, time.Time) {
		svc.Tick()
	})
	ticker.Start(ctx)

	resetLoop := loop.New("daily_reset", cfg.ResetInterval, logger, func(context.Context, time.Time) {
		svc.CheckDailyReset()
	})
	resetLoop.Start(ctx)

	// Push notification service + scheduler
	pushStore := store.NewPushStore(db)
	var pushSched *push.Scheduler
	if cfg.PushEnabled() {
		pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		pushSched = push.NewScheduler(pushSvc, pushStore, svc, cfg.Location, cfg.ReminderInterval, logger.With("component", "push"))
		pushSched.OnSent(func(t model.RoutineType, delivered int) {
			if delivered > 0 {
				m.ReminderSent(string(t))
			}
		})
		pushSched.Start(ctx)
	} else {
		slog.Info("push notifications disabled: VAPID keys not set")
	}

	// Backup store + manager
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		Prefix:        cfg.BackupPrefix,
		Passphrase:    cfg.BackupPassphrase,
		Interval:      cfg.BackupInterval,
		RetentionDays: cfg.BackupRetentionDays,
	}, svc, store.NewBackupStore(db), func(s backup.Status) {
		switch s.State {
		case backup.StateIdle:
			m.CounterBackups.WithLabelValues("success").Inc()
			m.HistBackupDuration.Observe(s.Duration.Seconds())
		case backup.StateError:
			m.CounterBackups.WithLabelValues("failed").Inc()
		}
		hub.Broadcast(ws.NewMessage("backup", string(s.State), "", map[string]any{
			"in_progress": s.InProgress,
			"error":       s.Error,
		}))
	}, logger.With("component", "backup"))
	backupMgr.Start(ctx)

	deps := server.Deps{
		DB:             db,
		Quest:          svc,
		Hub:            hub,
		PushStore:      pushStore,
		Backups:        backupMgr,
		Metrics:        m,
		Registry:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}
	if pushSched != nil {
		deps.Broadcaster = pushSched
		deps.VAPIDPublicKey = cfg.VAPIDPublicKey
	}
	srv := server.New(deps)

	// Rate limiter cleanup
	cleanup := loop.New("cleanup", time.Hour, logger, func(context.Context, time.Time) {
		if n := srv.RateLimiter().Cleanup(); n > 0 {
			slog.Debug("cleaned up rate limit entries", "count", n)
		}
	})
	cleanup.Start(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("mobility quest starting", "addr", ":"+cfg.Port, "timezone", cfg.Location.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ticker.Stop()
	resetLoop.Stop()
	cleanup.Stop()
	if pushSched != nil {
		pushSched.Stop()
	}
	backupMgr.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
