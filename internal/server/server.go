package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/mobilityquest/internal/backup"
	"github.com/dukerupert/mobilityquest/internal/handler"
	"github.com/dukerupert/mobilityquest/internal/metrics"
	"github.com/dukerupert/mobilityquest/internal/middleware"
	"github.com/dukerupert/mobilityquest/internal/quest"
	"github.com/dukerupert/mobilityquest/internal/store"
	ws "github.com/dukerupert/mobilityquest/internal/websocket"
)

// Deps are the long-lived components the HTTP surface is built on.
// Broadcaster is nil when push notifications are not configured.
type Deps struct {
	DB             *sql.DB
	Quest          *quest.Service
	Hub            *ws.Hub
	PushStore      *store.PushStore
	Broadcaster    handler.Broadcaster
	VAPIDPublicKey string
	Backups        *backup.Manager
	Metrics        *metrics.Manager
	Registry       *prometheus.Registry
	AllowedOrigins []string
	Logger         *slog.Logger
}

type Server struct {
	db             *sql.DB
	quest          *quest.Service
	hub            *ws.Hub
	questH         *handler.QuestHandler
	pushH          *handler.PushHandler
	backupH        *handler.BackupHandler
	metrics        *metrics.Manager
	registry       *prometheus.Registry
	allowedOrigins []string
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var pushH *handler.PushHandler
	if d.Broadcaster != nil {
		pushH = handler.NewPushHandler(d.PushStore, d.Broadcaster, d.VAPIDPublicKey, logger.With("component", "push_handler"))
	}

	var backupH *handler.BackupHandler
	if d.Backups != nil {
		backupH = handler.NewBackupHandler(d.Backups, logger.With("component", "backup_handler"))
	}

	return &Server{
		db:             d.DB,
		quest:          d.Quest,
		hub:            d.Hub,
		questH:         handler.NewQuestHandler(d.Quest, logger.With("component", "quest_handler")),
		pushH:          pushH,
		backupH:        backupH,
		metrics:        d.Metrics,
		registry:       d.Registry,
		allowedOrigins: d.AllowedOrigins,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.registry != nil {
		mux.Handle("GET /metrics", metrics.Handler(s.registry))
	}

	// Tracker API routes
	mux.HandleFunc("GET /api/state", s.questH.State)
	mux.HandleFunc("GET /api/routines/{type}", s.questH.Routine)
	mux.HandleFunc("GET /api/profile", s.questH.Profile)
	mux.HandleFunc("GET /api/achievements", s.questH.Achievements)
	mux.HandleFunc("GET /api/completions", s.questH.Completions)
	mux.HandleFunc("POST /api/progress/reset", s.rateLimitedHandler(s.questH.ResetProgress))

	// Timer routes
	mux.HandleFunc("GET /api/timer", s.questH.Timer)
	mux.HandleFunc("POST /api/timer/start", s.questH.StartTimer)
	mux.HandleFunc("POST /api/timer/pause", s.questH.PauseTimer)
	mux.HandleFunc("POST /api/timer/resume", s.questH.ResumeTimer)
	mux.HandleFunc("POST /api/timer/toggle", s.questH.ToggleTimer)
	mux.HandleFunc("POST /api/timer/reset", s.questH.ResetTimer)
	mux.HandleFunc("POST /api/timer/close", s.questH.CloseTimer)

	// Settings routes
	mux.HandleFunc("GET /api/settings/notifications", s.questH.GetNotificationSettings)
	mux.HandleFunc("PUT /api/settings/notifications", s.questH.UpdateNotificationSettings)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/test", s.rateLimitedHandler(s.pushH.TestNotification))
	}

	// Backup routes
	if s.backupH != nil {
		mux.HandleFunc("GET /api/backups", s.backupH.List)
		mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
		mux.HandleFunc("POST /api/backups", s.rateLimitedHandler(s.backupH.Run))
		mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimitedHandler(s.backupH.Restore))
		mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, ws.HandlerOptions{
		OriginPatterns: s.allowedOrigins,
		Greeting:       s.greeting,
		Logger:         s.logger.With("component", "websocket"),
	}))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"), s.metrics)(mux)
}

// greeting gives a newly connected client the full state so it can render
// without a separate fetch.
func (s *Server) greeting() ws.Message {
	return ws.NewMessage("state", "snapshot", "", map[string]any{
		"state": s.quest.State(),
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Error("health check", "error", err)
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"status":"` + status + `"}`))
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute, s.metrics)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

// Publisher returns a quest.Publisher that forwards tracker events to every
// connected websocket client.
func Publisher(hub *ws.Hub) quest.Publisher {
	return func(ev quest.Event) {
		hub.Broadcast(ws.NewMessage(ev.Entity, ev.Action, ev.ID, ev.Extra))
	}
}
