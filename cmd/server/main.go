package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/chainscope/analytics-gateway/internal/ai"
	"github.com/chainscope/analytics-gateway/internal/alerts"
	"github.com/chainscope/analytics-gateway/internal/api"
	"github.com/chainscope/analytics-gateway/internal/audit"
	"github.com/chainscope/analytics-gateway/internal/auth"
	"github.com/chainscope/analytics-gateway/internal/config"
	"github.com/chainscope/analytics-gateway/internal/db"
	"github.com/chainscope/analytics-gateway/internal/notify"
	"github.com/chainscope/analytics-gateway/internal/ratelimit"
	"github.com/chainscope/analytics-gateway/internal/translate"
	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Optional event store for executing generated queries
	var store api.EventStore
	if cfg.DatabaseURL != "" {
		eventStore, err := db.NewStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to event store:", err)
		}
		defer eventStore.Close()
		store = eventStore
		log.Printf("🗄️  Event store connected")
	}

	// Notification channels; unconfigured ones are skipped
	redisChannel, err := notify.NewRedisChannel(cfg.RedisURL, cfg.RedisAlertChannel)
	if err != nil {
		log.Fatal("Failed to initialize redis channel:", err)
	}
	notifier := notify.NewRouter(
		notify.NewEmailChannel(cfg.SMTPHost, cfg.SMTPFrom, cfg.SMTPTo),
		notify.NewSlackChannel(cfg.SlackWebhookURL),
		notify.NewWebhookChannel(cfg.WebhookURL),
		redisChannel,
	)
	log.Printf("📣 Notification channels: %v", notifier.Configured())

	// Core state, all process-local
	translator := translate.New(translate.DefaultCacheCapacity)
	auditLog := audit.NewLog(audit.DefaultMaxEntries)
	limiter := ratelimit.NewLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	alertFeed := alerts.NewFeed(alerts.DefaultMaxEntries)

	aiClient := ai.NewClient(cfg.AIServiceURL, cfg.AIServiceTimeout)

	// Initialize router
	router := mux.NewRouter()

	middleware := auth.NewMiddleware(cfg.JWTSecret, cfg.DevMode)
	handler := api.NewHandler(translator, auditLog, limiter, notifier, aiClient, store, alertFeed)

	router.Use(middleware.ResolveTenant)
	router.Use(middleware.ResolveRole)
	router.Use(handler.RateLimit)

	handler.RegisterRoutes(router)

	if cfg.DevMode {
		router.HandleFunc("/auth/token", tokenHandler(cfg.JWTSecret)).Methods("POST")
		log.Printf("🔧 Dev mode: /auth/token enabled, missing tenant defaults to %q", auth.DevTenant)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Printf("AI service at %s", cfg.AIServiceURL)
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		log.Fatal("Server failed:", err)
	}
}

func tokenHandler(jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TenantID string `json:"tenant_id"`
			Role     string `json:"role"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if req.TenantID == "" {
			req.TenantID = auth.DevTenant
		}

		token, err := auth.GenerateToken(req.TenantID, req.Role, jwtSecret)
		if err != nil {
			log.Printf("Token generation failed: %v", err)
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"token": token,
		})
	}
}
