package api

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/sinowatch/sinowatch/internal/auth"
	"github.com/sinowatch/sinowatch/internal/notify"
)

// Deps bundles the collaborators the router wires into handlers.
type Deps struct {
	Articles ArticleReader
	Health   HealthReader
	Retries  RetryReader
	DB       Pinger
	Hub      *notify.Hub
	Trigger  IngestTrigger
	Auth     auth.Config
	Logger   *slog.Logger
}

// SetupRoutes configures all API routes on the mux.
func SetupRoutes(mux *http.ServeMux, deps Deps) {
	handler := NewHandler(deps.Articles, deps.Health, deps.Retries, deps.DB, deps.Logger)
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	adminHandler := NewAdminHandler(deps.Trigger, deps.Logger)
	streamHandler := NewStreamHandler(deps.Hub, deps.Logger)

	authMiddleware := auth.Middleware(deps.Auth)

	mux.HandleFunc("/api/news", handler.ListNewsHandler)
	mux.HandleFunc("/api/news/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/stream") {
			streamHandler.Stream(w, r)
			return
		}
		handler.GetNewsByIDHandler(w, r)
	})

	mux.HandleFunc("/api/sources/health", handler.ListSourceHealthHandler)
	mux.HandleFunc("/api/filters", handler.FiltersHandler)
	mux.HandleFunc("/api/retry/metrics", handler.RetryMetricsHandler)

	mux.HandleFunc("/api/admin/login", authHandler.Login)
	mux.HandleFunc("/api/admin/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			preflight(w)
			return
		}
		authMiddleware(http.HandlerFunc(adminHandler.TriggerIngest)).ServeHTTP(w, r)
	})

	mux.HandleFunc("/healthz", handler.HealthzHandler)

	// CORS preflight fallback
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			preflight(w)
			return
		}
		http.NotFound(w, r)
	})
}

func preflight(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}
