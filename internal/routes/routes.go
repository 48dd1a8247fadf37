package routes

import (
	"net/http"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/handler"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/middleware"
	"ambulancewatch/internal/repository"
	"ambulancewatch/internal/service/stream"
	"ambulancewatch/internal/service/websocket"
	"ambulancewatch/internal/session"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/semaphore"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Sessions  *session.Manager
	Users     repository.UserRepository
	Alerts    repository.AlertRepository
	Detector  handler.ImageDetector
	Processor stream.FrameProcessor
	OpenCam   handler.SourceOpener
	Hub       *websocket.HubService
}

// SetupRoutes registers pages, auth, detection, streaming, alert and log endpoints
// and wraps the router with CORS and request logging.
func SetupRoutes(d Deps) http.Handler {
	cfg, log := d.Config, d.Logger

	// Trailing slashes (/about/) redirect to the canonical path
	r := mux.NewRouter().StrictSlash(true)

	protected := middleware.AuthMiddleware(d.Sessions, cfg.RequireLogin)
	alwaysProtected := middleware.AuthMiddleware(d.Sessions, true)

	// Static files and annotated outputs
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	r.PathPrefix(cfg.MediaURL).Handler(http.StripPrefix(cfg.MediaURL, http.FileServer(http.Dir(cfg.MediaDir))))

	// Pages
	for path, page := range handler.Pages {
		r.HandleFunc(path, handler.PageHandler(cfg, page)).Methods(http.MethodGet, http.MethodHead)
	}

	// Auth endpoints
	r.HandleFunc("/register", handler.RegisterHandler(cfg, d.Users, d.Sessions, log)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/login", handler.LoginHandler(cfg, d.Users, d.Sessions, log)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", handler.LogoutHandler(d.Sessions, log)).Methods(http.MethodGet)
	r.HandleFunc("/api/messages", handler.MessagesHandler(d.Sessions, log)).Methods(http.MethodGet)

	// Detection; any method is accepted so non-POST gets the JSON 400
	r.Handle("/detect-ambulance", protected(handler.DetectAmbulanceHandler(d.Detector, log)))
	r.Handle("/cctv-stream", protected(handler.CCTVStreamHandler(
		cfg, d.OpenCam, d.Processor, semaphore.NewWeighted(int64(max(cfg.MaxStreams, 1))), d.Metrics, log,
	))).Methods(http.MethodGet)

	// Alerts
	r.Handle("/ws/alerts", protected(handler.AlertsWebsocketHandler(d.Hub, log))).Methods(http.MethodGet)
	r.Handle("/api/alerts", protected(handler.RecentAlertsHandler(d.Alerts, log))).Methods(http.MethodGet)

	// Metrics
	r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)

	// Log endpoints
	for name, file := range map[string]string{"info": logger.InfoFile, "warning": logger.WarningFile, "error": logger.ErrorFile} {
		r.Handle("/logs/"+name, alwaysProtected(handler.ShowLogsHandler(log, file))).Methods(http.MethodGet)
		r.Handle("/logs/"+name+"/clear", alwaysProtected(handler.ClearLogsHandler(log, file))).Methods(http.MethodPost)
	}

	// Apply middleware
	var h http.Handler = r
	if len(cfg.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowCredentials: true,
		}).Handler(h)
	}
	return middleware.LoggingMiddleware(log)(h)
}
