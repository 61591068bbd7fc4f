package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-browser/internal/database"
	"image-browser/internal/handlers"
	"image-browser/internal/logging"
	"image-browser/internal/media"
	"image-browser/internal/middleware"
	"image-browser/internal/paths"
	"image-browser/internal/startup"
	"image-browser/internal/store"
	"image-browser/internal/tagger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	resolver, err := paths.NewResolver(config.ImagesDir)
	if err != nil {
		startup.LogFatal("Failed to resolve image root: %v", err)
	}

	// Initialize the metadata store
	dbStart := time.Now()
	db, err := database.New(resolver.DatabasePath(), config.SaveDebounce)
	if err != nil {
		startup.LogFatal("Failed to initialize metadata database: %v", err)
	}
	defer db.Close()
	startup.LogStoreInit(db.LoadedRows(), time.Since(dbStart))

	st := store.New(db, resolver,
		media.NewHasher(),
		media.NewPromptExtractor(),
		tagger.New(config.AutoTags),
		media.NewThumbnailGenerator(config.ThumbnailSize))

	// Drop records whose image file disappeared while we were down
	if config.CleanupOnStart {
		removed, err := st.Cleanup()
		startup.LogCleanupResult(removed, err)
	}

	// Initialize handlers
	h := handlers.New(st, resolver)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	metricsConfig := middleware.DefaultMetricsConfig()
	meteredHandler := middleware.Metrics(metricsConfig)(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(meteredHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsSrv := startMetricsServer(config)

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, st)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/images/{path:.*}", h.GetImage).Methods("GET")
	api.HandleFunc("/file/{path:.*}", h.GetFile).Methods("GET")
	api.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/metadata", h.UpdateMetadata).Methods("PUT")
	api.HandleFunc("/metadata", h.DeleteMetadata).Methods("DELETE")
	api.HandleFunc("/metadata/uncheck-all", h.UncheckAll).Methods("POST")

	// Bookmarks
	api.HandleFunc("/bookmarks", h.ListBookmarks).Methods("GET")
	api.HandleFunc("/bookmarks", h.AddBookmark).Methods("POST")
	api.HandleFunc("/bookmarks/{metadataId}", h.RemoveBookmarks).Methods("DELETE")
	api.HandleFunc("/bookmarks/{metadataId}/exists", h.HasBookmark).Methods("GET")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

// startMetricsServer runs the Prometheus endpoint on its own port so
// scrapes never compete with image traffic.
func startMetricsServer(config *startup.Config) *http.Server {
	if !config.MetricsEnabled {
		return nil
	}

	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + config.MetricsPort,
		Handler:      m,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, st *store.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	// In-flight mutations are done once the server has drained, so
	// this flush captures the final state.
	startup.LogShutdownStep("Flushing metadata store")
	if err := st.ForceSave(); err != nil {
		logging.Error("Final flush failed: %v", err)
	} else {
		startup.LogShutdownStepComplete("Metadata flushed")
	}

	startup.LogShutdownComplete()
}
