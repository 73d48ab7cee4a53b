// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"kitchenback/internal/checklist"
	"kitchenback/internal/cleanup"
	"kitchenback/internal/collation"
	"kitchenback/internal/config"
	"kitchenback/internal/data"
	"kitchenback/internal/inventory"
	"kitchenback/internal/logger"
	"kitchenback/internal/middleware"
	"kitchenback/internal/notify"
	"kitchenback/internal/report"
	"kitchenback/internal/security"
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func init() {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err == nil {
		time.Local = loc // This affects the standard log package
	}
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	loggerConfig := config.LoggerConfig()
	if err := logger.SetupLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment and paths loaded. Logger ready.")

	// Step 3: Load domain configuration
	config.LoadInventoryConfig()
	config.LoadCORSConfig()
	config.LogCurrentEnvironment()

	// Step 4: Open the database
	if err := data.InitDB(config.DBPath()); err != nil {
		logger.LogFatal("Failed to initialize database: %v", err)
	}
	defer data.CloseDB()

	// Step 5: Build the cores and reload state
	sessionStore := data.NewSessionStore()
	checklistStore := data.NewChecklistStore()

	cmp := collation.New(config.InventoryLocale())
	inventoryService := inventory.NewService(sessionStore, cmp)
	checklistService := checklist.NewService(checklistStore)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := inventoryService.LoadFromStore(ctx); err != nil {
		cancel()
		logger.LogFatal("Failed to load inventory sessions: %v", err)
	}
	if err := checklistService.LoadFromStore(ctx); err != nil {
		cancel()
		logger.LogFatal("Failed to load checklists: %v", err)
	}
	cancel()

	templates, err := checklist.LoadTemplates(config.TemplatesPath())
	if err != nil {
		logger.LogFatal("Failed to load checklist templates: %v", err)
	}

	// Step 6: Setup app
	app := &App{
		addr: serverAddress(),
		mux:  routes(inventoryService, checklistService, templates),
	}

	// Step 7: Start background tasks
	go security.CleanExpiredTokens()
	cleanup.StartCleanupRoutine(sessionStore)

	// Step 8: Run server
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5051"
	}
	return host + ":" + port
}

// routes sets up all API routes
func routes(inventoryService *inventory.Service, checklistService *checklist.Service, templates []checklist.Template) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	inventoryHandlers := &inventory.Handlers{Service: inventoryService}
	checklistHandlers := &checklist.Handlers{
		Service: checklistService,
		Deduper: checklist.NewDeduper(),
		Sinks: []checklist.Sink{
			notify.LogSink{},
			notify.EmailSink{Config: notify.LoadEmailConfig()},
		},
		Templates: templates,
	}
	reportHandlers := &report.Handlers{
		Inventory:  inventoryService,
		Checklists: checklistService,
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/token", security.TokenHandler)

	apiMux.HandleFunc("/inventory/active", middleware.APIMiddleware(inventoryHandlers.ActiveHandler))
	apiMux.HandleFunc("/inventory/create", middleware.MutatingAPIMiddleware(inventoryHandlers.CreateHandler))
	apiMux.HandleFunc("/inventory/entry", middleware.MutatingAPIMiddleware(inventoryHandlers.EntryHandler))
	apiMux.HandleFunc("/inventory/pending", middleware.APIMiddleware(inventoryHandlers.PendingHandler))
	apiMux.HandleFunc("/inventory/complete", middleware.MutatingAPIMiddleware(inventoryHandlers.CompleteHandler))
	apiMux.HandleFunc("/inventory/delete", middleware.MutatingAPIMiddleware(inventoryHandlers.DeleteHandler))
	apiMux.HandleFunc("/inventory/history", middleware.APIMiddleware(inventoryHandlers.HistoryHandler))

	apiMux.HandleFunc("/checklists", middleware.APIMiddleware(checklistHandlers.ListHandler))
	apiMux.HandleFunc("/checklists/create", middleware.MutatingAPIMiddleware(checklistHandlers.CreateHandler))
	apiMux.HandleFunc("/checklists/from-template", middleware.MutatingAPIMiddleware(checklistHandlers.FromTemplateHandler))
	apiMux.HandleFunc("/checklists/templates", middleware.APIMiddleware(checklistHandlers.TemplatesHandler))
	apiMux.HandleFunc("/checklists/status", middleware.MutatingAPIMiddleware(checklistHandlers.StatusHandler))
	apiMux.HandleFunc("/checklists/delete", middleware.MutatingAPIMiddleware(checklistHandlers.DeleteHandler))

	apiMux.HandleFunc("/reports/overview", middleware.APIMiddleware(reportHandlers.OverviewHandler))
	apiMux.HandleFunc("/reports/inventory", middleware.APIMiddleware(reportHandlers.InventoryHandler))
	apiMux.HandleFunc("/reports/inventory.csv", middleware.APIMiddleware(reportHandlers.InventoryCSVHandler))

	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	return mux
}

// Run starts the HTTP server

func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a separate goroutine
	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	<-stop
	logger.LogInfo("Shutdown signal received")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	} else {
		logger.LogInfo("Server shut down gracefully")
	}

	// Wait for active connections to finish
	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.trackConnections(handler)
	handler = security.AddCORSHeaders(handler)
	handler = withTimeout(handler, 15*time.Second)

	return handler
}

// Middleware: timeout handler
func withTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, timeout, "Request timed out")
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
