package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vitalTrackAPI/handlers"
	"vitalTrackAPI/internal/clock"
	"vitalTrackAPI/internal/config"
	sink "vitalTrackAPI/internal/notification"
	"vitalTrackAPI/internal/store"
	"vitalTrackAPI/middleware"
	"vitalTrackAPI/services"
)

var (
	cfg              *config.Config
	dbPool           *pgxpool.Pool
	kvStore          store.KVStore
	notificationSink sink.Sink
	fcmSink          *sink.FCMSink
	clerkEnabled     bool

	progressService   *services.ProgressService
	motivationService *services.MotivationService
	scheduler         *services.NotificationScheduler
	discoveryEngine   *services.DiscoveryEngine
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if cfg.Auth.ClerkSecretKey != "" {
		clerk.SetKey(cfg.Auth.ClerkSecretKey)
		clerkEnabled = true
		log.Println("Clerk initialized successfully")
	} else {
		log.Println("CLERK_SECRET_KEY not set, API routes run unauthenticated")
	}

	if cfg.Storage.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolConfig, err := pgxpool.ParseConfig(cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 25
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}
		log.Println("Successfully connected to Postgres")

		kvStore, err = store.NewPostgresStore(ctx, dbPool)
		if err != nil {
			log.Fatal("Failed to initialize postgres store:", err)
		}
	} else {
		fileStore := store.NewFileStore(cfg.Storage.FilePath)
		if err := fileStore.Load(); err != nil {
			log.Fatal("Failed to load file store:", err)
		}
		kvStore = fileStore
		log.Printf("Using file store at %s", cfg.Storage.FilePath)
	}

	fcmSink, err = sink.NewFCMSink(cfg.FCM.CredentialsFile, sink.StoreTokenSource(kvStore))
	if err != nil {
		log.Printf("Warning: Could not initialize FCM, using simulated sink: %v", err)
		notificationSink = sink.NewSimulatedSink()
		fcmSink = nil
	} else {
		notificationSink = fcmSink
		log.Println("FCM sink initialized successfully")
	}

	clk := clock.System()
	progressService = services.NewProgressService(kvStore, clk)
	motivationService = services.NewMotivationService(cfg.Motivation.APIURL, cfg.Motivation.APIKey)
	scheduler = services.NewNotificationScheduler(kvStore, notificationSink, progressService, motivationService, clk)
	discoveryEngine = services.NewDiscoveryEngine(kvStore, progressService, clk)

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go discoveryEngine.Start(bgCtx)
	if fcmSink != nil {
		go fcmSink.Start(bgCtx)
	}

	// Rebuild today's slots from the persisted settings at boot.
	scheduler.Reschedule(bgCtx)

	progressHandler := handlers.NewProgressHandler(progressService, discoveryEngine)
	notificationHandler := handlers.NewNotificationHandler(scheduler)
	discoveryHandler := handlers.NewDiscoveryHandler(discoveryEngine)
	motivationHandler := handlers.NewMotivationHandler(motivationService, progressService, clock.System())

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "vitalTrack-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	if clerkEnabled {
		api.Use(middleware.ClerkAuthMiddleware)
	}

	api.HandleFunc("/progress", progressHandler.GetProgress).Methods("GET")
	api.HandleFunc("/logs/water", progressHandler.AddWaterLog).Methods("POST")
	api.HandleFunc("/logs/food", progressHandler.AddFoodLog).Methods("POST")

	api.HandleFunc("/motivation", motivationHandler.GetMessage).Methods("GET")

	api.HandleFunc("/notifications/settings", notificationHandler.GetSettings).Methods("GET")
	api.HandleFunc("/notifications/settings", notificationHandler.UpdateSettings).Methods("PUT")
	api.HandleFunc("/notifications/enable", notificationHandler.Enable).Methods("POST")
	api.HandleFunc("/notifications/disable", notificationHandler.Disable).Methods("POST")
	api.HandleFunc("/notifications/pending", notificationHandler.GetPending).Methods("GET")
	api.HandleFunc("/notifications/test", notificationHandler.SendTest).Methods("POST")
	api.HandleFunc("/notifications/send", notificationHandler.Send).Methods("POST")
	api.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	api.HandleFunc("/discovery", discoveryHandler.GetState).Methods("GET")
	api.HandleFunc("/discovery/dismiss/tooltip", discoveryHandler.DismissTooltip).Methods("POST")
	api.HandleFunc("/discovery/dismiss/reengagement", discoveryHandler.DismissReengagement).Methods("POST")
	api.HandleFunc("/discovery/dismiss/meal-banner", discoveryHandler.DismissMealBanner).Methods("POST")
	api.HandleFunc("/discovery/scan-used", discoveryHandler.ScanUsed).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Server.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	bgCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
