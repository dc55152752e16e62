// main.go - Entry point for the store ratings backend server

package main // Declares the package name

import ( // Import required packages
	"context"   // Shutdown deadline
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Process signals and stderr
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"go-ratings-backend/auth"       // Token service and password hashing
	"go-ratings-backend/config"     // Project config management
	"go-ratings-backend/database"   // Database connection and setup
	"go-ratings-backend/events"     // Domain event dispatch
	"go-ratings-backend/handlers"   // HTTP handlers for API endpoints
	"go-ratings-backend/middleware" // Gate, logging, rate limiting
	"go-ratings-backend/mqtt"       // MQTT event sink
	"go-ratings-backend/services"   // Business operations

	"github.com/gin-gonic/gin"  // Gin web framework
	"github.com/rs/zerolog"     // Log levels and console output
	"github.com/rs/zerolog/log" // Global logger
)

func main() { // Main function, program entry point
	// STEP 1: Load configuration and set up logging
	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.IsProduction() && cfg.JWTSecret == "supersecret" {
		log.Fatal().Msg("JWT_SECRET must be set in production")
	}

	// STEP 2: Establish connections
	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("DB connection error")
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry,
		auth.WithSubjectChecker(database.Subjects{DB: db}))
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	hub := events.NewHub()
	sinks := []events.Sink{hub}
	if cfg.MQTTBroker != "" {
		client, err := mqtt.Connect(cfg.MQTTBroker, cfg.MQTTClient)
		if err != nil {
			log.Fatal().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT connection error")
		}
		defer client.Close()
		sinks = append(sinks, client)
	}
	dispatcher := events.NewDispatcher(256, sinks...)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	// STEP 3: Wire services
	ratings := services.NewRatings(db, dispatcher)
	accounts := services.NewAccounts(db, auth.BcryptHasher{}, tokens, ratings)
	h := &handlers.Handler{
		DB:        db,
		Accounts:  accounts,
		Catalog:   services.NewCatalog(db, ratings, dispatcher),
		Ratings:   ratings,
		Integrity: services.NewIntegrity(db, dispatcher),
		Hub:       hub,
	}

	if cfg.CreateAdmin {
		if _, err := accounts.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("seed admin")
		}
	}

	// STEP 4: Start the web server and wait for a shutdown signal
	router := handlers.NewRouter(h, middleware.NewGate(tokens), middleware.NewLoginLimiter(cfg.LoginPerMin), middleware.NewMetrics())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
