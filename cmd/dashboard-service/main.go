package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurolife88/amo-china/internal/gateway"
	"github.com/neurolife88/amo-china/internal/patients"
	"github.com/neurolife88/amo-china/pkg/config"
	"github.com/neurolife88/amo-china/pkg/database"
	"github.com/neurolife88/amo-china/pkg/logger"
	"github.com/neurolife88/amo-china/pkg/monitoring"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithFields(map[string]interface{}{
		"version": serviceVersion,
	}).Info("Starting dashboard service")

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.CreateSchema(context.Background()); err != nil {
		log.WithError(err).Error("Failed to initialize database schema")
		os.Exit(1)
	}

	// Initialize monitoring
	metrics := monitoring.NewMetricsCollector("dashboard-service")
	health := monitoring.NewHealthManager("dashboard-service", serviceVersion)
	health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))

	var tracing *monitoring.TracingManager
	if cfg.Monitoring.TracingEnabled {
		tracing, err = monitoring.NewTracingManager(&monitoring.TracingConfig{
			ServiceName:    "dashboard-service",
			ServiceVersion: serviceVersion,
			JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
			Environment:    cfg.Monitoring.Environment,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		})
		if err != nil {
			log.WithError(err).Error("Failed to initialize tracing")
			os.Exit(1)
		}
	}

	// Initialize dashboard components
	repo := patients.NewRepository(db.DB, log, tracing)
	service := patients.NewService(repo, log, metrics, tracing)
	exporter := patients.NewExporter(log)
	handlers := patients.NewHandlers(service, exporter, log)

	// Initialize authentication
	validator := gateway.NewTokenValidator(cfg.JWT.SecretKey, cfg.JWT.Issuer)
	authMiddleware := gateway.NewAuthMiddleware(validator, log, metrics, tracing)

	// Setup router
	router := mux.NewRouter()
	router.Use(gateway.SecurityHeadersMiddleware)
	if tracing != nil {
		router.Use(tracing.HTTPMiddleware)
	}
	router.Use(metrics.HTTPMiddleware)
	router.Use(authMiddleware.Middleware)
	router.Use(gateway.RequestLoggingMiddleware(log))

	router.HandleFunc(cfg.Monitoring.HealthPath, health.HTTPHandler()).Methods("GET")
	if cfg.Monitoring.Enabled {
		router.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods("GET")
	}

	handlers.RegisterRoutes(router)

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithFields(map[string]interface{}{
			"address": server.Addr,
		}).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start HTTP server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down dashboard service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	if tracing != nil {
		if err := tracing.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}

	log.Info("Dashboard service stopped")
}
