package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := service.Store.ApplyMigrations(service.Config.Database.MigrationsDir); err != nil {
		logger.Error.Fatalf("Failed to apply migrations: %v", err)
	}

	poller, err := app.NewPoller(service)
	if err != nil {
		logger.Error.Fatalf("Failed to init poller: %v", err)
	}
	poller.Start()
	defer poller.Stop()

	dashboardHandler := handlers.NewDashboardHandler(service)

	http.HandleFunc("GET /api/v1/dashboard", dashboardHandler.HandleDashboard)
	http.HandleFunc("GET /api/v1/submissions", dashboardHandler.HandleSubmissions)
	http.HandleFunc("GET /api/v1/courses/{course}/stats", dashboardHandler.HandleCourseStats)
	http.HandleFunc("POST /api/v1/submissions/{id}/review", dashboardHandler.HandleReview)
	http.HandleFunc("GET /api/v1/notifications", dashboardHandler.HandleNotifications)
	http.HandleFunc("POST /api/v1/notifications/{id}/read", dashboardHandler.HandleNotificationRead)
	http.HandleFunc("POST /api/v1/refresh", dashboardHandler.HandleRefresh)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting lussekatt dashboard engine on %s", service.Config.Server.Port)
	logger.Debug.Printf("Upstream data service: %s", service.Config.Upstream.BaseURL)
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Lussekatt server failed: %v", err)
	}
}
