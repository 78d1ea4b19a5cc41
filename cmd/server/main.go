package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/gdg-garage/mess-billing/internal/auth"
	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/config"
	"github.com/gdg-garage/mess-billing/internal/database"
	"github.com/gdg-garage/mess-billing/internal/handlers"
	"github.com/gdg-garage/mess-billing/internal/mess"
	"github.com/gdg-garage/mess-billing/internal/metrics"
	"github.com/gdg-garage/mess-billing/internal/notifier"
	"github.com/gdg-garage/mess-billing/pkg/logging"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel)

	// Connect to Database
	db := database.Connect(cfg)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}
	rule, err := billing.ParseDrinkRule(cfg.BillingDrinkRule)
	if err != nil {
		log.Fatalf("Invalid drink rule: %v", err)
	}

	opts := mess.Options{
		Resolver:  calendar.NewResolver(loc),
		DrinkRule: rule,
	}

	discordNotifier, err := notifier.NewFromConfig(cfg)
	if err != nil {
		slog.Info("Discord notifier not initialized", "reason", err)
	} else {
		opts.Notifier = discordNotifier
	}

	var metricsHandler http.Handler
	if cfg.EnableMetrics {
		opts.Metrics = metrics.New()
		metricsHandler = opts.Metrics.Handler()
	}

	// Initialize Handlers
	svc := mess.New(db, opts)
	authHandler := auth.NewAuthHandler(cfg, db)
	messHandler := handlers.NewMessHandler(svc, authHandler, cfg.ClientDateCookie)
	apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, messHandler, apiKeyHandler, metricsHandler)

	// Start Server
	slog.Info("Starting server", "port", cfg.Port, "timezone", loc.String(), "drink_rule", string(rule))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
