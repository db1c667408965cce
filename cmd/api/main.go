package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/dmelgar/fintrack/internal/config"
	"github.com/dmelgar/fintrack/internal/handler"
	"github.com/dmelgar/fintrack/internal/integrations/rates"
	"github.com/dmelgar/fintrack/internal/middleware"
	"github.com/dmelgar/fintrack/internal/repository"
	"github.com/dmelgar/fintrack/internal/scheduler"
	"github.com/dmelgar/fintrack/internal/service"
	"github.com/dmelgar/fintrack/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, logger, cfg)
	h := handler.NewHandler(svc, logger)
	ratesClient := rates.NewClient(cfg, logger)
	sender := email.NewSender(cfg, logger)

	// Start payment reminder scheduler
	sched := scheduler.New(repo, sender, logger, cfg)
	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/billing-cycle", h.GetBillingCycle).Methods("GET")
	authRouter.HandleFunc("/billing-cycle", h.UpdateBillingCycle).Methods("PUT")
	authRouter.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/schedule", h.LoanSchedule).Methods("GET")
	authRouter.HandleFunc("/loans/{id:[0-9]+}/progress", h.LoanProgress).Methods("GET")
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/timeline", h.CardTimeline).Methods("GET")
	authRouter.HandleFunc("/cards/{id:[0-9]+}/purchase-advice", h.PurchaseAdvice).Methods("POST")
	// Exchange rate endpoint
	r.HandleFunc("/exchange-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := ratesClient.GetRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get exchange rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(rate)
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
