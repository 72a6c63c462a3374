package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"caja_app_echo/internal/caja"
	"caja_app_echo/internal/handlers"
	"caja_app_echo/internal/middleware"
	"caja_app_echo/internal/models"
	"caja_app_echo/internal/services"
)

// RequestValidator wires go-playground/validator into Echo
type RequestValidator struct {
	validator *validator.Validate
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Billing backend client
	billing := services.NewBillingService()

	// Redis is optional: without it the service runs purely in memory
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		var err error
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
	} else {
		log.Println("Warning: REDIS_URL not set, fetch cache and submit lock disabled")
	}

	sessions := services.NewSessionService(billing, cache)

	if ttlStr := os.Getenv("SESSION_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil && minutes > 0 {
			sessions.TTL = time.Duration(minutes) * time.Minute
		}
	}
	sessions.ResetAfterSuccess = os.Getenv("RESET_AFTER_SUCCESS") == "true"

	// The shell decides what happens on success (print, close tab); here we
	// only log the receipt.
	sessions.Hooks = services.SessionHooks{
		OnSuccess: func(session *models.Session, receipt models.Receipt) {
			log.Printf("payment registered for work %d: receipt %d, total %s",
				session.WorkID, receipt.Number, caja.FormatAmount(receipt.TotalPaid))
		},
		OnClose: func(sessionID string) {
			log.Printf("session %s closed", sessionID)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.StartJanitor(ctx, time.Minute)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.OperatorContext())

	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.Validator = &RequestValidator{validator: validator.New()}

	// Routes
	cajaHandler := handlers.NewCajaHandler(sessions)
	cajaHandler.Register(e.Group("/api/caja"))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
