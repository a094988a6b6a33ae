package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharmadesk/pharmacy-api/internal/application/service"
	"github.com/pharmadesk/pharmacy-api/internal/cache"
	"github.com/pharmadesk/pharmacy-api/internal/config"
	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/internal/infrastructure/database"
	"github.com/pharmadesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/handler"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/routes"
	"github.com/pharmadesk/pharmacy-api/pkg/email"
	"github.com/pharmadesk/pharmacy-api/pkg/printer"
	"github.com/pharmadesk/pharmacy-api/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	if err := database.SeedDefaultData(db); err != nil {
		log.Fatalf("failed to seed default data: %v", err)
	}

	// Repositories
	medicineRepo := repository.NewMedicineRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Search cache
	searchCache := cache.NewNoopCache()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			log.Fatalf("failed to initialize redis cache: %v", err)
		}
		searchCache = redisCache
	}

	// Receipt delivery
	receiptPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Fatalf("failed to initialize printer: %v", err)
	}
	defer receiptPrinter.Close()

	emailSender := email.NewNoopSender()
	if cfg.Email.Enabled {
		smtpSender, err := email.NewSMTPSender(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		})
		if err != nil {
			log.Fatalf("failed to initialize email sender: %v", err)
		}
		emailSender = smtpSender
	}

	printerService := service.NewPrinterService(receiptPrinter, cfg.Printer.CharWidth, entity.ReceiptHeader{
		PharmacyName: cfg.Billing.PharmacyName,
		Address:      cfg.Billing.Address,
		Phone:        cfg.Billing.Phone,
		GSTIN:        cfg.Billing.GSTIN,
	})
	receiptQueue := service.NewReceiptDispatcher(invoiceRepo, printerService, emailSender)
	defer receiptQueue.Close()

	// Services
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	sessions := service.NewSessionManager()
	authService := service.NewAuthService(userRepo, jwtManager)
	billingService := service.NewBillingService(
		medicineRepo, invoiceRepo, customerRepo, sessions, searchCache, receiptQueue, cfg.Billing.GSTRatePercent)
	returnsService := service.NewReturnsService(invoiceRepo, returnRepo, medicineRepo, customerRepo, searchCache)

	// Router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Setup(router, cfg, jwtManager, idempotencyRepo, routes.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Billing: handler.NewBillingHandler(billingService),
		Returns: handler.NewReturnsHandler(returnsService),
		Printer: handler.NewPrinterHandler(printerService, billingService),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.Printf("%s listening on :%d", cfg.App.Name, cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
