package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"presence-rewards-system/handlers"
	"presence-rewards-system/middleware"
	"presence-rewards-system/models"
	"presence-rewards-system/services"
	"presence-rewards-system/utils"
	"presence-rewards-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // artwork uploads only
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// The single owner principal; every admin-gated operation compares
	// the caller against this identity.
	adminPrincipal := os.Getenv("ADMIN_PRINCIPAL")
	if adminPrincipal == "" {
		log.Fatal("ADMIN_PRINCIPAL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !utils.R2Enabled() {
		log.Println("⚠️  R2 not configured — event artwork will be stored under ./uploads")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Event{},
		&models.Participation{},
		&models.ReplayGuardEntry{},
		&models.RewardAccount{},
		&models.MarketplaceItem{},
		&models.Redemption{},
		&models.ParticipantKey{},
		&models.ParticipantProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	verifier := services.NewKeyRegistryVerifier(db)
	claimService := services.NewClaimService(db, verifier)
	redemptionService := services.NewRedemptionService(db)
	eventService := services.NewEventService(db, adminPrincipal)
	marketplaceService := services.NewMarketplaceService(db, adminPrincipal)
	rewardsService := services.NewRewardsService(db)

	// --- Sync service details for key/profile mirrors ---
	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("PRESENCE_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("PRESENCE_SERVICE_TOKEN environment variable not set")
	}

	profileWorker := workers.NewProfileSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)
	keySyncClient := workers.NewKeySyncClient(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go workers.PollKeys(ctx, keySyncClient, 30*time.Second)
	profileWorker.Start(ctx)

	auditSched, err := rewardsService.StartLedgerAudit(1 * time.Hour)
	if err != nil {
		log.Fatal("failed to start ledger audit:", err)
	}
	defer func() { _ = auditSched.Shutdown() }()

	// ✅ Routes — all behind Gateway auth with user context
	handlers.SetupEventRoutes(app, eventService)
	handlers.SetupClaimRoutes(app, claimService, rewardsService)
	handlers.SetupMarketplaceRoutes(app, marketplaceService, redemptionService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Credential key polling running (every 30s)")
	log.Println("✅ Profile sync worker running")
	log.Println("✅ Hourly ledger audit scheduled")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
