package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	config "github.com/maheshrc27/shortspipe/configs"
	"github.com/maheshrc27/shortspipe/internal/api/handlers"
	job "github.com/maheshrc27/shortspipe/internal/jobs"
	"github.com/maheshrc27/shortspipe/internal/repository"
	"github.com/maheshrc27/shortspipe/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	accountRepo := repository.NewAccountRepository(cfg.AccountsFile)
	validateAccounts(accountRepo)

	authService := service.NewAuthService(accountRepo)
	mixerService := service.NewMixerService(*cfg)
	youtubeService := service.NewYoutubeService(*cfg)
	uploadService := service.NewUploadService(*cfg, accountRepo, authService, mixerService, youtubeService)

	upload := handlers.NewUploadHandler(uploadService)
	app.Post("/upload", upload.Upload)

	account := handlers.NewAccountHandler(accountRepo, authService)
	app.Get("/check-account", account.CheckAccount)
	app.Post("/refresh-token", account.RefreshToken)

	refreshTokenJob := job.NewTokenRefreshJob(accountRepo, authService)

	c := cron.New()
	c.AddFunc(cfg.TokenRefreshSchedule, refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app)
}

// validateAccounts warns about unusable credential records at startup so a
// broken accounts file is noticed before the first upload fails.
func validateAccounts(ar repository.AccountRepository) {
	accounts, err := ar.Load()
	if err != nil {
		log.Printf("Warning: accounts file is not usable: %v", err)
		return
	}

	for name, account := range accounts {
		if !account.Complete() {
			log.Printf("Warning: account %q is missing required credential fields", name)
		}
	}
	log.Printf("Loaded %d account(s)", len(accounts))
}

func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
