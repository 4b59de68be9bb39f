package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postpilothq/postpilot/configs"
	"github.com/postpilothq/postpilot/internal/agent"
	"github.com/postpilothq/postpilot/internal/api/handlers"
	"github.com/postpilothq/postpilot/internal/api/middleware"
	"github.com/postpilothq/postpilot/internal/platform"
	"github.com/postpilothq/postpilot/internal/queue"
	"github.com/postpilothq/postpilot/internal/repository"
	"github.com/postpilothq/postpilot/internal/scheduler"
	"github.com/postpilothq/postpilot/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	lockRepo := repository.NewSchedulerLockRepository(db)
	postRepo := repository.NewScheduledPostRepository(db)
	actionRepo := repository.NewScheduledActionRepository(db)
	policyRepo := repository.NewPolicyConfigRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	campaignTaskRepo := repository.NewCampaignTaskRepository(db)
	approvalRepo := repository.NewCampaignApprovalRepository(db)
	runRepo := repository.NewRunRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	engagementRepo := repository.NewEngagementActionRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postMetricsRepo := repository.NewPostMetricsRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	platformClient := platform.NewAPIClient()

	accountService := service.NewAccountService(*cfg, socialAccountRepo)
	policyService := service.NewPolicyService(policyRepo, postRepo, actionRepo)
	postService := service.NewPostService(db, postRepo)
	actionService := service.NewActionService(actionRepo)
	mediaService := service.NewMediaService(*cfg)
	assetService := service.NewAssetService(mediaAssetRepo, mediaService)
	campaignService := service.NewCampaignService(campaignRepo, campaignTaskRepo, approvalRepo)
	idempotencyService := service.NewIdempotencyService(idempotencyRepo, cfg.IdempotencyTTL)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	executor := agent.NewExecutor(campaignRepo, campaignTaskRepo, approvalRepo, runRepo,
		engagementRepo, accountService, policyService, platformClient)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Post("/api_key/remove", apiKeys.RemoveApiKey)

	account := handlers.NewAccountHandler(accountService)
	api.Post("/accounts/connect", middleware.Idempotency(idempotencyService, "accounts"), account.ConnectAccount)
	api.Post("/accounts/disconnect", account.DisconnectAccount)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", middleware.Idempotency(idempotencyService, "posts"), post.CreatePost)
	api.Post("/posts/thread", middleware.Idempotency(idempotencyService, "threads"), post.CreateThread)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/cancel", post.CancelPost)
	api.Post("/posts/backfill_dedupe", post.BackfillDedupeKeys)

	action := handlers.NewActionHandler(actionService)
	api.Post("/actions/create", middleware.Idempotency(idempotencyService, "actions"), action.CreateAction)
	api.Get("/actions", action.ListActions)
	api.Post("/actions/cancel", action.CancelAction)

	policy := handlers.NewPolicyHandler(policyService, policyRepo)
	api.Get("/policy", policy.GetPolicy)
	api.Post("/policy/update", policy.UpdatePolicy)
	api.Get("/policy/check", policy.CheckPolicy)

	campaign := handlers.NewCampaignHandler(campaignService, client)
	api.Post("/campaigns/create", middleware.Idempotency(idempotencyService, "campaigns"), campaign.CreateCampaign)
	api.Post("/campaigns/tasks/create", middleware.Idempotency(idempotencyService, "campaign_tasks"), campaign.CreateTask)
	api.Post("/campaigns/execute", campaign.ExecuteCampaign)
	api.Post("/campaigns/tasks/execute", campaign.ExecuteTask)
	api.Post("/campaigns/approvals/decide", campaign.DecideApproval)

	asset := handlers.NewAssetHandler(assetService)
	api.Post("/assets/upload", asset.UploadAsset)

	// scheduler cycles
	postScheduler := scheduler.NewPostScheduler(lockRepo, postRepo, accountService, mediaService, platformClient, cfg.LeaseSeconds)
	actionScheduler := scheduler.NewActionScheduler(lockRepo, actionRepo, engagementRepo, accountService, policyService, platformClient, cfg.LeaseSeconds)
	metricsCollector := scheduler.NewMetricsCollector(lockRepo, postRepo, postMetricsRepo, accountService, platformClient, cfg.LeaseSeconds)

	registry := scheduler.NewRegistry()
	startCycle(registry, "post-cycle", cfg.PostCycleInterval, func() {
		if _, err := postScheduler.RunCycle(context.Background()); err != nil {
			slog.Error(err.Error())
		}
	})
	startCycle(registry, "action-cycle", cfg.ActionCycleInterval, func() {
		if _, err := actionScheduler.RunCycle(context.Background()); err != nil {
			slog.Error(err.Error())
		}
	})
	startCycle(registry, "metrics-cycle", cfg.MetricsCycleInterval, func() {
		if _, err := metricsCollector.RunCycle(context.Background()); err != nil {
			slog.Error(err.Error())
		}
	})

	// queue
	queueW := queue.NewQueue(executor)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeExecuteTask, queueW.HandleExecuteTask)
		mux.HandleFunc(queue.TaskTypeExecuteCampaign, queueW.HandleExecuteCampaign)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, registry)
}

func startCycle(registry *scheduler.Registry, name string, interval time.Duration, fn func()) {
	started, err := registry.Start(name, interval, fn)
	if err != nil {
		log.Fatalf("Failed to start %s: %v", name, err)
	}
	if !started {
		log.Printf("%s already running", name)
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, registry *scheduler.Registry) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	registry.StopAll()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
