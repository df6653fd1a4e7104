package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/fixara/fixara-be/internal/config"
	"github.com/fixara/fixara-be/internal/db"
	"github.com/fixara/fixara-be/internal/handlers"
	"github.com/fixara/fixara-be/internal/marketplace"
	"github.com/fixara/fixara-be/internal/middleware"
	"github.com/fixara/fixara-be/internal/models"
	"github.com/fixara/fixara-be/internal/realtime"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.ProProfile{},
		&models.Job{},
		&models.Bid{},
		&models.Review{},
	); err != nil {
		log.Fatal(err)
	}

	svc := marketplace.NewService(gdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}

	jobH := handlers.NewJobHandler(gdb, svc, hub, rdb)
	bidH := handlers.NewBidHandler(gdb, svc, hub, rdb)
	profileH := handlers.NewProfileHandler(gdb)
	reviewH := handlers.NewReviewHandler(gdb, svc, hub)
	dashH := handlers.NewProDashboardHandler(gdb, svc)
	categoryH := handlers.NewCategoryHandler()
	notifyH := handlers.NewNotificationHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)
	api.Get("/jobs", jobH.ListPublic)
	api.Get("/jobs/:id", jobH.GetDetail)
	api.Get("/pros/:id", profileH.GetProProfile)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", profileH.Me)

	// client only
	protected.Post("/jobs",
		middleware.RequireRoles("client"),
		jobH.Create,
	)
	protected.Get("/client/jobs",
		middleware.RequireRoles("client"),
		jobH.MyJobs,
	)
	protected.Post("/jobs/:id/complete",
		middleware.RequireRoles("client"),
		jobH.Complete,
	)
	protected.Post("/jobs/:id/review",
		middleware.RequireRoles("client"),
		reviewH.Create,
	)
	protected.Post("/bids/:id/approve",
		middleware.RequireRoles("client"),
		bidH.Approve,
	)
	protected.Post("/bids/:id/decline",
		middleware.RequireRoles("client"),
		bidH.Decline,
	)

	// pro only
	protected.Post("/jobs/:id/bids",
		middleware.RequireRoles("pro"),
		bidH.Create,
	)
	protected.Get("/pro/bids",
		middleware.RequireRoles("pro"),
		bidH.MyBids,
	)
	protected.Get("/pro/dashboard/stats",
		middleware.RequireRoles("pro"),
		dashH.GetStats,
	)
	protected.Patch("/pro/profile",
		middleware.RequireRoles("pro"),
		profileH.UpdateProProfile,
	)

	// WebSocket endpoint (auth via query param token)
	app.Get("/ws/notifications", websocket.New(notifyH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
