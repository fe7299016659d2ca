package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/controllers"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/logger"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/middleware"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Connect(cfg); err != nil {
		zlog.Fatalw("database connection failed", "error", err)
	}

	ctx := context.Background()
	if err := database.EnsureIndexes(ctx); err != nil {
		zlog.Fatalw("index creation failed", "error", err)
	}

	usersCol := database.OpenCollection("users")
	seeded, err := utils.SeedAdminUser(ctx, usersCol, cfg)
	if err != nil {
		zlog.Fatalw("admin seeding failed", "error", err)
	}
	if seeded {
		zlog.Infow("admin user seeded", "email", cfg.AdminEmail)
	}

	users := database.NewMongoUserStore()
	tokens := utils.NewTokenManager(cfg)
	fileValidator := utils.NewAttachmentValidator()

	var limiter middleware.RateLimiter
	if cfg.RedisAddr != "" {
		limiter, err = middleware.NewRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zlog)
		if err != nil {
			zlog.Fatalw("redis connection failed", "error", err)
		}
	} else {
		limiter = middleware.NewMemoryRateLimiter()
	}
	defer limiter.Close()

	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(zlog))
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authRequired := middleware.AuthMiddleware(users, tokens)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := r.Group("/auth")
	{
		auth.POST("/login",
			middleware.LoginRateLimit(limiter, cfg.LoginMaxAttempts, cfg.LoginWindow),
			controllers.Login(users, tokens, cfg))
		auth.POST("/refresh-token", controllers.Refresh(users, tokens))
		auth.POST("/logout", authRequired, controllers.Logout(cfg))
		auth.POST("/register", authRequired, adminOnly, controllers.Register(users))
		auth.PATCH("/me", authRequired, controllers.UpdateMe(users, cfg))
		auth.PATCH("/users/:id", authRequired, adminOnly, controllers.AdminUpdateUser(users))
	}

	tasks := r.Group("/tasks")
	tasks.Use(authRequired)
	{
		tasks.GET("/me", controllers.GetMyTasks())
		tasks.GET("/:id", controllers.GetTask())
		tasks.PATCH("/:id/status", controllers.UpdateTaskStatus())
		tasks.POST("/:id/attachments", controllers.UploadTaskAttachment(cfg, fileValidator))

		tasks.POST("", adminOnly, controllers.CreateTask(users))
		tasks.GET("", adminOnly, controllers.GetTasks())
		tasks.PATCH("/:id", adminOnly, controllers.UpdateTask(users))
		tasks.DELETE("/:id", adminOnly, controllers.DeleteTask(cfg))
	}

	attendance := r.Group("/attendance")
	attendance.Use(authRequired)
	{
		attendance.POST("", controllers.MarkAttendance())
		attendance.GET("/me", controllers.GetMyAttendance())
		attendance.GET("", adminOnly, controllers.GetAllAttendance())
	}

	zlog.Infow("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatalw("server stopped", "error", err)
	}
}
