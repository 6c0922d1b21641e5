package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kapsul/config"
	"kapsul/handler"
	"kapsul/logger"
	"kapsul/middleware"
	"kapsul/repository"
	"kapsul/services"
	"kapsul/usecase"
	"kapsul/utils"
)

func init() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		fmt.Fprintln(os.Stderr, "warning: no .env file loaded")
	}

	logger.Init(
		utils.GetEnvAsString("LOG_LEVEL", "info"),
		utils.GetEnvAsBool("LOG_PRETTY", false),
	)

	requiredEnvVars := []string{
		"MONGO_URI",
		"JWT_SECRET_KEY",
	}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			logger.L.Fatal("required environment variable not set",
				logger.String("var", envVar))
		}
	}

	utils.InitValidator()
	utils.InitJWT()

	dbCfg := config.LoadDatabaseConfig()
	utils.InitMongoClient(dbCfg.URI, dbCfg.MaxPoolSize, dbCfg.MinPoolSize,
		dbCfg.MaxConnIdleTime, dbCfg.RetryWrites)
}

func setupRouter() *gin.Engine {
	router := gin.New()

	itemsRepo := repository.GetItemsRepo(utils.MongoClient)
	usersRepo := repository.GetUsersRepo(utils.MongoClient)
	sessionRepo := repository.GetSessionRepo(utils.MongoClient)

	if err := repository.SetupIndexes(utils.MongoClient.Database(utils.DatabaseName())); err != nil {
		logger.L.Warn("index setup failed", logger.Error(err))
	}

	redisCfg := config.LoadRedisConfig()
	blacklist, err := services.NewTokenBlacklist(redisCfg.URL)
	if err != nil {
		logger.L.Warn("token blacklist unavailable", logger.Error(err))
	} else {
		services.TokenBlacklist = blacklist
	}

	var resolver *services.YouTubeResolver
	if blacklist != nil {
		resolver = services.NewYouTubeResolver(
			os.Getenv("YOUTUBE_API_KEY"), blacklist.Client, redisCfg.MetadataCacheTTL)
	} else {
		resolver = services.NewYouTubeResolver(
			os.Getenv("YOUTUBE_API_KEY"), nil, redisCfg.MetadataCacheTTL)
	}

	itemsService := &usecase.ItemsService{ItemsRepo: itemsRepo}
	userService := &usecase.UserService{UsersRepo: usersRepo}

	itemsHandler := handler.NewItemsHandler(itemsService, itemsRepo, resolver)
	authHandler := handler.NewAuthHandler(userService, sessionRepo)
	twoFactorHandler := handler.NewTwoFactorHandler(userService)
	sessionHandler := handler.NewSessionHandler(sessionRepo)
	statsHandler := handler.NewStatsHandler(itemsService, sessionRepo)

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestSizeLimiter(int64(utils.GetEnvAsInt("MAX_REQUEST_BODY_BYTES", 4<<20))))
	router.Use(middleware.SessionMiddleware(sessionRepo))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		user := protected.Group("/user")
		{
			user.GET("/profile", authHandler.GetProfile)
			user.POST("/logout", authHandler.Logout)
			user.DELETE("/delete", authHandler.DeleteAccount)
		}

		twoFactor := protected.Group("/2fa")
		{
			twoFactor.POST("/generate", twoFactorHandler.GenerateSecret)
			twoFactor.POST("/enable", twoFactorHandler.Enable)
			twoFactor.POST("/disable", twoFactorHandler.Disable)
			twoFactor.POST("/recovery", twoFactorHandler.UseRecoveryCode)
		}

		sessions := protected.Group("/sessions")
		{
			sessions.GET("/active", sessionHandler.GetActiveSessions)
			sessions.DELETE("/:id", sessionHandler.EndSession)
			sessions.POST("/logout-all", sessionHandler.LogoutAllSessions)
		}

		items := protected.Group("/items")
		{
			items.GET("", itemsHandler.GetLibrary)
			items.POST("", itemsHandler.CaptureItem)
			items.GET("/stream", itemsHandler.Stream)
			items.GET("/export", itemsHandler.Export)
			items.GET("/tags", itemsHandler.GetTags)
			items.GET("/suggestions", itemsHandler.GetSuggestions)
			items.POST("/bulk/delete", itemsHandler.BulkDelete)
			items.POST("/bulk/status", itemsHandler.BulkSetStatus)

			items.GET("/:id", itemsHandler.GetItem)
			items.PUT("/:id", itemsHandler.UpdateItem)
			items.DELETE("/:id", itemsHandler.DeleteItem)
			items.POST("/:id/pin", itemsHandler.TogglePin)
			items.POST("/:id/complete", itemsHandler.SetCompleted)
			items.POST("/:id/tags", itemsHandler.AddTag)
			items.DELETE("/:id/tags/:tag", itemsHandler.RemoveTag)
		}

		protected.GET("/stats", statsHandler.GetUserStats)
	}

	return router
}

func main() {
	defer logger.Sync()

	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := fmt.Sprintf(":%s", port)
	logger.L.Info("server starting", logger.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.L.Fatal("server failed", logger.Error(err))
	}
}
