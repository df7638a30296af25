// Package routing wires the HTTP routes of the server to their handlers.
package routing

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"whisperbox/internal/config"
	"whisperbox/internal/handlers"
	"whisperbox/internal/managers"
	"whisperbox/internal/middleware"
	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

// InitRouter sets up the gin engine with the common middleware and all routes.
func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr,
	suggestionMgr managers.SuggestionMgr, cfg *config.Config) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router)
	// Setup routes
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, suggestionMgr, cfg)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept, Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
	})
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	jwtMgr managers.JWTMgr, suggestionMgr managers.SuggestionMgr, cfg *config.Config) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("API_VERSION")
		if apiVersion == "" {
			apiVersion = "main:latest"
		}

		metadata := &schemas.MetadataDTO{
			ApiVersion: apiVersion,
			ApiName:    "WhisperBox",
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the database
		if err := databaseMgr.GetPool().Ping(c); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	// Set up API routes
	apiRouter := router.Group("/api")
	{
		userHdl := handlers.NewUserHandler(&databaseMgr, &jwtMgr, &mailMgr, cfg)
		messageHdl := handlers.NewMessageHandler(&databaseMgr, &jwtMgr)
		suggestionHdl := handlers.NewSuggestionHandler(&suggestionMgr)

		// Public account routes
		apiRouter.POST("/sign-up", middleware.ValidateAndSanitizeStruct(&schemas.SignUpRequest{}), userHdl.SignUp)
		apiRouter.POST("/verify-code", middleware.ValidateAndSanitizeStruct(&schemas.VerifyCodeRequest{}), userHdl.VerifyCode)
		apiRouter.GET("/check-username-unique", userHdl.CheckUsernameUnique)
		apiRouter.POST("/sign-in", middleware.ValidateAndSanitizeStruct(&schemas.SignInRequest{}), userHdl.SignIn)
		apiRouter.POST("/refresh-token", middleware.ValidateAndSanitizeStruct(&schemas.RefreshTokenRequest{}), userHdl.RefreshToken)

		// Anonymous visitor routes
		apiRouter.POST("/send-message", middleware.ValidateAndSanitizeStruct(&schemas.SendMessageRequest{}), messageHdl.SendMessage)
		apiRouter.POST("/suggest-messages", suggestionHdl.SuggestMessages)

		// The following routes require the user to be authenticated
		authRouter := apiRouter.Group("")
		authRouter.Use(jwtMgr.JWTMiddleware())
		authRouter.GET("/accept-messages", userHdl.GetAcceptMessages)
		authRouter.POST("/accept-messages", middleware.ValidateAndSanitizeStruct(&schemas.AcceptMessagesRequest{}), userHdl.SetAcceptMessages)
		authRouter.GET("/get-messages", messageHdl.GetMessages)
		authRouter.DELETE("/delete-message/:messageId", messageHdl.DeleteMessage)
	}
}
