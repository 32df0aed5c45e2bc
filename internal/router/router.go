package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hyperfocus/backend/internal/handler"
	"hyperfocus/backend/internal/middleware"
	"hyperfocus/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	planHandler *handler.PlanHandler,
	focusHandler *handler.FocusHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	plans := api.Group("/plans")
	plans.Use(middleware.Auth(authService))
	plans.POST("", planHandler.CreatePlan)
	plans.GET("", planHandler.ListPlans)
	plans.DELETE("/:id", planHandler.DeletePlan)

	categories := api.Group("/categories")
	categories.Use(middleware.Auth(authService))
	categories.POST("", planHandler.CreateCategory)
	categories.GET("", planHandler.ListCategories)
	categories.DELETE("/:id", planHandler.DeleteCategory)

	focus := api.Group("/focus")
	focus.Use(middleware.Auth(authService))
	focus.GET("/state", focusHandler.GetState)
	focus.GET("/events", focusHandler.Events)
	focus.GET("/archives", focusHandler.ListArchives)
	focus.POST("/start", focusHandler.Start)
	focus.POST("/begin", focusHandler.Begin)
	focus.POST("/pause", focusHandler.Pause)
	focus.POST("/resume", focusHandler.Resume)
	focus.POST("/end", focusHandler.End)
	focus.POST("/sessions/:id/complete", focusHandler.Complete)
	focus.DELETE("/sessions/:index", focusHandler.DeleteSession)
	focus.PUT("/sessions/:index/duration", focusHandler.AdjustDuration)

	return engine
}
