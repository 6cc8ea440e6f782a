package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/config"
	"github.com/docbot-ai/docbot/internal/httpapi/handlers"
	"github.com/docbot-ai/docbot/internal/httpapi/middleware"
	"github.com/docbot-ai/docbot/internal/models"
	"github.com/docbot-ai/docbot/internal/store/redisstore"
)

func NewRouter(h *handlers.Handler, cfg config.Config, rds *redisstore.Store, log *zap.Logger) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if rds != nil {
		r.Use(middleware.RateLimit(rds, cfg.RateLimitPerMinute, log))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", h.Health)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/verify-email", h.VerifyEmail)
	authGroup.GET("/me", middleware.AuthRequired(h.Auth), middleware.RequireActive(), h.Me)
	authGroup.POST("/refresh", middleware.AuthRequired(h.Auth), middleware.RequireActive(), h.Refresh)
	authGroup.POST("/logout", middleware.AuthRequired(h.Auth), h.Logout)

	usersGroup := r.Group("/users",
		middleware.AuthRequired(h.Auth),
		middleware.RequireActive(),
		middleware.RequireVerified(),
	)
	usersGroup.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleModerator), h.ListUsers)
	usersGroup.GET("/count", middleware.RequireRoles(models.RoleAdmin, models.RoleModerator), h.CountUsers)
	usersGroup.GET("/:id", h.GetUser)
	usersGroup.PUT("/:id", h.UpdateUser)
	usersGroup.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.DeleteUser)

	chatGroup := r.Group("/chat", middleware.AuthRequired(h.Auth))
	chatGroup.POST("/sessions", h.CreateSession)
	chatGroup.GET("/sessions", h.ListSessions)
	chatGroup.GET("/sessions/:session_id", h.GetSession)
	chatGroup.PUT("/sessions/:session_id", h.UpdateSession)
	chatGroup.DELETE("/sessions/:session_id", h.DeleteSession)
	chatGroup.POST("/generate", h.Generate)
	chatGroup.POST("/stream", h.GenerateStream)

	r.POST("/ingest", middleware.AuthRequired(h.Auth), h.Ingest)

	return r
}
