package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskhub/internal/config"
	"taskhub/internal/store/sqlite"
)

// Server provides HTTP handlers for the task tracker backend.
type Server struct {
	engine *gin.Engine
	store  *sqlite.Store
	logger *slog.Logger
	cfg    *config.Config
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, logger *slog.Logger, cfg *config.Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
		cfg:    cfg,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.GET("/profile", s.requireAuth(), s.handleProfile)
		}

		authed := api.Group("", s.requireAuth())
		{
			authed.GET("/users", s.handleListUsers)
			authed.GET("/users/:id", s.handleGetUser)

			tasks := authed.Group("/tasks")
			{
				tasks.GET("", s.handleListTasks)
				tasks.POST("", s.handleCreateTask)
				tasks.GET("/:id", s.handleGetTask)
				tasks.PUT("/:id", s.handleUpdateTask)
				tasks.PATCH("/:id/status", s.handleUpdateTaskStatus)
				tasks.DELETE("/:id", s.handleDeleteTask)
				tasks.GET("/:id/comments", s.handleListComments)
				tasks.POST("/:id/comments", s.handleCreateComment)
				tasks.GET("/:id/activities", s.handleListTaskActivities)
			}

			authed.PUT("/comments/:id", s.handleUpdateComment)
			authed.DELETE("/comments/:id", s.handleDeleteComment)

			authed.GET("/activities", s.handleListUserActivities)

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", s.handleListNotifications)
				notifications.PUT("/read-all", s.handleMarkAllNotificationsRead)
				notifications.PUT("/:id/read", s.handleMarkNotificationRead)
				notifications.DELETE("/:id", s.handleDeleteNotification)
			}

			analytics := authed.Group("/analytics")
			{
				analytics.GET("/status", s.handleAnalyticsStatus)
				analytics.GET("/priority", s.handleAnalyticsPriority)
				analytics.GET("/completion", s.handleAnalyticsCompletion)
				analytics.GET("/summary", s.handleAnalyticsSummary)
			}
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestID tags every request with an id for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid identifier")
		return 0, false
	}
	return id, true
}

// respondFail returns the error envelope shared by every endpoint.
func respondFail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// respondStoreError maps store sentinel errors onto HTTP statuses.
// Visibility failures surface as 404 so existence cannot be probed.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		respondFail(c, http.StatusNotFound, "not found or you do not have permission to access it")
	case errors.Is(err, sqlite.ErrInvalidReference):
		respondFail(c, http.StatusBadRequest, "invalid user ID for assigned_to")
	case errors.Is(err, sqlite.ErrDuplicateEmail):
		respondFail(c, http.StatusBadRequest, "this email is already registered, please use another one")
	default:
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString("request_id")),
			slog.String("error", err.Error()))
		respondFail(c, http.StatusInternalServerError, "internal server error")
	}
}

// parsePageLimit validates page/limit query params. Non-numeric input is
// rejected; out-of-range numeric input is clamped downstream.
func parsePageLimit(c *gin.Context) (page, limit int, ok bool) {
	page, limit = 1, sqlite.DefaultPageSize
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "page must be an integer")
			return 0, 0, false
		}
		page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "limit must be an integer")
			return 0, 0, false
		}
		limit = n
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = sqlite.DefaultPageSize
	}
	if limit > sqlite.MaxPageSize {
		limit = sqlite.MaxPageSize
	}
	return page, limit, true
}

// totalPages computes ceil(total/limit) for pagination envelopes.
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
