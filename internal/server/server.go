// Package server is the HTTP transport over the services. It resolves the
// actor identity from the X-Clerk-User-Id header and maps the error kinds to
// status codes in one place.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskflow/internal/errs"
	"taskflow/internal/notify"
	"taskflow/internal/project"
	"taskflow/internal/report"
	"taskflow/internal/suggest"
	"taskflow/internal/task"
	"taskflow/internal/user"
)

// identityHeader carries the external actor identity. A missing header is an
// unauthenticated failure, never an implicit observer.
const identityHeader = "X-Clerk-User-Id"

// Services bundles the application services the transport exposes.
type Services struct {
	Users         *user.Service
	Projects      *project.Service
	Tasks         *task.Service
	Notifications *notify.Service
	Reports       *report.Service
	Suggester     suggest.Source
}

// Server provides the HTTP handlers for the board backend.
type Server struct {
	engine  *gin.Engine
	svc     Services
	logger  *slog.Logger
	dataDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc Services, logger *slog.Logger, dataDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:  router,
		svc:     svc,
		logger:  logger,
		dataDir: dataDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		users := api.Group("/users")
		{
			users.POST("", s.handleCreateOrUpdateUser)
			users.GET("/clerk/:clerkUserId", s.handleGetUser)
			users.PUT("/:clerkUserId/profile", s.handleUpdateProfile)
		}

		projects := api.Group("/projects")
		{
			projects.GET("/user/:clerkUserId", s.handleUserProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET("/:id", s.handleGetProject)
			projects.POST("/:id/invite", s.handleInviteUsers)
			projects.POST("/invitation/:token", s.handleAcceptInvitation)
			projects.GET("/:id/stats", s.handleProjectStats)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", s.handleCreateTask)
			tasks.PUT("/:id", s.handleUpdateTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
			tasks.POST("/move", s.handleMoveTask)
			tasks.POST("/:id/toggle-timer", s.handleToggleTimer)
			tasks.POST("/:id/comments", s.handleAddComment)
			tasks.POST("/:id/attachments", s.handleAddAttachment)
		}

		api.POST("/ai/generate-task", s.handleGenerateTask)

		notifications := api.Group("/notifications")
		{
			notifications.GET("", s.handleListNotifications)
			notifications.POST("/:id/read", s.handleMarkNotificationRead)
			notifications.POST("/read-all", s.handleMarkAllNotificationsRead)
		}
	}

	s.mountAttachments()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// identity extracts the actor identity and fails the request when absent.
func (s *Server) identity(c *gin.Context) (string, bool) {
	id := c.GetHeader(identityHeader)
	if id == "" {
		s.respondError(c, errs.ErrUnauthenticated)
		return "", false
	}
	return id, true
}

// parseID converts a path parameter to int64 with error handling.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(c, errs.Validationf("invalid identifier %q", raw))
		return 0, false
	}
	return id, true
}

// httpStatus maps an error kind to its status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
