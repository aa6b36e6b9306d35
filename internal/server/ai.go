package server

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/task"
)

type generateTaskRequest struct {
	Description string `json:"description"`
	ColumnID    *int64 `json:"column_id"`
}

// handleGenerateTask produces a task from a free-text description. The
// suggestion source degrades to the local generator internally, so the only
// failures surfaced here come from validation or task creation itself.
func (s *Server) handleGenerateTask(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}

	var req generateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}
	if utf8.RuneCountInString(req.Description) < 10 {
		s.respondError(c, errs.Validationf("description must contain at least 10 characters"))
		return
	}
	if req.ColumnID == nil {
		s.respondError(c, errs.Validationf("column_id is required"))
		return
	}

	payload, err := s.svc.Suggester.Generate(c.Request.Context(), req.Description)
	if err != nil {
		// The fallback source never fails; a bare remote source might.
		s.respondError(c, err)
		return
	}

	priority := models.Priority(payload.Priority)
	if _, ok := models.ValidPriorities[priority]; !ok {
		priority = models.PriorityMedium
	}

	created, err := s.svc.Tasks.Create(c.Request.Context(), task.CreateInput{
		ColumnID:      *req.ColumnID,
		Title:         payload.Title,
		Description:   payload.Description,
		Priority:      priority,
		EstimatedTime: int64(payload.EstimatedTime),
		Tags:          payload.Tags,
		CreatorID:     actor,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}
