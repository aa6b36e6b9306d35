package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/task"
)

type taskRequest struct {
	ColumnID      *int64     `json:"column_id"`
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	AssigneeID    *int64     `json:"assignee_id"`
	EstimatedTime *int64     `json:"estimated_time"`
	DueDate       *time.Time `json:"due_date"`
	CompletedAt   *time.Time `json:"completed_at"`
	Tags          []string   `json:"tags"`
}

// handleCreateTask inserts a new task into a column. The actor identity is
// recorded as the task creator.
func (s *Server) handleCreateTask(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}
	if req.ColumnID == nil {
		s.respondError(c, errs.Validationf("column_id is required"))
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, errs.Validationf("title is required"))
		return
	}

	in := task.CreateInput{
		ColumnID:    *req.ColumnID,
		Title:       *req.Title,
		Description: getString(req.Description),
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		CreatorID:   actor,
	}
	if req.Status != nil {
		in.Status = models.Status(*req.Status)
	}
	if req.Priority != nil {
		in.Priority = models.Priority(*req.Priority)
	}
	if req.EstimatedTime != nil {
		in.EstimatedTime = *req.EstimatedTime
	}

	created, err := s.svc.Tasks.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": created})
}

// handleUpdateTask applies a partial update to a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	in := task.UpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		AssigneeID:    req.AssigneeID,
		EstimatedTime: req.EstimatedTime,
		DueDate:       req.DueDate,
		CompletedAt:   req.CompletedAt,
		Tags:          req.Tags,
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		in.Status = &status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		in.Priority = &priority
	}

	updated, err := s.svc.Tasks.Update(c.Request.Context(), id, in, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": updated})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Tasks.Delete(c.Request.Context(), id, actor); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

type moveTaskRequest struct {
	TaskID         *int64 `json:"task_id"`
	SourceColumnID *int64 `json:"source_column_id"`
	TargetColumnID *int64 `json:"target_column_id"`
}

// handleMoveTask moves a task between columns, deriving its status from the
// target column title.
func (s *Server) handleMoveTask(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}

	var req moveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}
	if req.TaskID == nil || req.SourceColumnID == nil || req.TargetColumnID == nil {
		s.respondError(c, errs.Validationf("task_id, source_column_id and target_column_id are required"))
		return
	}

	moved, err := s.svc.Tasks.Move(c.Request.Context(), *req.TaskID, *req.SourceColumnID, *req.TargetColumnID, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": moved})
}

// handleToggleTimer starts or stops a task's timer.
func (s *Server) handleToggleTimer(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	toggled, err := s.svc.Tasks.ToggleTimer(c.Request.Context(), id, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": toggled})
}

type commentRequest struct {
	AuthorID *int64 `json:"author_id"`
	Text     string `json:"text"`
}

// handleAddComment appends a comment to a task.
func (s *Server) handleAddComment(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}
	if req.AuthorID == nil {
		s.respondError(c, errs.Validationf("author_id is required"))
		return
	}

	comment, err := s.svc.Tasks.AddComment(c.Request.Context(), id, *req.AuthorID, req.Text, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"comment": comment})
}

// handleAddAttachment stores an uploaded file and records it on the task.
// Files over the 10 MiB cap are rejected before touching the disk.
func (s *Server) handleAddAttachment(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errs.Validationf("file is required: %v", err))
		return
	}
	if file.Size > task.MaxAttachmentSize {
		s.respondError(c, errs.Validationf("attachment exceeds the %d byte limit", int64(task.MaxAttachmentSize)))
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = file.Filename
	}

	stored := uuid.NewString() + "_" + filepath.Base(file.Filename)
	dest := filepath.Join(s.dataDir, "attachments", stored)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		s.respondError(c, err)
		return
	}

	attachment, err := s.svc.Tasks.AddAttachment(c.Request.Context(), id, task.AttachmentInput{
		Name: name,
		Type: file.Header.Get("Content-Type"),
		URL:  "/attachments/" + stored,
		Size: file.Size,
	}, actor)
	if err != nil {
		// The metadata write failed or was denied; drop the stored file.
		_ = os.Remove(dest)
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"attachment": attachment})
}

// mountAttachments serves stored attachment files from the data directory.
func (s *Server) mountAttachments() {
	if s.dataDir == "" {
		s.logger.Warn("data directory not configured; attachments disabled")
		return
	}
	dir := filepath.Join(s.dataDir, "attachments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("attachment directory unavailable", "path", dir, "error", err)
		return
	}
	s.engine.StaticFS("/attachments", gin.Dir(dir, false))
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
