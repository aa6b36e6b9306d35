// Package task owns the task lifecycle: creation, partial updates, column
// moves with status derivation, timer-based time tracking, and the
// append-only comment/attachment children.
package task

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/permission"
	"taskflow/internal/storage/sqlite"
)

// MaxAttachmentSize caps uploaded attachment files at 10 MiB.
const MaxAttachmentSize = 10 << 20

// Service is the task lifecycle engine.
type Service struct {
	store         *sqlite.Store
	perm          *permission.Evaluator
	logger        *slog.Logger
	statusByTitle map[string]models.Status
	now           func() time.Time
}

// NewService constructs the engine. The column-title to status mapping
// defaults to models.StatusByColumnTitle.
func NewService(store *sqlite.Store, perm *permission.Evaluator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:         store,
		perm:          perm,
		logger:        logger,
		statusByTitle: models.StatusByColumnTitle,
		now:           time.Now,
	}
}

// WithStatusMapping overrides the column-title to status mapping. Keys are
// matched case-insensitively against column titles.
func (s *Service) WithStatusMapping(m map[string]models.Status) *Service {
	s.statusByTitle = m
	return s
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInput carries the fields accepted at task creation.
type CreateInput struct {
	ColumnID      int64
	Title         string
	Description   string
	Status        models.Status
	Priority      models.Priority
	AssigneeID    *int64
	EstimatedTime int64
	DueDate       *time.Time
	Tags          []string
	CreatorID     string
}

// Create makes a new task in the given column. The creator must hold at
// least the member role on the owning project; observers are rejected. The
// timer starts running at creation.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, errs.Validationf("title is required")
	}
	if in.CreatorID == "" {
		return models.Task{}, errs.Validationf("creator_id is required")
	}

	column, err := s.store.GetColumn(ctx, in.ColumnID)
	if err != nil {
		return models.Task{}, err
	}

	member, err := s.store.GetTeamMemberByClerkID(ctx, in.CreatorID)
	if err != nil {
		return models.Task{}, err
	}
	membership, err := s.store.GetMembership(ctx, column.ProjectID, member.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.Task{}, errs.Deniedf("not a member of this project")
		}
		return models.Task{}, err
	}
	if membership.Role == models.RoleObserver {
		return models.Task{}, errs.Deniedf("observers cannot create tasks")
	}

	status := in.Status
	if status == "" {
		status = models.StatusTodo
	} else if _, ok := models.ValidStatuses[status]; !ok {
		return models.Task{}, errs.Validationf("unknown status %q", status)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	} else if _, ok := models.ValidPriorities[priority]; !ok {
		return models.Task{}, errs.Validationf("unknown priority %q", priority)
	}
	if in.EstimatedTime < 0 {
		return models.Task{}, errs.Validationf("estimated_time must not be negative")
	}
	if in.AssigneeID != nil {
		if _, err := s.store.GetTeamMemberByID(ctx, *in.AssigneeID); err != nil {
			return models.Task{}, err
		}
	}

	startedAt := s.now()
	return s.store.CreateTask(ctx, models.Task{
		ColumnID:      in.ColumnID,
		Title:         in.Title,
		Description:   in.Description,
		Status:        status,
		Priority:      priority,
		AssigneeID:    in.AssigneeID,
		EstimatedTime: in.EstimatedTime,
		ActualTime:    0,
		DueDate:       in.DueDate,
		StartedAt:     &startedAt,
		TimerActive:   true,
		Tags:          in.Tags,
		CreatorID:     in.CreatorID,
	})
}

// UpdateInput carries the optional fields of a partial update. Nil fields
// keep their current values. Timer state and actual_time are deliberately
// absent: actual_time only grows through timer stops.
type UpdateInput struct {
	Title         *string
	Description   *string
	Status        *models.Status
	Priority      *models.Priority
	AssigneeID    *int64
	EstimatedTime *int64
	DueDate       *time.Time
	CompletedAt   *time.Time
	Tags          []string
}

// Update applies a partial update after per-task authorization.
func (s *Service) Update(ctx context.Context, taskID int64, in UpdateInput, actorID string) (models.Task, error) {
	t, err := s.authorize(ctx, taskID, actorID)
	if err != nil {
		return models.Task{}, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return models.Task{}, errs.Validationf("title must not be empty")
		}
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		if _, ok := models.ValidStatuses[*in.Status]; !ok {
			return models.Task{}, errs.Validationf("unknown status %q", *in.Status)
		}
		t.Status = *in.Status
	}
	if in.Priority != nil {
		if _, ok := models.ValidPriorities[*in.Priority]; !ok {
			return models.Task{}, errs.Validationf("unknown priority %q", *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if in.AssigneeID != nil {
		if _, err := s.store.GetTeamMemberByID(ctx, *in.AssigneeID); err != nil {
			return models.Task{}, err
		}
		t.AssigneeID = in.AssigneeID
	}
	if in.EstimatedTime != nil {
		if *in.EstimatedTime < 0 {
			return models.Task{}, errs.Validationf("estimated_time must not be negative")
		}
		t.EstimatedTime = *in.EstimatedTime
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.CompletedAt != nil {
		t.CompletedAt = in.CompletedAt
	}
	if in.Tags != nil {
		t.Tags = in.Tags
	}

	return s.store.UpdateTask(ctx, t)
}

// Move reassigns a task to the target column and derives its status from the
// target column's title. A mismatched source column means the client acted
// on a stale board and the move is rejected as a conflict. Titles outside
// the mapping leave the status untouched.
func (s *Service) Move(ctx context.Context, taskID, sourceColumnID, targetColumnID int64, actorID string) (models.Task, error) {
	t, err := s.authorize(ctx, taskID, actorID)
	if err != nil {
		return models.Task{}, err
	}

	if t.ColumnID != sourceColumnID {
		return models.Task{}, errs.Conflictf("task does not belong to the source column")
	}

	target, err := s.store.GetColumn(ctx, targetColumnID)
	if err != nil {
		return models.Task{}, err
	}

	t.ColumnID = target.ID
	if status, ok := s.statusByTitle[strings.ToLower(target.Title)]; ok {
		t.Status = status
	}

	return s.store.UpdateTask(ctx, t)
}

// ToggleTimer stops a running timer, folding the floored elapsed minutes
// into actual_time, or restarts a stopped one. Sub-minute intervals
// contribute zero; actual_time never decreases.
func (s *Service) ToggleTimer(ctx context.Context, taskID int64, actorID string) (models.Task, error) {
	t, err := s.authorize(ctx, taskID, actorID)
	if err != nil {
		return models.Task{}, err
	}

	if t.TimerActive {
		if t.StartedAt != nil {
			elapsed := int64(s.now().Sub(*t.StartedAt) / time.Minute)
			if elapsed > 0 {
				t.ActualTime += elapsed
			}
		}
		t.TimerActive = false
	} else {
		startedAt := s.now()
		t.StartedAt = &startedAt
		t.TimerActive = true
	}

	return s.store.UpdateTask(ctx, t)
}

// Delete removes a task and its comments and attachments.
func (s *Service) Delete(ctx context.Context, taskID int64, actorID string) error {
	if _, err := s.authorize(ctx, taskID, actorID); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, taskID)
}

// AddComment appends a comment to a task.
func (s *Service) AddComment(ctx context.Context, taskID, authorID int64, text, actorID string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, errs.Validationf("text is required")
	}
	if _, err := s.authorize(ctx, taskID, actorID); err != nil {
		return models.Comment{}, err
	}
	if _, err := s.store.GetTeamMemberByID(ctx, authorID); err != nil {
		return models.Comment{}, err
	}
	return s.store.CreateComment(ctx, models.Comment{TaskID: taskID, AuthorID: authorID, Text: text})
}

// AttachmentInput carries uploaded attachment metadata. The file bytes are
// written by the transport layer; the engine records metadata only.
type AttachmentInput struct {
	Name string
	Type string
	URL  string
	Size int64
}

// AddAttachment appends attachment metadata to a task. Files over
// MaxAttachmentSize are rejected as a validation error.
func (s *Service) AddAttachment(ctx context.Context, taskID int64, in AttachmentInput, actorID string) (models.Attachment, error) {
	if in.Size > MaxAttachmentSize {
		return models.Attachment{}, errs.Validationf("attachment exceeds the %d byte limit", MaxAttachmentSize)
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Attachment{}, errs.Validationf("name is required")
	}
	if _, err := s.authorize(ctx, taskID, actorID); err != nil {
		return models.Attachment{}, err
	}
	return s.store.CreateAttachment(ctx, models.Attachment{
		TaskID: taskID,
		Name:   in.Name,
		Type:   in.Type,
		URL:    in.URL,
		Size:   in.Size,
	})
}

// authorize loads the task and checks the per-task rule: managers always
// pass, members only for tasks they created or are assigned to, observers
// never.
func (s *Service) authorize(ctx context.Context, taskID int64, actorID string) (models.Task, error) {
	if actorID == "" {
		return models.Task{}, errs.ErrUnauthenticated
	}

	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	column, err := s.store.GetColumn(ctx, t.ColumnID)
	if err != nil {
		return models.Task{}, err
	}

	allowed, err := s.perm.EvaluateTask(ctx, column.ProjectID, t, actorID)
	if err != nil {
		return models.Task{}, err
	}
	if !allowed {
		return models.Task{}, errs.Deniedf("not allowed to modify this task")
	}
	return t, nil
}
