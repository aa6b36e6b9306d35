package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"taskflow/internal/errs"
	"taskflow/internal/models"
)

const taskColumns = `id, column_id, title, description, status, priority, assignee_id,
    estimated_time, actual_time, due_date, started_at, completed_at, timer_active, tags, creator_id,
    created_at, updated_at`

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(row taskScanner) (models.Task, error) {
	var t models.Task
	var rawTags string
	err := row.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.AssigneeID,
		&t.EstimatedTime, &t.ActualTime, &t.DueDate, &t.StartedAt, &t.CompletedAt, &t.TimerActive,
		&rawTags, &t.CreatorID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, errs.NotFoundf("task")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	if err := json.Unmarshal([]byte(rawTags), &t.Tags); err != nil {
		return models.Task{}, fmt.Errorf("decode tags: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task.
func (q *queries) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, errs.Validationf("task title must not be empty")
	}

	tags, err := encodeTags(t.Tags)
	if err != nil {
		return models.Task{}, err
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO tasks(column_id, title, description, status, priority,
        assignee_id, estimated_time, actual_time, due_date, started_at, completed_at, timer_active, tags, creator_id)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ColumnID, strings.TrimSpace(t.Title), t.Description, t.Status, t.Priority,
		t.AssigneeID, t.EstimatedTime, t.ActualTime, t.DueDate, t.StartedAt, t.CompletedAt, t.TimerActive, tags, t.CreatorID)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return q.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (q *queries) GetTask(ctx context.Context, id int64) (models.Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// UpdateTask overwrites every mutable task field with the given snapshot.
// Field merging happens in the task service; the store writes the whole row
// in one statement so a single update stays atomic.
func (q *queries) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return models.Task{}, err
	}

	res, err := q.db.ExecContext(ctx, `UPDATE tasks SET column_id = ?, title = ?, description = ?, status = ?,
        priority = ?, assignee_id = ?, estimated_time = ?, actual_time = ?, due_date = ?, started_at = ?,
        completed_at = ?, timer_active = ?, tags = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.ColumnID, t.Title, t.Description, t.Status, t.Priority, t.AssigneeID, t.EstimatedTime,
		t.ActualTime, t.DueDate, t.StartedAt, t.CompletedAt, t.TimerActive, tags, t.ID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, errs.NotFoundf("task")
	}
	return q.GetTask(ctx, t.ID)
}

// DeleteTask removes a task; comments and attachments cascade.
func (q *queries) DeleteTask(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("task")
	}
	return nil
}

// ListTasksByColumn returns a column's tasks in creation order.
func (q *queries) ListTasksByColumn(ctx context.Context, columnID int64) ([]models.Task, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE column_id = ? ORDER BY id`, columnID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateComment appends a comment to a task.
func (q *queries) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO comments(task_id, author_id, text) VALUES(?, ?, ?)`,
		c.TaskID, c.AuthorID, c.Text)
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Comment{}, fmt.Errorf("comment id: %w", err)
	}
	err = q.db.QueryRowContext(ctx, `SELECT id, task_id, author_id, text, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt)
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

// ListComments returns a task's comments oldest first.
func (q *queries) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, task_id, author_id, text, created_at
        FROM comments WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateAttachment appends attachment metadata to a task.
func (q *queries) CreateAttachment(ctx context.Context, a models.Attachment) (models.Attachment, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO attachments(task_id, name, type, url, size) VALUES(?, ?, ?, ?, ?)`,
		a.TaskID, a.Name, a.Type, a.URL, a.Size)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("insert attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("attachment id: %w", err)
	}
	err = q.db.QueryRowContext(ctx, `SELECT id, task_id, name, type, url, size, created_at FROM attachments WHERE id = ?`, id).
		Scan(&a.ID, &a.TaskID, &a.Name, &a.Type, &a.URL, &a.Size, &a.CreatedAt)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

// ListAttachments returns a task's attachments oldest first.
func (q *queries) ListAttachments(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, task_id, name, type, url, size, created_at
        FROM attachments WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Name, &a.Type, &a.URL, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
