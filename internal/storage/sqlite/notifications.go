package sqlite

import (
	"context"
	"fmt"

	"taskflow/internal/errs"
	"taskflow/internal/models"
)

// CreateNotification inserts a notification row for a team member.
func (q *queries) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO notifications(user_id, sender_id, type, title, message, data)
        VALUES(?, ?, ?, ?, ?, ?)`, n.UserID, n.SenderID, n.Type, n.Title, n.Message, n.Data)
	if err != nil {
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	err = q.db.QueryRowContext(ctx, `SELECT id, user_id, sender_id, type, title, message, data, read, created_at
        FROM notifications WHERE id = ?`, id).
		Scan(&n.ID, &n.UserID, &n.SenderID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt)
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a member's notifications, unread first then
// newest first, capped at limit.
func (q *queries) ListNotifications(ctx context.Context, teamMemberID int64, limit int) ([]models.Notification, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, user_id, sender_id, type, title, message, data, read, created_at
        FROM notifications WHERE user_id = ? ORDER BY read ASC, created_at DESC, id DESC LIMIT ?`, teamMemberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.SenderID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnreadNotifications counts a member's unread notifications.
func (q *queries) CountUnreadNotifications(ctx context.Context, teamMemberID int64) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, teamMemberID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one of the member's notifications as read.
// The recipient filter keeps members from touching other people's rows.
func (q *queries) MarkNotificationRead(ctx context.Context, id, teamMemberID int64) error {
	res, err := q.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, teamMemberID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("notification")
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of a member read.
func (q *queries) MarkAllNotificationsRead(ctx context.Context, teamMemberID int64) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, teamMemberID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}
