package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

const (
	notificationColumns = `n.id, n.user_id, n.title, n.message, n.type, n.is_read, n.created_at`
	messageColumns      = `m.id, m.sender_id, m.receiver_id, m.class_id, m.title, m.content, m.is_read, m.created_at`
)

// NotificationRepository handles notifications and messages.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns visible notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Notification, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(notificationColumns, models.EntityNotification, pred, "n.created_at DESC", filter.PageSize, filter.Offset())

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead flags the notification as read when it is inside pred. It returns
// sql.ErrNoRows when nothing matched.
func (r *NotificationRepository) MarkRead(ctx context.Context, pred Predicate, id string) error {
	if pred.Empty() {
		return ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := "UPDATE notifications n SET is_read = TRUE WHERE n.id = $1 AND " + cond
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListMessages returns visible messages, newest first.
func (r *NotificationRepository) ListMessages(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Message, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(messageColumns, models.EntityMessage, pred, "m.created_at DESC", filter.PageSize, filter.Offset())

	var items []models.Message
	if err := r.db.SelectContext(ctx, &items, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return items, total, nil
}

// CreateMessage inserts a message.
func (r *NotificationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, sender_id, receiver_id, class_id, title, content, is_read, created_at) VALUES (:id, :sender_id, :receiver_id, :class_id, :title, :content, :is_read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}
