package database

import (
	"context"
	"database/sql"
	"fmt"
)

const notificationTypeDigest = "digest"

// PostgresNotificationRepository writes the dashboard notifications users see in-app.
type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) WriteInAppRecord(ctx context.Context, recipientID int64, title, message, link string) error {
	query := `INSERT INTO notifications (user_id, type, title, message, link)
               VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.ExecContext(ctx, query, recipientID, notificationTypeDigest, title, message, link); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %d", ErrRecipientNotFound, recipientID)
		}
		return fmt.Errorf("error writing in-app notification: %w", err)
	}
	return nil
}
