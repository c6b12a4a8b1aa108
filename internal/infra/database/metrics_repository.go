package database

import (
	"context"
	"database/sql"
	"fmt"

	"troubadour_scheduler/internal/domain/digest"
	"troubadour_scheduler/internal/domain/retention"
)

// activeWindowDays is how recently a user must have signed in to count as active.
const activeWindowDays = 30

type PostgresMetricsRepository struct {
	db *sql.DB
}

func NewPostgresMetricsRepository(db *sql.DB) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{db: db}
}

func (r *PostgresMetricsRepository) RecipientMetrics(ctx context.Context, recipientID int64, lookbackDays int) (digest.MetricsSnapshot, error) {
	query := `SELECT
                 (SELECT COUNT(*) FROM reviews rv JOIN tracks t ON t.id = rv.track_id
                   WHERE t.user_id = $1 AND rv.created_at >= NOW() - $2 * INTERVAL '1 day'),
                 (SELECT COALESCE(AVG(rv.overall_score), 0) FROM reviews rv JOIN tracks t ON t.id = rv.track_id
                   WHERE t.user_id = $1 AND rv.created_at >= NOW() - $2 * INTERVAL '1 day'),
                 (SELECT COUNT(*) FROM projects p
                   WHERE p.user_id = $1 AND p.created_at >= NOW() - $2 * INTERVAL '1 day'),
                 (SELECT t.genre FROM tracks t
                   WHERE t.user_id = $1 AND t.genre IS NOT NULL AND t.created_at >= NOW() - $2 * INTERVAL '1 day'
                   GROUP BY t.genre ORDER BY COUNT(*) DESC, t.genre LIMIT 1),
                 COALESCE((SELECT s.current_streak FROM user_streaks s WHERE s.user_id = $1), 0)`

	m := digest.MetricsSnapshot{LookbackDays: lookbackDays}
	var genre sql.NullString
	err := r.db.QueryRowContext(ctx, query, recipientID, lookbackDays).
		Scan(&m.ReviewsReceived, &m.AverageScore, &m.NewProjects, &genre, &m.StreakDays)
	if err != nil {
		return digest.MetricsSnapshot{}, fmt.Errorf("error computing metrics for recipient %d: %w", recipientID, err)
	}
	m.TopGenre = genre.String
	return m, nil
}

// GlobalRetention reports the share of users active within activeWindowDays.
// An empty user base counts as fully retained.
func (r *PostgresMetricsRepository) GlobalRetention(ctx context.Context) (retention.Metrics, error) {
	query := `SELECT
                 COUNT(*),
                 COUNT(*) FILTER (WHERE last_signed_in >= NOW() - $1 * INTERVAL '1 day'),
                 COALESCE(AVG(EXTRACT(EPOCH FROM (NOW() - last_signed_in)) / 86400), 0)
               FROM users`

	var m retention.Metrics
	err := r.db.QueryRowContext(ctx, query, activeWindowDays).Scan(&m.TotalUsers, &m.ActiveUsers, &m.AvgDaysSinceLogin)
	if err != nil {
		return retention.Metrics{}, fmt.Errorf("error computing retention metrics: %w", err)
	}
	m.InactiveUsers = m.TotalUsers - m.ActiveUsers
	m.RetentionRate = 100
	if m.TotalUsers > 0 {
		m.RetentionRate = float64(m.ActiveUsers) / float64(m.TotalUsers) * 100
	}
	return m, nil
}
