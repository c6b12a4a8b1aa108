package database

import (
	"context"
	"database/sql"
	"fmt"

	"troubadour_scheduler/internal/domain/digest"
)

type PostgresRecipientRepository struct {
	db *sql.DB
}

func NewPostgresRecipientRepository(db *sql.DB) *PostgresRecipientRepository {
	return &PostgresRecipientRepository{db: db}
}

// ListEligible returns every user with an email address, including those who
// disabled digests; cadence filtering happens in the run.
func (r *PostgresRecipientRepository) ListEligible(ctx context.Context) ([]digest.Recipient, error) {
	query := `SELECT id, name, email, digest_frequency
               FROM users
               WHERE email IS NOT NULL AND email <> ''
               ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing digest recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]digest.Recipient, 0)
	for rows.Next() {
		var (
			rec       digest.Recipient
			name      sql.NullString
			frequency sql.NullString
		)
		if err := rows.Scan(&rec.ID, &name, &rec.Email, &frequency); err != nil {
			return nil, fmt.Errorf("error scanning digest recipient: %w", err)
		}
		rec.Name = name.String
		rec.Cadence = digest.ParseCadence(frequency.String)
		recipients = append(recipients, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating digest recipients: %w", err)
	}
	return recipients, nil
}
