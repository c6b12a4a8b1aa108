package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const auditActor = "scheduler"

type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) WriteAuditEntry(ctx context.Context, action string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("error encoding audit details: %w", err)
	}

	query := `INSERT INTO audit_log (actor, action, details)
               VALUES ($1, $2, $3::jsonb)`
	if _, err := r.db.ExecContext(ctx, query, auditActor, action, string(payload)); err != nil {
		return fmt.Errorf("error writing audit entry %q: %w", action, err)
	}
	return nil
}
