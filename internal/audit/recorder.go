// Package audit appends login events to the activity log. Recording is
// a required side effect of every successful login, any role.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// Recorder appends login events.
type Recorder interface {
	RecordLogin(ctx context.Context, role model.Role, principal string) error
}

type pgRecorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over the activity-log table.
func NewRecorder(db *sql.DB) Recorder {
	return &pgRecorder{db: db}
}

func (r *pgRecorder) RecordLogin(ctx context.Context, role model.Role, principal string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_events (role, principal)
		VALUES ($1, $2)
	`, string(role), principal)
	if err != nil {
		return fmt.Errorf("record login event: %w", err)
	}
	return nil
}
