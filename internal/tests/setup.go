package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

const (
	// MigrationDir is the path to migrations relative to the module root.
	MigrationDir = "internal/db/migrations"
	// MigrationDirFromInternalTests is used when go test ./... runs tests from internal/tests.
	MigrationDirFromInternalTests = "../../internal/db/migrations"
)

// ResolveMigrationDir returns the first existing migration directory,
// so tests work from the module root or from internal/tests.
func ResolveMigrationDir() string {
	for _, dir := range []string{MigrationDir, MigrationDirFromInternalTests} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}
	return ""
}

// RunMigrations runs goose Up using the resolved migration directory.
func RunMigrations(db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	dir := ResolveMigrationDir()
	if dir == "" {
		return fmt.Errorf("migrations directory not found (tried %q, %q)", MigrationDir, MigrationDirFromInternalTests)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// TruncateDirectoryTables truncates directory and audit tables for a clean test state.
func TruncateDirectoryTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "TRUNCATE TABLE login_events, guardians, learners, teachers, staff RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("truncate directory tables: %w", err)
	}
	return nil
}

// SeedLearner inserts a learner with a guardian contact and returns the learner ID.
func SeedLearner(ctx context.Context, db *sql.DB, admissionNo, birthCertNo, fullName, guardianPhone, guardianEmail string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO learners (admission_number, birth_cert_number, full_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, admissionNo, birthCertNo, fullName).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed learner: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO guardians (learner_id, full_name, phone_number, email)
		VALUES ($1, $2, $3, $4)
	`, id, "Guardian of "+fullName, guardianPhone, guardianEmail)
	if err != nil {
		return "", fmt.Errorf("seed guardian: %w", err)
	}
	return id, nil
}

// SeedTeacher inserts a teacher and returns its ID.
func SeedTeacher(ctx context.Context, db *sql.DB, employeeNo, tscNo, nationalID, fullName, phoneNumber, email string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO teachers (employee_number, tsc_number, national_id, full_name, phone_number, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, employeeNo, tscNo, nationalID, fullName, phoneNumber, email).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed teacher: %w", err)
	}
	return id, nil
}

// SeedStaff inserts a staff member and returns its ID.
func SeedStaff(ctx context.Context, db *sql.DB, employeeNo, nationalID, fullName, phoneNumber, email string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO staff (employee_number, national_id, full_name, phone_number, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, employeeNo, nationalID, fullName, phoneNumber, email).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed staff: %w", err)
	}
	return id, nil
}
