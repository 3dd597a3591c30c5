package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// StaffRepo defines the lookup operations for support-staff records
type StaffRepo interface {
	GetByEmployeeNumber(ctx context.Context, employeeNumber string) (model.Staff, error)
	GetByID(ctx context.Context, id string) (model.Staff, error)
}

type staffRepo struct {
	db *sql.DB
}

// NewStaffRepo creates a new StaffRepo instance
func NewStaffRepo(db *sql.DB) StaffRepo {
	return &staffRepo{db: db}
}

const staffSelect = `
	SELECT id, employee_number, national_id, full_name,
	       phone_number, email, created_at
	FROM staff
`

func (r *staffRepo) GetByEmployeeNumber(ctx context.Context, employeeNumber string) (model.Staff, error) {
	return r.queryOne(ctx, staffSelect+` WHERE employee_number = $1`, employeeNumber)
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (model.Staff, error) {
	return r.queryOne(ctx, staffSelect+` WHERE id = $1`, id)
}

func (r *staffRepo) queryOne(ctx context.Context, query string, arg string) (model.Staff, error) {
	var staff model.Staff
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&staff.EmployeeNumber,
		&staff.NationalID,
		&staff.FullName,
		&staff.Contact.Phone,
		&staff.Contact.Email,
		&staff.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Staff{}, ErrNotFound
		}
		return model.Staff{}, fmt.Errorf("failed to query staff: %w", err)
	}
	staff.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Staff{}, fmt.Errorf("failed to parse staff ID: %w", err)
	}
	return staff, nil
}
