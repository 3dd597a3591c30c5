package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// TeacherRepo defines the lookup operations for teacher records
type TeacherRepo interface {
	GetByTSCNumber(ctx context.Context, tscNumber string) (model.Teacher, error)
	GetByEmployeeNumber(ctx context.Context, employeeNumber string) (model.Teacher, error)
	GetByID(ctx context.Context, id string) (model.Teacher, error)
}

type teacherRepo struct {
	db *sql.DB
}

// NewTeacherRepo creates a new TeacherRepo instance
func NewTeacherRepo(db *sql.DB) TeacherRepo {
	return &teacherRepo{db: db}
}

const teacherSelect = `
	SELECT id, employee_number, tsc_number, national_id, full_name,
	       phone_number, email, created_at
	FROM teachers
`

func (r *teacherRepo) GetByTSCNumber(ctx context.Context, tscNumber string) (model.Teacher, error) {
	return r.queryOne(ctx, teacherSelect+` WHERE tsc_number = $1`, tscNumber)
}

func (r *teacherRepo) GetByEmployeeNumber(ctx context.Context, employeeNumber string) (model.Teacher, error) {
	return r.queryOne(ctx, teacherSelect+` WHERE employee_number = $1`, employeeNumber)
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (model.Teacher, error) {
	return r.queryOne(ctx, teacherSelect+` WHERE id = $1`, id)
}

func (r *teacherRepo) queryOne(ctx context.Context, query string, arg string) (model.Teacher, error) {
	var teacher model.Teacher
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&teacher.EmployeeNumber,
		&teacher.TSCNumber,
		&teacher.NationalID,
		&teacher.FullName,
		&teacher.Contact.Phone,
		&teacher.Contact.Email,
		&teacher.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Teacher{}, ErrNotFound
		}
		return model.Teacher{}, fmt.Errorf("failed to query teacher: %w", err)
	}
	teacher.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Teacher{}, fmt.Errorf("failed to parse teacher ID: %w", err)
	}
	return teacher, nil
}
