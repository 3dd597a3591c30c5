package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// LearnerRepo defines the lookup operations for learner records
type LearnerRepo interface {
	GetByAdmissionNumber(ctx context.Context, admissionNumber string) (model.Learner, error)
	GetByBirthCertNumber(ctx context.Context, birthCertNumber string) (model.Learner, error)
	GetByID(ctx context.Context, id string) (model.Learner, error)
}

type learnerRepo struct {
	db *sql.DB
}

// NewLearnerRepo creates a new LearnerRepo instance
func NewLearnerRepo(db *sql.DB) LearnerRepo {
	return &learnerRepo{db: db}
}

// learnerSelect joins the learner's guardian for the contact channel.
// The newest guardian record wins when a learner has several.
const learnerSelect = `
	SELECT l.id, l.admission_number, l.birth_cert_number, l.full_name, l.created_at,
	       COALESCE(g.phone_number, ''), COALESCE(g.email, '')
	FROM learners l
	LEFT JOIN LATERAL (
		SELECT phone_number, email
		FROM guardians
		WHERE learner_id = l.id
		ORDER BY created_at DESC
		LIMIT 1
	) g ON true
`

func (r *learnerRepo) GetByAdmissionNumber(ctx context.Context, admissionNumber string) (model.Learner, error) {
	return r.queryOne(ctx, learnerSelect+` WHERE l.admission_number = $1`, admissionNumber)
}

func (r *learnerRepo) GetByBirthCertNumber(ctx context.Context, birthCertNumber string) (model.Learner, error) {
	return r.queryOne(ctx, learnerSelect+` WHERE l.birth_cert_number = $1`, birthCertNumber)
}

func (r *learnerRepo) GetByID(ctx context.Context, id string) (model.Learner, error) {
	return r.queryOne(ctx, learnerSelect+` WHERE l.id = $1`, id)
}

func (r *learnerRepo) queryOne(ctx context.Context, query string, arg string) (model.Learner, error) {
	var learner model.Learner
	var idStr string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&idStr,
		&learner.AdmissionNumber,
		&learner.BirthCertNumber,
		&learner.FullName,
		&learner.CreatedAt,
		&learner.GuardianContact.Phone,
		&learner.GuardianContact.Email,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Learner{}, ErrNotFound
		}
		return model.Learner{}, fmt.Errorf("failed to query learner: %w", err)
	}
	learner.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Learner{}, fmt.Errorf("failed to parse learner ID: %w", err)
	}
	return learner, nil
}
