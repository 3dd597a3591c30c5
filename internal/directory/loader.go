package directory

import (
	"context"
	"fmt"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// Loader re-fetches the directory record behind a role + owner ID
// pair. Session validation uses it to confirm the owner still exists.
type Loader struct {
	learners LearnerRepo
	teachers TeacherRepo
	staff    StaffRepo
}

// NewLoader creates a Loader over the three directory repos.
func NewLoader(learners LearnerRepo, teachers TeacherRepo, staff StaffRepo) *Loader {
	return &Loader{learners: learners, teachers: teachers, staff: staff}
}

// LoadByID fetches the current record for the owner and wraps it in
// the identity union. Admin principals live with the provider and are
// not loadable here.
func (l *Loader) LoadByID(ctx context.Context, role model.Role, ownerID string) (model.Identity, error) {
	switch role {
	case model.RoleLearner:
		learner, err := l.learners.GetByID(ctx, ownerID)
		if err != nil {
			return model.Identity{}, err
		}
		return model.Identity{Role: model.RoleLearner, Learner: &learner}, nil
	case model.RoleTeacher:
		teacher, err := l.teachers.GetByID(ctx, ownerID)
		if err != nil {
			return model.Identity{}, err
		}
		return model.Identity{Role: model.RoleTeacher, Teacher: &teacher}, nil
	case model.RoleStaff:
		staff, err := l.staff.GetByID(ctx, ownerID)
		if err != nil {
			return model.Identity{}, err
		}
		return model.Identity{Role: model.RoleStaff, Staff: &staff}, nil
	}
	return model.Identity{}, fmt.Errorf("%w: no directory records for role %q", ErrNotFound, role)
}
