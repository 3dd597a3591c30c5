package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/directory"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
)

// ProviderDirectory is the slice of the primary identity provider the
// resolver needs: its own user directory, keyed by email.
type ProviderDirectory interface {
	GetByEmail(ctx context.Context, email string) (model.PrimaryAccount, error)
}

// Resolver searches the identity classes for a presented username.
//
// The search order is fixed and is the documented tie-break for
// cross-class username collisions; reordering it is a protocol change:
//
//  1. learner by admission number
//  2. learner by birth certificate number
//  3. teacher by TSC number
//  4. teacher by employee number
//  5. staff by employee number
//  6. provider account by email
type Resolver struct {
	learners directory.LearnerRepo
	teachers directory.TeacherRepo
	staff    directory.StaffRepo
	provider ProviderDirectory
}

// NewResolver creates a resolver over the directory repos and the
// provider directory.
func NewResolver(learners directory.LearnerRepo, teachers directory.TeacherRepo, staff directory.StaffRepo, providerDir ProviderDirectory) *Resolver {
	return &Resolver{
		learners: learners,
		teachers: teachers,
		staff:    staff,
		provider: providerDir,
	}
}

// resolveStep tries one identity class. A miss returns
// ErrIdentityNotFound; any other error aborts the search.
type resolveStep func(ctx context.Context, username string) (model.Identity, error)

func (r *Resolver) steps() []resolveStep {
	return []resolveStep{
		r.learnerByAdmission,
		r.learnerByBirthCert,
		r.teacherByTSC,
		r.teacherByEmployeeNo,
		r.staffByEmployeeNo,
		r.providerByEmail,
	}
}

// Resolve returns the first class that structurally matches the
// username, in priority order.
func (r *Resolver) Resolve(ctx context.Context, username string) (model.Identity, error) {
	for _, step := range r.steps() {
		identity, err := step(ctx, username)
		if err == nil {
			return identity, nil
		}
		if errors.Is(err, ErrIdentityNotFound) {
			continue
		}
		return model.Identity{}, err
	}
	return model.Identity{}, ErrIdentityNotFound
}

func (r *Resolver) learnerByAdmission(ctx context.Context, username string) (model.Identity, error) {
	learner, err := r.learners.GetByAdmissionNumber(ctx, username)
	if err != nil {
		return model.Identity{}, mapDirectoryErr(err)
	}
	return model.Identity{Role: model.RoleLearner, Learner: &learner}, nil
}

func (r *Resolver) learnerByBirthCert(ctx context.Context, username string) (model.Identity, error) {
	learner, err := r.learners.GetByBirthCertNumber(ctx, username)
	if err != nil {
		return model.Identity{}, mapDirectoryErr(err)
	}
	return model.Identity{Role: model.RoleLearner, Learner: &learner}, nil
}

func (r *Resolver) teacherByTSC(ctx context.Context, username string) (model.Identity, error) {
	teacher, err := r.teachers.GetByTSCNumber(ctx, username)
	if err != nil {
		return model.Identity{}, mapDirectoryErr(err)
	}
	return model.Identity{Role: model.RoleTeacher, Teacher: &teacher}, nil
}

func (r *Resolver) teacherByEmployeeNo(ctx context.Context, username string) (model.Identity, error) {
	teacher, err := r.teachers.GetByEmployeeNumber(ctx, username)
	if err != nil {
		return model.Identity{}, mapDirectoryErr(err)
	}
	return model.Identity{Role: model.RoleTeacher, Teacher: &teacher}, nil
}

func (r *Resolver) staffByEmployeeNo(ctx context.Context, username string) (model.Identity, error) {
	staff, err := r.staff.GetByEmployeeNumber(ctx, username)
	if err != nil {
		return model.Identity{}, mapDirectoryErr(err)
	}
	return model.Identity{Role: model.RoleStaff, Staff: &staff}, nil
}

func (r *Resolver) providerByEmail(ctx context.Context, username string) (model.Identity, error) {
	account, err := r.provider.GetByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return model.Identity{}, ErrIdentityNotFound
		}
		if errors.Is(err, provider.ErrUnavailable) {
			return model.Identity{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return model.Identity{}, err
	}
	return model.Identity{Role: model.RoleAdmin, Primary: &account}, nil
}

func mapDirectoryErr(err error) error {
	if errors.Is(err, directory.ErrNotFound) {
		return ErrIdentityNotFound
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
