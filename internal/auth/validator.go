package auth

import (
	"crypto/subtle"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// Per-class verification rules. The directory-backed classes compare
// the presented secret against a second natural key on the record:
// learners pair admission and birth certificate numbers, teachers and
// staff pair employee/TSC numbers with the national ID. These are
// plain string secrets, not password hashes; the comparison is
// constant time but the scheme itself is only as strong as the
// secrecy of those numbers. Provider accounts are verified by the
// provider, never here.

type validateFunc func(identity model.Identity, secret string) error

func validateLearnerBirthCert(identity model.Identity, secret string) error {
	if !equal(secret, identity.Learner.BirthCertNumber) {
		return ErrInvalidCredentials
	}
	return nil
}

func validateLearnerAdmission(identity model.Identity, secret string) error {
	if !equal(secret, identity.Learner.AdmissionNumber) {
		return ErrInvalidCredentials
	}
	return nil
}

func validateTeacherNationalID(identity model.Identity, secret string) error {
	if !equal(secret, identity.Teacher.NationalID) {
		return ErrInvalidCredentials
	}
	return nil
}

func validateStaffNationalID(identity model.Identity, secret string) error {
	if !equal(secret, identity.Staff.NationalID) {
		return ErrInvalidCredentials
	}
	return nil
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
