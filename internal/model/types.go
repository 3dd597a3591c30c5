package model

import (
	"time"

	"github.com/google/uuid"
)

// Role tags the identity class a principal was resolved from.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTeacher Role = "teacher"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Contact holds the out-of-band delivery addresses for a principal.
// Either field may be empty; channel selection handles the gaps.
type Contact struct {
	Phone string
	Email string
}

// Learner is a pupil record in the directory store. The guardian's
// contact is the delivery target for learner-bound messages.
type Learner struct {
	ID              uuid.UUID
	AdmissionNumber string
	BirthCertNumber string
	FullName        string
	GuardianContact Contact
	CreatedAt       time.Time
}

// Teacher is a teaching-staff record in the directory store.
type Teacher struct {
	ID             uuid.UUID
	EmployeeNumber string
	TSCNumber      string
	NationalID     string
	FullName       string
	Contact        Contact
	CreatedAt      time.Time
}

// Staff is a non-teaching-staff record in the directory store.
type Staff struct {
	ID             uuid.UUID
	EmployeeNumber string
	NationalID     string
	FullName       string
	Contact        Contact
	CreatedAt      time.Time
}

// PrimaryAccount is a principal owned by the external identity
// provider. Only the id, email and role tag are visible here.
type PrimaryAccount struct {
	ID    string
	Email string
	Role  Role
}

// Identity is the tagged union over the four identity classes. Exactly
// one of the pointer fields is set, matching Role.
type Identity struct {
	Role    Role
	Learner *Learner
	Teacher *Teacher
	Staff   *Staff
	Primary *PrimaryAccount
}

// OwnerID returns the stable ID of the underlying record.
func (id Identity) OwnerID() string {
	switch id.Role {
	case RoleLearner:
		return id.Learner.ID.String()
	case RoleTeacher:
		return id.Teacher.ID.String()
	case RoleStaff:
		return id.Staff.ID.String()
	}
	// Provider principals may carry role tags of the provider's own
	// choosing; fall back on the set union member.
	if id.Primary != nil {
		return id.Primary.ID
	}
	return ""
}

// DisplayName returns the principal name recorded in login events.
func (id Identity) DisplayName() string {
	switch id.Role {
	case RoleLearner:
		return id.Learner.FullName
	case RoleTeacher:
		return id.Teacher.FullName
	case RoleStaff:
		return id.Staff.FullName
	}
	if id.Primary != nil {
		return id.Primary.Email
	}
	return ""
}

// Contact returns the delivery addresses for the identity. For a
// learner this is the guardian's contact.
func (id Identity) Contact() Contact {
	switch id.Role {
	case RoleLearner:
		return id.Learner.GuardianContact
	case RoleTeacher:
		return id.Teacher.Contact
	case RoleStaff:
		return id.Staff.Contact
	}
	if id.Primary != nil {
		return Contact{Email: id.Primary.Email}
	}
	return Contact{}
}

// Session is a self-issued bearer session. Valid while a record exists
// for Token and now < ExpiresAt; there is no sliding renewal.
type Session struct {
	Token     string
	OwnerID   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// OTPChallenge is one step-up challenge. Only the code hash is stored;
// the plaintext code exists just long enough to be dispatched.
type OTPChallenge struct {
	ID                uuid.UUID
	OwnerID           string
	Role              Role
	CodeHash          []byte
	CreatedAt         time.Time
	ExpiresAt         time.Time
	ChannelsAttempted []string
	ChannelsSucceeded []string
	Attempts          int
	Consumed          bool
}

// LoginEvent is the activity-log entry appended on every successful
// login.
type LoginEvent struct {
	ID         uuid.UUID
	Role       Role
	Principal  string
	OccurredAt time.Time
}
