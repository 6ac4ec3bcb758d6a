package domain

import "time"

// AccountStatus enumerates possible credential states.
type AccountStatus string

const (
	AccountStatusActive              AccountStatus = "ACTIVE"
	AccountStatusInactive            AccountStatus = "INACTIVE"
	AccountStatusSuspended           AccountStatus = "SUSPENDED"
	AccountStatusPendingVerification AccountStatus = "PENDING_VERIFICATION"
)

// Role is the closed set of account roles.
type Role string

const (
	RolePatient       Role = "PATIENT"
	RoleDoctor        Role = "DOCTOR"
	RoleNurse         Role = "NURSE"
	RoleReceptionist  Role = "RECEPTIONIST"
	RolePharmacist    Role = "PHARMACIST"
	RoleLabTechnician Role = "LAB_TECHNICIAN"
	RoleAdmin         Role = "ADMIN"
	RoleSuperAdmin    Role = "SUPER_ADMIN"
)

// Valid reports whether the role belongs to the known set.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleNurse, RoleReceptionist,
		RolePharmacist, RoleLabTechnician, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Credential mirrors the persisted representation in the credentials table.
// Rows are never deleted; accounts are soft-retired via Status.
type Credential struct {
	ID                  string
	Email               string
	PasswordHash        string
	Role                Role
	Status              AccountStatus
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
}

// Locked reports whether the lockout window is still open at the given instant.
func (c Credential) Locked(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// Principal is the authenticated identity returned to callers after login.
type Principal struct {
	CredentialID          string
	Email                 string
	Role                  Role
	PatientProfileID      *string
	PractitionerProfileID *string
}
