package domain

import "time"

// PatientProfile is the role profile stub provisioned for PATIENT accounts.
type PatientProfile struct {
	ID           string
	CredentialID string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// PractitionerProfile is the role profile stub provisioned for DOCTOR accounts.
type PractitionerProfile struct {
	ID           string
	CredentialID string
	FirstName    string
	LastName     string
	Specialty    string
	CreatedAt    time.Time
}

// PatientRecord holds a patient's demographic document. Fields named in
// PHIFields are stored encrypted; the rest of the document is plaintext.
type PatientRecord struct {
	PatientID    string
	Demographics map[string]any
	UpdatedAt    time.Time
}

// PHIFields is the named subset of demographic fields encrypted at rest.
var PHIFields = []string{"phone", "date_of_birth", "medical_record_number", "ssn"}
