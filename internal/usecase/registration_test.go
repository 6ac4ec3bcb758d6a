package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

func TestRegisterPatient(t *testing.T) {
	creds := newTestCredentialRepo()
	events := &testEventPublisher{}
	svc := NewRegistrationService(creds, events, nil, nil)

	cred, err := svc.Register(context.Background(), RegistrationInput{
		Email:     "  Jane.Doe@Example.com ",
		Password:  "Sup3r$ecretPass!",
		Role:      domain.RolePatient,
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if cred.Email != "jane.doe@example.com" {
		t.Fatalf("expected normalized email, got %q", cred.Email)
	}
	if cred.Status != domain.AccountStatusPendingVerification {
		t.Fatalf("expected pending status, got %q", cred.Status)
	}
	if cred.PasswordHash != "" {
		t.Fatal("password hash must not leave the service")
	}
	if len(events.registered) != 1 {
		t.Fatalf("expected one registered event, got %d", len(events.registered))
	}

	stored, err := creds.GetByEmail(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("stored credential missing: %v", err)
	}
	if stored.PasswordHash == "" {
		t.Fatal("expected stored password hash")
	}
}

func TestRegisterDoctorProvisionsPractitionerStub(t *testing.T) {
	creds := newTestCredentialRepo()
	svc := NewRegistrationService(creds, nil, nil, nil)

	cred, err := svc.Register(context.Background(), RegistrationInput{
		Email:     "doc@example.com",
		Password:  "Secure1!@",
		Role:      domain.RoleDoctor,
		FirstName: "Gregory",
		LastName:  "House",
		Specialty: "Diagnostics",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if cred.Status != domain.AccountStatusPendingVerification {
		t.Fatalf("expected pending status, got %q", cred.Status)
	}
	if creds.createdPatient != nil {
		t.Fatal("doctor registration must not provision a patient profile")
	}
	if creds.createdPractitioner == nil {
		t.Fatal("expected a practitioner profile stub")
	}
	if creds.createdPractitioner.CredentialID != cred.ID {
		t.Fatal("practitioner stub must link back to the credential")
	}
	if creds.createdPractitioner.Specialty != "Diagnostics" {
		t.Fatalf("unexpected specialty %q", creds.createdPractitioner.Specialty)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	creds := newTestCredentialRepo()
	svc := NewRegistrationService(creds, nil, nil, nil)

	input := RegistrationInput{
		Email:    "dup@example.com",
		Password: "Sup3r$ecretPass!",
		Role:     domain.RoleNurse,
	}

	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := NewRegistrationService(newTestCredentialRepo(), nil, nil, nil)

	for _, password := range []string{"short1!", "alllowercaseonly", "password123"} {
		_, err := svc.Register(context.Background(), RegistrationInput{
			Email:    "weak@example.com",
			Password: password,
			Role:     domain.RolePatient,
		})
		if !errors.Is(err, ErrPasswordPolicyViolation) {
			t.Fatalf("password %q: expected ErrPasswordPolicyViolation, got %v", password, err)
		}
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewRegistrationService(newTestCredentialRepo(), nil, nil, nil)

	_, err := svc.Register(context.Background(), RegistrationInput{
		Email:    "role@example.com",
		Password: "Sup3r$ecretPass!",
		Role:     domain.Role("WIZARD"),
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestActivatePendingAccount(t *testing.T) {
	creds := newTestCredentialRepo()
	svc := NewRegistrationService(creds, nil, nil, nil)

	cred, err := svc.Register(context.Background(), RegistrationInput{
		Email:    "pending@example.com",
		Password: "Sup3r$ecretPass!",
		Role:     domain.RolePatient,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Activate(context.Background(), cred.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	stored, err := creds.GetByID(context.Background(), cred.ID)
	if err != nil {
		t.Fatalf("lookup credential: %v", err)
	}
	if stored.Status != domain.AccountStatusActive {
		t.Fatalf("expected ACTIVE status, got %s", stored.Status)
	}

	if err := svc.Activate(context.Background(), cred.ID); !errors.Is(err, ErrAccountNotPending) {
		t.Fatalf("expected ErrAccountNotPending on second activation, got %v", err)
	}
}

func TestActivateUnknownAccount(t *testing.T) {
	svc := NewRegistrationService(newTestCredentialRepo(), nil, nil, nil)

	if err := svc.Activate(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
