package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

func TestProfileRepository_FindProfileIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT id FROM meditech\.patient_profiles`).
		WithArgs("cred-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("patient-1"))
	mock.ExpectQuery(`SELECT id FROM meditech\.practitioner_profiles`).
		WithArgs("cred-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	patientID, practitionerID, err := repo.FindProfileIDs(context.Background(), "cred-1")
	if err != nil {
		t.Fatalf("FindProfileIDs returned error: %v", err)
	}
	if patientID == nil || *patientID != "patient-1" {
		t.Fatalf("expected patient profile id, got %v", patientID)
	}
	if practitionerID != nil {
		t.Fatalf("expected nil practitioner profile id, got %v", *practitionerID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProfileRepository_GetPatientRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)
	updatedAt := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"patient_id", "demographics", "updated_at"}).
		AddRow("patient-1", []byte(`{"phone":"6134:abcd","city":"Springfield"}`), updatedAt)

	mock.ExpectQuery(`SELECT .*FROM meditech\.patient_records`).
		WithArgs("patient-1").
		WillReturnRows(rows)

	record, err := repo.GetPatientRecord(context.Background(), "patient-1")
	if err != nil {
		t.Fatalf("GetPatientRecord returned error: %v", err)
	}
	if record.PatientID != "patient-1" {
		t.Fatalf("unexpected patient id %s", record.PatientID)
	}
	if record.Demographics["city"] != "Springfield" {
		t.Fatalf("unexpected demographics %+v", record.Demographics)
	}
}

func TestProfileRepository_GetPatientRecordNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM meditech\.patient_records`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"patient_id", "demographics", "updated_at"}))

	if _, err := repo.GetPatientRecord(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepository_UpsertPatientRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewProfileRepository(mock)
	record := domain.PatientRecord{
		PatientID:    "patient-1",
		Demographics: map[string]any{"city": "Springfield"},
		UpdatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO meditech\.patient_records`).
		WithArgs(record.PatientID, []byte(`{"city":"Springfield"}`), record.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.UpsertPatientRecord(context.Background(), record); err != nil {
		t.Fatalf("UpsertPatientRecord returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
