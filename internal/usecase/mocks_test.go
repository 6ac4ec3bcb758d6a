package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/repository"
)

type testCredentialRepo struct {
	mu          sync.Mutex
	credentials map[string]domain.Credential

	failedAttempts map[string]int
	maxAttempts    int
	lockout        time.Duration
	resetCalls     int
	failErr        error

	createdPatient      *domain.PatientProfile
	createdPractitioner *domain.PractitionerProfile
}

func newTestCredentialRepo(creds ...domain.Credential) *testCredentialRepo {
	repo := &testCredentialRepo{
		credentials:    make(map[string]domain.Credential),
		failedAttempts: make(map[string]int),
	}
	for _, cred := range creds {
		repo.credentials[cred.ID] = cred
	}
	return repo
}

func (r *testCredentialRepo) CreateWithProfile(_ context.Context, cred domain.Credential, patient *domain.PatientProfile, practitioner *domain.PractitionerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.credentials {
		if existing.Email == cred.Email {
			return repository.ErrConflict
		}
	}
	r.credentials[cred.ID] = cred
	r.createdPatient = patient
	r.createdPractitioner = practitioner
	return nil
}

func (r *testCredentialRepo) GetByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cred := range r.credentials {
		if cred.Email == email {
			copy := cred
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testCredentialRepo) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cred, ok := r.credentials[id]; ok {
		copy := cred
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testCredentialRepo) RegisterFailedAttempt(_ context.Context, id string, maxAttempts int, lockout time.Duration) (int, *time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return 0, nil, r.failErr
	}
	r.maxAttempts = maxAttempts
	r.lockout = lockout
	r.failedAttempts[id]++
	attempts := r.failedAttempts[id]

	cred := r.credentials[id]
	cred.FailedLoginAttempts = attempts
	if attempts >= maxAttempts {
		until := time.Now().UTC().Add(lockout)
		cred.LockedUntil = &until
	}
	r.credentials[id] = cred
	return attempts, cred.LockedUntil, nil
}

func (r *testCredentialRepo) ResetLockout(_ context.Context, id string, lastLogin time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetCalls++
	cred := r.credentials[id]
	cred.FailedLoginAttempts = 0
	cred.LockedUntil = nil
	cred.LastLogin = &lastLogin
	r.credentials[id] = cred
	r.failedAttempts[id] = 0
	return nil
}

func (r *testCredentialRepo) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.credentials[id]
	if !ok {
		return repository.ErrNotFound
	}
	cred.Status = status
	r.credentials[id] = cred
	return nil
}

type testTokenRepo struct {
	mu      sync.Mutex
	byHash  map[string]domain.RefreshToken
	created int
	// forced errors
	createErr error
	rotateErr error
}

func newTestTokenRepo() *testTokenRepo {
	return &testTokenRepo{byHash: make(map[string]domain.RefreshToken)}
}

func (r *testTokenRepo) Create(_ context.Context, token domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.byHash[token.TokenHash] = token
	r.created++
	return nil
}

func (r *testTokenRepo) GetByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.byHash[hash]; ok {
		copy := token
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testTokenRepo) Rotate(_ context.Context, oldHash string, successor domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rotateErr != nil {
		return r.rotateErr
	}
	old, ok := r.byHash[oldHash]
	if !ok || old.RevokedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	old.RevokedAt = &now
	old.ReplacedBy = &successor.ID
	r.byHash[oldHash] = old
	r.byHash[successor.TokenHash] = successor
	return nil
}

func (r *testTokenRepo) RevokeAllForCredential(_ context.Context, credentialID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	revoked := 0
	for hash, token := range r.byHash {
		if token.CredentialID == credentialID && token.RevokedAt == nil {
			token.RevokedAt = &now
			r.byHash[hash] = token
			revoked++
		}
	}
	return revoked, nil
}

type testProfileRepo struct {
	patientID      *string
	practitionerID *string

	records   map[string]domain.PatientRecord
	upsertErr error
}

func (r *testProfileRepo) FindProfileIDs(context.Context, string) (*string, *string, error) {
	return r.patientID, r.practitionerID, nil
}

func (r *testProfileRepo) GetPatientRecord(_ context.Context, patientID string) (*domain.PatientRecord, error) {
	if record, ok := r.records[patientID]; ok {
		copy := record
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testProfileRepo) UpsertPatientRecord(_ context.Context, record domain.PatientRecord) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if r.records == nil {
		r.records = make(map[string]domain.PatientRecord)
	}
	r.records[record.PatientID] = record
	return nil
}

type testDenylist struct {
	mu     sync.Mutex
	marked map[string]time.Duration
	err    error
}

func newTestDenylist() *testDenylist {
	return &testDenylist{marked: make(map[string]time.Duration)}
}

func (d *testDenylist) Mark(_ context.Context, credentialID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.marked[credentialID] = ttl
	return nil
}

func (d *testDenylist) IsDenied(_ context.Context, credentialID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, denied := d.marked[credentialID]
	return denied, nil
}

type testEventPublisher struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	failed     []domain.LoginFailedEvent
	locked     []domain.AccountLockedEvent
	revoked    []domain.TokensRevokedEvent
}

func (p *testEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *testEventPublisher) PublishLoginFailed(_ context.Context, event domain.LoginFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, event)
	return nil
}

func (p *testEventPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, event)
	return nil
}

func (p *testEventPublisher) PublishTokensRevoked(_ context.Context, event domain.TokensRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return nil
}

type testAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	insErr  error
	deleted int64
	cutoff  time.Time
}

func (r *testAuditRepo) Insert(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insErr != nil {
		return r.insErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *testAuditRepo) ListByPatient(_ context.Context, patientID string, limit int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.PatientID != nil && *entry.PatientID == patientID && entry.PHIAccessed {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *testAuditRepo) ListByActor(_ context.Context, actorID string, limit int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.ActorID != nil && *entry.ActorID == actorID {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *testAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoff = cutoff
	return r.deleted, nil
}

func (r *testAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
