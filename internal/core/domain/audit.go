package domain

import "time"

// AuditAction enumerates the recordable action kinds.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionRead   AuditAction = "READ"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
	AuditActionLogin  AuditAction = "LOGIN"
	AuditActionLogout AuditAction = "LOGOUT"
	AuditActionExport AuditAction = "EXPORT"
	AuditActionPrint  AuditAction = "PRINT"
)

// AuditEntry is an append-only record of a state-changing or PHI-reading
// operation. ActorID is nil for unauthenticated failures. Entries are never
// updated; only the retention sweep deletes them.
type AuditEntry struct {
	ID           string
	ActorID      *string
	Action       AuditAction
	ResourceType string
	ResourceID   *string
	PHIAccessed  bool
	PatientID    *string
	IPAddress    string
	Endpoint     string
	HTTPMethod   string
	OldValues    *string
	NewValues    *string
	Success      bool
	ErrorText    *string
	CreatedAt    time.Time
}
