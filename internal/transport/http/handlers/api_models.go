package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary describes a minimal view of a credential returned by the API.
type AccountSummary struct {
	ID                    string               `json:"id"`
	Email                 string               `json:"email"`
	Role                  domain.Role          `json:"role"`
	Status                domain.AccountStatus `json:"status"`
	PatientProfileID      *string              `json:"patient_profile_id,omitempty"`
	PractitionerProfileID *string              `json:"practitioner_profile_id,omitempty"`
}

// AuthLoginRequest defines the payload for the login endpoint.
type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthLoginResponse describes the response returned for a successful login.
type AuthLoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	User         AccountSummary `json:"user"`
}

// TokenRefreshRequest represents the payload to refresh an access token.
type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenRefreshResponse contains tokens issued by the refresh endpoint.
type TokenRefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegistrationRequest defines the account registration payload.
type RegistrationRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Specialty string `json:"specialty"`
}

// RegistrationResponse contains registration results.
type RegistrationResponse struct {
	User    AccountSummary `json:"user"`
	Message string         `json:"message,omitempty"`
}

// AuditEntryPayload is the API view of an audit entry.
type AuditEntryPayload struct {
	ID           string    `json:"id"`
	ActorID      *string   `json:"actor_id,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   *string   `json:"resource_id,omitempty"`
	PHIAccessed  bool      `json:"phi_accessed"`
	PatientID    *string   `json:"patient_id,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Endpoint     string    `json:"endpoint,omitempty"`
	HTTPMethod   string    `json:"http_method,omitempty"`
	OldValues    *string   `json:"old_values,omitempty"`
	NewValues    *string   `json:"new_values,omitempty"`
	Success      bool      `json:"success"`
	ErrorText    *string   `json:"error_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditListResponse wraps a page of audit entries.
type AuditListResponse struct {
	Entries []AuditEntryPayload `json:"entries"`
	Count   int                 `json:"count"`
}

// PatientRecordResponse returns a patient's demographic record.
type PatientRecordResponse struct {
	PatientID    string         `json:"patient_id"`
	Demographics map[string]any `json:"demographics"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PatientRecordUpdateRequest replaces a patient's demographic record.
type PatientRecordUpdateRequest struct {
	Demographics map[string]any `json:"demographics" binding:"required"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

func newAccountSummary(p domain.Principal) AccountSummary {
	return AccountSummary{
		ID:                    p.CredentialID,
		Email:                 p.Email,
		Role:                  p.Role,
		Status:                domain.AccountStatusActive,
		PatientProfileID:      p.PatientProfileID,
		PractitionerProfileID: p.PractitionerProfileID,
	}
}

func newAuditEntryPayload(e domain.AuditEntry) AuditEntryPayload {
	return AuditEntryPayload{
		ID:           e.ID,
		ActorID:      e.ActorID,
		Action:       string(e.Action),
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		PHIAccessed:  e.PHIAccessed,
		PatientID:    e.PatientID,
		IPAddress:    e.IPAddress,
		Endpoint:     e.Endpoint,
		HTTPMethod:   e.HTTPMethod,
		OldValues:    e.OldValues,
		NewValues:    e.NewValues,
		Success:      e.Success,
		ErrorText:    e.ErrorText,
		CreatedAt:    e.CreatedAt,
	}
}
