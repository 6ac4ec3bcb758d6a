package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// patientScopedResources name the route resources whose reads and writes
// touch protected health information.
var patientScopedResources = map[string]bool{
	"patients":      true,
	"records":       true,
	"appointments":  true,
	"prescriptions": true,
}

// Audit records one audit entry per authenticated request after the handler
// runs. Authentication endpoints are skipped; their handlers record login
// and logout explicitly.
func Audit(recorder *usecase.AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		resourceType, resourceID := parseResource(c)
		if resourceType == "" || resourceType == "auth" {
			return
		}

		action, ok := actionForMethod(c.Request.Method)
		if !ok {
			return
		}

		var actorID *string
		if id, authed := GetAuthenticatedUserID(c); authed {
			actorID = &id
		}

		phi := patientScopedResources[resourceType]
		var patientID *string
		if phi && resourceID != nil {
			patientID = resourceID
		}

		status := c.Writer.Status()
		success := status < http.StatusBadRequest
		var errorText *string
		if !success {
			msg := http.StatusText(status)
			if len(c.Errors) > 0 {
				msg = c.Errors.String()
			}
			errorText = &msg
		}

		// The flag follows the resource, not the outcome: a failed request
		// against a PHI endpoint is still a PHI access attempt.
		recorder.Record(domain.AuditEntry{
			ActorID:      actorID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			PHIAccessed:  phi,
			PatientID:    patientID,
			IPAddress:    c.ClientIP(),
			Endpoint:     c.Request.URL.Path,
			HTTPMethod:   c.Request.Method,
			Success:      success,
			ErrorText:    errorText,
		})
	}
}

func actionForMethod(method string) (domain.AuditAction, bool) {
	switch method {
	case http.MethodGet:
		return domain.AuditActionRead, true
	case http.MethodPost:
		return domain.AuditActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate, true
	case http.MethodDelete:
		return domain.AuditActionDelete, true
	default:
		return "", false
	}
}

// parseResource extracts the resource type and id from an /api/v1 path:
// /api/v1/patients/123/record yields ("patients", "123").
func parseResource(c *gin.Context) (string, *string) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/api/v1")
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", nil
	}

	resourceType := segments[0]
	if len(segments) > 1 && segments[1] != "" {
		id := segments[1]
		return resourceType, &id
	}
	return resourceType, nil
}
