package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkmahmud/meditech-backend/internal/core/domain"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// AuditHandler exposes compliance queries over the audit trail.
type AuditHandler struct {
	audit *usecase.AuditRecorder
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *usecase.AuditRecorder) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// RegisterRoutes binds audit query routes. Callers are expected to guard the
// group with authentication and role checks.
func (h *AuditHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id", h.listByPatient)
	r.GET("/users/:id", h.listByActor)
}

// ListByPatient godoc
// @Summary PHI access history for a patient
// @Description Returns audit entries that touched the patient's protected health information, newest first.
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} AuditListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/audit/patients/{id} [get]
func (h *AuditHandler) listByPatient(c *gin.Context) {
	entries, err := h.audit.ListByPatient(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to query audit trail"))
		return
	}

	c.JSON(http.StatusOK, newAuditListResponse(entries))
}

// ListByActor godoc
// @Summary Action history for a user
// @Description Returns all audit entries recorded for the acting user, newest first.
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param limit query int false "Maximum entries to return"
// @Success 200 {object} AuditListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/audit/users/{id} [get]
func (h *AuditHandler) listByActor(c *gin.Context) {
	entries, err := h.audit.ListByActor(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to query audit trail"))
		return
	}

	c.JSON(http.StatusOK, newAuditListResponse(entries))
}

func newAuditListResponse(entries []domain.AuditEntry) AuditListResponse {
	payloads := make([]AuditEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newAuditEntryPayload(entry))
	}
	return AuditListResponse{Entries: payloads, Count: len(payloads)}
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
