package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkmahmud/meditech-backend/internal/transport/http/middleware"
	"github.com/mkmahmud/meditech-backend/internal/usecase"
)

// PatientRecordHandler exposes the encrypted demographic record endpoints.
type PatientRecordHandler struct {
	records *usecase.PatientRecordService
}

// NewPatientRecordHandler constructs PatientRecordHandler.
func NewPatientRecordHandler(records *usecase.PatientRecordService) *PatientRecordHandler {
	return &PatientRecordHandler{records: records}
}

// RegisterRoutes binds patient record routes.
func (h *PatientRecordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/:id/record", h.get)
	r.PUT("/:id/record", h.update)
}

// Get godoc
// @Summary Fetch a patient's demographic record
// @Description Returns the decrypted demographic record for the patient.
// @Tags Patients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Success 200 {object} PatientRecordResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/patients/{id}/record [get]
func (h *PatientRecordHandler) get(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedUserID(c)

	record, err := h.records.Get(c.Request.Context(), actorID, c.Param("id"), requestMeta(c))
	if err != nil {
		if errors.Is(err, usecase.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "patient record not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load patient record"))
		return
	}

	c.JSON(http.StatusOK, PatientRecordResponse{
		PatientID:    record.PatientID,
		Demographics: record.Demographics,
		UpdatedAt:    record.UpdatedAt,
	})
}

// Update godoc
// @Summary Replace a patient's demographic record
// @Description Stores the demographic document with PHI fields encrypted at rest.
// @Tags Patients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Patient ID"
// @Param request body PatientRecordUpdateRequest true "Demographic document"
// @Success 200 {object} PatientRecordResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/patients/{id}/record [put]
func (h *PatientRecordHandler) update(c *gin.Context) {
	actorID, _ := middleware.GetAuthenticatedUserID(c)

	var req PatientRecordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid record payload"))
		return
	}

	record, err := h.records.Update(c.Request.Context(), actorID, c.Param("id"), req.Demographics, requestMeta(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to store patient record"))
		return
	}

	c.JSON(http.StatusOK, PatientRecordResponse{
		PatientID:    record.PatientID,
		Demographics: record.Demographics,
		UpdatedAt:    record.UpdatedAt,
	})
}
