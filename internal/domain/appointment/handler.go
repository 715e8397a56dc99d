package appointment

import (
	"errors"
	"net/http"

	"salonbooking/internal/middleware"
	"salonbooking/internal/pkg/response"
	"salonbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorOf(c *gin.Context) Actor {
	return Actor{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

// authorize loads :id for the caller. With ownerOnly set even staff and
// admins are refused unless the appointment is theirs.
func (h *Handler) authorize(c *gin.Context, ownerOnly bool) (*Appointment, bool) {
	actor := actorOf(c)
	if ownerOnly {
		actor.Role = ""
	}
	a, err := h.service.Authorize(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		WriteError(c, err)
		return nil, false
	}
	return a, true
}

// ListMine godoc
// @Summary  Caller's appointments, newest first
// @Tags     Appointments
// @Produce  json
// @Router   /appointments/mine [get]
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.service.ListForCustomer(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointments": list})
}

func (h *Handler) Cancel(c *gin.Context) {
	if _, ok := h.authorize(c, false); !ok {
		return
	}
	a, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

// RequestChange godoc
// @Summary  Ask the salon to move an appointment
// @Tags     Appointments
// @Accept   json
// @Produce  json
// @Param    body  body  RescheduleRequest  true  "new slot"
// @Router   /appointments/{id}/change-request [post]
func (h *Handler) RequestChange(c *gin.Context) {
	var req RescheduleRequest
	if !bind(c, &req) {
		return
	}
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	a, err := h.service.RequestChange(c.Request.Context(), c.Param("id"), req.NewDate, req.NewTime)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) WithdrawChangeRequest(c *gin.Context) {
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	a, err := h.service.WithdrawChangeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) AcceptProposal(c *gin.Context) {
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	a, err := h.service.AcceptAdminProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) RejectProposal(c *gin.Context) {
	if _, ok := h.authorize(c, true); !ok {
		return
	}
	a, err := h.service.RejectAdminProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

// CreateDirect godoc
// @Summary  Enter a confirmed appointment for a customer
// @Tags     Management
// @Accept   json
// @Produce  json
// @Param    body  body  DirectRequest  true  "appointment"
// @Router   /manage/appointments [post]
func (h *Handler) CreateDirect(c *gin.Context) {
	var req DirectRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.service.CreateDirect(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"appointment": a})
}

func (h *Handler) Edit(c *gin.Context) {
	var req EditRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.service.EditDetails(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ApproveChangeRequest(c *gin.Context) {
	var req RescheduleRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.service.ApproveChangeRequest(c.Request.Context(), c.Param("id"), req.NewDate, req.NewTime)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) RejectChangeRequest(c *gin.Context) {
	a, err := h.service.RejectChangeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func (h *Handler) ProposeChange(c *gin.Context) {
	var req RescheduleRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.service.ProposeAdminChange(c.Request.Context(), c.Param("id"), req.NewDate, req.NewTime)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"appointment": a})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields := validator.Fields(err); fields != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
			return false
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

// WriteError maps lifecycle errors onto the response envelope.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrServiceNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown service")
	case errors.Is(err, ErrStaffNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown staff member")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found")
	case errors.Is(err, ErrSlotOccupied):
		response.Error(c, http.StatusConflict, "SLOT_OCCUPIED", "The selected slot is already taken")
	case errors.Is(err, ErrNoPendingChange), errors.Is(err, ErrProposalMismatch), errors.Is(err, ErrAppointmentCancelled):
		response.Error(c, http.StatusConflict, "NEGOTIATION_CONFLICT", err.Error())
	case errors.Is(err, ErrStoreTimeout):
		response.Error(c, http.StatusGatewayTimeout, "STORE_TIMEOUT", "The appointment store did not answer in time")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
