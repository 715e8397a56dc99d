package booking

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/middleware"
	"salonbooking/internal/pkg/response"
	"salonbooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetAvailability godoc
// @Summary  Daily slot grid for a stylist
// @Tags     Booking
// @Produce  json
// @Param    staff_id  query  string  true   "stylist id"
// @Param    date      query  string  false  "YYYY-MM-DD, defaults to today"
// @Router   /availability [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query", validator.Fields(err))
		return
	}

	av, err := h.service.Availability(q.StaffID, q.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, av)
}

// CreateBooking godoc
// @Summary  Commit the booking wizard
// @Tags     Booking
// @Accept   json
// @Produce  json
// @Param    body  body  BookRequest  true  "wizard selections"
// @Router   /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields := validator.Fields(err); fields != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", fields)
			return
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	a, err := h.service.Book(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"appointment": a})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrStepOrder):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrSlotTaken):
		response.Error(c, http.StatusConflict, "SLOT_OCCUPIED", "The selected slot is already taken")
	case errors.Is(err, ErrNotCustomer):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown user")
	default:
		appointment.WriteError(c, err)
	}
}
