package roster

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbooking/internal/pkg/response"
)

type Handler struct {
	view *View
}

func NewHandler(view *View) *Handler {
	return &Handler{view: view}
}

type listQuery struct {
	Query   string `form:"q"`
	Status  string `form:"status"`
	StaffID string `form:"staff_id"`
	Window  string `form:"window"`
}

// ListAppointments godoc
// @Summary  Filtered roster grouped by day
// @Tags     Manage
// @Produce  json
// @Param    q         query  string  false  "customer, service or staff name"
// @Param    status    query  string  false  "pending|confirmed|completed|cancelled|all"
// @Param    staff_id  query  string  false  "stylist id or all"
// @Param    window    query  string  false  "upcoming (default)|past|all"
// @Router   /manage/appointments [get]
func (h *Handler) ListAppointments(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	window, err := ParseWindow(q.Window)
	if err != nil {
		writeError(c, err)
		return
	}
	f := Filter{Query: q.Query, Status: q.Status, StaffID: q.StaffID, Window: window}
	if err := f.Validate(); err != nil {
		writeError(c, err)
		return
	}

	groups := h.view.Groups(f)
	count := 0
	for _, g := range groups {
		count += len(g.Appointments)
	}
	response.Success(c, http.StatusOK, gin.H{
		"groups": groups,
		"count":  count,
		"today":  h.view.Today(),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.view.Stats())
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrValidation) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
