package roster

import "github.com/gin-gonic/gin"

// RegisterManageRoutes mounts the roster reads; the caller guards the group.
func (h *Handler) RegisterManageRoutes(manage *gin.RouterGroup) {
	manage.GET("/appointments", h.ListAppointments)
	manage.GET("/stats", h.GetStats)
}
