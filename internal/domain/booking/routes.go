package booking

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the slot grid, readable without a session.
func (h *Handler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.GET("/availability", h.GetAvailability)
}

// RegisterProtectedRoutes mounts the wizard commit.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/bookings", h.CreateBooking)
}
