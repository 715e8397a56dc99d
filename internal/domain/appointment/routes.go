package appointment

import "github.com/gin-gonic/gin"

// RegisterProtectedRoutes mounts the customer-facing actions.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	appts := protected.Group("/appointments")
	{
		appts.GET("/mine", h.ListMine)
		appts.POST("/:id/cancel", h.Cancel)
		appts.POST("/:id/change-request", h.RequestChange)
		appts.DELETE("/:id/change-request", h.WithdrawChangeRequest)
		appts.POST("/:id/proposal/accept", h.AcceptProposal)
		appts.POST("/:id/proposal/reject", h.RejectProposal)
	}
}

// RegisterManageRoutes mounts staff/admin actions; the caller guards the group.
func (h *Handler) RegisterManageRoutes(manage *gin.RouterGroup) {
	appts := manage.Group("/appointments")
	{
		appts.POST("", h.CreateDirect)
		appts.PATCH("/:id", h.Edit)
		appts.PATCH("/:id/status", h.UpdateStatus)
		appts.DELETE("/:id", h.Delete)
		appts.POST("/:id/change-request/approve", h.ApproveChangeRequest)
		appts.POST("/:id/change-request/reject", h.RejectChangeRequest)
		appts.POST("/:id/proposal", h.ProposeChange)
	}
}
