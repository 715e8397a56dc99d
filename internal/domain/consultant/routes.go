package consultant

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	consultations := protected.Group("/consultations")
	{
		consultations.POST("", h.Analyze)
		consultations.POST("/preview", h.Preview)
	}
}
