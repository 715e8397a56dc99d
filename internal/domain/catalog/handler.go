package catalog

import (
	"net/http"

	"salonbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ListServices godoc
// @Summary  List bookable services
// @Tags     Catalog
// @Produce  json
// @Router   /services [get]
func (h *Handler) ListServices(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"services": All()})
}
