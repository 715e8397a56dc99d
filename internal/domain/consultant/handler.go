package consultant

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbooking/internal/pkg/response"
)

type AnalyzeRequest struct {
	Description string `json:"description"`
	// Image is base64, optionally as a data URL.
	Image string `json:"image"`
}

type PreviewRequest struct {
	Image            string `json:"image" binding:"required"`
	StyleName        string `json:"style_name" binding:"required"`
	StyleDescription string `json:"style_description"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Analyze godoc
// @Summary  Hairstyle suggestions from a photo and description
// @Tags     Consultant
// @Accept   json
// @Produce  json
// @Param    body  body  AnalyzeRequest  true  "photo and preferences"
// @Router   /consultations [post]
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Analyze(c.Request.Context(), req.Description, req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Preview godoc
// @Summary  Render the customer with a suggested hairstyle
// @Tags     Consultant
// @Accept   json
// @Produce  json
// @Param    body  body  PreviewRequest  true  "photo and style"
// @Router   /consultations/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	img, err := h.service.Preview(c.Request.Context(), req.Image, req.StyleName, req.StyleDescription)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"image": img})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrValidation) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
