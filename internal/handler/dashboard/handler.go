package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	dashboardService "github.com/HealthLane-PH/healthlane-web/internal/service/dashboard"
)

type Handler struct {
	svc *dashboardService.Service
}

func NewHandler(svc *dashboardService.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/summary", h.Summary)
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}
