package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	clinicService "github.com/HealthLane-PH/healthlane-web/internal/service/clinic"
	"github.com/HealthLane-PH/healthlane-web/pkg/httputil"
)

type Handler struct {
	svc *clinicService.Service
}

func NewHandler(svc *clinicService.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.GET("", h.ListClinics)
		clinics.GET("/suggest", h.SuggestClinics)
		clinics.GET("/:id", h.GetClinic)
		clinics.PUT("/:id", h.UpdateClinic)
	}
}

func (h *Handler) ListClinics(c *gin.Context) {
	var filter model.ClinicFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	filter.Pagination = httputil.ParsePagination(c)

	clinics, total, err := h.svc.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(httputil.NewPaginatedResponse(clinics, filter.Pagination, total)))
}

// SuggestClinics backs the clinic autocomplete on the doctor forms.
func (h *Handler) SuggestClinics(c *gin.Context) {
	suggestions, err := h.svc.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(suggestions))
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	clinic, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}
