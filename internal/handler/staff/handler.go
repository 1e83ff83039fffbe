package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/service/invite"
	staffService "github.com/HealthLane-PH/healthlane-web/internal/service/staff"
	"github.com/HealthLane-PH/healthlane-web/pkg/httputil"
)

type Handler struct {
	svc    *staffService.Service
	issuer *invite.Issuer
}

func NewHandler(svc *staffService.Service, issuer *invite.Issuer) *Handler {
	return &Handler{svc: svc, issuer: issuer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := r.Group("/staff-members")
	{
		staff.POST("", h.CreateStaff)
		staff.GET("", h.ListStaff)
		staff.GET("/:id", h.GetStaff)
		staff.PUT("/:id", h.UpdateStaff)
		staff.DELETE("/:id", h.DeleteStaff)
		staff.POST("/:id/invite", h.ResendInvite)
		staff.PUT("/:id/photo", h.UploadPhoto)
	}
}

// CreateStaff adds a staff record. Portal roles are invited by the outbox
// worker once the record is committed.
func (h *Handler) CreateStaff(c *gin.Context) {
	var req model.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	person, err := h.svc.Create(c.Request.Context(), &req, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(person))
}

func (h *Handler) ListStaff(c *gin.Context) {
	var filter model.PersonFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	filter.Pagination = httputil.ParsePagination(c)

	persons, total, err := h.svc.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(httputil.NewPaginatedResponse(persons, filter.Pagination, total)))
}

func (h *Handler) GetStaff(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	person, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(person))
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	person, err := h.svc.Update(c.Request.Context(), id, &req, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(person))
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("staff member deleted"))
}

// ResendInvite replaces any outstanding invite and emails a fresh link.
func (h *Handler) ResendInvite(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	state, err := h.issuer.Reissue(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(state))
}

func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	upload, err := handler.OpenUpload(c, "photo")
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer upload.Content.Close()

	person, err := h.svc.SetPhoto(c.Request.Context(), id, upload.Filename, upload.ContentType, upload.Content, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(person))
}
