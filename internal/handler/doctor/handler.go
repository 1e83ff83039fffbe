package doctor

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	doctorService "github.com/HealthLane-PH/healthlane-web/internal/service/doctor"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/httputil"
)

const (
	PayloadField    = "payload"
	CredentialField = "prc_file"
	PictureField    = "file"
)

type Handler struct {
	svc *doctorService.Service
}

func NewHandler(svc *doctorService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the self-registration form.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/register/doctors", h.RegisterDoctor)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", h.DeleteDoctor)
		doctors.PATCH("/:id/status", h.UpdateStatus)
		doctors.GET("/:id/credential-url", h.CredentialURL)
		doctors.DELETE("/:id/credential", h.RemoveCredential)
		doctors.PUT("/:id/profile-picture", h.UploadProfilePicture)
	}
}

// RegisterDoctor takes a multipart form: the JSON form under "payload" and
// the PRC ID photo under "prc_file".
func (h *Handler) RegisterDoctor(c *gin.Context) {
	raw := c.PostForm(PayloadField)
	if raw == "" {
		handler.RespondError(c, errors.Validation(PayloadField, "payload is required"))
		return
	}
	var req model.RegisterDoctorRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	// A missing file is reported by the service, after the consent check.
	var credential *doctorService.File
	upload, err := handler.OpenUpload(c, CredentialField)
	switch {
	case err == nil:
		defer upload.Content.Close()
		credential = &doctorService.File{
			Filename:    upload.Filename,
			ContentType: upload.ContentType,
			Content:     upload.Content,
		}
	case !errors.Is(err, errors.ErrValidation):
		handler.RespondError(c, err)
		return
	}

	doctor, err := h.svc.Register(c.Request.Context(), &req, credential)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doctor))
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	doctor, err := h.svc.Create(c.Request.Context(), &req, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doctor))
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filter model.DoctorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	filter.Pagination = httputil.ParsePagination(c)

	doctors, total, err := h.svc.List(c.Request.Context(), &filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(httputil.NewPaginatedResponse(doctors, filter.Pagination, total)))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	doctor, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.DoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	doctor, err := h.svc.Update(c.Request.Context(), id, &req, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("doctor deleted"))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.DoctorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	doctor, err := h.svc.UpdateStatus(c.Request.Context(), id, model.DoctorStatus(req.Status), handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) CredentialURL(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	url, err := h.svc.CredentialURL(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": url}))
}

func (h *Handler) RemoveCredential(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	doctor, err := h.svc.RemoveCredential(c.Request.Context(), id, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) UploadProfilePicture(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	upload, err := handler.OpenUpload(c, PictureField)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	defer upload.Content.Close()

	doctor, err := h.svc.SetProfilePicture(c.Request.Context(), id, &doctorService.File{
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Content:     upload.Content,
	}, handler.Actor(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}
