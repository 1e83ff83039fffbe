package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/model"
	authService "github.com/HealthLane-PH/healthlane-web/internal/service/auth"
	"github.com/HealthLane-PH/healthlane-web/internal/service/invite"
)

type Handler struct {
	svc      *authService.Service
	redeemer *invite.Redeemer
}

func NewHandler(svc *authService.Service, redeemer *invite.Redeemer) *Handler {
	return &Handler{svc: svc, redeemer: redeemer}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.GET("/set-password/verify", h.VerifyInvite)
		auth.POST("/set-password", h.SetPassword)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	session, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}

// VerifyInvite backs the set-password page before the form is shown. It
// does not consume the invite.
func (h *Handler) VerifyInvite(c *gin.Context) {
	var req model.VerifyInviteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	verification, err := h.redeemer.Verify(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(verification))
}

func (h *Handler) SetPassword(c *gin.Context) {
	var req model.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	resp, err := h.redeemer.Redeem(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
