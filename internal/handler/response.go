package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	pkgvalidator "github.com/HealthLane-PH/healthlane-web/pkg/validator"
)

const (
	// ContextClaims holds the *model.TokenClaims of an authenticated request.
	ContextClaims = "claims"
	// ContextRequestID holds the request id string.
	ContextRequestID = "request_id"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorDetail is attached to error responses that point at a field or at
// the record a duplicate collided with.
type ErrorDetail struct {
	Field      string `json:"field,omitempty"`
	ConflictID string `json:"conflict_id,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err in the response envelope. AppErrors keep their
// status and message; anything else is reported as a 500 without detail.
func RespondError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	status := appErr.StatusCode()

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}

	resp := NewErrorResponse(appErr.Message)
	if appErr.Field != "" || appErr.ConflictID != "" {
		resp.Data = ErrorDetail{Field: appErr.Field, ConflictID: appErr.ConflictID}
	}
	c.AbortWithStatusJSON(status, resp)
}

// RespondBindError reports a request binding or validation failure.
func RespondBindError(c *gin.Context, err error) {
	RespondError(c, pkgvalidator.Translate(err))
}

// ParseID reads the named path parameter as a UUID, answering 400 when it
// is not one.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// Claims returns the session claims set by the auth middleware.
func Claims(c *gin.Context) (*model.TokenClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*model.TokenClaims)
	return claims, ok
}

// Actor is the staff member behind the request, or the system actor on
// unauthenticated routes.
func Actor(c *gin.Context) model.Actor {
	if claims, ok := Claims(c); ok {
		return claims.Actor()
	}
	return model.SystemActor
}
