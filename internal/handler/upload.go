package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

// Upload is one file part of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.ReadCloser
}

// OpenUpload opens the named multipart file part. A missing part is a
// validation error on that field.
func OpenUpload(c *gin.Context, field string) (*Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, errors.Validation(field, field+" is required")
		}
		return nil, errors.BadRequest("invalid multipart body", err)
	}
	f, err := header.Open()
	if err != nil {
		return nil, errors.BadRequest("unreadable upload", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Upload{Filename: header.Filename, ContentType: contentType, Content: f}, nil
}
