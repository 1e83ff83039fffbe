package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination represents pagination metadata
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	TotalPage int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// ParsePagination reads page and page_size, clamping them to sane values.
func ParsePagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.Query("page_size"))
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return model.Pagination{Page: page, PageSize: size}
}

func NewPaginatedResponse(items interface{}, p model.Pagination, total int) PaginatedResponse {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	return PaginatedResponse{
		Items: items,
		Pagination: Pagination{
			Page:      p.Page,
			PageSize:  p.PageSize,
			Total:     total,
			TotalPage: totalPages,
		},
	}
}
