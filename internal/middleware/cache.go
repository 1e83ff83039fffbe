package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge  int
	Private bool
	NoStore bool
	Vary    []string
}

// NoStore is for staff data and anything behind a session.
func NoStore() CacheConfig {
	return CacheConfig{NoStore: true, Private: true}
}

// Cache adds cache control headers to successful GET responses
func Cache(config CacheConfig) gin.HandlerFunc {
	var directives []string
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.NoStore {
		directives = append(directives, "no-store")
	} else if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	}
	value := strings.Join(directives, ", ")
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-store")
		} else {
			c.Header("Cache-Control", value)
			if vary != "" {
				c.Header("Vary", vary)
			}
		}
		c.Next()
	}
}
