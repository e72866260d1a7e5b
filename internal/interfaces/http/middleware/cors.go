package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig tunes cross-origin access.  An empty AllowOrigins permits any
// origin, which suits the engine's usual deployment behind a gateway.
type CORSConfig struct {
	AllowOrigins []string
	AllowHeaders []string
	MaxAge       string
}

// CORS answers preflight requests and stamps the CORS headers.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowHeaders := "Content-Type, Authorization, X-Request-ID"
	if len(cfg.AllowHeaders) > 0 {
		allowHeaders = strings.Join(cfg.AllowHeaders, ", ")
	}
	maxAge := cfg.MaxAge
	if maxAge == "" {
		maxAge = "86400"
	}

	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if len(allowed) == 0 {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", allowHeaders)
			c.Header("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
