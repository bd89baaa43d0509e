package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// websiteCtxKey is the Gin context key used to store the authorized website ID.
const websiteCtxKey = "website_id"

// WebsiteParam is the route parameter holding the website ID.
const WebsiteParam = "websiteId"

// WebsiteKeyMiddleware maps X-API-Key -> websiteID and only lets a key read
// the website it was issued for. With no keys configured every request is
// allowed, which is the local dev setup.
func WebsiteKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.Param(WebsiteParam)
		if len(keys) == 0 {
			c.Set(websiteCtxKey, requested)
			c.Next()
			return
		}

		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		websiteID, ok := keys[apiKey]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if requested != "" && requested != websiteID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(websiteCtxKey, websiteID)
		c.Next()
	}
}

// WebsiteID returns the authorized website ID from the request context.
func WebsiteID(c *gin.Context) string {
	v, _ := c.Get(websiteCtxKey)
	s, _ := v.(string)
	return s
}
