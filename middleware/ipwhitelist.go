package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IPWhitelist restricts a route group to a fixed set of source IPs. It
// guards the admin surface; an empty list disables the check, which is the
// development default.
func IPWhitelist(ips []string) gin.HandlerFunc {
	trusted := make(map[string]bool, len(ips))
	for _, ip := range ips {
		trusted[ip] = true
	}
	return func(c *gin.Context) {
		if len(trusted) == 0 {
			c.Next()
			return
		}
		if !trusted[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
