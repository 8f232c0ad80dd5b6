package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware rejects requests that do not present one of the keys returned by
// keys. An empty key list disables authentication. Keys are accepted from the
// Authorization bearer, X-Api-Key, X-Goog-Api-Key headers or the key query parameter,
// covering the three client surfaces.
func AuthMiddleware(keys func() []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed := keys()
		if len(allowed) == 0 {
			c.Next()
			return
		}
		presented := presentedKey(c.Request)
		if presented == "" {
			abortUnauthorized(c, "Missing API key")
			return
		}
		for _, key := range allowed {
			if subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "Invalid API key")
	}
}

func presentedKey(req *http.Request) string {
	if auth := strings.TrimSpace(req.Header.Get("Authorization")); auth != "" {
		if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	for _, header := range []string{"X-Api-Key", "X-Goog-Api-Key"} {
		if v := strings.TrimSpace(req.Header.Get(header)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(req.URL.Query().Get("key"))
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
		"message": msg,
		"type":    "authentication_error",
		"code":    "invalid_api_key",
	}})
}
