package middleware

import (
	"crypto/subtle"
	"strings"

	"fanout/internal/common"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// Auth checks the caller's API key against validKeys. The key is read from
// X-API-Key, or from an "Authorization: Bearer" header. An empty key list
// leaves the group open.
func Auth(validKeys []string) gin.HandlerFunc {
	if len(validKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := presentedKey(c)
		if key == "" {
			common.HandleError(c, common.NewUnauthorizedError("missing API key"))
			c.Abort()
			return
		}
		if !isValidKey(key, validKeys) {
			common.HandleError(c, common.NewUnauthorizedError("invalid API key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func presentedKey(c *gin.Context) string {
	if k := strings.TrimSpace(c.GetHeader(apiKeyHeader)); k != "" {
		return k
	}
	const bearer = "Bearer "
	if h := c.GetHeader("Authorization"); len(h) > len(bearer) && strings.EqualFold(h[:len(bearer)], bearer) {
		return strings.TrimSpace(h[len(bearer):])
	}
	return ""
}

// isValidKey compares in constant time against every configured key.
func isValidKey(key string, validKeys []string) bool {
	ok := 0
	for _, valid := range validKeys {
		ok |= subtle.ConstantTimeCompare([]byte(key), []byte(valid))
	}
	return ok == 1
}
