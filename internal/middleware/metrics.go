package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveRequest(path, method string, status int, took time.Duration)
}

// Metrics records RED metrics, labelled by route pattern rather than raw path.
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		obs.ObserveRequest(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
