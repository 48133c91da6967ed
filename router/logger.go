package router

import (
	"log"
	"time"

	"zapcrm/controllers"

	"github.com/gin-gonic/gin"
)

// Logger logs method, path, status, latency and the tenant of the logged user.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		var org, user int64
		if u, ok := controllers.GetUserLogged(c); ok {
			org, user = u.OrganizationID, u.ID
		}
		log.Printf("api: %s %s -> %d (%s) org=%d user=%d", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration, org, user)
	}
}
