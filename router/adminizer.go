package router

import (
	"net/http"

	"zapcrm/controllers"

	"github.com/gin-gonic/gin"
)

// Adminizer blocks access when the operator is not an organization admin.
// Only admins change the Gateway credentials.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !user.Admin {
			controllers.RespondError(c, "admin required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
