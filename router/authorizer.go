package router

import (
	"net/http"

	"zapcrm/controllers"
	"zapcrm/models"

	"github.com/gin-gonic/gin"
)

// Authorizer blocks access when the operator is not active or has no organization.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		switch {
		case user.OrganizationID == 0:
			controllers.RespondError(c, "usuário sem organização", http.StatusForbidden)
		case user.Status == models.USER_STATUS_PENDING:
			controllers.RespondError(c, "necessário confirmar a conta", http.StatusForbidden)
		case user.Status == models.USER_STATUS_BLOCKED:
			controllers.RespondError(c, "sem acesso ao CRM", http.StatusForbidden)
		default:
			c.Next()
			return
		}
		c.Abort()
	}
}
