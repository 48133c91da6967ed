package controllers

import (
	"net/http"

	"zapcrm/models"

	"github.com/gin-gonic/gin"
)

// GET /api/contacts?limit=
func GetContacts(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}
	limit, ok := QueryInt(c, "limit", 200)
	if !ok {
		return
	}
	list, err := app.Repos.Contacts.List(c.Request.Context(), user.OrganizationID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Contact{}
	}
	RespondSuccess(c, list)
}
