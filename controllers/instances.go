package controllers

import (
	"errors"
	"net/http"
	"strings"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"

	"github.com/gin-gonic/gin"
)

type createInstanceReq struct {
	InstanceName string `json:"instance_name"`
	DisplayName  string `json:"display_name"`
}

// GET /api/instances
func GetInstances(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}
	list, err := app.Repos.Instances.ListByOrganization(c.Request.Context(), user.OrganizationID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Instance{}
	}
	RespondSuccess(c, list)
}

// GET /api/instances/:id
func GetInstanceByID(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	inst, err := app.Repos.Instances.FindByID(c.Request.Context(), user.OrganizationID, id)
	if errors.Is(err, repository.ErrNotFound) {
		RespondError(c, "instance não encontrada", http.StatusNotFound)
		return
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, inst)
}

// POST /api/instances
// Registra uma instância que já existe no Gateway.
func CreateInstance(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}

	var req createInstanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.InstanceName = strings.TrimSpace(req.InstanceName)
	if !tools.ValidateInstanceName(req.InstanceName) {
		RespondError(c, "instance_name inválido", http.StatusBadRequest)
		return
	}

	inst := &models.Instance{
		OrganizationID: user.OrganizationID,
		InstanceName:   req.InstanceName,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		Status:         models.INSTANCE_STATUS_CREATED,
	}
	ctx := c.Request.Context()
	if _, err := findInstanceByName(c, app, user.OrganizationID, req.InstanceName); err == nil {
		RespondError(c, "instance_name já cadastrado", http.StatusConflict)
		return
	}
	if err := app.Repos.Instances.Create(ctx, inst); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			RespondError(c, "instance_name já cadastrado", http.StatusConflict)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

func findInstanceByName(c *gin.Context, app *App, orgID int64, name string) (*models.Instance, error) {
	list, err := app.Repos.Instances.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].InstanceName == name {
			return &list[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
