package controllers

import (
	"errors"
	"net/http"

	"zapcrm/repository"

	"github.com/gin-gonic/gin"
)

type upsertGatewayConfigReq struct {
	BaseURL string `json:"base_url"`
	ApiKey  string `json:"api_key"`
}

// GET /api/gateway/config (validated)
// A api key nunca volta na resposta.
func GetGatewayConfig(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}

	cfg, err := app.Repos.GatewayConfigs.FindByOrganization(c.Request.Context(), user.OrganizationID)
	if errors.Is(err, repository.ErrNotFound) {
		RespondSuccess(c, gin.H{"configured": false})
		return
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	_, configured, err := app.Gateway.Resolve(c.Request.Context(), user.OrganizationID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"configured": configured,
		"base_url":   cfg.BaseURL,
		"updated_at": cfg.UpdatedAt,
	})
}

// PUT /api/gateway/config (admin)
// Upsert the tenant Gateway credentials.
// Returns only true.
func UpsertGatewayConfig(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}

	var req upsertGatewayConfigReq
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := app.Gateway.Save(c.Request.Context(), user.OrganizationID, req.BaseURL, req.ApiKey); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, true)
}
