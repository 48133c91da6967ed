package controllers

import (
	"net/http"

	dbpkg "zapcrm/db"

	"github.com/gin-gonic/gin"
)

// GET /api/health
func Health(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusServiceUnavailable)
		return
	}
	if err := db.DB().PingContext(c.Request.Context()); err != nil {
		RespondError(c, "db indisponível: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
