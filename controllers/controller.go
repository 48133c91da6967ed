package controllers

import (
	"errors"
	"log"
	"net/http"

	"zapcrm/services"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// RespondServiceError maps service errors to status codes.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidTransition):
		RespondError(c, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidInput):
		RespondError(c, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("api: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		RespondError(c, "erro interno", http.StatusInternalServerError)
	}
}

// RespondSync writes a sync envelope. {success:false} is a normal result, not an HTTP error.
func RespondSync(c *gin.Context, res services.SyncResult, err error) {
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
