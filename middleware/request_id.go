package middleware

import (
	"strings"

	"zapcrm/events"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const REQUEST_ID_HEADER = "X-Request-ID"

// RequestID reaproveita o X-Request-ID do cliente (ou gera um) e o coloca no contexto
// da requisição como correlation id dos eventos.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(REQUEST_ID_HEADER))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(REQUEST_ID_HEADER, id)
		c.Request = c.Request.WithContext(events.ContextWithCorrelation(c.Request.Context(), id))
		c.Next()
	}
}
