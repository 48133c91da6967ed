package controllers

import (
	"zapcrm/repository"
	"zapcrm/services"

	"github.com/gin-gonic/gin"
)

// App reúne as dependências dos handlers. É injetado no contexto do gin como o db.
type App struct {
	Repos         repository.Repositories
	Gateway       *services.GatewayResolver
	Sync          *services.SyncService
	Conversations *services.ConversationService
	JwtSecret     string
}

const ctxAppKey = "app"

func SetAppToContext(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxAppKey, app)
		c.Next()
	}
}

func AppInstance(c *gin.Context) *App {
	v, ok := c.Get(ctxAppKey)
	if !ok {
		return nil
	}
	app, _ := v.(*App)
	return app
}

// mustApp responds 500 when the app was not injected.
func mustApp(c *gin.Context) (*App, bool) {
	app := AppInstance(c)
	if app == nil {
		RespondError(c, "app não configurado no contexto", 500)
		return nil, false
	}
	return app, true
}
