package router

import (
	"log"

	"zapcrm/config"
	"zapcrm/controllers"
	dbpkg "zapcrm/db"
	"zapcrm/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Initialize wires all routes and middlewares.
// Public routes + authenticated routes + "validated" routes (Authorizer) + admin routes.
func Initialize(r *gin.Engine, cfg config.Configuration, app *controllers.App, database *gorm.DB) {
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CorsOrigins))
	r.Use(middleware.RequestID())
	r.Use(dbpkg.SetDBtoContext(database))
	r.Use(controllers.SetAppToContext(app))

	api := r.Group("/api")

	// Public (no auth)
	api.GET("/health", controllers.Health)

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())
	auth.GET("/me", Logger(), controllers.Me)

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	// Gateway config
	validated.GET("/gateway/config", Logger(), controllers.GetGatewayConfig)

	// Instances
	validated.GET("/instances", Logger(), controllers.GetInstances)
	validated.POST("/instances", Logger(), controllers.CreateInstance)
	validated.GET("/instances/:id", Logger(), controllers.GetInstanceByID)
	validated.POST("/instances/:id/sync", Logger(), controllers.SyncInstanceChats)
	validated.GET("/instances/:id/contacts", Logger(), controllers.GetInstanceContacts)
	validated.GET("/instances/:id/messages/:messageId/status", Logger(), controllers.GetMessageStatus)

	// Contacts
	validated.GET("/contacts", Logger(), controllers.GetContacts)

	// Conversations
	validated.GET("/conversations", Logger(), controllers.GetConversations)
	validated.GET("/conversations/:id", Logger(), controllers.GetConversationByID)
	validated.PATCH("/conversations/:id", Logger(), controllers.UpdateConversation)
	validated.GET("/conversations/:id/messages", Logger(), controllers.GetConversationMessages)
	validated.POST("/conversations/:id/sync-messages", Logger(), controllers.SyncConversationMessages)

	// Lifecycle
	validated.POST("/conversations/:id/assign", Logger(), controllers.AssignConversation)
	validated.POST("/conversations/:id/transfer", Logger(), controllers.TransferConversation)
	validated.POST("/conversations/:id/close", Logger(), controllers.CloseConversation)
	validated.POST("/conversations/:id/reopen", Logger(), controllers.ReopenConversation)
	validated.POST("/conversations/:id/hold", Logger(), controllers.HoldConversation)
	validated.POST("/conversations/:id/resume", Logger(), controllers.ResumeConversation)
	validated.POST("/conversations/:id/archive", Logger(), controllers.ArchiveConversation)
	validated.POST("/conversations/:id/unarchive", Logger(), controllers.UnarchiveConversation)

	// Admin routes
	admin := validated.Group("")
	admin.Use(Adminizer())

	admin.PUT("/gateway/config", Logger(), controllers.UpsertGatewayConfig)

	log.Printf("Routes initialized")
}
