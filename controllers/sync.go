package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/instances/:id/sync
// Importa chats do Gateway (contatos + conversas).
func SyncInstanceChats(c *gin.Context) {
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
	res, err := app.Sync.SyncChats(c.Request.Context(), user.OrganizationID, id)
	RespondSync(c, res, err)
}

// GET /api/instances/:id/contacts
func GetInstanceContacts(c *gin.Context) {
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
	res, err := app.Sync.GetContacts(c.Request.Context(), user.OrganizationID, id)
	RespondSync(c, res, err)
}

// GET /api/instances/:id/messages/:messageId/status?remoteJid=
func GetMessageStatus(c *gin.Context) {
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
	res, err := app.Sync.GetMessageStatus(c.Request.Context(), user.OrganizationID, id, c.Query("remoteJid"), c.Param("messageId"))
	RespondSync(c, res, err)
}

type syncMessagesReq struct {
	RemoteJid string `json:"remote_jid"`
}

// POST /api/conversations/:id/sync-messages
// Body opcional: sem remote_jid usa o remoteJid guardado na conversa.
func SyncConversationMessages(c *gin.Context) {
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
	var req syncMessagesReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}
	res, err := app.Sync.SyncMessages(c.Request.Context(), user.OrganizationID, id, req.RemoteJid)
	RespondSync(c, res, err)
}
