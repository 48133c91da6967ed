package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/services"

	"github.com/gin-gonic/gin"
)

// GET /api/conversations?status=&assigned_to_id=&instance_id=&archived=&limit=&offset=
func GetConversations(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	app, ok := mustApp(c)
	if !ok {
		return
	}

	filter := repository.ConversationFilter{Status: strings.ToUpper(strings.TrimSpace(c.Query("status")))}
	if v := strings.TrimSpace(c.Query("assigned_to_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			RespondError(c, "assigned_to_id inválido", http.StatusBadRequest)
			return
		}
		filter.AssignedToID = &id
	}
	if v := strings.TrimSpace(c.Query("instance_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			RespondError(c, "instance_id inválido", http.StatusBadRequest)
			return
		}
		filter.InstanceID = id
	}
	if v := strings.TrimSpace(c.Query("archived")); v != "" {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, "archived inválido", http.StatusBadRequest)
			return
		}
		filter.Archived = &archived
	}
	if filter.Limit, ok = QueryInt(c, "limit", 50); !ok {
		return
	}
	if filter.Offset, ok = QueryInt(c, "offset", 0); !ok {
		return
	}

	list, err := app.Conversations.List(c.Request.Context(), user.OrganizationID, filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Conversation{}
	}
	RespondSuccess(c, list)
}

// GET /api/conversations/:id
func GetConversationByID(c *gin.Context) {
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
	conv, err := app.Conversations.Get(c.Request.Context(), user.OrganizationID, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"conversation": conv})
}

// GET /api/conversations/:id/messages?limit=
func GetConversationMessages(c *gin.Context) {
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
	limit, ok := QueryInt(c, "limit", 500)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := app.Conversations.Get(ctx, user.OrganizationID, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	list, err := app.Repos.Messages.ListByConversation(ctx, user.OrganizationID, id, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	RespondSuccess(c, list)
}

// PATCH /api/conversations/:id
// Body: {priority?, tags?, notes?}
func UpdateConversation(c *gin.Context) {
	var patch services.AttributesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	runTransition(c, func(s *services.ConversationService, ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
		return s.UpdateAttributes(ctx, orgID, id, actorID, patch)
	})
}

type transferReq struct {
	TargetUserID int64 `json:"target_user_id"`
}

// POST /api/conversations/:id/transfer
func TransferConversation(c *gin.Context) {
	var req transferReq
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.TargetUserID <= 0 {
		RespondError(c, "target_user_id é obrigatório", http.StatusBadRequest)
		return
	}
	runTransition(c, func(s *services.ConversationService, ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
		return s.Transfer(ctx, orgID, id, actorID, req.TargetUserID)
	})
}

// POST /api/conversations/:id/assign (o responsável é o usuário logado)
func AssignConversation(c *gin.Context) {
	runTransition(c, func(s *services.ConversationService, ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
		return s.Assign(ctx, orgID, id, actorID)
	})
}

// POST /api/conversations/:id/close
func CloseConversation(c *gin.Context) { runTransition(c, (*services.ConversationService).Close) }

// POST /api/conversations/:id/reopen
func ReopenConversation(c *gin.Context) { runTransition(c, (*services.ConversationService).Reopen) }

// POST /api/conversations/:id/hold
func HoldConversation(c *gin.Context) { runTransition(c, (*services.ConversationService).Hold) }

// POST /api/conversations/:id/resume
func ResumeConversation(c *gin.Context) { runTransition(c, (*services.ConversationService).Resume) }

// POST /api/conversations/:id/archive
func ArchiveConversation(c *gin.Context) { runTransition(c, (*services.ConversationService).Archive) }

// POST /api/conversations/:id/unarchive
func UnarchiveConversation(c *gin.Context) {
	runTransition(c, (*services.ConversationService).Unarchive)
}

type transitionFunc func(s *services.ConversationService, ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error)

func runTransition(c *gin.Context, fn transitionFunc) {
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
	conv, err := fn(app.Conversations, c.Request.Context(), user.OrganizationID, id, user.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"conversation": conv})
}
