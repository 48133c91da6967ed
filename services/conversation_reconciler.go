package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

// ConversationReconciler faz o upsert de Conversation ligando Contact + Instance.
// Nunca altera status, priority, assigned_to_id, tags, notes ou arquivamento.
type ConversationReconciler struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
}

func NewConversationReconciler(conversations repository.ConversationRepository, users repository.UserRepository) *ConversationReconciler {
	return &ConversationReconciler{conversations: conversations, users: users}
}

func (r *ConversationReconciler) Reconcile(ctx context.Context, orgID int64, chat tools.GatewayChat, contact *models.Contact, instance *models.Instance) (*models.Conversation, ItemOutcome) {
	key := chat.RemoteJid
	if contact == nil || instance == nil {
		return nil, r.fail(orgID, key, errors.New("contact e instance são obrigatórios"))
	}
	pushName := strings.TrimSpace(chat.PushName)
	patch := sessionMetadata(chat)

	existing, err := r.conversations.FindByKey(ctx, orgID, contact.ID, instance.ID)
	if errors.Is(err, repository.ErrNotFound) {
		conv, createErr := r.create(ctx, orgID, chat, contact, instance, pushName, patch)
		if createErr == nil {
			return conv, created(KIND_CONVERSATION, key, conv.ID)
		}
		// concurrent sync may have created it meanwhile
		existing, err = r.conversations.FindByKey(ctx, orgID, contact.ID, instance.ID)
		if err != nil {
			return nil, r.fail(orgID, key, createErr)
		}
	} else if err != nil {
		return nil, r.fail(orgID, key, fmt.Errorf("find conversation contact=%d instance=%d: %w", contact.ID, instance.ID, err))
	}

	fields := repository.ConversationSyncFields{
		Title:         pushName,
		LastMessageAt: chat.UpdatedAt.Ptr(),
		Metadata:      existing.Metadata.Merge(patch),
	}
	if err := r.conversations.UpdateSyncFields(ctx, orgID, existing.ID, fields); err != nil {
		return nil, r.fail(orgID, key, fmt.Errorf("update conversation %d: %w", existing.ID, err))
	}
	if fields.Title != "" {
		existing.Title = fields.Title
	}
	if fields.LastMessageAt != nil {
		existing.LastMessageAt = fields.LastMessageAt
	}
	existing.Metadata = fields.Metadata
	return existing, updated(KIND_CONVERSATION, key, existing.ID)
}

func (r *ConversationReconciler) create(ctx context.Context, orgID int64, chat tools.GatewayChat, contact *models.Contact, instance *models.Instance, pushName string, patch map[string]interface{}) (*models.Conversation, error) {
	// o Gateway não tem um autor humano; usamos o primeiro usuário da organização
	author, err := r.users.FirstInOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("no user to author conversation in org %d: %w", orgID, err)
	}
	title := pushName
	if title == "" {
		title = "Conversa com " + contact.PhoneNumber
	}
	conv := &models.Conversation{
		OrganizationID: orgID,
		ContactID:      contact.ID,
		InstanceID:     instance.ID,
		Title:          title,
		Status:         models.CONVERSATION_STATUS_OPEN,
		Priority:       models.CONVERSATION_PRIORITY_MEDIUM,
		CreatedByID:    author.ID,
		Tags:           models.StringList{},
		LastMessageAt:  chat.UpdatedAt.Ptr(),
		ExternalID:     chat.ID,
		Metadata:       models.JSONMap{}.Merge(patch),
	}
	if err := r.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation contact=%d instance=%d: %w", contact.ID, instance.ID, err)
	}
	return conv, nil
}

// sessionMetadata keeps the chat's remoteJid and the window fields the record actually carries.
func sessionMetadata(chat tools.GatewayChat) map[string]interface{} {
	patch := map[string]interface{}{"remoteJid": chat.RemoteJid}
	if chat.WindowStart != nil {
		patch["windowStart"] = chat.WindowStart
	}
	if chat.WindowExpires != nil {
		patch["windowExpires"] = chat.WindowExpires
	}
	if chat.WindowActive != nil {
		patch["windowActive"] = chat.WindowActive
	}
	return patch
}

func (r *ConversationReconciler) fail(orgID int64, key string, err error) ItemOutcome {
	log.Printf("sync: conversation reconcile failed org=%d remoteJid=%q err=%v", orgID, key, err)
	return failed(KIND_CONVERSATION, key, err)
}
