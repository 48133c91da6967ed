package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"zapcrm/events"
	"zapcrm/models"
	"zapcrm/repository"
)

// ConversationService aplica as transições do operador sobre uma Conversation.
// Cada transição é um UPDATE condicional: o guard é verificado na mesma escrita.
type ConversationService struct {
	conversations repository.ConversationRepository
	users         repository.UserRepository
	emitter       events.Emitter
}

func NewConversationService(conversations repository.ConversationRepository, users repository.UserRepository, emitter events.Emitter) *ConversationService {
	if emitter == nil {
		emitter = events.LogEmitter{}
	}
	return &ConversationService{conversations: conversations, users: users, emitter: emitter}
}

// ConversationEvent is the payload of every conversation.*.v1 event.
type ConversationEvent struct {
	ActorID      int64               `json:"actor_id,omitempty"`
	Conversation models.Conversation `json:"conversation"`
}

// AttributesPatch holds operator-owned attributes; nil fields are left untouched.
type AttributesPatch struct {
	Priority *string  `json:"priority"`
	Tags     []string `json:"tags"`
	Notes    *string  `json:"notes"`
}

var notArchived = boolRef(false)

func boolRef(b bool) *bool { return &b }

func strRef(s string) *string { return &s }

func (s *ConversationService) Get(ctx context.Context, orgID, id int64) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, orgID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	}
	return conv, err
}

func (s *ConversationService) List(ctx context.Context, orgID int64, filter repository.ConversationFilter) ([]models.Conversation, error) {
	if filter.Status != "" && !models.IsValidConversationStatus(filter.Status) {
		return nil, invalidInput("status desconhecido: %q", filter.Status)
	}
	return s.conversations.List(ctx, orgID, filter)
}

// Assign: OPEN e sem responsável -> IN_PROGRESS com o usuário que agiu.
func (s *ConversationService) Assign(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	if err := s.requireUser(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	guard := repository.ConversationGuard{
		Statuses:   []string{models.CONVERSATION_STATUS_OPEN},
		Unassigned: true,
		Archived:   notArchived,
	}
	change := repository.ConversationChange{
		Status:       strRef(models.CONVERSATION_STATUS_IN_PROGRESS),
		AssignedToID: &actorID,
	}
	return s.transition(ctx, "assign", "requires status OPEN and no assignee", orgID, id, actorID, guard, change, events.EVENT_CONVERSATION_ASSIGNED)
}

// Transfer troca o responsável sem mudar o status.
func (s *ConversationService) Transfer(ctx context.Context, orgID, id, actorID, targetUserID int64) (*models.Conversation, error) {
	if err := s.requireUser(ctx, orgID, targetUserID); err != nil {
		return nil, err
	}
	guard := repository.ConversationGuard{Statuses: []string{models.CONVERSATION_STATUS_IN_PROGRESS}}
	change := repository.ConversationChange{AssignedToID: &targetUserID}
	return s.transition(ctx, "transfer", "requires status IN_PROGRESS", orgID, id, actorID, guard, change, events.EVENT_CONVERSATION_TRANSFERRED)
}

func (s *ConversationService) Close(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	return s.move(ctx, "close", orgID, id, actorID, models.CONVERSATION_STATUS_IN_PROGRESS, models.CONVERSATION_STATUS_CLOSED, events.EVENT_CONVERSATION_CLOSED)
}

func (s *ConversationService) Reopen(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	return s.move(ctx, "reopen", orgID, id, actorID, models.CONVERSATION_STATUS_CLOSED, models.CONVERSATION_STATUS_IN_PROGRESS, events.EVENT_CONVERSATION_REOPENED)
}

// Hold coloca a conversa em espera pelo cliente.
func (s *ConversationService) Hold(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	return s.move(ctx, "hold", orgID, id, actorID, models.CONVERSATION_STATUS_IN_PROGRESS, models.CONVERSATION_STATUS_WAITING, events.EVENT_CONVERSATION_WAITING)
}

func (s *ConversationService) Resume(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	return s.move(ctx, "resume", orgID, id, actorID, models.CONVERSATION_STATUS_WAITING, models.CONVERSATION_STATUS_IN_PROGRESS, events.EVENT_CONVERSATION_RESUMED)
}

// Archive guarda o status atual em archived_from_status para o unarchive restaurar.
func (s *ConversationService) Archive(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	current, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if current.IsArchived {
		return nil, &TransitionError{Op: "archive", Status: current.Status, Reason: "already archived"}
	}
	// status no guard: se mudou entre a leitura e a escrita, o archive falha em vez de gravar um from_status velho
	guard := repository.ConversationGuard{Statuses: []string{current.Status}, Archived: notArchived}
	change := repository.ConversationChange{
		Status:             strRef(models.CONVERSATION_STATUS_ARCHIVED),
		IsArchived:         boolRef(true),
		ArchivedFromStatus: strRef(current.Status),
	}
	return s.transition(ctx, "archive", "conversation changed concurrently", orgID, id, actorID, guard, change, events.EVENT_CONVERSATION_ARCHIVED)
}

func (s *ConversationService) Unarchive(ctx context.Context, orgID, id, actorID int64) (*models.Conversation, error) {
	current, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !current.IsArchived {
		return nil, &TransitionError{Op: "unarchive", Status: current.Status, Reason: "not archived"}
	}
	restore := current.ArchivedFromStatus
	if !models.IsValidConversationStatus(restore) || restore == models.CONVERSATION_STATUS_ARCHIVED {
		restore = models.CONVERSATION_STATUS_OPEN
	}
	guard := repository.ConversationGuard{Statuses: []string{current.Status}, Archived: boolRef(true)}
	change := repository.ConversationChange{
		Status:             &restore,
		IsArchived:         boolRef(false),
		ArchivedFromStatus: strRef(""),
	}
	return s.transition(ctx, "unarchive", "conversation changed concurrently", orgID, id, actorID, guard, change, events.EVENT_CONVERSATION_UNARCHIVED)
}

// UpdateAttributes altera priority, tags e notes. Tags são tratadas como conjunto.
func (s *ConversationService) UpdateAttributes(ctx context.Context, orgID, id, actorID int64, patch AttributesPatch) (*models.Conversation, error) {
	var change repository.ConversationChange
	if patch.Priority != nil {
		p := strings.ToUpper(strings.TrimSpace(*patch.Priority))
		if !models.IsValidConversationPriority(p) {
			return nil, invalidInput("priority inválida: %q", *patch.Priority)
		}
		change.Priority = &p
	}
	if patch.Tags != nil {
		tags := NormalizeTags(patch.Tags)
		change.Tags = &tags
	}
	if patch.Notes != nil {
		notes := *patch.Notes
		change.Notes = &notes
	}
	if change.Priority == nil && change.Tags == nil && change.Notes == nil {
		return nil, invalidInput("nada para atualizar")
	}
	return s.transition(ctx, "update", "", orgID, id, actorID, repository.ConversationGuard{}, change, events.EVENT_CONVERSATION_UPDATED)
}

// NormalizeTags trims, drops empties and duplicates, and sorts.
func NormalizeTags(in []string) models.StringList {
	seen := map[string]bool{}
	out := models.StringList{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *ConversationService) move(ctx context.Context, op string, orgID, id, actorID int64, from, to, eventType string) (*models.Conversation, error) {
	guard := repository.ConversationGuard{Statuses: []string{from}}
	change := repository.ConversationChange{Status: &to}
	return s.transition(ctx, op, "requires status "+from, orgID, id, actorID, guard, change, eventType)
}

func (s *ConversationService) transition(ctx context.Context, op, reason string, orgID, id, actorID int64, guard repository.ConversationGuard, change repository.ConversationChange, eventType string) (*models.Conversation, error) {
	conv, err := s.conversations.Transition(ctx, orgID, id, guard, change)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("conversation %d: %w", id, ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		status := ""
		if conv != nil {
			status = conv.Status
		}
		return nil, &TransitionError{Op: op, Status: status, Reason: reason}
	case err != nil:
		return nil, fmt.Errorf("%s conversation %d: %w", op, id, err)
	}

	env := events.NewFromContext(ctx, eventType, orgID, ConversationEvent{ActorID: actorID, Conversation: *conv})
	if err := s.emitter.Emit(ctx, env); err != nil {
		// a transição já foi gravada; falha no fan-out não desfaz nada
		log.Printf("events: emit failed type=%s conversation=%d err=%v", eventType, id, err)
	}
	return conv, nil
}

func (s *ConversationService) requireUser(ctx context.Context, orgID, userID int64) error {
	if userID <= 0 {
		return invalidInput("usuário inválido")
	}
	_, err := s.users.FindByID(ctx, orgID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalidInput("usuário %d não pertence à organização", userID)
	}
	return err
}
