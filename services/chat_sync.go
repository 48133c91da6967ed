package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"zapcrm/events"
	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

const MSG_NOT_CONFIGURED = "Gateway não configurado"

// SyncResult is the envelope returned by every Gateway-backed operation.
type SyncResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func failure(message string) SyncResult {
	return SyncResult{Success: false, Message: message}
}

type ChatSyncSummary struct {
	Chats         int           `json:"chats"`
	Contacts      Counts        `json:"contacts"`
	Conversations Counts        `json:"conversations"`
	Groups        int           `json:"groups_skipped"`
	Items         []ItemOutcome `json:"items"`
}

type ContactsSummary struct {
	Contacts []tools.GatewayContact `json:"contacts"`
	Counts   Counts                 `json:"counts"`
}

type MessageStatusData struct {
	MessageID string          `json:"message_id"`
	RemoteJid string          `json:"remote_jid"`
	Status    json.RawMessage `json:"status"`
}

// SyncService espelha chats, contatos e mensagens do Gateway para o banco local.
// Cada item é gravado isoladamente: uma falha no meio deixa o que já foi feito.
type SyncService struct {
	repos         repository.Repositories
	resolver      *GatewayResolver
	newGateway    GatewayFactory
	contacts      *ContactReconciler
	conversations *ConversationReconciler
	importer      *MessageImporter
	emitter       events.Emitter
	timeout       time.Duration
	now           func() time.Time
}

type SyncOptions struct {
	Timeout  time.Duration
	PageSize int
	MaxPages int
}

func NewSyncService(repos repository.Repositories, factory GatewayFactory, emitter events.Emitter, opts SyncOptions) *SyncService {
	if emitter == nil {
		emitter = events.LogEmitter{}
	}
	importer := NewMessageImporter(repos.Messages)
	importer.Timeout = opts.Timeout
	if opts.PageSize > 0 {
		importer.PageSize = opts.PageSize
	}
	if opts.MaxPages > 0 {
		importer.MaxPages = opts.MaxPages
	}
	return &SyncService{
		repos:         repos,
		resolver:      NewGatewayResolver(repos.GatewayConfigs),
		newGateway:    factory,
		contacts:      NewContactReconciler(repos.Contacts),
		conversations: NewConversationReconciler(repos.Conversations, repos.Users),
		importer:      importer,
		emitter:       emitter,
		timeout:       opts.Timeout,
		now:           time.Now,
	}
}

// connect resolves the tenant credentials and the instance. ErrNotConfigured and ErrNotFound are returned as is.
func (s *SyncService) connect(ctx context.Context, orgID, instanceID int64) (Gateway, *models.Instance, error) {
	creds, err := s.resolver.Require(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	instance, err := s.repos.Instances.FindByID(ctx, orgID, instanceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("instance %d: %w", instanceID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return s.newGateway(creds), instance, nil
}

// settle turns "not configured" into an envelope; every other error goes to the caller.
func settle(err error) (SyncResult, error) {
	if errors.Is(err, ErrNotConfigured) {
		return failure(MSG_NOT_CONFIGURED), nil
	}
	return SyncResult{}, err
}

func (s *SyncService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// SyncChats importa os chats de uma instância: Contact primeiro, depois Conversation.
func (s *SyncService) SyncChats(ctx context.Context, orgID, instanceID int64) (SyncResult, error) {
	gw, instance, err := s.connect(ctx, orgID, instanceID)
	if err != nil {
		return settle(err)
	}

	callCtx, cancel := s.callCtx(ctx)
	chats, err := gw.FindChats(callCtx, instance.InstanceName)
	cancel()
	if err != nil {
		log.Printf("sync: findChats failed org=%d instance=%s err=%v", orgID, instance.InstanceName, err)
		return failure("Erro ao buscar chats: " + err.Error()), nil
	}

	summary := ChatSyncSummary{Chats: len(chats)}
	for _, chat := range chats {
		if err := ctx.Err(); err != nil {
			return failure("Sincronização interrompida: " + err.Error()), nil
		}
		if tools.IsGroupJid(chat.RemoteJid) {
			summary.Groups++
			continue
		}
		contact, co := s.contacts.Reconcile(ctx, orgID, chat)
		summary.Items = append(summary.Items, co)
		if co.Err != nil {
			continue
		}
		_, vo := s.conversations.Reconcile(ctx, orgID, chat, contact, instance)
		summary.Items = append(summary.Items, vo)
	}
	summary.Contacts = CountKind(summary.Items, KIND_CONTACT)
	summary.Conversations = CountKind(summary.Items, KIND_CONVERSATION)

	if err := s.repos.Instances.MarkSynced(ctx, orgID, instance.ID, s.now().UTC()); err != nil {
		log.Printf("sync: mark synced failed org=%d instance=%d err=%v", orgID, instance.ID, err)
	}
	if err := s.emitter.Emit(ctx, events.NewFromContext(ctx, events.EVENT_INSTANCE_SYNCED, orgID, summary)); err != nil {
		log.Printf("events: emit failed type=%s instance=%d err=%v", events.EVENT_INSTANCE_SYNCED, instance.ID, err)
	}

	log.Printf("sync: chats org=%d instance=%s chats=%d contacts=%+v conversations=%+v",
		orgID, instance.InstanceName, summary.Chats, summary.Contacts, summary.Conversations)

	msg := fmt.Sprintf("%d chats sincronizados", summary.Chats-summary.Groups)
	if fails := Failures(summary.Items); len(fails) > 0 {
		for _, f := range fails {
			log.Printf("sync: chat item failed org=%d instance=%s kind=%s key=%q err=%s", orgID, instance.InstanceName, f.Kind, f.Key, f.Error)
		}
		msg += fmt.Sprintf(" (%d erros)", len(fails))
	}
	return SyncResult{Success: true, Message: msg, Data: summary}, nil
}

// SyncMessages importa as mensagens de uma conversa. remoteJid vazio usa o remoteJid guardado na conversa.
func (s *SyncService) SyncMessages(ctx context.Context, orgID, conversationID int64, remoteJid string) (SyncResult, error) {
	conv, err := s.repos.Conversations.FindByID(ctx, orgID, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return SyncResult{}, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return SyncResult{}, err
	}
	remoteJid = strings.TrimSpace(remoteJid)
	if remoteJid == "" {
		remoteJid = conv.Metadata.String("remoteJid")
	}
	if remoteJid == "" {
		return SyncResult{}, invalidInput("remoteJid é obrigatório")
	}

	gw, instance, err := s.connect(ctx, orgID, conv.InstanceID)
	if err != nil {
		return settle(err)
	}

	res, err := s.importer.Import(ctx, gw, ImportRequest{
		OrganizationID: orgID,
		InstanceName:   instance.InstanceName,
		ConversationID: conv.ID,
		RemoteJid:      remoteJid,
	})
	if err != nil {
		log.Printf("sync: messages failed org=%d conversation=%d err=%v", orgID, conv.ID, err)
		out := failure("Erro ao buscar mensagens: " + err.Error())
		if res.Pages > 0 {
			out.Data = res
		}
		return out, nil
	}
	log.Printf("sync: messages org=%d conversation=%d created=%d updated=%d skipped=%d errors=%d pages=%d",
		orgID, conv.ID, res.Created, res.Updated, res.Skipped, res.Errors, res.Pages)
	return SyncResult{
		Success: true,
		Message: fmt.Sprintf("%d mensagens importadas", res.Created),
		Data:    res,
	}, nil
}

// GetContacts lista os contatos do Gateway e reconcilia cada um localmente.
func (s *SyncService) GetContacts(ctx context.Context, orgID, instanceID int64) (SyncResult, error) {
	gw, instance, err := s.connect(ctx, orgID, instanceID)
	if err != nil {
		return settle(err)
	}
	callCtx, cancel := s.callCtx(ctx)
	contacts, err := gw.FindContacts(callCtx, instance.InstanceName)
	cancel()
	if err != nil {
		log.Printf("sync: findContacts failed org=%d instance=%s err=%v", orgID, instance.InstanceName, err)
		return failure("Erro ao buscar contatos: " + err.Error()), nil
	}

	var counts Counts
	for _, c := range contacts {
		if tools.IsGroupJid(c.RemoteJid) {
			continue
		}
		_, o := s.contacts.Reconcile(ctx, orgID, tools.GatewayChat{
			ID:            c.ID,
			RemoteJid:     c.RemoteJid,
			PushName:      c.PushName,
			ProfilePicURL: c.ProfilePicURL,
			UpdatedAt:     c.UpdatedAt,
		})
		counts.add(o)
	}
	return SyncResult{
		Success: true,
		Message: fmt.Sprintf("%d contatos encontrados", len(contacts)),
		Data:    ContactsSummary{Contacts: contacts, Counts: counts},
	}, nil
}

func (s *SyncService) GetMessageStatus(ctx context.Context, orgID, instanceID int64, remoteJid, messageID string) (SyncResult, error) {
	remoteJid, messageID = strings.TrimSpace(remoteJid), strings.TrimSpace(messageID)
	if remoteJid == "" || messageID == "" {
		return SyncResult{}, invalidInput("remoteJid e messageId são obrigatórios")
	}
	gw, instance, err := s.connect(ctx, orgID, instanceID)
	if err != nil {
		return settle(err)
	}
	callCtx, cancel := s.callCtx(ctx)
	raw, err := gw.FindStatusMessage(callCtx, instance.InstanceName, remoteJid, messageID)
	cancel()
	if err != nil {
		log.Printf("sync: findStatusMessage failed org=%d instance=%s id=%s err=%v", orgID, instance.InstanceName, messageID, err)
		return failure("Erro ao buscar status da mensagem: " + err.Error()), nil
	}
	return SyncResult{
		Success: true,
		Message: "ok",
		Data:    MessageStatusData{MessageID: messageID, RemoteJid: remoteJid, Status: raw},
	}, nil
}

// SyncAll runs SyncChats for every syncable instance. Used by the scheduler and the CLI.
func (s *SyncService) SyncAll(ctx context.Context) (int, error) {
	instances, err := s.repos.Instances.ListSyncable(ctx)
	if err != nil {
		return 0, fmt.Errorf("list syncable instances: %w", err)
	}
	ok := 0
	for _, inst := range instances {
		if ctx.Err() != nil {
			return ok, ctx.Err()
		}
		res, err := s.SyncChats(ctx, inst.OrganizationID, inst.ID)
		if err != nil {
			log.Printf("sync: instance failed org=%d instance=%d err=%v", inst.OrganizationID, inst.ID, err)
			continue
		}
		if !res.Success {
			log.Printf("sync: instance skipped org=%d instance=%d reason=%q", inst.OrganizationID, inst.ID, res.Message)
			continue
		}
		ok++
	}
	return ok, nil
}
