package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

const DEFAULT_PAGE_SIZE = 50
const DEFAULT_MAX_PAGES = 20

// MessageImporter busca as mensagens de um chat no Gateway, página por página, e persiste.
type MessageImporter struct {
	messages repository.MessageRepository
	PageSize int
	MaxPages int
	// Timeout limita cada chamada ao Gateway; zero desliga.
	Timeout time.Duration
}

func NewMessageImporter(messages repository.MessageRepository) *MessageImporter {
	return &MessageImporter{messages: messages, PageSize: DEFAULT_PAGE_SIZE, MaxPages: DEFAULT_MAX_PAGES}
}

type ImportRequest struct {
	OrganizationID int64
	InstanceName   string
	ConversationID int64
	RemoteJid      string
}

type ImportResult struct {
	Counts
	Pages int           `json:"pages"`
	Items []ItemOutcome `json:"items"`
}

func (r *ImportResult) add(o ItemOutcome) {
	r.Items = append(r.Items, o)
	r.Counts.add(o)
}

// Import walks the pages until an empty page, the last reported page or MaxPages.
// A Gateway failure stops the walk and is returned with what was imported so far.
func (im *MessageImporter) Import(ctx context.Context, gw Gateway, req ImportRequest) (ImportResult, error) {
	var res ImportResult
	if strings.TrimSpace(req.RemoteJid) == "" {
		return res, invalidInput("remoteJid é obrigatório")
	}
	pageSize, maxPages := im.PageSize, im.MaxPages
	if pageSize <= 0 {
		pageSize = DEFAULT_PAGE_SIZE
	}
	if maxPages <= 0 {
		maxPages = DEFAULT_MAX_PAGES
	}

	for page := 1; page <= maxPages; page++ {
		p, err := im.fetch(ctx, gw, req, page, pageSize)
		if err != nil {
			return res, fmt.Errorf("findMessages page %d: %w", page, err)
		}
		res.Pages++
		if len(p.Records) == 0 {
			break
		}
		for _, rec := range p.Records {
			res.add(im.importOne(ctx, req, rec))
		}
		if p.Pages > 0 && page >= p.Pages {
			break
		}
		if page == maxPages {
			log.Printf("sync: message import hit page cap org=%d conversation=%d pages=%d", req.OrganizationID, req.ConversationID, maxPages)
		}
	}
	return res, nil
}

func (im *MessageImporter) fetch(ctx context.Context, gw Gateway, req ImportRequest, page, pageSize int) (tools.GatewayMessagePage, error) {
	if im.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.Timeout)
		defer cancel()
	}
	return gw.FindMessages(ctx, req.InstanceName, req.RemoteJid, page, pageSize)
}

func (im *MessageImporter) importOne(ctx context.Context, req ImportRequest, rec tools.GatewayMessage) ItemOutcome {
	externalID := strings.TrimSpace(rec.Key.ID)
	status := DeriveStatus(rec.MessageUpdate)

	if externalID != "" {
		existing, err := im.messages.FindByExternalID(ctx, req.OrganizationID, req.ConversationID, externalID)
		switch {
		case err == nil:
			return im.upgrade(ctx, req, existing, status)
		case !errors.Is(err, repository.ErrNotFound):
			return im.fail(req, externalID, fmt.Errorf("find message: %w", err))
		}
	}

	content, msgType := ClassifyContent(rec.Message)
	direction := models.MESSAGE_DIRECTION_INBOUND
	if rec.Key.FromMe {
		direction = models.MESSAGE_DIRECTION_OUTBOUND
	}
	metadata := models.JSONMap{
		"externalId": externalID,
		"remoteJid":  rec.Key.RemoteJid,
	}
	if len(rec.Raw) > 0 {
		metadata["raw"] = rec.Raw
	}
	msg := &models.Message{
		OrganizationID: req.OrganizationID,
		ConversationID: req.ConversationID,
		Content:        content,
		Type:           msgType,
		Direction:      direction,
		Status:         status,
		SentAt:         rec.MessageTimestamp.Ptr(),
		Metadata:       metadata,
	}
	if externalID != "" {
		msg.ExternalID = &externalID
	}
	createErr := im.messages.Create(ctx, msg)
	if createErr == nil {
		return created(KIND_MESSAGE, externalID, msg.ID)
	}
	if externalID == "" {
		return im.fail(req, externalID, fmt.Errorf("create message: %w", createErr))
	}
	// outro sync gravou a mesma mensagem no meio do caminho
	existing, err := im.messages.FindByExternalID(ctx, req.OrganizationID, req.ConversationID, externalID)
	if err != nil {
		return im.fail(req, externalID, fmt.Errorf("create message: %w", createErr))
	}
	return im.upgrade(ctx, req, existing, status)
}

// upgrade only moves the delivery status forward.
func (im *MessageImporter) upgrade(ctx context.Context, req ImportRequest, existing *models.Message, status string) ItemOutcome {
	key := existing.ExternalKey()
	if statusRank(status) <= statusRank(existing.Status) {
		return skipped(KIND_MESSAGE, key, existing.ID)
	}
	if err := im.messages.UpdateStatus(ctx, req.OrganizationID, existing.ID, status); err != nil {
		return im.fail(req, key, fmt.Errorf("update message %d: %w", existing.ID, err))
	}
	return updated(KIND_MESSAGE, key, existing.ID)
}

func (im *MessageImporter) fail(req ImportRequest, key string, err error) ItemOutcome {
	log.Printf("sync: message import failed org=%d conversation=%d externalId=%q err=%v", req.OrganizationID, req.ConversationID, key, err)
	return failed(KIND_MESSAGE, key, err)
}

// ClassifyContent picks the first payload variant present, in priority order.
func ClassifyContent(m *tools.GatewayMessageContent) (string, string) {
	if m == nil {
		return "[Mensagem não suportada]", models.MESSAGE_TYPE_TEXT
	}
	switch {
	case m.Conversation != "":
		return m.Conversation, models.MESSAGE_TYPE_TEXT
	case m.ExtendedTextMessage != nil && m.ExtendedTextMessage.Text != "":
		return m.ExtendedTextMessage.Text, models.MESSAGE_TYPE_TEXT
	case m.ImageMessage != nil:
		return orDefault(m.ImageMessage.Caption, "[Imagem]"), models.MESSAGE_TYPE_IMAGE
	case m.DocumentMessage != nil:
		content := "[Documento]"
		if name := strings.TrimSpace(m.DocumentMessage.FileName); name != "" {
			content += " " + name
		}
		return content, models.MESSAGE_TYPE_DOCUMENT
	case m.AudioMessage != nil:
		return "[Áudio]", models.MESSAGE_TYPE_AUDIO
	case m.VideoMessage != nil:
		return orDefault(m.VideoMessage.Caption, "[Vídeo]"), models.MESSAGE_TYPE_VIDEO
	}
	return "[Mensagem não suportada]", models.MESSAGE_TYPE_TEXT
}

// DeriveStatus looks only at the last update entry.
func DeriveStatus(updates []tools.GatewayMessageUpdate) string {
	if len(updates) == 0 {
		return models.MESSAGE_STATUS_SENT
	}
	switch strings.ToUpper(strings.TrimSpace(updates[len(updates)-1].Status)) {
	case "READ":
		return models.MESSAGE_STATUS_READ
	case "DELIVERY_ACK":
		return models.MESSAGE_STATUS_DELIVERED
	}
	return models.MESSAGE_STATUS_SENT
}

// statusRank orders delivery statuses so a re-import never moves a message backwards.
func statusRank(status string) int {
	switch status {
	case models.MESSAGE_STATUS_SENT:
		return 1
	case models.MESSAGE_STATUS_DELIVERED:
		return 2
	case models.MESSAGE_STATUS_READ:
		return 3
	}
	return 0
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
