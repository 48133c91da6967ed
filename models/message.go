package models

import "time"

const (
	MESSAGE_TYPE_TEXT     = "TEXT"
	MESSAGE_TYPE_IMAGE    = "IMAGE"
	MESSAGE_TYPE_DOCUMENT = "DOCUMENT"
	MESSAGE_TYPE_AUDIO    = "AUDIO"
	MESSAGE_TYPE_VIDEO    = "VIDEO"
)

const (
	MESSAGE_DIRECTION_INBOUND  = "INBOUND"
	MESSAGE_DIRECTION_OUTBOUND = "OUTBOUND"
)

const (
	MESSAGE_STATUS_SENT      = "SENT"
	MESSAGE_STATUS_DELIVERED = "DELIVERED"
	MESSAGE_STATUS_READ      = "READ"
	MESSAGE_STATUS_FAILED    = "FAILED"
)

// Message pertence a exatamente uma Conversation.
// ExternalID é o id da mensagem no Gateway (também copiado em metadata.externalId).
// Sem id no Gateway fica NULL, fora da chave única (conversation_id, external_id).
type Message struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID int64      `gorm:"not null;index" json:"organization_id"`
	ConversationID int64      `gorm:"not null;unique_index:ux_message_conversation_external" json:"conversation_id"`
	ExternalID     *string    `gorm:"unique_index:ux_message_conversation_external" json:"external_id"`
	Content        string     `gorm:"type:text" json:"content"`
	Type           string     `gorm:"not null;default:'TEXT'" json:"type"`
	Direction      string     `gorm:"not null" json:"direction"`
	Status         string     `gorm:"not null;default:'SENT'" json:"status"`
	SentAt         *time.Time `json:"sent_at"`
	Metadata       JSONMap    `gorm:"type:text" json:"metadata"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// ExternalKey devolve o id externo ou "" quando a mensagem não tem um.
func (m Message) ExternalKey() string {
	if m.ExternalID == nil {
		return ""
	}
	return *m.ExternalID
}
