package models

import "time"

/************************************************
/**** MARK: CONVERSATION STATUS ****/
/************************************************/
const CONVERSATION_STATUS_OPEN = "OPEN"
const CONVERSATION_STATUS_IN_PROGRESS = "IN_PROGRESS"
const CONVERSATION_STATUS_WAITING = "WAITING"
const CONVERSATION_STATUS_CLOSED = "CLOSED"
const CONVERSATION_STATUS_ARCHIVED = "ARCHIVED"

/************************************************
/**** MARK: CONVERSATION PRIORITY ****/
/************************************************/
const CONVERSATION_PRIORITY_LOW = "LOW"
const CONVERSATION_PRIORITY_MEDIUM = "MEDIUM"
const CONVERSATION_PRIORITY_HIGH = "HIGH"
const CONVERSATION_PRIORITY_URGENT = "URGENT"

// Conversation é a unidade de trabalho do operador.
// Regra: única por (contact_id, instance_id, organization_id).
//
// Status, Priority, AssignedToID, Tags, Notes e o arquivamento pertencem ao operador:
// só a máquina de estados altera esses campos, nunca a sincronização com o Gateway.
type Conversation struct {
	ID                 int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID     int64      `gorm:"not null;index;unique_index:ux_conversation_contact_instance" json:"organization_id"`
	ContactID          int64      `gorm:"not null;unique_index:ux_conversation_contact_instance" json:"contact_id"`
	InstanceID         int64      `gorm:"not null;index;unique_index:ux_conversation_contact_instance" json:"instance_id"`
	Title              string     `gorm:"not null" json:"title"`
	Status             string     `gorm:"not null;default:'OPEN';index" json:"status"`
	Priority           string     `gorm:"not null;default:'MEDIUM'" json:"priority"`
	AssignedToID       *int64     `gorm:"index" json:"assigned_to_id"`
	CreatedByID        int64      `gorm:"not null;default:0" json:"created_by_id"`
	Tags               StringList `gorm:"type:text" json:"tags"`
	Notes              string     `gorm:"type:text" json:"notes"`
	LastMessageAt      *time.Time `json:"last_message_at"`
	ExternalID         string     `gorm:"default:''" json:"external_id"`
	Metadata           JSONMap    `gorm:"type:text" json:"metadata"`
	IsArchived         bool       `gorm:"not null;default:false" json:"is_archived"`
	ArchivedFromStatus string     `gorm:"default:''" json:"archived_from_status"`
	CreatedAt          *time.Time `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at"`
}

func IsValidConversationPriority(p string) bool {
	switch p {
	case CONVERSATION_PRIORITY_LOW, CONVERSATION_PRIORITY_MEDIUM, CONVERSATION_PRIORITY_HIGH, CONVERSATION_PRIORITY_URGENT:
		return true
	}
	return false
}

func IsValidConversationStatus(s string) bool {
	switch s {
	case CONVERSATION_STATUS_OPEN, CONVERSATION_STATUS_IN_PROGRESS, CONVERSATION_STATUS_WAITING,
		CONVERSATION_STATUS_CLOSED, CONVERSATION_STATUS_ARCHIVED:
		return true
	}
	return false
}
