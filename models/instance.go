package models

import "time"

/************************************************
/**** MARK: INSTANCE STATUS ****/
/************************************************/
const INSTANCE_STATUS_CREATED = "created"
const INSTANCE_STATUS_CONNECTED = "connected"
const INSTANCE_STATUS_DISCONNECTED = "disconnected"

// Instance é uma sessão do WhatsApp no Gateway. InstanceName é a chave do lado do Gateway.
type Instance struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID int64      `gorm:"not null;index;unique_index:ux_instance_name_org" json:"organization_id"`
	InstanceName   string     `gorm:"not null;unique_index:ux_instance_name_org" json:"instance_name" form:"instance_name"`
	DisplayName    string     `gorm:"default:''" json:"display_name" form:"display_name"`
	Status         string     `gorm:"not null;default:'created'" json:"status"`
	LastSyncAt     *time.Time `json:"last_sync_at"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
