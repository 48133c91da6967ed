package models

import "time"

// Contact é a contraparte no WhatsApp.
// Regra: único por (phone_number, organization_id).
type Contact struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID int64      `gorm:"not null;index;unique_index:ux_contact_phone_org" json:"organization_id"`
	PhoneNumber    string     `gorm:"not null;unique_index:ux_contact_phone_org" json:"phone_number"`
	Name           string     `gorm:"not null" json:"name"`
	ExternalID     string     `gorm:"default:''" json:"external_id"`
	Metadata       JSONMap    `gorm:"type:text" json:"metadata"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
