package models

import "time"

// GatewayConfig stores tenant-specific Gateway credentials.
// One row per organization (multi-tenant).
type GatewayConfig struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID int64      `gorm:"not null;unique_index" json:"organization_id"`
	BaseURL        string     `gorm:"column:base_url;not null" json:"base_url"`
	ApiKey         string     `gorm:"column:api_key;not null" json:"-"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
