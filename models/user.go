package models

import (
	"strings"
	"time"
)

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_PENDING = 1
const USER_STATUS_BLOCKED = 2

// User representa um operador do CRM.
// O cadastro e o login ficam fora deste serviço; aqui só lemos o usuário para autorização e atribuição.
type User struct {
	ID              int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrganizationID  int64      `gorm:"not null;index" json:"organization_id" form:"organization_id"`
	Name            string     `gorm:"not null" json:"name" form:"name"`
	Email           string     `gorm:"not null;unique" json:"email" form:"email"`
	Phone1          string     `gorm:"column:phone1" json:"phone1" form:"phone1"`
	ProfileImageURL string     `gorm:"column:profile_image_url" json:"profile_image_url" form:"profile_image_url"`
	Status          int        `gorm:"default:0" json:"status" form:"status"`
	Admin           bool       `gorm:"not null; default: false" json:"admin" form:"admin"`
	CreatedAt       *time.Time `json:"created_at" form:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at" form:"updated_at"`
}

func (user User) MissingFields() string {
	if strings.TrimSpace(user.Name) == "" {
		return "name"
	} else if strings.TrimSpace(user.Email) == "" {
		return "email"
	} else if user.OrganizationID == 0 {
		return "organization_id"
	}
	return ""
}
