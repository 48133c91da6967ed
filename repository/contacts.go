package repository

import (
	"context"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormContacts struct {
	db *gorm.DB
}

func (r *gormContacts) FindByID(ctx context.Context, orgID, id int64) (*models.Contact, error) {
	var c models.Contact
	if err := first(ctx, r.db.Where("id = ? AND organization_id = ?", id, orgID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormContacts) FindByPhone(ctx context.Context, orgID int64, phone string) (*models.Contact, error) {
	var c models.Contact
	if err := first(ctx, r.db.Where("phone_number = ? AND organization_id = ?", phone, orgID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormContacts) Create(ctx context.Context, contact *models.Contact) error {
	return create(ctx, r.db, contact)
}

func (r *gormContacts) UpdateProfile(ctx context.Context, orgID, id int64, name string, metadata models.JSONMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cols := map[string]interface{}{"metadata": metadata}
	if name != "" {
		cols["name"] = name
	}
	return r.db.Model(&models.Contact{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(cols).Error
}

func (r *gormContacts) List(ctx context.Context, orgID int64, limit int) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}
	var out []models.Contact
	err := r.db.Where("organization_id = ?", orgID).Order("id asc").Limit(limit).Find(&out).Error
	return out, err
}
