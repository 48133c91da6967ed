package repository

import (
	"context"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormMessages struct {
	db *gorm.DB
}

func (r *gormMessages) FindByExternalID(ctx context.Context, orgID, conversationID int64, externalID string) (*models.Message, error) {
	var m models.Message
	q := r.db.Where("conversation_id = ? AND external_id = ? AND organization_id = ?", conversationID, externalID, orgID)
	if err := first(ctx, q, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormMessages) Create(ctx context.Context, msg *models.Message) error {
	return create(ctx, r.db, msg)
}

func (r *gormMessages) UpdateStatus(ctx context.Context, orgID, id int64, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Model(&models.Message{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("status", status).Error
}

func (r *gormMessages) ListByConversation(ctx context.Context, orgID, conversationID int64, limit int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	var out []models.Message
	err := r.db.Where("conversation_id = ? AND organization_id = ?", conversationID, orgID).
		Order("id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
