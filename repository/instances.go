package repository

import (
	"context"
	"time"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormInstances struct {
	db *gorm.DB
}

func (r *gormInstances) FindByID(ctx context.Context, orgID, id int64) (*models.Instance, error) {
	var inst models.Instance
	if err := first(ctx, r.db.Where("id = ? AND organization_id = ?", id, orgID), &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *gormInstances) ListByOrganization(ctx context.Context, orgID int64) ([]models.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.Instance
	err := r.db.Where("organization_id = ?", orgID).Order("id asc").Find(&out).Error
	return out, err
}

// ListSyncable returns every instance not explicitly disconnected, across tenants (scheduler only).
func (r *gormInstances) ListSyncable(ctx context.Context) ([]models.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.Instance
	err := r.db.Where("status <> ?", models.INSTANCE_STATUS_DISCONNECTED).
		Order("organization_id asc, id asc").
		Find(&out).Error
	return out, err
}

func (r *gormInstances) Create(ctx context.Context, instance *models.Instance) error {
	return create(ctx, r.db, instance)
}

func (r *gormInstances) MarkSynced(ctx context.Context, orgID, id int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Model(&models.Instance{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("last_sync_at", &at).Error
}
