package repository

import (
	"context"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormGatewayConfigs struct {
	db *gorm.DB
}

func (r *gormGatewayConfigs) FindByOrganization(ctx context.Context, orgID int64) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	if err := first(ctx, r.db.Where("organization_id = ?", orgID), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *gormGatewayConfigs) Upsert(ctx context.Context, cfg *models.GatewayConfig) error {
	existing, err := r.FindByOrganization(ctx, cfg.OrganizationID)
	if err == ErrNotFound {
		return r.db.Create(cfg).Error
	}
	if err != nil {
		return err
	}
	cfg.ID = existing.ID
	return r.db.Model(&models.GatewayConfig{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"base_url": cfg.BaseURL,
			"api_key":  cfg.ApiKey,
		}).Error
}
