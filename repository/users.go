package repository

import (
	"context"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) FindByID(ctx context.Context, orgID, id int64) (*models.User, error) {
	var user models.User
	if err := first(ctx, r.db.Where("id = ? AND organization_id = ?", id, orgID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUsers) FirstInOrganization(ctx context.Context, orgID int64) (*models.User, error) {
	var user models.User
	if err := first(ctx, r.db.Where("organization_id = ?", orgID).Order("id asc"), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
