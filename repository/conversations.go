package repository

import (
	"context"

	"zapcrm/models"

	"github.com/jinzhu/gorm"
)

type gormConversations struct {
	db *gorm.DB
}

func (r *gormConversations) FindByID(ctx context.Context, orgID, id int64) (*models.Conversation, error) {
	var c models.Conversation
	if err := first(ctx, r.db.Where("id = ? AND organization_id = ?", id, orgID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormConversations) FindByKey(ctx context.Context, orgID, contactID, instanceID int64) (*models.Conversation, error) {
	var c models.Conversation
	q := r.db.Where("contact_id = ? AND instance_id = ? AND organization_id = ?", contactID, instanceID, orgID)
	if err := first(ctx, q, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormConversations) Create(ctx context.Context, conv *models.Conversation) error {
	return create(ctx, r.db, conv)
}

func (r *gormConversations) UpdateSyncFields(ctx context.Context, orgID, id int64, fields ConversationSyncFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cols := map[string]interface{}{}
	if fields.Title != "" {
		cols["title"] = fields.Title
	}
	if fields.LastMessageAt != nil {
		cols["last_message_at"] = fields.LastMessageAt
	}
	if fields.Metadata != nil {
		cols["metadata"] = fields.Metadata
	}
	if len(cols) == 0 {
		return nil
	}
	return r.db.Model(&models.Conversation{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Updates(cols).Error
}

// Transition é um lock otimista: o UPDATE só acontece se o guard ainda vale no banco.
func (r *gormConversations) Transition(ctx context.Context, orgID, id int64, guard ConversationGuard, change ConversationChange) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols := change.columns()

	var affected int64
	if len(cols) > 0 {
		q := r.db.Model(&models.Conversation{}).Where("id = ? AND organization_id = ?", id, orgID)
		if len(guard.Statuses) > 0 {
			q = q.Where("status IN (?)", guard.Statuses)
		}
		if guard.Unassigned {
			q = q.Where("assigned_to_id IS NULL")
		}
		if guard.Archived != nil {
			q = q.Where("is_archived = ?", *guard.Archived)
		}
		res := q.Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
		affected = res.RowsAffected
	}

	current, err := r.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	// mysql reports 0 rows when the values did not change. That only counts as success
	// when the row already holds the change and still satisfies the guard.
	if affected == 0 && !(guard.Allows(current) && change.appliedTo(current)) {
		return current, ErrConflict
	}
	return current, nil
}

func (r *gormConversations) List(ctx context.Context, orgID int64, filter ConversationFilter) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := r.db.Where("organization_id = ?", orgID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.InstanceID > 0 {
		q = q.Where("instance_id = ?", filter.InstanceID)
	}
	if filter.Archived != nil {
		q = q.Where("is_archived = ?", *filter.Archived)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var out []models.Conversation
	err := q.Order("id desc").Limit(limit).Offset(filter.Offset).Find(&out).Error
	return out, err
}
