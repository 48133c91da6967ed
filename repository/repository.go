// Package repository isolates persistence behind one interface per entity.
// Every method is scoped by organization id; there is no cross-tenant lookup.
package repository

import (
	"context"
	"errors"
	"time"

	"zapcrm/models"
)

var (
	ErrNotFound = errors.New("repository: record not found")
	// ErrConflict is returned by conditional updates whose guard no longer holds
	// and by creates that hit a unique key.
	ErrConflict = errors.New("repository: precondition failed")
)

type GatewayConfigRepository interface {
	FindByOrganization(ctx context.Context, orgID int64) (*models.GatewayConfig, error)
	Upsert(ctx context.Context, cfg *models.GatewayConfig) error
}

type InstanceRepository interface {
	FindByID(ctx context.Context, orgID, id int64) (*models.Instance, error)
	ListByOrganization(ctx context.Context, orgID int64) ([]models.Instance, error)
	ListSyncable(ctx context.Context) ([]models.Instance, error)
	Create(ctx context.Context, instance *models.Instance) error
	MarkSynced(ctx context.Context, orgID, id int64, at time.Time) error
}

type UserRepository interface {
	FindByID(ctx context.Context, orgID, id int64) (*models.User, error)
	// FirstInOrganization returns the lowest-id user of the organization.
	FirstInOrganization(ctx context.Context, orgID int64) (*models.User, error)
}

type ContactRepository interface {
	FindByID(ctx context.Context, orgID, id int64) (*models.Contact, error)
	FindByPhone(ctx context.Context, orgID int64, phone string) (*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	// UpdateProfile replaces metadata and, when name is not empty, the name.
	UpdateProfile(ctx context.Context, orgID, id int64, name string, metadata models.JSONMap) error
	List(ctx context.Context, orgID int64, limit int) ([]models.Contact, error)
}

// ConversationSyncFields are the only conversation columns background sync may write.
type ConversationSyncFields struct {
	Title         string
	LastMessageAt *time.Time
	Metadata      models.JSONMap
}

type ConversationFilter struct {
	Status       string
	AssignedToID *int64
	InstanceID   int64
	Archived     *bool
	Limit        int
	Offset       int
}

type ConversationRepository interface {
	FindByID(ctx context.Context, orgID, id int64) (*models.Conversation, error)
	FindByKey(ctx context.Context, orgID, contactID, instanceID int64) (*models.Conversation, error)
	Create(ctx context.Context, conv *models.Conversation) error
	UpdateSyncFields(ctx context.Context, orgID, id int64, fields ConversationSyncFields) error
	// Transition applies change only if guard still holds, in a single conditional write.
	// On guard failure it returns the current row together with ErrConflict.
	Transition(ctx context.Context, orgID, id int64, guard ConversationGuard, change ConversationChange) (*models.Conversation, error)
	List(ctx context.Context, orgID int64, filter ConversationFilter) ([]models.Conversation, error)
}

type MessageRepository interface {
	FindByExternalID(ctx context.Context, orgID, conversationID int64, externalID string) (*models.Message, error)
	Create(ctx context.Context, msg *models.Message) error
	UpdateStatus(ctx context.Context, orgID, id int64, status string) error
	ListByConversation(ctx context.Context, orgID, conversationID int64, limit int) ([]models.Message, error)
}

// Repositories bundles one implementation of each entity repository.
type Repositories struct {
	GatewayConfigs GatewayConfigRepository
	Instances      InstanceRepository
	Users          UserRepository
	Contacts       ContactRepository
	Conversations  ConversationRepository
	Messages       MessageRepository
}
