package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"zapcrm/models"
)

// Memory is a process-local implementation of every repository.
// Rows are copied on the way in and out, so callers never share state with the store.
// It enforces the same unique keys as the database schema.
type Memory struct {
	mu            sync.Mutex
	seq           int64
	gatewayCfgs   map[int64]models.GatewayConfig
	instances     map[int64]models.Instance
	users         map[int64]models.User
	contacts      map[int64]models.Contact
	conversations map[int64]models.Conversation
	messages      map[int64]models.Message
}

func NewMemory() *Memory {
	return &Memory{
		gatewayCfgs:   map[int64]models.GatewayConfig{},
		instances:     map[int64]models.Instance{},
		users:         map[int64]models.User{},
		contacts:      map[int64]models.Contact{},
		conversations: map[int64]models.Conversation{},
		messages:      map[int64]models.Message{},
	}
}

// Repositories exposes the store through the per-entity interfaces.
func (m *Memory) Repositories() Repositories {
	return Repositories{
		GatewayConfigs: memGatewayConfigs{m},
		Instances:      memInstances{m},
		Users:          memUsers{m},
		Contacts:       memContacts{m},
		Conversations:  memConversations{m},
		Messages:       memMessages{m},
	}
}

// AddUser seeds an operator; user management lives outside this service.
func (m *Memory) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.next()
	m.users[u.ID] = u
	return u
}

func (m *Memory) next() int64 {
	m.seq++
	return m.seq
}

func stamp() *time.Time {
	now := time.Now().UTC()
	return &now
}

func cloneMap(src models.JSONMap) models.JSONMap {
	if src == nil {
		return nil
	}
	out := make(models.JSONMap, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneConversation(c models.Conversation) models.Conversation {
	if c.AssignedToID != nil {
		id := *c.AssignedToID
		c.AssignedToID = &id
	}
	if c.Tags != nil {
		c.Tags = append(models.StringList(nil), c.Tags...)
	}
	c.Metadata = cloneMap(c.Metadata)
	return c
}

type memGatewayConfigs struct{ m *Memory }

func (r memGatewayConfigs) FindByOrganization(ctx context.Context, orgID int64) (*models.GatewayConfig, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.gatewayCfgs {
		if c.OrganizationID == orgID {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r memGatewayConfigs) Upsert(ctx context.Context, cfg *models.GatewayConfig) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, c := range r.m.gatewayCfgs {
		if c.OrganizationID == cfg.OrganizationID {
			c.BaseURL, c.ApiKey, c.UpdatedAt = cfg.BaseURL, cfg.ApiKey, stamp()
			r.m.gatewayCfgs[id] = c
			cfg.ID = id
			return nil
		}
	}
	cfg.ID = r.m.next()
	cfg.CreatedAt, cfg.UpdatedAt = stamp(), stamp()
	r.m.gatewayCfgs[cfg.ID] = *cfg
	return nil
}

type memInstances struct{ m *Memory }

func (r memInstances) FindByID(ctx context.Context, orgID, id int64) (*models.Instance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inst, ok := r.m.instances[id]
	if !ok || inst.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return &inst, nil
}

func (r memInstances) ListByOrganization(ctx context.Context, orgID int64) ([]models.Instance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Instance
	for _, inst := range r.m.instances {
		if inst.OrganizationID == orgID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memInstances) ListSyncable(ctx context.Context) ([]models.Instance, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Instance
	for _, inst := range r.m.instances {
		if inst.Status != models.INSTANCE_STATUS_DISCONNECTED {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memInstances) Create(ctx context.Context, instance *models.Instance) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, inst := range r.m.instances {
		if inst.OrganizationID == instance.OrganizationID && inst.InstanceName == instance.InstanceName {
			return ErrConflict
		}
	}
	instance.ID = r.m.next()
	if instance.Status == "" {
		instance.Status = models.INSTANCE_STATUS_CREATED
	}
	instance.CreatedAt, instance.UpdatedAt = stamp(), stamp()
	r.m.instances[instance.ID] = *instance
	return nil
}

func (r memInstances) MarkSynced(ctx context.Context, orgID, id int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	inst, ok := r.m.instances[id]
	if !ok || inst.OrganizationID != orgID {
		return ErrNotFound
	}
	inst.LastSyncAt = &at
	r.m.instances[id] = inst
	return nil
}

type memUsers struct{ m *Memory }

func (r memUsers) FindByID(ctx context.Context, orgID, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok || u.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FirstInOrganization(ctx context.Context, orgID int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var found *models.User
	for _, u := range r.m.users {
		if u.OrganizationID != orgID {
			continue
		}
		if found == nil || u.ID < found.ID {
			u := u
			found = &u
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

type memContacts struct{ m *Memory }

func (r memContacts) FindByID(ctx context.Context, orgID, id int64) (*models.Contact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.contacts[id]
	if !ok || c.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	c.Metadata = cloneMap(c.Metadata)
	return &c, nil
}

func (r memContacts) FindByPhone(ctx context.Context, orgID int64, phone string) (*models.Contact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.contacts {
		if c.OrganizationID == orgID && c.PhoneNumber == phone {
			c.Metadata = cloneMap(c.Metadata)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r memContacts) Create(ctx context.Context, contact *models.Contact) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.contacts {
		if c.OrganizationID == contact.OrganizationID && c.PhoneNumber == contact.PhoneNumber {
			return ErrConflict
		}
	}
	contact.ID = r.m.next()
	contact.CreatedAt, contact.UpdatedAt = stamp(), stamp()
	row := *contact
	row.Metadata = cloneMap(contact.Metadata)
	r.m.contacts[row.ID] = row
	return nil
}

func (r memContacts) UpdateProfile(ctx context.Context, orgID, id int64, name string, metadata models.JSONMap) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.contacts[id]
	if !ok || c.OrganizationID != orgID {
		return ErrNotFound
	}
	if name != "" {
		c.Name = name
	}
	c.Metadata = cloneMap(metadata)
	c.UpdatedAt = stamp()
	r.m.contacts[id] = c
	return nil
}

func (r memContacts) List(ctx context.Context, orgID int64, limit int) ([]models.Contact, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Contact
	for _, c := range r.m.contacts {
		if c.OrganizationID == orgID {
			c.Metadata = cloneMap(c.Metadata)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memConversations struct{ m *Memory }

func (r memConversations) FindByID(ctx context.Context, orgID, id int64) (*models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok || c.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	out := cloneConversation(c)
	return &out, nil
}

func (r memConversations) FindByKey(ctx context.Context, orgID, contactID, instanceID int64) (*models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.conversations {
		if c.OrganizationID == orgID && c.ContactID == contactID && c.InstanceID == instanceID {
			out := cloneConversation(c)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r memConversations) Create(ctx context.Context, conv *models.Conversation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.conversations {
		if c.OrganizationID == conv.OrganizationID && c.ContactID == conv.ContactID && c.InstanceID == conv.InstanceID {
			return ErrConflict
		}
	}
	conv.ID = r.m.next()
	conv.CreatedAt, conv.UpdatedAt = stamp(), stamp()
	r.m.conversations[conv.ID] = cloneConversation(*conv)
	return nil
}

func (r memConversations) UpdateSyncFields(ctx context.Context, orgID, id int64, fields ConversationSyncFields) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok || c.OrganizationID != orgID {
		return ErrNotFound
	}
	if fields.Title != "" {
		c.Title = fields.Title
	}
	if fields.LastMessageAt != nil {
		at := *fields.LastMessageAt
		c.LastMessageAt = &at
	}
	if fields.Metadata != nil {
		c.Metadata = cloneMap(fields.Metadata)
	}
	c.UpdatedAt = stamp()
	r.m.conversations[id] = c
	return nil
}

func (r memConversations) Transition(ctx context.Context, orgID, id int64, guard ConversationGuard, change ConversationChange) (*models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.conversations[id]
	if !ok || c.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	if !guard.Allows(&c) {
		out := cloneConversation(c)
		return &out, ErrConflict
	}
	change.apply(&c)
	c.UpdatedAt = stamp()
	r.m.conversations[id] = c
	out := cloneConversation(c)
	return &out, nil
}

func (r memConversations) List(ctx context.Context, orgID int64, filter ConversationFilter) ([]models.Conversation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Conversation
	for _, c := range r.m.conversations {
		if c.OrganizationID != orgID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.AssignedToID != nil && (c.AssignedToID == nil || *c.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.InstanceID > 0 && c.InstanceID != filter.InstanceID {
			continue
		}
		if filter.Archived != nil && c.IsArchived != *filter.Archived {
			continue
		}
		out = append(out, cloneConversation(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type memMessages struct{ m *Memory }

func (r memMessages) FindByExternalID(ctx context.Context, orgID, conversationID int64, externalID string) (*models.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, msg := range r.m.messages {
		if msg.OrganizationID == orgID && msg.ConversationID == conversationID && msg.ExternalID != nil && *msg.ExternalID == externalID {
			msg.Metadata = cloneMap(msg.Metadata)
			return &msg, nil
		}
	}
	return nil, ErrNotFound
}

func (r memMessages) Create(ctx context.Context, msg *models.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if msg.ExternalID != nil {
		for _, existing := range r.m.messages {
			if existing.ConversationID == msg.ConversationID && existing.ExternalID != nil && *existing.ExternalID == *msg.ExternalID {
				return ErrConflict
			}
		}
	}
	msg.ID = r.m.next()
	msg.CreatedAt, msg.UpdatedAt = stamp(), stamp()
	row := *msg
	row.Metadata = cloneMap(msg.Metadata)
	r.m.messages[row.ID] = row
	return nil
}

func (r memMessages) UpdateStatus(ctx context.Context, orgID, id int64, status string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	msg, ok := r.m.messages[id]
	if !ok || msg.OrganizationID != orgID {
		return ErrNotFound
	}
	msg.Status = status
	msg.UpdatedAt = stamp()
	r.m.messages[id] = msg
	return nil
}

func (r memMessages) ListByConversation(ctx context.Context, orgID, conversationID int64, limit int) ([]models.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Message
	for _, msg := range r.m.messages {
		if msg.OrganizationID == orgID && msg.ConversationID == conversationID {
			msg.Metadata = cloneMap(msg.Metadata)
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
