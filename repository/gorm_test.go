package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"zapcrm/db"
	"zapcrm/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database.DB().SetMaxOpenConns(1)
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(v int64) *int64 { return &v }

// both runs fn against the gorm implementation and the in-memory one.
func both(t *testing.T, fn func(t *testing.T, repos Repositories)) {
	t.Run("gorm", func(t *testing.T) { fn(t, NewGorm(openTestDB(t))) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory().Repositories()) })
}

func TestGatewayConfigUpsert(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		if _, err := repos.GatewayConfigs.FindByOrganization(ctx, 1); !errors.Is(err, ErrNotFound) {
			t.Fatalf("FindByOrganization() error = %v, want ErrNotFound", err)
		}
		if err := repos.GatewayConfigs.Upsert(ctx, &models.GatewayConfig{OrganizationID: 1, BaseURL: "http://a", ApiKey: "k1"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if err := repos.GatewayConfigs.Upsert(ctx, &models.GatewayConfig{OrganizationID: 1, BaseURL: "http://b", ApiKey: "k2"}); err != nil {
			t.Fatalf("Upsert() second error = %v", err)
		}
		got, err := repos.GatewayConfigs.FindByOrganization(ctx, 1)
		if err != nil {
			t.Fatalf("FindByOrganization() error = %v", err)
		}
		if got.BaseURL != "http://b" || got.ApiKey != "k2" {
			t.Errorf("config = %q/%q, want http://b/k2", got.BaseURL, got.ApiKey)
		}
		if _, err := repos.GatewayConfigs.FindByOrganization(ctx, 2); !errors.Is(err, ErrNotFound) {
			t.Errorf("other tenant error = %v, want ErrNotFound", err)
		}
	})
}

func TestContactsTenantScoping(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		c := &models.Contact{OrganizationID: 1, PhoneNumber: "5511999990000", Name: "Ana"}
		if err := repos.Contacts.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if c.ID == 0 {
			t.Fatal("Create() did not assign an id")
		}
		if _, err := repos.Contacts.FindByPhone(ctx, 2, "5511999990000"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByPhone(other org) error = %v, want ErrNotFound", err)
		}
		if _, err := repos.Contacts.FindByID(ctx, 2, c.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByID(other org) error = %v, want ErrNotFound", err)
		}

		// same phone in another tenant is a different contact
		other := &models.Contact{OrganizationID: 2, PhoneNumber: "5511999990000"}
		if err := repos.Contacts.Create(ctx, other); err != nil {
			t.Fatalf("Create(other org) error = %v", err)
		}

		dup := &models.Contact{OrganizationID: 1, PhoneNumber: "5511999990000"}
		if err := repos.Contacts.Create(ctx, dup); err == nil {
			t.Error("Create(duplicate phone) expected error")
		}

		if err := repos.Contacts.UpdateProfile(ctx, 1, c.ID, "", models.JSONMap{"pushName": "Ana"}); err != nil {
			t.Fatalf("UpdateProfile() error = %v", err)
		}
		got, err := repos.Contacts.FindByPhone(ctx, 1, "5511999990000")
		if err != nil {
			t.Fatalf("FindByPhone() error = %v", err)
		}
		if got.Name != "Ana" {
			t.Errorf("Name = %q, want it untouched by an empty update", got.Name)
		}
		if got.Metadata.String("pushName") != "Ana" {
			t.Errorf("Metadata = %v, want pushName=Ana", got.Metadata)
		}

		list, err := repos.Contacts.List(ctx, 1, 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 {
			t.Errorf("List() = %d contacts, want 1", len(list))
		}
	})
}

func seedConversation(t *testing.T, repos Repositories) *models.Conversation {
	t.Helper()
	ctx := context.Background()
	conv := &models.Conversation{
		OrganizationID: 1,
		ContactID:      10,
		InstanceID:     20,
		Title:          "Ana",
		Status:         models.CONVERSATION_STATUS_OPEN,
		Priority:       models.CONVERSATION_PRIORITY_MEDIUM,
		CreatedByID:    1,
	}
	if err := repos.Conversations.Create(ctx, conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return conv
}

func TestConversationTransitionGuard(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		conv := seedConversation(t, repos)

		assign := ConversationGuard{
			Statuses:   []string{models.CONVERSATION_STATUS_OPEN},
			Unassigned: true,
			Archived:   boolPtr(false),
		}
		got, err := repos.Conversations.Transition(ctx, 1, conv.ID, assign, ConversationChange{
			Status:       strPtr(models.CONVERSATION_STATUS_IN_PROGRESS),
			AssignedToID: int64Ptr(7),
		})
		if err != nil {
			t.Fatalf("Transition(assign) error = %v", err)
		}
		if got.Status != models.CONVERSATION_STATUS_IN_PROGRESS {
			t.Errorf("Status = %q, want IN_PROGRESS", got.Status)
		}
		if got.AssignedToID == nil || *got.AssignedToID != 7 {
			t.Errorf("AssignedToID = %v, want 7", got.AssignedToID)
		}

		// second assign loses: guard no longer holds
		got, err = repos.Conversations.Transition(ctx, 1, conv.ID, assign, ConversationChange{
			Status:       strPtr(models.CONVERSATION_STATUS_IN_PROGRESS),
			AssignedToID: int64Ptr(8),
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("Transition(second assign) error = %v, want ErrConflict", err)
		}
		if got == nil || got.AssignedToID == nil || *got.AssignedToID != 7 {
			t.Errorf("current row after conflict = %+v, want assignee 7", got)
		}

		if _, err := repos.Conversations.Transition(ctx, 2, conv.ID, ConversationGuard{}, ConversationChange{Notes: strPtr("x")}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Transition(other org) error = %v, want ErrNotFound", err)
		}
	})
}

func TestConversationSyncFieldsDoNotTouchOperatorFields(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		conv := seedConversation(t, repos)
		if _, err := repos.Conversations.Transition(ctx, 1, conv.ID, ConversationGuard{}, ConversationChange{
			Status:       strPtr(models.CONVERSATION_STATUS_IN_PROGRESS),
			AssignedToID: int64Ptr(3),
			Tags:         &models.StringList{"vip"},
		}); err != nil {
			t.Fatalf("Transition() error = %v", err)
		}

		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		if err := repos.Conversations.UpdateSyncFields(ctx, 1, conv.ID, ConversationSyncFields{
			Title:         "Ana Souza",
			LastMessageAt: &at,
			Metadata:      models.JSONMap{"remoteJid": "5511999990000@s.whatsapp.net"},
		}); err != nil {
			t.Fatalf("UpdateSyncFields() error = %v", err)
		}

		got, err := repos.Conversations.FindByKey(ctx, 1, 10, 20)
		if err != nil {
			t.Fatalf("FindByKey() error = %v", err)
		}
		if got.Title != "Ana Souza" {
			t.Errorf("Title = %q, want %q", got.Title, "Ana Souza")
		}
		if got.Status != models.CONVERSATION_STATUS_IN_PROGRESS {
			t.Errorf("Status = %q, want IN_PROGRESS", got.Status)
		}
		if got.AssignedToID == nil || *got.AssignedToID != 3 {
			t.Errorf("AssignedToID = %v, want 3", got.AssignedToID)
		}
		if len(got.Tags) != 1 || got.Tags[0] != "vip" {
			t.Errorf("Tags = %v, want [vip]", got.Tags)
		}
		if got.LastMessageAt == nil || !got.LastMessageAt.Equal(at) {
			t.Errorf("LastMessageAt = %v, want %v", got.LastMessageAt, at)
		}
	})
}

func TestConversationList_Filters(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		conv := seedConversation(t, repos)
		second := &models.Conversation{OrganizationID: 1, ContactID: 11, InstanceID: 20, Status: models.CONVERSATION_STATUS_OPEN, Priority: models.CONVERSATION_PRIORITY_LOW, CreatedByID: 1}
		if err := repos.Conversations.Create(ctx, second); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := repos.Conversations.Transition(ctx, 1, conv.ID, ConversationGuard{}, ConversationChange{
			Status:             strPtr(models.CONVERSATION_STATUS_ARCHIVED),
			IsArchived:         boolPtr(true),
			ArchivedFromStatus: strPtr(models.CONVERSATION_STATUS_OPEN),
		}); err != nil {
			t.Fatalf("Transition(archive) error = %v", err)
		}

		archived, err := repos.Conversations.List(ctx, 1, ConversationFilter{Archived: boolPtr(true)})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(archived) != 1 || archived[0].ID != conv.ID {
			t.Errorf("List(archived) = %+v, want only %d", archived, conv.ID)
		}

		open, err := repos.Conversations.List(ctx, 1, ConversationFilter{Status: models.CONVERSATION_STATUS_OPEN})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(open) != 1 || open[0].ID != second.ID {
			t.Errorf("List(OPEN) = %+v, want only %d", open, second.ID)
		}

		none, err := repos.Conversations.List(ctx, 2, ConversationFilter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(none) != 0 {
			t.Errorf("List(other org) = %d rows, want 0", len(none))
		}
	})
}

func TestMessagesByExternalID(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		msg := &models.Message{OrganizationID: 1, ConversationID: 5, ExternalID: strPtr("ABC"), Content: "oi", Type: models.MESSAGE_TYPE_TEXT, Direction: models.MESSAGE_DIRECTION_INBOUND, Status: models.MESSAGE_STATUS_SENT}
		if err := repos.Messages.Create(ctx, msg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := repos.Messages.UpdateStatus(ctx, 1, msg.ID, models.MESSAGE_STATUS_READ); err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
		got, err := repos.Messages.FindByExternalID(ctx, 1, 5, "ABC")
		if err != nil {
			t.Fatalf("FindByExternalID() error = %v", err)
		}
		if got.Status != models.MESSAGE_STATUS_READ {
			t.Errorf("Status = %q, want READ", got.Status)
		}
		if _, err := repos.Messages.FindByExternalID(ctx, 1, 6, "ABC"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByExternalID(other conversation) error = %v, want ErrNotFound", err)
		}
		list, err := repos.Messages.ListByConversation(ctx, 1, 5, 0)
		if err != nil {
			t.Fatalf("ListByConversation() error = %v", err)
		}
		if len(list) != 1 {
			t.Errorf("ListByConversation() = %d, want 1", len(list))
		}
	})
}

func TestMessagesUniqueExternalID(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		newMsg := func(conversationID int64, externalID *string) *models.Message {
			return &models.Message{OrganizationID: 1, ConversationID: conversationID, ExternalID: externalID, Content: "oi", Type: models.MESSAGE_TYPE_TEXT, Direction: models.MESSAGE_DIRECTION_INBOUND, Status: models.MESSAGE_STATUS_SENT}
		}
		if err := repos.Messages.Create(ctx, newMsg(5, strPtr("ABC"))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := repos.Messages.Create(ctx, newMsg(5, strPtr("ABC"))); !errors.Is(err, ErrConflict) {
			t.Errorf("Create(duplicate) error = %v, want ErrConflict", err)
		}
		if err := repos.Messages.Create(ctx, newMsg(6, strPtr("ABC"))); err != nil {
			t.Errorf("Create(same id, other conversation) error = %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := repos.Messages.Create(ctx, newMsg(5, nil)); err != nil {
				t.Errorf("Create(no external id) #%d error = %v", i, err)
			}
		}
		list, _ := repos.Messages.ListByConversation(ctx, 1, 5, 0)
		if len(list) != 3 {
			t.Errorf("ListByConversation() = %d, want 3", len(list))
		}
	})
}

func TestCreateUniqueViolationIsConflict(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		if err := repos.Instances.Create(ctx, &models.Instance{OrganizationID: 1, InstanceName: "vendas"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := repos.Instances.Create(ctx, &models.Instance{OrganizationID: 1, InstanceName: "vendas"}); !errors.Is(err, ErrConflict) {
			t.Errorf("Create(duplicate instance) error = %v, want ErrConflict", err)
		}
		if err := repos.Contacts.Create(ctx, &models.Contact{OrganizationID: 1, PhoneNumber: "5511", Name: "A"}); err != nil {
			t.Fatalf("Create(contact) error = %v", err)
		}
		if err := repos.Contacts.Create(ctx, &models.Contact{OrganizationID: 1, PhoneNumber: "5511", Name: "B"}); !errors.Is(err, ErrConflict) {
			t.Errorf("Create(duplicate contact) error = %v, want ErrConflict", err)
		}
	})
}

func TestInstancesSyncable(t *testing.T) {
	both(t, func(t *testing.T, repos Repositories) {
		ctx := context.Background()
		a := &models.Instance{OrganizationID: 1, InstanceName: "vendas", Status: models.INSTANCE_STATUS_CONNECTED}
		b := &models.Instance{OrganizationID: 2, InstanceName: "suporte", Status: models.INSTANCE_STATUS_DISCONNECTED}
		for _, inst := range []*models.Instance{a, b} {
			if err := repos.Instances.Create(ctx, inst); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}
		list, err := repos.Instances.ListSyncable(ctx)
		if err != nil {
			t.Fatalf("ListSyncable() error = %v", err)
		}
		if len(list) != 1 || list[0].InstanceName != "vendas" {
			t.Errorf("ListSyncable() = %+v, want only vendas", list)
		}

		at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		if err := repos.Instances.MarkSynced(ctx, 1, a.ID, at); err != nil {
			t.Fatalf("MarkSynced() error = %v", err)
		}
		got, err := repos.Instances.FindByID(ctx, 1, a.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if got.LastSyncAt == nil || !got.LastSyncAt.Equal(at) {
			t.Errorf("LastSyncAt = %v, want %v", got.LastSyncAt, at)
		}
		if _, err := repos.Instances.FindByID(ctx, 2, a.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByID(other org) error = %v, want ErrNotFound", err)
		}
	})
}

func TestUsersFirstInOrganization(t *testing.T) {
	t.Run("gorm", func(t *testing.T) {
		database := openTestDB(t)
		for _, u := range []models.User{
			{OrganizationID: 1, Name: "B", Email: "b@x.com"},
			{OrganizationID: 1, Name: "A", Email: "a@x.com"},
		} {
			u := u
			if err := database.Create(&u).Error; err != nil {
				t.Fatalf("create user: %v", err)
			}
		}
		repos := NewGorm(database)
		got, err := repos.Users.FirstInOrganization(context.Background(), 1)
		if err != nil {
			t.Fatalf("FirstInOrganization() error = %v", err)
		}
		if got.Name != "B" {
			t.Errorf("FirstInOrganization() = %q, want lowest id (B)", got.Name)
		}
		if _, err := repos.Users.FirstInOrganization(context.Background(), 9); !errors.Is(err, ErrNotFound) {
			t.Errorf("FirstInOrganization(empty org) error = %v, want ErrNotFound", err)
		}
	})
	t.Run("memory", func(t *testing.T) {
		mem := NewMemory()
		first := mem.AddUser(models.User{OrganizationID: 1, Name: "B"})
		mem.AddUser(models.User{OrganizationID: 1, Name: "A"})
		got, err := mem.Repositories().Users.FirstInOrganization(context.Background(), 1)
		if err != nil {
			t.Fatalf("FirstInOrganization() error = %v", err)
		}
		if got.ID != first.ID {
			t.Errorf("FirstInOrganization() id = %d, want %d", got.ID, first.ID)
		}
	})
}

func TestConversationGuardAllows(t *testing.T) {
	assigned := int64(1)
	tests := []struct {
		name  string
		guard ConversationGuard
		conv  *models.Conversation
		want  bool
	}{
		{"nil conversation", ConversationGuard{}, nil, false},
		{"empty guard", ConversationGuard{}, &models.Conversation{Status: "OPEN"}, true},
		{"status match", ConversationGuard{Statuses: []string{"OPEN", "WAITING"}}, &models.Conversation{Status: "WAITING"}, true},
		{"status mismatch", ConversationGuard{Statuses: []string{"OPEN"}}, &models.Conversation{Status: "CLOSED"}, false},
		{"unassigned required", ConversationGuard{Unassigned: true}, &models.Conversation{AssignedToID: &assigned}, false},
		{"archived required", ConversationGuard{Archived: boolPtr(true)}, &models.Conversation{IsArchived: false}, false},
		{"not archived required", ConversationGuard{Archived: boolPtr(false)}, &models.Conversation{IsArchived: false}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.guard.Allows(tt.conv); got != tt.want {
				t.Errorf("Allows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConversationChangeAppliedTo(t *testing.T) {
	assigned := int64(7)
	other := int64(8)
	tags := models.StringList{"vip"}
	tests := []struct {
		name   string
		change ConversationChange
		conv   *models.Conversation
		want   bool
	}{
		{"nil conversation", ConversationChange{}, nil, false},
		{"empty change", ConversationChange{}, &models.Conversation{Status: "OPEN"}, true},
		{"status already written", ConversationChange{Status: strPtr("WAITING")}, &models.Conversation{Status: "WAITING"}, true},
		{"status still old", ConversationChange{Status: strPtr("WAITING")}, &models.Conversation{Status: "IN_PROGRESS"}, false},
		{"assignee matches", ConversationChange{AssignedToID: &assigned}, &models.Conversation{AssignedToID: &assigned}, true},
		{"assignee differs", ConversationChange{AssignedToID: &assigned}, &models.Conversation{AssignedToID: &other}, false},
		{"assignee missing", ConversationChange{AssignedToID: &assigned}, &models.Conversation{}, false},
		{"archive flag differs", ConversationChange{IsArchived: boolPtr(true)}, &models.Conversation{}, false},
		{"tags match", ConversationChange{Tags: &tags}, &models.Conversation{Tags: models.StringList{"vip"}}, true},
		{"tags differ", ConversationChange{Tags: &tags}, &models.Conversation{Tags: models.StringList{"b2b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.appliedTo(tt.conv); got != tt.want {
				t.Errorf("appliedTo() = %v, want %v", got, tt.want)
			}
		})
	}
}
