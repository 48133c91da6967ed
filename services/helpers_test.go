package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"zapcrm/events"
	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

const testOrg = int64(1)

// fakeGateway serves canned responses and records the pages requested.
type fakeGateway struct {
	mu          sync.Mutex
	chats       []tools.GatewayChat
	chatsErr    error
	contacts    []tools.GatewayContact
	pages       map[int]tools.GatewayMessagePage
	pageErr     map[int]error
	status      json.RawMessage
	pageCalls   []int
	pageSizes   []int
	lastJid     string
	lastMessage string
}

func (g *fakeGateway) FindChats(ctx context.Context, instanceName string) ([]tools.GatewayChat, error) {
	return g.chats, g.chatsErr
}

func (g *fakeGateway) FindContacts(ctx context.Context, instanceName string) ([]tools.GatewayContact, error) {
	return g.contacts, nil
}

func (g *fakeGateway) FindMessages(ctx context.Context, instanceName, remoteJid string, page, pageSize int) (tools.GatewayMessagePage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pageCalls = append(g.pageCalls, page)
	g.pageSizes = append(g.pageSizes, pageSize)
	g.lastJid = remoteJid
	if err := g.pageErr[page]; err != nil {
		return tools.GatewayMessagePage{}, err
	}
	return g.pages[page], nil
}

func (g *fakeGateway) FindStatusMessage(ctx context.Context, instanceName, remoteJid, messageID string) (json.RawMessage, error) {
	g.lastJid, g.lastMessage = remoteJid, messageID
	return g.status, nil
}

type fixture struct {
	mem      *repository.Memory
	repos    repository.Repositories
	user     models.User
	instance *models.Instance
	gw       *fakeGateway
	emitter  *events.Recorder
	sync     *SyncService
	convs    *ConversationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := repository.NewMemory()
	repos := mem.Repositories()
	f := &fixture{
		mem:     mem,
		repos:   repos,
		user:    mem.AddUser(models.User{OrganizationID: testOrg, Name: "Operador", Email: "op@x.com"}),
		gw:      &fakeGateway{},
		emitter: &events.Recorder{},
	}
	if err := repos.GatewayConfigs.Upsert(ctx, &models.GatewayConfig{OrganizationID: testOrg, BaseURL: "http://gateway", ApiKey: "key"}); err != nil {
		t.Fatalf("seed gateway config: %v", err)
	}
	f.instance = &models.Instance{OrganizationID: testOrg, InstanceName: "vendas", Status: models.INSTANCE_STATUS_CONNECTED}
	if err := repos.Instances.Create(ctx, f.instance); err != nil {
		t.Fatalf("seed instance: %v", err)
	}
	factory := func(GatewayCredentials) Gateway { return f.gw }
	f.sync = NewSyncService(repos, factory, f.emitter, SyncOptions{})
	f.convs = NewConversationService(repos.Conversations, repos.Users, f.emitter)
	return f
}

func (f *fixture) countContacts(t *testing.T) int {
	t.Helper()
	list, err := f.repos.Contacts.List(context.Background(), testOrg, 0)
	if err != nil {
		t.Fatalf("list contacts: %v", err)
	}
	return len(list)
}

func (f *fixture) conversations(t *testing.T) []models.Conversation {
	t.Helper()
	list, err := f.repos.Conversations.List(context.Background(), testOrg, repository.ConversationFilter{})
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	return list
}

// openConversation seeds a fresh OPEN conversation.
func (f *fixture) openConversation(t *testing.T, contactID int64) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{
		OrganizationID: testOrg,
		ContactID:      contactID,
		InstanceID:     f.instance.ID,
		Title:          "Conversa",
		Status:         models.CONVERSATION_STATUS_OPEN,
		Priority:       models.CONVERSATION_PRIORITY_MEDIUM,
		CreatedByID:    f.user.ID,
		Metadata:       models.JSONMap{"remoteJid": "5511999@s.whatsapp.net"},
	}
	if err := f.repos.Conversations.Create(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return conv
}

func textMessage(id, text string, fromMe bool, updates ...string) tools.GatewayMessage {
	m := tools.GatewayMessage{
		Key:     tools.GatewayMessageKey{RemoteJid: "5511999@s.whatsapp.net", FromMe: fromMe, ID: id},
		Message: &tools.GatewayMessageContent{Conversation: text},
	}
	for _, u := range updates {
		m.MessageUpdate = append(m.MessageUpdate, tools.GatewayMessageUpdate{Status: u})
	}
	return m
}

func listFilter(status string) repository.ConversationFilter {
	return repository.ConversationFilter{Status: status}
}
