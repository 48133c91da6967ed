package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

// httpFixture points the sync service at a real HTTP Gateway served by handler.
func httpFixture(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := newFixture(t)
	if err := f.repos.GatewayConfigs.Upsert(context.Background(), &models.GatewayConfig{OrganizationID: testOrg, BaseURL: srv.URL, ApiKey: "key"}); err != nil {
		t.Fatal(err)
	}
	f.sync = NewSyncService(f.repos, HTTPGatewayFactory(timeout), f.emitter, SyncOptions{Timeout: timeout})
	return f
}

func TestSyncChats_GatewayHTTPError(t *testing.T) {
	f := httpFixture(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "instance vendas not found", http.StatusNotFound)
	})

	res, err := f.sync.SyncChats(context.Background(), testOrg, f.instance.ID)
	if err != nil {
		t.Fatalf("SyncChats() error = %v, want envelope", err)
	}
	if res.Success {
		t.Fatal("SyncChats() success = true, want false")
	}
	if !strings.Contains(res.Message, "instance vendas not found") || !strings.Contains(res.Message, "status=404") {
		t.Errorf("Message = %q, want the gateway error text", res.Message)
	}
	if n := f.countContacts(t); n != 0 {
		t.Errorf("contacts = %d, want 0", n)
	}
	if n := len(f.conversations(t)); n != 0 {
		t.Errorf("conversations = %d, want 0", n)
	}
}

func TestSyncChats_OverHTTP(t *testing.T) {
	f := httpFixture(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/findChats/vendas" || r.Header.Get("apikey") != "key" {
			http.Error(w, "unexpected "+r.URL.Path, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`[{"id":"c1","remoteJid":"5511999@s.whatsapp.net","pushName":"Ana","updatedAt":"2024-05-01T10:00:00.000Z","windowActive":true}]`))
	})

	res, err := f.sync.SyncChats(context.Background(), testOrg, f.instance.ID)
	if err != nil || !res.Success {
		t.Fatalf("SyncChats() = %+v, %v", res, err)
	}
	convs := f.conversations(t)
	if len(convs) != 1 || convs[0].Metadata["windowActive"] != true {
		t.Errorf("conversations = %+v", convs)
	}
}

func TestSyncChats_GatewayTimeout(t *testing.T) {
	f := httpFixture(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	res, err := f.sync.SyncChats(context.Background(), testOrg, f.instance.ID)
	if err != nil {
		t.Fatalf("SyncChats() error = %v", err)
	}
	if res.Success {
		t.Error("SyncChats() success = true, want timeout failure")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("SyncChats() took %v, want bounded by the timeout", elapsed)
	}
}

func TestSync_NotConfigured(t *testing.T) {
	mem := repository.NewMemory()
	repos := mem.Repositories()
	mem.AddUser(models.User{OrganizationID: testOrg})
	inst := &models.Instance{OrganizationID: testOrg, InstanceName: "vendas"}
	if err := repos.Instances.Create(context.Background(), inst); err != nil {
		t.Fatal(err)
	}
	called := false
	factory := func(GatewayCredentials) Gateway { called = true; return &fakeGateway{} }
	s := NewSyncService(repos, factory, nil, SyncOptions{})
	ctx := context.Background()

	results := map[string]func() (SyncResult, error){
		"SyncChats":        func() (SyncResult, error) { return s.SyncChats(ctx, testOrg, inst.ID) },
		"GetContacts":      func() (SyncResult, error) { return s.GetContacts(ctx, testOrg, inst.ID) },
		"GetMessageStatus": func() (SyncResult, error) { return s.GetMessageStatus(ctx, testOrg, inst.ID, "j", "m") },
	}
	for name, fn := range results {
		res, err := fn()
		if err != nil {
			t.Errorf("%s() error = %v, want envelope", name, err)
			continue
		}
		if res.Success || res.Message != MSG_NOT_CONFIGURED {
			t.Errorf("%s() = %+v, want not configured", name, res)
		}
	}
	if called {
		t.Error("gateway client built for an unconfigured tenant")
	}
}

func TestSync_InstanceNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.sync.SyncChats(context.Background(), testOrg, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("SyncChats(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := f.sync.SyncMessages(context.Background(), testOrg, 9999, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("SyncMessages(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSyncMessages_UsesStoredRemoteJid(t *testing.T) {
	f := newFixture(t)
	conv := f.openConversation(t, 10)
	f.gw.pages = map[int]tools.GatewayMessagePage{
		1: {Pages: 1, Records: []tools.GatewayMessage{textMessage("A", "oi", false), textMessage("B", "ok", true, "READ")}},
	}

	res, err := f.sync.SyncMessages(context.Background(), testOrg, conv.ID, "")
	if err != nil {
		t.Fatalf("SyncMessages() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("SyncMessages() = %+v", res)
	}
	if f.gw.lastJid != "5511999@s.whatsapp.net" {
		t.Errorf("remoteJid sent = %q", f.gw.lastJid)
	}
	data := res.Data.(ImportResult)
	if data.Created != 2 {
		t.Errorf("Created = %d, want 2", data.Created)
	}
}

func TestSyncMessages_GatewayErrorEnvelope(t *testing.T) {
	f := newFixture(t)
	conv := f.openConversation(t, 10)
	f.gw.pageErr = map[int]error{1: errors.New("connection reset")}

	res, err := f.sync.SyncMessages(context.Background(), testOrg, conv.ID, "")
	if err != nil {
		t.Fatalf("SyncMessages() error = %v", err)
	}
	if res.Success || !strings.Contains(res.Message, "connection reset") {
		t.Errorf("SyncMessages() = %+v, want failure with gateway text", res)
	}
}

func TestGetContacts(t *testing.T) {
	f := newFixture(t)
	f.gw.contacts = []tools.GatewayContact{
		{ID: "1", RemoteJid: "5511999@s.whatsapp.net", PushName: "Ana"},
		{ID: "2", RemoteJid: "120363@g.us", PushName: "Grupo"},
	}
	res, err := f.sync.GetContacts(context.Background(), testOrg, f.instance.ID)
	if err != nil || !res.Success {
		t.Fatalf("GetContacts() = %+v, %v", res, err)
	}
	data := res.Data.(ContactsSummary)
	if len(data.Contacts) != 2 || data.Counts.Created != 1 {
		t.Errorf("GetContacts() data = %+v", data)
	}
	if n := f.countContacts(t); n != 1 {
		t.Errorf("contacts = %d, want 1", n)
	}
}

func TestGetMessageStatus(t *testing.T) {
	f := newFixture(t)
	f.gw.status = json.RawMessage(`[{"status":"READ"}]`)

	if _, err := f.sync.GetMessageStatus(context.Background(), testOrg, f.instance.ID, "", "m"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("GetMessageStatus(no jid) error = %v, want ErrInvalidInput", err)
	}
	res, err := f.sync.GetMessageStatus(context.Background(), testOrg, f.instance.ID, "5511999@s.whatsapp.net", "ABC")
	if err != nil || !res.Success {
		t.Fatalf("GetMessageStatus() = %+v, %v", res, err)
	}
	data := res.Data.(MessageStatusData)
	if string(data.Status) != `[{"status":"READ"}]` || f.gw.lastMessage != "ABC" {
		t.Errorf("GetMessageStatus() data = %+v", data)
	}
}

func TestSyncAll(t *testing.T) {
	f := newFixture(t)
	f.gw.chats = []tools.GatewayChat{anaChat()}
	off := &models.Instance{OrganizationID: testOrg, InstanceName: "antigo", Status: models.INSTANCE_STATUS_DISCONNECTED}
	if err := f.repos.Instances.Create(context.Background(), off); err != nil {
		t.Fatal(err)
	}
	n, err := f.sync.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("SyncAll() synced %d instances, want 1", n)
	}
}
