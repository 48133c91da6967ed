package services

import (
	"context"
	"errors"
	"testing"

	"zapcrm/models"
	"zapcrm/repository"
)

type brokenConfigs struct{}

func (brokenConfigs) FindByOrganization(ctx context.Context, orgID int64) (*models.GatewayConfig, error) {
	return nil, errors.New("connection refused")
}

func (brokenConfigs) Upsert(ctx context.Context, cfg *models.GatewayConfig) error {
	return errors.New("connection refused")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *models.GatewayConfig
		wantOK  bool
		wantURL string
	}{
		{name: "missing row", cfg: nil, wantOK: false},
		{name: "empty api key", cfg: &models.GatewayConfig{BaseURL: "http://gw", ApiKey: "  "}, wantOK: false},
		{name: "empty base url", cfg: &models.GatewayConfig{BaseURL: "", ApiKey: "k"}, wantOK: false},
		{name: "complete and trimmed", cfg: &models.GatewayConfig{BaseURL: " http://gw/ ", ApiKey: " k "}, wantOK: true, wantURL: "http://gw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := repository.NewMemory().Repositories()
			if tt.cfg != nil {
				tt.cfg.OrganizationID = testOrg
				if err := repos.GatewayConfigs.Upsert(context.Background(), tt.cfg); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			creds, ok, err := NewGatewayResolver(repos.GatewayConfigs).Resolve(context.Background(), testOrg)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok && (creds.BaseURL != "" || creds.ApiKey != "") {
				t.Errorf("Resolve() returned partial credentials %+v", creds)
			}
			if ok && (creds.BaseURL != tt.wantURL || creds.ApiKey != "k") {
				t.Errorf("Resolve() = %+v, want %s/k", creds, tt.wantURL)
			}
		})
	}
}

func TestResolve_StorageErrorIsAnError(t *testing.T) {
	_, ok, err := NewGatewayResolver(brokenConfigs{}).Resolve(context.Background(), testOrg)
	if err == nil || ok {
		t.Fatalf("Resolve() = ok %v err %v, want storage error", ok, err)
	}
}

func TestRequire_NotConfigured(t *testing.T) {
	repos := repository.NewMemory().Repositories()
	_, err := NewGatewayResolver(repos.GatewayConfigs).Require(context.Background(), testOrg)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Require() error = %v, want ErrNotConfigured", err)
	}
}

func TestSave(t *testing.T) {
	repos := repository.NewMemory().Repositories()
	r := NewGatewayResolver(repos.GatewayConfigs)
	ctx := context.Background()

	for _, bad := range []struct{ url, key string }{
		{"not a url", "k"},
		{"ftp://gw", "k"},
		{"http://gw", ""},
	} {
		if _, err := r.Save(ctx, testOrg, bad.url, bad.key); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Save(%q, %q) error = %v, want ErrInvalidInput", bad.url, bad.key, err)
		}
	}

	cfg, err := r.Save(ctx, testOrg, "https://gw.example.com/", " secret ")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if cfg.BaseURL != "https://gw.example.com" || cfg.ApiKey != "secret" {
		t.Errorf("Save() stored %q/%q", cfg.BaseURL, cfg.ApiKey)
	}
	creds, ok, err := r.Resolve(ctx, testOrg)
	if err != nil || !ok {
		t.Fatalf("Resolve() after Save = %v %v", ok, err)
	}
	if creds.ApiKey != "secret" {
		t.Errorf("ApiKey = %q, want secret", creds.ApiKey)
	}
}
