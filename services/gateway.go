package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"zapcrm/models"
	"zapcrm/repository"
	"zapcrm/tools"
)

// Gateway is the subset of the WhatsApp Gateway API the sync engine uses.
type Gateway interface {
	FindChats(ctx context.Context, instanceName string) ([]tools.GatewayChat, error)
	FindContacts(ctx context.Context, instanceName string) ([]tools.GatewayContact, error)
	FindMessages(ctx context.Context, instanceName string, remoteJid string, page int, pageSize int) (tools.GatewayMessagePage, error)
	FindStatusMessage(ctx context.Context, instanceName string, remoteJid string, messageID string) (json.RawMessage, error)
}

// GatewayFactory builds a client for one tenant's credentials.
type GatewayFactory func(creds GatewayCredentials) Gateway

// HTTPGatewayFactory returns clients backed by tools.GatewayClient with the given per-call timeout.
func HTTPGatewayFactory(timeout time.Duration) GatewayFactory {
	return func(creds GatewayCredentials) Gateway {
		return tools.GatewayClient{BaseURL: creds.BaseURL, ApiKey: creds.ApiKey, Timeout: timeout}
	}
}

type GatewayCredentials struct {
	BaseURL string
	ApiKey  string
}

// GatewayResolver resolve as credenciais do Gateway de cada organização.
// Fail closed: se faltar base url ou api key o tenant é tratado como "não configurado".
type GatewayResolver struct {
	configs repository.GatewayConfigRepository
}

func NewGatewayResolver(configs repository.GatewayConfigRepository) *GatewayResolver {
	return &GatewayResolver{configs: configs}
}

// Resolve returns ok=false for a missing or incomplete configuration; err is reserved for storage failures.
func (r *GatewayResolver) Resolve(ctx context.Context, orgID int64) (GatewayCredentials, bool, error) {
	cfg, err := r.configs.FindByOrganization(ctx, orgID)
	if errors.Is(err, repository.ErrNotFound) {
		return GatewayCredentials{}, false, nil
	}
	if err != nil {
		return GatewayCredentials{}, false, fmt.Errorf("resolve gateway config org=%d: %w", orgID, err)
	}
	creds := GatewayCredentials{
		BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		ApiKey:  strings.TrimSpace(cfg.ApiKey),
	}
	if creds.BaseURL == "" || creds.ApiKey == "" {
		return GatewayCredentials{}, false, nil
	}
	return creds, true, nil
}

// Require is Resolve with "not configured" reported as ErrNotConfigured.
func (r *GatewayResolver) Require(ctx context.Context, orgID int64) (GatewayCredentials, error) {
	creds, ok, err := r.Resolve(ctx, orgID)
	if err != nil {
		return GatewayCredentials{}, err
	}
	if !ok {
		return GatewayCredentials{}, ErrNotConfigured
	}
	return creds, nil
}

// Save validates and stores the tenant credentials.
func (r *GatewayResolver) Save(ctx context.Context, orgID int64, baseURL, apiKey string) (*models.GatewayConfig, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, invalidInput("api_key é obrigatório")
	}
	baseURL, ok := tools.NormalizeGatewayURL(baseURL)
	if !ok {
		return nil, invalidInput("base_url inválida: %q", baseURL)
	}
	cfg := &models.GatewayConfig{OrganizationID: orgID, BaseURL: baseURL, ApiKey: apiKey}
	if err := r.configs.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save gateway config org=%d: %w", orgID, err)
	}
	return cfg, nil
}
