package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultGatewayTimeout = 30 * time.Second

// GatewayAPIError is returned when the Gateway answers with a non-2xx status.
type GatewayAPIError struct {
	StatusCode int
	Body       string
}

func (e GatewayAPIError) Error() string {
	return fmt.Sprintf("gateway api error: status=%d body=%s", e.StatusCode, e.Body)
}

// GatewayClient is a thin client for the tenant's WhatsApp Gateway.
// Every call is authenticated with the "apikey" header.
type GatewayClient struct {
	BaseURL    string
	ApiKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (c GatewayClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c GatewayClient) post(ctx context.Context, path string, instanceName string, body any, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return fmt.Errorf("gateway base url não configurada")
	}
	if strings.TrimSpace(instanceName) == "" {
		return fmt.Errorf("instance name é obrigatório")
	}
	endpoint := fmt.Sprintf("%s/%s/%s", base, strings.Trim(path, "/"), url.PathEscape(instanceName))

	if body == nil {
		body = map[string]any{}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", strings.TrimSpace(c.ApiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return GatewayAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode %s: %w", path, err)
	}
	return nil
}

// FindChats lists the chat summaries of one instance.
func (c GatewayClient) FindChats(ctx context.Context, instanceName string) ([]GatewayChat, error) {
	var chats []GatewayChat
	if err := c.post(ctx, "chat/findChats", instanceName, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// FindContacts lists the contact records of one instance.
func (c GatewayClient) FindContacts(ctx context.Context, instanceName string) ([]GatewayContact, error) {
	var contacts []GatewayContact
	body := map[string]any{"where": map[string]any{}}
	if err := c.post(ctx, "chat/findContacts", instanceName, body, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// FindMessages fetches one page of messages of a chat. In the Gateway API "offset" is the page size.
func (c GatewayClient) FindMessages(ctx context.Context, instanceName string, remoteJid string, page int, pageSize int) (GatewayMessagePage, error) {
	body := map[string]any{
		"where": map[string]any{
			"key": map[string]any{"remoteJid": remoteJid},
		},
		"page":   page,
		"offset": pageSize,
	}
	var resp struct {
		Messages GatewayMessagePage `json:"messages"`
	}
	if err := c.post(ctx, "chat/findMessages", instanceName, body, &resp); err != nil {
		return GatewayMessagePage{}, err
	}
	return resp.Messages, nil
}

// FindStatusMessage returns the delivery status detail of one message as sent by the Gateway.
func (c GatewayClient) FindStatusMessage(ctx context.Context, instanceName string, remoteJid string, messageID string) (json.RawMessage, error) {
	body := map[string]any{
		"where": map[string]any{
			"remoteJid": remoteJid,
			"id":        messageID,
		},
	}
	var raw json.RawMessage
	if err := c.post(ctx, "chat/findStatusMessage", instanceName, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
