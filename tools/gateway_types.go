package tools

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// GatewayChat is one entry of chat/findChats.
type GatewayChat struct {
	ID            string      `json:"id"`
	RemoteJid     string      `json:"remoteJid"`
	PushName      string      `json:"pushName"`
	ProfilePicURL string      `json:"profilePicUrl"`
	UpdatedAt     GatewayTime `json:"updatedAt"`
	WindowStart   any         `json:"windowStart,omitempty"`
	WindowExpires any         `json:"windowExpires,omitempty"`
	WindowActive  any         `json:"windowActive,omitempty"`
}

// GatewayContact is one entry of chat/findContacts.
type GatewayContact struct {
	ID            string      `json:"id"`
	RemoteJid     string      `json:"remoteJid"`
	PushName      string      `json:"pushName"`
	ProfilePicURL string      `json:"profilePicUrl"`
	UpdatedAt     GatewayTime `json:"updatedAt"`
}

type GatewayMessagePage struct {
	Total       int              `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"currentPage"`
	Records     []GatewayMessage `json:"records"`
}

type GatewayMessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type GatewayMessageUpdate struct {
	Status string `json:"status"`
}

// GatewayMessage is one record of chat/findMessages. Raw keeps the record exactly as received.
type GatewayMessage struct {
	Key              GatewayMessageKey      `json:"key"`
	PushName         string                 `json:"pushName"`
	MessageType      string                 `json:"messageType"`
	Message          *GatewayMessageContent `json:"message"`
	MessageTimestamp GatewayTime            `json:"messageTimestamp"`
	MessageUpdate    []GatewayMessageUpdate `json:"MessageUpdate"`
	Raw              json.RawMessage        `json:"-"`
}

func (m *GatewayMessage) UnmarshalJSON(b []byte) error {
	type alias GatewayMessage
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = GatewayMessage(a)
	m.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// GatewayMessageContent holds the payload variants we know how to classify.
type GatewayMessageContent struct {
	Conversation        string               `json:"conversation"`
	ExtendedTextMessage *GatewayExtendedText `json:"extendedTextMessage"`
	ImageMessage        *GatewayMedia        `json:"imageMessage"`
	DocumentMessage     *GatewayMedia        `json:"documentMessage"`
	AudioMessage        *GatewayMedia        `json:"audioMessage"`
	VideoMessage        *GatewayMedia        `json:"videoMessage"`
}

type GatewayExtendedText struct {
	Text string `json:"text"`
}

type GatewayMedia struct {
	Caption  string `json:"caption"`
	FileName string `json:"fileName"`
	Mimetype string `json:"mimetype"`
	URL      string `json:"url"`
}

// GatewayTime accepts the timestamp shapes the Gateway emits: RFC3339 strings,
// unix seconds (number or numeric string) and unix milliseconds.
// Anything unparseable decodes to the zero time instead of failing the whole page.
type GatewayTime struct {
	time.Time
}

func (t *GatewayTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.Time = parseGatewayTimeString(s)
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = unixToTime(int64(n))
	return nil
}

func (t GatewayTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// Ptr returns nil for the zero time.
func (t GatewayTime) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func parseGatewayTimeString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07", "2006-01-02 15:04:05"} {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unixToTime(n)
	}
	return time.Time{}
}

func unixToTime(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	// ms timestamps have 13 digits
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
