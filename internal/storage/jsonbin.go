package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lembretes/internal/reminder"
)

const (
	DefaultJSONBinURL = "https://api.jsonbin.io/v3"

	masterKeyHeader = "X-Master-Key"
	maxErrorBody    = 512
)

// JSONBinStorage keeps the collection in a single JSONBin document. Each
// load fetches the latest version of the bin and each write PUTs the whole
// record back.
type JSONBinStorage struct {
	baseURL   string
	masterKey string
	binID     string
	client    *http.Client
}

type binRecord struct {
	Lembretes []*reminder.Reminder `json:"lembretes"`
	Data      json.RawMessage      `json:"data,omitempty"`
}

type binEnvelope struct {
	Success  *bool           `json:"success,omitempty"`
	Message  string          `json:"message,omitempty"`
	Record   *binRecord      `json:"record,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata struct {
		ID string `json:"id"`
	} `json:"metadata"`
}

// NewJSONBinStorage fails with ErrStorageUnavailable when either the master
// key or the bin id is missing. A nil client gets a 15s timeout client.
func NewJSONBinStorage(baseURL, masterKey, binID string, client *http.Client) (*JSONBinStorage, error) {
	if masterKey == "" {
		return nil, unavailable("jsonbin master key is not configured")
	}
	if binID == "" {
		return nil, unavailable("jsonbin bin id is not configured")
	}
	return &JSONBinStorage{
		baseURL:   normalizeBaseURL(baseURL),
		masterKey: masterKey,
		binID:     binID,
		client:    defaultClient(client),
	}, nil
}

func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultJSONBinURL
	}
	return strings.TrimRight(baseURL, "/")
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (s *JSONBinStorage) Type() string {
	return TypeJSONBin
}

func (s *JSONBinStorage) BinID() string {
	return s.binID
}

func (s *JSONBinStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	const op = "jsonbin load"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/b/%s/latest", s.baseURL, s.binID), nil)
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	req.Header.Set(masterKeyHeader, s.masterKey)

	var env binEnvelope
	if err := s.do(op, req, &env); err != nil {
		return nil, err
	}
	items, err := env.reminders()
	if err != nil {
		return nil, &RemoteError{Op: op, Err: err}
	}
	return items, nil
}

func (s *JSONBinStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	const op = "jsonbin replace"

	if items == nil {
		items = []*reminder.Reminder{}
	}
	body, err := json.Marshal(binRecord{Lembretes: items})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, fmt.Sprintf("%s/b/%s", s.baseURL, s.binID), bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(masterKeyHeader, s.masterKey)

	return s.do(op, req, nil)
}

func (s *JSONBinStorage) Clear(ctx context.Context) error {
	return s.ReplaceAll(ctx, nil)
}

func (s *JSONBinStorage) do(op string, req *http.Request, out *binEnvelope) error {
	return doBinRequest(s.client, op, req, out)
}

func doBinRequest(client *http.Client, op string, req *http.Request, out *binEnvelope) error {
	resp, err := client.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Success != nil && !*out.Success {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: out.Message}
	}
	return nil
}

// reminders accepts both envelopes seen in the wild:
// {record:{lembretes:[...]}} and {success, data:[...]}. Older bins stored the
// list as a JSON string inside "data".
func (e *binEnvelope) reminders() ([]*reminder.Reminder, error) {
	if e.Record != nil {
		if e.Record.Lembretes != nil {
			return e.Record.Lembretes, nil
		}
		if len(e.Record.Data) > 0 {
			return decodeDataField(e.Record.Data)
		}
		return []*reminder.Reminder{}, nil
	}
	if len(e.Data) > 0 {
		return decodeDataField(e.Data)
	}
	return []*reminder.Reminder{}, nil
}

func decodeDataField(raw json.RawMessage) ([]*reminder.Reminder, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []*reminder.Reminder{}, nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = json.RawMessage(inner)
	}
	var list []*reminder.Reminder
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []*reminder.Reminder{}
	}
	return list, nil
}

// CreateBin creates a new private bin holding items and returns its id. It
// only needs the master key, so it is usable before a bin id is configured.
func CreateBin(ctx context.Context, client *http.Client, baseURL, masterKey, name string, items []*reminder.Reminder) (string, error) {
	const op = "jsonbin create"

	if masterKey == "" {
		return "", unavailable("jsonbin master key is not configured")
	}
	if items == nil {
		items = []*reminder.Reminder{}
	}
	body, err := json.Marshal(binRecord{Lembretes: items})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, normalizeBaseURL(baseURL)+"/b", bytes.NewReader(body))
	if err != nil {
		return "", &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(masterKeyHeader, masterKey)
	req.Header.Set("X-Bin-Private", "true")
	if name != "" {
		req.Header.Set("X-Bin-Name", name)
	}

	var env binEnvelope
	if err := doBinRequest(defaultClient(client), op, req, &env); err != nil {
		return "", err
	}
	if env.Metadata.ID == "" {
		return "", &RemoteError{Op: op, Err: fmt.Errorf("response carries no bin id")}
	}
	return env.Metadata.ID, nil
}
