package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lembretes/internal/reminder"
	"lembretes/internal/service"
	"lembretes/internal/session"
	"lembretes/internal/storage"
)

var baseTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// flakyBackend wraps a memory store and fails on demand.
type flakyBackend struct {
	*storage.MemoryStorage
	loadErr  error
	writeErr error
}

func (f *flakyBackend) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.MemoryStorage.Load(ctx)
}

func (f *flakyBackend) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStorage.ReplaceAll(ctx, items)
}

type fixture struct {
	backend *flakyBackend
	sess    *session.Session
	router  *mux.Router
}

func setup(t *testing.T, seed ...*reminder.Reminder) *fixture {
	t.Helper()
	backend := &flakyBackend{MemoryStorage: storage.NewMemoryStorage()}
	require.NoError(t, backend.ReplaceAll(context.Background(), seed))

	clock := baseTime
	seq := 0
	svc := service.New(backend,
		service.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
		service.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	sess := session.New(svc)
	h := New(sess, nil)
	h.now = func() time.Time { return baseTime }

	return &fixture{backend: backend, sess: sess, router: NewRouter(h, "")}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error.Code
}

func seeded(id, text string, minutes int, completed bool) *reminder.Reminder {
	r := reminder.New(id, text, baseTime.Add(time.Duration(minutes)*time.Minute))
	r.SetCompleted(completed, baseTime.Add(time.Hour))
	return r
}

func TestCreateReminderHandler(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodPost, "/api/lembretes", `{"texto":"  Comprar pão  "}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created reminder.Reminder
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Comprar pão", created.Text)
	assert.False(t, created.Completed)

	stored, err := f.backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestCreateReminderHandler_Validation(t *testing.T) {
	f := setup(t, seeded("a", "Buy milk", 0, false))

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"empty", `{"texto":"   "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"too short", `{"texto":"ab"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"too long", `{"texto":"` + strings.Repeat("x", 201) + `"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate", `{"texto":"buy milk "}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad json", `{"texto":`, http.StatusBadRequest, "INVALID_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/lembretes", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, errorCode(t, w))
		})
	}

	stored, err := f.backend.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestListRemindersHandler(t *testing.T) {
	f := setup(t,
		seeded("a", "Older open", 0, false),
		seeded("b", "Newest done", 20, true),
		seeded("c", "Middle open", 10, false),
	)

	w := f.do(t, http.MethodGet, "/api/lembretes?sort=status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp listResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	ids := make([]string, 0, len(resp.Items))
	for _, r := range resp.Items {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, reminder.Stats{Total: 3, Completed: 1, Percent: 33}, resp.Stats)

	w = f.do(t, http.MethodGet, "/api/lembretes?show_completed=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 3, resp.Stats.Total)
}

func TestListRemindersHandler_BadQuery(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/lembretes?sort=alpha", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/lembretes?show_completed=talvez", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRemindersHandler_LoadFailure(t *testing.T) {
	f := setup(t, seeded("a", "Something", 0, false))
	f.backend.loadErr = &storage.RemoteError{Op: "load", StatusCode: http.StatusInternalServerError}

	w := f.do(t, http.MethodGet, "/api/lembretes", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "LOAD_FAILED", errorCode(t, w))

	f.backend.loadErr = nil
	w = f.do(t, http.MethodGet, "/api/lembretes", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToggleReminderHandler(t *testing.T) {
	f := setup(t, seeded("a", "Walk the dog", 0, false))

	w := f.do(t, http.MethodPost, "/api/lembretes/a/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	var r reminder.Reminder
	require.NoError(t, json.NewDecoder(w.Body).Decode(&r))
	assert.True(t, r.Completed)
	assert.NotNil(t, r.CompletedAt)

	w = f.do(t, http.MethodPost, "/api/lembretes/a/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&r))
	assert.False(t, r.Completed)
	assert.Nil(t, r.CompletedAt)

	w = f.do(t, http.MethodPost, "/api/lembretes/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateReminderHandler(t *testing.T) {
	f := setup(t,
		seeded("a", "Walk the dog", 0, false),
		seeded("b", "Feed the cat", 1, false),
	)

	w := f.do(t, http.MethodPatch, "/api/lembretes/a", `{"texto":"Walk the dogs"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var r reminder.Reminder
	require.NoError(t, json.NewDecoder(w.Body).Decode(&r))
	assert.Equal(t, "Walk the dogs", r.Text)

	w = f.do(t, http.MethodPatch, "/api/lembretes/a", `{"texto":"FEED THE CAT"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/lembretes/a", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/lembretes/zzz", `{"concluido":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteReminderHandler(t *testing.T) {
	f := setup(t, seeded("a", "Walk the dog", 0, false))

	w := f.do(t, http.MethodDelete, "/api/lembretes/a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/api/lembretes/a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	stored, err := f.backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClearRemindersHandler(t *testing.T) {
	f := setup(t, seeded("a", "One thing", 0, false), seeded("b", "Other thing", 1, true))

	w := f.do(t, http.MethodDelete, "/api/lembretes", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/lembretes", "")
	var resp listResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Items)
}

func TestPersistenceFailure(t *testing.T) {
	f := setup(t, seeded("a", "Walk the dog", 0, false))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/lembretes", "").Code)

	f.backend.writeErr = errors.New("disk full")
	w := f.do(t, http.MethodPost, "/api/lembretes", `{"texto":"New one"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "STORAGE_ERROR", errorCode(t, w))

	w = f.do(t, http.MethodGet, "/api/notice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var n session.Notice
	require.NoError(t, json.NewDecoder(w.Body).Decode(&n))
	assert.Equal(t, session.NoticeError, n.Kind)
	assert.Equal(t, "Erro ao adicionar lembrete", n.Message)

	assert.Len(t, f.sess.List(reminder.DefaultViewOptions()), 1)
}

func TestExportHandler(t *testing.T) {
	f := setup(t, seeded("a", "Walk the dog", 0, true))

	w := f.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="lembretes-backup-2024-03-10.json"`, w.Header().Get("Content-Disposition"))

	var snap service.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, "1.0", snap.Version)
	assert.Equal(t, storage.TypeMemory, snap.StorageType)
	assert.Equal(t, 1, snap.Count)
}

func TestImportHandler(t *testing.T) {
	f := setup(t, seeded("old", "Old item", 0, false))

	doc := `{"version":"1.0","data":[
		{"id":"x1","texto":"Imported one","concluido":false,"criadoEm":"2024-01-01T10:00:00Z"},
		{"id":"x2","texto":"Imported two","concluido":true,"criadoEm":"2024-01-02T10:00:00Z","concluidoEm":"2024-01-03T10:00:00Z"}
	]}`
	w := f.do(t, http.MethodPost, "/api/import", doc)
	require.Equal(t, http.StatusOK, w.Code)

	var res service.ImportResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Imported)

	_, ok := f.sess.Get("x2")
	assert.True(t, ok)
	_, ok = f.sess.Get("old")
	assert.False(t, ok)
}

func TestImportHandler_Rejected(t *testing.T) {
	f := setup(t, seeded("old", "Old item", 0, false))

	doc := `{"data":[{"id":"x1","texto":"ok","concluido":false},{"id":"","texto":"bad","concluido":false}]}`
	w := f.do(t, http.MethodPost, "/api/import", doc)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "IMPORT_REJECTED", errorCode(t, w))

	stored, err := f.backend.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "old", stored[0].ID)
}

func TestInfoAndHealth(t *testing.T) {
	f := setup(t, seeded("a", "Walk the dog", 0, false))

	w := f.do(t, http.MethodGet, "/api/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info service.Info
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, service.Info{Type: storage.TypeMemory, Available: true, ItemCount: 1}, info)

	w = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoticeHandler_NoContentWhenEmpty(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/api/notice", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	svc := service.New(storage.NewMemoryStorage())
	router := NewRouter(New(session.New(svc), nil), dir)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
}
