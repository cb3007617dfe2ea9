package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lembretes/internal/reminder"
)

// fakeBin is a minimal JSONBin v3 server holding one bin.
type fakeBin struct {
	mu      sync.Mutex
	binID   string
	key     string
	record  json.RawMessage
	failPut bool
}

func (f *fakeBin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("X-Master-Key") != f.key {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid X-Master-Key provided"}`))
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/b/"+f.binID+"/latest":
		record := f.record
		if record == nil {
			record = json.RawMessage(`{}`)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"record":` + string(record) + `,"metadata":{"id":"` + f.binID + `"}}`))
	case r.Method == http.MethodPut && r.URL.Path == "/b/"+f.binID:
		if f.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.record = body
		_, _ = w.Write([]byte(`{"record":` + string(body) + `,"metadata":{"parentId":"` + f.binID + `"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/b":
		body, _ := io.ReadAll(r.Body)
		f.record = body
		f.binID = "new-bin-" + r.Header.Get("X-Bin-Name")
		_, _ = w.Write([]byte(`{"record":` + string(body) + `,"metadata":{"id":"` + f.binID + `","private":true}}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBin) stored() json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

func (f *fakeBin) setFailPut(fail bool) {
	f.mu.Lock()
	f.failPut = fail
	f.mu.Unlock()
}

func newFakeBin(t *testing.T) (*fakeBin, *httptest.Server) {
	t.Helper()
	f := &fakeBin{binID: "bin123", key: "secret"}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestJSONBinStorage(t *testing.T) {
	_, srv := newFakeBin(t)

	s, err := NewJSONBinStorage(srv.URL, "secret", "bin123", srv.Client())
	require.NoError(t, err)

	runBackendTests(t, s)
}

func TestJSONBinStorage_WritesLembretesEnvelope(t *testing.T) {
	f, srv := newFakeBin(t)
	s, err := NewJSONBinStorage(srv.URL+"/", "secret", "bin123", srv.Client())
	require.NoError(t, err)

	require.NoError(t, s.ReplaceAll(context.Background(), testReminders()[:1]))

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(f.stored(), &body))
	require.Len(t, body["lembretes"], 1)
	assert.Equal(t, "rem1", body["lembretes"][0]["id"])
	assert.Equal(t, "Comprar pão", body["lembretes"][0]["texto"])
	assert.Equal(t, false, body["lembretes"][0]["concluido"])
}

func TestJSONBinStorage_Unconfigured(t *testing.T) {
	_, err := NewJSONBinStorage("", "", "bin123", nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = NewJSONBinStorage("", "secret", "", nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestJSONBinStorage_RemoteFailures(t *testing.T) {
	f, srv := newFakeBin(t)
	ctx := context.Background()

	wrongKey, err := NewJSONBinStorage(srv.URL, "wrong", "bin123", srv.Client())
	require.NoError(t, err)
	_, err = wrongKey.Load(ctx)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Contains(t, remote.Body, "Invalid X-Master-Key")

	s, err := NewJSONBinStorage(srv.URL, "secret", "bin123", srv.Client())
	require.NoError(t, err)
	f.setFailPut(true)
	err = s.ReplaceAll(ctx, testReminders())
	assert.ErrorIs(t, err, ErrRemote)

	srv.Close()
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrRemote)
}

func TestBinEnvelopeReminders(t *testing.T) {
	want := []*reminder.Reminder{testReminders()[0]}
	item, err := json.Marshal(want)
	require.NoError(t, err)
	quoted, err := json.Marshal(string(item))
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"record with lembretes", `{"record":{"lembretes":` + string(item) + `}}`, 1},
		{"record with data", `{"record":{"data":` + string(item) + `}}`, 1},
		{"top level data", `{"success":true,"data":` + string(item) + `}`, 1},
		{"data as string", `{"success":true,"data":` + string(quoted) + `}`, 1},
		{"empty record", `{"record":{}}`, 0},
		{"nothing", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env binEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))
			got, err := env.reminders()
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				if diff := cmp.Diff(want, got, equalTimes); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestCreateBin(t *testing.T) {
	f, srv := newFakeBin(t)

	id, err := CreateBin(context.Background(), srv.Client(), srv.URL, "secret", "lembretes", nil)
	require.NoError(t, err)
	assert.Equal(t, "new-bin-lembretes", id)
	assert.JSONEq(t, `{"lembretes":[]}`, string(f.stored()))

	_, err = CreateBin(context.Background(), srv.Client(), srv.URL, "", "lembretes", nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
