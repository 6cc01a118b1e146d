package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

type fakeStore struct {
	stored  map[string][]domain.Lock
	removed []string
	storeErr error
}

func (f *fakeStore) Store(buildID string, locks []domain.Lock) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.stored == nil {
		f.stored = make(map[string][]domain.Lock)
	}
	f.stored[buildID] = locks
	return nil
}

func (f *fakeStore) Remove(buildID string) error {
	f.removed = append(f.removed, buildID)
	return nil
}

func newTestReceiver(store LockStore) *Receiver {
	return NewReceiver(hclog.NewNullLogger(), store)
}

func TestHTTPStartedRecordsLocks(t *testing.T) {
	store := &fakeStore{}
	r := newTestReceiver(store)

	body, err := json.Marshal(startedPayload{
		BuildID: "b1",
		Locks:   []domain.Lock{{Name: "agents", Mode: domain.Read}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/started", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.HTTPEntry().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, store.stored, "b1")
	assert.Len(t, store.stored["b1"], 1)
}

func TestHTTPFinishedRemovesLocks(t *testing.T) {
	store := &fakeStore{}
	r := newTestReceiver(store)

	body, err := json.Marshal(finishedPayload{BuildID: "b1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/finished", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.HTTPEntry().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b1"}, store.removed)
}

func TestHTTPStartedMalformedBodyIsAnError(t *testing.T) {
	store := &fakeStore{}
	r := newTestReceiver(store)

	req := httptest.NewRequest(http.MethodPost, "/started", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	r.HTTPEntry().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHTTPStartedStoreErrorIsReported(t *testing.T) {
	store := &fakeStore{storeErr: errors.New("disk full")}
	r := newTestReceiver(store)

	body, err := json.Marshal(startedPayload{BuildID: "b1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/started", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.HTTPEntry().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var out struct{ Error string }
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, "disk full", out.Error)
}
