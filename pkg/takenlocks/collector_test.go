package takenlocks

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
	"github.com/marrowvale/lockarbiter/pkg/locks"
	"github.com/marrowvale/lockarbiter/pkg/lockstore"
)

type memStore struct {
	m map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: make(map[string][]byte)} }

func (s *memStore) Get(k []byte) ([]byte, error) { return s.m[string(k)], nil }
func (s *memStore) Put(k, v []byte) error        { s.m[string(k)] = v; return nil }
func (s *memStore) Del(k []byte) error            { delete(s.m, string(k)); return nil }
func (s *memStore) Close() error                  { return nil }

var _ lockstore.Backend = (*memStore)(nil)

func TestCollectWithoutStoreUsesExtraction(t *testing.T) {
	l := hclog.NewNullLogger()
	extractor := locks.New(l)
	c := New(l, extractor, nil)

	running := []*domain.BuildPromotion{
		{
			ID:            "b1",
			ProjectID:     "p1",
			FeatureParams: map[string]string{locks.FeatureParamName: "agents readLock\n"},
		},
	}
	taken := c.Collect(running, nil, "p1")
	require.Contains(t, taken, "agents")
	assert.True(t, taken["agents"].HasReadLocks())
}

func TestCollectPrefersPersistedRecord(t *testing.T) {
	l := hclog.NewNullLogger()
	extractor := locks.New(l)
	store, err := lockstore.New(l, newMemStore())
	require.NoError(t, err)

	require.NoError(t, store.Store("b1", []domain.Lock{{Name: "agents", Mode: domain.Read, Value: "v9"}}))

	c := New(l, extractor, store)
	running := []*domain.BuildPromotion{
		{
			ID:        "b1",
			ProjectID: "p1",
			// Stale feature params - should be ignored in favor of the
			// persisted record.
			FeatureParams: map[string]string{locks.FeatureParamName: "agents writeLock\n"},
		},
	}
	taken := c.Collect(running, nil, "p1")
	require.Contains(t, taken, "agents")
	assert.True(t, taken["agents"].HasReadLocks())
	assert.False(t, taken["agents"].HasWriteLocks())
}

func TestCollectFiltersByProject(t *testing.T) {
	l := hclog.NewNullLogger()
	extractor := locks.New(l)
	c := New(l, extractor, nil)

	running := []*domain.BuildPromotion{
		{ID: "b1", ProjectID: "other", FeatureParams: map[string]string{locks.FeatureParamName: "agents readLock\n"}},
	}
	taken := c.Collect(running, nil, "p1")
	assert.Empty(t, taken)
}

func TestCollectIncludesPeerQueued(t *testing.T) {
	l := hclog.NewNullLogger()
	extractor := locks.New(l)
	c := New(l, extractor, nil)

	peer := []*domain.BuildPromotion{
		{ID: "b2", ProjectID: "p1", FeatureParams: map[string]string{locks.FeatureParamName: "agents writeLock\n"}},
	}
	taken := c.Collect(nil, peer, "p1")
	require.Contains(t, taken, "agents")
	assert.True(t, taken["agents"].HasWriteLocks())
}
