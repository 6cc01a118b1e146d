package lockstore

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

type memStore struct {
	m map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: make(map[string][]byte)} }

func (s *memStore) Get(k []byte) ([]byte, error) { return s.m[string(k)], nil }
func (s *memStore) Put(k, v []byte) error        { s.m[string(k)] = v; return nil }
func (s *memStore) Del(k []byte) error            { delete(s.m, string(k)); return nil }
func (s *memStore) Close() error                  { return nil }

func TestStoreLoadRemoveRoundTrip(t *testing.T) {
	s, err := New(hclog.NewNullLogger(), newMemStore())
	require.NoError(t, err)

	locks := []domain.Lock{
		{Name: "agents", Mode: domain.Read},
		{Name: "ports", Mode: domain.Read, Value: "8080"},
	}
	require.NoError(t, s.Store("b1", locks))
	assert.True(t, s.LocksStored("b1"))

	loaded := s.Load("b1")
	assert.Len(t, loaded, 2)
	assert.Equal(t, "8080", loaded["ports"].Value)

	require.NoError(t, s.Remove("b1"))
	assert.False(t, s.LocksStored("b1"))
	assert.Empty(t, s.Load("b1"))
}

func TestStoreCompressesLargeRecords(t *testing.T) {
	backing := newMemStore()
	s, err := New(hclog.NewNullLogger(), backing)
	require.NoError(t, err)

	var locks []domain.Lock
	for i := 0; i < 50; i++ {
		locks = append(locks, domain.Lock{Name: "agents", Mode: domain.Read, Value: strings.Repeat("x", 10)})
	}
	require.NoError(t, s.Store("big", locks))

	raw := backing.m[string(key("big"))]
	assert.Greater(t, len(raw), 4)
	assert.Equal(t, magic, raw[:4])

	loaded := s.Load("big")
	assert.Len(t, loaded, 1) // same resource name collapses to one map entry
}

func TestLoadMissingRecordIsEmpty(t *testing.T) {
	s, err := New(hclog.NewNullLogger(), newMemStore())
	require.NoError(t, err)
	assert.Empty(t, s.Load("nonexistent"))
	assert.False(t, s.LocksStored("nonexistent"))
}
