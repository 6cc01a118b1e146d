package affinity

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestStoreAndOtherAssignedValues(t *testing.T) {
	s := New(hclog.NewNullLogger())
	s.Store("b1", map[string]string{"r1": "v1"})
	s.Store("b2", map[string]string{"r1": "v2"})

	others := s.OtherAssignedValues("r1", "b1")
	assert.Equal(t, map[string]struct{}{"v2": {}}, others)
}

func TestActualizePrunesDeadEntries(t *testing.T) {
	s := New(hclog.NewNullLogger())
	s.Store("b1", map[string]string{"r1": "v1"})
	s.Store("b2", map[string]string{"r1": "v2"})

	s.Actualize(map[string]struct{}{"b1": {}})
	assert.Equal(t, 1, s.Len())

	others := s.OtherAssignedValues("r1", "")
	assert.Equal(t, map[string]struct{}{"v1": {}}, others)
}

func TestStoreCopiesPicksMap(t *testing.T) {
	s := New(hclog.NewNullLogger())
	picks := map[string]string{"r1": "v1"}
	s.Store("b1", picks)
	picks["r1"] = "mutated"

	others := s.OtherAssignedValues("r1", "")
	assert.Equal(t, map[string]struct{}{"v1": {}}, others)
}
