package local

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(hclog.NewNullLogger())
	require.NoError(t, err)
	return p.(*Provider)
}

func TestMarkRunningMovesOutOfPeerQueued(t *testing.T) {
	p := newTestProvider(t)
	b := &domain.BuildPromotion{ID: "b1"}

	p.MarkQueued(b)
	queued, err := p.PeerQueued()
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	p.MarkRunning(b)
	queued, err = p.PeerQueued()
	require.NoError(t, err)
	assert.Empty(t, queued)

	running, err := p.Running()
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "b1", running[0].ID)
}

func TestMarkFinishedRemovesFromBothSets(t *testing.T) {
	p := newTestProvider(t)
	running := &domain.BuildPromotion{ID: "r1"}
	queued := &domain.BuildPromotion{ID: "q1"}
	p.MarkRunning(running)
	p.MarkQueued(queued)

	p.MarkFinished("r1")
	p.MarkFinished("q1")

	r, err := p.Running()
	require.NoError(t, err)
	assert.Empty(t, r)

	q, err := p.PeerQueued()
	require.NoError(t, err)
	assert.Empty(t, q)
}
