package hostsim

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

type fakeProvider struct{}

func (fakeProvider) Running() ([]*domain.BuildPromotion, error)    { return nil, nil }
func (fakeProvider) PeerQueued() ([]*domain.BuildPromotion, error) { return nil, nil }

func TestInitializeUnknownProviderErrors(t *testing.T) {
	SetLogger(hclog.NewNullLogger())
	_, err := Initialize("does-not-exist")
	assert.Error(t, err)
}

func TestRegisterFactoryAndInitialize(t *testing.T) {
	SetLogger(hclog.NewNullLogger())
	RegisterFactory("test-provider", func(hclog.Logger) (Provider, error) {
		return fakeProvider{}, nil
	})

	p, err := Initialize("test-provider")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRegisterCallbackDefersRegistration(t *testing.T) {
	SetLogger(hclog.NewNullLogger())
	called := false
	RegisterCallback(func() {
		called = true
		RegisterFactory("test-provider-deferred", func(hclog.Logger) (Provider, error) {
			return fakeProvider{}, nil
		})
	})
	assert.False(t, called)

	DoCallbacks()
	assert.True(t, called)

	p, err := Initialize("test-provider-deferred")
	require.NoError(t, err)
	assert.NotNil(t, p)
}
