package waitreason

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

func TestFormatSingleResourceWithHolders(t *testing.T) {
	tl := &domain.TakenLock{ResourceName: "agents"}
	tl.AddLock("b1", domain.Lock{Name: "agents", Mode: domain.Write})

	lookup := func(id string) (string, bool) {
		if id == "b1" {
			return "BuildTypeA", true
		}
		return "", false
	}

	got := Format(map[string]*domain.TakenLock{"agents": tl},
		[]domain.Lock{{Name: "agents", Mode: domain.Write}}, lookup)

	assert.Equal(t, "Build is waiting for the following resource to become available: agents (locked by BuildTypeA)", got)
}

func TestFormatMultipleResourcesPlural(t *testing.T) {
	tl1 := &domain.TakenLock{ResourceName: "agents"}
	tl1.AddLock("b1", domain.Lock{Name: "agents", Mode: domain.Write})
	tl2 := &domain.TakenLock{ResourceName: "ports"}
	tl2.AddLock("b2", domain.Lock{Name: "ports", Mode: domain.Read, Value: "8080"})

	lookup := func(id string) (string, bool) {
		switch id {
		case "b1":
			return "BuildTypeA", true
		case "b2":
			return "BuildTypeB", true
		}
		return "", false
	}

	got := Format(map[string]*domain.TakenLock{"agents": tl1, "ports": tl2},
		[]domain.Lock{
			{Name: "ports", Mode: domain.Read, Value: "8080"},
			{Name: "agents", Mode: domain.Write},
		}, lookup)

	assert.Equal(t, "Build is waiting for the following resources to become available: agents (locked by BuildTypeA), ports (locked by BuildTypeB)", got)
}

func TestFormatUnknownHolderOmitsBuildType(t *testing.T) {
	tl := &domain.TakenLock{ResourceName: "agents"}
	tl.AddLock("b1", domain.Lock{Name: "agents", Mode: domain.Write})

	lookup := func(string) (string, bool) { return "", false }

	got := Format(map[string]*domain.TakenLock{"agents": tl},
		[]domain.Lock{{Name: "agents", Mode: domain.Write}}, lookup)

	assert.Equal(t, "Build is waiting for the following resource to become available: agents", got)
}
