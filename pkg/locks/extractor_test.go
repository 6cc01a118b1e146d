package locks

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/marrowvale/lockarbiter/pkg/domain"
)

func newTestExtractor() *Extractor {
	return New(hclog.NewNullLogger())
}

func TestFromBuildPromotionPrimaryBlock(t *testing.T) {
	e := newTestExtractor()
	p := &domain.BuildPromotion{
		FeatureParams: map[string]string{
			FeatureParamName: "agents readLock\nwarehouse writeLock\nports readLock v1\n",
		},
	}

	locks := e.FromBuildPromotion(p)
	assert.ElementsMatch(t, []domain.Lock{
		{Name: "agents", Mode: domain.Read},
		{Name: "warehouse", Mode: domain.Write},
		{Name: "ports", Mode: domain.Read, Value: "v1"},
	}, locks)
}

func TestFromBuildPromotionSkipsMalformedLines(t *testing.T) {
	e := newTestExtractor()
	p := &domain.BuildPromotion{
		FeatureParams: map[string]string{
			FeatureParamName: "agents readLock\nbadline\nwarehouse bogusMode\n",
		},
	}
	locks := e.FromBuildPromotion(p)
	assert.Equal(t, []domain.Lock{{Name: "agents", Mode: domain.Read}}, locks)
}

func TestFromBuildPromotionDedupsKeepsFirst(t *testing.T) {
	e := newTestExtractor()
	p := &domain.BuildPromotion{
		FeatureParams: map[string]string{
			FeatureParamName: "agents readLock\nagents writeLock\n",
		},
	}
	locks := e.FromBuildPromotion(p)
	assert.Equal(t, []domain.Lock{{Name: "agents", Mode: domain.Read}}, locks)
}

func TestFromBuildPromotionLegacyFallback(t *testing.T) {
	e := newTestExtractor()
	p := &domain.BuildPromotion{
		FeatureParams: map[string]string{
			"teamcity.locks.readLock.agents":  "",
			"teamcity.locks.writeLock.deploy": "",
		},
	}
	locks := e.FromBuildPromotion(p)
	assert.ElementsMatch(t, []domain.Lock{
		{Name: "agents", Mode: domain.Read},
		{Name: "deploy", Mode: domain.Write},
	}, locks)
}

func TestFromBuildPromotionNoParamsIsEmpty(t *testing.T) {
	e := newTestExtractor()
	p := &domain.BuildPromotion{}
	assert.Empty(t, e.FromBuildPromotion(p))
}

func TestFromPersisted(t *testing.T) {
	e := newTestExtractor()
	m := map[string]domain.Lock{
		"agents": {Name: "agents", Mode: domain.Read},
	}
	locks := e.FromPersisted(m)
	assert.Equal(t, []domain.Lock{{Name: "agents", Mode: domain.Read}}, locks)
}
