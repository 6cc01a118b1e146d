package nomad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromotionFromMetaMapsFields(t *testing.T) {
	meta := map[string]string{
		"promotion_id":  "p-1",
		"project_id":    "proj1",
		"build_type_id": "BT_1",
		"locks_param":   "agents readLock\n",
	}

	p := promotionFromMeta(meta)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "proj1", p.ProjectID)
	assert.Equal(t, "BT_1", p.BuildTypeID)
	assert.True(t, p.Running)
	assert.Equal(t, "agents readLock\n", p.FeatureParams["locks-param"])
}
