package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeFromString(t *testing.T) {
	m, ok := ModeFromString("readLock")
	assert.True(t, ok)
	assert.Equal(t, Read, m)

	m, ok = ModeFromString("writeLock")
	assert.True(t, ok)
	assert.Equal(t, Write, m)

	_, ok = ModeFromString("bogus")
	assert.False(t, ok)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "readLock", Read.String())
	assert.Equal(t, "writeLock", Write.String())
}

func TestLockIsAnyIsAll(t *testing.T) {
	any := Lock{Name: "agents", Mode: Read}
	assert.True(t, any.IsAny())
	assert.False(t, any.IsAll())

	all := Lock{Name: "agents", Mode: Write}
	assert.True(t, all.IsAll())
	assert.False(t, all.IsAny())

	specific := Lock{Name: "agents", Mode: Read, Value: "a1"}
	assert.False(t, specific.IsAny())
}
