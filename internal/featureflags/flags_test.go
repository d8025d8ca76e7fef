package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_DefaultsAndOverrides(t *testing.T) {
	s := Parse("factory_monitor=off, IMAGE_UPLOADS = on ,bogus, =on,empty=")

	assert.False(t, s.On(FactoryMonitor))
	assert.True(t, s.On(ImageUploads))
	assert.True(t, s.On(Realtime), "default kept")
	assert.False(t, s.On(FactoryAutoSync), "default off")
	assert.False(t, s.On("empty"))
	assert.False(t, s.On("unknown"))
}

func TestEnabled_BooleanSpellings(t *testing.T) {
	s := Parse("a=on,b=off,c=true,d=false,e=1,f=0")
	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, s.On(name), name)
	}
	for _, name := range []string{"b", "d", "f"} {
		assert.False(t, s.On(name), name)
	}
}

func TestEnabled_PercentRollout(t *testing.T) {
	s := Parse("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, s.On("always"))
	assert.False(t, s.Enabled("never", 7))
	assert.False(t, s.Enabled("junk", 7))
	assert.False(t, s.On("canary"), "rollouts need a user")

	first := s.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Enabled("canary", 42))
	}

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if s.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestSnapshot(t *testing.T) {
	snap := Parse("factory_auto_sync=on").Snapshot(1)
	assert.True(t, snap[FactoryAutoSync])
	assert.True(t, snap[FactoryMonitor])
	assert.Len(t, snap, len(Defaults))
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.On(FactoryMonitor))
}
