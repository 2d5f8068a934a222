package armed

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateDefaultsToDisarmed(t *testing.T) {
	var s State
	assert.False(t, s.Armed())
	assert.Equal(t, "disarmed", s.String())
}

func TestStateToggle(t *testing.T) {
	var s State

	s.Arm()
	assert.True(t, s.Armed())
	assert.Equal(t, "armed", s.String())

	s.Disarm()
	assert.False(t, s.Armed())

	assert.False(t, s.Set(true))
	assert.True(t, s.Set(true))
	assert.True(t, s.Set(false))
}

func TestStateConcurrentAccess(t *testing.T) {
	var s State
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Set(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Armed()
		}()
	}
	wg.Wait()

	s.Disarm()
	assert.False(t, s.Armed())
}
