package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitUpToMax(t *testing.T) {
	l := New(30, time.Hour)

	for i := 0; i < 30; i++ {
		d := l.Admit("u1")
		require.True(t, d.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 29-i, d.Remaining)
	}

	d := l.Admit("u1")
	assert.False(t, d.Allowed, "the 31st request inside the window is denied")
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestWindowSlides(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := New(3, time.Hour).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		now = base.Add(time.Duration(i) * time.Minute)
		require.True(t, l.Admit("u1").Allowed)
	}

	now = base.Add(30 * time.Minute)
	d := l.Admit("u1")
	require.False(t, d.Allowed)
	assert.Equal(t, 30*time.Minute, d.RetryAfter, "retry after the oldest entry ages out")

	// the first entry has aged out, one slot is free again
	now = base.Add(61 * time.Minute)
	d = l.Admit("u1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestDenialDoesNotConsumeASlot(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := New(2, time.Hour).WithClock(func() time.Time { return now })

	require.True(t, l.Admit("u1").Allowed)
	require.True(t, l.Admit("u1").Allowed)
	for i := 0; i < 5; i++ {
		require.False(t, l.Admit("u1").Allowed)
	}

	now = base.Add(61 * time.Minute)
	assert.True(t, l.Admit("u1").Allowed,
		"denied attempts must not extend the lockout")
}

func TestUsersAreIndependent(t *testing.T) {
	l := New(1, time.Hour)

	require.True(t, l.Admit("u1").Allowed)
	require.False(t, l.Admit("u1").Allowed)

	assert.True(t, l.Admit("u2").Allowed, "one user's quota never affects another")
}

func TestDefaultsApplied(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, 30, l.max)
	assert.Equal(t, time.Hour, l.window)
}

func TestConcurrentAdmitNeverOverAdmits(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if l.Admit("u1").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestManyUsers(t *testing.T) {
	l := New(2, time.Hour)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("user-%d", i)
		require.True(t, l.Admit(id).Allowed)
		require.True(t, l.Admit(id).Allowed)
		require.False(t, l.Admit(id).Allowed)
	}
}
