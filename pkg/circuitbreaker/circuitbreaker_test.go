package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroker = errors.New("broker unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(t *testing.T, onChange func(string, State, State)) (*CircuitBreaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("events", Config{
		MaxRequests:   1,
		Timeout:       10 * time.Second,
		ReadyToTrip:   func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
		OnStateChange: onChange,
	})
	cb.now = clock.Now
	return cb, clock
}

func fail() error    { return errBroker }
func succeed() error { return nil }

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(t, nil)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBroker)
	}
	assert.Equal(t, StateClosed, cb.State())

	// 中间成功一次,连续失败计数清零
	require.NoError(t, cb.Execute(succeed))
	assert.ErrorIs(t, cb.Execute(fail), errBroker)
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errBroker)
	assert.ErrorIs(t, cb.Execute(fail), errBroker)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called, "熔断时不应调用req")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(t, func(_ string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t, nil)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}

	clock.Advance(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail), errBroker)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_DefaultConfig(t *testing.T) {
	cb := NewCircuitBreaker("default", Config{})
	for i := 0; i < 4; i++ {
		_ = cb.Execute(fail)
	}
	assert.Equal(t, StateClosed, cb.State())
	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, "default", cb.Name())
}

func TestCounts_FailureRate(t *testing.T) {
	c := Counts{Requests: 4, TotalFailures: 1}
	assert.InDelta(t, 0.25, c.FailureRate(), 1e-9)
	assert.Zero(t, Counts{}.FailureRate())
}
