package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTarget struct {
	calls atomic.Int32
	err   error
}

func (c *countingTarget) Sweep(ctx context.Context) (int, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestSweepReportsRemoved(t *testing.T) {
	target := &countingTarget{}
	s := New("sessions", target, time.Minute)
	assert.Equal(t, 2, s.sweep(context.Background()))

	target.err = errors.New("boom")
	assert.Equal(t, 0, s.sweep(context.Background()))
}

func TestStartRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	target := &countingTarget{}

	New("sessions", target, 5*time.Millisecond).Start(ctx)

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New("sessions", &countingTarget{}, 0)
	assert.Equal(t, 5*time.Minute, s.interval)
}
