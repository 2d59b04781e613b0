package des

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentRunsInTimeOrder(t *testing.T) {
	env := NewEnvironment()
	var got []float64
	for _, at := range []float64{30, 10, 20} {
		at := at
		env.Schedule(at, func() { got = append(got, env.Now()) })
	}
	require.NoError(t, env.Run(context.Background(), 100))
	assert.Equal(t, []float64{10, 20, 30}, got)
	assert.Equal(t, 3, env.Processed())
}

func TestEnvironmentSameTimeFIFO(t *testing.T) {
	env := NewEnvironment()
	var got []int
	for i := 1; i <= 10; i++ {
		env.Schedule(420, func() { got = append(got, i) })
	}
	env.Schedule(420, func() {
		env.Schedule(420, func() { got = append(got, 12) })
		got = append(got, 11)
	})
	env.Schedule(400, func() { got = append(got, 0) })
	require.NoError(t, env.Run(context.Background(), 1440))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, got)
	assert.Equal(t, 13, env.Processed())
}

func TestEnvironmentHorizonExclusive(t *testing.T) {
	env := NewEnvironment()
	fired := 0
	env.Schedule(5, func() {
		fired++
		ok, err := env.After(5, func() { fired++ })
		if err != nil || ok {
			t.Errorf("event at horizon should be dropped: ok=%v err=%v", ok, err)
		}
	})
	env.Schedule(50, func() { fired++ })
	require.NoError(t, env.Run(context.Background(), 10))
	assert.Equal(t, 1, fired)
}

func TestEnvironmentChainedAfter(t *testing.T) {
	env := NewEnvironment()
	var ticks int
	var tick func()
	tick = func() {
		ticks++
		if _, err := env.After(1, tick); err != nil {
			t.Fatalf("after: %v", err)
		}
	}
	env.Schedule(0, tick)
	require.NoError(t, env.Run(context.Background(), 10))
	assert.Equal(t, 10, ticks)
}

func TestEnvironmentNegativeDelay(t *testing.T) {
	env := NewEnvironment()
	_, err := env.After(-1, func() {})
	assert.Error(t, err)
}

func TestEnvironmentInvalidHorizon(t *testing.T) {
	env := NewEnvironment()
	assert.Error(t, env.Run(context.Background(), 0))
}

func TestEnvironmentCancelled(t *testing.T) {
	env := NewEnvironment()
	ctx, cancel := context.WithCancel(context.Background())
	fired := 0
	env.Schedule(1, func() { fired++; cancel() })
	env.Schedule(2, func() { fired++ })
	err := env.Run(ctx, 10)
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
	assert.Equal(t, 1, fired)
}
