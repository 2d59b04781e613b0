package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErlangB(t *testing.T) {
	assert.Equal(t, 1.0, ErlangB(0, 3))
	assert.InDelta(t, 0.5, ErlangB(1, 1), 1e-12)
	// a=2, c=2: (a^2/2) / (1 + a + a^2/2) = 2/5
	assert.InDelta(t, 0.4, ErlangB(2, 2), 1e-12)
	assert.True(t, math.IsNaN(ErlangB(1, -1)))
}

func TestErlangC(t *testing.T) {
	// single server: P(wait) = rho
	assert.InDelta(t, 0.6, ErlangC(1, 0.6), 1e-12)
	// a=1, c=2: 1/3
	assert.InDelta(t, 1.0/3, ErlangC(2, 1), 1e-12)
	assert.Equal(t, 1.0, ErlangC(2, 2))
	assert.Equal(t, 0.0, ErlangC(3, 0))
}

func TestMM1(t *testing.T) {
	m, err := MM1(3, 4)
	require.NoError(t, err)
	assert.True(t, m.Stable)
	assert.InDelta(t, 0.75, m.Rho, 1e-12)
	assert.InDelta(t, 0.75, m.PWait, 1e-12)
	assert.InDelta(t, 0.75, m.Wq, 1e-12) // rho/(mu-lambda)
	assert.InDelta(t, 2.25, m.Lq, 1e-12) // rho^2/(1-rho)
	assert.InDelta(t, 1.0, m.W, 1e-12)   // 1/(mu-lambda)
	assert.InDelta(t, 3.0, m.L, 1e-12)   // rho/(1-rho)
}

func TestMMcUnstable(t *testing.T) {
	m, err := MMc(10, 2, 3)
	require.NoError(t, err)
	assert.False(t, m.Stable)
	assert.True(t, math.IsInf(m.Wq, 1))
	assert.Equal(t, 1.0, m.PWait)
}

func TestMMcZeroArrivals(t *testing.T) {
	m, err := MMc(0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.PWait)
	assert.Equal(t, 0.0, m.Wq)
	assert.InDelta(t, 0.5, m.W, 1e-12)
}

func TestMMcInvalid(t *testing.T) {
	_, err := MMc(1, 0, 1)
	assert.Error(t, err)
	_, err = MMc(-1, 1, 1)
	assert.Error(t, err)
	_, err = MMc(1, 1, 0)
	assert.Error(t, err)
}

func TestServersFor(t *testing.T) {
	c, err := ServersFor(4, 1, 0.2, 20)
	require.NoError(t, err)
	assert.Greater(t, c, 4)
	assert.LessOrEqual(t, ErlangC(c, 4), 0.2)
	assert.Greater(t, ErlangC(c-1, 4), 0.2)

	_, err = ServersFor(100, 1, 0.01, 5)
	assert.Error(t, err)
}
