package analysis

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func draw(d interface{ Rand() float64 }, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

func TestFitExponential(t *testing.T) {
	src := rand.NewPCG(1, 2)
	x := draw(distuv.Exponential{Rate: 0.2, Src: src}, 3000)
	rep, err := Fit(x, []Distribution{Exponential, Uniform})
	require.NoError(t, err)
	best, ok := rep.Best()
	require.True(t, ok)
	assert.Equal(t, Exponential, best.Distribution)
	assert.InDelta(t, 0.2, best.Params["rate"], 0.02)
	assert.Less(t, best.KS, 0.05)
}

func TestFitUniform(t *testing.T) {
	src := rand.NewPCG(3, 4)
	x := draw(distuv.Uniform{Min: 5, Max: 15, Src: src}, 3000)
	rep, err := Fit(x, nil)
	require.NoError(t, err)
	require.Len(t, rep.Results, len(DefaultDistributions()))
	best, ok := rep.Best()
	require.True(t, ok)
	assert.Equal(t, Uniform, best.Distribution)
}

func TestFitWeibullRecoversShape(t *testing.T) {
	src := rand.NewPCG(5, 6)
	x := draw(distuv.Weibull{K: 2, Lambda: 10, Src: src}, 5000)
	rep, err := Fit(x, []Distribution{Weibull})
	require.NoError(t, err)
	best, ok := rep.Best()
	require.True(t, ok)
	assert.InDelta(t, 2, best.Params["shape"], 0.1)
	assert.InDelta(t, 10, best.Params["scale"], 0.3)
}

func TestFitCapturesCandidateErrors(t *testing.T) {
	x := []float64{0, 0, 1, 2, 3, 0, 5}
	rep, err := Fit(x, DefaultDistributions())
	require.NoError(t, err)
	failed := map[Distribution]bool{}
	for _, r := range rep.Results {
		if !r.OK() {
			failed[r.Distribution] = true
		}
	}
	assert.True(t, failed[LogNormal])
	assert.True(t, failed[Gamma])
	assert.True(t, failed[Weibull])
	assert.False(t, failed[Exponential])
	// failures sort after successful fits
	assert.True(t, rep.Results[0].OK())
	assert.False(t, rep.Results[len(rep.Results)-1].OK())
}

func TestFitInsufficientData(t *testing.T) {
	_, err := Fit([]float64{1}, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	rep, err := Fit([]float64{3, 3, 3}, []Distribution{Normal})
	require.NoError(t, err)
	_, ok := rep.Best()
	assert.False(t, ok)
}

func TestParseDistribution(t *testing.T) {
	d, err := ParseDistribution("gamma")
	require.NoError(t, err)
	assert.Equal(t, Gamma, d)
	_, err = ParseDistribution("cauchy")
	assert.Error(t, err)
}
