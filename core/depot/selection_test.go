package depot

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/depotsim/core/des"
	"github.com/kilianp07/depotsim/core/model"
)

func newStations(t *testing.T, env *des.Environment, specs ...model.ChargerSpec) []*station {
	t.Helper()
	var out []*station
	for _, s := range specs {
		res, err := des.NewResource(env, s.Label(), s.Capacity())
		require.NoError(t, err)
		out = append(out, &station{spec: s, res: res})
	}
	return out
}

func TestSelectStation(t *testing.T) {
	env := des.NewEnvironment()
	st := newStations(t, env,
		model.ChargerSpec{Name: "slow", RateKW: 10, Amount: 1, Servers: 1},
		model.ChargerSpec{Name: "fast", RateKW: 50, Amount: 1, Servers: 1},
	)
	rng := rand.New(rand.NewPCG(1, 2))

	assert.Equal(t, "slow", selectStation(PolicyShortestQueue, st, rng).spec.Name)
	assert.Equal(t, "fast", selectStation(PolicyFastestIdle, st, rng).spec.Name)

	st[1].res.Request(nil)
	assert.Equal(t, "slow", selectStation(PolicyFastestIdle, st, rng).spec.Name)
	st[0].res.Request(nil)
	st[0].res.Request(nil)
	// both busy: fall back to the shortest queue
	assert.Equal(t, "fast", selectStation(PolicyFastestIdle, st, rng).spec.Name)
	assert.Equal(t, "fast", selectStation(PolicyShortestQueue, st, rng).spec.Name)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[selectStation(PolicyRandom, st, rng).spec.Name] = true
	}
	assert.Len(t, seen, 2)
}

func TestQuotaBook(t *testing.T) {
	q := newQuotaBook([]model.DeliveryType{
		{Name: "short", Weight: 1, DailyQuota: 2},
		{Name: "long", Weight: 1, DailyQuota: 1},
	})
	src := rand.NewPCG(3, 4)
	for i := 0; i < 3; i++ {
		_, ok := q.assign(src)
		require.True(t, ok)
	}
	_, ok := q.assign(src)
	assert.False(t, ok)
	q.reset()
	_, ok = q.assign(src)
	assert.True(t, ok)
	totals := q.totals()
	assert.Equal(t, 4, totals["short"]+totals["long"])
	assert.GreaterOrEqual(t, totals["short"], 2)
}
