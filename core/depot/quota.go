package depot

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/depotsim/core/model"
)

// quotaBook tracks how many deliveries of each type were handed out today.
type quotaBook struct {
	types []model.DeliveryType
	used  []int
	total []int
}

func newQuotaBook(types []model.DeliveryType) *quotaBook {
	return &quotaBook{
		types: types,
		used:  make([]int, len(types)),
		total: make([]int, len(types)),
	}
}

func (q *quotaBook) available(i int) bool {
	quota := q.types[i].DailyQuota
	return quota == 0 || q.used[i] < quota
}

// assign draws a delivery type among those with remaining quota, weighted by
// their configured weight.
func (q *quotaBook) assign(src rand.Source) (model.DeliveryType, bool) {
	weights := make([]float64, len(q.types))
	found := false
	for i, t := range q.types {
		if q.available(i) {
			weights[i] = t.Weight
			found = true
		}
	}
	if !found {
		return model.DeliveryType{}, false
	}
	idx := int(distuv.NewCategorical(weights, src).Rand())
	q.used[idx]++
	q.total[idx]++
	return q.types[idx], true
}

func (q *quotaBook) reset() {
	for i := range q.used {
		q.used[i] = 0
	}
}

func (q *quotaBook) totals() map[string]int {
	out := make(map[string]int, len(q.types))
	for i, t := range q.types {
		out[t.Name] = q.total[i]
	}
	return out
}
