package opt

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"clrpsa/internal/model"
)

func trivialInstance(t *testing.T) *model.Instance {
	t.Helper()
	depots := []model.Depot{{Name: "D1", X: 0, Y: 0, OpeningCost: 10, Capacity: 1000, RouteSetup: 5}}
	customers := []model.Customer{
		{Name: "C1", X: 3, Y: 4, Demand: 5},
		{Name: "C2", X: 6, Y: 8, Demand: 5},
	}
	return model.NewInstance("test/trivial", depots, customers, 100, 5)
}

func fastParams() Parameters {
	return Parameters{A: 0.5, Iiter: 10, P: 400, K: 1.0 / 9.0, T0: 4, TF: 0.5, NonImproving: 3}
}

func TestAnnealerTerminatesAndImproves(t *testing.T) {
	inst := trivialInstance(t)
	initial := Greedy(inst)
	require.True(t, initial.IsValid())
	params := fastParams()
	initialPenalized := initial.PenalizedCost(params.P)

	annealer := NewAnnealer(params, rand.New(rand.NewSource(42)), nil)
	best, stats := annealer.Solve(context.Background(), initial)

	cost, feasible := best.Quality()
	require.True(t, feasible)
	require.LessOrEqual(t, cost, initialPenalized)
	require.Greater(t, stats.Iterations, 0)
	require.Greater(t, stats.CoolingSteps, 0)
}

func TestAnnealerDeterministicForFixedSeed(t *testing.T) {
	inst := trivialInstance(t)
	params := fastParams()

	run := func() (float64, Stats) {
		initial := Greedy(inst)
		annealer := NewAnnealer(params, rand.New(rand.NewSource(7)), nil)
		best, stats := annealer.Solve(context.Background(), initial)
		cost, _ := best.Quality()
		return cost, stats
	}

	cost1, stats1 := run()
	cost2, stats2 := run()
	require.Equal(t, cost1, cost2)
	require.Equal(t, stats1.Iterations, stats2.Iterations)
	require.Equal(t, stats1.CoolingSteps, stats2.CoolingSteps)
}

func TestCoolingIsMonotonic(t *testing.T) {
	inst := twoDepotInstance(t)
	initial := Greedy(inst)
	params := Parameters{A: 0.9, Iiter: 5, P: 400, K: 1.0 / 9.0, T0: 10, TF: 1, NonImproving: 100}

	annealer := NewAnnealer(params, rand.New(rand.NewSource(5)), nil)
	var temps []float64
	annealer.OnProgress = func(p Progress) { temps = append(temps, p.Temperature) }
	_, stats := annealer.Solve(context.Background(), initial)

	require.NotEmpty(t, temps)
	require.Equal(t, stats.CoolingSteps, len(temps))
	prev := params.T0
	for _, tmp := range temps {
		require.Less(t, tmp, prev, "temperature must strictly decrease at every cooling step")
		prev = tmp
	}
	require.LessOrEqual(t, temps[len(temps)-1], params.TF, "search ran down to the temperature floor")
}

func TestAnnealerStopsOnCancelledContext(t *testing.T) {
	inst := twoDepotInstance(t)
	initial := Greedy(inst)
	params := Parameters{A: 0.999, Iiter: 1, P: 400, K: 1.0 / 9.0, T0: 100, TF: 0.001, NonImproving: 1 << 30}

	ctx, cancel := context.WithCancel(context.Background())
	annealer := NewAnnealer(params, rand.New(rand.NewSource(9)), nil)
	annealer.OnProgress = func(Progress) { cancel() }

	best, stats := annealer.Solve(ctx, initial)
	require.NotNil(t, best)
	require.Equal(t, 1, stats.CoolingSteps, "cancellation is honored at the first cooling boundary")
}
