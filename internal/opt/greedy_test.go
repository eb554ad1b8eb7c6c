package opt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"clrpsa/internal/model"
)

func TestGreedyPlacesEveryCustomer(t *testing.T) {
	inst := twoDepotInstance(t)
	sol := Greedy(inst)

	require.True(t, sol.IsValid())
	seen := map[int]int{}
	for _, r := range sol.Sequence() {
		if r.IsCustomer() {
			seen[r.Index]++
		}
	}
	require.Len(t, seen, len(inst.Customers))
	for idx, n := range seen {
		require.Equal(t, 1, n, "customer %d placed more than once", idx)
	}
	cost, feasible := sol.Quality()
	require.True(t, feasible)
	require.Greater(t, cost, 0.0)
}

func TestGreedyAppendsUnusedDepots(t *testing.T) {
	inst := twoDepotInstance(t)
	sol := Greedy(inst)

	placed := map[int]bool{}
	for _, r := range sol.Sequence() {
		if r.IsDepot() {
			placed[r.Index] = true
		}
	}
	require.Len(t, placed, len(inst.Depots), "every depot appears in the sequence")
}

func TestGreedyBreaksOnVehicleCapacity(t *testing.T) {
	depots := []model.Depot{{Name: "D1", X: 0, Y: 0, OpeningCost: 10, Capacity: 1000, RouteSetup: 5}}
	customers := []model.Customer{
		{Name: "C1", X: 1, Y: 0, Demand: 8},
		{Name: "C2", X: 2, Y: 0, Demand: 8},
		{Name: "C3", X: 3, Y: 0, Demand: 8},
	}
	inst := model.NewInstance("test/breaks", depots, customers, 10, 5)

	sol := Greedy(inst)
	require.True(t, sol.IsValid())
	breaks := 0
	for _, r := range sol.Sequence() {
		if r.IsBreak() {
			breaks++
		}
	}
	// One customer fits per vehicle: two breaks separate the three routes.
	require.Equal(t, 2, breaks)
	_, feasible := sol.Quality()
	require.True(t, feasible)
}

func TestGreedyIsDeterministic(t *testing.T) {
	inst := twoDepotInstance(t)
	require.Equal(t, Greedy(inst).Sequence(), Greedy(inst).Sequence())
}
