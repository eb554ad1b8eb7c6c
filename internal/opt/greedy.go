package opt

import (
	"math"
	"time"

	"clrpsa/internal/model"
)

// Greedy builds the initial solution the annealer starts from: repeatedly
// open the unused depot with the most nearby unassigned customers (largest
// capacity breaks ties), then serve its customers nearest-neighbour first,
// emitting a route break whenever the running vehicle would overflow and
// closing the depot when its capacity runs out. Unused depots are appended
// at the end so operators can still move customers onto them.
//
// Ties resolve in instance order, making construction deterministic.
func Greedy(inst *model.Instance) *Solution {
	start := time.Now()
	sol := NewSolution(inst)

	assigned := make([]bool, len(inst.Customers))
	assignedCount := 0
	usedDepot := make([]bool, len(inst.Depots))
	usedCount := 0

	for assignedCount < len(inst.Customers) && usedCount < len(inst.Depots) {
		// Bucket every unassigned customer under its closest unused depot.
		buckets := make([][]int, len(inst.Depots))
		for ci := range inst.Customers {
			if assigned[ci] {
				continue
			}
			closest, minDist := -1, math.Inf(1)
			for di := range inst.Depots {
				if usedDepot[di] {
					continue
				}
				d := inst.MustDistance(model.CustomerRef(ci), model.DepotRef(di))
				if d < minDist {
					minDist = d
					closest = di
				}
			}
			if closest >= 0 {
				buckets[closest] = append(buckets[closest], ci)
			}
		}

		// Open the depot with the fullest bucket; capacity breaks ties.
		selected := -1
		for di := range inst.Depots {
			if usedDepot[di] {
				continue
			}
			if selected < 0 ||
				len(buckets[di]) > len(buckets[selected]) ||
				(len(buckets[di]) == len(buckets[selected]) && inst.Depots[di].Capacity > inst.Depots[selected].Capacity) {
				selected = di
			}
		}
		if selected < 0 {
			break
		}

		depotRef := model.DepotRef(selected)
		sol.Append(depotRef)
		remaining := append([]int(nil), buckets[selected]...)
		depotCap := inst.Depots[selected].Capacity
		routeCap := inst.VehicleCapacity
		last := depotRef

		for {
			// Nearest unserved bucket customer to the last appended node.
			next, minDist := -1, math.Inf(1)
			for _, ci := range remaining {
				d := inst.MustDistance(model.CustomerRef(ci), last)
				if d < minDist {
					minDist = d
					next = ci
				}
			}
			if next < 0 {
				usedDepot[selected] = true
				usedCount++
				break
			}
			demand := inst.Customers[next].Demand
			if depotCap-demand <= 0 {
				usedDepot[selected] = true
				usedCount++
				break
			}
			// An empty vehicle takes an oversize customer anyway; the
			// evaluator forces breaks around it.
			if routeCap-demand < 0 && routeCap < inst.VehicleCapacity {
				sol.AppendRouteBreak()
				routeCap = inst.VehicleCapacity
				last = depotRef
				continue
			}
			depotCap -= demand
			routeCap -= demand
			cref := model.CustomerRef(next)
			sol.Append(cref)
			last = cref
			assigned[next] = true
			assignedCount++
			for i, ci := range remaining {
				if ci == next {
					remaining = append(remaining[:i], remaining[i+1:]...)
					break
				}
			}
		}
	}

	// Trailing unused depots; reduction keeps them costless.
	placed := make([]bool, len(inst.Depots))
	for _, r := range sol.seq {
		if r.IsDepot() {
			placed[r.Index] = true
		}
	}
	for di := range inst.Depots {
		if !placed[di] {
			sol.Append(model.DepotRef(di))
		}
	}

	sol.Finish()
	sol.SetElapsed(time.Since(start))
	return sol
}
