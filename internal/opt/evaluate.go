package opt

import "clrpsa/internal/model"

// reduce canonicalizes a raw sequence so cost computation is well-defined no
// matter how an operator scattered route-break markers:
//
//   - consecutive markers collapse into one,
//   - a marker directly after a depot (an empty route) is dropped,
//   - trailing markers and depots are trimmed so the sequence ends on a
//     customer.
//
// A marker survives only when the previously kept element is a customer,
// which covers the first two rules in one pass. Reduction is idempotent.
func reduce(seq []model.NodeRef) []model.NodeRef {
	out := make([]model.NodeRef, 0, len(seq))
	for _, r := range seq {
		if r.IsBreak() {
			if len(out) == 0 || !out[len(out)-1].IsCustomer() {
				continue
			}
		}
		out = append(out, r)
	}
	for len(out) > 0 && !out[len(out)-1].IsCustomer() {
		out = out[:len(out)-1]
	}
	return out
}

// evaluate walks a reduced sequence and returns its penalty-free total cost
// and overall feasibility. It must only run on sequences that satisfy the
// seen-depot rule; reduction guarantees every distance lookup below is
// between two physical nodes.
//
// The sequence splits into depot-rooted blocks: a block starts at a depot
// immediately followed by a customer and runs up to the next depot. A depot
// with no following customer serves nobody and is charged nothing. Within a
// block, route-break markers (and forced breaks on vehicle-capacity
// exhaustion) close the running route back to the depot and open a new one
// at the depot's route-setup cost. Depot capacity decrements with every
// customer served; a block is feasible when it ends non-negative.
func evaluate(inst *model.Instance, seq []model.NodeRef) (float64, bool) {
	var total float64
	feasible := true

	i := 0
	for i < len(seq) {
		if !seq[i].IsDepot() || i+1 >= len(seq) || !seq[i+1].IsCustomer() {
			i++
			continue
		}

		depot := seq[i]
		d := inst.Depots[depot.Index]
		total += d.OpeningCost
		depotCap := d.Capacity
		vehicleCap := inst.VehicleCapacity

		// prev is the route's last visited node; the depot itself marks a
		// freshly opened (or closed) route.
		prev := depot

		j := i + 1
		for j < len(seq) && !seq[j].IsDepot() {
			r := seq[j]
			switch r.Kind {
			case model.KindCustomer:
				demand := inst.Demand(r)
				if prev.IsDepot() {
					total += d.RouteSetup + inst.MustDistance(depot, r)
					vehicleCap -= demand
				} else if vehicleCap-demand < 0 {
					// Vehicle full: close the route and reopen one for this
					// customer. Depot capacity is unaffected by the break.
					total += inst.MustDistance(prev, depot)
					total += d.RouteSetup + inst.MustDistance(depot, r)
					vehicleCap = inst.VehicleCapacity - demand
				} else {
					total += inst.MustDistance(prev, r)
					vehicleCap -= demand
				}
				depotCap -= demand
				prev = r
			case model.KindRouteBreak:
				// Reduction guarantees prev is a customer here.
				total += inst.MustDistance(prev, depot)
				vehicleCap = inst.VehicleCapacity
				prev = depot
			}
			j++
		}

		// Close the block's last open route.
		if prev.IsCustomer() {
			total += inst.MustDistance(prev, depot)
		}
		if depotCap < 0 {
			feasible = false
		}
		i = j
	}

	return total, feasible
}
