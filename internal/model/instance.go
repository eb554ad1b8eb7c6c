package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoDistance is returned when a distance lookup involves a route-break
// marker or a reference outside the instance arenas. Callers are expected to
// never hit this on canonicalized sequences.
var ErrNoDistance = errors.New("no distance entry for node pair")

// Instance is the immutable problem description: depots, customers, the
// vehicle capacity, the default per-route setup cost, and a precomputed
// pairwise distance table over all physical nodes.
type Instance struct {
	Name            string
	Depots          []Depot
	Customers       []Customer
	VehicleCapacity float64
	RouteSetupCost  float64

	// dist is indexed by arena id: depots first, then customers.
	dist [][]float64
}

// NewInstance precomputes the distance table. Distances are the ceiling of
// the euclidean distance, stored in both directions; the diagonal is unused.
func NewInstance(name string, depots []Depot, customers []Customer, vehicleCapacity, routeSetupCost float64) *Instance {
	inst := &Instance{
		Name:            name,
		Depots:          depots,
		Customers:       customers,
		VehicleCapacity: vehicleCapacity,
		RouteSetupCost:  routeSetupCost,
	}
	n := inst.Size()
	inst.dist = make([][]float64, n)
	for i := 0; i < n; i++ {
		inst.dist[i] = make([]float64, n)
		xi, yi := inst.coords(i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			xj, yj := inst.coords(j)
			inst.dist[i][j] = math.Ceil(math.Hypot(xi-xj, yi-yj))
		}
	}
	return inst
}

// Size is the number of physical nodes (depots plus customers).
func (in *Instance) Size() int { return len(in.Depots) + len(in.Customers) }

// TotalDemand sums all customer demands.
func (in *Instance) TotalDemand() float64 {
	var total float64
	for i := range in.Customers {
		total += in.Customers[i].Demand
	}
	return total
}

// NumRouteBreaks is the fixed route-break pool size for solutions over this
// instance: ceil(totalDemand / vehicleCapacity).
func (in *Instance) NumRouteBreaks() int {
	if in.VehicleCapacity <= 0 {
		return 0
	}
	return int(math.Ceil(in.TotalDemand() / in.VehicleCapacity))
}

// Distance returns the precomputed distance between two physical nodes.
// Route-break markers and out-of-range references yield ErrNoDistance.
func (in *Instance) Distance(a, b NodeRef) (float64, error) {
	i, ok := in.arenaID(a)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoDistance, in.NodeName(a))
	}
	j, ok := in.arenaID(b)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoDistance, in.NodeName(b))
	}
	return in.dist[i][j], nil
}

// MustDistance is Distance for callers operating on canonicalized sequences,
// where a marker lookup is a programming error. It is a defect to mask this.
func (in *Instance) MustDistance(a, b NodeRef) float64 {
	d, err := in.Distance(a, b)
	if err != nil {
		panic(err)
	}
	return d
}

// NodeName resolves a reference to its display name. Route breaks all share
// the name "0" in sequence dumps, matching the instance text format where
// they do not appear at all.
func (in *Instance) NodeName(r NodeRef) string {
	switch r.Kind {
	case KindDepot:
		if r.Index >= 0 && r.Index < len(in.Depots) {
			return in.Depots[r.Index].Name
		}
	case KindCustomer:
		if r.Index >= 0 && r.Index < len(in.Customers) {
			return in.Customers[r.Index].Name
		}
	case KindRouteBreak:
		return "0"
	}
	return fmt.Sprintf("?%s/%d", r.Kind, r.Index)
}

// Demand returns the demand of a customer reference, zero for anything else.
func (in *Instance) Demand(r NodeRef) float64 {
	if r.IsCustomer() && r.Index >= 0 && r.Index < len(in.Customers) {
		return in.Customers[r.Index].Demand
	}
	return 0
}

func (in *Instance) coords(id int) (float64, float64) {
	if id < len(in.Depots) {
		return in.Depots[id].X, in.Depots[id].Y
	}
	c := in.Customers[id-len(in.Depots)]
	return c.X, c.Y
}

func (in *Instance) arenaID(r NodeRef) (int, bool) {
	switch r.Kind {
	case KindDepot:
		if r.Index >= 0 && r.Index < len(in.Depots) {
			return r.Index, true
		}
	case KindCustomer:
		if r.Index >= 0 && r.Index < len(in.Customers) {
			return len(in.Depots) + r.Index, true
		}
	}
	return 0, false
}
