package model

// NodeKind discriminates the three kinds of sequence elements.
type NodeKind int

const (
	KindDepot NodeKind = iota
	KindCustomer
	KindRouteBreak
)

func (k NodeKind) String() string {
	switch k {
	case KindDepot:
		return "depot"
	case KindCustomer:
		return "customer"
	case KindRouteBreak:
		return "routebreak"
	}
	return "unknown"
}

// Depot is a candidate facility that may serve customers.
type Depot struct {
	Name        string
	X, Y        float64
	OpeningCost float64
	Capacity    float64
	RouteSetup  float64
}

// Customer is a demand point that must be served by exactly one route.
type Customer struct {
	Name   string
	X, Y   float64
	Demand float64
}

// NodeRef is a compact reference into an Instance's depot/customer arenas.
// Route-break markers carry their pool slot in Index; they reference no
// physical location and have no entry in the distance table. Sequences are
// slices of NodeRef, so copying a solution is copying an index slice.
type NodeRef struct {
	Kind  NodeKind
	Index int
}

func DepotRef(i int) NodeRef    { return NodeRef{Kind: KindDepot, Index: i} }
func CustomerRef(i int) NodeRef { return NodeRef{Kind: KindCustomer, Index: i} }
func BreakRef(i int) NodeRef    { return NodeRef{Kind: KindRouteBreak, Index: i} }

func (r NodeRef) IsDepot() bool    { return r.Kind == KindDepot }
func (r NodeRef) IsCustomer() bool { return r.Kind == KindCustomer }
func (r NodeRef) IsBreak() bool    { return r.Kind == KindRouteBreak }
