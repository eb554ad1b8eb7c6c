package opt

import (
	"math/rand"

	"clrpsa/internal/model"
)

// Outcome tells a caller why an operator did or did not change anything.
// Starvation and rejection both hand back the parent solution; keeping them
// distinct lets tests assert the reason.
type Outcome int

const (
	// Applied: the candidate was built, evaluated, and returned.
	Applied Outcome = iota
	// Starved: fewer candidates than the operator needs; parent returned.
	Starved
	// Rejected: the edit broke the seen-depot rule; parent returned.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Starved:
		return "starved"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Result is what an operator hands back. Solution is either a fresh candidate
// (Applied) or the unmodified parent; Feasible is the returned solution's
// cached feasibility. Touched records the pair of nodes the edit moved, for
// diagnostics only.
type Result struct {
	Solution *Solution
	Feasible bool
	Outcome  Outcome
	Touched  [2]model.NodeRef
}

// Operator is a neighborhood move over the tour encoding. Implementations
// never touch instance data and never mutate the parent solution.
type Operator interface {
	Name() string
	Apply(rng *rand.Rand, s *Solution) Result
}

func keepParent(s *Solution, o Outcome) Result {
	_, feasible := s.Quality()
	return Result{Solution: s, Feasible: feasible, Outcome: o}
}

func finish(parent, cand *Solution, touched [2]model.NodeRef, seq []model.NodeRef) Result {
	cand.SetSolution(seq)
	if !cand.IsValid() {
		return keepParent(parent, Rejected)
	}
	_, feasible := cand.Quality()
	return Result{Solution: cand, Feasible: feasible, Outcome: Applied, Touched: touched}
}

// Swap exchanges two sequence positions. Candidates are drawn from a weighted
// pool: depots once, customers and route-break markers twice, biasing
// selection toward customer-level moves.
type Swap struct{}

func (Swap) Name() string { return "swap" }

func (Swap) Apply(rng *rand.Rand, s *Solution) Result {
	cand := newCandidate(s)
	seq := cand.seq

	var depots, movers []int
	for i, r := range seq {
		if r.IsDepot() {
			depots = append(depots, i)
		} else {
			movers = append(movers, i)
		}
	}
	// Customers and markers enter the pool twice. A position picked via both
	// of its pool slots swaps with itself, which is kept as a no-op edit.
	pool := make([]int, 0, len(depots)+2*len(movers))
	pool = append(pool, depots...)
	pool = append(pool, movers...)
	pool = append(pool, movers...)
	if len(pool) < 2 {
		return keepParent(s, Starved)
	}

	a := rng.Intn(len(pool))
	b := rng.Intn(len(pool) - 1)
	if b >= a {
		b++
	}
	i, j := pool[a], pool[b]

	touched := [2]model.NodeRef{seq[i], seq[j]}
	seq[i], seq[j] = seq[j], seq[i]
	return finish(s, cand, touched, seq)
}

// Insert removes one node and reinserts it at another candidate's position.
// Route-break markers are not movable payload.
type Insert struct{}

func (Insert) Name() string { return "insert" }

func (Insert) Apply(rng *rand.Rand, s *Solution) Result {
	cand := newCandidate(s)
	seq := cand.seq

	var positions []int
	for i, r := range seq {
		if !r.IsBreak() {
			positions = append(positions, i)
		}
	}
	if len(positions) < 2 {
		return keepParent(s, Starved)
	}

	a := rng.Intn(len(positions))
	b := rng.Intn(len(positions) - 1)
	if b >= a {
		b++
	}
	from, to := positions[a], positions[b]

	node := seq[from]
	touched := [2]model.NodeRef{node, seq[to]}
	seq = append(seq[:from], seq[from+1:]...)
	if from < to {
		to--
	}
	seq = append(seq, model.NodeRef{})
	copy(seq[to+1:], seq[to:])
	seq[to] = node
	return finish(s, cand, touched, seq)
}

// TwoOpt reverses the subsequence strictly between two customers of one
// depot's block, boundaries excluded.
type TwoOpt struct{}

func (TwoOpt) Name() string { return "2opt" }

func (TwoOpt) Apply(rng *rand.Rand, s *Solution) Result {
	cand := newCandidate(s)
	seq := cand.seq

	// For every depot, collect the customer positions of its block (up to the
	// next depot or the end); depots with at least two are candidates.
	type block struct {
		depot     int
		customers []int
	}
	var candidates []block
	for i, r := range seq {
		if !r.IsDepot() {
			continue
		}
		var customers []int
		for j := i + 1; j < len(seq); j++ {
			if seq[j].IsDepot() {
				break
			}
			if seq[j].IsCustomer() {
				customers = append(customers, j)
			}
		}
		if len(customers) >= 2 {
			candidates = append(candidates, block{depot: i, customers: customers})
		}
	}
	if len(candidates) == 0 {
		return keepParent(s, Starved)
	}

	b := candidates[rng.Intn(len(candidates))]
	x := rng.Intn(len(b.customers))
	y := rng.Intn(len(b.customers) - 1)
	if y >= x {
		y++
	}
	start, end := b.customers[x], b.customers[y]
	if start > end {
		start, end = end, start
	}

	touched := [2]model.NodeRef{seq[start], seq[end]}
	for lo, hi := start+1, end-1; lo < hi; lo, hi = lo+1, hi-1 {
		seq[lo], seq[hi] = seq[hi], seq[lo]
	}
	return finish(s, cand, touched, seq)
}
