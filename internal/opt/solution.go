package opt

import (
	"math"
	"time"

	"clrpsa/internal/model"
)

// Solution owns a shared read-only Instance and the tour encoding: an ordered
// sequence of depot, customer, and route-break references. Cost and
// feasibility are cached on every SetSolution; Quality never recomputes.
type Solution struct {
	inst *model.Instance
	seq  []model.NodeRef

	// breakPool counts the route-break markers not yet placed in the
	// sequence. Fixed at creation to ceil(totalDemand/vehicleCapacity).
	breakPool int

	cost     float64
	feasible bool
	valid    bool

	elapsed time.Duration
}

// NewSolution creates an empty solution with a full route-break pool.
func NewSolution(inst *model.Instance) *Solution {
	return &Solution{
		inst:      inst,
		breakPool: inst.NumRouteBreaks(),
		feasible:  true,
		valid:     true,
	}
}

// newCandidate clones the parent's sequence into a fresh solution with an
// empty break pool: operators rearrange existing nodes, never allocate new
// ones. The parent is left untouched, so a rejected candidate cannot corrupt
// the caller's current best.
func newCandidate(parent *Solution) *Solution {
	s := NewSolution(parent.inst)
	s.breakPool = 0
	s.seq = append([]model.NodeRef(nil), parent.seq...)
	return s
}

// Instance returns the shared problem instance.
func (s *Solution) Instance() *model.Instance { return s.inst }

// Sequence returns a copy of the tour encoding.
func (s *Solution) Sequence() []model.NodeRef {
	return append([]model.NodeRef(nil), s.seq...)
}

// Len is the current sequence length.
func (s *Solution) Len() int { return len(s.seq) }

// RemainingBreaks reports how many route-break markers are still pooled.
func (s *Solution) RemainingBreaks() int { return s.breakPool }

// Append places a node at the end of the sequence during initial
// construction. It does not re-evaluate; call SetSolution or Finish when the
// sequence is complete.
func (s *Solution) Append(r model.NodeRef) {
	s.seq = append(s.seq, r)
}

// AppendRouteBreak pops one marker from the pool and appends it. With an
// exhausted pool the append is skipped and false is returned, so callers can
// tell a placed marker from a silent no-op.
func (s *Solution) AppendRouteBreak() bool {
	if s.breakPool <= 0 {
		return false
	}
	s.breakPool--
	s.seq = append(s.seq, model.BreakRef(s.breakPool))
	return true
}

// SetSolution replaces the encoding wholesale and re-derives validity, cost,
// and feasibility. This is the only path by which an operator-produced
// sequence becomes authoritative.
func (s *Solution) SetSolution(seq []model.NodeRef) {
	s.seq = seq
	s.revalidate()
}

// Finish evaluates an incrementally built sequence in place.
func (s *Solution) Finish() {
	s.revalidate()
}

func (s *Solution) revalidate() {
	if !s.scanValid() {
		s.valid = false
		s.cost = math.Inf(1)
		s.feasible = false
		return
	}
	s.valid = true
	s.cost, s.feasible = evaluate(s.inst, reduce(s.seq))
}

// scanValid enforces the seen-depot rule: no customer may appear before the
// first depot.
func (s *Solution) scanValid() bool {
	seenDepot := false
	for _, r := range s.seq {
		switch r.Kind {
		case model.KindDepot:
			seenDepot = true
		case model.KindCustomer:
			if !seenDepot {
				return false
			}
		}
	}
	return true
}

// IsValid reports the cached seen-depot validity.
func (s *Solution) IsValid() bool { return s.valid }

// Quality returns the cached (cost, feasible) pair. Invalid solutions carry
// infinite cost.
func (s *Solution) Quality() (float64, bool) { return s.cost, s.feasible }

// PenalizedCost is the cached cost plus the infeasibility penalty P. The
// evaluator itself stays penalty-free; the annealing driver and anything
// comparing solutions use this.
func (s *Solution) PenalizedCost(p float64) float64 {
	if s.feasible {
		return s.cost
	}
	return s.cost + p
}

// SetElapsed records the wall-clock duration of the producing solve.
func (s *Solution) SetElapsed(d time.Duration) { s.elapsed = d }

// Elapsed returns the recorded solve duration.
func (s *Solution) Elapsed() time.Duration { return s.elapsed }

// Names renders the sequence as node names, for traces and run records.
func (s *Solution) Names() []string {
	out := make([]string, len(s.seq))
	for i, r := range s.seq {
		out[i] = s.inst.NodeName(r)
	}
	return out
}
