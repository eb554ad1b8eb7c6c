package opt

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Tracer receives the annealer's decision trace. The zero implementation in
// internal/trace discards everything; a disabled tracer must not change
// search outcomes, so the annealer only formats through this interface.
type Tracer interface {
	Logf(format string, args ...any)
	Push()
	Pop()
}

// Progress is a periodic snapshot of the search, emitted once per cooling
// step.
type Progress struct {
	CoolingStep int     `json:"coolingStep"`
	Temperature float64 `json:"temperature"`
	BestCost    float64 `json:"bestCost"`
	CurrentCost float64 `json:"currentCost"`
	Feasible    bool    `json:"feasible"`
}

// Stats summarizes one annealing run.
type Stats struct {
	Iterations     int     `json:"iterations"`
	CoolingSteps   int     `json:"coolingSteps"`
	AcceptedBetter int     `json:"acceptedBetter"`
	AcceptedWorse  int     `json:"acceptedWorse"`
	Starved        int     `json:"starved"`
	Rejected       int     `json:"rejected"`
	BestCost       float64 `json:"bestCost"`
	FinalTemp      float64 `json:"finalTemp"`
}

// Annealer runs the simulated-annealing search: uniform operator selection,
// Metropolis acceptance with penalized costs, geometric cooling, and a forced
// Swap-then-Insert intensification pass on the best-known solution after
// every cooling step.
type Annealer struct {
	params    Parameters
	rng       *rand.Rand
	tracer    Tracer
	operators []Operator
	// localSearch is applied in order during intensification.
	localSearch [2]Operator
	// OnProgress, when set, is invoked after each cooling step.
	OnProgress func(Progress)
}

// NewAnnealer builds a driver with an explicit random source so runs are
// reproducible. tracer may be nil.
func NewAnnealer(params Parameters, rng *rand.Rand, tracer Tracer) *Annealer {
	if tracer == nil {
		tracer = nopTracer{}
	}
	return &Annealer{
		params:      params.normalized(),
		rng:         rng,
		tracer:      tracer,
		operators:   []Operator{Insert{}, Swap{}, TwoOpt{}},
		localSearch: [2]Operator{Swap{}, Insert{}},
	}
}

// Parameters returns the normalized parameter set in use.
func (a *Annealer) Parameters() Parameters { return a.params }

// Solve improves the initial solution until the temperature floor or the
// non-improvement cap is reached and returns the best feasible-or-initial
// solution found. The context is only consulted at cooling-step boundaries;
// cancellation returns the best solution so far.
func (a *Annealer) Solve(ctx context.Context, initial *Solution) (*Solution, Stats) {
	p := a.params
	threshold := p.Iiter * initial.Len()
	if threshold <= 0 {
		threshold = p.Iiter
	}

	temp := p.T0
	iterCount := 0
	nonImproving := 0
	best := initial
	current := initial
	var stats Stats

	a.tracer.Logf("----- SA parameters -----")
	a.tracer.Logf("--- alpha: %v", p.A)
	a.tracer.Logf("--- temp start: %v final: %v", p.T0, p.TF)
	a.tracer.Logf("--- K: %v penalty: %v", p.K, p.P)
	a.tracer.Logf("--- non-improving cap: %d threshold: %d", p.NonImproving, threshold)
	a.tracer.Push()
	defer a.tracer.Pop()

	start := time.Now()
	for temp > p.TF {
		iterCount++
		stats.Iterations++

		currCost := current.PenalizedCost(p.P)

		op := a.operators[a.rng.Intn(len(a.operators))]
		res := op.Apply(a.rng, current)
		switch res.Outcome {
		case Starved:
			stats.Starved++
		case Rejected:
			stats.Rejected++
		}
		candCost := res.Solution.PenalizedCost(p.P)

		delta := candCost - currCost
		if delta <= 0 {
			a.tracer.Logf("step %d %s: accepted (delta %v)", stats.Iterations, op.Name(), delta)
			current = res.Solution
			currCost = candCost
			stats.AcceptedBetter++
		} else {
			r := a.rng.Float64()
			exp := math.Exp(-delta / (p.K * temp))
			if r < exp {
				a.tracer.Logf("step %d %s: worse accepted (r %v < %v)", stats.Iterations, op.Name(), r, exp)
				current = res.Solution
				currCost = candCost
				stats.AcceptedWorse++
			} else {
				a.tracer.Logf("step %d %s: rejected (delta %v)", stats.Iterations, op.Name(), delta)
			}
		}

		_, currFeasible := current.Quality()
		if currCost < best.PenalizedCost(p.P) && currFeasible {
			a.tracer.Logf("new best: %v", currCost)
			best = current
			nonImproving = 0
		}

		if iterCount == threshold {
			iterCount = 0
			nonImproving++
			temp = p.A * temp
			stats.CoolingSteps++
			a.tracer.Logf("threshold reached: temp %v non-improving %d", temp, nonImproving)

			best = a.intensify(best, &current)

			if a.OnProgress != nil {
				bc, _ := best.Quality()
				cc, cf := current.Quality()
				a.OnProgress(Progress{
					CoolingStep: stats.CoolingSteps,
					Temperature: temp,
					BestCost:    bc,
					CurrentCost: cc,
					Feasible:    cf,
				})
			}
			if ctx.Err() != nil {
				break
			}
		}

		if temp <= p.TF || nonImproving >= p.NonImproving {
			break
		}
	}

	best.SetElapsed(time.Since(start))
	stats.BestCost, _ = best.Quality()
	stats.FinalTemp = temp
	return best, stats
}

// intensify performs the deterministic descent hybridization: Swap on the
// best-known solution, then Insert on the result when the Swap pass came out
// feasible, falling back to Insert directly on best otherwise. The final
// candidate replaces best only on a strict, feasible improvement. The
// running current solution is repositioned onto the pass's output either way.
func (a *Annealer) intensify(best *Solution, current **Solution) *Solution {
	bestCost, _ := best.Quality()
	a.tracer.Logf("local search on best: %v", bestCost)

	first := a.localSearch[0].Apply(a.rng, best)
	*current = first.Solution
	if first.Feasible {
		second := a.localSearch[1].Apply(a.rng, first.Solution)
		*current = second.Solution
		cost, _ := second.Solution.Quality()
		if second.Feasible && cost < bestCost {
			a.tracer.Logf("local search improved best: %v", cost)
			return second.Solution
		}
		return best
	}

	fallback := a.localSearch[1].Apply(a.rng, best)
	*current = fallback.Solution
	cost, _ := fallback.Solution.Quality()
	if fallback.Feasible && cost < bestCost {
		a.tracer.Logf("local search improved best: %v", cost)
		return fallback.Solution
	}
	return best
}

type nopTracer struct{}

func (nopTracer) Logf(string, ...any) {}
func (nopTracer) Push()               {}
func (nopTracer) Pop()                {}
