package api

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"clrpsa/internal/loader"
	"clrpsa/internal/metrics"
	"clrpsa/internal/model"
	"clrpsa/internal/opt"
	"clrpsa/internal/store"
)

// SolveRequest names a catalog instance or carries one inline, with optional
// parameter overrides. A zero seed is replaced with the current time so
// repeated requests explore differently; pass an explicit seed to reproduce
// a run.
type SolveRequest struct {
	Instance string          `json:"instance,omitempty"`
	Inline   *InlineInstance `json:"inline,omitempty"`
	Seed     int64           `json:"seed,omitempty"`
	Params   *opt.Parameters `json:"params,omitempty"`
}

// InlineInstance is a full problem description in the request body.
type InlineInstance struct {
	Name            string     `json:"name"`
	Depots          []Facility `json:"depots"`
	Customers       []Demand   `json:"customers"`
	VehicleCapacity float64    `json:"vehicleCapacity"`
	RouteSetupCost  float64    `json:"routeSetupCost"`
}

type Facility struct {
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	OpeningCost float64 `json:"openingCost"`
	Capacity    float64 `json:"capacity"`
	RouteSetup  float64 `json:"routeSetup,omitempty"`
}

type Demand struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Demand float64 `json:"demand"`
}

// SolveHandler accepts a solve request, records a completed greedy run and a
// running annealing run, and solves on a goroutine that publishes progress
// to the run's event feed.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req SolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid request body", err.Error(), r.URL.Path)
		return
	}
	inst, err := s.resolveInstance(req)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "unknown instance", err.Error(), r.URL.Path)
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	params := s.Cfg.Annealing
	if req.Params != nil {
		params = *req.Params
	}

	initial := opt.Greedy(inst)
	greedyCost, greedyFeasible := initial.Quality()
	greedyRun, err := s.Store.CreateRun(r.Context(), store.Run{
		InstanceName: inst.Name,
		Algorithm:    store.AlgGreedy,
		Seed:         req.Seed,
		Status:       store.StatusCompleted,
		Cost:         greedyCost,
		Feasible:     greedyFeasible,
		DurationMs:   initial.Elapsed().Milliseconds(),
		Sequence:     initial.Names(),
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "store failure", err.Error(), r.URL.Path)
		return
	}
	metrics.SolveRuns.WithLabelValues(store.AlgGreedy, store.StatusCompleted).Inc()
	metrics.SolveDuration.WithLabelValues(store.AlgGreedy).Observe(initial.Elapsed().Seconds())

	annealRun, err := s.Store.CreateRun(r.Context(), store.Run{
		InstanceName: inst.Name,
		Algorithm:    store.AlgAnneal,
		Seed:         req.Seed,
		Status:       store.StatusRunning,
	})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "store failure", err.Error(), r.URL.Path)
		return
	}

	go s.runAnneal(annealRun, inst, initial, params, req.Seed)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"greedyRun": greedyRun,
		"annealRun": annealRun,
	})
}

// runAnneal executes the annealing search for one run, throttling progress
// events and recording the outcome. A contract violation inside the
// evaluator (a masked distance lookup on a marker) fails the run instead of
// the process.
func (s *Server) runAnneal(run store.Run, inst *model.Instance, initial *opt.Solution, params opt.Parameters, seed int64) {
	ctx := context.Background()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("solve %s: panic: %v", run.ID, rec)
			run.Status = store.StatusFailed
			run.Error = fmt.Sprint(rec)
			_ = s.Store.UpdateRun(ctx, run)
			metrics.SolveRuns.WithLabelValues(store.AlgAnneal, store.StatusFailed).Inc()
			s.Broker.Publish(run.ID, Event{Type: EventSolveFailed, Data: map[string]any{"error": run.Error}})
		}
	}()

	s.Broker.Publish(run.ID, Event{Type: EventSolveStarted, Data: map[string]any{
		"instance": inst.Name,
		"seed":     seed,
	}})

	limiter := rate.NewLimiter(rate.Limit(s.Cfg.ProgressEventsPerSec), 1)
	if s.Cfg.ProgressEventsPerSec <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	annealer := opt.NewAnnealer(params, rand.New(rand.NewSource(seed)), nil)
	annealer.OnProgress = func(p opt.Progress) {
		metrics.SolveIterations.Add(float64(annealer.Parameters().Iiter))
		metrics.SolveBestCost.WithLabelValues(inst.Name).Set(p.BestCost)
		if !limiter.Allow() {
			return
		}
		s.Broker.Publish(run.ID, Event{Type: EventSolveProgress, Data: map[string]any{
			"coolingStep": p.CoolingStep,
			"temperature": p.Temperature,
			"bestCost":    p.BestCost,
			"currentCost": p.CurrentCost,
			"feasible":    p.Feasible,
		}})
	}

	best, stats := annealer.Solve(ctx, initial)
	cost, feasible := best.Quality()

	run.Status = store.StatusCompleted
	run.Cost = cost
	run.Feasible = feasible
	run.Iterations = stats.Iterations
	run.CoolingSteps = stats.CoolingSteps
	run.DurationMs = best.Elapsed().Milliseconds()
	run.Sequence = best.Names()
	if err := s.Store.UpdateRun(ctx, run); err != nil {
		log.Printf("solve %s: update run: %v", run.ID, err)
	}
	metrics.SolveRuns.WithLabelValues(store.AlgAnneal, store.StatusCompleted).Inc()
	metrics.SolveDuration.WithLabelValues(store.AlgAnneal).Observe(best.Elapsed().Seconds())
	metrics.SolveAcceptances.WithLabelValues("better").Add(float64(stats.AcceptedBetter))
	metrics.SolveAcceptances.WithLabelValues("worse").Add(float64(stats.AcceptedWorse))
	metrics.SolveOutcomes.WithLabelValues("starved").Add(float64(stats.Starved))
	metrics.SolveOutcomes.WithLabelValues("rejected").Add(float64(stats.Rejected))
	metrics.SolveBestCost.WithLabelValues(inst.Name).Set(cost)

	s.Broker.Publish(run.ID, Event{Type: EventSolveCompleted, Data: map[string]any{
		"cost":         cost,
		"feasible":     feasible,
		"iterations":   stats.Iterations,
		"coolingSteps": stats.CoolingSteps,
		"durationMs":   run.DurationMs,
	}})
}

func (s *Server) resolveInstance(req SolveRequest) (*model.Instance, error) {
	if req.Inline != nil {
		return buildInline(req.Inline)
	}
	if req.Instance == "" {
		return nil, fmt.Errorf("instance or inline required")
	}
	inst, ok := s.catalog[req.Instance]
	if !ok {
		return nil, fmt.Errorf("instance %q not in catalog", req.Instance)
	}
	return inst, nil
}

func buildInline(in *InlineInstance) (*model.Instance, error) {
	if len(in.Depots) == 0 || len(in.Customers) == 0 {
		return nil, fmt.Errorf("inline instance needs at least one depot and one customer")
	}
	if in.VehicleCapacity <= 0 {
		return nil, fmt.Errorf("inline instance needs a positive vehicle capacity")
	}
	name := in.Name
	if name == "" {
		name = "inline"
	}
	depots := make([]model.Depot, len(in.Depots))
	for i, d := range in.Depots {
		setup := d.RouteSetup
		if setup == 0 {
			setup = in.RouteSetupCost
		}
		depots[i] = model.Depot{Name: d.Name, X: d.X, Y: d.Y, OpeningCost: d.OpeningCost, Capacity: d.Capacity, RouteSetup: setup}
	}
	customers := make([]model.Customer, len(in.Customers))
	for i, c := range in.Customers {
		customers[i] = model.Customer{Name: c.Name, X: c.X, Y: c.Y, Demand: c.Demand}
	}
	return model.NewInstance(name, depots, customers, in.VehicleCapacity, in.RouteSetupCost), nil
}

// ReloadCatalog re-scans the data directory; used at startup and by tests.
func (s *Server) ReloadCatalog() error {
	instances, err := loader.LoadDir(s.Cfg.DataDir)
	if err != nil {
		return err
	}
	catalog := make(map[string]*model.Instance, len(instances))
	for _, inst := range instances {
		catalog[inst.Name] = inst
	}
	s.catalog = catalog
	return nil
}
