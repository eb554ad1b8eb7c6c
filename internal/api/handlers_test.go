package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clrpsa/internal/config"
	"clrpsa/internal/model"
	"clrpsa/internal/opt"
	"clrpsa/internal/store"
)

func testServer() *Server {
	inst := model.NewInstance("two-depot",
		[]model.Depot{
			{Name: "D1", X: 0, Y: 0, OpeningCost: 50, Capacity: 100, RouteSetup: 10},
			{Name: "D2", X: 20, Y: 0, OpeningCost: 50, Capacity: 100, RouteSetup: 10},
		},
		[]model.Customer{
			{Name: "C1", X: 1, Y: 0, Demand: 4},
			{Name: "C2", X: 2, Y: 0, Demand: 4},
			{Name: "C3", X: 19, Y: 0, Demand: 4},
		},
		10, 10)
	return &Server{
		Cfg:     config.Default(),
		Store:   store.NewMemory(),
		Broker:  NewBroker(),
		catalog: map[string]*model.Instance{inst.Name: inst},
	}
}

func fastParams() *opt.Parameters {
	return &opt.Parameters{
		A:            0.5,
		Iiter:        5,
		P:            400,
		K:            1.0 / 9.0,
		T0:           1,
		TF:           0.5,
		NonImproving: 3,
	}
}

func postSolve(t *testing.T, h http.Handler, req SolveRequest) map[string]store.Run {
	t.Helper()
	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("solve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]store.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func waitForRun(t *testing.T, st store.Store, id string) store.Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := st.GetRun(context.Background(), id)
		if err != nil {
			t.Fatalf("get run: %v", err)
		}
		if run.Status != store.StatusRunning {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s still running after deadline", id)
	return store.Run{}
}

func TestSolveCatalogInstance(t *testing.T) {
	s := testServer()
	h := s.Handler()

	out := postSolve(t, h, SolveRequest{Instance: "two-depot", Seed: 7, Params: fastParams()})

	greedy := out["greedyRun"]
	if greedy.Status != store.StatusCompleted {
		t.Fatalf("greedy run status = %s", greedy.Status)
	}
	if greedy.Algorithm != store.AlgGreedy || greedy.Cost <= 0 {
		t.Fatalf("bad greedy run: %+v", greedy)
	}

	anneal := out["annealRun"]
	if anneal.Status != store.StatusRunning {
		t.Fatalf("anneal run should start running, got %s", anneal.Status)
	}
	done := waitForRun(t, s.Store, anneal.ID)
	if done.Status != store.StatusCompleted {
		t.Fatalf("anneal run status = %s, error %q", done.Status, done.Error)
	}
	if !done.Feasible {
		t.Fatalf("anneal run infeasible: %+v", done)
	}
	if done.Cost > greedy.Cost {
		t.Fatalf("anneal cost %.0f worse than greedy %.0f", done.Cost, greedy.Cost)
	}
	if len(done.Sequence) == 0 || done.Iterations == 0 {
		t.Fatalf("anneal run missing result fields: %+v", done)
	}
}

func TestSolveInlineInstance(t *testing.T) {
	s := testServer()
	h := s.Handler()

	out := postSolve(t, h, SolveRequest{
		Inline: &InlineInstance{
			Name: "adhoc",
			Depots: []Facility{
				{Name: "D1", X: 0, Y: 0, OpeningCost: 10, Capacity: 50},
			},
			Customers: []Demand{
				{Name: "C1", X: 3, Y: 4, Demand: 5},
				{Name: "C2", X: 6, Y: 0, Demand: 5},
			},
			VehicleCapacity: 10,
			RouteSetupCost:  5,
		},
		Seed:   1,
		Params: fastParams(),
	})

	done := waitForRun(t, s.Store, out["annealRun"].ID)
	if done.Status != store.StatusCompleted || !done.Feasible {
		t.Fatalf("inline solve did not complete feasibly: %+v", done)
	}
	if done.InstanceName != "adhoc" {
		t.Fatalf("instance name = %q", done.InstanceName)
	}
}

func TestSolveRejectsUnknownInstance(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	body, _ := json.Marshal(SolveRequest{Instance: "nope"})
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var p Problem
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if p.Title != "unknown instance" {
		t.Fatalf("problem title = %q", p.Title)
	}
}

func TestSolveRejectsBadBody(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader([]byte(`{"bogus":1}`))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSolveMethodNotAllowed(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/solve", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRunsListAndGet(t *testing.T) {
	s := testServer()
	h := s.Handler()
	out := postSolve(t, h, SolveRequest{Instance: "two-depot", Seed: 3, Params: fastParams()})
	waitForRun(t, s.Store, out["annealRun"].ID)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Items []store.Run `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list.Items))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+out["greedyRun"].ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var run store.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.Algorithm != store.AlgGreedy {
		t.Fatalf("algorithm = %s", run.Algorithm)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d", rec.Code)
	}
}

func TestInstancesHandler(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/instances", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Items []struct {
			Name      string `json:"name"`
			Depots    int    `json:"depots"`
			Customers int    `json:"customers"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Name != "two-depot" || out.Items[0].Customers != 3 {
		t.Fatalf("unexpected catalog: %+v", out.Items)
	}
}

func TestEventStreamEndsOnCompletion(t *testing.T) {
	s := testServer()
	h := s.Handler()

	// Subscribe before launching the solve so no event is missed.
	run, err := s.Store.CreateRun(context.Background(), store.Run{
		InstanceName: "two-depot",
		Algorithm:    store.AlgAnneal,
		Status:       store.StatusRunning,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/"+run.ID+"/events/stream", nil))
		done <- rec
	}()

	// Give the subscriber time to register, then finish the run.
	time.Sleep(50 * time.Millisecond)
	s.Broker.Publish(run.ID, Event{Type: EventSolveProgress, Data: map[string]any{"bestCost": 10.0}})
	s.Broker.Publish(run.ID, Event{Type: EventSolveCompleted, Data: map[string]any{"cost": 10.0}})

	select {
	case rec := <-done:
		body := rec.Body.String()
		if !bytes.Contains([]byte(body), []byte("event: solve.progress")) {
			t.Fatalf("missing progress event in stream:\n%s", body)
		}
		if !bytes.Contains([]byte(body), []byte("event: solve.completed")) {
			t.Fatalf("missing completed event in stream:\n%s", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end on completion")
	}
}
