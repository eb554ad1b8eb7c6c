// Command solver runs the greedy construction and the simulated-annealing
// search over instance files and prints a per-instance summary. With
// DATABASE_URL set the results are also recorded in the run store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"clrpsa/internal/config"
	"clrpsa/internal/loader"
	"clrpsa/internal/model"
	"clrpsa/internal/opt"
	"clrpsa/internal/store"
	"clrpsa/internal/trace"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	dataDir := flag.String("data", "", "instance directory (overrides config)")
	only := flag.String("instance", "", "solve only the named instance")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	writeTrace := flag.Bool("trace", false, "write a decision trace per instance")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	instances, err := loader.LoadDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to load instances: %v", err)
	}
	if *only != "" {
		var filtered []*model.Instance
		for _, inst := range instances {
			if inst.Name == *only {
				filtered = append(filtered, inst)
			}
		}
		instances = filtered
	}
	if len(instances) == 0 {
		log.Fatalf("no instances to solve in %s", cfg.DataDir)
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open run store: %v", err)
		}
		if err := pg.Migrate(context.Background()); err != nil {
			log.Fatalf("failed to migrate run store: %v", err)
		}
		st = pg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("%-28s %12s %12s %10s %8s\n", "instance", "greedy", "anneal", "feasible", "seconds")
	for _, inst := range instances {
		solveOne(ctx, cfg, st, inst, *seed, *writeTrace)
		if ctx.Err() != nil {
			log.Printf("interrupted; stopping batch")
			break
		}
	}
}

func solveOne(ctx context.Context, cfg config.Config, st store.Store, inst *model.Instance, seed int64, writeTrace bool) {
	initial := opt.Greedy(inst)
	greedyCost, _ := initial.Quality()
	if !initial.IsValid() {
		log.Printf("%s: greedy produced an invalid sequence; skipping", inst.Name)
		return
	}
	recordRun(ctx, st, inst, store.AlgGreedy, seed, initial, opt.Stats{})

	tracer := trace.New(inst.Name+"-anneal", writeTrace)
	annealer := opt.NewAnnealer(cfg.Annealing, rand.New(rand.NewSource(seed)), tracer)
	best, stats := annealer.Solve(ctx, initial)
	cost, feasible := best.Quality()
	recordRun(ctx, st, inst, store.AlgAnneal, seed, best, stats)

	if writeTrace {
		dir := cfg.TraceDir
		if dir == "" {
			dir = "."
		}
		if err := tracer.WriteFile(dir); err != nil {
			log.Printf("%s: write trace: %v", inst.Name, err)
		}
	}

	fmt.Printf("%-28s %12.0f %12.0f %10v %8.2f\n",
		inst.Name, greedyCost, cost, feasible, best.Elapsed().Seconds())
}

func recordRun(ctx context.Context, st store.Store, inst *model.Instance, alg string, seed int64, sol *opt.Solution, stats opt.Stats) {
	if st == nil {
		return
	}
	cost, feasible := sol.Quality()
	_, err := st.CreateRun(ctx, store.Run{
		InstanceName: inst.Name,
		Algorithm:    alg,
		Seed:         seed,
		Status:       store.StatusCompleted,
		Cost:         cost,
		Feasible:     feasible,
		Iterations:   stats.Iterations,
		CoolingSteps: stats.CoolingSteps,
		DurationMs:   sol.Elapsed().Milliseconds(),
		Sequence:     sol.Names(),
	})
	if err != nil {
		log.Printf("%s: record %s run: %v", inst.Name, alg, err)
	}
}
