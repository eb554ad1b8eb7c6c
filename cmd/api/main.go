package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"clrpsa/internal/api"
	"clrpsa/internal/buildinfo"
	"clrpsa/internal/config"
	"clrpsa/internal/loader"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	instances, err := loader.LoadDir(cfg.DataDir)
	if err != nil {
		log.Printf("instance catalog unavailable (%v); inline instances only", err)
	}
	log.Printf("loaded %d instances from %s", len(instances), cfg.DataDir)

	srv, err := api.NewServer(cfg, instances)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           logMiddleware(srv.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("clrpsa API %s listening on %s", buildinfo.Version, cfg.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
