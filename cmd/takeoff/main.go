// Command takeoff measures architectural drawing geometry. It runs
// either as a one-shot measurement of a page JSON file or as an HTTP
// service persisting analysis runs to sqlite.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftscale/takeoff/internal/api"
	"github.com/draftscale/takeoff/internal/config"
	"github.com/draftscale/takeoff/internal/debugviz"
	"github.com/draftscale/takeoff/internal/extract"
	"github.com/draftscale/takeoff/internal/httputil"
	"github.com/draftscale/takeoff/internal/interp"
	"github.com/draftscale/takeoff/internal/measure"
	"github.com/draftscale/takeoff/internal/store"
	"github.com/draftscale/takeoff/internal/version"
)

var (
	serve       = flag.Bool("serve", false, "run the HTTP API server")
	listen      = flag.String("listen", ":8080", "listen address for -serve")
	dbPath      = flag.String("db", "takeoff.db", "sqlite database path")
	configPath  = flag.String("config", "", "tuning config JSON path")
	pagePath    = flag.String("page", "", "measure a single page JSON file and print the result")
	plotPath    = flag.String("plot", "", "write a wall plot PNG for -page runs")
	migrateCmd  = flag.String("migrate", "", "run a migration command: up, down or version")
	migrations  = flag.String("migrations", "migrations", "migrations directory for -migrate")
	interpURL   = flag.String("interp-url", "", "drawing interpreter endpoint (empty disables)")
	interpModel = flag.String("interp-model", "", "drawing interpreter model name")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("takeoff %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := &config.TuningConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	var ip interp.Interpreter = interp.Absent{}
	if *interpURL != "" {
		apiKey := os.Getenv("TAKEOFF_INTERP_API_KEY")
		if apiKey == "" {
			log.Fatal("interpreter configured but TAKEOFF_INTERP_API_KEY is not set")
		}
		var hc httputil.HTTPClient = &http.Client{Timeout: 60 * time.Second}
		ip = interp.NewClient(hc, *interpURL, apiKey, *interpModel)
	}

	svc := measure.NewService(cfg, ip)

	switch {
	case *migrateCmd != "":
		runMigrate(*migrateCmd)
	case *pagePath != "":
		runOnce(svc, *pagePath, *plotPath)
	case *serve:
		runServer(svc, ip)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runMigrate(cmd string) {
	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	switch cmd {
	case "up":
		if err := st.MigrateUp(*migrations); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Print("migrations applied")
	case "down":
		if err := st.MigrateDown(*migrations); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Print("migration rolled back")
	case "version":
		v, dirty, err := st.MigrateVersion(*migrations)
		if err != nil {
			log.Fatalf("migrate version: %v", err)
		}
		log.Printf("schema version %d (dirty=%v)", v, dirty)
	default:
		log.Fatalf("unknown migrate command %q (want up, down or version)", cmd)
	}
}

func runOnce(svc *measure.Service, pagePath, plotPath string) {
	data, err := os.ReadFile(pagePath)
	if err != nil {
		log.Fatalf("failed to read page file: %v", err)
	}
	var page extract.Page
	if err := json.Unmarshal(data, &page); err != nil {
		log.Fatalf("failed to parse page file: %v", err)
	}

	m, err := svc.Measure(context.Background(), page)
	if err != nil {
		log.Fatalf("measurement failed: %v", err)
	}

	if plotPath != "" && m.Walls != nil {
		if err := debugviz.SaveWallPlot(plotPath, m.Walls); err != nil {
			log.Printf("failed to write wall plot: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}

func runServer(svc *measure.Service, ip interp.Interpreter) {
	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              *listen,
		Handler:           api.NewServer(svc, st, ip),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("takeoff %s listening on %s", version.Version, *listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
