package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "moltmud.ai/internal/persistence/log"
	"moltmud.ai/internal/sim/tuning"
	"moltmud.ai/internal/sim/world"
	"moltmud.ai/internal/sim/worlddef"
	"moltmud.ai/internal/store"
	"moltmud.ai/internal/transport/httpapi"
	"moltmud.ai/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		roomsPath    = flag.String("rooms", "", "path to rooms.yaml (default: <configs>/rooms.yaml)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dbPath       = flag.String("db", "", "path to sqlite database (default: <data>/mud.db)")
		disableAudit = flag.Bool("disable_audit", false, "disable the audit JSONL trail")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	rp := strings.TrimSpace(*roomsPath)
	if rp == "" {
		rp = filepath.Join(*configDir, "rooms.yaml")
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	dp := strings.TrimSpace(*dbPath)
	if dp == "" {
		dp = filepath.Join(*dataDir, "mud.db")
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	graph, err := loadRooms(rp, logger)
	if err != nil {
		logger.Fatalf("load rooms: %v", err)
	}
	tune, err := loadTuning(tp, logger)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	st, err := store.Open(dp)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	w, err := world.New(st, graph, tune, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	if !*disableAudit {
		auditLog := persistlog.NewAuditLogger(*dataDir)
		defer auditLog.Close()
		w.SetAuditLogger(auditLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Background sweep for idle sessions.
	sweepStop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(sweepStop)
	}()
	w.StartSweeper(sweepStop)

	mux := http.NewServeMux()
	httpapi.NewServer(w, logger).Register(mux)

	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		s, err := st.Stats()
		if err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP moltmud_agents Total registered agents.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_agents gauge\n")
		fmt.Fprintf(rw, "moltmud_agents %d\n", s.Agents)

		fmt.Fprintf(rw, "# HELP moltmud_active_sessions Currently active sessions.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_active_sessions gauge\n")
		fmt.Fprintf(rw, "moltmud_active_sessions %d\n", s.ActiveSessions)

		fmt.Fprintf(rw, "# HELP moltmud_fragments Knowledge fragments on walls.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_fragments gauge\n")
		fmt.Fprintf(rw, "moltmud_fragments %d\n", s.Fragments)

		fmt.Fprintf(rw, "# HELP moltmud_purchases Completed fragment purchases.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_purchases counter\n")
		fmt.Fprintf(rw, "moltmud_purchases %d\n", s.Purchases)

		fmt.Fprintf(rw, "# HELP moltmud_messages Retained room messages.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_messages gauge\n")
		fmt.Fprintf(rw, "moltmud_messages %d\n", s.Messages)

		fmt.Fprintf(rw, "# HELP moltmud_total_influence Sum of all agent balances.\n")
		fmt.Fprintf(rw, "# TYPE moltmud_total_influence gauge\n")
		fmt.Fprintf(rw, "moltmud_total_influence %g\n", s.TotalInfluence)
	})

	if envBool("MM_ENABLE_OBSERVER_HTTP", true) {
		// Local-only observer endpoints (read-only event feed).
		obsSrv := observer.NewServer(w, logger)
		mux.HandleFunc("/obs/v1/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/obs/v1/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("observer endpoints disabled (MM_ENABLE_OBSERVER_HTTP=false)")
	}
	if envBool("MM_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world %q: %d rooms, default room %q", graph.Name, len(graph.Rooms()), tune.DefaultRoom)
	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func loadRooms(path string, logger *log.Logger) (*worlddef.World, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Printf("rooms config not found (%s); using built-in world", path)
		return worlddef.Compile(worlddef.Defaults())
	}
	return worlddef.Load(path)
}

func loadTuning(path string, logger *log.Logger) (tuning.Tuning, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Printf("tuning not found (%s); using defaults", path)
		return tuning.Defaults(), nil
	}
	return tuning.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
