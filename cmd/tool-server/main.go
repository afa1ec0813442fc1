// cmd/tool-server/main.go: HTTP tool server for symdiff
//
// Exposes the symdiff tool calls as an HTTP endpoint for agent frameworks.
//
// Usage:
//
//	go run ./cmd/tool-server -server.port 8080 -config.file solver.yaml
//
// Tool call endpoint: POST /tool
// Schema endpoint:    GET  /schema
// Health endpoint:    GET  /health
// Metrics endpoint:   GET  /metrics
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njchilds90/symdiff"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type config struct {
	port       int
	logLevel   string
	configFile string
	solver     symdiff.Config
}

func (c *config) registerFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "server.port", 8080, "Port to listen on")
	f.StringVar(&c.logLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.StringVar(&c.configFile, "config.file", "", "YAML file with solver settings. Flags given explicitly override it.")
	c.solver.RegisterFlags(f)
}

func main() {
	var cfg config
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg.registerFlags(fs)
	_ = fs.Parse(os.Args[1:])

	logger, err := symdiff.NewLogger(os.Stderr, cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.configFile != "" {
		fileCfg, err := symdiff.LoadConfig(cfg.configFile)
		if err != nil {
			level.Error(logger).Log("msg", "failed to load config", "err", err)
			os.Exit(1)
		}
		// Flags set on the command line win over the file.
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if !explicit["newton.max-iterations"] {
			cfg.solver.MaxIterations = fileCfg.MaxIterations
		}
		if !explicit["newton.tolerance"] {
			cfg.solver.Tolerance = fileCfg.Tolerance
		}
		if !explicit["newton.initial-guess"] {
			cfg.solver.InitialGuess = fileCfg.InitialGuess
		}
		if !explicit["newton.trace"] {
			cfg.solver.Trace = fileCfg.Trace
		}
	}
	if err := cfg.solver.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid solver config", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	solver := symdiff.NewSolver(cfg.solver, log.With(logger, "component", "solver"), reg)
	router := newRouter(symdiff.NewToolHandler(solver), reg, logger)

	addr := fmt.Sprintf(":%d", cfg.port)
	level.Info(logger).Log("msg", "symdiff tool server listening", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(h *symdiff.ToolHandler, reg *prometheus.Registry, logger log.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/tool", toolHandler(h, logger)).Methods(http.MethodPost)
	r.HandleFunc("/schema", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, symdiff.ToolSpec())
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).Methods(http.MethodGet)
	return r
}

func toolHandler(h *symdiff.ToolHandler, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				level.Error(logger).Log("msg", "panic in /tool", "panic", rec, "stack", string(debug.Stack()))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		buf, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		req, err := symdiff.DecodeToolRequest(buf)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		resp := h.Handle(r.Context(), req)
		if resp.Error != "" {
			level.Debug(logger).Log("msg", "tool call failed", "tool", req.Tool, "err", resp.Error)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := symdiff.EncodeJSON(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
