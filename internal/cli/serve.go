package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/stepform"
	httpAdapter "github.com/aretw0/stepform/pkg/adapters/http"
	"github.com/aretw0/stepform/pkg/adapters/mcp"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/observability"
)

// ServeOptions configures the HTTP and MCP servers.
type ServeOptions struct {
	Path      string
	Port      int
	Transport string
	Store     StoreOptions
	Debug     bool
	Out       io.Writer
}

const shutdownTimeout = 5 * time.Second

func version() string {
	return strings.TrimSpace(stepform.Version)
}

// RunServe serves form sessions over HTTP until SIGINT or SIGTERM.
func RunServe(opts ServeOptions) error {
	logger := CreateLogger(opts.Debug)
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := []domain.LifecycleHooks{observability.NewMetrics(reg).Hooks()}
	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}

	eng, err := createEngine(opts.Path, false, logger)
	if err != nil {
		return err
	}
	mgr, err := NewManager(opts.Store, logger)
	if err != nil {
		return err
	}

	handler := httpAdapter.NewHandler(eng.Registry(), mgr,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		httpAdapter.WithMetrics(reg),
		httpAdapter.WithVersion(version()),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	// Definitions are re-read on change; live sessions keep their blueprint.
	if _, err := eng.Watch(sigCtx); err != nil {
		logger.Warn("hot reload unavailable", "err", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "Starting stepform server on %s\n", srv.Addr)
		fmt.Fprintf(out, "Serving forms from: %s\n", opts.Path)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
		fmt.Fprintf(out, "\nStart shutdown... Signal: %v\n", sigCtx.Signal())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		fmt.Fprintln(out, "stepform server stopped gracefully")
		return nil
	}
}

// RunMCP exposes form sessions as MCP tools over stdio or SSE.
func RunMCP(opts ServeOptions) error {
	// stdout belongs to JSON-RPC; logs stay on stderr.
	logger := CreateLogger(opts.Debug)

	eng, err := createEngine(opts.Path, opts.Debug, logger)
	if err != nil {
		return err
	}
	mgr, err := NewManager(opts.Store, logger)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(eng.Service(mgr), mcp.WithLogger(logger), mcp.WithVersion(version()))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("starting MCP server (SSE)", "port", opts.Port)
		sigCtx := NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		if err := srv.ServeSSE(sigCtx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", opts.Transport)
	}
}
