// Package profiling exposes pprof endpoints and optional continuous
// profiling via Pyroscope.
package profiling

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/jonesrussell/partner-finder/internal/config"
	"github.com/jonesrussell/partner-finder/internal/logger"
)

// Profiler holds the running Pyroscope session, if any.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// Start enables profiling when the config asks for it. The pprof server
// binds to localhost only; Pyroscope starts when a server URL is set.
//
// Standard pprof endpoints become available:
//   - /debug/pprof/heap - memory allocation profiling
//   - /debug/pprof/goroutine - goroutine stack traces
//   - /debug/pprof/profile - CPU profiling (30s default)
//   - /debug/pprof/block - blocking operations
//   - /debug/pprof/mutex - mutex contention
func Start(cfg config.ProfilingConfig, log logger.Logger) (*Profiler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	startPprofServer(cfg.PprofPort, log)

	if cfg.PyroscopeURL == "" {
		return nil, nil
	}

	name := cfg.PyroscopeName
	if name == "" {
		name = "partner-finder"
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: name,
		ServerAddress:   cfg.PyroscopeURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"hostname":   hostname(),
			"go_version": runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("continuous profiling started",
		logger.String("application", name),
		logger.String("server", cfg.PyroscopeURL))

	return &Profiler{profiler: profiler}, nil
}

// Stop shuts down the Pyroscope session. Safe to call on a nil receiver.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func startPprofServer(port int, log logger.Logger) {
	if port == 0 {
		port = 6060
	}

	// Localhost only, so profiles are never reachable from outside.
	addr := fmt.Sprintf("localhost:%d", port)

	go func() {
		log.Info("pprof server listening", logger.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Warn("pprof server stopped", logger.Error(err))
		}
	}()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
