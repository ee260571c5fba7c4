// Package health answers the liveness and readiness probes for the
// recommendation service. Liveness only confirms the process responds.
// Readiness runs the dependency probes concurrently: Postgres and a built
// snapshot are required to answer queries, while the Redis result cache is
// best-effort, so a missing cache degrades the report without failing the
// probe.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// probeTimeout bounds a single readiness sweep.
const probeTimeout = 5 * time.Second

// Status is the health state of a component or of the service overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// ComponentHealth is the outcome of probing one dependency.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Check probes a single dependency.
type Check func(ctx context.Context) ComponentHealth

// Pinger is the connectivity probe shape shared by the Postgres and Redis
// clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Required builds a check for a dependency the service cannot answer
// queries without. A failed ping makes the service not ready.
func Required(p Pinger) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := p.Ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// BestEffort builds a check for an optional dependency; pass nil when it was
// never configured. Failures degrade the report but leave the service ready,
// matching how the result cache is wired: queries work without it, just
// slower.
func BestEffort(p Pinger) Check {
	return func(ctx context.Context) ComponentHealth {
		if p == nil {
			return ComponentHealth{Status: StatusDegraded, Message: "not configured"}
		}
		if err := p.Ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDegraded, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// SnapshotCheck gates readiness on a built recommendation snapshot. info
// reports the active snapshot's version and course count, or an error before
// the first successful rebuild. A snapshot-less process is live but not
// ready.
func SnapshotCheck(info func() (version string, courses int, err error)) Check {
	return func(ctx context.Context) ComponentHealth {
		version, courses, err := info()
		if err != nil {
			return ComponentHealth{Status: StatusDown, Message: "no snapshot built"}
		}
		return ComponentHealth{
			Status:  StatusUp,
			Message: fmt.Sprintf("%s, %d courses", version, courses),
		}
	}
}

// Report aggregates every component check.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Ready reports whether the service can serve traffic. Degraded means an
// optional dependency is missing; queries still work.
func (r Report) Ready() bool {
	return r.Status != StatusDown
}

// Checker holds the registered dependency checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named dependency check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes every registered check concurrently and aggregates the worst
// component status: any down component takes the report down, otherwise any
// degraded component degrades it.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	type probed struct {
		name   string
		health ComponentHealth
	}
	results := make(chan probed, len(checks))
	for name, check := range checks {
		go func(n string, probe Check) {
			start := time.Now()
			h := probe(ctx)
			h.Latency = time.Since(start).Round(time.Millisecond).String()
			results <- probed{name: n, health: h}
		}(name, check)
	}

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for range checks {
		r := <-results
		report.Components[r.name] = r.health
		switch {
		case r.health.Status == StatusDown:
			report.Status = StatusDown
		case r.health.Status == StatusDegraded && report.Status == StatusUp:
			report.Status = StatusDegraded
		}
	}
	return report
}

// LiveHandler answers liveness probes. It succeeds as long as the process
// serves HTTP at all; a stuck snapshot or dead Postgres does not warrant a
// restart.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]Status{"status": StatusUp})
	}
}

// ReadyHandler answers readiness probes with the full component report.
// Degraded dependencies keep the service in rotation; only a down component
// returns 503.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Ready() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
