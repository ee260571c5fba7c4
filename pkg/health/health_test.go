package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func up(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusUp}
}

func down(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDown, Message: "connection refused"}
}

func degraded(ctx context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDegraded, Message: "not configured"}
}

func TestRequiredCheck(t *testing.T) {
	if got := Required(fakePinger{})(context.Background()); got.Status != StatusUp {
		t.Errorf("healthy pinger status = %q, want up", got.Status)
	}
	got := Required(fakePinger{err: errors.New("connection refused")})(context.Background())
	if got.Status != StatusDown {
		t.Errorf("failing pinger status = %q, want down", got.Status)
	}
	if got.Message != "connection refused" {
		t.Errorf("failing pinger message = %q, want the ping error", got.Message)
	}
}

func TestBestEffortCheck(t *testing.T) {
	if got := BestEffort(nil)(context.Background()); got.Status != StatusDegraded {
		t.Errorf("unconfigured dependency status = %q, want degraded", got.Status)
	}
	if got := BestEffort(fakePinger{err: errors.New("timeout")})(context.Background()); got.Status != StatusDegraded {
		t.Errorf("failing optional dependency status = %q, want degraded", got.Status)
	}
	if got := BestEffort(fakePinger{})(context.Background()); got.Status != StatusUp {
		t.Errorf("healthy optional dependency status = %q, want up", got.Status)
	}
}

func TestSnapshotCheck(t *testing.T) {
	noSnapshot := SnapshotCheck(func() (string, int, error) {
		return "", 0, errors.New("no snapshot built yet")
	})
	if got := noSnapshot(context.Background()); got.Status != StatusDown {
		t.Errorf("snapshot-less engine status = %q, want down", got.Status)
	}

	built := SnapshotCheck(func() (string, int, error) {
		return "v3", 42, nil
	})
	got := built(context.Background())
	if got.Status != StatusUp {
		t.Errorf("built snapshot status = %q, want up", got.Status)
	}
	if got.Message != "v3, 42 courses" {
		t.Errorf("built snapshot message = %q, want version and course count", got.Message)
	}
}

func TestRunAllUp(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", up)
	c.Register("snapshot", up)

	report := c.Run(context.Background())
	if report.Status != StatusUp {
		t.Errorf("overall status = %q, want up", report.Status)
	}
	if len(report.Components) != 2 {
		t.Errorf("components = %d, want 2", len(report.Components))
	}
}

func TestRunWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", up)
	c.Register("redis", degraded)
	if got := c.Run(context.Background()).Status; got != StatusDegraded {
		t.Errorf("status = %q, want degraded", got)
	}

	c.Register("snapshot", down)
	if got := c.Run(context.Background()).Status; got != StatusDown {
		t.Errorf("status = %q, want down", got)
	}
}

func TestReadyHandlerDegradedStaysReady(t *testing.T) {
	// A missing result cache must not pull the service out of rotation.
	c := NewChecker()
	c.Register("postgres", up)
	c.Register("redis", degraded)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready status with degraded cache = %d, want 200", rec.Code)
	}

	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != StatusDegraded {
		t.Errorf("report status = %q, want degraded", report.Status)
	}
}

func TestReadyHandlerDownComponent(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", up)
	c.Register("snapshot", down)

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status with down component = %d, want 503", rec.Code)
	}
}

func TestLiveHandler(t *testing.T) {
	// Liveness never consults the dependency checks.
	c := NewChecker()
	c.Register("postgres", down)

	rec := httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}
