package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"courseintel/internal/catalog"
	"courseintel/internal/scoring"
	"courseintel/internal/similarity"
	apperrors "courseintel/pkg/errors"
	"courseintel/pkg/metrics"
)

// Loader supplies the full course dataset, already deduplicated by ID.
type Loader interface {
	LoadAll(ctx context.Context) ([]catalog.Course, error)
}

// defaultRebuildTimeout bounds a build when the caller configured none.
const defaultRebuildTimeout = 2 * time.Minute

// Engine owns the active snapshot. Rebuilds construct a complete new
// snapshot off to the side and swap the pointer atomically, so queries
// running against the old snapshot finish against a consistent view.
type Engine struct {
	loader         Loader
	params         scoring.Params
	vocabLimit     int
	rebuildTimeout time.Duration
	metrics        *metrics.Metrics
	logger         *slog.Logger

	snapshot atomic.Pointer[Snapshot]
	buildSeq atomic.Int64
	group    singleflight.Group
}

// NewEngine creates an Engine without a snapshot; call Rebuild before
// serving queries. rebuildTimeout <= 0 falls back to a default; metrics may
// be nil.
func NewEngine(loader Loader, params scoring.Params, vocabLimit int, rebuildTimeout time.Duration, m *metrics.Metrics) *Engine {
	if rebuildTimeout <= 0 {
		rebuildTimeout = defaultRebuildTimeout
	}
	return &Engine{
		loader:         loader,
		params:         params,
		vocabLimit:     vocabLimit,
		rebuildTimeout: rebuildTimeout,
		metrics:        m,
		logger:         slog.Default().With("component", "recommend-engine"),
	}
}

// Snapshot returns the active snapshot, or ErrSnapshotUnavailable before
// the first successful rebuild.
func (e *Engine) Snapshot() (*Snapshot, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, apperrors.New(apperrors.ErrSnapshotUnavailable, 503, "no snapshot built yet")
	}
	return snap, nil
}

// Rebuild loads the dataset, enriches it, builds the similarity index, and
// swaps the new snapshot in. Concurrent calls are coalesced into a single
// build; every caller gets the resulting snapshot. The O(N²) index
// materialization makes this the one long-running operation in the engine.
func (e *Engine) Rebuild(ctx context.Context) (*Snapshot, error) {
	snap, err, shared := e.group.Do("rebuild", func() (interface{}, error) {
		// A coalesced build serves every waiting caller, so it must not
		// die with the first caller's request; it runs detached from that
		// request's cancellation under the engine's own timeout.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.rebuildTimeout)
		defer cancel()
		return e.build(buildCtx)
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.SnapshotBuildsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if shared {
		e.logger.Debug("rebuild coalesced with in-flight build")
	}
	return snap.(*Snapshot), nil
}

func (e *Engine) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	courses, err := e.loader.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	enriched, err := scoring.Enrich(courses, e.params)
	if err != nil {
		return nil, fmt.Errorf("enriching dataset: %w", err)
	}

	contents := make([]string, len(enriched))
	for i, c := range enriched {
		contents[i] = c.ContentText()
	}
	index, err := similarity.Build(contents, e.vocabLimit)
	if err != nil {
		return nil, fmt.Errorf("building similarity index: %w", err)
	}

	version := fmt.Sprintf("v%d", e.buildSeq.Add(1))
	snap := NewSnapshot(version, enriched, index)
	e.snapshot.Store(snap)

	elapsed := time.Since(start)
	suspicious := 0
	for _, c := range enriched {
		if c.Suspicious {
			suspicious++
		}
	}
	if e.metrics != nil {
		e.metrics.SnapshotBuildsTotal.WithLabelValues("ok").Inc()
		e.metrics.SnapshotBuildDuration.Observe(elapsed.Seconds())
		e.metrics.SnapshotCourses.Set(float64(len(enriched)))
		e.metrics.SnapshotVocabulary.Set(float64(index.VocabularySize()))
		e.metrics.SuspiciousCourses.Set(float64(suspicious))
	}
	e.logger.Info("snapshot built",
		"version", version,
		"courses", len(enriched),
		"vocabulary", index.VocabularySize(),
		"suspicious", suspicious,
		"elapsed", elapsed.Round(time.Millisecond).String(),
	)
	return snap, nil
}
