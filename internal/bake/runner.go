package bake

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/occlubake/internal/config"
	"github.com/Faultbox/occlubake/internal/cull"
	"github.com/Faultbox/occlubake/internal/logger"
	"github.com/Faultbox/occlubake/internal/occlusion"
)

// Runner reduces targets one at a time.
type Runner struct {
	Config   config.KernelConfig
	Oracle   occlusion.Oracle
	Store    Store
	Progress Progress       // nil disables progress reporting
	Points   cull.PointSink // nil disables debug point capture
}

// Run reduces every target against observers. A failing target is recorded
// in the report and never stops the batch. The returned error is non-nil
// only when the run is rejected up front (nil report) or ctx is done
// (partial report).
func (r *Runner) Run(ctx context.Context, observers []cull.Observer, targets []Target) (*Report, error) {
	if len(observers) == 0 {
		return nil, ErrNoObservers
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if r.Store == nil {
		return nil, ErrNoOutputLocation
	}
	location, err := r.Store.Prepare()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOutputLocation, err)
	}

	oracle := r.Oracle
	if oracle == nil {
		oracle = occlusion.Open
	}
	classifier := &cull.Classifier{
		Oracle:      oracle,
		Observers:   observers,
		Bias:        r.Config.SurfaceBias,
		MultiSample: r.Config.MultiSample,
		Points:      r.Points,
	}

	logger.Info("bake started",
		zap.Int("observers", len(observers)),
		zap.Int("targets", len(targets)),
		zap.String("output", location))

	report := &Report{Location: location}
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			logger.Warn("bake cancelled", zap.Int("remaining", len(targets)-len(report.Results)))
			return report, err
		}

		res := r.bakeTarget(ctx, classifier, t)
		report.Results = append(report.Results, res)

		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			logger.Warn("bake cancelled", zap.String("target", res.Name))
			return report, ctx.Err()
		}
	}

	logger.Info(fmt.Sprintf("Optimized %d of %d meshes", report.Reduced(), len(targets)))
	return report, nil
}

func (r *Runner) bakeTarget(ctx context.Context, classifier *cull.Classifier, t Target) TargetResult {
	res := TargetResult{Name: t.Name()}
	log := logger.With(zap.String("target", res.Name))

	skip := func(err error) TargetResult {
		res.Status = StatusSkipped
		res.Err = err
		log.Warn("target skipped", zap.Error(err))
		return res
	}
	fail := func(err error) TargetResult {
		res.Status = StatusFailed
		res.Err = err
		log.Error("target failed", zap.Error(err))
		return res
	}

	src := t.Mesh()
	if src == nil || src.TriangleCount() == 0 {
		return skip(ErrMissingGeometry)
	}
	if err := src.Validate(); err != nil {
		return skip(err)
	}
	if !t.HasCollider() {
		return skip(ErrMissingCollider)
	}
	res.Total = src.TriangleCount()

	progress := r.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	progress.Begin(res.Name, res.Total)
	defer progress.End(res.Name)

	pass := cull.Pass{
		Classifier:    classifier,
		Workers:       r.Config.Workers,
		ProgressEvery: r.Config.ProgressEvery,
		Progress: func(done, total int) {
			progress.Update(res.Name, done, total)
		},
	}
	kept, err := pass.Run(ctx, src, t.Transform())
	if err != nil {
		return fail(fmt.Errorf("visibility pass: %w", err))
	}
	if r.Config.Dilate {
		kept = cull.Dilate(src, kept)
	}
	res.Kept = kept.Len()

	if res.Kept == 0 {
		res.Status = StatusEmpty
		res.Err = ErrEmptyResult
		log.Warn("nothing visible, mesh left unchanged", zap.Int("triangles", res.Total))
		return res
	}

	out, err := cull.Rebuild(src, kept)
	if err != nil {
		return fail(fmt.Errorf("rebuilding mesh: %w", err))
	}

	ref, err := r.Store.Save(res.Name, out)
	if err != nil {
		return fail(fmt.Errorf("saving mesh: %w", err))
	}
	res.Stored = ref

	if err := t.SetMesh(out); err != nil {
		return fail(fmt.Errorf("replacing mesh: %w", err))
	}

	res.Status = StatusReduced
	res.Reduction = reduction(res.Kept, res.Total)
	log.Info(fmt.Sprintf("Optimized %s: %d -> %d triangles (%.1f%% reduction)",
		res.Name, res.Total, res.Kept, res.Reduction),
		zap.String("stored", ref))
	return res
}
