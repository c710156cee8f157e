// Package study is the execution boundary of a contingency analysis run. It
// wires corridor construction, the integrity gate, the N-1 sweep and report
// aggregation into a single call, so callers never sequence the stages
// themselves.
package study

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gridtwin/pkg/contingency"
	"gridtwin/pkg/integrity"
	"gridtwin/pkg/logging"
	"gridtwin/pkg/metrics"
	"gridtwin/pkg/powerflow"
	"gridtwin/pkg/report"
	"gridtwin/pkg/topology"
)

// Stage names the pipeline step a study failed in.
type Stage string

const (
	StageConfig    Stage = "config"
	StageBuild     Stage = "build"
	StageIntegrity Stage = "integrity"
	StageAnalysis  Stage = "analysis"
)

// StageError wraps a failure with the stage it occurred in. Contingency
// outcomes are never stage errors; a diverging scenario is report data.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("study %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// Option configures a study run.
type Option func(*runner)

// WithSolver replaces the default DC solver.
func WithSolver(s powerflow.Solver) Option {
	return func(r *runner) { r.solver = s }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(r *runner) { r.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *runner) { r.metrics = m }
}

// WithWorkers sets the engine's parallelism.
func WithWorkers(n int) Option {
	return func(r *runner) { r.workers = n }
}

// WithSolveTimeout bounds every individual scenario solve.
func WithSolveTimeout(d time.Duration) Option {
	return func(r *runner) { r.timeout = d }
}

type runner struct {
	solver  powerflow.Solver
	logger  logging.Logger
	metrics *metrics.Registry
	workers int
	timeout time.Duration
}

// Run executes a full study: validate config, build the corridor, run the
// integrity gate, sweep all N-1 contingencies and aggregate the report. Any
// integrity violation aborts the run before the solver is ever invoked.
func Run(ctx context.Context, cfg topology.Config, opts ...Option) (*report.Report, error) {
	r := &runner{
		solver:  powerflow.NewDCSolver(),
		logger:  logging.NewNopLogger(),
		metrics: metrics.DefaultRegistry(),
		workers: 1,
		timeout: contingency.DefaultSolveTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	runID := uuid.NewString()
	log := r.logger.With(logging.Component("study"), logging.RunID(runID))
	started := time.Now()

	rep, err := r.run(ctx, log, cfg)
	if err != nil {
		r.metrics.RecordStudy("failed", time.Since(started))
		log.Error("study aborted", logging.Error(err))
		return nil, err
	}

	result := "secure"
	if !rep.N1Secure {
		result = "insecure"
	}
	r.metrics.RecordStudy(result, time.Since(started))
	log.Info("study complete",
		logging.String("result", result),
		logging.Int("scenarios", rep.Summary.Total),
		logging.Int("critical", rep.Summary.Critical+rep.Summary.Diverged),
		logging.Latency(time.Since(started)))
	return rep, nil
}

func (r *runner) run(ctx context.Context, log logging.Logger, cfg topology.Config) (*report.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stageErr(StageConfig, err)
	}

	net, err := topology.Build(cfg)
	if err != nil {
		return nil, stageErr(StageBuild, err)
	}
	log.Info("corridor built", logging.Snapshot(net.SnapshotID()))

	if res := integrity.Validate(net); !res.Valid() {
		for _, v := range res.Violations {
			r.metrics.RecordIntegrityViolation(string(v.Check))
			log.Error("integrity violation",
				logging.String("check", string(v.Check)),
				logging.ElementID(v.EntityID),
				logging.String("detail", v.Detail))
		}
		return nil, stageErr(StageIntegrity, res.Err())
	}

	eng := contingency.NewEngine(r.solver,
		contingency.WithLogger(r.logger),
		contingency.WithMetrics(r.metrics),
		contingency.WithWorkers(r.workers),
		contingency.WithSolveTimeout(r.timeout))

	timer := logging.StartTimer(log, "contingency sweep finished", logging.Int("workers", r.workers))
	pass, err := eng.Run(ctx, net)
	if err != nil {
		timer.EndError(err)
		return nil, stageErr(StageAnalysis, err)
	}
	timer.End()
	return report.FromPass(pass), nil
}
