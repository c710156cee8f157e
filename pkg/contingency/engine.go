// Package contingency implements the N-1 sweep: for every eligible element
// it derives a fresh copy of the immutable baseline with that single
// element out of service, submits it to the power flow solver and
// classifies the outcome. A failed scenario is data, not an error; the
// sweep always completes and reports every element exactly once.
package contingency

import (
	"context"
	"time"

	"gridtwin/pkg/logging"
	"gridtwin/pkg/metrics"
	"gridtwin/pkg/model"
	"gridtwin/pkg/parallel"
	"gridtwin/pkg/powerflow"
)

// DefaultSolveTimeout bounds a single solve so the sweep finishes even
// under solver pathologies. A timeout is classified like any other
// convergence failure.
const DefaultSolveTimeout = 10 * time.Second

// Engine drives the contingency sweep.
type Engine struct {
	solver  powerflow.Solver
	logger  logging.Logger
	metrics *metrics.Registry
	timeout time.Duration
	workers int
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSolveTimeout sets the per-scenario solve timeout.
func WithSolveTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithWorkers sets how many scenarios are evaluated concurrently. Results
// keep enumeration order regardless; every scenario only reads the shared
// baseline and writes its own slot.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine around the given solver.
func NewEngine(solver powerflow.Solver, opts ...Option) *Engine {
	e := &Engine{
		solver:  solver,
		logger:  logging.NewNopLogger(),
		metrics: metrics.DefaultRegistry(),
		timeout: DefaultSolveTimeout,
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one full N-1 sweep against the baseline. The baseline is
// never mutated. The base case is solved first; if the intact network has
// no steady state the sweep is aborted with a *BaseCaseError, because every
// contingency outcome would be meaningless.
func (e *Engine) Run(ctx context.Context, baseline *model.Network) (*Pass, error) {
	log := e.logger.With(logging.Component("contingency-engine"), logging.Snapshot(baseline.SnapshotID()))

	base := e.solveCase(ctx, baseline, model.Element{ID: "base-case"})
	if base.Outcome != OutcomeSolved {
		log.Error("base case did not converge", logging.String("detail", base.Detail))
		return nil, &BaseCaseError{Detail: base.Detail}
	}
	log.Info("base case solved", logging.LoadingPct(base.MaxLoadingPct), logging.Violations(len(base.Violations)))

	elements := baseline.Elements()
	results := make([]Result, len(elements))

	pool := parallel.NewWorkerPool(e.workers)
	for i, el := range elements {
		i, el := i, el
		pool.Submit(func() {
			results[i] = e.evaluate(ctx, log, baseline, el)
		})
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	worst := base.MaxLoadingPct
	for _, r := range results {
		if r.MaxLoadingPct > worst {
			worst = r.MaxLoadingPct
		}
	}
	e.metrics.MaxLoadingPct.Set(worst)

	return &Pass{BaseCase: base, Results: results}, nil
}

// evaluate runs a single scenario: derive, solve, classify.
func (e *Engine) evaluate(ctx context.Context, log logging.Logger, baseline *model.Network, el model.Element) Result {
	if !e.elementInService(baseline, el) {
		r := Result{Element: el, Outcome: OutcomeSkipped, Detail: "already out of service in the baseline"}
		e.record(log, r)
		return r
	}

	derived, err := baseline.WithElementOut(el.ID)
	if err != nil {
		// Unreachable for elements the baseline itself enumerated.
		r := Result{Element: el, Outcome: OutcomeSkipped, Detail: err.Error()}
		e.record(log, r)
		return r
	}

	r := e.solveCase(ctx, derived, el)
	e.record(log, r)
	return r
}

// solveCase submits one network state to the solver under the per-scenario
// timeout and classifies the outcome.
func (e *Engine) solveCase(ctx context.Context, net *model.Network, el model.Element) Result {
	solveCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		sol *powerflow.Solution
		err error
	}
	ch := make(chan outcome, 1)
	start := time.Now()
	go func() {
		sol, err := e.solver.Solve(solveCtx, net)
		ch <- outcome{sol, err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-solveCtx.Done():
		// Solver still running; it holds only its own derived copy, so
		// abandoning it cannot corrupt the baseline or other scenarios.
		out = outcome{nil, solveCtx.Err()}
	}
	elapsed := time.Since(start)

	if out.err != nil {
		detail := out.err.Error()
		if solveCtx.Err() == context.DeadlineExceeded {
			detail = "solve timeout after " + e.timeout.String()
		}
		return Result{Element: el, Outcome: OutcomeDiverged, Detail: detail, Elapsed: elapsed}
	}

	return Result{
		Element:       el,
		Outcome:       OutcomeSolved,
		MaxLoadingPct: out.sol.MaxLoadingPct,
		Violations:    out.sol.Overloaded(),
		Elapsed:       elapsed,
	}
}

func (e *Engine) elementInService(net *model.Network, el model.Element) bool {
	switch el.Kind {
	case model.KindLine:
		l, ok := net.Line(el.ID)
		return ok && l.InService
	case model.KindHVDC:
		h, ok := net.HVDCLink(el.ID)
		return ok && h.InService
	default:
		return false
	}
}

func (e *Engine) record(log logging.Logger, r Result) {
	e.metrics.RecordScenario(string(r.Outcome), r.Elapsed, len(r.Violations))
	switch r.Outcome {
	case OutcomeSolved:
		log.Info("scenario solved",
			logging.ElementID(r.Element.ID),
			logging.Outcome(string(r.Outcome)),
			logging.LoadingPct(r.MaxLoadingPct),
			logging.Violations(len(r.Violations)),
			logging.Latency(r.Elapsed),
		)
	case OutcomeDiverged:
		log.Warn("scenario diverged",
			logging.ElementID(r.Element.ID),
			logging.Outcome(string(r.Outcome)),
			logging.String("detail", r.Detail),
			logging.Latency(r.Elapsed),
		)
	default:
		log.Info("scenario skipped",
			logging.ElementID(r.Element.ID),
			logging.Outcome(string(r.Outcome)),
			logging.String("detail", r.Detail),
		)
	}
}
