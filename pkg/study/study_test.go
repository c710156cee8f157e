package study

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridtwin/pkg/contingency"
	"gridtwin/pkg/integrity"
	"gridtwin/pkg/logging"
	"gridtwin/pkg/metrics"
	"gridtwin/pkg/model"
	"gridtwin/pkg/powerflow"
	"gridtwin/pkg/report"
	"gridtwin/pkg/topology"
)

// countingSolver records calls; failFor forces a divergence whenever the
// scenario network has that element out of service.
type countingSolver struct {
	inner   powerflow.Solver
	failFor string
	calls   int
}

func (s *countingSolver) Solve(ctx context.Context, net *model.Network) (*powerflow.Solution, error) {
	s.calls++
	if s.failFor != "" {
		for _, l := range net.Lines() {
			if l.ID == s.failFor && !l.InService {
				return nil, &powerflow.NotConvergedError{Reason: "injected failure"}
			}
		}
	}
	return s.inner.Solve(ctx, net)
}

func quietOpts(extra ...Option) []Option {
	return append([]Option{
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
	}, extra...)
}

// TestRun_ReferenceCorridor runs the full pipeline on the default corridor
// and checks the report end to end.
func TestRun_ReferenceCorridor(t *testing.T) {
	rep, err := Run(context.Background(), topology.DefaultConfig(), quietOpts()...)
	require.NoError(t, err)

	// One row per outage-eligible element, construction order.
	wantOrder := []string{"ac-north-central-a", "ac-north-central-b", "ac-central-south", "hvdc-corridor"}
	require.Len(t, rep.Rows, len(wantOrder))
	for i, id := range wantOrder {
		assert.Equal(t, id, rep.Rows[i].ElementID, "row %d", i)
	}

	// The corridor carries 1320 MW on its single central-south circuit, so
	// the base case already sits at the thermal limit.
	assert.Equal(t, contingency.OutcomeSolved, rep.BaseCase.Outcome)
	assert.InDelta(t, 100, rep.BaseCase.MaxLoadingPct, 6)

	byID := map[string]report.Row{}
	for _, row := range rep.Rows {
		byID[row.ElementID] = row
	}

	// Tripping one of the parallel northern circuits shifts its share onto
	// the twin; the corridor still converges.
	assert.Equal(t, contingency.OutcomeSolved, byID["ac-north-central-a"].Outcome)

	// Tripping the only central-south circuit islands the industry cluster.
	assert.Equal(t, contingency.OutcomeDiverged, byID["ac-central-south"].Outcome)
	assert.Equal(t, report.StatusCollapse, byID["ac-central-south"].Status)

	// Tripping the DC corridor pushes its full transfer onto the AC path.
	hvdc := byID["hvdc-corridor"]
	assert.Equal(t, contingency.OutcomeSolved, hvdc.Outcome)
	assert.Greater(t, hvdc.MaxLoadingPct, 100.0)
	assert.Equal(t, report.StatusCritical, hvdc.Status)

	assert.False(t, rep.N1Secure)
	assert.Contains(t, rep.Recommendation, "action required")
}

// TestRun_IntegrityGateBlocksSolver verifies a corrupted snapshot never
// reaches the solver: the gate aborts with every violation listed.
func TestRun_IntegrityGateBlocksSolver(t *testing.T) {
	cfg := topology.DefaultConfig()
	cfg.Lines[1].XOhmPerKM = 0 // zero series reactance on the second circuit

	solver := &countingSolver{inner: powerflow.NewDCSolver()}
	rep, err := Run(context.Background(), cfg, quietOpts(WithSolver(solver))...)
	require.Error(t, err)
	assert.Nil(t, rep)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageIntegrity, se.Stage)

	var gate *integrity.GateError
	require.ErrorAs(t, err, &gate)
	require.Len(t, gate.Violations, 1)
	assert.Equal(t, "ac-north-central-b", gate.Violations[0].EntityID)

	assert.Zero(t, solver.calls, "the gate must abort before any solve")
}

// TestRun_ScenarioFailureIsReportData verifies a diverging contingency is a
// classified row, not a study error, and leaves the other rows untouched.
func TestRun_ScenarioFailureIsReportData(t *testing.T) {
	cfg := topology.DefaultConfig()
	solver := &countingSolver{inner: powerflow.NewDCSolver(), failFor: "ac-north-central-a"}

	rep, err := Run(context.Background(), cfg, quietOpts(WithSolver(solver))...)
	require.NoError(t, err)

	clean, err := Run(context.Background(), cfg, quietOpts()...)
	require.NoError(t, err)

	require.Len(t, rep.Rows, len(clean.Rows))
	for i, row := range rep.Rows {
		if row.ElementID == "ac-north-central-a" {
			assert.Equal(t, contingency.OutcomeDiverged, row.Outcome)
			assert.Equal(t, report.StatusCollapse, row.Status)
			continue
		}
		assert.Equal(t, clean.Rows[i].Outcome, row.Outcome, "row %s", row.ElementID)
		assert.Equal(t, clean.Rows[i].MaxLoadingPct, row.MaxLoadingPct, "row %s", row.ElementID)
	}
}

// TestRun_ConfigStageErrors verifies invalid configs fail before anything
// is built.
func TestRun_ConfigStageErrors(t *testing.T) {
	cfg := topology.DefaultConfig()
	cfg.WindMW = -50

	_, err := Run(context.Background(), cfg, quietOpts()...)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageConfig, se.Stage)
}

// TestRun_BaseCaseDivergenceAbortsAnalysis verifies the base-case gate
// surfaces as an analysis stage error.
func TestRun_BaseCaseDivergenceAbortsAnalysis(t *testing.T) {
	cfg := topology.DefaultConfig()
	// 9 GW over a single 1316 MW circuit trips the collapse proxy on the
	// intact network already.
	cfg.LoadMW = 9000

	_, err := Run(context.Background(), cfg, quietOpts()...)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageAnalysis, se.Stage)
	assert.ErrorIs(t, err, contingency.ErrBaseCaseDiverged)
}

// TestRun_DeterministicAcrossWorkerCounts verifies serial and parallel
// studies agree row for row.
func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	serial, err := Run(context.Background(), topology.DefaultConfig(), quietOpts(WithWorkers(1))...)
	require.NoError(t, err)

	parallel, err := Run(context.Background(), topology.DefaultConfig(), quietOpts(WithWorkers(4))...)
	require.NoError(t, err)

	assert.Equal(t, serial.Rows, parallel.Rows)
	assert.Equal(t, serial.Summary, parallel.Summary)
	assert.Equal(t, serial.Recommendation, parallel.Recommendation)
}

// TestRun_RecordsStudyMetrics verifies the run is instrumented.
func TestRun_RecordsStudyMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	_, err := Run(context.Background(), topology.DefaultConfig(),
		WithLogger(logging.NewNopLogger()), WithMetrics(reg))
	require.NoError(t, err)

	families, err := reg.GetPrometheusRegistry().Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "gridtwin_studies_total" {
			found = true
		}
	}
	assert.True(t, found, "study counter not registered")
}

// TestRun_HonoursSolveTimeout verifies the per-scenario budget flows
// through to the engine.
func TestRun_HonoursSolveTimeout(t *testing.T) {
	slow := solverFunc(func(ctx context.Context, net *model.Network) (*powerflow.Solution, error) {
		outaged := false
		for _, l := range net.Lines() {
			if !l.InService {
				outaged = true
			}
		}
		if !outaged {
			return powerflow.NewDCSolver().Solve(ctx, net)
		}
		select {
		case <-time.After(time.Second):
			return powerflow.NewDCSolver().Solve(ctx, net)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	rep, err := Run(context.Background(), topology.DefaultConfig(),
		quietOpts(WithSolver(slow), WithSolveTimeout(10*time.Millisecond))...)
	require.NoError(t, err)

	for _, row := range rep.Rows {
		if row.Kind == model.KindLine {
			assert.Equal(t, contingency.OutcomeDiverged, row.Outcome, "row %s", row.ElementID)
		}
	}
}

type solverFunc func(ctx context.Context, net *model.Network) (*powerflow.Solution, error)

func (f solverFunc) Solve(ctx context.Context, net *model.Network) (*powerflow.Solution, error) {
	return f(ctx, net)
}
