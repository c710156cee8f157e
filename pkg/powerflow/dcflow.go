package powerflow

import (
	"context"
	"math"

	"gridtwin/pkg/model"
)

const (
	// sBaseMVA is the per-unit power base.
	sBaseMVA = 100.0

	// CollapseLoadingPct is the proxy for voltage collapse: a linear DC
	// flow always has a numerical solution, but loadings this far beyond
	// thermal limits mean the AC case would not hold a voltage solution.
	CollapseLoadingPct = 175.0

	// pivotEps is the singularity threshold for the elimination.
	pivotEps = 1e-9
)

// DCSolver solves a lossless linearized (DC) power flow: branch flow is
// proportional to the angle difference over the branch reactance, HVDC
// links are fixed paired injections, and the slack balances the system.
type DCSolver struct{}

// NewDCSolver creates the reference solver.
func NewDCSolver() *DCSolver { return &DCSolver{} }

type dcBranch struct {
	id       string
	kind     model.ElementKind
	from, to int
	xPU      float64
	ratingMW float64
}

// Solve implements the Solver interface.
func (s *DCSolver) Solve(ctx context.Context, net *model.Network) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slackBus, ok := net.SlackBus()
	if !ok {
		return nil, notConverged("no in-service slack generator")
	}

	// Index the in-service buses.
	busNo := make(map[string]int)
	var busIDs []string
	for _, b := range net.Buses() {
		if b.InService {
			busNo[b.ID] = len(busIDs)
			busIDs = append(busIDs, b.ID)
		}
	}
	n := len(busIDs)
	if _, ok := busNo[slackBus]; !ok {
		return nil, notConverged("slack bus %q is out of service", slackBus)
	}

	// Net injections in MW per bus: generation positive, demand negative,
	// HVDC as a fixed pair of injections.
	injMW := make([]float64, n)
	for _, g := range net.Generators() {
		if g.InService && !g.Slack {
			if i, ok := busNo[g.Bus]; ok {
				injMW[i] += g.PMW
			}
		}
	}
	for _, l := range net.Loads() {
		if l.InService {
			if i, ok := busNo[l.Bus]; ok {
				injMW[i] -= l.PMW
			}
		}
	}
	transfers := make(map[string]float64)
	for _, h := range net.HVDCLinks() {
		if !h.InService {
			continue
		}
		fi, fok := busNo[h.FromBus]
		ti, tok := busNo[h.ToBus]
		if !fok || !tok {
			return nil, notConverged("hvdc %q terminal out of service", h.ID)
		}
		injMW[fi] -= h.RatedMW
		injMW[ti] += h.DeliveredMW()
		transfers[h.ID] = h.RatedMW
	}

	// Collect the AC branches and their per-unit reactances.
	var branches []dcBranch
	for _, l := range net.Lines() {
		if !l.InService {
			continue
		}
		fi, fok := busNo[l.FromBus]
		ti, tok := busNo[l.ToBus]
		if !fok || !tok {
			continue // a branch into a switched-off bus carries nothing
		}
		fromBus, _ := net.Bus(l.FromBus)
		xPU := l.XOhm() * sBaseMVA / (fromBus.NominalKV * fromBus.NominalKV)
		if xPU <= 0 {
			return nil, notConverged("line %q has non-positive reactance", l.ID)
		}
		branches = append(branches, dcBranch{
			id: l.ID, kind: model.KindLine, from: fi, to: ti,
			xPU: xPU, ratingMW: l.RatingMW(fromBus.NominalKV),
		})
	}
	for _, tr := range net.Transformers() {
		if !tr.InService {
			continue
		}
		fi, fok := busNo[tr.FromBus]
		ti, tok := busNo[tr.ToBus]
		if !fok || !tok {
			continue
		}
		if tr.RatedMVA <= 0 || tr.ShortCircuitPct <= 0 {
			return nil, notConverged("transformer %q has no usable impedance", tr.ID)
		}
		xPU := tr.ShortCircuitPct / 100 * sBaseMVA / tr.RatedMVA
		branches = append(branches, dcBranch{
			id: tr.ID, kind: model.KindTransformer, from: fi, to: ti,
			xPU: xPU, ratingMW: tr.RatedMVA,
		})
	}

	// Every injecting bus must be AC-coupled to the slack. An island that
	// produces or consumes power has no angle reference and no AC slack,
	// which is a collapse, not a solvable case.
	comp := components(n, branches)
	slackComp := comp[busNo[slackBus]]
	for i := range injMW {
		if comp[i] != slackComp && math.Abs(injMW[i]) > 1e-6 {
			return nil, notConverged("bus %q islanded from the slack with %.1f MW net injection", busIDs[i], injMW[i])
		}
	}

	theta, err := solveAngles(ctx, n, busNo[slackBus], comp, slackComp, branches, injMW)
	if err != nil {
		return nil, err
	}

	sol := &Solution{HVDCTransfersMW: transfers}
	for _, br := range branches {
		flowMW := (theta[br.from] - theta[br.to]) / br.xPU * sBaseMVA
		loading := 0.0
		if br.ratingMW > 0 {
			loading = math.Abs(flowMW) / br.ratingMW * 100
		}
		sol.Loadings = append(sol.Loadings, BranchLoading{
			ID: br.id, Kind: br.kind, FlowMW: flowMW,
			RatingMW: br.ratingMW, LoadingPct: loading,
		})
		if loading > sol.MaxLoadingPct {
			sol.MaxLoadingPct = loading
		}
	}

	// The slack covers whatever the scheduled injections do not.
	for i, p := range injMW {
		if comp[i] == slackComp {
			sol.SlackMW -= p
		}
	}

	if sol.MaxLoadingPct > CollapseLoadingPct {
		return nil, notConverged("loading %.1f%% beyond the %.0f%% collapse proxy", sol.MaxLoadingPct, CollapseLoadingPct)
	}
	return sol, nil
}

// components labels the AC-connected components of the in-service buses.
func components(n int, branches []dcBranch) []int {
	adj := make([][]int, n)
	for _, br := range branches {
		adj[br.from] = append(adj[br.from], br.to)
		adj[br.to] = append(adj[br.to], br.from)
	}
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	next := 0
	for start := 0; start < n; start++ {
		if comp[start] != -1 {
			continue
		}
		queue := []int{start}
		comp[start] = next
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range adj[cur] {
				if comp[nb] == -1 {
					comp[nb] = next
					queue = append(queue, nb)
				}
			}
		}
		next++
	}
	return comp
}

// solveAngles builds the reduced susceptance matrix over the slack's
// component and solves it by Gaussian elimination with partial pivoting.
// No linear algebra dependency is warranted for systems this small.
func solveAngles(ctx context.Context, n, slack int, comp []int, slackComp int, branches []dcBranch, injMW []float64) ([]float64, error) {
	// Map the non-slack buses of the slack component to matrix rows.
	row := make([]int, n)
	for i := range row {
		row[i] = -1
	}
	m := 0
	for i := 0; i < n; i++ {
		if i != slack && comp[i] == slackComp {
			row[i] = m
			m++
		}
	}

	theta := make([]float64, n)
	if m == 0 {
		return theta, nil
	}

	a := make([][]float64, m)
	for i := range a {
		a[i] = make([]float64, m+1)
	}
	for _, br := range branches {
		b := 1 / br.xPU
		fi, ti := row[br.from], row[br.to]
		if fi >= 0 {
			a[fi][fi] += b
			if ti >= 0 {
				a[fi][ti] -= b
			}
		}
		if ti >= 0 {
			a[ti][ti] += b
			if fi >= 0 {
				a[ti][fi] -= b
			}
		}
	}
	for i := 0; i < n; i++ {
		if r := row[i]; r >= 0 {
			a[r][m] = injMW[i] / sBaseMVA
		}
	}

	for col := 0; col < m; col++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Partial pivoting.
		pivot := col
		for r := col + 1; r < m; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < pivotEps {
			return nil, notConverged("singular susceptance matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := col + 1; r < m; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= m; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	sol := make([]float64, m)
	for r := m - 1; r >= 0; r-- {
		v := a[r][m]
		for c := r + 1; c < m; c++ {
			v -= a[r][c] * sol[c]
		}
		sol[r] = v / a[r][r]
	}

	for i := 0; i < n; i++ {
		if r := row[i]; r >= 0 {
			theta[i] = sol[r]
		}
	}
	return theta, nil
}
