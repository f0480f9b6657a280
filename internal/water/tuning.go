package water

import (
	"fmt"
	"math"
	"sync"

	"ripple/internal/core"
)

const (
	settleDelta    = 1.0 / 60.0
	settleEpsilon  = 1e-3
	settleQuietRun = 30
)

// SettleResult captures how a disturbed surface returns to rest.
type SettleResult struct {
	// PeakHeight is the largest absolute height seen after the splash.
	PeakHeight float64
	// SettleStep is the first step of the final quiet run, or -1 when the
	// surface never settled.
	SettleStep int
	// StepsSimulated counts the steps executed.
	StepsSimulated int
	// ClampedCells sums the height clamp hits over the run.
	ClampedCells int
	// FinalEnergy is the mean squared height plus velocity at the end.
	FinalEnergy float64
}

// Settled reports whether the run came to rest.
func (r SettleResult) Settled() bool { return r.SettleStep >= 0 }

// SweepRecord documents a single improvement encountered while exploring the
// damping parameter space.
type SweepRecord struct {
	Pass      int
	Parameter string
	Value     string
	Result    SettleResult
	Params    Params
}

// SettleTime splashes the centre of a fresh surface and steps it at 60 Hz
// until every height has stayed below a small epsilon for a quiet run, or
// steps run out.
func SettleTime(cfg Config, steps int, strength float64) SettleResult {
	result := SettleResult{SettleStep: -1}
	if steps <= 0 {
		return result
	}
	cfg.UseGPU = false
	w := NewWithConfig(cfg)
	radius := 6 * math.Max(w.field.cellX, w.field.cellY)
	w.SplashLocal(0, 0, radius, strength)

	quiet := 0
	for step := 1; step <= steps; step++ {
		if err := w.Step(settleDelta); err != nil {
			break
		}
		result.StepsSimulated = step
		result.ClampedCells += w.LastStep().ClampedCells
		st := w.Stats()
		result.PeakHeight = math.Max(result.PeakHeight, st.MaxAbs)
		if st.MaxAbs < settleEpsilon {
			quiet++
			if quiet >= settleQuietRun {
				result.SettleStep = step - quiet + 1
				result.FinalEnergy = st.Energy
				break
			}
			continue
		}
		quiet = 0
		result.FinalEnergy = st.Energy
	}
	return result
}

type sweepSpec struct {
	name   string
	values []float64
}

var settleSpecs = []sweepSpec{
	{name: "velocity_decay", values: []float64{0.002, 0.004, 0.006, 0.008, 0.01}},
	{name: "baseline_return", values: []float64{0.1, 0.2, 0.4, 0.6, 0.8}},
	{name: "viscosity", values: []float64{0.2, 0.4, 0.6, 0.8, 1.0}},
	{name: "edge_damping", values: []float64{0.1, 0.25, 0.4, 0.6}},
	{name: "edge_band", values: []float64{0.02, 0.04, 0.06, 0.08}},
}

// SettleSweep performs a coordinate-descent search over the damping
// tunables, aiming for a settle step close to target without clamping. It
// returns the best parameters, their result and the improvement trace.
func SettleSweep(base Config, steps, target, passes, workers int, seed int64) (Params, SettleResult, []SweepRecord) {
	if steps <= 0 {
		steps = 900
	}
	if target <= 0 {
		target = steps / 3
	}
	if passes <= 0 {
		passes = 1
	}
	if workers <= 0 {
		workers = 1
	}
	const strength = 100.0

	currentParams := base.Params
	currentResult := SettleTime(applyParams(base, currentParams), steps, strength)
	records := []SweepRecord{{Parameter: "baseline", Result: currentResult, Params: currentParams}}

	rng := core.NewRNG(seed)
	samples := max(passes*4, 8)
	for i := 0; i < samples; i++ {
		candidate := randomizeParams(rng, base.Params)
		res := SettleTime(applyParams(base, candidate), steps, strength)
		if betterSettle(res, currentResult, target) {
			currentParams = candidate
			currentResult = res
			records = append(records, SweepRecord{
				Parameter: fmt.Sprintf("random#%d", i+1),
				Result:    res,
				Params:    candidate,
			})
		}
	}

	for pass := 1; pass <= passes; pass++ {
		improved := false
		for _, spec := range settleSpecs {
			bestParams, bestResult, changed, rec := evaluateSpec(base, currentParams, currentResult, spec, steps, target, workers, pass, strength)
			if changed {
				currentParams = bestParams
				currentResult = bestResult
				records = append(records, rec...)
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return currentParams, currentResult, records
}

func evaluateSpec(base Config, params Params, baseline SettleResult, spec sweepSpec, steps, target, workers, pass int, strength float64) (Params, SettleResult, bool, []SweepRecord) {
	bestParams := params
	bestResult := baseline
	changed := false
	var records []SweepRecord

	tn, ok := lookupTunable(spec.name)
	if !ok {
		return bestParams, bestResult, false, nil
	}

	type candidate struct {
		params Params
		result SettleResult
		valid  bool
	}
	candidates := make([]candidate, len(spec.values))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for idx, value := range spec.values {
		if almostEqual(value, tn.getter(params)) {
			continue
		}
		candidateParams := params
		if !tn.set(&candidateParams, value) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p Params) {
			defer wg.Done()
			res := SettleTime(applyParams(base, p), steps, strength)
			candidates[i] = candidate{params: p, result: res, valid: true}
			<-sem
		}(idx, candidateParams)
	}
	wg.Wait()

	for idx, value := range spec.values {
		cand := candidates[idx]
		if !cand.valid {
			continue
		}
		if betterSettle(cand.result, bestResult, target) {
			bestParams = cand.params
			bestResult = cand.result
			changed = true
			records = append(records, SweepRecord{
				Pass:      pass,
				Parameter: spec.name,
				Value:     fmt.Sprintf("%.3f", value),
				Result:    cand.result,
				Params:    cand.params,
			})
		}
	}
	return bestParams, bestResult, changed, records
}

// betterSettle prefers runs that settle, then fewer clamp hits, then a settle
// step nearer the target.
func betterSettle(a, b SettleResult, target int) bool {
	if a.Settled() != b.Settled() {
		return a.Settled()
	}
	if a.ClampedCells != b.ClampedCells {
		return a.ClampedCells < b.ClampedCells
	}
	if !a.Settled() {
		return a.FinalEnergy < b.FinalEnergy
	}
	da := abs(a.SettleStep - target)
	db := abs(b.SettleStep - target)
	return da < db
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps
}

func applyParams(base Config, params Params) Config {
	cfg := base
	cfg.Params = params
	return cfg
}

func randomizeParams(rng *core.RNG, base Params) Params {
	params := base
	params.VelocityDecay = rng.Range(0.002, 0.012)
	params.BaselineReturn = rng.Range(0.05, 1.0)
	params.Viscosity = rng.Range(0.1, 1.2)
	params.EdgeDamping = rng.Range(0.05, 0.6)
	params.EdgeBand = rng.Range(0.02, 0.1)
	return params
}
