// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package migrate implements the top-level run orchestrator of spec.md
// §4.8: the state machine [constructed] -> [meshed] -> [assembled] ->
// [integrated] -> [postprocessed] -> [result], plus Resume and the
// contact-operator chaining of spec.md §4.9. Run is a pure function of its
// inputs and holds no package-level mutable state (spec.md §5).
package migrate

import (
	"github.com/cpmech/gofem/assemble"
	"github.com/cpmech/gofem/cond"
	"github.com/cpmech/gofem/integrate"
	"github.com/cpmech/gofem/internal/warn"
	"github.com/cpmech/gofem/layer"
	"github.com/cpmech/gofem/medium"
	"github.com/cpmech/gofem/mesh"
	"github.com/cpmech/gofem/post"
	"github.com/cpmech/gofem/result"
	"github.com/cpmech/gosl/chk"
)

// RunOptions controls one run, mirroring the options table of spec.md §6.
type RunOptions struct {
	TEnd      float64 // simulation end time (s); 0 => 2*medium.Tend, or defaultPBCTauMax reference-layer diffusion times when medium.Tend is also 0 (PBC/setoff)
	AutoTime  bool    // default true; not read by Run: τ_eval is auto-generated whenever UserTau is empty
	TimeScale string  // "sqrt" (default) or "linear"
	NOut      int     // number of eval points; default 1000
	RelTol    float64 // default 1e-6
	AbsTol    float64 // default 1e-6
	NCells    int     // total mesh size; default 600
	NCellsMin int      // per-layer minimum; default 20

	// UserTau, when non-empty, is used verbatim (after normalization)
	// instead of an auto-generated grid; AutoTime is ignored in that case.
	UserTau []float64

	// PrevProfile seeds the initial cell concentrations by interpolation
	// instead of each layer's own C0 (spec.md §6 "prev_profile").
	PrevProfile *post.Profile

	Name        string
	Description string

	// Warn receives non-fatal InconsistentGrid/ProfileMismatch notices
	// (spec.md §7). Nil means warnings are discarded.
	Warn warn.Sink
}

// Default returns the documented option defaults (spec.md §6).
func Default() RunOptions {
	return RunOptions{
		AutoTime:  true,
		TimeScale: "sqrt",
		NOut:      1000,
		RelTol:    1e-6,
		AbsTol:    1e-6,
		NCells:    mesh.DefaultNCells,
		NCellsMin: mesh.DefaultNCellsMin,
	}
}

func (o RunOptions) warn(format string, args ...interface{}) {
	if o.Warn != nil {
		o.Warn.Warn(format, args...)
	}
}

// Run executes the full state machine of spec.md §4.8 for one (multilayer,
// medium) pair and returns the resulting Result.
func Run(ml *layer.Multilayer, med medium.Medium, opts RunOptions) (*result.Result, error) {
	// [constructed]: validate inputs (spec.md §7 InvalidInput).
	for i, l := range ml.Layers {
		if err := l.Validate(); err != nil {
			return nil, chk.Err("migrate.Run: layer %d: %v", i, err)
		}
	}
	if err := med.Validate(); err != nil {
		return nil, chk.Err("migrate.Run: %v", err)
	}

	opts = fillDefaults(opts)

	// [meshed]
	m, err := mesh.Build(ml, opts.NCells, opts.NCellsMin)
	if err != nil {
		return nil, chk.Err("migrate.Run: %v", err)
	}

	lRef, dRef, tauScale := ml.ReferenceScales()
	n := m.NumCells()
	dCell := make([]float64, n)
	kNorm := make([]float64, n)
	for i := 0; i < n; i++ {
		l := ml.Layers[m.LayerIndex[i]]
		dCell[i] = l.D / dRef
		kNorm[i] = l.K / med.K0
	}

	c0eq := equilibriumScale(ml, med, m, lRef)

	// [assembled]
	var c *cond.Conductances
	var op *assemble.Operator
	if med.PBC() {
		c = cond.BuildPBC(m, dCell, kNorm, lRef)
		op = assemble.Build(m, med, c, kNorm, lRef)
	} else {
		bi := med.HValue() * lRef / dRef
		c = cond.BuildNonPBC(m, dCell, kNorm, bi, lRef)
		op = assemble.Build(m, med, c, kNorm, lRef)
	}

	y0, err := initialState(ml, med, m, c0eq, opts.PrevProfile, opts.warn)
	if err != nil {
		return nil, err
	}

	tauEval, err := buildTauGrid(opts, med, tauScale)
	if err != nil {
		return nil, err
	}

	// [integrated]
	rows, err := integrate.Run(op, y0, tauEval, integrate.Options{RelTol: opts.RelTol, AbsTol: opts.AbsTol})
	if err != nil {
		return nil, chk.Err("migrate.Run: %v", err)
	}

	// [postprocessed]
	frames := make([]post.Frame, len(rows))
	for i, y := range rows {
		fr := post.Reconstruct(tauEval[i], tauScale, c0eq, y, m, c, dCell, kNorm, lRef, med.PBC())
		if med.PBC() {
			fr.CF = med.CF0
		}
		frames[i] = fr
	}

	// [result]
	return result.New(opts.Name, opts.Description, ml, med, frames)
}

func fillDefaults(o RunOptions) RunOptions {
	d := Default()
	if o.TimeScale == "" {
		o.TimeScale = d.TimeScale
	}
	if o.NOut <= 0 {
		o.NOut = d.NOut
	}
	if o.RelTol <= 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol <= 0 {
		o.AbsTol = d.AbsTol
	}
	if o.NCells <= 0 {
		o.NCells = d.NCells
	}
	if o.NCellsMin <= 0 {
		o.NCellsMin = d.NCellsMin
	}
	return o
}

// equilibriumScale implements spec.md §3's C0eq formula, falling back to 1
// when the numerator is zero (spec.md §9 numerics caution).
func equilibriumScale(ml *layer.Multilayer, med medium.Medium, m *mesh.Mesh, lRef float64) float64 {
	var num, den float64
	num = med.CF0
	for i, l := range ml.Layers {
		Li := med.A * l.L / med.V * (lRef / ml.TotalThickness())
		num += (l.L / lRef) * Li * l.C0
		den += (1 / l.K) * (l.L / lRef) * Li
	}
	den += 1
	if num == 0 {
		return 1
	}
	return num / den
}

// initialState builds y(0) per spec.md §4.5: either each layer's own C0, or
// a previous profile interpolated onto the current mesh centres.
func initialState(ml *layer.Multilayer, med medium.Medium, m *mesh.Mesh, c0eq float64, prev *post.Profile, warnf func(string, ...interface{})) ([]float64, error) {
	n := m.NumCells()
	off := 0
	size := n
	if !med.PBC() {
		off = 1
		size = n + 1
	}
	y := make([]float64, size)
	if !med.PBC() {
		y[0] = med.CF0 / c0eq
	}

	if prev == nil {
		for i := 0; i < n; i++ {
			y[i+off] = ml.Layers[m.LayerIndex[i]].C0 / c0eq
		}
		return y, nil
	}

	vals, clamped := post.ResampleOnto(*prev, m.X)
	if clamped {
		warnf("ProfileMismatch: previous profile does not cover the new mesh; clamped to endpoint values")
	}
	for i := 0; i < n; i++ {
		y[i+off] = vals[i] / c0eq
	}
	return y, nil
}

// defaultPBCTauMax is the dimensionless horizon used when neither
// opts.TEnd nor medium.Tend gives a default duration (PBC/setoff media
// have no target contact time): enough reference-layer diffusion times to
// reach a near-uniform interior profile (spec.md §8 seed test 3).
const defaultPBCTauMax = 20.0

func buildTauGrid(opts RunOptions, med medium.Medium, tauScale float64) ([]float64, error) {
	if len(opts.UserTau) > 0 {
		g, changed := post.NormalizeGrid(opts.UserTau)
		if changed {
			opts.warn("InconsistentGrid: user time grid was not sorted/zero-anchored; normalized")
		}
		return g, nil
	}

	tEnd := opts.TEnd
	if tEnd <= 0 {
		if med.Tend > 0 {
			tEnd = 2 * med.Tend
		} else {
			tEnd = defaultPBCTauMax * tauScale
		}
	}
	tauMax := tEnd / tauScale
	tauMin := tauMax / float64(opts.NOut*opts.NOut) // a small nonzero seed for sqrt spacing
	grid := post.AutoTauGrid(tauMin, tauMax, opts.NOut, opts.TimeScale)

	if med.Tend > 0 {
		target := med.Tend / tauScale
		grid = post.InsertTarget(grid, target)
	}
	if err := post.ValidateMonotone(grid); err != nil {
		return nil, chk.Err("migrate.Run: %v", err)
	}
	return grid, nil
}

// Resume continues a finished run up to the absolute time tNew (tNew > the
// previous run's t★): it runs a fresh simulation for the remaining duration
// tNew-t★, seeded from prev's terminal profile and CF★ (spec.md §4.9
// "Resume"), then shifts the new Result's time axis by t★ so it reads on
// the same absolute clock as prev — Resume(prev, prev.TStar(), ...) is the
// identity, returning prev's terminal snapshot as a single-frame Result
// (spec.md §4.9 seed test 4: "resume with zero additional time equals the
// original result at t★").
func Resume(prev *result.Result, tNew float64, overrides RunOptions) (*result.Result, error) {
	ml := prev.Snapshot.Multilayer
	shift := prev.Snapshot.TStar
	if tNew < shift {
		return nil, chk.Err("migrate.Resume: t_new=%g precedes the previous t*=%g", tNew, shift)
	}
	med := prev.Snapshot.Medium.WithCF0(prev.Snapshot.CFStar)

	if tNew == shift {
		frame := post.Frame{T: 0, CF: prev.Snapshot.CFStar, Profile: prev.Snapshot.ProfileStar}
		r, err := result.New(overrides.Name, overrides.Description, ml, med, []post.Frame{frame})
		if err != nil {
			return nil, err
		}
		result.ShiftTime(r, shift)
		return r, nil
	}

	duration := tNew - shift
	if overrides.TEnd <= 0 {
		overrides.TEnd = duration
	}
	med.Tend = duration
	prof := prev.Snapshot.ProfileStar
	overrides.PrevProfile = &prof
	r, err := Run(ml, med, overrides)
	if err != nil {
		return nil, err
	}
	result.ShiftTime(r, shift)
	return r, nil
}

// Contact implements the contact operator of spec.md §4.9
// (`previous_result >> new_medium`): resumes the previous run's multilayer
// against a new medium, carrying over the terminal profile as the new
// run's initial condition and CF★ as the new medium's CF0.
func Contact(prev *result.Result, med medium.Medium, opts RunOptions) (*result.Result, error) {
	ml := prev.Snapshot.Multilayer
	newMed := med.WithCF0(prev.Snapshot.CFStar)
	prof := prev.Snapshot.ProfileStar
	opts.PrevProfile = &prof
	return Run(ml, newMed, opts)
}
