// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package integrate drives the stiff, A-stable integration of dy/dτ = A·y
// over gosl/ode (spec.md §4.6), the way ana/colpresfluid.go and
// mdl/retention/model.go drive gosl/ode's Radau5 method for this codebase's
// other stiff scalar/ODE problems.
package integrate

import (
	"math"

	"github.com/cpmech/gofem/assemble"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/ode"
)

// Options controls the integrator (spec.md §6 options table subset).
type Options struct {
	RelTol float64 // default 1e-6
	AbsTol float64 // default 1e-6

	// FixedStep, when > 0, makes Radau5 take fixed steps no larger than
	// FixedStep (no adaptive step-size control); 0 lets Radau5 choose.
	FixedStep float64
}

// DefaultOptions returns the documented tolerance defaults.
func DefaultOptions() Options {
	return Options{RelTol: 1e-6, AbsTol: 1e-6}
}

// Run integrates y' = A*y from τ=0 with initial state y0 across the
// monotonically increasing dimensionless grid tauEval (tauEval[0] must be
// 0), returning one row of Y per requested time. A-stable Radau5 (a
// BDF-type implicit Runge-Kutta method) is mandated as the reference method
// by spec.md §4.6; its Jacobian is the (constant) operator A itself, since
// the system is linear.
func Run(op *assemble.Operator, y0 []float64, tauEval []float64, opt Options) ([][]float64, error) {
	if len(tauEval) == 0 || tauEval[0] != 0 {
		return nil, chk.Err("integrate: tauEval must start at 0, got %v", firstOrNaN(tauEval))
	}
	n := op.Size
	if len(y0) != n {
		return nil, chk.Err("integrate: y0 has length %d, want %d", len(y0), n)
	}

	fcn := func(f []float64, dtau, tau float64, y []float64, args ...interface{}) error {
		op.MatVec(f, y)
		return nil
	}
	jac := func(dfdy *la.Triplet, dtau, tau float64, y []float64, args ...interface{}) error {
		// A is constant: the Jacobian of A*y w.r.t. y is A itself.
		if dfdy.Max() == 0 {
			dfdy.Init(n, n, op.Nnz())
		}
		dfdy.Start()
		op.CopyInto(dfdy)
		return nil
	}

	var solver ode.ODE
	silent := true
	solver.Init("Radau5", n, fcn, jac, nil, nil, silent)
	solver.Distr = false
	solver.SetTol(opt.AbsTol, opt.RelTol)

	y := make([]float64, n)
	la.VecCopy(y, 1, y0)
	out := make([][]float64, len(tauEval))
	out[0] = make([]float64, n)
	la.VecCopy(out[0], 1, y)

	for k := 1; k < len(tauEval); k++ {
		dtau := tauEval[k] - tauEval[k-1]
		if dtau <= 0 {
			return nil, chk.Err("integrate: tauEval not strictly increasing at index %d", k)
		}
		step := dtau
		if opt.FixedStep > 0 && opt.FixedStep < step {
			step = opt.FixedStep
		}
		fixed := opt.FixedStep > 0
		err := solver.Solve(y, tauEval[k-1], tauEval[k], step, fixed)
		if err != nil {
			return nil, chk.Err("integrator failed at tau=%g: %v", tauEval[k], err)
		}
		out[k] = make([]float64, n)
		la.VecCopy(out[k], 1, y)
	}
	return out, nil
}

func firstOrNaN(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}
