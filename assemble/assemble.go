// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assemble builds the dimensionless sparse transition operator A so
// that dy/dτ = A·y (spec.md §4.4), in both boundary-condition variants.
// Assembly follows the element-matrix-into-global-Triplet pattern gofem
// uses in fem/e_diffu.go's AddToKb / fem/domain.go's global Kb.
package assemble

import (
	"github.com/cpmech/gofem/cond"
	"github.com/cpmech/gofem/medium"
	"github.com/cpmech/gofem/mesh"
	"github.com/cpmech/gosl/la"
)

// entry is one (row, col, value) contribution recorded alongside the
// Triplet so the operator can be replayed into a fresh Triplet later (the
// integrator needs this to hand gosl/ode a Jacobian without re-deriving the
// physics: since A is linear and time-invariant, its Jacobian is A itself).
type entry struct {
	i, j int
	v    float64
}

// Operator is the assembled dimensionless transition operator, stored as a
// sparse triplet (spec.md §9 "Sparse matrix storage"; a general COO/CSR-like
// format was chosen over packed bands for simplicity, as the spec allows).
type Operator struct {
	A       *la.Triplet
	Size    int // N_tot+1 (non-PBC) or N_tot (PBC)
	PBC     bool
	entries []entry
}

// MatVec computes dy = A*y (dense vector multiply over the sparse triplet),
// the right-hand side the ODE integrator evaluates every step.
func (o *Operator) MatVec(dy, y []float64) {
	for i := range dy {
		dy[i] = 0
	}
	la.SpMatVecMulAdd(dy, 1, o.A.ToMatrix(nil), y)
}

// CopyInto replays A's entries into dst, a Triplet the caller has already
// sized and Start()-ed; used by integrate.Run to supply gosl/ode with the
// (constant) Jacobian of this linear operator.
func (o *Operator) CopyInto(dst *la.Triplet) {
	for _, e := range o.entries {
		dst.Put(e.i, e.j, e.v)
	}
}

// Nnz returns the exact number of (row, col, value) entries CopyInto
// replays, so a caller can size a fresh Triplet to fit them exactly.
func (o *Operator) Nnz() int {
	return len(o.entries)
}

// Build assembles the operator for a meshed multilayer + medium. kNorm is
// the per-cell K already divided by medium.K0, the same array package cond
// used to build c, so the food row carries coefficient 1 (spec.md §9
// numerics caution) and both packages agree on the same normalization.
func Build(m *mesh.Mesh, med medium.Medium, c *cond.Conductances, kNorm []float64, lRef float64) *Operator {
	if med.PBC() {
		return buildPBC(m, c, kNorm, lRef)
	}
	return buildNonPBC(m, med, c, kNorm, lRef)
}

func buildNonPBC(m *mesh.Mesh, med medium.Medium, c *cond.Conductances, kNorm []float64, lRef float64) *Operator {
	n := m.NumCells()
	size := n + 1 // index 0 = food node, 1..n = cells
	t := new(la.Triplet)
	t.Init(size, size, 4*size)
	t.Start()
	o := &Operator{A: t, Size: size, PBC: false}
	put := func(i, j int, v float64) {
		t.Put(i, j, v)
		o.entries = append(o.entries, entry{i, j, v})
	}

	// L = (A * l_sum / V) * (l_ref / l_sum) = A*l_ref/V
	L := med.A * lRef / med.V

	// food row: dy[0]/dτ = L*hw_0*(y[1]/K0_rel - y[0]); K0_rel for cell 0 is
	// kNorm[0] (K_0/K0), matching spec's "y[1]/K_0" once K0 == 1 after
	// pre-normalization.
	hw0 := c.Hw[0]
	put(0, 0, -L*hw0)
	put(0, 1, L*hw0/kNorm[0])

	for i := 0; i < n; i++ {
		row := i + 1
		width := m.Width(i) / lRef // Δ_i scaled by l_ref, per spec.md §4.4 preamble
		hw := c.Hw[i]
		he := c.He[i]

		// west term: hw_i * ( (K_{i-1}/K_i)*y[i] - y[i+1] ), degenerating to
		// hw_0 * ( y[0]/K_0 - y[1] ) at i=0 (food node has no own K factor,
		// since it was normalized to K0==1).
		if i == 0 {
			put(row, 0, hw/kNorm[0]/width)
		} else {
			kPrevOverK := kNorm[i-1] / kNorm[i]
			put(row, row-1, hw*kPrevOverK/width)
		}
		put(row, row, -hw/width)

		// east term: he_i * ( y[i+2] - (K_i/K_{i+1})*y[i+1] ); he_{n-1}==0
		// (impervious outer wall) so this contributes nothing at the last
		// cell regardless of the (absent) K_{i+1}.
		if i < n-1 {
			keOverK := kNorm[i] / kNorm[i+1]
			put(row, row+1, he/width)
			put(row, row, -he*keOverK/width)
		}
	}

	return o
}

func buildPBC(m *mesh.Mesh, c *cond.Conductances, kNorm []float64, lRef float64) *Operator {
	n := m.NumCells()
	t := new(la.Triplet)
	t.Init(n, n, 4*n)
	t.Start()
	o := &Operator{A: t, Size: n, PBC: true}
	put := func(i, j int, v float64) {
		t.Put(i, j, v)
		o.entries = append(o.entries, entry{i, j, v})
	}

	for i := 0; i < n; i++ {
		width := m.Width(i) / lRef
		hw := c.Hw[i]
		he := c.He[i]
		w := (i - 1 + n) % n
		e := (i + 1) % n

		kwOverK := kNorm[w] / kNorm[i]
		keOverK := kNorm[i] / kNorm[e]

		put(i, w, hw*kwOverK/width)
		put(i, i, -hw/width)
		put(i, e, he/width)
		put(i, i, -he*keOverK/width)
	}

	return o
}
