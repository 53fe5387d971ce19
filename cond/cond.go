// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cond implements the interface-conductance builder of spec.md
// §4.3: one diffusive+partition conductance per cell west face and one per
// east face, the only place K enters the dynamics.
//
// Every length here is first scaled by l_ref and every D by D_ref (spec.md
// §4.4 preamble: "lengths scaled by l_ref, D by D_ref"); every K must
// already be normalized by the medium's K0 so the food row has coefficient
// 1 (spec.md §9). Callers build dCell/kNorm once and share them with
// package assemble and package post.
package cond

import "github.com/cpmech/gofem/mesh"

// Conductances holds one west and one east conductance per cell.
type Conductances struct {
	Hw []float64 // west conductance per cell, length NumCells
	He []float64 // east conductance per cell, length NumCells
}

// faceConductance computes 1 / [ (de_prev/D_prev)*(K_prev/K_i) + dw_i/D_i ],
// the generic two-sided face relation of spec.md §4.3, given already
// l_ref/D_ref-scaled half-widths and diffusivities.
func faceConductance(dePrev, dPrev, kPrev, dwI, dI, kI float64) float64 {
	return 1 / ((dePrev/dPrev)*(kPrev/kI) + dwI/dI)
}

// BuildNonPBC computes conductances for the Robin+impervious variant
// (spec.md §4.3). bi is the Biot number h*l_ref/D_ref; kNorm[i] is layer
// i's K already divided by the medium's K0, for every cell; dCell[i] is the
// owning layer's D/D_ref for every cell; lRef rescales m's physical
// half-widths into the dimensionless lengths the formulas expect. hw_0
// treats the food reservoir as a zero-thickness "layer" of normalized
// K==1 and resistance 1/Bi in place of a de/D term (Bi = h·l_ref/D_ref).
func BuildNonPBC(m *mesh.Mesh, dCell, kNorm []float64, bi, lRef float64) *Conductances {
	n := m.NumCells()
	hw := make([]float64, n)
	he := make([]float64, n)

	hw[0] = 1 / ((1/bi)*(1/kNorm[0]) + (m.Dw[0]/lRef)/dCell[0])

	for i := 1; i < n; i++ {
		hw[i] = faceConductance(m.De[i-1]/lRef, dCell[i-1], kNorm[i-1], m.Dw[i]/lRef, dCell[i], kNorm[i])
	}
	for i := 0; i < n-1; i++ {
		he[i] = hw[i+1]
	}
	he[n-1] = 0 // impervious outer wall

	return &Conductances{Hw: hw, He: he}
}

// BuildPBC computes conductances for the fully periodic variant (spec.md
// §4.3): cell 0's west neighbour is cell N_tot-1 and vice versa.
func BuildPBC(m *mesh.Mesh, dCell, kNorm []float64, lRef float64) *Conductances {
	n := m.NumCells()
	hw := make([]float64, n)
	he := make([]float64, n)

	hw[0] = faceConductance(m.De[n-1]/lRef, dCell[n-1], kNorm[n-1], m.Dw[0]/lRef, dCell[0], kNorm[0])
	for i := 1; i < n; i++ {
		hw[i] = faceConductance(m.De[i-1]/lRef, dCell[i-1], kNorm[i-1], m.Dw[i]/lRef, dCell[i], kNorm[i])
	}
	for i := 0; i < n-1; i++ {
		he[i] = hw[i+1]
	}
	he[n-1] = hw[0] // periodic wrap

	return &Conductances{Hw: hw, He: he}
}
