// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh implements the non-uniform finite-volume mesh builder of
// spec.md §4.2: per-layer sub-meshes sized so that steady-state flux is
// exact on the resulting grid.
package mesh

import (
	"math"

	"github.com/cpmech/gofem/layer"
	"github.com/cpmech/gosl/chk"
)

// Default target cell counts (spec.md §6 options table).
const (
	DefaultNCells    = 600
	DefaultNCellsMin = 20
)

// Mesh holds the concatenated per-cell arrays produced by Build. All slices
// have length NumCells(); cells are listed in contact order (food-side
// first), and within a layer the first cell of the next layer immediately
// follows the last cell of the previous one (spec.md §3 mesh invariant).
type Mesh struct {
	X          []float64 // cell-centre position (m), measured from the food face
	Dw         []float64 // west half-width (m)
	De         []float64 // east half-width (m)
	LayerIndex []int     // owning layer index, per cell
	CellsPer   []int     // number of cells per layer (len == number of layers)
	Offset     []float64 // cumulative thickness of previous layers, per layer
}

// NumCells returns N_tot = Σ N_i.
func (m *Mesh) NumCells() int { return len(m.X) }

// Width returns the cell width Δ_i = dw_i + de_i of cell i.
func (m *Mesh) Width(i int) float64 { return m.Dw[i] + m.De[i] }

// Build constructs the mesh for a multilayer, targeting nTarget total cells
// with at least nMin cells per layer (spec.md §4.2, algorithm steps 1–4).
func Build(ml *layer.Multilayer, nTarget, nMin int) (*Mesh, error) {
	if nTarget <= 0 {
		nTarget = DefaultNCells
	}
	if nMin <= 0 {
		nMin = DefaultNCellsMin
	}
	n := ml.NumLayers()
	for _, l := range ml.Layers {
		if l.L <= 0 || l.D <= 0 || l.K <= 0 {
			return nil, chk.Err("invalid multilayer: cannot mesh layer %q with l=%g D=%g K=%g", l.Label, l.L, l.D, l.K)
		}
	}

	// step 1: per-layer permeability
	perm := make([]float64, n)
	for i, l := range ml.Layers {
		perm[i] = l.Permeability()
	}

	// step 2: seed X_0 = 1, recurse X_i = X_{i-1} * (P_{i-1}*l_i)/(P_i*l_{i-1})
	x := make([]float64, n)
	x[0] = 1
	for i := 1; i < n; i++ {
		x[i] = x[i-1] * (perm[i-1] * ml.Layers[i].L) / (perm[i] * ml.Layers[i-1].L)
	}

	// step 3: scale to nTarget cells, at least nMin per layer, exact total
	var sumX float64
	for _, v := range x {
		sumX += v
	}
	counts := make([]int, n)
	total := 0
	for i, v := range x {
		c := int(math.Ceil(float64(nTarget) * v / sumX))
		if c < nMin {
			c = nMin
		}
		counts[i] = c
		total += c
	}
	// renormalize so Σ N_i == nTarget exactly: scale proportionally to the
	// overshoot/undershoot, then adjust the remainder deterministically one
	// cell at a time in layer order.
	if total != nTarget && total > 0 {
		scaled := make([]float64, n)
		scale := float64(nTarget) / float64(total)
		newTotal := 0
		for i, c := range counts {
			sc := int(math.Round(float64(c) * scale))
			if sc < nMin {
				sc = nMin
			}
			scaled[i] = float64(sc)
			counts[i] = sc
			newTotal += sc
		}
		diff := nTarget - newTotal
		// distribute the remaining difference one cell at a time, in layer
		// order, never dropping a layer below nMin.
		for diff != 0 {
			progressed := false
			for i := 0; i < n && diff != 0; i++ {
				if diff > 0 {
					counts[i]++
					diff--
					progressed = true
				} else if counts[i] > nMin {
					counts[i]--
					diff++
					progressed = true
				}
			}
			if !progressed {
				break
			}
		}
	}

	// step 4: emit uniform sub-meshes
	m := &Mesh{CellsPer: counts, Offset: make([]float64, n)}
	offset := 0.0
	for i, l := range ml.Layers {
		m.Offset[i] = offset
		nc := counts[i]
		dx := l.L / float64(nc)
		for c := 0; c < nc; c++ {
			xc := offset + (float64(c)+0.5)*dx
			m.X = append(m.X, xc)
			m.Dw = append(m.Dw, dx/2)
			m.De = append(m.De, dx/2)
			m.LayerIndex = append(m.LayerIndex, i)
		}
		offset += l.L
	}
	return m, nil
}
