// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layer implements the packaging-layer record and the multilayer
// stack that the solver core consumes (spec.md §3, §4.1).
package layer

import "github.com/cpmech/gosl/chk"

// DProvider returns the diffusivity D (m²/s) of a material/migrant pair at a
// given temperature. External property databases (PubChem-style caches,
// Piringer-style correlations) implement this; the core only calls it.
type DProvider func(material, migrant string, temperatureK float64) (float64, error)

// KProvider returns the dimensionless partition coefficient K of a
// material/migrant pair at a given temperature, defaulting to 1 when the
// provider has no data for the pair.
type KProvider func(material, migrant string, temperatureK float64) (float64, error)

// ConstantK returns a KProvider that always answers k, regardless of inputs;
// a convenience for tests and for materials with an unknown partition
// behaviour (per spec.md §6, "defaults to 1 when unknown").
func ConstantK(k float64) KProvider {
	return func(string, string, float64) (float64, error) { return k, nil }
}

// Layer is one packaging material record (spec.md §3). Index 0 of a
// Multilayer is in contact with the food.
type Layer struct {
	Label string  // optional material/label name
	L     float64 // thickness (m), > 0
	D     float64 // diffusivity (m²/s), > 0
	K     float64 // partition coefficient, > 0
	C0    float64 // initial concentration, >= 0
	Rho   float64 // density (optional, informational only)
	TempK float64 // temperature (K); per-layer, typically identical across layers
}

// Resistance returns R_i = l_i*K_i/D_i, the quantity used to pick the
// reference layer (spec.md §3).
func (l Layer) Resistance() float64 {
	return l.L * l.K / l.D
}

// Permeability returns P_i = D_i/(l_i*K_i), used by the mesh builder
// (spec.md §4.2) to size sub-meshes so steady-state flux is exact.
func (l Layer) Permeability() float64 {
	return l.D / (l.L * l.K)
}

// Validate checks the positivity invariants of spec.md §3/§4.2.
func (l Layer) Validate() error {
	if l.L <= 0 || l.D <= 0 || l.K <= 0 {
		return chk.Err("invalid layer %q: l=%g D=%g K=%g must all be > 0", l.Label, l.L, l.D, l.K)
	}
	if l.C0 < 0 {
		return chk.Err("invalid layer %q: C0=%g must be >= 0", l.Label, l.C0)
	}
	return nil
}

// Multilayer is an ordered stack of Layer records, food-side first
// (spec.md §3).
type Multilayer struct {
	Layers []Layer
}

// New builds a Multilayer from layers listed food-side first, validating
// the non-empty and positivity invariants (spec.md §4.2 "invalid
// multilayer").
func New(layers ...Layer) (*Multilayer, error) {
	if len(layers) == 0 {
		return nil, chk.Err("invalid multilayer: no layers given")
	}
	for i, l := range layers {
		if err := l.Validate(); err != nil {
			return nil, chk.Err("invalid multilayer: layer %d: %v", i, err)
		}
	}
	ml := &Multilayer{Layers: append([]Layer(nil), layers...)}
	return ml, nil
}

// NumLayers returns the number of layers in the stack.
func (m *Multilayer) NumLayers() int { return len(m.Layers) }

// TotalThickness returns Σ l_i.
func (m *Multilayer) TotalThickness() float64 {
	var sum float64
	for _, l := range m.Layers {
		sum += l.L
	}
	return sum
}

// ReferenceLayerIndex returns the index of the layer of maximum resistance
// R_i = l_i*K_i/D_i (spec.md §3 "reference layer", Open Question resolved in
// SPEC_FULL.md §6.2: ties are broken by earliest index in contact order; this
// is found with an explicit scan rather than utl.DblArgMinMax since that
// helper's tie-break convention is not exercised anywhere in this corpus).
func (m *Multilayer) ReferenceLayerIndex() int {
	best := 0
	bestR := m.Layers[0].Resistance()
	for i := 1; i < len(m.Layers); i++ {
		if r := m.Layers[i].Resistance(); r > bestR {
			bestR = r
			best = i
		}
	}
	return best
}

// ReferenceScales returns (l_ref, D_ref, τ_scale) derived from the reference
// layer, per spec.md §3.
func (m *Multilayer) ReferenceScales() (lRef, dRef, tauScale float64) {
	i := m.ReferenceLayerIndex()
	lRef = m.Layers[i].L
	dRef = m.Layers[i].D
	tauScale = lRef * lRef / dRef
	return
}

// Clone returns a deep, value-typed copy suitable for a restart snapshot
// (spec.md §9 "Represent as explicit identifiers or value-typed snapshots").
func (m *Multilayer) Clone() *Multilayer {
	return &Multilayer{Layers: append([]Layer(nil), m.Layers...)}
}

// WithInitial returns a copy of m with each layer's C0 replaced by the
// values in c0, in contact order. Used by resume/restart to seed a new run
// from an interpolated profile without mutating the original stack.
func (m *Multilayer) WithInitial(c0 []float64) (*Multilayer, error) {
	if len(c0) != len(m.Layers) {
		return nil, chk.Err("WithInitial: expected %d initial values, got %d", len(m.Layers), len(c0))
	}
	out := m.Clone()
	for i := range out.Layers {
		out.Layers[i].C0 = c0[i]
	}
	return out, nil
}
