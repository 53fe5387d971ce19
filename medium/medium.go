// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package medium implements the food/storage-side record consumed by the
// solver core (spec.md §3, §4.1).
package medium

import "github.com/cpmech/gosl/chk"

// Medium describes the contacting food or storage medium.
//
// H is a pointer so that "h undefined/null" (periodic mode, spec.md §3) is
// representable without a separate bool: PBC is derived as (H == nil). In
// PBC mode migrate.Run reports CF(t) as the constant CF0.
type Medium struct {
	Name string

	V    float64  // food volume (m^3), > 0
	A    float64  // contact area (m^2), >= 0
	H    *float64 // convective mass-transfer coefficient (m/s); nil => PBC
	K0   float64  // food Henry-like coefficient, > 0
	CF0  float64  // initial concentration in food, >= 0
	Tend float64  // target contact time t* (s), > 0

	TempK float64 // contact temperature (K), informational
}

// Impervious returns a medium with h = 0 (outer wall impervious, food side
// still Robin-coupled with zero exchange coefficient).
func Impervious(v, a, k0, cf0, tend, tempK float64) Medium {
	h := 0.0
	return Medium{V: v, A: a, H: &h, K0: k0, CF0: cf0, Tend: tend, TempK: tempK}
}

// Robin returns a medium with an explicit convective coefficient h > 0.
func Robin(v, a, h, k0, cf0, tend, tempK float64) Medium {
	hh := h
	return Medium{V: v, A: a, H: &hh, K0: k0, CF0: cf0, Tend: tend, TempK: tempK}
}

// Periodic returns a medium in setoff/PBC mode: no food reservoir, outer and
// food faces connected cyclically (spec.md §3, "Setoff / PBC" glossary
// entry). CF0 takes no part in the dynamics; migrate.Run reports it as the
// constant CF(t) of every output time.
func Periodic(k0, cf0 float64) Medium {
	return Medium{V: 1, A: 0, H: nil, K0: k0, CF0: cf0, Tend: 0}
}

// PBC reports whether this medium runs in periodic boundary-condition mode.
func (m Medium) PBC() bool { return m.H == nil }

// HValue returns the convective coefficient, or 0 when H is nil (PBC mode).
func (m Medium) HValue() float64 {
	if m.H == nil {
		return 0
	}
	return *m.H
}

// Validate checks the invariants of spec.md §3/§7 (kind InvalidInput).
func (m Medium) Validate() error {
	if !m.PBC() {
		if m.V <= 0 {
			return chk.Err("invalid medium %q: V=%g must be > 0", m.Name, m.V)
		}
		if m.A < 0 {
			return chk.Err("invalid medium %q: A=%g must be >= 0", m.Name, m.A)
		}
		if m.HValue() < 0 {
			return chk.Err("invalid medium %q: h=%g must be >= 0", m.Name, m.HValue())
		}
		if m.Tend <= 0 {
			return chk.Err("invalid medium %q: t*=%g must be > 0", m.Name, m.Tend)
		}
	}
	if m.K0 <= 0 {
		return chk.Err("invalid medium %q: K0=%g must be > 0", m.Name, m.K0)
	}
	if m.CF0 < 0 {
		return chk.Err("invalid medium %q: CF0=%g must be >= 0", m.Name, m.CF0)
	}
	return nil
}

// WithCF0 returns a copy of m with CF0 replaced; used by Resume to seed the
// new run's food concentration from the previous run's terminal CF★
// (spec.md §4.9).
func (m Medium) WithCF0(cf0 float64) Medium {
	out := m
	out.CF0 = cf0
	return out
}
