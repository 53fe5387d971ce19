// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result implements the Result container of spec.md §4.7/§4.9: the
// time series a run produces, its restart snapshot, and Add. Resume and the
// contact operator are in package migrate, which builds on this container.
package result

import (
	"github.com/cpmech/gofem/layer"
	"github.com/cpmech/gofem/medium"
	"github.com/cpmech/gofem/post"
	"github.com/cpmech/gosl/chk"
)

// Snapshot is the restart payload a Result carries: frozen inputs, the
// terminal time t★, the food concentration CF★ at t★, and the terminal
// spatial profile Cx★ with its interpolant (spec.md §4.9).
type Snapshot struct {
	Multilayer *layer.Multilayer
	Medium     medium.Medium
	TStar      float64
	CFStar     float64
	ProfileStar post.Profile
}

// Result is the output of one run (or the concatenation of several),
// exposing the time series spec.md §4.7 promises plus the CF/Cx
// interpolants and the restart snapshot needed to resume or chain.
type Result struct {
	Name        string
	Description string

	T        []float64 // physical time (s), strictly increasing
	CF       []float64
	Mean     []float64 // mean packaging concentration C̄(t)
	FluxT    []float64 // instantaneous flux f(t)
	CumFlux  []float64 // cumulative flux fc(t)
	Profiles []post.Profile

	cfInterp post.LinInterp1D
	cxInterp post.ProfileInterp

	Snapshot Snapshot
}

// New builds a Result from per-time frames produced by the post-processor,
// freezing a restart snapshot from the last frame (spec.md §4.7, §4.9).
func New(name, description string, ml *layer.Multilayer, med medium.Medium, frames []post.Frame) (*Result, error) {
	if len(frames) == 0 {
		return nil, chk.Err("result.New: no frames given")
	}
	r := &Result{Name: name, Description: description}
	for _, fr := range frames {
		r.T = append(r.T, fr.T)
		r.CF = append(r.CF, fr.CF)
		r.Mean = append(r.Mean, post.MeanConcentration(fr.Profile))
		r.FluxT = append(r.FluxT, fr.Flux)
		r.Profiles = append(r.Profiles, fr.Profile)
	}
	r.CumFlux = post.CumulativeFlux(r.T, r.FluxT)
	r.buildInterpolants()

	last := frames[len(frames)-1]
	r.Snapshot = Snapshot{
		Multilayer:  ml.Clone(),
		Medium:      med,
		TStar:       last.T,
		CFStar:      last.CF,
		ProfileStar: last.Profile,
	}
	return r, nil
}

func (r *Result) buildInterpolants() {
	r.cfInterp = post.LinInterp1D{X: r.T, Y: r.CF}
	r.cxInterp = post.ProfileInterp{T: r.T, Profiles: r.Profiles}
}

// CFAt returns the linearly interpolated food concentration at t, clamped
// to the recorded range (spec.md §4.7 point 5, §6 Result.CF(t)).
func (r *Result) CFAt(t float64) float64 { return r.cfInterp.At(t) }

// CxAt returns the interpolated spatial profile at t (spec.md §6 Result.Cx(t)).
func (r *Result) CxAt(t float64) post.Profile { return r.cxInterp.At(t) }

// FluxAt linearly interpolates the instantaneous flux at t.
func (r *Result) FluxAt(t float64) float64 {
	return post.LinInterp1D{X: r.T, Y: r.FluxT}.At(t)
}

// CumFluxAt linearly interpolates the cumulative flux at t.
func (r *Result) CumFluxAt(t float64) float64 {
	return post.LinInterp1D{X: r.T, Y: r.CumFlux}.At(t)
}

// TStar returns the terminal contact time of this result's restart snapshot.
func (r *Result) TStar() float64 { return r.Snapshot.TStar }

// CFStar returns the terminal food concentration of this result's restart
// snapshot.
func (r *Result) CFStar() float64 { return r.Snapshot.CFStar }

// ShiftTime adds shift to every recorded time and to the restart snapshot's
// t*, then rebuilds the CF/Cx interpolants against the shifted axis. Used by
// migrate.Resume so a resumed Result reads on the same absolute clock as the
// run it continues (spec.md §4.9, seed test 4: "Result.CF(30 days) equals
// a direct 30-day run").
func ShiftTime(r *Result, shift float64) {
	for i := range r.T {
		r.T[i] += shift
	}
	r.Snapshot.TStar += shift
	r.buildInterpolants()
}

// Add concatenates two sequential runs (spec.md §4.9): b's time vector is
// shifted by a's terminal time, b's profiles are interpolated onto a's
// spatial grid when the grids differ, and CF/flux/cumulative-flux are
// concatenated. The merged restart is inherited from b. A CompositionError
// is raised when the two spatial grids have incompatible support (spec.md
// §7).
func Add(a, b *Result) (*Result, error) {
	if len(a.T) == 0 || len(b.T) == 0 {
		return nil, chk.Err("result.Add: empty operand")
	}
	aGrid := a.Profiles[0].X
	bGrid := b.Profiles[0].X
	sameGrid := sameSupport(aGrid, bGrid)

	out := &Result{Name: a.Name, Description: a.Description}
	out.T = append(out.T, a.T...)
	out.CF = append(out.CF, a.CF...)
	out.Mean = append(out.Mean, a.Mean...)
	out.FluxT = append(out.FluxT, a.FluxT...)
	out.Profiles = append(out.Profiles, a.Profiles...)

	// b's first sample is its own t=0, i.e. a's terminal state restated;
	// dropping it keeps out.T strictly increasing across the seam
	// (spec.md §8 "strict time monotonicity").
	shift := a.Snapshot.TStar
	for i, t := range b.T {
		if i == 0 {
			continue
		}
		out.T = append(out.T, t+shift)
		out.CF = append(out.CF, b.CF[i])
		out.FluxT = append(out.FluxT, b.FluxT[i])

		prof := b.Profiles[i]
		if !sameGrid {
			c, clamped := post.ResampleOnto(prof, aGrid)
			if clamped {
				return nil, chk.Err("result.Add: incompatible spatial bounds between operands")
			}
			prof = post.Profile{X: aGrid, C: c}
		}
		out.Profiles = append(out.Profiles, prof)
		out.Mean = append(out.Mean, post.MeanConcentration(prof))
	}
	out.CumFlux = post.CumulativeFlux(out.T, out.FluxT)
	out.buildInterpolants()
	out.Snapshot = b.Snapshot
	return out, nil
}

func sameSupport(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	lo := 1e-9 * (a[len(a)-1] - a[0])
	if lo < 1e-12 {
		lo = 1e-12
	}
	for i := range a {
		if abs(a[i]-b[i]) > lo {
			return false
		}
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
