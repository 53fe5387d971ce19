// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package migrate

import (
	"math"
	"testing"

	"github.com/cpmech/gofem/layer"
	"github.com/cpmech/gofem/medium"
	"github.com/cpmech/gofem/post"
	"github.com/cpmech/gosl/chk"
)

const day = 86400.0

// scenario helpers build the end-to-end seed tests of spec.md §8.

func Test_migrate01(tst *testing.T) {

	chk.PrintTitle("migrate01: two-layer LDPE/LDPE (seed test 1): CF grows, mean packaging C decreases")

	ml, _ := layer.New(
		layer.Layer{Label: "LDPE1", L: 100e-6, D: 1e-14, K: 1, C0: 1000},
		layer.Layer{Label: "LDPE2", L: 100e-6, D: 1e-14, K: 1, C0: 0},
	)
	med := medium.Robin(1e-3, 0.06, 1e-3, 1, 0, 10*day, 298.15)

	opts := Default()
	opts.NCells = 80
	opts.NCellsMin = 20
	opts.NOut = 60

	r, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}

	cfStar := r.CFStar()
	if cfStar <= 0 {
		tst.Errorf("expected CF(t*) > 0, got %g", cfStar)
	}

	for i := 1; i < len(r.Mean); i++ {
		if r.Mean[i] > r.Mean[i-1]+1e-9 {
			tst.Errorf("mean packaging concentration should be non-increasing, rose at index %d: %g -> %g", i, r.Mean[i-1], r.Mean[i])
		}
	}
}

func Test_migrate02(tst *testing.T) {

	chk.PrintTitle("migrate02: quasi-impervious single layer (seed test 2): CF stays far from equilibrium")

	ml, _ := layer.New(layer.Layer{Label: "PET", L: 200e-6, D: 3e-15, K: 1, C0: 5000})
	med := medium.Robin(0.125e-3, 0.06, 1e-9, 1, 0, 30*day, 298.15)

	opts := Default()
	opts.NCells = 60
	opts.NOut = 40

	r, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}

	cfStar := r.CFStar()
	cEq := ml.Layers[0].C0 * ml.Layers[0].L * med.A / (med.V + ml.Layers[0].L*med.A)
	if cfStar > 0.1*cEq {
		tst.Errorf("expected CF(t*) << equilibrium (%g), got %g", cEq, cfStar)
	}
}

func Test_migrate03(tst *testing.T) {

	chk.PrintTitle("migrate03: stacked setoff (seed test 3, PBC): ∫Cx dx is conserved, CF is absent")

	ml, _ := layer.New(
		layer.Layer{Label: "A", L: 500e-6, D: 1e-14, K: 1, C0: 0},
		layer.Layer{Label: "B", L: 300e-6, D: 1e-14, K: 1, C0: 5000},
	)
	med := medium.Periodic(1, 0)

	opts := Default()
	opts.NCells = 80
	opts.NOut = 40

	r, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}

	for _, cf := range r.CF {
		chk.Scalar(tst, "CF absent in PBC mode", 1e-12, cf, 0)
	}

	firstMass := r.Mean[0] * (r.Profiles[0].X[len(r.Profiles[0].X)-1] - r.Profiles[0].X[0])
	for i, prof := range r.Profiles {
		span := prof.X[len(prof.X)-1] - prof.X[0]
		mass := r.Mean[i] * span
		if math.Abs(mass-firstMass) > 1e-6*math.Abs(firstMass) {
			tst.Errorf("total packaging mass drifted at frame %d: %g vs %g", i, mass, firstMass)
		}
	}

	last := r.Profiles[len(r.Profiles)-1]
	spread := 0.0
	for _, c := range last.C {
		if d := math.Abs(c - last.C[0]); d > spread {
			spread = d
		}
	}
	if spread > 0.05*5000 {
		tst.Errorf("interior concentrations should equalize as t -> infinity, spread=%g", spread)
	}
}

func Test_migrate04(tst *testing.T) {

	chk.PrintTitle("migrate04: resume (seed test 4): CF(10d)+resume(20d) matches a direct 30-day run")

	newStack := func() *layer.Multilayer {
		ml, _ := layer.New(
			layer.Layer{Label: "LDPE1", L: 100e-6, D: 1e-14, K: 1, C0: 1000},
			layer.Layer{Label: "LDPE2", L: 100e-6, D: 1e-14, K: 1, C0: 0},
		)
		return ml
	}
	newMedium := func(tend float64) medium.Medium {
		return medium.Robin(1e-3, 0.06, 1e-3, 1, 0, tend, 298.15)
	}

	opts := Default()
	opts.NCells = 60
	opts.NOut = 40

	first, err := Run(newStack(), newMedium(10*day), opts)
	if err != nil {
		tst.Errorf("first run failed: %v", err)
		return
	}

	resumed, err := Resume(first, 30*day, opts)
	if err != nil {
		tst.Errorf("Resume failed: %v", err)
		return
	}

	direct, err := Run(newStack(), newMedium(30*day), opts)
	if err != nil {
		tst.Errorf("direct run failed: %v", err)
		return
	}

	tol := 0.02 * math.Abs(direct.CFStar())
	if tol == 0 {
		tol = 1e-6
	}
	if math.Abs(resumed.CFAt(30*day)-direct.CFAt(30*day)) > tol {
		tst.Errorf("resumed CF(30d)=%g differs from direct CF(30d)=%g by more than %g", resumed.CFAt(30*day), direct.CFAt(30*day), tol)
	}
}

func Test_migrate05(tst *testing.T) {

	chk.PrintTitle("migrate05: impervious food (h=0): CF stays at CF0 and flux is zero")

	ml, _ := layer.New(layer.Layer{Label: "A", L: 100e-6, D: 1e-14, K: 1, C0: 1000})
	med := medium.Impervious(1e-3, 0.06, 1, 0, 5*day, 298.15)

	opts := Default()
	opts.NCells = 40
	opts.NOut = 20

	r, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	for i, cf := range r.CF {
		chk.Scalar(tst, "CF == CF0", 1e-9, cf, med.CF0)
		chk.Scalar(tst, "flux == 0", 1e-9, r.FluxT[i], 0)
	}
}

func Test_migrate06(tst *testing.T) {

	chk.PrintTitle("migrate06: partition jump (seed test 6): steady-state C_left/C_right = K_right/K_left")

	ml, _ := layer.New(
		layer.Layer{Label: "left", L: 100e-6, D: 1e-14, K: 1, C0: 1000},
		layer.Layer{Label: "right", L: 100e-6, D: 1e-14, K: 10, C0: 1000},
	)
	med := medium.Periodic(1, 0)

	opts := Default()
	opts.NCells = 80
	opts.NOut = 10
	opts.TEnd = 200 * day // long enough to reach steady state

	r, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}

	last := r.Profiles[len(r.Profiles)-1]
	li := post.LinInterp1D{X: last.X, Y: last.C}
	cLeft := li.At(50e-6)   // mid-thickness of the left layer
	cRight := li.At(150e-6) // mid-thickness of the right layer
	ratio := cLeft / cRight
	chk.Scalar(tst, "C_left/C_right", 0.1, ratio, 10)
}

func Test_migrate07(tst *testing.T) {

	chk.PrintTitle("migrate07: additive composition (seed test 5): 0-5d + 5-15d matches a direct 0-15d run")

	newStack := func() *layer.Multilayer {
		ml, _ := layer.New(
			layer.Layer{Label: "LDPE1", L: 100e-6, D: 1e-14, K: 1, C0: 1000},
			layer.Layer{Label: "LDPE2", L: 100e-6, D: 1e-14, K: 1, C0: 0},
		)
		return ml
	}
	newMedium := func(tend float64) medium.Medium {
		return medium.Robin(1e-3, 0.06, 1e-3, 1, 0, tend, 298.15)
	}

	opts := Default()
	opts.NCells = 60
	opts.NOut = 30

	part1, err := Run(newStack(), newMedium(5*day), opts)
	if err != nil {
		tst.Errorf("part1 failed: %v", err)
		return
	}
	part2, err := Contact(part1, newMedium(10*day), opts)
	if err != nil {
		tst.Errorf("part2 (contact) failed: %v", err)
		return
	}

	direct, err := Run(newStack(), newMedium(15*day), opts)
	if err != nil {
		tst.Errorf("direct failed: %v", err)
		return
	}

	cfEq := direct.CFStar()
	if cfEq == 0 {
		cfEq = 1
	}
	d1 := math.Abs(part1.CFAt(5*day) - direct.CFAt(5*day))
	d2 := math.Abs(part2.CFAt(10*day) - direct.CFAt(15*day))
	tol := 1e-2 * math.Abs(cfEq)
	if d1 > tol {
		tst.Errorf("first leg mismatch at 5d: %g", d1)
	}
	if d2 > tol {
		tst.Errorf("second leg mismatch at 15d: %g", d2)
	}
}

func Test_migrate08(tst *testing.T) {

	chk.PrintTitle("migrate08: mesh independence bounds CF* drift under cell-count refinement")

	ml, _ := layer.New(
		layer.Layer{Label: "A", L: 100e-6, D: 1e-14, K: 1, C0: 1000},
		layer.Layer{Label: "B", L: 100e-6, D: 1e-14, K: 1, C0: 0},
	)
	med := medium.Robin(1e-3, 0.06, 1e-3, 1, 0, 10*day, 298.15)

	coarse := Default()
	coarse.NCells = 40
	coarse.NOut = 30
	fine := Default()
	fine.NCells = 80
	fine.NOut = 30

	rc, err := Run(ml, med, coarse)
	if err != nil {
		tst.Errorf("coarse run failed: %v", err)
		return
	}
	rf, err := Run(ml, med, fine)
	if err != nil {
		tst.Errorf("fine run failed: %v", err)
		return
	}

	rel := math.Abs(rf.CFStar()-rc.CFStar()) / math.Max(math.Abs(rf.CFStar()), 1e-30)
	if rel > 0.01 {
		tst.Errorf("CF* changed by %g%% when halving cell size, expected < 1%%", rel*100)
	}
}

func Test_migrate09(tst *testing.T) {

	chk.PrintTitle("migrate09: UserTau grid missing zero is normalized with a warning")

	ml, _ := layer.New(layer.Layer{Label: "A", L: 100e-6, D: 1e-14, K: 1, C0: 0})
	med := medium.Robin(1e-3, 0.06, 1e-6, 1, 0, 10*day, 298.15)

	buf := &warnBuffer{}
	opts := Default()
	opts.NCells = 20
	opts.UserTau = []float64{1, 2, 3}
	opts.Warn = buf

	_, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
		return
	}
	if len(buf.Messages) == 0 {
		tst.Errorf("expected an InconsistentGrid warning")
	}
}

func Test_migrate10(tst *testing.T) {

	chk.PrintTitle("migrate10: invalid input is rejected before meshing")

	// built directly: layer.New would already reject C0 < 0 and return nil
	ml := &layer.Multilayer{Layers: []layer.Layer{{Label: "A", L: 100e-6, D: 1e-14, K: 1, C0: -1}}}
	med := medium.Robin(1e-3, 0.06, 1e-6, 1, 0, 10*day, 298.15)

	if _, err := Run(ml, med, Default()); err == nil {
		tst.Errorf("Run should reject a negative initial concentration")
	}
}

func Test_migrate11(tst *testing.T) {

	chk.PrintTitle("migrate11: a prev_profile seeds the initial state, clamping a mismatched support")

	ml, _ := layer.New(layer.Layer{Label: "A", L: 100e-6, D: 1e-14, K: 1, C0: 0})
	med := medium.Robin(1e-3, 0.06, 1e-6, 1, 0, 5*day, 298.15)

	prof := &post.Profile{X: []float64{0, 25e-6, 50e-6}, C: []float64{500, 500, 500}}
	buf := &warnBuffer{}
	opts := Default()
	opts.NCells = 20
	opts.PrevProfile = prof
	opts.Warn = buf

	_, err := Run(ml, med, opts)
	if err != nil {
		tst.Errorf("Run failed: %v", err)
	}
	if len(buf.Messages) == 0 {
		tst.Errorf("expected a ProfileMismatch warning since the previous profile only covers half the new mesh")
	}
}

type warnBuffer struct {
	Messages []string
}

func (b *warnBuffer) Warn(format string, args ...interface{}) {
	b.Messages = append(b.Messages, format)
}
