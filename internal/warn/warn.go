// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package warn implements the non-fatal warning channel used by the solver
// to surface §7 conditions (InconsistentGrid, ProfileMismatch) without
// aborting the run.
package warn

import "github.com/cpmech/gosl/io"

// Sink receives warning messages. migrate.RunOptions treats a nil Sink as
// "discard warnings".
type Sink interface {
	Warn(format string, args ...interface{})
}

// Printer writes warnings through gosl/io, prefixed and colourised the way
// gofem prints non-fatal notices during assembly.
type Printer struct{}

// Warn implements Sink.
func (Printer) Warn(format string, args ...interface{}) {
	io.Pfyel(">> warning: "+format+"\n", args...)
}

// Buffer collects warnings in memory; useful for callers (and tests) that
// want to assert on emitted warnings instead of reading stdout.
type Buffer struct {
	Messages []string
}

// Warn implements Sink.
func (b *Buffer) Warn(format string, args ...interface{}) {
	b.Messages = append(b.Messages, sprintf(format, args...))
}

func sprintf(format string, args ...interface{}) string {
	return io.Sf(format, args...)
}
