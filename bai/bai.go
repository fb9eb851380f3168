// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bai implements decoding and encoding of the BAI index format: a
// per-reference UCSC binning index plus a 16 kbp-tile linear index,
// layered over the same virtual-offset scheme as the bgzf package.
package bai

import (
	"errors"
	"strconv"

	"github.com/biostream/hts/bgzf"
)

// PseudoBin is the reserved bin identifier (37450) whose two chunks carry
// a reference's mapped/unmapped read counts instead of alignment data.
const PseudoBin = 37450

// Errors returned while decoding a BAI index.
var (
	ErrBadMagic    = errors.New("bai: invalid magic")
	ErrTruncated   = errors.New("bai: truncated index")
	ErrPseudoChunk = errors.New("bai: pseudo-bin does not have exactly two chunks")
)

// FormatError reports a malformed BAI index, naming the reference being
// decoded when the error was detected.
type FormatError struct {
	Ref int
	Err error
}

func (e *FormatError) Error() string {
	return "bai: reference " + strconv.Itoa(e.Ref) + ": " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// Chunk is a half-open interval of the BGZF stream, expressed as virtual
// offsets, that a bin's alignments occupy.
type Chunk struct {
	Begin bgzf.VirtualOffset
	End   bgzf.VirtualOffset
}

// PseudoBinStats holds the side-band metadata carried by the reserved bin
// 37450: the reference's overall begin/end virtual offsets and its mapped
// and unmapped read-segment counts.
type PseudoBinStats struct {
	Begin    bgzf.VirtualOffset
	End      bgzf.VirtualOffset
	Mapped   uint64
	Unmapped uint64
}

// RefIndex is the binning index and linear index for a single reference
// sequence.
type RefIndex struct {
	// Bins maps a UCSC bin identifier to the chunks of the BGZF stream
	// holding alignments assigned to that bin. The reserved pseudo-bin
	// (37450) is never present here; it is decoded into Pseudo instead.
	Bins map[uint32][]Chunk

	// Intervals is the linear index: one virtual offset per 16 kbp tile
	// of the reference, giving the offset of the first alignment
	// overlapping that tile.
	Intervals []bgzf.VirtualOffset

	// Pseudo holds the reference's read-count side-band metadata, or
	// nil if bin 37450 was absent.
	Pseudo *PseudoBinStats
}

// Index is a decoded BAI file: one RefIndex per reference sequence plus
// an optional count of unplaced, unmapped reads.
type Index struct {
	Refs []RefIndex

	// NoCoor is the number of unplaced unmapped reads (those with no
	// reference at all), or nil if the trailing count was omitted.
	NoCoor *uint64
}
