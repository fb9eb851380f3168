// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import "github.com/biostream/hts/bgzf"

// tileShift is the bit shift separating a reference coordinate from its
// 16 kbp linear-index tile number.
const tileShift = 14

// BinFor returns the UCSC bin identifier that would hold an alignment
// spanning the half-open interval [beg, end) of reference coordinates,
// per the 5-level hierarchy described in spec §3 (tile sizes 2^29..2^14
// at this depth, matching samtools' htslib reg2bin).
func BinFor(beg, end int) uint32 {
	end--
	switch {
	case beg>>14 == end>>14:
		return ((1<<15)-1)/7 + uint32(beg>>14)
	case beg>>17 == end>>17:
		return ((1<<12)-1)/7 + uint32(beg>>17)
	case beg>>20 == end>>20:
		return ((1<<9)-1)/7 + uint32(beg>>20)
	case beg>>23 == end>>23:
		return ((1<<6)-1)/7 + uint32(beg>>23)
	case beg>>26 == end>>26:
		return ((1<<3)-1)/7 + uint32(beg>>26)
	}
	return 0
}

// BinsFor returns every bin identifier, across all five levels of the
// hierarchy, that could possibly hold an alignment overlapping the
// half-open interval [beg, end).
func BinsFor(beg, end int) []uint32 {
	end--
	bins := make([]uint32, 1, ((1<<18)-1)/7)
	bins[0] = 0
	for lvl, shift := range [4]uint{26, 23, 20, 17} {
		first := (((1<<uint(3*lvl+3))-1)/7 + uint32(beg>>shift))
		last := (((1<<uint(3*lvl+3))-1)/7 + uint32(end>>shift))
		for k := first; k <= last; k++ {
			bins = append(bins, k)
		}
	}
	first := uint32(4681) + uint32(beg>>tileShift)
	last := uint32(4681) + uint32(end>>tileShift)
	for k := first; k <= last; k++ {
		bins = append(bins, k)
	}
	return bins
}

// Chunks returns every chunk, across every bin overlapping [beg, end),
// that a reference's index assigns to that region, pruned against the
// linear index's minimum offset for the tile containing beg (the
// standard BAI/CSI "loffset" optimization): chunks that end strictly
// before that minimum offset cannot contain an alignment overlapping
// [beg, end) and are dropped.
func (idx *Index) Chunks(ref, beg, end int) []Chunk {
	if ref < 0 || ref >= len(idx.Refs) {
		return nil
	}
	r := &idx.Refs[ref]

	var minOffset bgzf.VirtualOffset
	tile := beg >> tileShift
	if tile < len(r.Intervals) {
		minOffset = r.Intervals[tile]
	}

	var out []Chunk
	for _, bin := range BinsFor(beg, end) {
		chunks, ok := r.Bins[bin]
		if !ok {
			continue
		}
		for _, c := range chunks {
			if c.End <= minOffset {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// ReferenceChunk returns the reference-spanning begin/end virtual offset
// pair and mapped/unmapped read counts carried by the reserved pseudo-bin,
// if present.
func (idx *Index) ReferenceChunk(ref int) (PseudoBinStats, bool) {
	if ref < 0 || ref >= len(idx.Refs) {
		return PseudoBinStats{}, false
	}
	p := idx.Refs[ref].Pseudo
	if p == nil {
		return PseudoBinStats{}, false
	}
	return *p, true
}
