// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bai

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/biostream/hts/bgzf"
)

// baiMagic is the 4-byte magic prefix of a BAI index file.
var baiMagic = [4]byte{'B', 'A', 'I', 1}

// ReadFrom decodes a BAI index from r, per the layout in spec §4.6:
// magic, n_ref, then per reference a bin table and a linear index,
// followed by an optional trailing count of unplaced unmapped reads.
func ReadFrom(r io.Reader) (*Index, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, wrapTrunc(err)
	}
	if magic != baiMagic {
		return nil, ErrBadMagic
	}

	nRef, err := readU32(r)
	if err != nil {
		return nil, wrapTrunc(err)
	}

	idx := &Index{Refs: make([]RefIndex, nRef)}
	for i := range idx.Refs {
		ref, err := readRefIndex(r)
		if err != nil {
			return nil, &FormatError{Ref: i, Err: err}
		}
		idx.Refs[i] = ref
	}

	// The trailing unplaced-unmapped count is optional: its absence is
	// not a truncation, since every other section already read to
	// completion.
	n, err := readU64(r)
	if err == nil {
		idx.NoCoor = &n
	} else if err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return idx, nil
}

func readRefIndex(r io.Reader) (RefIndex, error) {
	var ref RefIndex
	nBin, err := readU32(r)
	if err != nil {
		return ref, wrapTrunc(err)
	}
	if nBin > 0 {
		ref.Bins = make(map[uint32][]Chunk, nBin)
	}
	for b := uint32(0); b < nBin; b++ {
		binID, err := readU32(r)
		if err != nil {
			return ref, wrapTrunc(err)
		}
		nChunk, err := readU32(r)
		if err != nil {
			return ref, wrapTrunc(err)
		}
		chunks := make([]Chunk, nChunk)
		for c := range chunks {
			begin, err := readU64(r)
			if err != nil {
				return ref, wrapTrunc(err)
			}
			end, err := readU64(r)
			if err != nil {
				return ref, wrapTrunc(err)
			}
			chunks[c] = Chunk{Begin: bgzf.VirtualOffset(begin), End: bgzf.VirtualOffset(end)}
		}
		if binID == PseudoBin {
			if len(chunks) != 2 {
				return ref, ErrPseudoChunk
			}
			ref.Pseudo = &PseudoBinStats{
				Begin:    chunks[0].Begin,
				End:      chunks[0].End,
				Mapped:   uint64(chunks[1].Begin),
				Unmapped: uint64(chunks[1].End),
			}
			continue
		}
		ref.Bins[binID] = chunks
	}

	nIntv, err := readU32(r)
	if err != nil {
		return ref, wrapTrunc(err)
	}
	ref.Intervals = make([]bgzf.VirtualOffset, nIntv)
	for i := range ref.Intervals {
		v, err := readU64(r)
		if err != nil {
			return ref, wrapTrunc(err)
		}
		ref.Intervals[i] = bgzf.VirtualOffset(v)
	}
	return ref, nil
}

// WriteTo serializes idx to w, the inverse of ReadFrom. The trailing
// unplaced-unmapped count is omitted iff idx.NoCoor is nil.
func WriteTo(w io.Writer, idx *Index) error {
	var buf bytes.Buffer
	buf.Write(baiMagic[:])
	writeU32(&buf, uint32(len(idx.Refs)))
	for _, ref := range idx.Refs {
		nBin := len(ref.Bins)
		if ref.Pseudo != nil {
			nBin++
		}
		writeU32(&buf, uint32(nBin))

		// Map iteration order is not stable; callers that need a
		// canonical byte-for-byte re-encoding should not rely on bin
		// ordering beyond "pseudo-bin last", matching how the
		// reference implementations append it after the regular bins.
		for binID, chunks := range ref.Bins {
			writeU32(&buf, binID)
			writeU32(&buf, uint32(len(chunks)))
			for _, c := range chunks {
				writeU64(&buf, uint64(c.Begin))
				writeU64(&buf, uint64(c.End))
			}
		}
		if ref.Pseudo != nil {
			writeU32(&buf, PseudoBin)
			writeU32(&buf, 2)
			writeU64(&buf, uint64(ref.Pseudo.Begin))
			writeU64(&buf, uint64(ref.Pseudo.End))
			writeU64(&buf, ref.Pseudo.Mapped)
			writeU64(&buf, ref.Pseudo.Unmapped)
		}

		writeU32(&buf, uint32(len(ref.Intervals)))
		for _, v := range ref.Intervals {
			writeU64(&buf, uint64(v))
		}
	}
	if idx.NoCoor != nil {
		writeU64(&buf, *idx.NoCoor)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// wrapTrunc normalizes a short-read error (io.EOF or io.ErrUnexpectedEOF)
// to ErrTruncated. ReadFrom does not pass the read of the optional
// trailing count through it, so a missing count is not a truncation.
func wrapTrunc(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}
