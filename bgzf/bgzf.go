// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf implements the blocked gzip format defined by the SAM/BAM
// specification: a stream of independent gzip blocks, each carrying its own
// compressed size in a "BC" gzip extra subfield, terminated by a fixed
// 28-byte empty block.
package bgzf

import (
	"errors"
	"strconv"
)

// BlockSize is the maximum number of uncompressed bytes carried by a single
// BGZF block (BGZF_BLOCK_SIZE in the reference implementations).
const BlockSize = 0xff00

// MaxBlockSize is the largest a fully framed BGZF block (header, extra,
// compressed body and trailer) is permitted to be.
const MaxBlockSize = 0x10000

// baseHeader is the fixed 16-byte prefix common to every BGZF block: the
// 10-byte gzip header (FLG.FEXTRA set, OS unknown) followed by the 6-byte
// extra field (XLEN=6, then the "BC" subfield header SI1,SI2,SLEN).
var baseHeader = [16]byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
}

// eofBlock is the canonical empty BGZF block used to mark a well-formed
// stream's end.
var eofBlock = [28]byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
	0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
	0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// EOFBlock returns a copy of the canonical 28 byte BGZF end-of-file marker.
func EOFBlock() []byte {
	b := make([]byte, len(eofBlock))
	copy(b, eofBlock[:])
	return b
}

// Errors returned by the BGZF reader. They are distinguished so that callers
// can tell a malformed block apart from a stream that simply ended early.
var (
	// ErrBadMagic is returned when a block does not start with the gzip
	// magic bytes.
	ErrBadMagic = errors.New("bgzf: invalid gzip magic")
	// ErrUnsupportedMethod is returned when the gzip compression method
	// is not DEFLATE (8).
	ErrUnsupportedMethod = errors.New("bgzf: unsupported compression method")
	// ErrMissingExtra is returned when FLG.FEXTRA is not set.
	ErrMissingExtra = errors.New("bgzf: missing FEXTRA field")
	// ErrMissingBCSubfield is returned when the BC subfield cannot be
	// found in the extra field, or has the wrong SLEN.
	ErrMissingBCSubfield = errors.New("bgzf: missing BC subfield")
	// ErrChecksumMismatch is returned when a block's CRC-32 does not
	// match its decompressed payload.
	ErrChecksumMismatch = errors.New("bgzf: checksum mismatch")
	// ErrSizeMismatch is returned when a block's ISIZE does not match
	// the length of its decompressed payload.
	ErrSizeMismatch = errors.New("bgzf: ISIZE mismatch")
	// ErrStoredBlock is returned when an inline stored DEFLATE block is
	// corrupt (LEN/NLEN mismatch).
	ErrStoredBlock = errors.New("bgzf: corrupt stored block")
	// ErrTruncated is returned when the stream ends before a complete
	// block, or before the terminal EOF block.
	ErrTruncated = errors.New("bgzf: truncated stream")
	// ErrBlockTooLarge is returned when a caller asks the writer to emit
	// more than BlockSize bytes as a single block.
	ErrBlockTooLarge = errors.New("bgzf: block larger than BlockSize")
	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("bgzf: use of closed file")
	// ErrInvalidLevel is returned when a compression level outside
	// NoCompression..BestCompression is requested.
	ErrInvalidLevel = errors.New("bgzf: invalid compression level")
)

// FormatError reports a malformed BGZF block, identified by the byte offset
// of its gzip header in the compressed stream.
type FormatError struct {
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return "bgzf: malformed block at compressed offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// TruncationError reports that a BGZF stream ended before a complete block,
// or before the terminal EOF block, identified by the byte offset of the
// incomplete block's gzip header in the compressed stream. It is distinct
// from FormatError so callers can tell a short stream apart from one that
// carries a malformed block.
type TruncationError struct {
	Offset int64
}

func (e *TruncationError) Error() string {
	return "bgzf: truncated stream at compressed offset " + strconv.FormatInt(e.Offset, 10)
}

func (e *TruncationError) Unwrap() error { return ErrTruncated }

// VirtualOffset is a packed coordinate into a BGZF stream: the upper 48 bits
// are the byte offset of a block's gzip header in the compressed stream
// (coffset) and the lower 16 bits are a byte offset within that block's
// decompressed payload (uoffset). VirtualOffset is ordered the same as the
// plain 64-bit integer it is packed into.
type VirtualOffset uint64

// PackVirtualOffset packs a compressed-stream offset and an
// uncompressed-block offset into a VirtualOffset.
func PackVirtualOffset(coffset int64, uoffset uint16) VirtualOffset {
	return VirtualOffset(uint64(coffset)<<16 | uint64(uoffset))
}

// ParseVirtualOffset reads a VirtualOffset from 8 little-endian bytes.
func ParseVirtualOffset(b []byte) VirtualOffset {
	_ = b[7]
	v := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
	return VirtualOffset(v)
}

// PutVirtualOffset writes v to b as 8 little-endian bytes.
func PutVirtualOffset(b []byte, v VirtualOffset) {
	_ = b[7]
	u := uint64(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
	b[4] = byte(u >> 32)
	b[5] = byte(u >> 40)
	b[6] = byte(u >> 48)
	b[7] = byte(u >> 56)
}

// Coffset returns the compressed-stream byte offset of the block containing
// the position identified by v.
func (v VirtualOffset) Coffset() int64 { return int64(v >> 16) }

// Uoffset returns the byte offset within the decompressed block identified
// by v.
func (v VirtualOffset) Uoffset() uint16 { return uint16(v & 0xffff) }

// Chunk is a half-open interval [Begin, End) of a BGZF stream expressed as
// virtual offsets.
type Chunk struct {
	Begin VirtualOffset
	End   VirtualOffset
}
