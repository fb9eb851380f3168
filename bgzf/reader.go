// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// countingReader wraps an io.Reader, tracking the number of bytes consumed
// from it and allowing a single byte of lookahead. This is how the reader
// knows the compressed-stream offset (coffset) of each block it decodes,
// and how fill tells whether any bytes follow an empty block.
type countingReader struct {
	r       io.Reader
	off     int64
	peeked  bool
	peekVal byte
}

func (c *countingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := 0
	if c.peeked {
		p[0] = c.peekVal
		c.peeked = false
		n = 1
		if len(p) == 1 {
			c.off++
			return 1, nil
		}
	}
	m, err := c.r.Read(p[n:])
	c.off += int64(n + m)
	return n + m, err
}

// peek1 returns the next byte without consuming it.
func (c *countingReader) peek1() (byte, error) {
	if c.peeked {
		return c.peekVal, nil
	}
	var b [1]byte
	_, err := io.ReadFull(c.r, b[:])
	if err != nil {
		return 0, err
	}
	c.peeked = true
	c.peekVal = b[0]
	return b[0], nil
}

// Reader decodes a BGZF stream into a sequence of decompressed blocks and
// presents them as a single contiguous byte stream via Read. A Reader is
// not safe for concurrent use.
type Reader struct {
	src    *countingReader
	closer io.Closer

	cur        []byte // decompressed bytes of the block currently being read
	curOff     int    // bytes of cur already consumed
	blockStart int64  // coffset of the block backing cur

	sawEOF bool // the terminal EOF block has been consumed
	closed bool

	hdr     [12]byte
	trailer [8]byte
}

// NewReader returns a Reader that decodes BGZF data from r.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{src: &countingReader{r: r}}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd, nil
}

// Offset returns the virtual offset of the next byte Read will return.
func (r *Reader) Offset() VirtualOffset {
	if r.curOff < len(r.cur) {
		return PackVirtualOffset(r.blockStart, uint16(r.curOff))
	}
	return PackVirtualOffset(r.src.off, 0)
}

// Read implements io.Reader, transparently decoding further BGZF blocks as
// needed. It returns io.EOF only after the canonical EOF block has been
// consumed; a stream that ends without one yields ErrTruncated instead.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	total := 0
	for len(p) > 0 {
		if r.curOff == len(r.cur) {
			if r.sawEOF {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			if err := r.fill(); err != nil {
				if total > 0 && err == io.EOF {
					return total, nil
				}
				return total, err
			}
			if r.curOff == len(r.cur) {
				// Empty non-EOF intermediate block; loop to fetch another.
				continue
			}
		}
		n := copy(p, r.cur[r.curOff:])
		r.curOff += n
		total += n
		p = p[n:]
	}
	return total, nil
}

// fill decodes the next block from the underlying stream into r.cur,
// recognizing and consuming the terminal EOF block.
func (r *Reader) fill() error {
	start := r.src.off
	block, err := r.readBlock()
	if err != nil {
		return err
	}
	r.blockStart = start
	r.cur = block
	r.curOff = 0
	if len(block) == 0 {
		// Possible EOF marker; confirm by checking whether any bytes remain.
		if _, err := r.src.peek1(); err == io.EOF {
			r.sawEOF = true
		}
		// An empty non-EOF block is legal and simply carries no data.
	}
	return nil
}

// readBlock reads and validates a single BGZF block, returning its
// decompressed payload.
func (r *Reader) readBlock() ([]byte, error) {
	offset := r.src.off
	n, err := io.ReadFull(r.src, r.hdr[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, &TruncationError{Offset: offset}
		}
		return nil, &TruncationError{Offset: offset}
	}
	if r.hdr[0] != 0x1f || r.hdr[1] != 0x8b {
		return nil, &FormatError{Offset: offset, Err: ErrBadMagic}
	}
	if r.hdr[2] != 8 {
		return nil, &FormatError{Offset: offset, Err: ErrUnsupportedMethod}
	}
	if r.hdr[3]&0x04 == 0 {
		return nil, &FormatError{Offset: offset, Err: ErrMissingExtra}
	}
	xlen := int(r.hdr[10]) | int(r.hdr[11])<<8

	extra := make([]byte, xlen)
	if _, err := io.ReadFull(r.src, extra); err != nil {
		return nil, &TruncationError{Offset: offset}
	}
	bsize, ok := findBCSubfield(extra)
	if !ok {
		return nil, &FormatError{Offset: offset, Err: ErrMissingBCSubfield}
	}

	payloadLen := int(bsize) - xlen - 19
	if payloadLen < 0 {
		return nil, &TruncationError{Offset: offset}
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.src, payload); err != nil {
		return nil, &TruncationError{Offset: offset}
	}

	decompressed, err := inflate(payload)
	if err != nil {
		return nil, &FormatError{Offset: offset, Err: err}
	}

	if _, err := io.ReadFull(r.src, r.trailer[:]); err != nil {
		return nil, &TruncationError{Offset: offset}
	}
	wantCRC := le32(r.trailer[0:4])
	wantISize := le32(r.trailer[4:8])
	if crc32.ChecksumIEEE(decompressed) != wantCRC {
		return nil, &FormatError{Offset: offset, Err: ErrChecksumMismatch}
	}
	if uint32(len(decompressed)) != wantISize {
		return nil, &FormatError{Offset: offset, Err: ErrSizeMismatch}
	}
	return decompressed, nil
}

// findBCSubfield scans a gzip extra field for the BGZF "BC" subfield and
// returns its BSIZE payload.
func findBCSubfield(extra []byte) (uint16, bool) {
	i := 0
	for i+4 <= len(extra) {
		si1, si2 := extra[i], extra[i+1]
		slen := int(extra[i+2]) | int(extra[i+3])<<8
		i += 4
		if i+slen > len(extra) {
			return 0, false
		}
		if si1 == 0x42 && si2 == 0x43 && slen == 2 {
			return uint16(extra[i]) | uint16(extra[i+1])<<8, true
		}
		i += slen
	}
	return 0, false
}

// inflate decompresses a BGZF block payload, handling both raw-DEFLATE
// compressed payloads and the inline stored (uncompressed) block form
// described in spec step 5.
func inflate(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if payload[0]&0x07 == 0x01 {
		// Stored block: BFINAL=1, BTYPE=00, then LEN, NLEN, then LEN bytes.
		if len(payload) < 5 {
			return nil, ErrStoredBlock
		}
		length := uint16(payload[1]) | uint16(payload[2])<<8
		inv := uint16(payload[3]) | uint16(payload[4])<<8
		if length != ^inv {
			return nil, ErrStoredBlock
		}
		if len(payload) < 5+int(length) {
			return nil, ErrStoredBlock
		}
		out := make([]byte, length)
		copy(out, payload[5:5+int(length)])
		return out, nil
	}
	fr := flate.NewReader(&byteReader{payload})
	defer fr.Close()
	out := make([]byte, 0, BlockSize)
	buf := make([]byte, 4096)
	for {
		n, err := fr.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type byteReader struct{ b []byte }

func (b *byteReader) Read(p []byte) (int, error) {
	if len(b.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.b)
	b.b = b.b[n:]
	return n, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// ReadUntilNextBlock returns the remainder of the currently buffered
// decompressed block without crossing into the next one. If the reader is
// already positioned at a block boundary, it decodes and returns the next
// block in full. Empty intermediate blocks are skipped transparently, so
// the returned slice is never from an empty block unless the stream is at
// its true end.
func (r *Reader) ReadUntilNextBlock() ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.curOff < len(r.cur) {
		rest := r.cur[r.curOff:]
		r.curOff = len(r.cur)
		return rest, nil
	}
	for {
		if r.sawEOF {
			return nil, io.EOF
		}
		if err := r.fill(); err != nil {
			return nil, err
		}
		if len(r.cur) > 0 {
			r.curOff = len(r.cur)
			return r.cur, nil
		}
		if r.sawEOF {
			return nil, io.EOF
		}
		// Empty intermediate block: keep looking, matching the Open
		// Question resolution in spec §9 — these must not appear to
		// the caller as a block boundary of their own.
	}
}

// Close releases the underlying reader, closing it if it implements
// io.Closer. A second call to Close is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.cur = nil
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
