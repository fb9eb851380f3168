// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bam implements BAM record reading and writing over a
// BGZF-framed, byte-backed record stream.
package bam

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/biostream/hts/bgzf"
	"github.com/biostream/hts/sam"
)

// ErrClosed is returned by Reader and Writer operations attempted after
// Close.
var ErrClosed = errors.New("bam: use of closed file")

// Reader implements BAM record reading: it decodes the binary header
// frame once, then iterates records out of the concatenated, decompressed
// BGZF block stream.
type Reader struct {
	bg     *bgzf.Reader
	header *sam.Header

	buf    []byte // bytes read from bg but not yet consumed as a record
	closed bool
}

// NewReader returns a Reader that decodes BAM data from r, consuming and
// decoding the header frame immediately.
func NewReader(r io.Reader) (*Reader, error) {
	bg, err := bgzf.NewReader(r)
	if err != nil {
		return nil, err
	}
	br := &Reader{bg: bg}
	if err := br.readHeader(); err != nil {
		bg.Close()
		return nil, err
	}
	return br, nil
}

// readHeader reads the BAM binary header frame (magic, SAM text, and the
// reference dictionary) directly off the BGZF stream, growing a single
// buffer as it discovers each section's length, then hands the whole
// frame to sam.DecodeHeader.
func (br *Reader) readHeader() error {
	var prefix [8]byte
	if _, err := io.ReadFull(br.bg, prefix[:]); err != nil {
		return err
	}
	textLen := int(binary.LittleEndian.Uint32(prefix[4:8]))

	body := make([]byte, textLen+4)
	if _, err := io.ReadFull(br.bg, body); err != nil {
		return err
	}
	nRef := int(binary.LittleEndian.Uint32(body[textLen : textLen+4]))

	full := append(append([]byte{}, prefix[:]...), body...)
	for i := 0; i < nRef; i++ {
		var nameLenBuf [4]byte
		if _, err := io.ReadFull(br.bg, nameLenBuf[:]); err != nil {
			return err
		}
		nameLen := int(binary.LittleEndian.Uint32(nameLenBuf[:]))
		entry := make([]byte, 4+nameLen+4)
		copy(entry, nameLenBuf[:])
		if _, err := io.ReadFull(br.bg, entry[4:]); err != nil {
			return err
		}
		full = append(full, entry...)
	}

	h, n, err := sam.DecodeHeader(full)
	if err != nil {
		return err
	}
	if n != len(full) {
		return errors.New("bam: header frame length mismatch")
	}
	br.header = h
	return nil
}

// Header returns the header decoded when the Reader was constructed.
func (br *Reader) Header() *sam.Header { return br.header }

// Read returns the next record in the stream, or io.EOF when the stream
// is exhausted at a record boundary.
func (br *Reader) Read() (*sam.Record, error) {
	if br.closed {
		return nil, ErrClosed
	}
	if err := br.fill(4); err != nil {
		return nil, err
	}
	blockSize := int(int32(binary.LittleEndian.Uint32(br.buf)))
	if blockSize < 0 {
		return nil, sam.ErrRecordBadSize
	}
	total := 4 + blockSize
	if err := br.fill(total); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, sam.ErrRecordTruncated
		}
		return nil, err
	}
	recBytes := make([]byte, total)
	copy(recBytes, br.buf[:total])
	br.buf = br.buf[total:]

	return sam.RecordFromBytes(recBytes)
}

// fill ensures br.buf holds at least n bytes, reading further from the
// underlying BGZF stream as needed. It reports io.EOF only when the
// stream ends with fewer than n bytes remaining and br.buf was already
// empty, matching record-iteration-at-a-clean-boundary semantics.
func (br *Reader) fill(n int) error {
	chunk := recordBufPool.Get().([]byte)
	resizeScratch(&chunk, 32<<10)
	defer recordBufPool.Put(chunk)
	for len(br.buf) < n {
		startedEmpty := len(br.buf) == 0
		m, err := br.bg.Read(chunk)
		if m > 0 {
			br.buf = append(br.buf, chunk[:m]...)
		}
		if err != nil {
			if err == io.EOF {
				if len(br.buf) >= n {
					break
				}
				if startedEmpty && len(br.buf) == 0 {
					return io.EOF
				}
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// Close releases the underlying BGZF reader. A second call to Close is a
// no-op. Any record bytes buffered but not yet returned are discarded.
func (br *Reader) Close() error {
	if br.closed {
		return nil
	}
	br.closed = true
	br.buf = nil
	return br.bg.Close()
}
