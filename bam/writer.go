// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"io"

	"github.com/biostream/hts/bgzf"
	"github.com/biostream/hts/sam"
)

// Writer implements BAM record writing: it emits the binary header frame
// once, then accepts records, coalescing them into BGZF blocks via a
// bounded buffering helper and bypassing that buffer for any record too
// large to fit in a single block.
type Writer struct {
	bg     *bgzf.Writer
	closed bool

	// block is the pending, not-yet-flushed block payload; it never
	// exceeds bgzf.BlockSize.
	block []byte
}

// NewWriter returns a Writer using bgzf.DefaultCompression.
func NewWriter(w io.Writer, h *sam.Header) (*Writer, error) {
	return NewWriterLevel(w, h, bgzf.DefaultCompression)
}

// NewWriterLevel returns a Writer using the given compression level,
// writing h's binary header frame immediately.
func NewWriterLevel(w io.Writer, h *sam.Header, level int) (*Writer, error) {
	bg, err := bgzf.NewWriterLevel(w, level)
	if err != nil {
		return nil, err
	}
	bw := &Writer{bg: bg, block: make([]byte, 0, bgzf.BlockSize)}
	if _, err := bg.Write(sam.EncodeHeader(h)); err != nil {
		return nil, err
	}
	// Flush now so the header occupies its own block(s) ahead of any
	// record written through WriteBlock, which bypasses bg's buffer.
	if err := bg.Flush(); err != nil {
		return nil, err
	}
	return bw, nil
}

// Write appends rec's wire bytes to the output stream, coalescing
// consecutive records into BGZF blocks where they fit and falling back to
// writing an oversized record directly, spanning as many blocks as
// necessary.
func (bw *Writer) Write(rec *sam.Record) error {
	if bw.closed {
		return ErrClosed
	}
	b := rec.Bytes()
	if len(b) > bgzf.BlockSize {
		return bw.writeOversized(b)
	}
	if len(bw.block)+len(b) > bgzf.BlockSize {
		if err := bw.flushBlock(); err != nil {
			return err
		}
	}
	bw.block = append(bw.block, b...)
	if len(bw.block) == bgzf.BlockSize {
		return bw.flushBlock()
	}
	return nil
}

// flushBlock emits the pending block payload as a single BGZF block, if
// non-empty.
func (bw *Writer) flushBlock() error {
	if len(bw.block) == 0 {
		return nil
	}
	err := bw.bg.WriteBlock(bw.block)
	bw.block = bw.block[:0]
	return err
}

// writeOversized flushes any pending buffered bytes, then writes b
// directly through the BGZF writer's own fragmenting Write, since it does
// not fit in a single block. It flushes bg's buffer again afterward so a
// later WriteBlock call, which bypasses that buffer, cannot overtake any
// trailing partial block left behind by Write.
func (bw *Writer) writeOversized(b []byte) error {
	if err := bw.flushBlock(); err != nil {
		return err
	}
	if _, err := bw.bg.Write(b); err != nil {
		return err
	}
	return bw.bg.Flush()
}

// Flush flushes any buffered record bytes as a single BGZF block, even if
// it is smaller than bgzf.BlockSize.
func (bw *Writer) Flush() error {
	if bw.closed {
		return ErrClosed
	}
	return bw.flushBlock()
}

// Close flushes any pending bytes, writes the terminal BGZF EOF block,
// and closes the underlying sink. A second call to Close is a no-op.
func (bw *Writer) Close() error {
	if bw.closed {
		return nil
	}
	err := bw.flushBlock()
	bw.closed = true
	if err != nil {
		bw.bg.Close()
		return err
	}
	return bw.bg.Close()
}
