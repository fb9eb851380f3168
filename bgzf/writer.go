// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// DefaultCompression is the compression level used by NewWriter, matching
// the Python original's BGZFWriter default of 1 (fast, not maximal).
const DefaultCompression = 1

// NoCompression writes BGZF blocks whose DEFLATE payload is an inline
// stored (uncompressed) block, per spec §4.1 step 5 / the "Level 0 quirk"
// in spec §9.
const NoCompression = 0

// BestCompression is the maximum DEFLATE compression level BGZF supports.
const BestCompression = 9

// Writer buffers uncompressed bytes and emits them as a sequence of BGZF
// blocks. A Writer is not safe for concurrent use.
type Writer struct {
	w     io.Writer
	level int

	buf    []byte // pending uncompressed bytes, < BlockSize
	coffs  int64  // bytes written to the underlying writer so far
	closed bool

	compressed bytes.Buffer
}

// NewWriter returns a Writer using DefaultCompression.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterLevel(w, DefaultCompression)
}

// NewWriterLevel returns a Writer using the given compression level (0-9).
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if level < NoCompression || level > BestCompression {
		return nil, ErrInvalidLevel
	}
	return &Writer{w: w, level: level, buf: make([]byte, 0, BlockSize)}, nil
}

// Write appends p to the writer's buffer, flushing complete blocks as
// necessary. It never fails to consume all of p (aside from a write error).
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	total := len(p)
	for len(p) > 0 {
		room := BlockSize - len(w.buf)
		n := room
		if n > len(p) {
			n = len(p)
		}
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		if len(w.buf) == BlockSize {
			if err := w.flushBuffer(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

// Flush writes any buffered bytes out as a single block, even if that block
// is smaller than BlockSize.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.flushBuffer()
}

func (w *Writer) flushBuffer() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.WriteBlock(w.buf)
	w.buf = w.buf[:0]
	return err
}

// WriteBlock writes data immediately as a single BGZF block. len(data) must
// not exceed BlockSize.
func (w *Writer) WriteBlock(data []byte) error {
	if w.closed {
		return ErrClosed
	}
	if len(data) > BlockSize {
		return ErrBlockTooLarge
	}
	body, err := w.deflate(data)
	if err != nil {
		return err
	}
	bsize := len(body) + 25
	if bsize > 0xffff {
		return ErrBlockTooLarge
	}

	n, err := w.w.Write(baseHeader[:])
	w.coffs += int64(n)
	if err != nil {
		return err
	}
	var u16 [2]byte
	u16[0] = byte(bsize)
	u16[1] = byte(bsize >> 8)
	n, err = w.w.Write(u16[:])
	w.coffs += int64(n)
	if err != nil {
		return err
	}
	n, err = w.w.Write(body)
	w.coffs += int64(n)
	if err != nil {
		return err
	}

	var trailer [8]byte
	crc := crc32.ChecksumIEEE(data)
	putLE32(trailer[0:4], crc)
	putLE32(trailer[4:8], uint32(len(data)))
	n, err = w.w.Write(trailer[:])
	w.coffs += int64(n)
	return err
}

// deflate compresses data at the writer's configured level, returning the
// bytes to place between the BSIZE field and the trailer.
func (w *Writer) deflate(data []byte) ([]byte, error) {
	if w.level == NoCompression {
		// The Python original never calls into zlib/isal for level 0;
		// it hand-assembles the 5-byte stored-block header instead, so
		// we do the same rather than trust a backend's level-0 path.
		body := make([]byte, 0, 5+len(data))
		body = append(body, 0x01) // BFINAL=1, BTYPE=00 (stored)
		var lenBuf [4]byte
		length := uint16(len(data))
		lenBuf[0] = byte(length)
		lenBuf[1] = byte(length >> 8)
		inv := ^length
		lenBuf[2] = byte(inv)
		lenBuf[3] = byte(inv >> 8)
		body = append(body, lenBuf[:]...)
		body = append(body, data...)
		return body, nil
	}
	w.compressed.Reset()
	fw, err := flate.NewWriter(&w.compressed, w.level)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return w.compressed.Bytes(), nil
}

// VOffset returns the virtual offset of the next byte Write will place,
// i.e. the offset the next record (if any) begins at.
func (w *Writer) VOffset() VirtualOffset {
	return PackVirtualOffset(w.coffs, uint16(len(w.buf)))
}

// Close flushes any pending bytes, writes the terminal EOF block, and
// closes the underlying writer if it implements io.Closer. A second call
// to Close is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if err := w.flushBuffer(); err != nil {
		w.closed = true
		return err
	}
	_, err := w.w.Write(eofBlock[:])
	w.closed = true
	if err != nil {
		return err
	}
	if c, ok := w.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
