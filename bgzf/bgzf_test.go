// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestVirtualOffsetRoundTrip(t *testing.T) {
	cases := []struct {
		coffset int64
		uoffset uint16
	}{
		{0, 0},
		{1, 0},
		{0, 1},
		{1<<48 - 1, 1<<16 - 1},
		{12345, 6789},
	}
	for _, c := range cases {
		vo := PackVirtualOffset(c.coffset, c.uoffset)
		if vo.Coffset() != c.coffset || vo.Uoffset() != c.uoffset {
			t.Errorf("PackVirtualOffset(%d, %d) round trip = (%d, %d)",
				c.coffset, c.uoffset, vo.Coffset(), vo.Uoffset())
		}
		var b [8]byte
		PutVirtualOffset(b[:], vo)
		if got := ParseVirtualOffset(b[:]); got != vo {
			t.Errorf("ParseVirtualOffset(PutVirtualOffset(%v)) = %v", vo, got)
		}
	}
}

func TestEOFBlockIsCanonical(t *testing.T) {
	want := []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
		0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
		0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	if got := EOFBlock(); !bytes.Equal(got, want) {
		t.Errorf("EOFBlock() = % x, want % x", got, want)
	}
}

func roundTrip(t *testing.T, data []byte, level int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriterLevel(&buf, level)
	if err != nil {
		t.Fatalf("NewWriterLevel(%d): %v", level, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	encoded := buf.Bytes()
	tail := encoded[len(encoded)-28:]
	if !bytes.Equal(tail, eofBlock[:]) {
		t.Fatalf("level %d: stream does not end with canonical EOF block", level)
	}

	r, err := NewReader(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("level %d: ReadAll: %v", level, err)
	}
	return got
}

func TestRoundTripAllLevels(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 4000)
	for level := NoCompression; level <= BestCompression; level++ {
		got := roundTrip(t, payload, level)
		if !bytes.Equal(got, payload) {
			t.Errorf("level %d: round trip mismatch, got %d bytes want %d", level, len(got), len(payload))
		}
	}
}

func TestRoundTripEmpty(t *testing.T) {
	got := roundTrip(t, nil, DefaultCompression)
	if len(got) != 0 {
		t.Errorf("round trip of empty input produced %d bytes", len(got))
	}
}

func TestRoundTripAcrossBlockBoundary(t *testing.T) {
	// Large enough to span several BlockSize-sized BGZF blocks.
	payload := make([]byte, BlockSize*3+123)
	for i := range payload {
		payload[i] = byte(i)
	}
	got := roundTrip(t, payload, DefaultCompression)
	if !bytes.Equal(got, payload) {
		t.Fatal("multi-block round trip mismatch")
	}
}

func TestNewWriterLevelRejectsOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWriterLevel(&buf, -1); err != ErrInvalidLevel {
		t.Errorf("level -1: got %v, want ErrInvalidLevel", err)
	}
	if _, err := NewWriterLevel(&buf, 10); err != ErrInvalidLevel {
		t.Errorf("level 10: got %v, want ErrInvalidLevel", err)
	}
}

func TestWriteBlockTooLarge(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBlock(make([]byte, BlockSize+1)); err != ErrBlockTooLarge {
		t.Errorf("expected ErrBlockTooLarge, got %v", err)
	}
}

func TestReaderRejectsBadMagic(t *testing.T) {
	bad := append([]byte{0x00, 0x00}, EOFBlock()...)
	r, err := NewReader(bytes.NewReader(bad))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	_, err = io.ReadAll(r)
	fe, ok := err.(*FormatError)
	if !ok {
		t.Fatalf("expected *FormatError, got %T (%v)", err, err)
	}
	if fe.Unwrap() != ErrBadMagic {
		t.Errorf("got %v, want ErrBadMagic", fe.Unwrap())
	}
}

func TestReaderDetectsTruncation(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.Write([]byte("hello, bgzf"))
	w.Close()

	truncated := buf.Bytes()[:buf.Len()-28] // drop the EOF block
	r, err := NewReader(bytes.NewReader(truncated))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	_, err = io.ReadAll(r)
	if err == nil {
		t.Fatal("expected an error for a stream missing its EOF block")
	}
	if _, ok := err.(*TruncationError); !ok {
		t.Fatalf("expected *TruncationError, got %T (%v)", err, err)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("errors.Is(err, ErrTruncated) = false, want true")
	}
}

func TestReaderSkipsEmptyIntermediateBlocks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBlock(nil); err != nil {
		t.Fatalf("WriteBlock(nil): %v", err)
	}
	if _, err := w.Write([]byte("payload after an empty block")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload after an empty block" {
		t.Errorf("got %q", got)
	}
}

func TestReadUntilNextBlock(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	w.WriteBlock([]byte("block one"))
	w.WriteBlock([]byte("block two"))
	w.Close()

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	first, err := r.ReadUntilNextBlock()
	if err != nil {
		t.Fatalf("first ReadUntilNextBlock: %v", err)
	}
	if string(first) != "block one" {
		t.Errorf("first block = %q", first)
	}
	second, err := r.ReadUntilNextBlock()
	if err != nil {
		t.Fatalf("second ReadUntilNextBlock: %v", err)
	}
	if string(second) != "block two" {
		t.Errorf("second block = %q", second)
	}
}

func TestWriterOffsetAdvances(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	start := w.VOffset()
	if start.Coffset() != 0 || start.Uoffset() != 0 {
		t.Fatalf("initial VOffset = %v, want (0,0)", start)
	}
	if err := w.WriteBlock([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	after := w.VOffset()
	if after.Coffset() == 0 {
		t.Error("VOffset.Coffset() did not advance after WriteBlock")
	}
	if after.Uoffset() != 0 {
		t.Errorf("VOffset.Uoffset() = %d, want 0 immediately after WriteBlock", after.Uoffset())
	}
}
