// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"io"
	"testing"

	"github.com/biostream/hts/sam"
)

func buildHeader(t *testing.T) *sam.Header {
	t.Helper()
	h, err := sam.ParseHeaderText("@HD\tVN:1.6\n@SQ\tSN:chr1\tLN:1000\n")
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func buildRecord(t *testing.T, name string) *sam.Record {
	t.Helper()
	r := sam.NewRecord()
	if err := r.SetName(name); err != nil {
		t.Fatal(err)
	}
	r.SetRefID(0)
	r.SetPos(42)
	r.SetMapQ(60)
	c, err := sam.ParseCigar("5M")
	if err != nil {
		t.Fatal(err)
	}
	r.SetCigar(c)
	if err := r.SetSequence("ACGTA", nil); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestWriterReaderRoundTrip(t *testing.T) {
	h := buildHeader(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, h)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	names := []string{"read1", "read2", "read3"}
	for _, n := range names {
		if err := w.Write(buildRecord(t, n)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := buf.Bytes()
	if len(got) < 28 {
		t.Fatal("output too short to contain EOF block")
	}
	tail := got[len(got)-28:]
	eof := []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00,
		0x00, 0xff, 0x06, 0x00, 0x42, 0x43, 0x02, 0x00,
		0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(tail, eof) {
		t.Errorf("stream does not end with canonical EOF block: % x", tail)
	}

	r, err := NewReader(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var readNames []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		readNames = append(readNames, rec.Name())
	}
	if len(readNames) != len(names) {
		t.Fatalf("got %d records, want %d", len(readNames), len(names))
	}
	for i, n := range names {
		if readNames[i] != n {
			t.Errorf("record %d name = %q, want %q", i, readNames[i], n)
		}
	}
}

func TestWriterOversizedRecordRoundTrip(t *testing.T) {
	h := buildHeader(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, h)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write(buildRecord(t, "before")); err != nil {
		t.Fatalf("Write before: %v", err)
	}
	big, err := sam.ParseCigar("1M")
	if err != nil {
		t.Fatal(err)
	}
	oversized := buildRecord(t, "huge")
	oversized.SetCigar(big)
	seq := bytes.Repeat([]byte{'A'}, 70000)
	if err := oversized.SetSequence(string(seq), nil); err != nil {
		t.Fatalf("SetSequence: %v", err)
	}
	if err := w.Write(oversized); err != nil {
		t.Fatalf("Write oversized: %v", err)
	}
	if err := w.Write(buildRecord(t, "after")); err != nil {
		t.Fatalf("Write after: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	var names []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		names = append(names, rec.Name())
	}
	want := []string{"before", "huge", "after"}
	if len(names) != len(want) {
		t.Fatalf("got %d records %v, want %v", len(names), names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("record %d name = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestWriterAfterClose(t *testing.T) {
	h := buildHeader(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(buildRecord(t, "late")); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
