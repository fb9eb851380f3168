// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import "testing"

func TestCigarRoundTrip(t *testing.T) {
	for _, s := range []string{"4M3X", "1M20I300D4M", "*", ""} {
		c, err := ParseCigar(s)
		if err != nil {
			t.Fatalf("ParseCigar(%q): %v", s, err)
		}
		got := c.String()
		want := s
		if want == "" {
			want = "*"
		}
		if got != want {
			t.Errorf("ParseCigar(%q).String() = %q, want %q", s, got, want)
		}
	}
}

func TestCigarPackedForm(t *testing.T) {
	c, err := ParseCigar("1M20I300D4000N50000S600000H7000000P80000000=268435435X9B")
	if err != nil {
		t.Fatalf("ParseCigar: %v", err)
	}
	wantOps := []CigarOp{
		CigarMatch, CigarInsertion, CigarDeletion, CigarSkipped,
		CigarSoftClipped, CigarHardClipped, CigarPadded, CigarEqual,
		CigarMismatch, CigarBack,
	}
	wantLens := []uint32{1, 20, 300, 4000, 50000, 600000, 7000000, 80000000, 268435435, 9}
	if len(c) != len(wantOps) {
		t.Fatalf("got %d ops, want %d", len(c), len(wantOps))
	}
	for i, v := range c {
		if Op(v) != wantOps[i] {
			t.Errorf("op %d: got %v want %v", i, Op(v), wantOps[i])
		}
		if OpLength(v) != wantLens[i] {
			t.Errorf("op %d: got length %d want %d", i, OpLength(v), wantLens[i])
		}
	}
	if got := c.String(); got != "1M20I300D4000N50000S600000H7000000P80000000=268435435X9B" {
		t.Errorf("String() = %q", got)
	}
}

func TestCigarBadOp(t *testing.T) {
	if _, err := ParseCigar("4Q"); err == nil {
		t.Fatal("expected error for unrecognized op")
	}
}

func TestCigarFromBytes(t *testing.T) {
	c, _ := ParseCigar("4M3X")
	b := c.Bytes()
	c2, err := CigarFromBytes(b)
	if err != nil {
		t.Fatalf("CigarFromBytes: %v", err)
	}
	if !c.Equal(c2) {
		t.Errorf("round trip mismatch: %v != %v", c, c2)
	}
	if _, err := CigarFromBytes(b[:3]); err != ErrCigarBadBuffer {
		t.Errorf("expected ErrCigarBadBuffer, got %v", err)
	}
}
