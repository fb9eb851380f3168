// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import "testing"

func TestAuxWalkSingle(t *testing.T) {
	b := EncodeStringAux([2]byte{'R', 'G'}, "MySample")
	var got []Aux
	err := WalkAux(b, func(a Aux, start, end int) error {
		got = append(got, a)
		return nil
	})
	if err != nil {
		t.Fatalf("WalkAux: %v", err)
	}
	if len(got) != 1 || got[0].Str != "MySample" {
		t.Fatalf("got %+v", got)
	}
}

func TestAuxIntAutoType(t *testing.T) {
	cases := []struct {
		v    int64
		want byte
	}{
		{0, 'C'},
		{255, 'C'},
		{-1, 'c'},
		{256, 'S'},
		{-200, 's'},
		{70000, 'I'},
		{-70000, 'i'},
	}
	for _, c := range cases {
		enc, err := EncodeIntAux([2]byte{'X', 'X'}, c.v, 0)
		if err != nil {
			t.Fatalf("EncodeIntAux(%d): %v", c.v, err)
		}
		if enc[2] != c.want {
			t.Errorf("EncodeIntAux(%d): type = %c, want %c", c.v, enc[2], c.want)
		}
		a, _, _, err := GetAux(enc, [2]byte{'X', 'X'})
		if err != nil {
			t.Fatalf("GetAux: %v", err)
		}
		if a.Int != c.v {
			t.Errorf("round trip: got %d, want %d", a.Int, c.v)
		}
	}
}

func TestAuxArray(t *testing.T) {
	enc, err := EncodeIntArrayAux([2]byte{'X', 'A'}, 'i', []int64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	a, _, _, err := GetAux(enc, [2]byte{'X', 'A'})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.IntArray) != 3 || a.IntArray[0] != 1 || a.IntArray[2] != 3 {
		t.Errorf("got %v", a.IntArray)
	}
}

func TestAuxNotFound(t *testing.T) {
	b := EncodeStringAux([2]byte{'R', 'G'}, "x")
	_, _, _, err := GetAux(b, [2]byte{'Z', 'Z'})
	if err != ErrTagNotFound {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
}

func TestAuxTruncated(t *testing.T) {
	b := []byte{'R', 'G', 'i', 0, 0} // missing 2 bytes of i32 payload
	err := WalkAux(b, func(a Aux, start, end int) error { return nil })
	if err != ErrTagTruncated {
		t.Errorf("expected ErrTagTruncated, got %v", err)
	}
}

func TestEncodeRejectsBadTagName(t *testing.T) {
	bad := [2]byte{'X', '!'} // '!' is not an ASCII alphanumeric
	if _, err := EncodeIntAux(bad, 1, 0); err != ErrTagBadName {
		t.Errorf("EncodeIntAux: got %v, want ErrTagBadName", err)
	}
	if _, err := EncodeHexAux(bad, "ab"); err != ErrTagBadName {
		t.Errorf("EncodeHexAux: got %v, want ErrTagBadName", err)
	}
	if _, err := EncodeIntArrayAux(bad, 'i', []int64{1}); err != ErrTagBadName {
		t.Errorf("EncodeIntArrayAux: got %v, want ErrTagBadName", err)
	}
}
