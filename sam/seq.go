// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

// iupacTable maps a 4-bit nibble to its IUPAC nucleotide base.
const iupacTable = "=ACMGRSVTWYHKDBN"

// seqToNibble maps an IUPAC nucleotide base byte to its 4-bit nibble. -1
// marks bytes that are not valid IUPAC bases.
var seqToNibble [256]int8

func init() {
	for i := range seqToNibble {
		seqToNibble[i] = -1
	}
	for i := 0; i < len(iupacTable); i++ {
		seqToNibble[iupacTable[i]] = int8(i)
	}
}

// PackSeq encodes an IUPAC nucleotide string into its 4-bit nibble-packed
// wire form, high nibble first. It returns an error naming the first
// character outside the IUPAC alphabet.
func PackSeq(seq string) ([]byte, error) {
	out := make([]byte, (len(seq)+1)/2)
	for i := 0; i < len(seq); i++ {
		n := seqToNibble[seq[i]]
		if n < 0 {
			return nil, &SeqCharError{Char: seq[i]}
		}
		if i&1 == 0 {
			out[i/2] = byte(n) << 4
		} else {
			out[i/2] |= byte(n)
		}
	}
	return out, nil
}

// UnpackSeq decodes n bases from a nibble-packed buffer.
func UnpackSeq(b []byte, n int) string {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var nib byte
		if i&1 == 0 {
			nib = b[i/2] >> 4
		} else {
			nib = b[i/2] & 0xf
		}
		out[i] = iupacTable[nib]
	}
	return string(out)
}

// SeqCharError records an input byte that is not part of the IUPAC
// nucleotide alphabet.
type SeqCharError struct {
	Char byte
}

func (e *SeqCharError) Error() string {
	return "Not a IUPAC character: " + string(e.Char)
}
