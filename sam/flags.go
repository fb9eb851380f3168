// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

// Flags represent the SAM/BAM record flag bitfield.
type Flags uint16

const (
	Paired        Flags = 1 << iota // The read is paired in sequencing.
	ProperPair                      // The read is mapped in a proper pair.
	Unmapped                        // The read is unmapped.
	MateUnmapped                    // The mate is unmapped.
	Reverse                         // The read is mapped to the reverse strand.
	MateReverse                     // The mate is mapped to the reverse strand.
	Read1                           // This is read1.
	Read2                           // This is read2.
	Secondary                      // This is a secondary alignment.
	QCFail                          // The read fails platform/vendor quality checks.
	Duplicate                       // The read is a PCR/optical duplicate.
	Supplementary                   // This is a supplementary alignment.
)

// String renders the set flags as a comma-separated list of names, e.g.
// "paired,proper_pair", or "0x0" when no flag is set.
func (f Flags) String() string {
	if f == 0 {
		return "0x0"
	}
	names := [...]string{
		"paired", "proper_pair", "unmapped", "mate_unmapped",
		"reverse", "mate_reverse", "read1", "read2",
		"secondary", "qc_fail", "duplicate", "supplementary",
	}
	var b []byte
	for i, n := range names {
		if f&(1<<uint(i)) != 0 {
			if len(b) > 0 {
				b = append(b, ',')
			}
			b = append(b, n...)
		}
	}
	return string(b)
}
