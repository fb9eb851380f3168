// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"encoding/binary"
)

// descriptorSize is the size in bytes of the fixed BAM record descriptor,
// not including the leading block_size field.
const descriptorSize = 32

// Record is a single BAM alignment record, represented as its wire bytes:
// a 4-byte block_size field followed by the fixed descriptor and the
// variable read_name/cigar/seq/qual/tags sections. Every accessor reads
// directly from this buffer and every mutator rewrites it in place,
// keeping block_size consistent with the rest of the fields at all times.
//
// A Record constructed by RecordFromBytes aliases the slice it was given;
// call Clone to obtain an owned copy when that slice may be reused. The
// bam package's Reader.Read copies each record's bytes before wrapping
// them, so its records never alias the reader's buffers.
type Record struct {
	buf []byte
}

// NewRecord returns an empty, owned Record with ref_id, pos, next_ref_id,
// next_pos and tlen set to their "unset" values (-1, -1, -1, -1, 0) and no
// name, cigar, sequence or tags.
func NewRecord() *Record {
	buf := make([]byte, 4+descriptorSize+1) // +1 for the empty NUL-terminated name
	r := &Record{buf: buf}
	r.setInt32(4, -1)  // ref_id
	r.setInt32(8, -1)  // pos
	buf[12] = 1        // l_read_name (NUL only)
	r.setInt32(20, 0)  // l_seq
	r.setInt32(24, -1) // next_ref_id
	r.setInt32(28, -1) // next_pos
	r.setBlockSize()
	return r
}

// RecordFromBytes wraps b, a byte slice beginning with a 4-byte
// block_size field, as a Record without copying. b must outlive the
// returned Record if it is not cloned.
func RecordFromBytes(b []byte) (*Record, error) {
	if len(b) < 4+descriptorSize {
		return nil, ErrRecordTruncated
	}
	bs := int(int32(binary.LittleEndian.Uint32(b)))
	if bs < descriptorSize || 4+bs > len(b) {
		return nil, ErrRecordBadSize
	}
	r := &Record{buf: b[:4+bs]}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Clone returns an owned copy of r whose buffer does not alias any other
// Record or reader buffer.
func (r *Record) Clone() *Record {
	b := make([]byte, len(r.buf))
	copy(b, r.buf)
	return &Record{buf: b}
}

// Bytes returns r's wire bytes, beginning with block_size. The returned
// slice aliases r's internal buffer and must not be retained across a
// subsequent mutation.
func (r *Record) Bytes() []byte { return r.buf }

func (r *Record) setInt32(off int, v int32) { binary.LittleEndian.PutUint32(r.buf[off:], uint32(v)) }
func (r *Record) getInt32(off int) int32    { return int32(binary.LittleEndian.Uint32(r.buf[off:])) }
func (r *Record) setUint16(off int, v uint16) {
	binary.LittleEndian.PutUint16(r.buf[off:], v)
}
func (r *Record) getUint16(off int) uint16 { return binary.LittleEndian.Uint16(r.buf[off:]) }

// Field accessors. Offsets are relative to the start of buf, which begins
// with the block_size field, so the descriptor proper starts at byte 4.

func (r *Record) BlockSize() int32 { return r.getInt32(0) }
func (r *Record) RefID() int32     { return r.getInt32(4) }
func (r *Record) Pos() int32       { return r.getInt32(8) }
func (r *Record) lReadName() int   { return int(r.buf[12]) }
func (r *Record) MapQ() byte       { return r.buf[13] }
func (r *Record) Bin() uint16      { return r.getUint16(14) }
func (r *Record) nCigarOp() int    { return int(r.getUint16(16)) }
func (r *Record) Flag() Flags      { return Flags(r.getUint16(18)) }
func (r *Record) lSeq() int        { return int(r.getInt32(20)) }
func (r *Record) NextRefID() int32 { return r.getInt32(24) }
func (r *Record) NextPos() int32   { return r.getInt32(28) }
func (r *Record) TLen() int32      { return r.getInt32(32) }

func (r *Record) SetRefID(v int32)   { r.setInt32(4, v) }
func (r *Record) SetPos(v int32)     { r.setInt32(8, v) }
func (r *Record) SetMapQ(v byte)     { r.buf[13] = v }
func (r *Record) SetBin(v uint16)    { r.setUint16(14, v) }
func (r *Record) SetFlag(v Flags)    { r.setUint16(18, uint16(v)) }
func (r *Record) SetNextRefID(v int32) { r.setInt32(24, v) }
func (r *Record) SetNextPos(v int32)   { r.setInt32(28, v) }
func (r *Record) SetTLen(v int32)      { r.setInt32(32, v) }

// section offsets, relative to buf[4:] (i.e. the start of the descriptor).
const (
	offReadName = descriptorSize
)

func (r *Record) readNameOff() int { return 4 + offReadName }
func (r *Record) cigarOff() int    { return r.readNameOff() + r.lReadName() }
func (r *Record) seqOff() int     { return r.cigarOff() + 4*r.nCigarOp() }
func (r *Record) qualOff() int    { return r.seqOff() + (r.lSeq()+1)/2 }
func (r *Record) tagOff() int     { return r.qualOff() + r.lSeq() }

// Name returns the read name with its trailing NUL stripped.
func (r *Record) Name() string {
	n := r.lReadName()
	if n == 0 {
		return ""
	}
	b := r.buf[r.readNameOff() : r.readNameOff()+n]
	return string(b[:len(b)-1])
}

// Cigar returns a copy of the record's packed CIGAR operations; changing
// it does not change the record.
func (r *Record) Cigar() Cigar {
	off := r.cigarOff()
	n := r.nCigarOp()
	c, _ := CigarFromBytes(r.buf[off : off+4*n])
	return c
}

// Sequence returns the decoded IUPAC nucleotide string.
func (r *Record) Sequence() string {
	return UnpackSeq(r.buf[r.seqOff():r.qualOff()], r.lSeq())
}

// Quality returns the raw quality bytes, or nil if all bytes are 0xFF
// ("missing").
func (r *Record) Quality() []byte {
	q := r.buf[r.qualOff():r.tagOff()]
	missing := true
	for _, b := range q {
		if b != 0xff {
			missing = false
			break
		}
	}
	if missing && len(q) > 0 {
		return nil
	}
	return q
}

// Tags returns the raw tag stream bytes.
func (r *Record) Tags() []byte {
	return r.buf[r.tagOff():]
}

// GetTag returns the decoded value of the named tag.
func (r *Record) GetTag(name [2]byte) (Aux, error) {
	a, _, _, err := GetAux(r.Tags(), name)
	return a, err
}

func (r *Record) setBlockSize() {
	r.setInt32(0, int32(len(r.buf)-4))
}

// splice replaces buf[start:end] with repl, preserving everything else,
// and updates block_size.
func (r *Record) splice(start, end int, repl []byte) {
	tail := append([]byte(nil), r.buf[end:]...)
	r.buf = append(r.buf[:start], repl...)
	r.buf = append(r.buf, tail...)
	r.setBlockSize()
}

// SetName replaces the read name, including its trailing NUL.
func (r *Record) SetName(name string) error {
	if len(name)+1 > 255 {
		return ErrNameTooLong
	}
	nb := make([]byte, len(name)+1)
	copy(nb, name)
	start := r.readNameOff()
	end := start + r.lReadName()
	r.splice(start, end, nb)
	r.buf[12] = byte(len(nb))
	return nil
}

// SetCigar replaces the CIGAR operation sequence.
func (r *Record) SetCigar(c Cigar) {
	start := r.cigarOff()
	end := start + 4*r.nCigarOp()
	r.splice(start, end, c.Bytes())
	r.setUint16(16, uint16(len(c)))
}

// SetSequence replaces the sequence and, optionally, the quality string.
// If qual is nil, the quality section is filled with 0xFF ("missing").
// seq must consist only of IUPAC nucleotide characters.
func (r *Record) SetSequence(seq string, qual []byte) error {
	if qual != nil && len(qual) != len(seq) {
		return ErrQualLenMismatch
	}
	packed, err := PackSeq(seq)
	if err != nil {
		return err
	}
	q := make([]byte, len(seq))
	if qual == nil {
		for i := range q {
			q[i] = 0xff
		}
	} else {
		copy(q, qual)
	}

	seqStart := r.seqOff()
	newSection := append(append([]byte(nil), packed...), q...)
	r.splice(seqStart, r.tagOff(), newSection)
	r.setInt32(20, int32(len(seq)))
	return nil
}

// SetTag sets the named tag to an integer value, choosing the narrowest
// wire type from {c,C,s,S,i,I} unless typ is non-zero.
func (r *Record) SetTag(name [2]byte, v int64, typ byte) error {
	enc, err := EncodeIntAux(name, v, typ)
	if err != nil {
		return err
	}
	return r.replaceTag(name, enc)
}

// SetTagString sets the named tag to a Z-type text value.
func (r *Record) SetTagString(name [2]byte, s string) error {
	if !validTagName(name) {
		return ErrTagBadName
	}
	return r.replaceTag(name, EncodeStringAux(name, s))
}

// SetTagFloat sets the named tag to an f-type value.
func (r *Record) SetTagFloat(name [2]byte, v float32) error {
	if !validTagName(name) {
		return ErrTagBadName
	}
	return r.replaceTag(name, EncodeFloatAux(name, v))
}

// DeleteTag removes the named tag, if present.
func (r *Record) DeleteTag(name [2]byte) error {
	_, start, end, err := GetAux(r.Tags(), name)
	if err == ErrTagNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	base := r.tagOff()
	r.splice(base+start, base+end, nil)
	return nil
}

// replaceTag splices enc into the tag stream in place of any existing
// entry for the same name, or appends it.
func (r *Record) replaceTag(name [2]byte, enc []byte) error {
	base := r.tagOff()
	_, start, end, err := GetAux(r.Tags(), name)
	switch err {
	case nil:
		r.splice(base+start, base+end, enc)
	case ErrTagNotFound:
		r.splice(len(r.buf), len(r.buf), enc)
	default:
		return err
	}
	return nil
}

// validate checks that the record's section lengths are internally
// consistent with block_size, per the block-size invariant.
func (r *Record) validate() error {
	if len(r.buf) < 4+descriptorSize {
		return ErrRecordTruncated
	}
	lReadName := int(r.buf[12])
	nCigarOp := int(r.getUint16(16))
	lSeq := int(r.getInt32(20))
	if lSeq < 0 || nCigarOp < 0 {
		return ErrRecordBadSize
	}
	want := descriptorSize + lReadName + 4*nCigarOp + (lSeq+1)/2 + lSeq
	if want > len(r.buf)-4 {
		return ErrRecordTruncated
	}
	return nil
}

// Strand returns -1 for a record mapped to the reverse strand, 1
// otherwise.
func (r *Record) Strand() int {
	if r.Flag()&Reverse != 0 {
		return -1
	}
	return 1
}

// Start returns the 0-based position of the first aligned base, or -1 if
// unmapped.
func (r *Record) Start() int { return int(r.Pos()) }

// End returns the 0-based position one past the last reference base
// consumed by the record's CIGAR.
func (r *Record) End() int {
	return r.Start() + r.Cigar().Len()
}

// Len returns the number of bases in the record's sequence.
func (r *Record) Len() int { return r.lSeq() }
