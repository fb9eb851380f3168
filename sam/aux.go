// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// Errors returned while walking or editing a record's tag stream.
var (
	ErrTagTruncated    = errors.New("sam: truncated tag stream")
	ErrTagUnknownType  = errors.New("sam: unknown tag type")
	ErrTagBadName      = errors.New("sam: non-ASCII or malformed tag name")
	ErrTagBadArrayLen  = errors.New("sam: array buffer length not a multiple of subtype size")
	ErrTagValueRange   = errors.New("sam: value out of range for declared type")
	ErrTagNotFound     = errors.New("sam: tag not present")
)

// AuxKind identifies the dynamically typed kind of value an Aux tag
// carries, independent of its exact wire type.
type AuxKind int

const (
	AuxInt AuxKind = iota
	AuxFloat
	AuxString
	AuxBytes
	AuxArray
)

// Aux is a single decoded auxiliary tag: a two-character name, a one-byte
// wire type, and its value as a tagged variant.
type Aux struct {
	Tag  [2]byte
	Type byte // one of AcCsSiIfZHB

	Kind     AuxKind
	Int      int64
	Float    float64
	Str      string
	Bytes    []byte
	SubType  byte    // meaningful when Type == 'B'
	IntArray []int64 // meaningful when Type == 'B' and SubType is integral
	FltArray []float32
}

// wireSize returns the fixed payload size in bytes for primitive aux
// types, or -1 for variable-length types (Z, H, B).
func wireSize(t byte) int {
	switch t {
	case 'A', 'c', 'C':
		return 1
	case 's', 'S':
		return 2
	case 'i', 'I', 'f':
		return 4
	default:
		return -1
	}
}

func subTypeSize(t byte) int {
	switch t {
	case 'c', 'C':
		return 1
	case 's', 'S':
		return 2
	case 'i', 'I', 'f':
		return 4
	default:
		return -1
	}
}

// WalkAux calls fn for every tag entry found in b, in stream order, passing
// the entry's byte range [start, end) within b. It stops at the first
// error returned by fn, or when the stream is exhausted or malformed.
func WalkAux(b []byte, fn func(a Aux, start, end int) error) error {
	i := 0
	for i < len(b) {
		start := i
		if i+3 > len(b) {
			return ErrTagTruncated
		}
		var a Aux
		a.Tag[0], a.Tag[1] = b[i], b[i+1]
		a.Type = b[i+2]
		i += 3

		switch a.Type {
		case 'A':
			if i+1 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxBytes
			a.Bytes = b[i : i+1]
			i++
		case 'c':
			if i+1 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(int8(b[i]))
			i++
		case 'C':
			if i+1 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(b[i])
			i++
		case 's':
			if i+2 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(int16(binary.LittleEndian.Uint16(b[i : i+2])))
			i += 2
		case 'S':
			if i+2 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(binary.LittleEndian.Uint16(b[i : i+2]))
			i += 2
		case 'i':
			if i+4 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(int32(binary.LittleEndian.Uint32(b[i : i+4])))
			i += 4
		case 'I':
			if i+4 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxInt
			a.Int = int64(binary.LittleEndian.Uint32(b[i : i+4]))
			i += 4
		case 'f':
			if i+4 > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxFloat
			a.Float = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i : i+4])))
			i += 4
		case 'Z':
			nul := bytes.IndexByte(b[i:], 0)
			if nul < 0 {
				return ErrTagTruncated
			}
			a.Kind = AuxString
			a.Str = string(b[i : i+nul])
			i += nul + 1
		case 'H':
			nul := bytes.IndexByte(b[i:], 0)
			if nul < 0 {
				return ErrTagTruncated
			}
			if nul%2 != 0 {
				return ErrTagValueRange
			}
			a.Kind = AuxBytes
			a.Bytes = b[i : i+nul]
			i += nul + 1
		case 'B':
			if i+5 > len(b) {
				return ErrTagTruncated
			}
			a.SubType = b[i]
			sz := subTypeSize(a.SubType)
			if sz < 0 {
				return ErrTagUnknownType
			}
			count := binary.LittleEndian.Uint32(b[i+1 : i+5])
			i += 5
			need := int(count) * sz
			if need < 0 || i+need > len(b) {
				return ErrTagTruncated
			}
			a.Kind = AuxArray
			if a.SubType == 'f' {
				a.FltArray = make([]float32, count)
				for k := 0; k < int(count); k++ {
					off := i + k*sz
					a.FltArray[k] = math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
				}
			} else {
				a.IntArray = make([]int64, count)
				for k := 0; k < int(count); k++ {
					off := i + k*sz
					a.IntArray[k] = decodeIntSub(a.SubType, b[off:off+sz])
				}
			}
			i += need
		default:
			return ErrTagUnknownType
		}
		if err := fn(a, start, i); err != nil {
			return err
		}
	}
	return nil
}

func decodeIntSub(t byte, b []byte) int64 {
	switch t {
	case 'c':
		return int64(int8(b[0]))
	case 'C':
		return int64(b[0])
	case 's':
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 'S':
		return int64(binary.LittleEndian.Uint16(b))
	case 'i':
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case 'I':
		return int64(binary.LittleEndian.Uint32(b))
	}
	return 0
}

// GetAux scans b for a tag named name, returning its decoded value and the
// byte range it occupies, or ErrTagNotFound.
func GetAux(b []byte, name [2]byte) (Aux, int, int, error) {
	var found Aux
	var fs, fe int
	err := WalkAux(b, func(a Aux, start, end int) error {
		if a.Tag == name {
			found, fs, fe = a, start, end
			return errStopWalk
		}
		return nil
	})
	if err == errStopWalk {
		return found, fs, fe, nil
	}
	if err != nil {
		return Aux{}, 0, 0, err
	}
	return Aux{}, 0, 0, ErrTagNotFound
}

var errStopWalk = errors.New("sam: internal stop")

// EncodeIntAux encodes an integer tag value, inferring the narrowest wire
// type from {c,C,s,S,i,I} that represents v, preferring unsigned types for
// non-negative values, unless explicitType is non-zero.
func EncodeIntAux(name [2]byte, v int64, explicitType byte) ([]byte, error) {
	if !validTagName(name) {
		return nil, ErrTagBadName
	}
	t := explicitType
	if t == 0 {
		t = inferIntType(v)
	}
	sz := wireSize(t)
	if sz < 0 {
		return nil, ErrTagUnknownType
	}
	if !intFits(t, v) {
		return nil, ErrTagValueRange
	}
	out := make([]byte, 3+sz)
	out[0], out[1], out[2] = name[0], name[1], t
	putIntSub(t, out[3:], v)
	return out, nil
}

func inferIntType(v int64) byte {
	switch {
	case v >= 0 && v <= 0xff:
		return 'C'
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return 'c'
	case v >= 0 && v <= 0xffff:
		return 'S'
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return 's'
	case v >= 0 && v <= 0xffffffff:
		return 'I'
	default:
		return 'i'
	}
}

func intFits(t byte, v int64) bool {
	switch t {
	case 'c':
		return v >= math.MinInt8 && v <= math.MaxInt8
	case 'C':
		return v >= 0 && v <= 0xff
	case 's':
		return v >= math.MinInt16 && v <= math.MaxInt16
	case 'S':
		return v >= 0 && v <= 0xffff
	case 'i':
		return v >= math.MinInt32 && v <= math.MaxInt32
	case 'I':
		return v >= 0 && v <= 0xffffffff
	}
	return false
}

func putIntSub(t byte, b []byte, v int64) {
	switch t {
	case 'c', 'C':
		b[0] = byte(v)
	case 's', 'S':
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 'i', 'I':
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

// EncodeFloatAux encodes a float tag.
func EncodeFloatAux(name [2]byte, v float32) []byte {
	out := make([]byte, 7)
	out[0], out[1], out[2] = name[0], name[1], 'f'
	binary.LittleEndian.PutUint32(out[3:], math.Float32bits(v))
	return out
}

// EncodeStringAux encodes a NUL-terminated text tag.
func EncodeStringAux(name [2]byte, s string) []byte {
	out := make([]byte, 0, 4+len(s))
	out = append(out, name[0], name[1], 'Z')
	out = append(out, s...)
	out = append(out, 0)
	return out
}

// EncodeHexAux encodes an H-type tag from an even-length hex digit string.
func EncodeHexAux(name [2]byte, hex string) ([]byte, error) {
	if !validTagName(name) {
		return nil, ErrTagBadName
	}
	if len(hex)%2 != 0 {
		return nil, ErrTagValueRange
	}
	out := make([]byte, 0, 4+len(hex))
	out = append(out, name[0], name[1], 'H')
	out = append(out, hex...)
	out = append(out, 0)
	return out, nil
}

// EncodeIntArrayAux encodes a B-type tag carrying an integer array with the
// given subtype.
func EncodeIntArrayAux(name [2]byte, subtype byte, vals []int64) ([]byte, error) {
	if !validTagName(name) {
		return nil, ErrTagBadName
	}
	sz := subTypeSize(subtype)
	if sz < 0 || subtype == 'f' {
		return nil, ErrTagUnknownType
	}
	out := make([]byte, 8, 8+len(vals)*sz)
	out[0], out[1], out[2] = name[0], name[1], 'B'
	out[3] = subtype
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(vals)))
	for _, v := range vals {
		if !intFits(subtype, v) {
			return nil, ErrTagValueRange
		}
		b := make([]byte, sz)
		putIntSub(subtype, b, v)
		out = append(out, b...)
	}
	return out, nil
}

// EncodeFloatArrayAux encodes a B-type tag carrying a float array.
func EncodeFloatArrayAux(name [2]byte, vals []float32) []byte {
	out := make([]byte, 8, 8+len(vals)*4)
	out[0], out[1], out[2] = name[0], name[1], 'B'
	out[3] = 'f'
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(vals)))
	for _, v := range vals {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		out = append(out, b[:]...)
	}
	return out
}

// validTagName reports whether name is a well-formed two-character ASCII
// tag name.
func validTagName(name [2]byte) bool {
	isAlnum := func(c byte) bool {
		return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	return isAlnum(name[0]) && isAlnum(name[1])
}
