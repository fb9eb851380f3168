// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// bamMagic is the 4-byte magic prefix of the BAM binary header frame.
var bamMagic = [4]byte{'B', 'A', 'M', 1}

// Reference describes one entry of a BAM header's reference sequence
// dictionary.
type Reference struct {
	Name   string
	LRef   int32
	id     int32
}

// ID returns the reference's 0-based index into its Header's reference
// list.
func (r *Reference) ID() int32 { return r.id }

// HeaderLine is a single parsed SAM text header record: its @XX type and
// its ordered tag/value pairs. @CO lines carry their free text in Text
// instead.
type HeaderLine struct {
	Type string
	Tags [][2]string
	Text string // only set for @CO
}

// Get returns the value of the named tag on the line, if present.
func (h HeaderLine) Get(tag string) (string, bool) {
	for _, kv := range h.Tags {
		if kv[0] == tag {
			return kv[1], true
		}
	}
	return "", false
}

// Header holds the parsed textual SAM header together with the binary
// reference dictionary that accompanies a BAM file.
type Header struct {
	Lines      []HeaderLine
	References []*Reference
}

// ParseHeaderText parses SAM header text into a Header. It does not
// resolve References; call it before or after decoding the binary
// reference dictionary as convenient.
func ParseHeaderText(text string) (*Header, error) {
	h := &Header{}
	lines := strings.Split(text, "\n")
	seenHD := false
	nonHDSeen := false
	for lineNo, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) == 0 || len(fields[0]) != 3 || fields[0][0] != '@' {
			return nil, &HeaderError{Line: lineNo, Err: ErrHeaderMalformed}
		}
		typ := fields[0][1:]
		hl := HeaderLine{Type: typ}
		if typ == "HD" {
			if nonHDSeen {
				return nil, &HeaderError{Line: lineNo, Err: ErrHeaderNotFirst}
			}
			seenHD = true
		} else {
			nonHDSeen = true
		}
		if typ == "CO" {
			hl.Text = strings.Join(fields[1:], "\t")
		} else {
			for _, f := range fields[1:] {
				kv := strings.SplitN(f, ":", 2)
				if len(kv) != 2 {
					return nil, &HeaderError{Line: lineNo, Err: ErrHeaderMalformed}
				}
				hl.Tags = append(hl.Tags, [2]string{kv[0], kv[1]})
			}
		}
		h.Lines = append(h.Lines, hl)
	}
	_ = seenHD
	if err := h.validateMandatoryTags(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) validateMandatoryTags() error {
	for i, l := range h.Lines {
		switch l.Type {
		case "HD":
			if _, ok := l.Get("VN"); !ok {
				return &HeaderError{Line: i, Err: ErrHeaderMissingTag}
			}
		case "SQ":
			if _, ok := l.Get("SN"); !ok {
				return &HeaderError{Line: i, Err: ErrHeaderMissingTag}
			}
			if _, ok := l.Get("LN"); !ok {
				return &HeaderError{Line: i, Err: ErrHeaderMissingTag}
			}
		case "RG":
			if _, ok := l.Get("ID"); !ok {
				return &HeaderError{Line: i, Err: ErrHeaderMissingTag}
			}
		case "PG":
			if _, ok := l.Get("ID"); !ok {
				return &HeaderError{Line: i, Err: ErrHeaderMissingTag}
			}
		case "CO":
		default:
			return &HeaderError{Line: i, Err: ErrHeaderUnknownType}
		}
	}
	return nil
}

// Text renders the header back to SAM text, emitting @HD first (if
// present), then @SQ, @RG, @PG, and finally @CO, matching the order
// required on write.
func (h *Header) Text() string {
	var order = []string{"HD", "SQ", "RG", "PG", "CO"}
	byType := map[string][]HeaderLine{}
	for _, l := range h.Lines {
		byType[l.Type] = append(byType[l.Type], l)
	}
	var b strings.Builder
	for _, t := range order {
		for _, l := range byType[t] {
			b.WriteString("@")
			b.WriteString(l.Type)
			if l.Type == "CO" {
				b.WriteString("\t")
				b.WriteString(l.Text)
			} else {
				for _, kv := range l.Tags {
					b.WriteString("\t")
					b.WriteString(kv[0])
					b.WriteString(":")
					b.WriteString(kv[1])
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DecodeHeader reads the BAM binary header frame from b: magic, SAM text,
// and the reference dictionary. It returns the decoded Header and the
// number of bytes consumed.
func DecodeHeader(b []byte) (*Header, int, error) {
	if len(b) < 8 {
		return nil, 0, ErrRecordTruncated
	}
	if !bytes.Equal(b[:4], bamMagic[:]) {
		return nil, 0, ErrHeaderMalformed
	}
	textLen := int(binary.LittleEndian.Uint32(b[4:8]))
	off := 8
	if off+textLen > len(b) {
		return nil, 0, ErrRecordTruncated
	}
	text := string(b[off : off+textLen])
	off += textLen

	h, err := ParseHeaderText(text)
	if err != nil {
		return nil, 0, err
	}

	if off+4 > len(b) {
		return nil, 0, ErrRecordTruncated
	}
	nRef := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	h.References = make([]*Reference, nRef)
	for i := 0; i < nRef; i++ {
		if off+4 > len(b) {
			return nil, 0, ErrRecordTruncated
		}
		nameLen := int(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
		if off+nameLen > len(b) {
			return nil, 0, ErrRecordTruncated
		}
		name := string(b[off : off+nameLen-1]) // strip trailing NUL
		off += nameLen
		if off+4 > len(b) {
			return nil, 0, ErrRecordTruncated
		}
		lRef := int32(binary.LittleEndian.Uint32(b[off : off+4]))
		off += 4
		h.References[i] = &Reference{Name: name, LRef: lRef, id: int32(i)}
	}
	return h, off, nil
}

// EncodeHeader serializes h into the BAM binary header frame.
func EncodeHeader(h *Header) []byte {
	text := h.Text()
	var buf bytes.Buffer
	buf.Write(bamMagic[:])
	writeU32(&buf, uint32(len(text)))
	buf.WriteString(text)
	writeU32(&buf, uint32(len(h.References)))
	for _, ref := range h.References {
		nameBytes := append([]byte(ref.Name), 0)
		writeU32(&buf, uint32(len(nameBytes)))
		buf.Write(nameBytes)
		writeU32(&buf, uint32(ref.LRef))
	}
	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
