// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

const testHeaderText = "@HD\tVN:1.6\tSO:coordinate\n@SQ\tSN:chr1\tLN:249250621\n@RG\tID:rg1\tSM:sample1\n@PG\tID:pg1\tPN:tool\n@CO\tfree text comment\n"

func (s *S) TestParseHeaderText(c *check.C) {
	h, err := ParseHeaderText(testHeaderText)
	c.Assert(err, check.IsNil)
	c.Check(h.Lines, check.HasLen, 5)
	c.Check(h.Lines[0].Type, check.Equals, "HD")
	v, ok := h.Lines[1].Get("SN")
	c.Check(ok, check.Equals, true)
	c.Check(v, check.Equals, "chr1")
}

var headerErrorTests = []struct {
	text string
	desc string
}{
	{"@SQ\tLN:100\n", "missing SQ.SN"},
	{"@SQ\tSN:chr1\tLN:1\n@HD\tVN:1.6\n", "@HD not first"},
	{"@XX\tID:1\n", "unknown record type"},
	{"@HD VN:1.6\n", "no tab after record type"},
}

func (s *S) TestHeaderErrors(c *check.C) {
	for _, test := range headerErrorTests {
		_, err := ParseHeaderText(test.text)
		c.Check(err, check.NotNil, check.Commentf("case: %s", test.desc))
	}
}

func (s *S) TestHeaderBinaryRoundTrip(c *check.C) {
	h, err := ParseHeaderText(testHeaderText)
	c.Assert(err, check.IsNil)
	h.References = []*Reference{{Name: "chr1", LRef: 249250621, id: 0}}

	b := EncodeHeader(h)
	h2, n, err := DecodeHeader(b)
	c.Assert(err, check.IsNil)
	c.Check(n, check.Equals, len(b))
	c.Assert(h2.References, check.HasLen, 1)
	c.Check(h2.References[0].Name, check.Equals, "chr1")
	c.Check(h2.References[0].LRef, check.Equals, int32(249250621))
}

func (s *S) TestHeaderTextEmitOrder(c *check.C) {
	// Text() must reorder regardless of the Lines slice's own order, even
	// though ParseHeaderText itself always enforces @HD-first on input.
	h := &Header{Lines: []HeaderLine{
		{Type: "PG", Tags: [][2]string{{"ID", "pg1"}}},
		{Type: "CO", Text: "comment"},
		{Type: "HD", Tags: [][2]string{{"VN", "1.6"}}},
		{Type: "SQ", Tags: [][2]string{{"SN", "chr1"}, {"LN", "1"}}},
		{Type: "RG", Tags: [][2]string{{"ID", "rg1"}}},
	}}
	out := h.Text()
	c.Check(out, check.Equals, "@HD\tVN:1.6\n@SQ\tSN:chr1\tLN:1\n@RG\tID:rg1\n@PG\tID:pg1\n@CO\tcomment\n")
}
