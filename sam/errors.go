// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"errors"
	"strconv"
)

// Errors returned while decoding or validating a record's fixed descriptor
// and payload sections.
var (
	ErrRecordTruncated  = errors.New("sam: truncated record")
	ErrRecordBadSize    = errors.New("sam: impossible block_size")
	ErrNameTooLong      = errors.New("sam: read name absent or too long")
	ErrQualLenMismatch  = errors.New("sam: sequence/quality length mismatch")
)

// Errors returned while parsing or validating a textual SAM header.
var (
	ErrHeaderMissingTag   = errors.New("sam: missing mandatory header tag")
	ErrHeaderNotFirst     = errors.New("sam: @HD record must be first")
	ErrHeaderUnknownType  = errors.New("sam: unknown @XX record type")
	ErrHeaderMalformed    = errors.New("sam: malformed header line")
)

// HeaderError records the specific line and reason a textual header
// failed to parse.
type HeaderError struct {
	Line int
	Err  error
}

func (e *HeaderError) Error() string {
	return "sam: header line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *HeaderError) Unwrap() error { return e.Err }
