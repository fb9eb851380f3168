// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import "sync"

// recordBufPool recycles the scratch buffers Reader.fill reads decompressed
// BGZF bytes into before appending them to the Reader's pending buffer.
var recordBufPool = sync.Pool{
	New: func() interface{} {
		return []byte{}
	},
}

// resizeScratch makes *buf exactly n bytes long, reusing its backing array
// when there is enough capacity and padding the allocation slightly when
// there isn't, to cut down on reallocation across many small growths.
func resizeScratch(buf *[]byte, n int) {
	if *buf == nil || cap(*buf) < n {
		size := (n/16 + 1) * 16
		*buf = make([]byte, n, size)
	} else {
		*buf = (*buf)[:n]
	}
}
