/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import "net/textproto"

// ReadLine reads a single line from the underlying reader, with the
// trailing CRLF or LF stripped, the same way a status line or a
// chunk-size line is read off the wire.
func (r *HeaderReader) ReadLine() (string, error) {
	return textproto.NewReader(r.R).ReadLine()
}

// ReadHeader reads header lines up to and including the blank line
// that terminates them, and returns the parsed fields as a Header.
func (r *HeaderReader) ReadHeader() (Header, error) {
	mh, err := textproto.NewReader(r.R).ReadMIMEHeader()
	if err != nil && mh == nil {
		return nil, err
	}
	h := make(Header, len(mh))
	for k, v := range mh {
		h[k] = v
	}
	return h, err
}
