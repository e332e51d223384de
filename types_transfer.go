/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package http

import (
	"bufio"
	"errors"
	"io"
	"sync"

	"github.com/badu/httpnio/hdr"
)

var (
	suppressedHeaders304    = []string{hdr.ContentType, hdr.ContentLength, hdr.TransferEncoding}
	suppressedHeadersNoBody = []string{hdr.ContentLength, hdr.TransferEncoding}

	// ErrBodyReadAfterClose is returned when reading a Request or Response
	// Body after the body has been closed. This typically happens when the body is
	// read after an HTTP Handler calls WriteHeader or Write on its
	// ResponseWriter.
	ErrBodyReadAfterClose = errors.New("http: invalid Read on closed Body")

	errTrailerEOF = errors.New("http: unexpected EOF reading trailer")
)

type (
	//TODO : @badu - whay all these properties are public?
	transferReader struct {
		// Input
		Header        hdr.Header
		StatusCode    int
		RequestMethod string
		ProtoMajor    int
		ProtoMinor    int
		// Output
		Body             io.ReadCloser
		ContentLength    int64
		TransferEncoding []string
		Close            bool
		Trailer          hdr.Header
	}

	// body turns a Reader into a ReadCloser.
	// Close ensures that the body has been fully read and then reads the trailer if necessary.
	body struct {
		mu                    sync.Mutex // guards following, and calls to Read and Close
		reader                io.Reader
		responseOrRequestIntf interface{}   // non-nil (Response or Request) value means read trailer
		bufReader             *bufio.Reader // underlying wire-format reader for the trailer
		isClosing             bool          // is the connection to be closed after reading body?
		doEarlyClose          bool          // whether Close should stop early
		hasSawEOF             bool
		isClosed              bool
		isEarlyClose          bool   // Close called and we didn't read to the end of src
		onHitEOF              func() // if non-nil, func to call when EOF is Read
	}

	// bodyLocked is a io.Reader reading from a *body when its mutex is already held.
	bodyLocked struct {
		body *body
	}
)
