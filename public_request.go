/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package http

import (
	"context"
	"strconv"
	"strings"

	"github.com/badu/httpnio/hdr"
)

func (e *badStringError) Error() string { return e.what + " " + strconv.Quote(e.str) }

// ValueOrDefault returns value if it's non-empty, otherwise def. It is used
// throughout request and wire-format helpers to apply HTTP's implied
// defaults (e.g. an empty Method means GET).
func ValueOrDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

// ProtoAtLeast reports whether the HTTP protocol used
// in the request is at least major.minor.
func (r *Request) ProtoAtLeast(major, minor int) bool {
	return r.ProtoMajor > major || r.ProtoMajor == major && r.ProtoMinor >= minor
}

// ExpectsContinue reports whether the request has an
// "Expect: 100-continue" header value.
//
// It is not mutated by reading it: a caller may inspect it any number
// of times before, during, or after the exchange it is attached to
// without affecting the result.
func (r *Request) ExpectsContinue() bool {
	return headerValueContainsToken(r.Header.Get(hdr.Expect), "100-continue")
}

// wantsHttp10KeepAlive reports whether r should signal "Connection:
// keep-alive" because it is HTTP/1.0 and explicitly asked for it.
func (r *Request) wantsHttp10KeepAlive() bool {
	if r.ProtoMajor != 1 || r.ProtoMinor != 0 {
		return false
	}
	return headerValueContainsToken(r.Header.Get(hdr.Connection), "keep-alive")
}

// wantsClose reports whether the request explicitly asked for the
// connection to be closed after the response, through its Close field
// or a "Connection: close" header. The protocol version is not
// consulted.
func (r *Request) wantsClose() bool {
	if r.Close {
		return true
	}
	return headerValueContainsToken(r.Header.Get(hdr.Connection), "close")
}

// OutgoingLength reports the length of the outgoing request body.
// It maps the zero-value-is-ambiguous ContentLength/Body pair onto a
// single signed value the same way the wire-writer does: -1 means
// "unknown, frame with chunked encoding or read to EOF", a value >= 0 is
// the exact number of bytes that will be written.
func (r *Request) OutgoingLength() int64 {
	if r.Body == nil || r.Body == NoBody {
		return 0
	}
	if r.ContentLength != 0 {
		return r.ContentLength
	}
	return -1
}

// CloseBody closes the request body if non-nil, discarding any error.
func (r *Request) CloseBody() {
	if r.Body != nil {
		r.Body.Close()
	}
}

// Context returns the request's context. To change the context, use
// WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r with its context changed
// to ctx. The provided ctx must be non-nil.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r2 := new(Request)
	*r2 = *r
	r2.ctx = ctx
	return r2
}

// byteIndex is like strings.IndexByte, kept as its own helper so the
// wire-parsing call sites read the same way the teacher's did.
func byteIndex(s string, c byte) int {
	return strings.IndexByte(s, c)
}

// ParseHTTPVersion parses an HTTP version string according to RFC 7230,
// section 2.6, e.g. "HTTP/1.0" returns (1, 0, true).
func ParseHTTPVersion(vers string) (major, minor int, ok bool) {
	const Big = 1000000 // arbitrary upper bound
	switch vers {
	case "HTTP/1.1":
		return 1, 1, true
	case "HTTP/1.0":
		return 1, 0, true
	}
	if !strings.HasPrefix(vers, "HTTP/") {
		return 0, 0, false
	}
	dot := strings.Index(vers, ".")
	if dot < 0 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(vers[5:dot])
	if err != nil || major < 0 || major > Big {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(vers[dot+1:])
	if err != nil || minor < 0 || minor > Big {
		return 0, 0, false
	}
	return major, minor, true
}

// SetCtx sets the request's context directly, without copying the
// Request. It exists for code paths that own their Request value
// exclusively and do not need WithContext's copy-on-write semantics.
func (r *Request) SetCtx(ctx context.Context) {
	r.ctx = ctx
}
