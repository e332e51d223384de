/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package tport adapts a raw net.Conn into the nio.Connection contract:
// buffered reads/writes, a socket timeout applied as a read deadline
// (the value saved across the 100-continue override is kept by the
// nio exchange state, not here), and the small set of transport-level
// errors the protocol handler needs to tell apart from ordinary I/O
// failures.
package tport

import (
	"bufio"
	"net"
	"sync"

	httpcore "github.com/badu/httpnio"
	"github.com/badu/httpnio/nio"
)

type (
	// transportReadFromServerError wraps a read failure so callers can
	// tell a read that failed because the server misbehaved apart from
	// one that failed because of a local cancellation. ReadResponseHead
	// wraps every non-nil ReadResponse error in one of these.
	transportReadFromServerError struct {
		err error
	}

	// Conn wraps a net.Conn with the buffering and timeout bookkeeping
	// the protocol handler needs: a single buffered reader shared across
	// header and body reads, and the socket timeout currently in effect.
	// It keeps no copy of the timeout in effect before the 100-continue
	// wait shortened it; the protocol handler saves and restores that.
	Conn struct {
		mu  sync.Mutex
		raw net.Conn
		br  *bufio.Reader
		bw  *bufio.Writer

		closed bool

		// ctx is the attribute bag the nio.ProtocolHandler reads/writes
		// the exchange handler and exchange state through (spec §4.1,
		// §6).
		ctx map[nio.ContextKey]interface{}

		// timeoutMs is the socket timeout currently in effect, in
		// milliseconds, as reported by GetSocketTimeout.
		timeoutMs int

		status nio.ConnStatus

		// response is the most recently parsed response head,
		// returned by GetHttpResponse.
		response *httpcore.Response

		outputSuspended bool
		inputSuspended  bool

		// chunkedRequest records whether the request currently being
		// submitted declared a chunked Transfer-Encoding, so the body
		// encoder handed to produceContent frames its writes the same
		// way.
		chunkedRequest bool
	}
)

func (transportReadFromServerError) Timeout() bool   { return false }
func (transportReadFromServerError) Temporary() bool { return true }
func (e transportReadFromServerError) Unwrap() error { return e.err }
