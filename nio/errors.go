/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"errors"
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

// errIdleTimeout is the cause SocketTimeout wraps when timeout fires
// outside ACK_EXPECTED (spec §4.3, scenario 7).
var errIdleTimeout = errors.New("idle timeout")

// errUnexpectedIntermediate is the cause ProtocolError wraps when a
// 1xx response other than 100 Continue is received (spec §4.3,
// scenario 8).
func errUnexpectedIntermediate(status int) error {
	return fmt.Errorf("unexpected intermediate response: %d", status)
}

// Error code taxonomy (spec §7): every failure the Protocol Handler
// raises carries one of these four codes, so a caller can branch on
// liberr.Error.IsCode/HasCode instead of matching message text.
// codeBase sits well above the HTTP-shaped codes liberr predefines
// (100-599), so registering a message function at codeBase doesn't
// shadow any of those.
const codeBase liberr.CodeError = 9000

const (
	// ProtocolErrorCode marks a violation of exchange ordering: an
	// unexpected intermediate response, or an error returned by one of
	// the exchange handler's callbacks.
	ProtocolErrorCode liberr.CodeError = codeBase + iota
	// IOErrorCode marks a transport failure: the connection reset,
	// the peer closed mid-message, or a write failed.
	IOErrorCode
	// IllegalStateErrorCode marks an invariant violation inside the
	// Protocol Handler itself (spec §3's MessageState transitions),
	// never expected from well-behaved input.
	IllegalStateErrorCode
	// SocketTimeoutCode marks an idle/IO timeout that fires outside
	// ACK_EXPECTED (spec §4.3). The 100-continue wait and the
	// grace-close window expiring raise no error.
	SocketTimeoutCode
)

func init() {
	liberr.RegisterIdFctMessage(codeBase, errorMessage)
}

func errorMessage(code liberr.CodeError) string {
	switch code {
	case ProtocolErrorCode:
		return "protocol error"
	case IOErrorCode:
		return "i/o error"
	case IllegalStateErrorCode:
		return "illegal exchange state: %s (in %s)"
	case SocketTimeoutCode:
		return "socket timeout"
	default:
		return liberr.NullMessage
	}
}

// ProtocolError wraps cause as a ProtocolErrorCode liberr.Error.
func ProtocolError(cause error) liberr.Error {
	return ProtocolErrorCode.Error(cause)
}

// IOError wraps cause as an IOErrorCode liberr.Error.
func IOError(cause error) liberr.Error {
	return IOErrorCode.Error(cause)
}

// IllegalStateError reports state as an IllegalStateErrorCode
// liberr.Error, formatting the offending MessageState into the
// message the way Errorf formats its pattern.
func IllegalStateError(where string, state MessageState) liberr.Error {
	return IllegalStateErrorCode.Errorf(state.String(), where)
}

// SocketTimeout reports an idle/IO timeout outside ACK_EXPECTED as a
// SocketTimeoutCode liberr.Error.
func SocketTimeout(cause error) liberr.Error {
	return SocketTimeoutCode.Error(cause)
}
