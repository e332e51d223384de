/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"errors"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("boom")

	if err := ProtocolError(cause); !err.IsCode(ProtocolErrorCode) {
		t.Fatalf("ProtocolError should carry ProtocolErrorCode, got %v", err.GetCode())
	}
	if err := IOError(cause); !err.IsCode(IOErrorCode) {
		t.Fatalf("IOError should carry IOErrorCode, got %v", err.GetCode())
	}
	if err := SocketTimeout(cause); !err.IsCode(SocketTimeoutCode) {
		t.Fatalf("SocketTimeout should carry SocketTimeoutCode, got %v", err.GetCode())
	}
	if err := IllegalStateError("outputReady", AckExpected); !err.IsCode(IllegalStateErrorCode) {
		t.Fatalf("IllegalStateError should carry IllegalStateErrorCode, got %v", err.GetCode())
	}
}
