/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"testing"

	httpcore "github.com/badu/httpnio"
)

func TestDefaultConnectionReuseStrategy(t *testing.T) {
	var s DefaultConnectionReuseStrategy

	if s.KeepAlive(nil, nil) {
		t.Fatal("a nil response must not keep the connection alive")
	}
	if !s.KeepAlive(&httpcore.Response{Close: false}, nil) {
		t.Fatal("Close=false must keep the connection alive")
	}
	if s.KeepAlive(&httpcore.Response{Close: true}, nil) {
		t.Fatal("Close=true must not keep the connection alive")
	}
}
