/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"testing"

	httpcore "github.com/badu/httpnio"
)

func TestResponseHasBody(t *testing.T) {
	cases := []struct {
		method string
		status int
		want   bool
	}{
		{httpcore.GET, 200, true},
		{httpcore.HEAD, 200, false},
		{httpcore.HEAD, 404, false},
		{httpcore.CONNECT, 200, false},
		{httpcore.CONNECT, 299, false},
		{httpcore.CONNECT, 300, true},
		{httpcore.GET, 204, false},
		{httpcore.GET, 205, false},
		{httpcore.GET, 304, false},
		{httpcore.GET, 100, false},
		{httpcore.GET, 199, false},
		{httpcore.POST, 201, true},
	}
	for _, c := range cases {
		if got := ResponseHasBody(c.method, c.status); got != c.want {
			t.Errorf("ResponseHasBody(%q, %d) = %v, want %v", c.method, c.status, got, c.want)
		}
	}
}
