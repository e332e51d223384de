/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"strings"

	httpcore "github.com/badu/httpnio"
)

// ResponseHasBody reports whether a response to a request made with
// method, carrying status, may itself carry a body (spec §4.4): no
// body for HEAD (matched case-insensitively), for CONNECT with a 2xx
// status, for 204/205/304, and for any 1xx. It is the decision
// resetInput()/processResponse feed into before handing the body off
// to consumeContent.
func ResponseHasBody(method string, status int) bool {
	switch {
	case strings.EqualFold(method, httpcore.HEAD):
		return false
	case method == httpcore.CONNECT && status >= 200 && status < 300:
		return false
	case status >= 100 && status <= 199:
		return false
	case status == 204, status == 205, status == 304:
		return false
	}
	return true
}
