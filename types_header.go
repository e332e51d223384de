/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package http

import (
	"github.com/badu/httpnio/hdr"
)

// TimeFormat is the time format to use when generating times in HTTP
// headers. It is like time.RFC1123 but hard-codes GMT as the time
// zone.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// Header represents the key-value pairs in an HTTP header. It is an alias
// of hdr.Header so that Request, Response and the nio exchange state share
// a single canonicalized header implementation with the wire-format
// helpers in package hdr.
type Header = hdr.Header
