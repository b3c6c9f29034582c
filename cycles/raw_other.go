// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package cycles // import "github.com/scriptprof/hookprof/cycles"

// RawClock falls back to the runtime monotonic clock on platforms without
// CLOCK_MONOTONIC_RAW.
type RawClock struct{}

func (RawClock) Now() Cycles { return Now() }
