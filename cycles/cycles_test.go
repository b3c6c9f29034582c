// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package cycles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNowIsMonotonic(t *testing.T) {
	prev := Now()
	for i := 0; i < 100; i++ {
		cur := Now()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestClocksProduceReadings(t *testing.T) {
	for name, clock := range map[string]Clock{
		"monotonic": MonotonicClock{},
		"raw":       RawClock{},
	} {
		t.Run(name, func(t *testing.T) {
			first := clock.Now()
			second := clock.Now()
			assert.GreaterOrEqual(t, second, first)
			assert.NotZero(t, second)
		})
	}
}

func TestManualClock(t *testing.T) {
	clock := &ManualClock{}
	assert.Equal(t, Cycles(0), clock.Now())

	clock.Set(100)
	assert.Equal(t, Cycles(100), clock.Now())
	assert.Equal(t, Cycles(100), clock.Now())

	clock.Advance(42)
	assert.Equal(t, Cycles(142), clock.Now())
}

func TestSubSaturates(t *testing.T) {
	tests := map[string]struct {
		a, b, result Cycles
	}{
		"positive":  {a: 10, b: 3, result: 7},
		"zero":      {a: 5, b: 5, result: 0},
		"underflow": {a: 3, b: 10, result: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.result, Sub(test.a, test.b))
		})
	}
}
