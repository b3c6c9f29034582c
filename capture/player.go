// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package capture // import "github.com/scriptprof/hookprof/capture"

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
	"github.com/scriptprof/hookprof/symbolizer"
)

// Player feeds a capture into a hook, making the recorded ticks the hook's
// notion of time. The target session must have been built on the player's
// clock; every record sets the clock before the hook call, so a replayed
// session observes recorded time and zero instrumentation overhead.
type Player struct {
	reader  *Reader
	clock   *cycles.ManualClock
	symbols *symbolizer.Table

	events  uint64
	enters  uint64
	leaves  uint64
	code    int
	sawExit bool
}

// NewPlayer wraps reader. The clock is handed to the session under replay.
func NewPlayer(reader *Reader, clock *cycles.ManualClock) *Player {
	return &Player{
		reader:  reader,
		clock:   clock,
		symbols: symbolizer.NewTable(),
	}
}

// Symbols returns the native symbol table accumulated from the capture,
// usable as a symbolizer source once Replay returned.
func (p *Player) Symbols() *symbolizer.Table {
	return p.symbols
}

// Events returns the number of records replayed so far.
func (p *Player) Events() uint64 {
	return p.events
}

// Replay pumps all remaining records into hook. It returns the exit code
// the capture recorded for the profiled run; ok is false when the capture
// ended without an exit record, meaning the run aborted and the hook holds
// a partial tree worth reporting anyway.
//
// Captures cross a process boundary, so malformed content comes back as an
// error rather than tripping the session's internal invariants: an
// unbalanced return is rejected here, before the hook would panic on it.
func (p *Player) Replay(ctx context.Context, hook libsp.Hook) (code int, ok bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		rec, err := p.reader.Next()
		if err != nil {
			return 0, false, err
		}
		if rec == nil {
			break
		}
		p.events++

		switch rec.Type {
		case recordCall:
			kind := libsp.CallKindFromString(rec.Kind)
			if kind == libsp.UnknownCall {
				return 0, false, fmt.Errorf("capture: unknown call kind %q", rec.Kind)
			}
			p.clock.Set(rec.Tick)
			hook.OnEnter(libsp.RawCall{
				Kind:   kind,
				Name:   rec.Name,
				Source: rec.Source,
				Line:   rec.Line,
				Entry:  rec.Addr,
			})
			p.enters++
		case recordReturn, recordTailReturn:
			if p.leaves >= p.enters {
				return 0, false, fmt.Errorf("capture: return event without a matching call")
			}
			p.clock.Set(rec.Tick)
			hook.OnLeave()
			p.leaves++
		case recordSymbol:
			p.symbols.Put(rec.Addr, rec.Name)
		case recordExit:
			p.code, p.sawExit = rec.Code, true
		case recordHeader:
			return 0, false, fmt.Errorf("capture: unexpected header record mid stream")
		default:
			return 0, false, fmt.Errorf("capture: unknown record type %q", rec.Type)
		}
	}

	if open := p.enters - p.leaves; open > 0 {
		log.Warnf("Capture ended with %d calls still open", open)
	}
	if !p.sawExit {
		log.Warnf("Capture has no exit record; the profiled run likely aborted")
	}
	return p.code, p.sawExit, nil
}
