// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture reads and writes hook event captures: the JSONL stream a
// host adapter records during a profiled run, replayable into a session
// offline. A capture is self contained; it carries the call events with
// their tick stamps, the native symbol table the host knew about, and the
// profiled program's own exit code.
package capture // import "github.com/scriptprof/hookprof/capture"

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/libsp"
)

// FormatVersion is the capture format this package reads and writes.
const FormatVersion = 1

// Record types. The header must be the first record of a capture; call,
// return and symbol records appear in hook order; the exit record is last
// and missing entirely when the profiled run aborted.
const (
	recordHeader     = "hdr"
	recordCall       = "call"
	recordReturn     = "ret"
	recordTailReturn = "tailret"
	recordSymbol     = "sym"
	recordExit       = "exit"
)

// Record is one capture line. Type discriminates which other fields carry
// meaning; unused fields stay at their zero values and are omitted on the
// wire.
type Record struct {
	Type string `json:"e"`

	// Header fields.
	Version int    `json:"v,omitempty"`
	Label   string `json:"label,omitempty"`

	// Call event fields; Addr doubles as the symbol record address.
	Kind   string        `json:"k,omitempty"`
	Name   string        `json:"name,omitempty"`
	Source string        `json:"src,omitempty"`
	Line   int           `json:"line,omitempty"`
	Addr   libsp.Address `json:"addr,omitempty"`
	Tick   cycles.Cycles `json:"t,omitempty"`

	// Exit record field.
	Code int `json:"code,omitempty"`
}

// Writer streams capture records. A host adapter holds one next to its live
// hook; tests use it to script event sequences.
type Writer struct {
	enc *json.Encoder
}

// NewWriter starts a capture on w by emitting the header record.
func NewWriter(w io.Writer, label string) (*Writer, error) {
	cw := &Writer{enc: json.NewEncoder(w)}
	return cw, cw.write(&Record{Type: recordHeader, Version: FormatVersion, Label: label})
}

func (w *Writer) write(rec *Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing capture record: %w", err)
	}
	return nil
}

// Call records an enter event observed at the given tick.
func (w *Writer) Call(call libsp.RawCall, tick cycles.Cycles) error {
	return w.write(&Record{
		Type:   recordCall,
		Kind:   call.Kind.String(),
		Name:   call.Name,
		Source: call.Source,
		Line:   call.Line,
		Addr:   call.Entry,
		Tick:   tick,
	})
}

// Return records a leave event observed at the given tick.
func (w *Writer) Return(tick cycles.Cycles) error {
	return w.write(&Record{Type: recordReturn, Tick: tick})
}

// TailReturn records a tail call return. Players treat it exactly like
// Return; the distinct record type keeps the capture honest about what the
// interpreter reported.
func (w *Writer) TailReturn(tick cycles.Cycles) error {
	return w.write(&Record{Type: recordTailReturn, Tick: tick})
}

// Symbol records one native symbol table entry.
func (w *Writer) Symbol(addr libsp.Address, name string) error {
	return w.write(&Record{Type: recordSymbol, Addr: addr, Name: name})
}

// Exit records the profiled program's result code, ending the capture.
func (w *Writer) Exit(code int) error {
	return w.write(&Record{Type: recordExit, Code: code})
}

// Reader streams records out of a capture after validating its header.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	label   string
}

// NewReader checks the capture header and positions the reader on the
// first event.
func NewReader(r io.Reader) (*Reader, error) {
	cr := &Reader{scanner: bufio.NewScanner(r)}
	rec, err := cr.Next()
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Type != recordHeader {
		return nil, errors.New("capture: missing header record")
	}
	if rec.Version != FormatVersion {
		return nil, fmt.Errorf("capture: unsupported format version %d", rec.Version)
	}
	cr.label = rec.Label
	return cr, nil
}

// Label returns the run label recorded in the capture header.
func (r *Reader) Label() string {
	return r.label
}

// Next returns the next record, or nil at the end of the stream.
func (r *Reader) Next() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec := &Record{}
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("capture line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	return nil, nil
}
