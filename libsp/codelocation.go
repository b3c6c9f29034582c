// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libsp // import "github.com/scriptprof/hookprof/libsp"

import (
	"fmt"
	"strconv"
	"strings"
)

// RawCall is the metadata an interpreter hook delivers for one call event.
// Classify turns it into a CodeLocation; nothing downstream looks at the
// raw form again.
type RawCall struct {
	Kind   CallKind
	Name   string  // function name, empty or a "?" placeholder when unknown
	Source string  // source identifier of the enclosing chunk
	Line   int     // line currently executing inside the chunk
	Entry  Address // native entry address, NativeCall only
}

// anonSite pins down one observation of an anonymous script function. Every
// observation allocates a fresh anonSite, so two anonymous calls never
// compare equal, not even at the same source position. Textually identical
// report paths are merged again when the report is folded.
type anonSite struct {
	display string
}

// CodeLocation identifies a call site. The zero value identifies nothing.
// CodeLocation is comparable; == is the identity relation the call tree
// groups frames by.
type CodeLocation struct {
	kind LocationKind
	addr Address   // NativeLocation only
	name String    // NamedScriptLocation only
	anon *anonSite // AnonymousScriptLocation only
}

// Classify derives the call site identity for a raw call event.
//
// It panics on an unrecognized call kind: that means the hook wiring is
// broken, and no tree built from it could be trusted.
func Classify(raw RawCall) CodeLocation {
	switch raw.Kind {
	case NativeCall:
		return CodeLocation{kind: NativeLocation, addr: raw.Entry}
	case ScriptCall:
		if stableName(raw.Name) {
			return CodeLocation{kind: NamedScriptLocation, name: Intern(raw.Name)}
		}
		return CodeLocation{kind: AnonymousScriptLocation, anon: &anonSite{
			display: basename(raw.Source) + ":" + strconv.Itoa(raw.Line),
		}}
	case EntryCall:
		return CodeLocation{kind: EntryLocation}
	default:
		panic(fmt.Sprintf("libsp: unrecognized call kind %d", raw.Kind))
	}
}

// stableName reports whether the interpreter delivered a usable function
// name. Interpreters hand out "?" placeholders when they can only guess.
func stableName(name string) bool {
	return name != "" && name[0] != '?'
}

// basename strips the directory part of a script source identifier.
func basename(source string) string {
	if idx := strings.LastIndexByte(source, '/'); idx >= 0 {
		return source[idx+1:]
	}
	return source
}

// Kind returns the classified location kind.
func (cl CodeLocation) Kind() LocationKind {
	return cl.kind
}

// NativeAddress returns the native entry address, and whether the location
// is native at all.
func (cl CodeLocation) NativeAddress() (Address, bool) {
	return cl.addr, cl.kind == NativeLocation
}

// Display returns the identity label used in reports: the interned name for
// named script functions, the source position for anonymous ones, "main"
// for the program entry. Native locations are resolved through a symbolizer
// instead; Display falls back to the raw hex address for them.
func (cl CodeLocation) Display() string {
	switch cl.kind {
	case NativeLocation:
		return cl.addr.String()
	case NamedScriptLocation:
		return cl.name.String()
	case AnonymousScriptLocation:
		return cl.anon.display
	case EntryLocation:
		return "main"
	default:
		return "<unknown>"
	}
}

func (cl CodeLocation) String() string {
	return cl.kind.Tag() + cl.Display()
}
