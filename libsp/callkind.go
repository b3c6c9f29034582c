// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libsp // import "github.com/scriptprof/hookprof/libsp"

import "fmt"

// CallKind tags a raw call event with the coarse origin the interpreter
// reports: a native host function, a script function, or the top level
// program chunk.
type CallKind uint8

const (
	// UnknownCall is the zero value. Classify treats it as a bug in the
	// hook wiring.
	UnknownCall CallKind = iota

	// NativeCall is a call into a native host function.
	NativeCall

	// ScriptCall is a call into a script function, named or anonymous.
	ScriptCall

	// EntryCall is the interpreter entering the top level program chunk.
	EntryCall
)

func (k CallKind) String() string {
	switch k {
	case NativeCall:
		return "native"
	case ScriptCall:
		return "script"
	case EntryCall:
		return "main"
	default:
		return fmt.Sprintf("<unknown callkind %d>", int(k))
	}
}

// CallKindFromString is the inverse of String. It returns UnknownCall for
// anything it does not recognize; callers reading external input must treat
// that as an input error.
func CallKindFromString(s string) CallKind {
	switch s {
	case "native":
		return NativeCall
	case "script":
		return ScriptCall
	case "main":
		return EntryCall
	default:
		return UnknownCall
	}
}

// LocationKind is the classified flavor of a code location.
type LocationKind uint8

const (
	// UnknownLocation is the zero value and never produced by Classify.
	UnknownLocation LocationKind = iota

	// NativeLocation is a native function, identified by its entry address.
	NativeLocation

	// NamedScriptLocation is a script function with a stable name. All
	// observations of the same name collapse into one identity.
	NamedScriptLocation

	// AnonymousScriptLocation is a script function the interpreter could
	// not name, displayed as the source position it was observed at. Every
	// observation is a distinct identity.
	AnonymousScriptLocation

	// EntryLocation is the top level program chunk.
	EntryLocation
)

func (k LocationKind) String() string {
	switch k {
	case NativeLocation:
		return "native"
	case NamedScriptLocation:
		return "script"
	case AnonymousScriptLocation:
		return "script-anon"
	case EntryLocation:
		return "main"
	default:
		return fmt.Sprintf("<unknown locationkind %d>", int(k))
	}
}

// Tag returns the report label prefix for the location kind. Script code,
// the program entry included, folds under "LUA:", native code under "C:".
func (k LocationKind) Tag() string {
	if k == NativeLocation {
		return "C:"
	}
	return "LUA:"
}
