// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libsp // import "github.com/scriptprof/hookprof/libsp"

import (
	"unique"
)

// String is an interned function name. It wraps unique.Handle[string] so
// that the same name observed through different hook events compares equal
// with a single pointer-sized comparison, provides String() to be usable
// with printf, and treats the default initializer as the empty string.
type String struct {
	value unique.Handle[string]
}

// NullString is the interned empty string.
var NullString = String{}

// Intern returns the canonical String for str.
func Intern(str string) String {
	if str == "" {
		return NullString
	}
	return String{unique.Make(str)}
}

func (s String) String() string {
	if s == NullString {
		return ""
	}
	return s.value.Value()
}
