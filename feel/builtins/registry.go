// Copyright 2026 The dmnflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package builtins is the FEEL built-in function registry (spec §4.4): a
// fixed map from a normalized name (lowercased, spaces replaced with
// underscores) to a descriptor holding its arity and implementation.
// Organized one file per function family (numeric, string, list, datetime,
// conversion, context, range), mirroring the teacher's
// runtime/js/builtin_*.go one-file-per-builtin-family layout - the JS
// sandbox those files back is out of scope, but the organizing idiom
// carries over directly.
package builtins

import (
	"strings"

	"github.com/dmnflow/dmnflow/feel/eval"
)

// Descriptor documents one built-in function: its canonical (spec) name,
// declared parameter names (for named-argument calls), and implementation.
type Descriptor struct {
	Name    string
	Params  []string
	Return  string
	Impl    eval.Func
}

// Normalize maps a canonical spec name ("string length") to its registry key
// ("string_length"), case-insensitively.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// registry is populated by the family-specific init() functions in this
// package's other files (numeric.go, string.go, list.go, datetime.go,
// conversion.go, context.go, ranges.go).
var registry = map[string]Descriptor{}

func register(d Descriptor) {
	registry[Normalize(d.Name)] = d
}

// Lookup returns the descriptor for name (normalized before matching), or
// false if name is not a built-in.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[Normalize(name)]
	return d, ok
}

// Functions returns the full registry as an eval.Context-ready function
// table, keyed by normalized name. Callers wanting a custom subset should
// copy this map and delete/override entries rather than mutate it in place.
func Functions() map[string]eval.Func {
	out := make(map[string]eval.Func, len(registry))
	for key, d := range registry {
		out[key] = d.Impl
	}
	return out
}

// All returns every registered descriptor, for documentation/introspection
// purposes (e.g. a CLI `list-builtins` command).
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	return out
}
