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

// Package eval is the FEEL tree-walk evaluator (spec §4.5): a single
// dispatch over ast.Expression node kinds (Design Note 2). Equal, Compare,
// and Truthy are exported so the sibling eval/direct package's
// direct-string fast path can reuse the exact same primitives instead of
// re-deriving them. Modeled on the teacher's runtime/eval.go dispatch shape
// and runtime/eval_infix.go's per-operator case handling, generalized from
// the teacher's own DSL semantics to FEEL's.
package eval

import (
	"strings"
	"time"

	"github.com/dmnflow/dmnflow/xerr"
)

// Func is a built-in or caller-supplied FEEL function. args are already
// evaluated; Func resolves its own arity/type checking and returns a typed
// xerr.EvaluationError on failure.
type Func func(args []any) (any, error)

// Context is the evaluation environment threaded through eval: variable
// bindings, the function table, and ambient clock/locale settings (spec
// §4.5: "context = {variables, functions, currentDateTime?, locale?,
// timeZone?}").
type Context struct {
	Variables map[string]any
	Functions map[string]Func

	Now      func() time.Time
	Locale   string
	TimeZone string

	// memo caches built-in call results within one evaluation, keyed by a
	// hash of the function name and its evaluated arguments. Grounded on the
	// teacher's runtime/eval_call.go calculateHashKey memoization.
	memo map[string]any
}

// NewContext builds an evaluation Context over the given variable bindings.
// Functions starts as an empty map; callers install the builtins (for
// example builtins.Functions()) by assigning or adding entries.
func NewContext(variables map[string]any) *Context {
	return &Context{
		Variables: variables,
		Functions: map[string]Func{},
		Now:       time.Now,
		memo:      map[string]any{},
	}
}

// Child returns a new Context sharing Functions/Now/Locale/TimeZone/memo but
// with its own Variables map seeded from the parent - used for lambda
// parameter binding (for/quantified/filter) so writes never leak upward.
func (c *Context) Child(bindings map[string]any) *Context {
	vars := make(map[string]any, len(c.Variables)+len(bindings))
	for k, v := range c.Variables {
		vars[k] = v
	}
	for k, v := range bindings {
		vars[k] = v
	}
	return &Context{
		Variables: vars,
		Functions: c.Functions,
		Now:       c.Now,
		Locale:    c.Locale,
		TimeZone:  c.TimeZone,
		memo:      c.memo,
	}
}

func (c *Context) lookupVar(name string) (any, bool) {
	v, ok := c.Variables[name]
	return v, ok
}

// lookupFunc tries name as-is first (the common single-word case), then
// falls back to the registry's normalized form (lowercased, spaces ->
// underscores) so multi-word built-ins like "string length" resolve
// regardless of how the caller's Functions map is keyed.
func (c *Context) lookupFunc(name string) (Func, bool) {
	if f, ok := c.Functions[name]; ok {
		return f, true
	}
	f, ok := c.Functions[normalizeFuncName(name)]
	return f, ok
}

func normalizeFuncName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func errNotFound(kind string, name string) error {
	if kind == "variable" {
		return xerr.ErrEvaluation(xerr.VariableNotFound, "variable not found: %s", name)
	}
	return xerr.ErrEvaluation(xerr.FunctionNotFound, "function not found: %s", name)
}
