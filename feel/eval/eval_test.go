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

package eval_test

import (
	"testing"

	"github.com/dmnflow/dmnflow/feel/builtins"
	"github.com/dmnflow/dmnflow/feel/eval"
	"github.com/dmnflow/dmnflow/feel/parser"
)

func evalString(t *testing.T, src string, vars map[string]any) any {
	t.Helper()
	expr, errs := parser.Parse(src)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	ctx := eval.NewContext(vars)
	ctx.Functions = builtins.Functions()
	result, err := eval.Eval(ctx, expr)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return result
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	cases := []struct {
		src  string
		want any
	}{
		{"1 + 2 * 3", 7.0},
		{"(1 + 2) * 3", 9.0},
		{"10 / 4", 2.5},
		{"2 ** 10", 1024.0},
		{"1 < 2", true},
		{"\"a\" == \"a\"", true},
		{"true and false", false},
		{"true or false", true},
		{"not(true)", false},
	}
	for _, tc := range cases {
		got := evalString(t, tc.src, nil)
		if got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestEvalVariablesAndPaths(t *testing.T) {
	vars := map[string]any{
		"applicant": map[string]any{"age": 25.0, "name": "sam"},
	}
	got := evalString(t, "applicant.age", vars)
	if got != 25.0 {
		t.Errorf("applicant.age: got %v", got)
	}
}

func TestEvalIfAndList(t *testing.T) {
	got := evalString(t, "if 5 > 3 then \"yes\" else \"no\"", nil)
	if got != "yes" {
		t.Errorf("if: got %v", got)
	}

	got = evalString(t, "[1,2,3][2]", nil)
	if got != 2.0 {
		t.Errorf("1-based index: got %v", got)
	}
}

func TestEvalBuiltinFunctions(t *testing.T) {
	cases := []struct {
		src  string
		want any
	}{
		{`string length("hello")`, 5.0},
		{`upper case("ab")`, "AB"},
		{`sum([1,2,3])`, 6.0},
		{`abs(-4)`, 4.0},
		{`contains("hello", "ell")`, true},
	}
	for _, tc := range cases {
		got := evalString(t, tc.src, nil)
		if got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.src, got, tc.want)
		}
	}
}
