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

package parser

import (
	"testing"

	"github.com/dmnflow/dmnflow/feel/ast"
)

func mustParse(t *testing.T, src string) ast.Expression {
	t.Helper()
	expr, errs := Parse(src)
	if len(errs) > 0 {
		t.Fatalf("parse %q: %v", src, errs)
	}
	return expr
}

func TestParsePrecedence(t *testing.T) {
	expr := mustParse(t, "1 + 2 * 3")
	bin, ok := expr.(ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected a top-level '+', got %#v", expr)
	}
	right, ok := bin.Right.(ast.BinaryExpr)
	if !ok || right.Op != "*" {
		t.Fatalf("expected '*' nested under '+', got %#v", bin.Right)
	}
}

func TestParseBetween(t *testing.T) {
	expr := mustParse(t, "x between 1 and 10")
	bin, ok := expr.(ast.BinaryExpr)
	if !ok || bin.Op != "between" || bin.Between == nil {
		t.Fatalf("expected a between expression, got %#v", expr)
	}
}

func TestParseIf(t *testing.T) {
	expr := mustParse(t, `if x > 0 then "pos" else "non-pos"`)
	if _, ok := expr.(ast.IfExpr); !ok {
		t.Fatalf("expected an if expression, got %#v", expr)
	}
}

func TestParseMultiWordBuiltinCallNames(t *testing.T) {
	cases := []struct {
		src      string
		wantName string
	}{
		{`string length("x")`, "string length"},
		{`upper case("x")`, "upper case"},
		{`starts with("x", "y")`, "starts with"},
		{`date and time("2020-01-01T00:00:00")`, "date and time"},
		{`years and months duration(a, b)`, "years and months duration"},
	}
	for _, tc := range cases {
		expr := mustParse(t, tc.src)
		call, ok := expr.(ast.CallExpr)
		if !ok {
			t.Fatalf("%q: expected a call expression, got %#v", tc.src, expr)
		}
		ident, ok := call.Callee.(ast.Identifier)
		if !ok || ident.Name != tc.wantName {
			t.Errorf("%q: callee = %#v, want identifier %q", tc.src, call.Callee, tc.wantName)
		}
	}
}

func TestParseSingleWordCallUnaffectedByMerge(t *testing.T) {
	expr := mustParse(t, `abs(-4)`)
	call, ok := expr.(ast.CallExpr)
	if !ok {
		t.Fatalf("expected a call expression, got %#v", expr)
	}
	ident, ok := call.Callee.(ast.Identifier)
	if !ok || ident.Name != "abs" {
		t.Errorf("callee = %#v, want identifier \"abs\"", call.Callee)
	}
}

func TestParseIfConditionNotMergedWithThen(t *testing.T) {
	// "then"/"else" must never be folded into a merged identifier run even
	// though they immediately follow another Identifier-kind token.
	expr := mustParse(t, `if cond then 1 else 2`)
	ifExpr, ok := expr.(ast.IfExpr)
	if !ok {
		t.Fatalf("expected an if expression, got %#v", expr)
	}
	ident, ok := ifExpr.Cond.(ast.Identifier)
	if !ok || ident.Name != "cond" {
		t.Errorf("condition = %#v, want identifier \"cond\"", ifExpr.Cond)
	}
}

func TestParseListIndexingAndRange(t *testing.T) {
	expr := mustParse(t, "[1,2,3][2]")
	idx, ok := expr.(ast.IndexExpr)
	if !ok {
		t.Fatalf("expected an index expression, got %#v", expr)
	}
	if _, ok := idx.Target.(ast.ListExpr); !ok {
		t.Errorf("target = %#v, want a list literal", idx.Target)
	}

	rng := mustParse(t, "[1..10]")
	r, ok := rng.(ast.RangeExpr)
	if !ok || !r.LowClosed || !r.HighClosed {
		t.Fatalf("expected a closed range, got %#v", rng)
	}
}

func TestParseContextLiteral(t *testing.T) {
	expr := mustParse(t, `{ a: 1, b: "x" }`)
	ctx, ok := expr.(ast.ContextExpr)
	if !ok || len(ctx.Entries) != 2 {
		t.Fatalf("expected a 2-entry context, got %#v", expr)
	}
	if ctx.Entries[0].Key != "a" || ctx.Entries[1].Key != "b" {
		t.Errorf("entries = %+v", ctx.Entries)
	}
}

func TestParsePathAccess(t *testing.T) {
	expr := mustParse(t, "applicant.age")
	path, ok := expr.(ast.PathExpr)
	if !ok || path.Field != "age" {
		t.Fatalf("expected a path expression to 'age', got %#v", expr)
	}
}

func TestParseTrailingGarbageProducesError(t *testing.T) {
	_, errs := Parse("1 + 2 )")
	if len(errs) == 0 {
		t.Error("expected a parse error for unbalanced trailing input")
	}
}

func TestParseNamedArguments(t *testing.T) {
	expr := mustParse(t, `some_fn(a: 1, b: 2)`)
	call, ok := expr.(ast.CallExpr)
	if !ok {
		t.Fatalf("expected a call expression, got %#v", expr)
	}
	if len(call.Named) != 2 || call.Named["a"] == nil || call.Named["b"] == nil {
		t.Errorf("Named = %+v", call.Named)
	}
}
