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

// Package direct implements the lightweight direct-string evaluator (spec
// §4.5's "direct-string mode"): a fast path over the handful of FEEL idioms
// that dominate decision-table cells - a literal, a variable path, a simple
// comparison, a between range, an "in [...]" membership test, and and/or
// joins of these - without invoking the tokenizer/parser.
//
// Every primitive this package uses (equality, ordering, truthiness) is
// borrowed from package eval rather than re-derived, so Eval agrees with the
// full parse-and-walk path on every input it recognizes (property 8 / S8).
// Inputs outside this narrow grammar return ok=false; the caller falls back
// to parser.Parse + eval.Eval.
package direct

import (
	"strconv"
	"strings"

	"github.com/dmnflow/dmnflow/feel/eval"
)

var comparisonOps = []string{"<=", ">=", "==", "!=", "<", ">"}

// Eval attempts the fast path over s. ok is false when s does not match one
// of the recognized shapes; callers must fall back to the full parser in
// that case, not treat ok=false as an error.
func Eval(ctx *eval.Context, s string) (value any, ok bool, err error) {
	return evalExpr(ctx, strings.TrimSpace(s))
}

func evalExpr(ctx *eval.Context, s string) (any, bool, error) {
	if s == "" {
		return nil, false, nil
	}
	if v, ok := evalLiteral(s); ok {
		return v, true, nil
	}
	if v, ok, err := evalBetween(ctx, s); ok || err != nil {
		return v, ok, err
	}
	if v, ok, err := evalIn(ctx, s); ok || err != nil {
		return v, ok, err
	}
	if v, ok, err := evalComparison(ctx, s); ok || err != nil {
		return v, ok, err
	}
	if v, ok := evalVariable(ctx, s); ok {
		return v, true, nil
	}
	if v, ok, err := evalJoin(ctx, s); ok || err != nil {
		return v, ok, err
	}
	return nil, false, nil
}

func evalLiteral(s string) (any, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// isIdentifier reports whether s is a bare identifier or a dotted path of
// them - the only variable-path shapes this fast path recognizes.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			case i > 0 && r >= '0' && r <= '9':
			default:
				return false
			}
		}
	}
	return true
}

// evalVariable resolves a bare identifier or a dotted path, mirroring
// eval.evalPath's semantics exactly (nil -> not ok, non-map -> not ok) so a
// shape it can't safely resolve falls back to the full path instead of
// silently disagreeing with it.
func evalVariable(ctx *eval.Context, s string) (any, bool) {
	if !isIdentifier(s) {
		return nil, false
	}
	parts := strings.Split(s, ".")
	v, ok := ctx.Variables[parts[0]]
	if !ok {
		return nil, false
	}
	for _, field := range parts[1:] {
		if v == nil {
			return nil, false
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v = m[field]
	}
	return v, true
}

func evalOperand(ctx *eval.Context, s string) (any, bool) {
	s = strings.TrimSpace(s)
	if v, ok := evalLiteral(s); ok {
		return v, true
	}
	return evalVariable(ctx, s)
}

// evalComparison matches "<operand> <op> <operand>" for the full operator
// set, longest operators first so "<=" isn't mistaken for "<".
func evalComparison(ctx *eval.Context, s string) (any, bool, error) {
	for _, op := range comparisonOps {
		idx := strings.Index(s, op)
		if idx <= 0 || idx+len(op) >= len(s) {
			continue
		}
		leftStr, rightStr := s[:idx], s[idx+len(op):]
		left, lok := evalOperand(ctx, leftStr)
		if !lok {
			continue
		}
		right, rok := evalOperand(ctx, rightStr)
		if !rok {
			continue
		}
		if op == "==" || op == "!=" {
			eq := eval.Equal(left, right)
			if op == "!=" {
				return !eq, true, nil
			}
			return eq, true, nil
		}
		c, err := eval.Compare(left, right)
		if err != nil {
			return nil, true, err
		}
		switch op {
		case "<":
			return c < 0, true, nil
		case "<=":
			return c <= 0, true, nil
		case ">":
			return c > 0, true, nil
		case ">=":
			return c >= 0, true, nil
		}
	}
	return nil, false, nil
}

// evalBetween matches "<operand> between <operand> and <operand>", the same
// grammar as ast.BinaryExpr's Op == "between" (spec §4.3).
func evalBetween(ctx *eval.Context, s string) (any, bool, error) {
	bi := indexWord(s, "between")
	if bi < 0 {
		return nil, false, nil
	}
	rest := s[bi+len("between"):]
	ai := indexWord(rest, "and")
	if ai < 0 {
		return nil, false, nil
	}
	value, vok := evalOperand(ctx, s[:bi])
	if !vok {
		return nil, false, nil
	}
	lo, lok := evalOperand(ctx, rest[:ai])
	if !lok {
		return nil, false, nil
	}
	hi, hok := evalOperand(ctx, rest[ai+len("and"):])
	if !hok {
		return nil, false, nil
	}
	c1, err := eval.Compare(value, lo)
	if err != nil {
		return nil, true, err
	}
	c2, err := eval.Compare(value, hi)
	if err != nil {
		return nil, true, err
	}
	return c1 >= 0 && c2 <= 0, true, nil
}

// evalIn matches "<operand> in [<operand>, <operand>, ...]".
func evalIn(ctx *eval.Context, s string) (any, bool, error) {
	ii := indexWord(s, "in")
	if ii < 0 {
		return nil, false, nil
	}
	left := strings.TrimSpace(s[:ii])
	right := strings.TrimSpace(s[ii+len("in"):])
	if !strings.HasPrefix(right, "[") || !strings.HasSuffix(right, "]") {
		return nil, false, nil
	}
	value, vok := evalOperand(ctx, left)
	if !vok {
		return nil, false, nil
	}
	inner := right[1 : len(right)-1]
	var elems []string
	if strings.TrimSpace(inner) != "" {
		elems = strings.Split(inner, ",")
	}
	for _, e := range elems {
		item, ok := evalOperand(ctx, strings.TrimSpace(e))
		if !ok {
			return nil, false, nil
		}
		if eval.Equal(value, item) {
			return true, true, nil
		}
	}
	return false, true, nil
}

// evalJoin matches "<atom> and <atom> [and ...]" / "<atom> or <atom> [or
// ...]", evaluating each atom independently. A string mixing both "and" and
// "or" at the top level needs real operator precedence, which is outside
// this fast path's scope - it reports not-ok so the caller falls back to
// the full parser rather than risk disagreeing with it.
func evalJoin(ctx *eval.Context, s string) (any, bool, error) {
	andParts, andOK := splitWord(s, "and")
	orParts, orOK := splitWord(s, "or")
	if andOK && orOK {
		return nil, false, nil
	}
	if andOK {
		return foldJoin(ctx, andParts, true)
	}
	if orOK {
		return foldJoin(ctx, orParts, false)
	}
	return nil, false, nil
}

func foldJoin(ctx *eval.Context, parts []string, and bool) (any, bool, error) {
	result := and
	for _, p := range parts {
		v, ok, err := evalExpr(ctx, strings.TrimSpace(p))
		if err != nil {
			return nil, true, err
		}
		if !ok {
			return nil, false, nil
		}
		t := eval.Truthy(v)
		if and {
			result = result && t
		} else {
			result = result || t
		}
	}
	return result, true, nil
}

// indexWord returns the index of word as a whole word in s (surrounded by
// spaces or string boundaries), or -1 if absent.
func indexWord(s, word string) int {
	search := s
	offset := 0
	for {
		i := strings.Index(search, word)
		if i < 0 {
			return -1
		}
		abs := offset + i
		before := abs == 0 || search[i-1] == ' '
		after := abs+len(word) == len(s) || search[i+len(word)] == ' '
		if before && after {
			return abs
		}
		offset = abs + 1
		search = s[offset:]
	}
}

// splitWord splits s on every top-level occurrence of word as a whole word,
// skipping occurrences inside "[...]" or quoted strings. An "and" that pairs
// a preceding "between" is never a split point, even when word == "and", so
// a between clause nested inside a join survives intact. ok is false when
// word does not occur at the top level (so the caller treats s as a single
// atom rather than an empty join).
func splitWord(s, word string) ([]string, bool) {
	depth := 0
	inQuote := false
	betweenPending := false
	var parts []string
	last := 0
	i := 0
	for i < len(s) {
		switch {
		case s[i] == '"':
			inQuote = !inQuote
		case inQuote:
		case s[i] == '[':
			depth++
		case s[i] == ']':
			depth--
		case depth == 0 && isWordAt(s, i, "between"):
			betweenPending = true
			i += len("between")
			continue
		case depth == 0 && word == "and" && betweenPending && isWordAt(s, i, "and"):
			betweenPending = false
			i += len("and")
			continue
		case depth == 0 && isWordAt(s, i, word):
			parts = append(parts, s[last:i])
			i += len(word)
			last = i
			continue
		}
		i++
	}
	if len(parts) == 0 {
		return nil, false
	}
	parts = append(parts, s[last:])
	return parts, true
}

func isWordAt(s string, i int, word string) bool {
	if i+len(word) > len(s) || s[i:i+len(word)] != word {
		return false
	}
	before := i == 0 || s[i-1] == ' '
	after := i+len(word) == len(s) || s[i+len(word)] == ' '
	return before && after
}
