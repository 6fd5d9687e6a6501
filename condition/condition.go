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

// Package condition implements the scalar condition evaluator (spec §4.1,
// component C1): a pure function over (input value, operator, operand).
// Grounded on the teacher's constraints package - a closed, normalized
// registry of named checks dispatched by string key - generalized from the
// teacher's per-type ConstraintDefinition tables to DMN's single closed
// operator set.
package condition

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Normalize lowercases and collapses internal whitespace, so "Starts With"
// and "startswith" resolve to the same operator key (spec §4.1: "normalized
// (case-insensitive, whitespace tolerated between words)").
func Normalize(op string) string {
	fields := strings.Fields(strings.ToLower(op))
	return strings.Join(fields, "")
}

var aliases = map[string]string{
	"equals":      "==",
	"equal":       "==",
	"notequals":   "!=",
	"notequal":    "!=",
	"startswith":  "startswith",
	"endswith":    "endswith",
	"notcontains": "notcontains",
	"notin":       "notin",
	"isnull":      "isnull",
	"isnotnull":   "isnotnull",
	"isempty":     "isempty",
	"isnotempty":  "isnotempty",
}

func canonical(op string) string {
	n := Normalize(op)
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// Eval implements C1: a pure function (input value, operator, conditionValue)
// -> matched. It never returns an error - an unrecognized regex falls back
// to false, and an unknown operator falls back to equality (spec §4.1).
func Eval(logger *slog.Logger, inputValue any, operator string, conditionValue any) bool {
	op := canonical(operator)

	switch op {
	case "isnull":
		return inputValue == nil
	case "isnotnull":
		return inputValue != nil
	case "isempty":
		return isEmpty(inputValue)
	case "isnotempty":
		return !isEmpty(inputValue)
	}

	if inputValue == nil {
		// spec §4.1: "null/undefined input short-circuits: only presence
		// operators can yield true."
		return false
	}

	switch op {
	case "==":
		return equalValues(inputValue, conditionValue)
	case "!=":
		return !equalValues(inputValue, conditionValue)
	case ">", ">=", "<", "<=":
		return compareOrder(op, inputValue, conditionValue)
	case "in":
		return membership(inputValue, conditionValue)
	case "notin":
		return !membership(inputValue, conditionValue)
	case "between":
		return between(inputValue, conditionValue)
	case "contains":
		return strings.Contains(fmt.Sprint(inputValue), fmt.Sprint(conditionValue))
	case "notcontains":
		return !strings.Contains(fmt.Sprint(inputValue), fmt.Sprint(conditionValue))
	case "startswith":
		return strings.HasPrefix(fmt.Sprint(inputValue), fmt.Sprint(conditionValue))
	case "endswith":
		return strings.HasSuffix(fmt.Sprint(inputValue), fmt.Sprint(conditionValue))
	case "matches":
		return matchesRegex(fmt.Sprint(inputValue), fmt.Sprint(conditionValue))
	default:
		if logger != nil {
			logger.Warn("condition: unknown operator, falling back to equality", "operator", operator)
		}
		return equalValues(inputValue, conditionValue)
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// asNumbers reports whether both values parse as numbers, returning the
// parsed pair - spec §4.1: "numeric comparison is attempted first when
// either side parses as a number".
func asNumbers(a, b any) (float64, float64, bool) {
	af, aok := numberOf(a)
	bf, bok := numberOf(b)
	if aok && bok {
		return af, bf, true
	}
	return 0, 0, false
}

func numberOf(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func equalValues(a, b any) bool {
	if af, bf, ok := asNumbers(a, b); ok {
		return af == bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		// spec §4.1: "String equality is case-insensitive; this is a
		// deliberate, user-visible contract."
		return strings.EqualFold(as, bs)
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		return ab == bb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareOrder(op string, a, b any) bool {
	var cmp int
	if af, bf, ok := asNumbers(a, b); ok {
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		cmp = strings.Compare(as, bs)
	}
	switch op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func membership(value, list any) bool {
	items, ok := list.([]any)
	if !ok {
		return equalValues(value, list)
	}
	for _, item := range items {
		if equalValues(value, item) {
			return true
		}
	}
	return false
}

func between(value, bounds any) bool {
	pair, ok := bounds.([]any)
	if !ok || len(pair) != 2 {
		return false
	}
	lo, hi := pair[0], pair[1]
	if vf, lf, ok := asNumbers(value, lo); ok {
		if vf2, hf, ok2 := asNumbers(value, hi); ok2 {
			_ = vf2
			return vf >= lf && vf <= hf
		}
	}
	vs, ls, hs := fmt.Sprint(value), fmt.Sprint(lo), fmt.Sprint(hi)
	return strings.Compare(vs, ls) >= 0 && strings.Compare(vs, hs) <= 0
}

// matchesRegex implements the `matches` operator. It prefers the faster
// stdlib regexp engine and only falls back to regexp2 (PCRE-style, used
// elsewhere in feel/builtins for lookaheads and backreferences) when the
// stdlib RE2 syntax rejects the pattern. Either failure yields false, never
// an error (spec §4.1: "A regex that fails to compile yields false, not an
// error").
func matchesRegex(value, pattern string) bool {
	if re, err := regexp.Compile(pattern); err == nil {
		return re.MatchString(value)
	}
	re2, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return false
	}
	m, err := re2.MatchString(value)
	if err != nil {
		return false
	}
	return m
}
