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

package dmnxml

import (
	"strconv"
	"strings"

	"github.com/dmnflow/dmnflow/model"
)

// parseConditionText implements spec §4.8's condition-text parsing table:
// inputEntry.text -> internal model.Condition.
func parseConditionText(text, typeRef string) model.Condition {
	t := strings.TrimSpace(text)

	for _, op := range []string{"==", ">=", "<=", ">", "<"} {
		if strings.HasPrefix(t, op) {
			expr := strings.TrimSpace(strings.TrimPrefix(t, op))
			return model.Condition{Operator: op, Value: parseTypedValue(expr, typeRef)}
		}
	}

	// spec §4.9: "!=" is emitted as "not(...)"; recognize it back to "!=".
	if strings.HasPrefix(t, "not(") && strings.HasSuffix(t, ")") {
		inner := betweenParens(t)
		return model.Condition{Operator: "!=", Value: parseTypedValue(strings.TrimSpace(inner), typeRef)}
	}

	if strings.HasPrefix(t, "in") && strings.Contains(t, "(") {
		inner := betweenParens(t)
		parts := splitTopLevel(inner, ',')
		values := make([]any, 0, len(parts))
		for _, p := range parts {
			values = append(values, parseTypedValue(strings.TrimSpace(p), typeRef))
		}
		return model.Condition{Operator: "in", Value: values}
	}

	if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") && strings.Contains(t, "..") {
		inner := t[1 : len(t)-1]
		return parseBetween(inner, typeRef)
	}

	if strings.Contains(t, "..") {
		return parseBetween(t, typeRef)
	}

	return model.Condition{Operator: "==", Value: parseTypedValue(t, typeRef)}
}

func parseBetween(t, typeRef string) model.Condition {
	idx := strings.Index(t, "..")
	lo := strings.TrimSpace(t[:idx])
	hi := strings.TrimSpace(t[idx+2:])
	return model.Condition{
		Operator: "between",
		Value:    []any{parseTypedValue(lo, typeRef), parseTypedValue(hi, typeRef)},
	}
}

func betweenParens(t string) string {
	start := strings.Index(t, "(")
	end := strings.LastIndex(t, ")")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return t[start+1 : end]
}

// splitTopLevel splits on sep, ignoring separators inside matching quotes.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == sep && !inQuote:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// parseTypedValue strips matching quotes, then coerces by typeRef
// (spec §4.8: "int-family -> integer, float-family -> float, boolean ->
// boolean by literal match; absent type -> auto").
func parseTypedValue(s string, typeRef string) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	switch strings.ToLower(typeRef) {
	case "integer", "int", "long":
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return float64(n)
		}
		return s
	case "double", "float", "decimal", "number":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	case "boolean", "bool":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "null", "":
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// renderConditionText implements spec §4.9's "inverse of parser rules".
func renderConditionText(c model.Condition) string {
	switch c.Operator {
	case "!=":
		return "not(" + renderValue(c.Value) + ")"
	case "between":
		pair, ok := c.Value.([]any)
		if ok && len(pair) == 2 {
			return "[" + renderValue(pair[0]) + ".." + renderValue(pair[1]) + "]"
		}
		return renderValue(c.Value)
	case "in":
		list, ok := c.Value.([]any)
		if !ok {
			return renderValue(c.Value)
		}
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, renderValue(v))
		}
		return "in(" + strings.Join(parts, ", ") + ")"
	case "==":
		return renderValue(c.Value)
	default:
		return c.Operator + " " + renderValue(c.Value)
	}
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "\"" + t + "\""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}
