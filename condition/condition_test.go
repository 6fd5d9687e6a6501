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

package condition

import "testing"

func TestEval(t *testing.T) {
	cases := []struct {
		name      string
		input     any
		operator  string
		condition any
		want      bool
	}{
		{"numeric gte true", 25.0, ">=", 18.0, true},
		{"numeric gte false", 10.0, ">=", 18.0, false},
		{"string equality case-insensitive", "Gold", "==", "gold", true},
		{"not equals", "Gold", "!=", "silver", true},
		{"in membership", "b", "in", []any{"a", "b", "c"}, true},
		{"in non-member", "z", "in", []any{"a", "b", "c"}, false},
		{"between inclusive low", 18.0, "between", []any{18.0, 65.0}, true},
		{"between outside", 66.0, "between", []any{18.0, 65.0}, false},
		{"contains", "hello world", "contains", "wor", true},
		{"starts with", "hello", "startsWith", "he", true},
		{"ends with", "hello", "endsWith", "lo", true},
		{"matches regex", "abc123", "matches", "^[a-c]+[0-9]+$", true},
		{"is null true", nil, "isNull", nil, true},
		{"is null false on non-nil", "x", "isNull", nil, false},
		{"null short-circuits non-presence operator", nil, "==", "x", false},
		{"unknown operator falls back to equality", 5.0, "frobnicate", 5.0, true},
		{"alias equals", 1.0, "equals", 1.0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Eval(nil, tc.input, tc.operator, tc.condition)
			if got != tc.want {
				t.Errorf("Eval(%v, %q, %v) = %v, want %v", tc.input, tc.operator, tc.condition, got, tc.want)
			}
		})
	}
}

func TestEvalRegexFailureFallsBackToFalse(t *testing.T) {
	if Eval(nil, "abc", "matches", "(") {
		t.Error("an uncompilable regex must yield false, not panic or error")
	}
}
