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

package builtins

import (
	"fmt"
	"strconv"

	"github.com/dmnflow/dmnflow/xerr"
)

func wrongArgs(fn string, format string, args ...any) error {
	return xerr.ErrEvaluation(xerr.InvalidArguments, "%s: "+format, append([]any{fn}, args...)...)
}

func argCount(fn string, args []any, want int) error {
	if len(args) != want {
		return wrongArgs(fn, "expected %d argument(s), got %d", want, len(args))
	}
	return nil
}

func argNumber(fn string, args []any, i int) (float64, error) {
	if i >= len(args) {
		return 0, wrongArgs(fn, "missing argument %d", i)
	}
	switch v := args[i].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, wrongArgs(fn, "argument %d is not numeric: %q", i, v)
		}
		return f, nil
	default:
		return 0, wrongArgs(fn, "argument %d is not numeric: %T", i, v)
	}
}

func argString(fn string, args []any, i int) (string, error) {
	if i >= len(args) {
		return "", wrongArgs(fn, "missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", wrongArgs(fn, "argument %d is not a string: %T", i, args[i])
	}
	return s, nil
}

func argList(fn string, args []any, i int) ([]any, error) {
	if i >= len(args) {
		return nil, wrongArgs(fn, "missing argument %d", i)
	}
	l, ok := args[i].([]any)
	if !ok {
		return nil, wrongArgs(fn, "argument %d is not a list: %T", i, args[i])
	}
	return l, nil
}

func numbersOf(fn string, list []any) ([]float64, error) {
	out := make([]float64, 0, len(list))
	for idx, v := range list {
		f, ok := toNumber(v)
		if !ok {
			return nil, wrongArgs(fn, "element %d is not numeric: %T", idx, v)
		}
		out = append(out, f)
	}
	return out, nil
}

func toNumber(v any) (float64, bool) {
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

func formatAny(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
