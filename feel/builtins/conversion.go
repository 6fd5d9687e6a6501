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
	"strconv"
	"strings"
	"time"
)

func init() {
	register(Descriptor{Name: "string", Params: []string{"from"}, Return: "string", Impl: biString})
	register(Descriptor{Name: "boolean", Params: []string{"from"}, Return: "boolean", Impl: biBoolean})
}

func biString(args []any) (any, error) {
	if err := argCount("string", args, 1); err != nil {
		return nil, err
	}
	v := args[0]
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return formatScalarNumber(t), nil
	case time.Time:
		return t.Format(time.RFC3339), nil
	case time.Duration:
		return t.String(), nil
	default:
		return formatAny(v), nil
	}
}

func formatScalarNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func biBoolean(args []any) (any, error) {
	if err := argCount("boolean", args, 1); err != nil {
		return nil, err
	}
	v := args[0]
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "0", "false", "no":
			return false, nil
		case "true", "yes", "1":
			return true, nil
		default:
			return false, nil
		}
	default:
		return true, nil
	}
}
