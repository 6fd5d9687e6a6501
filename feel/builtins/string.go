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
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/dmnflow/dmnflow/xerr"
)

func init() {
	register(Descriptor{Name: "substring", Params: []string{"string", "start position", "length"}, Return: "string", Impl: biSubstring})
	register(Descriptor{Name: "string length", Params: []string{"string"}, Return: "number", Impl: biStringLength})
	register(Descriptor{Name: "upper case", Params: []string{"string"}, Return: "string", Impl: biUpperCase})
	register(Descriptor{Name: "lower case", Params: []string{"string"}, Return: "string", Impl: biLowerCase})
	register(Descriptor{Name: "substring before", Params: []string{"string", "match"}, Return: "string", Impl: biSubstringBefore})
	register(Descriptor{Name: "substring after", Params: []string{"string", "match"}, Return: "string", Impl: biSubstringAfter})
	register(Descriptor{Name: "replace", Params: []string{"input", "pattern", "replacement", "flags"}, Return: "string", Impl: biReplace})
	register(Descriptor{Name: "contains", Params: []string{"string", "match"}, Return: "boolean", Impl: biContains})
	register(Descriptor{Name: "starts with", Params: []string{"string", "match"}, Return: "boolean", Impl: biStartsWith})
	register(Descriptor{Name: "ends with", Params: []string{"string", "match"}, Return: "boolean", Impl: biEndsWith})
	register(Descriptor{Name: "matches", Params: []string{"input", "pattern", "flags"}, Return: "boolean", Impl: biMatches})
	register(Descriptor{Name: "split", Params: []string{"string", "delimiter"}, Return: "list", Impl: biSplit})
	register(Descriptor{Name: "concat", Params: []string{"strings"}, Return: "string", Impl: biConcat})
}

func runes(s string) []rune { return []rune(s) }

// clampIndex converts a FEEL 1-based (and possibly negative, counting from
// the end) position into a 0-based rune offset, per spec §4.4's substring
// indexing rule.
func clampIndex(pos int, length int) int {
	if pos < 0 {
		pos = length + pos + 1
	}
	if pos < 1 {
		pos = 1
	}
	return pos - 1
}

func biSubstring(args []any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, wrongArgs("substring", "expected 2 or 3 arguments, got %d", len(args))
	}
	s, err := argString("substring", args, 0)
	if err != nil {
		return nil, err
	}
	startF, err := argNumber("substring", args, 1)
	if err != nil {
		return nil, err
	}
	rs := runes(s)
	start := clampIndex(int(startF), len(rs))
	if start >= len(rs) {
		return "", nil
	}
	end := len(rs)
	if len(args) == 3 {
		lengthF, err := argNumber("substring", args, 2)
		if err != nil {
			return nil, err
		}
		end = start + int(lengthF)
		if end > len(rs) {
			end = len(rs)
		}
	}
	if end < start {
		return "", nil
	}
	return string(rs[start:end]), nil
}

func biStringLength(args []any) (any, error) {
	s, err := argString("string length", args, 0)
	if err != nil {
		return nil, err
	}
	return float64(len(runes(s))), nil
}

func biUpperCase(args []any) (any, error) {
	s, err := argString("upper case", args, 0)
	if err != nil {
		return nil, err
	}
	return strings.ToUpper(s), nil
}

func biLowerCase(args []any) (any, error) {
	s, err := argString("lower case", args, 0)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s), nil
}

func biSubstringBefore(args []any) (any, error) {
	s, err := argString("substring before", args, 0)
	if err != nil {
		return nil, err
	}
	match, err := argString("substring before", args, 1)
	if err != nil {
		return nil, err
	}
	idx := strings.Index(s, match)
	if idx < 0 {
		return "", nil
	}
	return s[:idx], nil
}

func biSubstringAfter(args []any) (any, error) {
	s, err := argString("substring after", args, 0)
	if err != nil {
		return nil, err
	}
	match, err := argString("substring after", args, 1)
	if err != nil {
		return nil, err
	}
	idx := strings.Index(s, match)
	if idx < 0 {
		return "", nil
	}
	return s[idx+len(match):], nil
}

func regexOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.None
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "s") {
		opts |= regexp2.Singleline
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}
	if strings.Contains(flags, "x") {
		opts |= regexp2.IgnorePatternWhitespace
	}
	return opts
}

func biReplace(args []any) (any, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, wrongArgs("replace", "expected 3 or 4 arguments, got %d", len(args))
	}
	input, err := argString("replace", args, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := argString("replace", args, 1)
	if err != nil {
		return nil, err
	}
	replacement, err := argString("replace", args, 2)
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) == 4 {
		flags, err = argString("replace", args, 3)
		if err != nil {
			return nil, err
		}
	}
	re, rerr := regexp2.Compile(pattern, regexOptions(flags))
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "replace: invalid pattern %q: %v", pattern, rerr)
	}
	out, rerr := re.Replace(input, translateReplacement(replacement), -1, -1)
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.RuntimeError, "replace: %v", rerr)
	}
	return out, nil
}

// translateReplacement maps FEEL's $1-style backreferences to regexp2's
// ${1} syntax.
func translateReplacement(r string) string {
	var b strings.Builder
	rs := []rune(r)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '$' && i+1 < len(rs) && rs[i+1] >= '0' && rs[i+1] <= '9' {
			j := i + 1
			for j < len(rs) && rs[j] >= '0' && rs[j] <= '9' {
				j++
			}
			b.WriteString("${" + string(rs[i+1:j]) + "}")
			i = j - 1
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

func biContains(args []any) (any, error) {
	s, err := argString("contains", args, 0)
	if err != nil {
		return nil, err
	}
	match, err := argString("contains", args, 1)
	if err != nil {
		return nil, err
	}
	return strings.Contains(s, match), nil
}

func biStartsWith(args []any) (any, error) {
	s, err := argString("starts with", args, 0)
	if err != nil {
		return nil, err
	}
	match, err := argString("starts with", args, 1)
	if err != nil {
		return nil, err
	}
	return strings.HasPrefix(s, match), nil
}

func biEndsWith(args []any) (any, error) {
	s, err := argString("ends with", args, 0)
	if err != nil {
		return nil, err
	}
	match, err := argString("ends with", args, 1)
	if err != nil {
		return nil, err
	}
	return strings.HasSuffix(s, match), nil
}

func biMatches(args []any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, wrongArgs("matches", "expected 2 or 3 arguments, got %d", len(args))
	}
	input, err := argString("matches", args, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := argString("matches", args, 1)
	if err != nil {
		return nil, err
	}
	flags := ""
	if len(args) == 3 {
		flags, err = argString("matches", args, 2)
		if err != nil {
			return nil, err
		}
	}
	re, rerr := regexp2.Compile(pattern, regexOptions(flags))
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "matches: invalid pattern %q: %v", pattern, rerr)
	}
	m, rerr := re.MatchString(input)
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.RuntimeError, "matches: %v", rerr)
	}
	return m, nil
}

func biSplit(args []any) (any, error) {
	if err := argCount("split", args, 2); err != nil {
		return nil, err
	}
	s, err := argString("split", args, 0)
	if err != nil {
		return nil, err
	}
	pattern, err := argString("split", args, 1)
	if err != nil {
		return nil, err
	}
	re, rerr := regexp2.Compile(pattern, regexp2.None)
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "split: invalid pattern %q: %v", pattern, rerr)
	}
	parts, rerr := regexp2Split(re, s)
	if rerr != nil {
		return nil, xerr.ErrEvaluation(xerr.RuntimeError, "split: %v", rerr)
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func regexp2Split(re *regexp2.Regexp, s string) ([]string, error) {
	var parts []string
	last := 0
	m, err := re.FindStringMatch(s)
	for m != nil {
		if err != nil {
			return nil, err
		}
		start := m.Index
		parts = append(parts, s[last:start])
		last = start + m.Length
		m, err = re.FindNextMatch(m)
	}
	parts = append(parts, s[last:])
	return parts, nil
}

func biConcat(args []any) (any, error) {
	var b strings.Builder
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, wrongArgs("concat", "argument %d is not a string: %T", i, a)
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
