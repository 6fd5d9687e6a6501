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
	"math"
	"sort"

	"golang.org/x/exp/slices"

	"github.com/dmnflow/dmnflow/feel/eval"
	"github.com/dmnflow/dmnflow/xerr"
)

func init() {
	register(Descriptor{Name: "list contains", Params: []string{"list", "element"}, Return: "boolean", Impl: biListContains})
	register(Descriptor{Name: "count", Params: []string{"list"}, Return: "number", Impl: biCount})
	register(Descriptor{Name: "min", Params: []string{"list"}, Return: "number", Impl: biMin})
	register(Descriptor{Name: "max", Params: []string{"list"}, Return: "number", Impl: biMax})
	register(Descriptor{Name: "sum", Params: []string{"list"}, Return: "number", Impl: biSum})
	register(Descriptor{Name: "product", Params: []string{"list"}, Return: "number", Impl: biProduct})
	register(Descriptor{Name: "mean", Params: []string{"list"}, Return: "number", Impl: biMean})
	register(Descriptor{Name: "median", Params: []string{"list"}, Return: "number", Impl: biMedian})
	register(Descriptor{Name: "stddev", Params: []string{"list"}, Return: "number", Impl: biStddev})
	register(Descriptor{Name: "mode", Params: []string{"list"}, Return: "list", Impl: biMode})
	register(Descriptor{Name: "and", Params: []string{"list"}, Return: "boolean", Impl: biAnd})
	register(Descriptor{Name: "or", Params: []string{"list"}, Return: "boolean", Impl: biOr})
	register(Descriptor{Name: "sublist", Params: []string{"list", "start position", "length"}, Return: "list", Impl: biSublist})
	register(Descriptor{Name: "append", Params: []string{"list", "item"}, Return: "list", Impl: biAppend})
	register(Descriptor{Name: "concatenate", Params: []string{"lists"}, Return: "list", Impl: biConcatenate})
	register(Descriptor{Name: "insert before", Params: []string{"list", "position", "newItem"}, Return: "list", Impl: biInsertBefore})
	register(Descriptor{Name: "remove", Params: []string{"list", "position"}, Return: "list", Impl: biRemove})
	register(Descriptor{Name: "reverse", Params: []string{"list"}, Return: "list", Impl: biReverse})
	register(Descriptor{Name: "index of", Params: []string{"list", "match"}, Return: "list", Impl: biIndexOf})
	register(Descriptor{Name: "union", Params: []string{"lists"}, Return: "list", Impl: biUnion})
	register(Descriptor{Name: "distinct values", Params: []string{"list"}, Return: "list", Impl: biDistinctValues})
	register(Descriptor{Name: "flatten", Params: []string{"list"}, Return: "list", Impl: biFlatten})
	register(Descriptor{Name: "sort", Params: []string{"list", "precedes"}, Return: "list", Impl: biSort})
	register(Descriptor{Name: "string join", Params: []string{"list", "delimiter"}, Return: "string", Impl: biStringJoin})
	register(Descriptor{Name: "join", Params: []string{"list", "delimiter"}, Return: "string", Impl: biStringJoin})
}

func valuesEqual(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return as == bs
	}
	ab, abok := a.(bool)
	bb, bbok := b.(bool)
	if abok && bbok {
		return ab == bb
	}
	return a == nil && b == nil
}

func biListContains(args []any) (any, error) {
	if err := argCount("list contains", args, 2); err != nil {
		return nil, err
	}
	list, err := argList("list contains", args, 0)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		if valuesEqual(v, args[1]) {
			return true, nil
		}
	}
	return false, nil
}

func biCount(args []any) (any, error) {
	list, err := argList("count", args, 0)
	if err != nil {
		return nil, err
	}
	return float64(len(list)), nil
}

func biMin(args []any) (any, error) {
	list, err := argList("min", args, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	nums, err := numbersOf("min", list)
	if err != nil {
		return nil, err
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m, nil
}

func biMax(args []any) (any, error) {
	list, err := argList("max", args, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	nums, err := numbersOf("max", list)
	if err != nil {
		return nil, err
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m, nil
}

func biSum(args []any) (any, error) {
	list, err := argList("sum", args, 0)
	if err != nil {
		return nil, err
	}
	nums, err := numbersOf("sum", list)
	if err != nil {
		return nil, err
	}
	var s float64
	for _, n := range nums {
		s += n
	}
	return s, nil
}

func biProduct(args []any) (any, error) {
	list, err := argList("product", args, 0)
	if err != nil {
		return nil, err
	}
	nums, err := numbersOf("product", list)
	if err != nil {
		return nil, err
	}
	p := 1.0
	for _, n := range nums {
		p *= n
	}
	return p, nil
}

func biMean(args []any) (any, error) {
	list, err := argList("mean", args, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	nums, err := numbersOf("mean", list)
	if err != nil {
		return nil, err
	}
	var s float64
	for _, n := range nums {
		s += n
	}
	return s / float64(len(nums)), nil
}

func biMedian(args []any) (any, error) {
	list, err := argList("median", args, 0)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	nums, err := numbersOf("median", list)
	if err != nil {
		return nil, err
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

func biStddev(args []any) (any, error) {
	list, err := argList("stddev", args, 0)
	if err != nil {
		return nil, err
	}
	if len(list) < 2 {
		return nil, nil
	}
	nums, err := numbersOf("stddev", list)
	if err != nil {
		return nil, err
	}
	var mean float64
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	var variance float64
	for _, n := range nums {
		variance += (n - mean) * (n - mean)
	}
	variance /= float64(len(nums) - 1)
	return math.Sqrt(variance), nil
}

func biMode(args []any) (any, error) {
	list, err := argList("mode", args, 0)
	if err != nil {
		return nil, err
	}
	nums, err := numbersOf("mode", list)
	if err != nil {
		return nil, err
	}
	counts := map[float64]int{}
	for _, n := range nums {
		counts[n]++
	}
	best := 0
	for _, c := range counts {
		if c > best {
			best = c
		}
	}
	var modes []float64
	for n, c := range counts {
		if c == best {
			modes = append(modes, n)
		}
	}
	sort.Float64s(modes)
	out := make([]any, len(modes))
	for i, m := range modes {
		out[i] = m
	}
	return out, nil
}

func biAnd(args []any) (any, error) {
	list, err := argList("and", args, 0)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		b, ok := v.(bool)
		if !ok || !b {
			return false, nil
		}
	}
	return true, nil
}

func biOr(args []any) (any, error) {
	list, err := argList("or", args, 0)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		if b, ok := v.(bool); ok && b {
			return true, nil
		}
	}
	return false, nil
}

func biSublist(args []any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, wrongArgs("sublist", "expected 2 or 3 arguments, got %d", len(args))
	}
	list, err := argList("sublist", args, 0)
	if err != nil {
		return nil, err
	}
	startF, err := argNumber("sublist", args, 1)
	if err != nil {
		return nil, err
	}
	start := clampIndex(int(startF), len(list))
	if start >= len(list) {
		return []any{}, nil
	}
	end := len(list)
	if len(args) == 3 {
		lengthF, err := argNumber("sublist", args, 2)
		if err != nil {
			return nil, err
		}
		end = start + int(lengthF)
		if end > len(list) {
			end = len(list)
		}
	}
	if end < start {
		return []any{}, nil
	}
	out := append([]any(nil), list[start:end]...)
	return out, nil
}

func biAppend(args []any) (any, error) {
	if len(args) < 1 {
		return nil, wrongArgs("append", "expected at least 1 argument, got 0")
	}
	list, err := argList("append", args, 0)
	if err != nil {
		return nil, err
	}
	out := append([]any(nil), list...)
	out = append(out, args[1:]...)
	return out, nil
}

func biConcatenate(args []any) (any, error) {
	var out []any
	for i, a := range args {
		l, ok := a.([]any)
		if !ok {
			return nil, wrongArgs("concatenate", "argument %d is not a list: %T", i, a)
		}
		out = append(out, l...)
	}
	return out, nil
}

func biInsertBefore(args []any) (any, error) {
	if err := argCount("insert before", args, 3); err != nil {
		return nil, err
	}
	list, err := argList("insert before", args, 0)
	if err != nil {
		return nil, err
	}
	posF, err := argNumber("insert before", args, 1)
	if err != nil {
		return nil, err
	}
	pos := clampIndex(int(posF), len(list)+1)
	if pos > len(list) {
		pos = len(list)
	}
	out := make([]any, 0, len(list)+1)
	out = append(out, list[:pos]...)
	out = append(out, args[2])
	out = append(out, list[pos:]...)
	return out, nil
}

func biRemove(args []any) (any, error) {
	if err := argCount("remove", args, 2); err != nil {
		return nil, err
	}
	list, err := argList("remove", args, 0)
	if err != nil {
		return nil, err
	}
	posF, err := argNumber("remove", args, 1)
	if err != nil {
		return nil, err
	}
	pos := clampIndex(int(posF), len(list))
	if pos < 0 || pos >= len(list) {
		return append([]any(nil), list...), nil
	}
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:pos]...)
	out = append(out, list[pos+1:]...)
	return out, nil
}

func biReverse(args []any) (any, error) {
	list, err := argList("reverse", args, 0)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(list)
	slices.Reverse(out)
	return out, nil
}

func biIndexOf(args []any) (any, error) {
	if err := argCount("index of", args, 2); err != nil {
		return nil, err
	}
	list, err := argList("index of", args, 0)
	if err != nil {
		return nil, err
	}
	var out []any
	for i, v := range list {
		if valuesEqual(v, args[1]) {
			out = append(out, float64(i+1))
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

func biUnion(args []any) (any, error) {
	var combined []any
	for i, a := range args {
		l, ok := a.([]any)
		if !ok {
			return nil, wrongArgs("union", "argument %d is not a list: %T", i, a)
		}
		combined = append(combined, l...)
	}
	return dedupe(combined), nil
}

func biDistinctValues(args []any) (any, error) {
	list, err := argList("distinct values", args, 0)
	if err != nil {
		return nil, err
	}
	return dedupe(list), nil
}

// dedupe uses FEEL equality (valuesEqual), not Go's ==, so it can't delegate
// to a generic comparable-keyed set type - this stays a plain O(n^2) scan.
func dedupe(list []any) []any {
	out := make([]any, 0, len(list))
	for _, v := range list {
		found := false
		for _, seen := range out {
			if valuesEqual(v, seen) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return out
}

func biFlatten(args []any) (any, error) {
	list, err := argList("flatten", args, 0)
	if err != nil {
		return nil, err
	}
	return flattenDeep(list), nil
}

func flattenDeep(list []any) []any {
	out := make([]any, 0, len(list))
	for _, v := range list {
		if nested, ok := v.([]any); ok {
			out = append(out, flattenDeep(nested)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func biSort(args []any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongArgs("sort", "expected 1 or 2 arguments, got %d", len(args))
	}
	list, err := argList("sort", args, 0)
	if err != nil {
		return nil, err
	}
	out := append([]any(nil), list...)
	if len(args) == 2 {
		precedes, ok := args[1].(eval.Func)
		if !ok {
			return nil, wrongArgs("sort", "argument 1 is not a function: %T", args[1])
		}
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			res, err := precedes([]any{out[i], out[j]})
			if err != nil {
				sortErr = err
				return false
			}
			b, _ := res.(bool)
			return b
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return out, nil
	}
	sort.SliceStable(out, func(i, j int) bool {
		return defaultLess(out[i], out[j])
	})
	return out, nil
}

func defaultLess(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an < bn
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return as < bs
	}
	return false
}

func biStringJoin(args []any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongArgs("string join", "expected 1 or 2 arguments, got %d", len(args))
	}
	list, err := argList("string join", args, 0)
	if err != nil {
		return nil, err
	}
	delim := ""
	if len(args) == 2 {
		delim, err = argString("string join", args, 1)
		if err != nil {
			return nil, err
		}
	}
	parts := make([]string, 0, len(list))
	for i, v := range list {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, xerr.ErrEvaluation(xerr.TypeError, "string join: element %d is not a string: %T", i, v)
		}
		parts = append(parts, s)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += delim
		}
		out += p
	}
	return out, nil
}
