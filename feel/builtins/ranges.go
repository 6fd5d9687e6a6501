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
	"time"

	"github.com/dmnflow/dmnflow/feel/eval"
)

func init() {
	register(Descriptor{Name: "before", Params: []string{"a", "b"}, Return: "boolean", Impl: biBefore})
	register(Descriptor{Name: "after", Params: []string{"a", "b"}, Return: "boolean", Impl: biAfter})
	register(Descriptor{Name: "meets", Params: []string{"a", "b"}, Return: "boolean", Impl: biMeets})
	register(Descriptor{Name: "met by", Params: []string{"a", "b"}, Return: "boolean", Impl: biMetBy})
	register(Descriptor{Name: "overlaps", Params: []string{"a", "b"}, Return: "boolean", Impl: biOverlaps})
	register(Descriptor{Name: "overlapped by", Params: []string{"a", "b"}, Return: "boolean", Impl: biOverlappedBy})
	register(Descriptor{Name: "finishes", Params: []string{"a", "b"}, Return: "boolean", Impl: biFinishes})
	register(Descriptor{Name: "finished by", Params: []string{"a", "b"}, Return: "boolean", Impl: biFinishedBy})
	register(Descriptor{Name: "includes", Params: []string{"a", "b"}, Return: "boolean", Impl: biIncludes})
	register(Descriptor{Name: "during", Params: []string{"a", "b"}, Return: "boolean", Impl: biDuring})
	register(Descriptor{Name: "starts", Params: []string{"a", "b"}, Return: "boolean", Impl: biStarts})
	register(Descriptor{Name: "started by", Params: []string{"a", "b"}, Return: "boolean", Impl: biStartedBy})
	register(Descriptor{Name: "coincides", Params: []string{"a", "b"}, Return: "boolean", Impl: biCoincides})
}

// cmpVal returns -1/0/1 comparing two scalar endpoints that may be numbers,
// strings, or date/times - the same scalar kinds eval.compare handles for
// `<`/`>` operators, generalized here for the range-relation builtins of
// spec §4.4.
func cmpVal(a, b any) int {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			if at.Before(bt) {
				return -1
			}
			if at.After(bt) {
				return 1
			}
			return 0
		}
	}
	return 0
}

// asInterval normalizes a or b into a point interval ([v,v] closed) if it is
// a scalar, or returns an *eval.Interval directly.
func asInterval(v any) eval.Interval {
	if iv, ok := v.(eval.Interval); ok {
		return iv
	}
	return eval.Interval{Low: v, High: v, LowClosed: true, HighClosed: true}
}

func rangeArgs(fn string, args []any) (eval.Interval, eval.Interval, error) {
	if err := argCount(fn, args, 2); err != nil {
		return eval.Interval{}, eval.Interval{}, err
	}
	return asInterval(args[0]), asInterval(args[1]), nil
}

func biBefore(args []any) (any, error) {
	a, b, err := rangeArgs("before", args)
	if err != nil {
		return nil, err
	}
	if c := cmpVal(a.High, b.Low); c < 0 {
		return true, nil
	} else if c == 0 {
		return !a.HighClosed || !b.LowClosed, nil
	}
	return false, nil
}

func biAfter(args []any) (any, error) {
	a, b, err := rangeArgs("after", args)
	if err != nil {
		return nil, err
	}
	return biBefore([]any{b, a})
}

func biMeets(args []any) (any, error) {
	a, b, err := rangeArgs("meets", args)
	if err != nil {
		return nil, err
	}
	return a.HighClosed && b.LowClosed && cmpVal(a.High, b.Low) == 0, nil
}

func biMetBy(args []any) (any, error) {
	a, b, err := rangeArgs("met by", args)
	if err != nil {
		return nil, err
	}
	return biMeets([]any{b, a})
}

func biOverlaps(args []any) (any, error) {
	a, b, err := rangeArgs("overlaps", args)
	if err != nil {
		return nil, err
	}
	lowOK := cmpVal(a.Low, b.High) < 0 || (cmpVal(a.Low, b.High) == 0 && a.LowClosed && b.HighClosed)
	highOK := cmpVal(b.Low, a.High) < 0 || (cmpVal(b.Low, a.High) == 0 && b.LowClosed && a.HighClosed)
	return lowOK && highOK, nil
}

func biOverlappedBy(args []any) (any, error) {
	a, b, err := rangeArgs("overlapped by", args)
	if err != nil {
		return nil, err
	}
	return biOverlaps([]any{b, a})
}

func biFinishes(args []any) (any, error) {
	a, b, err := rangeArgs("finishes", args)
	if err != nil {
		return nil, err
	}
	return cmpVal(a.High, b.High) == 0 && a.HighClosed == b.HighClosed &&
		(cmpVal(a.Low, b.Low) > 0 || (cmpVal(a.Low, b.Low) == 0 && !a.LowClosed && b.LowClosed)), nil
}

func biFinishedBy(args []any) (any, error) {
	a, b, err := rangeArgs("finished by", args)
	if err != nil {
		return nil, err
	}
	return biFinishes([]any{b, a})
}

func biIncludes(args []any) (any, error) {
	a, b, err := rangeArgs("includes", args)
	if err != nil {
		return nil, err
	}
	lowOK := cmpVal(a.Low, b.Low) < 0 || (cmpVal(a.Low, b.Low) == 0 && (a.LowClosed || !b.LowClosed))
	highOK := cmpVal(a.High, b.High) > 0 || (cmpVal(a.High, b.High) == 0 && (a.HighClosed || !b.HighClosed))
	return lowOK && highOK, nil
}

func biDuring(args []any) (any, error) {
	a, b, err := rangeArgs("during", args)
	if err != nil {
		return nil, err
	}
	return biIncludes([]any{b, a})
}

func biStarts(args []any) (any, error) {
	a, b, err := rangeArgs("starts", args)
	if err != nil {
		return nil, err
	}
	return cmpVal(a.Low, b.Low) == 0 && a.LowClosed == b.LowClosed &&
		(cmpVal(a.High, b.High) < 0 || (cmpVal(a.High, b.High) == 0 && !a.HighClosed && b.HighClosed)), nil
}

func biStartedBy(args []any) (any, error) {
	a, b, err := rangeArgs("started by", args)
	if err != nil {
		return nil, err
	}
	return biStarts([]any{b, a})
}

func biCoincides(args []any) (any, error) {
	a, b, err := rangeArgs("coincides", args)
	if err != nil {
		return nil, err
	}
	return cmpVal(a.Low, b.Low) == 0 && cmpVal(a.High, b.High) == 0 &&
		a.LowClosed == b.LowClosed && a.HighClosed == b.HighClosed, nil
}
