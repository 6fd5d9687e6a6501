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
	"strconv"
	"strings"

	"github.com/dmnflow/dmnflow/xerr"
)

func init() {
	register(Descriptor{Name: "abs", Params: []string{"n"}, Return: "number", Impl: biAbs})
	register(Descriptor{Name: "ceiling", Params: []string{"n"}, Return: "number", Impl: biCeiling})
	register(Descriptor{Name: "floor", Params: []string{"n"}, Return: "number", Impl: biFloor})
	register(Descriptor{Name: "integer", Params: []string{"n"}, Return: "number", Impl: biInteger})
	register(Descriptor{Name: "modulo", Params: []string{"dividend", "divisor"}, Return: "number", Impl: biModulo})
	register(Descriptor{Name: "power", Params: []string{"base", "exponent"}, Return: "number", Impl: biPower})
	register(Descriptor{Name: "round", Params: []string{"n", "scale"}, Return: "number", Impl: biRound})
	register(Descriptor{Name: "sqrt", Params: []string{"n"}, Return: "number", Impl: biSqrt})
	register(Descriptor{Name: "number", Params: []string{"s"}, Return: "number", Impl: biNumber})
	register(Descriptor{Name: "decimal", Params: []string{"n", "scale"}, Return: "number", Impl: biDecimal})
}

func biAbs(args []any) (any, error) {
	n, err := argNumber("abs", args, 0)
	if err != nil {
		return nil, err
	}
	return math.Abs(n), nil
}

func biCeiling(args []any) (any, error) {
	n, err := argNumber("ceiling", args, 0)
	if err != nil {
		return nil, err
	}
	return math.Ceil(n), nil
}

func biFloor(args []any) (any, error) {
	n, err := argNumber("floor", args, 0)
	if err != nil {
		return nil, err
	}
	return math.Floor(n), nil
}

func biInteger(args []any) (any, error) {
	n, err := argNumber("integer", args, 0)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return math.Ceil(n), nil
	}
	return math.Floor(n), nil
}

func biModulo(args []any) (any, error) {
	if err := argCount("modulo", args, 2); err != nil {
		return nil, err
	}
	a, err := argNumber("modulo", args, 0)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("modulo", args, 1)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, xerr.ErrEvaluation(xerr.DivisionByZero, "modulo: divisor is zero")
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m, nil
}

func biPower(args []any) (any, error) {
	if err := argCount("power", args, 2); err != nil {
		return nil, err
	}
	base, err := argNumber("power", args, 0)
	if err != nil {
		return nil, err
	}
	exp, err := argNumber("power", args, 1)
	if err != nil {
		return nil, err
	}
	return math.Pow(base, exp), nil
}

func biRound(args []any) (any, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, wrongArgs("round", "expected 1 or 2 arguments, got %d", len(args))
	}
	n, err := argNumber("round", args, 0)
	if err != nil {
		return nil, err
	}
	scale := 0.0
	if len(args) == 2 {
		scale, err = argNumber("round", args, 1)
		if err != nil {
			return nil, err
		}
	}
	factor := math.Pow(10, scale)
	shifted := n * factor
	var rounded float64
	if shifted >= 0 {
		rounded = math.Floor(shifted + 0.5)
	} else {
		rounded = math.Ceil(shifted - 0.5)
	}
	return rounded / factor, nil
}

func biSqrt(args []any) (any, error) {
	n, err := argNumber("sqrt", args, 0)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "sqrt: argument must be non-negative, got %v", n)
	}
	return math.Sqrt(n), nil
}

func biNumber(args []any) (any, error) {
	s, err := argString("number", args, 0)
	if err != nil {
		return nil, err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "number: %q is not a valid number literal", s)
	}
	return f, nil
}

func biDecimal(args []any) (any, error) {
	return biRound(args)
}
