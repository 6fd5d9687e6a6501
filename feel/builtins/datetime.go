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
	"regexp"
	"strconv"
	"time"

	"github.com/dmnflow/dmnflow/feel/eval"
	"github.com/dmnflow/dmnflow/xerr"
)

func init() {
	// now/today are clock-dependent and registered separately via
	// NowFunctions, bound to a Context's clock rather than this package's
	// static registry.
	register(Descriptor{Name: "date", Params: []string{"from"}, Return: "date", Impl: biDate})
	register(Descriptor{Name: "time", Params: []string{"from"}, Return: "time", Impl: biTime})
	register(Descriptor{Name: "date and time", Params: []string{"from"}, Return: "date and time", Impl: biDateAndTime})
	register(Descriptor{Name: "duration", Params: []string{"from"}, Return: "duration", Impl: biDuration})
	register(Descriptor{Name: "years and months duration", Params: []string{"from", "to"}, Return: "duration", Impl: biYearsAndMonthsDuration})
}

// NowFunctions returns the clock-dependent builtins (now, today) bound to
// clock, so the registry stays pure and evaluators can inject a fake clock
// in tests. Merge the result into a Context.Functions table alongside
// builtins.Functions().
func NowFunctions(clock func() time.Time) map[string]eval.Func {
	return map[string]eval.Func{
		"now": func(args []any) (any, error) {
			return clock(), nil
		},
		"today": func(args []any) (any, error) {
			t := clock()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
		},
	}
}

func biDate(args []any) (any, error) {
	switch len(args) {
	case 1:
		s, ok := args[0].(string)
		if ok {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "date: %q is not a valid date: %v", s, err)
			}
			return t, nil
		}
		t, ok := args[0].(time.Time)
		if ok {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		return nil, wrongArgs("date", "argument must be a string or date and time")
	case 3:
		y, err := argNumber("date", args, 0)
		if err != nil {
			return nil, err
		}
		m, err := argNumber("date", args, 1)
		if err != nil {
			return nil, err
		}
		d, err := argNumber("date", args, 2)
		if err != nil {
			return nil, err
		}
		return time.Date(int(y), time.Month(int(m)), int(d), 0, 0, 0, 0, time.UTC), nil
	default:
		return nil, wrongArgs("date", "expected 1 or 3 arguments, got %d", len(args))
	}
}

func biTime(args []any) (any, error) {
	switch len(args) {
	case 1:
		s, ok := args[0].(string)
		if !ok {
			return nil, wrongArgs("time", "argument must be a string")
		}
		for _, layout := range []string{"15:04:05", "15:04:05Z07:00", "15:04:05.999999999"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "time: %q is not a valid time literal", s)
	case 3, 4:
		h, err := argNumber("time", args, 0)
		if err != nil {
			return nil, err
		}
		m, err := argNumber("time", args, 1)
		if err != nil {
			return nil, err
		}
		s, err := argNumber("time", args, 2)
		if err != nil {
			return nil, err
		}
		loc := time.UTC
		return time.Date(1, 1, 1, int(h), int(m), int(s), 0, loc), nil
	default:
		return nil, wrongArgs("time", "expected 1, 3, or 4 arguments, got %d", len(args))
	}
}

func biDateAndTime(args []any) (any, error) {
	if len(args) == 1 {
		s, ok := args[0].(string)
		if !ok {
			return nil, wrongArgs("date and time", "argument must be a string")
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "date and time: %q is not a valid date-time literal", s)
	}
	if err := argCount("date and time", args, 2); err != nil {
		return nil, err
	}
	d, ok := args[0].(time.Time)
	if !ok {
		return nil, wrongArgs("date and time", "first argument must be a date")
	}
	t, ok := args[1].(time.Time)
	if !ok {
		return nil, wrongArgs("date and time", "second argument must be a time")
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()), nil
}

var durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// biDuration parses an ISO-8601 duration literal ("P1Y2M" / "PT1H30M") into
// a time.Duration, approximating years as 365 days and months as 30 days
// for the day-time component - spec §4.4 treats years-and-months durations
// and day-time durations as distinct value spaces, but FEEL's single
// `duration()` constructor folds both into one literal here for simplicity.
func biDuration(args []any) (any, error) {
	s, err := argString("duration", args, 0)
	if err != nil {
		return nil, err
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, xerr.ErrEvaluation(xerr.InvalidArguments, "duration: %q is not a valid ISO-8601 duration", s)
	}
	years := parseIntOr0(m[2])
	months := parseIntOr0(m[3])
	days := parseIntOr0(m[4])
	hours := parseIntOr0(m[5])
	minutes := parseIntOr0(m[6])
	seconds := parseFloatOr0(m[7])

	total := time.Duration(years)*365*24*time.Hour +
		time.Duration(months)*30*24*time.Hour +
		time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))

	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

func parseIntOr0(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloatOr0(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func biYearsAndMonthsDuration(args []any) (any, error) {
	if err := argCount("years and months duration", args, 2); err != nil {
		return nil, err
	}
	from, ok := args[0].(time.Time)
	if !ok {
		return nil, wrongArgs("years and months duration", "first argument must be a date")
	}
	to, ok := args[1].(time.Time)
	if !ok {
		return nil, wrongArgs("years and months duration", "second argument must be a date")
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return fmt.Sprintf("P%dM", months), nil
}
