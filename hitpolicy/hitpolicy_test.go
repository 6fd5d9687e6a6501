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

package hitpolicy

import "testing"

func rr(idx int, id string, matched bool, outputs map[string]any) RuleResult {
	return RuleResult{RuleIndex: idx, RuleID: id, Matched: matched, Outputs: outputs}
}

func TestNewUnknownPolicy(t *testing.T) {
	if _, err := New(Policy("BOGUS"), ""); err == nil {
		t.Error("expected an error for an unrecognized policy")
	}
}

func TestUniqueHandler(t *testing.T) {
	h, err := New(Unique, "")
	if err != nil {
		t.Fatal(err)
	}
	results := []RuleResult{
		rr(0, "r1", false, nil),
		rr(1, "r2", true, map[string]any{"out": "a"}),
	}
	out, err := h.Handle(results)
	if err != nil || !out.HasMatch {
		t.Fatalf("Handle: %v %v", out, err)
	}
	if got, ok := out.Output.(map[string]any); !ok || got["out"] != "a" {
		t.Errorf("Output = %v", out.Output)
	}

	rv, ok := IsRuleValidityBehavior(h)
	if !ok {
		t.Fatal("UNIQUE must implement RuleValidityEvaluator")
	}
	matched := matchedOf(results)
	if valid, _ := rv.EvaluateRuleValidity(matched, true); !valid {
		t.Error("single match should be valid")
	}
	matched = append(matched, rr(2, "r3", true, map[string]any{"out": "b"}))
	if valid, msg := rv.EvaluateRuleValidity(matched, true); valid || msg == "" {
		t.Error("two matches should violate UNIQUE")
	}

	dc, ok := IsComposeDecisionResultsBehavior(h)
	if !ok {
		t.Fatal("UNIQUE must implement DecisionComposer")
	}
	var notes []string
	merged, err := dc.ComposeDecisionResults(ComposeContext{Matched: matched, StrictMode: false, ValidationNotes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	m := merged.(map[string]any)
	if m["out"] != "b" {
		t.Errorf("non-strict merge should keep the last non-null value, got %v", m["out"])
	}
	if len(notes) == 0 {
		t.Error("expected a validation note for the non-strict merge")
	}
}

func TestFirstHandler(t *testing.T) {
	h, _ := New(First, "")
	results := []RuleResult{
		rr(0, "r1", false, nil),
		rr(1, "r2", true, map[string]any{"out": "first"}),
		rr(2, "r3", true, map[string]any{"out": "second"}),
	}
	out, err := h.Handle(results)
	if err != nil || !out.HasMatch {
		t.Fatalf("Handle: %v %v", out, err)
	}
	if out.Output.(map[string]any)["out"] != "first" {
		t.Errorf("FIRST must stop at the first match, got %v", out.Output)
	}

	ce, ok := IsContinueEvaluatingBehavior(h)
	if !ok {
		t.Fatal("FIRST must implement ContinueEvaluating")
	}
	if cont, _ := ce.ShouldContinueEvaluating(true); cont {
		t.Error("FIRST must stop once a rule matches")
	}
	if cont, _ := ce.ShouldContinueEvaluating(false); !cont {
		t.Error("FIRST must keep going when a rule has not matched")
	}
}

func TestPriorityHandler(t *testing.T) {
	h, _ := New(Priority, "")
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"risk": "low"}),
		rr(1, "r2", true, map[string]any{"risk": "high"}),
	}
	dc := h.(DecisionComposer)
	out, err := dc.ComposeDecisionResults(ComposeContext{
		Matched:        matched,
		OutputPriority: map[string][]any{"risk": {"high", "medium", "low"}},
		StrictMode:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["risk"] != "high" {
		t.Errorf("PRIORITY should pick the highest-ranked output, got %v", out)
	}

	if _, err := dc.ComposeDecisionResults(ComposeContext{Matched: matched, StrictMode: true}); err == nil {
		t.Error("missing priority list under strict mode must error")
	}

	var notes []string
	out, err = dc.ComposeDecisionResults(ComposeContext{Matched: matched, StrictMode: false, ValidationNotes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["risk"] != "low" {
		t.Errorf("non-strict fallback should take the first match, got %v", out)
	}
	if len(notes) == 0 {
		t.Error("expected a validation note for the missing priority list fallback")
	}
}

func TestAnyHandler(t *testing.T) {
	h, _ := New(Any, "")
	agreeing := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": "x"}),
		rr(1, "r2", true, map[string]any{"out": "x"}),
	}
	rv := h.(RuleValidityEvaluator)
	if valid, msg := rv.EvaluateRuleValidity(agreeing, true); !valid {
		t.Errorf("agreeing matches should be valid, got msg %q", msg)
	}

	disagreeing := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": "x"}),
		rr(1, "r2", true, map[string]any{"out": "y"}),
	}
	if valid, msg := rv.EvaluateRuleValidity(disagreeing, true); valid || msg == "" {
		t.Error("disagreeing matches should violate ANY")
	}

	dc := h.(DecisionComposer)
	var notes []string
	out, err := dc.ComposeDecisionResults(ComposeContext{Matched: disagreeing, StrictMode: false, ValidationNotes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["out"] != "y" {
		t.Errorf("non-strict ANY should take the last match, got %v", out)
	}
	if len(notes) == 0 {
		t.Error("expected a validation note")
	}
}

func TestCollectHandlerNoAggregator(t *testing.T) {
	h, _ := New(Collect, "")
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": 1.0}),
		rr(1, "r2", true, map[string]any{"out": 2.0}),
	}
	out, err := h.Handle(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !out.MultipleResults || out.NeedsAggregation {
		t.Errorf("no-aggregator COLLECT should flag MultipleResults only, got %+v", out)
	}
	list, ok := out.Output.([]any)
	if !ok || len(list) != 2 {
		t.Errorf("expected a 2-element list, got %v", out.Output)
	}
}

func TestCollectHandlerWithAggregator(t *testing.T) {
	h, err := New(Collect, AggregatorSum)
	if err != nil {
		t.Fatal(err)
	}
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": 1.0}),
		rr(1, "r2", true, map[string]any{"out": 2.0}),
		rr(2, "r3", true, map[string]any{"out": 3.0}),
	}
	out, err := h.Handle(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !out.NeedsAggregation {
		t.Error("COLLECT with an aggregator must flag NeedsAggregation")
	}
	dc := h.(DecisionComposer)
	composed, err := dc.ComposeDecisionResults(ComposeContext{Matched: matched})
	if err != nil {
		t.Fatal(err)
	}
	if composed.(map[string]any)["out"] != 6.0 {
		t.Errorf("SUM should be 6.0, got %v", composed)
	}
}

func TestAggregate(t *testing.T) {
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": 10.0}),
		rr(1, "r2", true, map[string]any{"out": 20.0}),
		rr(2, "r3", true, map[string]any{"out": 5.0}),
	}
	cases := []struct {
		aggregator string
		want       any
	}{
		{AggregatorSum, 35.0},
		{AggregatorMin, 5.0},
		{AggregatorMax, 20.0},
		{AggregatorCount, 3.0},
	}
	for _, tc := range cases {
		out := Aggregate(matched, tc.aggregator)
		if out["out"] != tc.want {
			t.Errorf("%s: got %v, want %v", tc.aggregator, out["out"], tc.want)
		}
	}
}

func TestCollectForceDMN11Dedup(t *testing.T) {
	h, _ := New(Collect, "")
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": "x"}),
		rr(1, "r2", true, map[string]any{"out": "x"}),
		rr(2, "r3", true, map[string]any{"out": "y"}),
	}
	dc := h.(DecisionComposer)
	composed, err := dc.ComposeDecisionResults(ComposeContext{Matched: matched, ForceDMN11: true})
	if err != nil {
		t.Fatal(err)
	}
	list := composed.([]any)
	if len(list) != 2 {
		t.Errorf("expected duplicate output tuples deduped to 2, got %d: %v", len(list), list)
	}
}

func TestRuleOrderHandler(t *testing.T) {
	h, _ := New(RuleOrder, "")
	matched := []RuleResult{
		rr(2, "r3", true, map[string]any{"out": "third"}),
		rr(0, "r1", true, map[string]any{"out": "first"}),
		rr(1, "r2", true, map[string]any{"out": "second"}),
	}
	out, err := h.Handle(matched)
	if err != nil {
		t.Fatal(err)
	}
	list := out.Output.([]any)
	if list[0].(map[string]any)["out"] != "first" || list[2].(map[string]any)["out"] != "third" {
		t.Errorf("RULE_ORDER must preserve declared rule order, got %v", list)
	}
}

func TestOutputOrderHandler(t *testing.T) {
	h, _ := New(OutputOrder, "")
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"risk": "low"}),
		rr(1, "r2", true, map[string]any{"risk": "high"}),
		rr(2, "r3", true, map[string]any{"risk": "medium"}),
	}
	dc := h.(DecisionComposer)
	out, err := dc.ComposeDecisionResults(ComposeContext{
		Matched:        matched,
		OutputPriority: map[string][]any{"risk": {"high", "medium", "low"}},
		StrictMode:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	list := out.([]any)
	if list[0].(map[string]any)["risk"] != "high" || list[2].(map[string]any)["risk"] != "low" {
		t.Errorf("OUTPUT ORDER must sort by declared priority, got %v", list)
	}

	if _, err := dc.ComposeDecisionResults(ComposeContext{Matched: matched, StrictMode: true}); err == nil {
		t.Error("missing priority list under strict mode must error")
	}

	var notes []string
	out, err = dc.ComposeDecisionResults(ComposeContext{Matched: matched, StrictMode: false, ValidationNotes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	fallback := out.([]any)
	if fallback[0].(map[string]any)["risk"] != "low" {
		t.Errorf("non-strict fallback should preserve declared rule order, got %v", fallback)
	}
	if len(notes) == 0 {
		t.Error("expected a validation note for the missing priority list fallback")
	}
}

func TestUnorderedHandler(t *testing.T) {
	h, _ := New(Unordered, "")
	matched := []RuleResult{
		rr(0, "r1", true, map[string]any{"out": "a"}),
		rr(1, "r2", true, map[string]any{"out": "b"}),
	}
	out, err := h.Handle(matched)
	if err != nil {
		t.Fatal(err)
	}
	if !out.MultipleResults || len(out.Output.([]any)) != 2 {
		t.Errorf("UNORDERED should return all matches, got %+v", out)
	}
}

func TestHandlerNoMatch(t *testing.T) {
	results := []RuleResult{rr(0, "r1", false, nil), rr(1, "r2", false, nil)}
	for _, policy := range []Policy{Unique, First, Priority, Any, Collect, RuleOrder, OutputOrder, Unordered} {
		h, err := New(policy, "")
		if err != nil {
			t.Fatal(err)
		}
		out, err := h.Handle(results)
		if err != nil {
			t.Fatalf("%s: %v", policy, err)
		}
		if out.HasMatch {
			t.Errorf("%s: expected HasMatch=false with no matching rules", policy)
		}
	}
}
