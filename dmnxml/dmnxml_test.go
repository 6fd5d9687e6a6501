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
	"strings"
	"testing"

	"github.com/dmnflow/dmnflow/model"
)

func sampleDecision() *model.Decision {
	return &model.Decision{
		ID:          "decision_1",
		Name:        "Eligibility",
		Description: "loan eligibility check",
		HitPolicy:   "RULE_ORDER",
		Inputs: []model.DecisionInput{
			{ID: "age", Label: "Age", Type: "number"},
			{ID: "score", Label: "Score", Type: "number"},
		},
		Outputs: []model.DecisionOutput{
			{ID: "approved", Name: "approved", Type: "boolean"},
		},
		Rules: []model.Rule{
			{
				ID: "rule_0",
				Conditions: []model.Condition{
					{InputID: "age", Operator: ">=", Value: 18.0},
					{InputID: "score", Operator: "!=", Value: 0.0},
				},
				Outputs: []model.OutputEntry{{OutputID: "approved", Value: true}},
			},
			{
				ID: "rule_1",
				Conditions: []model.Condition{
					{InputID: "age", Operator: "between", Value: []any{18.0, 65.0}},
				},
				Outputs: []model.OutputEntry{{OutputID: "approved", Value: false}},
			},
		},
		RuleCount: 2,
	}
}

func TestEmitThenParseRoundTrip(t *testing.T) {
	original := sampleDecision()
	xmlBytes, err := Emit(original, DefaultEmitOptions())
	if err != nil {
		t.Fatal(err)
	}

	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(result.Decisions))
	}
	got := result.Decisions[0]

	if got.Name != original.Name {
		t.Errorf("Name = %q, want %q", got.Name, original.Name)
	}
	if got.HitPolicy != original.HitPolicy {
		t.Errorf("HitPolicy = %q, want %q", got.HitPolicy, original.HitPolicy)
	}
	if len(got.Inputs) != 2 || len(got.Outputs) != 1 {
		t.Fatalf("unexpected column counts: %d inputs, %d outputs", len(got.Inputs), len(got.Outputs))
	}
	if len(got.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got.Rules))
	}

	r0 := got.Rules[0]
	if len(r0.Conditions) != 2 {
		t.Fatalf("rule 0: expected 2 conditions, got %d", len(r0.Conditions))
	}
	if r0.Conditions[0].Operator != ">=" || r0.Conditions[0].Value != 18.0 {
		t.Errorf("rule 0 condition 0 = %+v", r0.Conditions[0])
	}
	if r0.Conditions[1].Operator != "!=" || r0.Conditions[1].Value != 0.0 {
		t.Errorf("rule 0 condition 1 = %+v", r0.Conditions[1])
	}
	if r0.Outputs[0].Value != true {
		t.Errorf("rule 0 output = %v", r0.Outputs[0].Value)
	}

	r1 := got.Rules[1]
	if len(r1.Conditions) != 1 || r1.Conditions[0].Operator != "between" {
		t.Fatalf("rule 1 condition = %+v", r1.Conditions)
	}
	pair := r1.Conditions[0].Value.([]any)
	if pair[0] != 18.0 || pair[1] != 65.0 {
		t.Errorf("rule 1 between bounds = %v", pair)
	}
}

func TestParseHitPolicyWireFormatUsesSpaces(t *testing.T) {
	d := sampleDecision()
	d.HitPolicy = "OUTPUT_ORDER"
	xmlBytes, err := Emit(d, DefaultEmitOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(xmlBytes), `hitPolicy="OUTPUT ORDER"`) {
		t.Errorf("expected wire-format hit policy with a space, got:\n%s", xmlBytes)
	}

	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	if result.Decisions[0].HitPolicy != "OUTPUT_ORDER" {
		t.Errorf("HitPolicy after round trip = %q, want OUTPUT_ORDER", result.Decisions[0].HitPolicy)
	}
}

func TestParseUnknownHitPolicyDefaultsToFirstWithWarning(t *testing.T) {
	xmlBytes := []byte(`<?xml version="1.0"?>
<definitions xmlns="https://www.omg.org/spec/DMN/20191111/MODEL/" id="d" name="d" namespace="ns">
  <decision id="d1" name="d1">
    <decisionTable id="t1" hitPolicy="BOGUS">
      <input id="x"><inputExpression id="ie"><text>x</text></inputExpression></input>
      <output id="y" name="y"/>
      <rule id="r1">
        <inputEntry id="ie1"><text>1</text></inputEntry>
        <outputEntry id="oe1"><text>1</text></outputEntry>
      </rule>
    </decisionTable>
  </decision>
</definitions>`)
	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	if result.Decisions[0].HitPolicy != "FIRST" {
		t.Errorf("HitPolicy = %q, want FIRST fallback", result.Decisions[0].HitPolicy)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "BOGUS") {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning naming the unknown hit policy")
	}
}

func TestParseMalformedXMLErrors(t *testing.T) {
	_, err := Parse([]byte("not xml at all <<<"))
	if err == nil {
		t.Fatal("expected an error for malformed xml")
	}
}

func TestParseWrongRootElementErrors(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><notDefinitions/>`))
	if err == nil {
		t.Fatal("expected an error when the root element is not 'definitions'")
	}
}

func TestParseNoDecisionsWarns(t *testing.T) {
	xmlBytes := []byte(`<?xml version="1.0"?>
<definitions xmlns="https://www.omg.org/spec/DMN/20191111/MODEL/" id="d" name="d" namespace="ns"></definitions>`)
	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Decisions) != 0 {
		t.Fatalf("expected 0 decisions, got %d", len(result.Decisions))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for an empty definitions element")
	}
}

func TestParseDashWildcardSkipsCondition(t *testing.T) {
	xmlBytes := []byte(`<?xml version="1.0"?>
<definitions xmlns="https://www.omg.org/spec/DMN/20191111/MODEL/" id="d" name="d" namespace="ns">
  <decision id="d1" name="d1">
    <decisionTable id="t1" hitPolicy="FIRST">
      <input id="x"><inputExpression id="ie"><text>x</text></inputExpression></input>
      <output id="y" name="y"/>
      <rule id="r1">
        <inputEntry id="ie1"><text>-</text></inputEntry>
        <outputEntry id="oe1"><text>1</text></outputEntry>
      </rule>
    </decisionTable>
  </decision>
</definitions>`)
	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Decisions[0].Rules[0].Conditions) != 0 {
		t.Errorf("expected the '-' wildcard entry to produce no condition, got %+v", result.Decisions[0].Rules[0].Conditions)
	}
}

func TestParseUnrecognizedNamespaceWarns(t *testing.T) {
	xmlBytes := []byte(`<?xml version="1.0"?>
<definitions xmlns="https://example.com/not-dmn" id="d" name="d" namespace="ns">
  <decision id="d1" name="d1">
    <decisionTable id="t1" hitPolicy="FIRST">
      <input id="x"><inputExpression id="ie"><text>x</text></inputExpression></input>
      <output id="y" name="y"/>
    </decisionTable>
  </decision>
</definitions>`)
	result, err := Parse(xmlBytes)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "namespace") {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning for an unrecognized DMN namespace")
	}
}

func TestSniffVersionRecognizesAllGenerations(t *testing.T) {
	cases := []struct {
		xmlns string
		want  Version
	}{
		{"https://www.omg.org/spec/DMN/20151101/dmn.xsd", Version11},
		{"https://www.omg.org/spec/DMN/20180521/MODEL/", Version12},
		{"https://www.omg.org/spec/DMN/20191111/MODEL/", Version13},
	}
	for _, tc := range cases {
		got, warning := sniffVersion(tc.xmlns)
		if got != tc.want {
			t.Errorf("sniffVersion(%q) = %q, want %q", tc.xmlns, got, tc.want)
		}
		if warning != "" {
			t.Errorf("sniffVersion(%q): unexpected warning %q", tc.xmlns, warning)
		}
	}
}

func TestRenderNotEqualUsesNotWrapper(t *testing.T) {
	c := model.Condition{Operator: "!=", Value: 0.0}
	text := renderConditionText(c)
	if text != "not(0)" {
		t.Errorf("renderConditionText(!=) = %q, want %q", text, "not(0)")
	}
	got := parseConditionText(text, "number")
	if got.Operator != "!=" || got.Value != 0.0 {
		t.Errorf("parseConditionText(%q) = %+v, want operator != and value 0", text, got)
	}
}

func TestConditionTextRoundTrip(t *testing.T) {
	cases := []model.Condition{
		{Operator: "==", Value: 5.0},
		{Operator: "!=", Value: "gold"},
		{Operator: ">", Value: 10.0},
		{Operator: ">=", Value: 10.0},
		{Operator: "<", Value: 10.0},
		{Operator: "<=", Value: 10.0},
		{Operator: "in", Value: []any{"a", "b", "c"}},
		{Operator: "between", Value: []any{1.0, 10.0}},
	}
	for _, c := range cases {
		text := renderConditionText(c)
		got := parseConditionText(text, "")
		if got.Operator != c.Operator {
			t.Errorf("operator %q: round-tripped as %q (text=%q)", c.Operator, got.Operator, text)
		}
	}
}
