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
	"fmt"
	"strings"

	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/xerr"
)

// ParseResult is C8's return shape (spec §6: "parseXml(xml) ->
// {definition, errors[], warnings[]}").
type ParseResult struct {
	Decisions []*model.Decision
	Errors    []string
	Warnings  []string
}

// Parse reads a DMN XML document (spec §4.8), locating the `definitions`
// root regardless of namespace prefix and extracting every contained
// `decision`.
func Parse(xmlBytes []byte) (ParseResult, error) {
	root, err := parseRoot(xmlBytes)
	if err != nil {
		return ParseResult{}, xerr.ErrXmlParse("malformed xml: %v", err)
	}
	if localName(root) != "definitions" {
		return ParseResult{}, xerr.ErrXmlParse("expected root element 'definitions', got %q", localName(root))
	}

	var result ParseResult
	xmlns, _ := root.attr("xmlns")
	_, warning := sniffVersion(xmlns)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	for _, d := range root.childrenNamed("decision") {
		decision, warnings := parseDecision(d)
		result.Decisions = append(result.Decisions, decision)
		result.Warnings = append(result.Warnings, warnings...)
	}

	if len(result.Decisions) == 0 {
		result.Warnings = append(result.Warnings, "definitions element contains no decision elements")
	}

	return result, nil
}

func parseDecision(d node) (*model.Decision, []string) {
	var warnings []string

	id, _ := d.attr("id")
	name, _ := d.attr("name")

	decision := &model.Decision{
		ID:   id,
		Name: name,
	}

	if descNode, ok := d.child("description"); ok {
		decision.Description = descNode.text()
	}

	table, ok := d.child("decisionTable")
	if !ok {
		warnings = append(warnings, fmt.Sprintf("decision %s has no decisionTable", id))
		return decision, warnings
	}

	hitPolicy, hpWarn := parseHitPolicy(table)
	if hpWarn != "" {
		warnings = append(warnings, hpWarn)
	}
	decision.HitPolicy = hitPolicy

	if agg, ok := table.attr("aggregation"); ok {
		normalized, aggWarn := parseAggregation(agg)
		decision.Aggregation = normalized
		if aggWarn != "" {
			warnings = append(warnings, aggWarn)
		}
	}

	for i, in := range table.childrenNamed("input") {
		decision.Inputs = append(decision.Inputs, parseInput(in, i))
	}

	for i, out := range table.childrenNamed("output") {
		decision.Outputs = append(decision.Outputs, parseOutput(out, i))
	}

	for ri, ruleNode := range table.childrenNamed("rule") {
		rule, rwarn := parseRule(ruleNode, ri, decision)
		decision.Rules = append(decision.Rules, rule)
		warnings = append(warnings, rwarn...)
	}
	decision.RuleCount = len(decision.Rules)

	return decision, warnings
}

func parseHitPolicy(table node) (string, string) {
	raw, ok := table.attr("hitPolicy")
	if !ok || raw == "" {
		return "FIRST", ""
	}
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_"))
	switch normalized {
	case "UNIQUE", "FIRST", "PRIORITY", "ANY", "COLLECT", "RULE_ORDER", "OUTPUT_ORDER", "UNORDERED":
		return normalized, ""
	default:
		return "FIRST", fmt.Sprintf("unknown hit policy %q, defaulting to FIRST", raw)
	}
}

func parseAggregation(raw string) (string, string) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch normalized {
	case "SUM", "MIN", "MAX", "COUNT":
		return normalized, ""
	default:
		return "", fmt.Sprintf("unknown aggregation %q", raw)
	}
}

func parseInput(in node, idx int) model.DecisionInput {
	id, _ := in.attr("id")
	if id == "" {
		id = fmt.Sprintf("input_%d", idx)
	}
	label, _ := in.attr("label")

	di := model.DecisionInput{ID: id, Label: label}
	if expr, ok := in.child("inputExpression"); ok {
		if typeRef, ok := expr.attr("typeRef"); ok {
			di.Type = typeRef
		}
		if textNode, ok := expr.child("text"); ok {
			di.Expression = textNode.text()
		}
	}
	return di
}

func parseOutput(out node, idx int) model.DecisionOutput {
	id, _ := out.attr("id")
	if id == "" {
		id = fmt.Sprintf("output_%d", idx)
	}
	label, _ := out.attr("label")
	name, _ := out.attr("name")
	if name == "" {
		name = id
	}
	typeRef, _ := out.attr("typeRef")

	do := model.DecisionOutput{ID: id, Label: label, Name: name, Type: typeRef}
	for _, v := range out.childrenNamed("outputValues") {
		if textNode, ok := v.child("text"); ok {
			for _, part := range splitTopLevel(textNode.text(), ',') {
				do.PriorityList = append(do.PriorityList, strings.Trim(strings.TrimSpace(part), "\""))
			}
		}
	}
	return do
}

func parseRule(ruleNode node, idx int, decision *model.Decision) (model.Rule, []string) {
	var warnings []string
	id, _ := ruleNode.attr("id")
	if id == "" {
		id = fmt.Sprintf("rule_%d", idx)
	}

	rule := model.Rule{ID: id}
	if desc, ok := ruleNode.child("description"); ok {
		rule.Description = desc.text()
	}
	if annot, ok := ruleNode.child("annotationEntry"); ok {
		rule.Annotation = annot.text()
	}

	inputEntries := ruleNode.childrenNamed("inputEntry")
	for i, entryNode := range inputEntries {
		if i >= len(decision.Inputs) {
			warnings = append(warnings, fmt.Sprintf("rule %s: inputEntry %d has no matching input column", id, i))
			continue
		}
		textNode, ok := entryNode.child("text")
		if !ok {
			continue
		}
		text := textNode.text()
		if text == "" || text == "-" {
			continue // "-" is DMN's "don't care" wildcard; no condition emitted
		}
		typeRef := decision.Inputs[i].Type
		cond := parseConditionText(text, typeRef)
		cond.InputID = decision.Inputs[i].ID
		rule.Conditions = append(rule.Conditions, cond)
	}

	outputEntries := ruleNode.childrenNamed("outputEntry")
	for i, entryNode := range outputEntries {
		if i >= len(decision.Outputs) {
			warnings = append(warnings, fmt.Sprintf("rule %s: outputEntry %d has no matching output column", id, i))
			continue
		}
		textNode, ok := entryNode.child("text")
		if !ok {
			continue
		}
		value := parseTypedValue(textNode.text(), decision.Outputs[i].Type)
		rule.Outputs = append(rule.Outputs, model.OutputEntry{OutputID: decision.Outputs[i].ID, Value: value})
	}

	return rule, warnings
}
