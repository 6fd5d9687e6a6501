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
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmnflow/dmnflow/model"
)

// EmitOptions controls C9's output (spec §4.9).
type EmitOptions struct {
	Version      Version
	ExporterName string
	Namespace    string
}

// DefaultEmitOptions returns the 1.3 defaults.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{
		Version:      Version13,
		ExporterName: "dmnflow",
		Namespace:    "https://dmnflow.local/definitions",
	}
}

// Emit renders a Decision back to DMN XML, the inverse of Parse (spec
// §4.9). It synthesizes stable element ids (`inputEntry_<rule>_<col>`,
// `outputEntry_<rule>_<col>`) and wraps rule entry text in CDATA so that
// condition text surviving `<`/`>`/`&` round-trips unescaped.
func Emit(d *model.Decision, opts EmitOptions) ([]byte, error) {
	if opts.Namespace == "" {
		opts = DefaultEmitOptions()
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<definitions xmlns=%q xmlns:dmndi=\"https://www.omg.org/spec/DMN/20191111/DMNDI/\" "+
		"xmlns:dc=\"http://www.omg.org/spec/DMN/20180521/DC/\" xmlns:di=\"http://www.omg.org/spec/DMN/20180521/DI/\" "+
		"id=%q name=%q namespace=%q exporter=%q exporterVersion=\"1.0\">\n",
		namespaceFor(opts.Version), "definitions_"+uuid.NewString(), d.Name, opts.Namespace, opts.ExporterName)

	emitDecision(&b, d)

	b.WriteString("</definitions>\n")
	return []byte(b.String()), nil
}

func emitDecision(b *strings.Builder, d *model.Decision) {
	id := d.ID
	if id == "" {
		id = "decision_" + uuid.NewString()
	}
	fmt.Fprintf(b, "  <decision id=%q name=%q>\n", id, d.Name)
	if d.Description != "" {
		fmt.Fprintf(b, "    <description>%s</description>\n", escapeText(d.Description))
	}

	hitPolicy := strings.ReplaceAll(d.HitPolicy, "_", " ")
	aggAttr := ""
	if d.Aggregation != "" {
		aggAttr = fmt.Sprintf(" aggregation=%q", d.Aggregation)
	}
	fmt.Fprintf(b, "    <decisionTable id=%q hitPolicy=%q%s>\n", "table_"+id, hitPolicy, aggAttr)

	for i, in := range d.Inputs {
		emitInput(b, in, i)
	}
	for i, out := range d.Outputs {
		emitOutput(b, out, i)
	}
	for ri, rule := range d.Rules {
		emitRule(b, rule, ri, d)
	}

	b.WriteString("    </decisionTable>\n")
	b.WriteString("  </decision>\n")
}

func emitInput(b *strings.Builder, in model.DecisionInput, idx int) {
	id := in.ID
	if id == "" {
		id = fmt.Sprintf("input_%d", idx)
	}
	label := in.Label
	labelAttr := ""
	if label != "" {
		labelAttr = fmt.Sprintf(" label=%q", label)
	}
	fmt.Fprintf(b, "      <input id=%q%s>\n", id, labelAttr)
	typeAttr := ""
	if in.Type != "" {
		typeAttr = fmt.Sprintf(" typeRef=%q", in.Type)
	}
	fmt.Fprintf(b, "        <inputExpression id=%q%s>\n", "inputExpr_"+id, typeAttr)
	expr := in.Expression
	if expr == "" {
		expr = id
	}
	fmt.Fprintf(b, "          <text>%s</text>\n", escapeText(expr))
	b.WriteString("        </inputExpression>\n")
	b.WriteString("      </input>\n")
}

func emitOutput(b *strings.Builder, out model.DecisionOutput, idx int) {
	id := out.ID
	if id == "" {
		id = fmt.Sprintf("output_%d", idx)
	}
	name := out.Name
	if name == "" {
		name = id
	}
	attrs := fmt.Sprintf(" id=%q name=%q", id, name)
	if out.Label != "" {
		attrs += fmt.Sprintf(" label=%q", out.Label)
	}
	if out.Type != "" {
		attrs += fmt.Sprintf(" typeRef=%q", out.Type)
	}
	if len(out.PriorityList) == 0 {
		fmt.Fprintf(b, "      <output%s/>\n", attrs)
		return
	}
	fmt.Fprintf(b, "      <output%s>\n", attrs)
	quoted := make([]string, 0, len(out.PriorityList))
	for _, v := range out.PriorityList {
		quoted = append(quoted, "\""+v+"\"")
	}
	fmt.Fprintf(b, "        <outputValues><text>%s</text></outputValues>\n", escapeText(strings.Join(quoted, ", ")))
	b.WriteString("      </output>\n")
}

func emitRule(b *strings.Builder, rule model.Rule, ruleIdx int, d *model.Decision) {
	id := rule.ID
	if id == "" {
		id = "rule_" + strconv.Itoa(ruleIdx)
	}
	fmt.Fprintf(b, "      <rule id=%q>\n", id)
	if rule.Description != "" {
		fmt.Fprintf(b, "        <description>%s</description>\n", escapeText(rule.Description))
	}

	for col, in := range d.Inputs {
		text := "-"
		if cond, ok := conditionForInput(rule, in.ID); ok {
			text = renderConditionText(cond)
		}
		fmt.Fprintf(b, "        <inputEntry id=%q><text><![CDATA[%s]]></text></inputEntry>\n",
			fmt.Sprintf("inputEntry_%d_%d", ruleIdx, col), text)
	}

	for col, out := range d.Outputs {
		text := ""
		if entry, ok := outputEntryFor(rule, out.ID); ok {
			text = renderValue(entry.Value)
		}
		fmt.Fprintf(b, "        <outputEntry id=%q><text><![CDATA[%s]]></text></outputEntry>\n",
			fmt.Sprintf("outputEntry_%d_%d", ruleIdx, col), text)
	}

	if rule.Annotation != "" {
		fmt.Fprintf(b, "        <annotationEntry><text>%s</text></annotationEntry>\n", escapeText(rule.Annotation))
	}

	b.WriteString("      </rule>\n")
}

func conditionForInput(rule model.Rule, inputID string) (model.Condition, bool) {
	for _, c := range rule.Conditions {
		if c.InputID == inputID {
			return c, true
		}
	}
	return model.Condition{}, false
}

func outputEntryFor(rule model.Rule, outputID string) (model.OutputEntry, bool) {
	for _, o := range rule.Outputs {
		if o.OutputID == outputID {
			return o, true
		}
	}
	return model.OutputEntry{}, false
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
