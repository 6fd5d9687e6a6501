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

// Package audit builds the per-execution trace threaded through rule
// evaluation (spec §4.6, Design Note 3): an explicit accumulator struct
// that the executor creates per execution and fills with each rule's trace
// and the final result, never a thread-local or package global; the
// hit-policy handlers and condition evaluator do not receive it. Grounded on the
// teacher's runtime/trace.Node accumulator, generalized from a generic AST
// trace tree to the fixed rule/input/output record shapes DMN needs.
package audit

// InputEntry records one condition check within one rule (spec §4.6).
type InputEntry struct {
	InputID        string `json:"inputId"`
	InputValue     any    `json:"inputValue"`
	Operator       string `json:"operator"`
	ConditionValue any    `json:"conditionValue"`
	Matched        bool   `json:"matched"`
}

// OutputEntry records one output value produced by a matched rule.
type OutputEntry struct {
	OutputID    string `json:"outputId"`
	OutputValue any    `json:"outputValue"`
}

// RuleTrace records one rule's full evaluation within a decision execution.
// RuleNumber is 1-based externally per spec §3's id-numbering convention.
type RuleTrace struct {
	RuleNumber        int           `json:"ruleNumber"`
	RuleID            string        `json:"ruleId"`
	Matched           bool          `json:"matched"`
	InputEntries      []InputEntry  `json:"inputEntries,omitempty"`
	OutputEntries     []OutputEntry `json:"outputEntries,omitempty"`
	ExceptionMessage  string        `json:"exceptionMessage,omitempty"`
	ValidationMessage string        `json:"validationMessage,omitempty"`
}

// Container is the full per-execution audit trail (spec §4.6): decision
// metadata, the mode flags in effect, and every rule's trace in declared
// order. Built once per Execute call and threaded as an explicit parameter
// - never stored on a goroutine-local or package-level variable, so
// concurrent executions never share or race on one Container.
type Container struct {
	DecisionID       string      `json:"decisionId"`
	DecisionKey      string      `json:"decisionKey"`
	DecisionVersion  int         `json:"decisionVersion"`
	HitPolicy        string      `json:"hitPolicy"`
	StrictMode       bool        `json:"strictMode"`
	ForceDMN11       bool        `json:"forceDmn11"`
	RuleExecutions   []RuleTrace `json:"ruleExecutions"`
	ValidationMessage string     `json:"validationMessage,omitempty"`
	DecisionResult   any         `json:"decisionResult,omitempty"`
}

// New starts a Container for one decision execution.
func New(decisionID, decisionKey string, decisionVersion int, hitPolicy string, strictMode, forceDMN11 bool) *Container {
	return &Container{
		DecisionID:      decisionID,
		DecisionKey:     decisionKey,
		DecisionVersion: decisionVersion,
		HitPolicy:       hitPolicy,
		StrictMode:      strictMode,
		ForceDMN11:      forceDMN11,
		RuleExecutions:  make([]RuleTrace, 0),
	}
}

// RecordRule appends one rule's trace. Rule order is preserved as declared
// (spec §4.7 step 9's ordering guarantee) regardless of match outcome.
func (c *Container) RecordRule(t RuleTrace) {
	c.RuleExecutions = append(c.RuleExecutions, t)
}

// Validate annotates the container with a non-strict policy-violation
// message (spec §5: "non-strict: record on audit, continue").
func (c *Container) Validate(message string) {
	c.ValidationMessage = message
}

// SetResult records the final composed decision result for this execution.
func (c *Container) SetResult(result any) {
	c.DecisionResult = result
}

// MatchedCount returns the number of rule traces whose conditions all held.
func (c *Container) MatchedCount() int {
	n := 0
	for _, rt := range c.RuleExecutions {
		if rt.Matched {
			n++
		}
	}
	return n
}

// MatchedRuleIDs returns the ids of every matched rule, in the order they
// were recorded.
func (c *Container) MatchedRuleIDs() []string {
	ids := make([]string, 0, len(c.RuleExecutions))
	for _, rt := range c.RuleExecutions {
		if rt.Matched {
			ids = append(ids, rt.RuleID)
		}
	}
	return ids
}
