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

// Package model holds the DMN data model (spec §3): Decision and its
// owned Rule/Condition/DecisionInput/DecisionOutput children, plus the
// append-only ExecutionRecord audit log entries. Struct-per-concept with
// validation methods living next to the type, grounded on the teacher's
// ast package (one plain struct per AST node) and index/shape.go (struct
// plus validation methods colocated).
package model

import (
	"time"

	"github.com/fatih/structs"

	"github.com/dmnflow/dmnflow/xerr"
)

// Status is a Decision's lifecycle state (spec §3 Lifecycles, invariants
// I2-I4).
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusSuspended Status = "SUSPENDED"
	StatusArchived  Status = "ARCHIVED"
)

// ExecutionStatus is an ExecutionRecord's outcome (spec §3).
type ExecutionStatus string

const (
	ExecutionSuccess  ExecutionStatus = "SUCCESS"
	ExecutionFailed   ExecutionStatus = "FAILED"
	ExecutionNoMatch  ExecutionStatus = "NO_MATCH"
)

// DecisionInput is one named input column (spec §3).
type DecisionInput struct {
	ID         string `json:"id" structs:"id"`
	Label      string `json:"label,omitempty" structs:"label"`
	Expression string `json:"expression,omitempty" structs:"expression"`
	Type       string `json:"type,omitempty" structs:"type"`
	Required   bool   `json:"required,omitempty" structs:"required"`
}

// DecisionOutput is one named output column (spec §3). PriorityList is the
// supplemental field from SPEC_FULL.md §3.1: the declared value-priority
// order consumed by the PRIORITY and OUTPUT ORDER hit policies, scoped per
// output column per the DMN 1.3 OMG spec rather than per decision.
type DecisionOutput struct {
	ID           string   `json:"id" structs:"id"`
	Label        string   `json:"label,omitempty" structs:"label"`
	Name         string   `json:"name" structs:"name"`
	Type         string   `json:"type,omitempty" structs:"type"`
	DefaultValue any      `json:"defaultValue,omitempty" structs:"defaultValue"`
	PriorityList []string `json:"priorityList,omitempty" structs:"priorityList"`
}

// Condition is one scalar predicate within a Rule (spec §3, §4.1).
type Condition struct {
	InputID  string `json:"inputId" structs:"inputId"`
	Operator string `json:"operator" structs:"operator"`
	Value    any    `json:"value" structs:"value"`
}

// OutputEntry is one rule's contribution to an output column.
type OutputEntry struct {
	OutputID string `json:"outputId" structs:"outputId"`
	Value    any    `json:"value" structs:"value"`
}

// Rule is one decision-table row (spec §3). Annotation is the supplemental
// free-text note from SPEC_FULL.md §3.1 (DMN's `description` on
// DecisionRule), carried through parse/emit/CRUD but not otherwise
// inspected.
type Rule struct {
	ID          string        `json:"id" structs:"id"`
	Conditions  []Condition   `json:"conditions" structs:"conditions"`
	Outputs     []OutputEntry `json:"outputs" structs:"outputs"`
	Priority    int           `json:"priority,omitempty" structs:"priority"`
	Description string        `json:"description,omitempty" structs:"description"`
	Annotation  string        `json:"annotation,omitempty" structs:"annotation"`
}

// Decision is the versioned decision-table template (spec §3). Category,
// Name, and Description are the supplemental human-facing fields from
// SPEC_FULL.md §3.1.
type Decision struct {
	ID              string           `json:"id" structs:"id"`
	DecisionKey     string           `json:"decisionKey" structs:"decisionKey"`
	Version         int              `json:"version" structs:"version"`
	Status          Status           `json:"status" structs:"status"`
	HitPolicy       string           `json:"hitPolicy" structs:"hitPolicy"`
	Aggregation     string           `json:"aggregation,omitempty" structs:"aggregation"`
	Inputs          []DecisionInput  `json:"inputs" structs:"inputs"`
	Outputs         []DecisionOutput `json:"outputs" structs:"outputs"`
	Rules           []Rule           `json:"rules" structs:"rules"`
	RuleCount       int              `json:"ruleCount" structs:"ruleCount"`
	Category        string           `json:"category,omitempty" structs:"category"`
	Name            string           `json:"name,omitempty" structs:"name"`
	Description     string           `json:"description,omitempty" structs:"description"`
	TenantID        string           `json:"tenantId,omitempty" structs:"tenantId"`
	PublishTime     *time.Time       `json:"publishTime,omitempty" structs:"publishTime"`
	CreateTime      time.Time        `json:"createTime" structs:"createTime"`
}

// AsMap flattens Decision into a generic map, grounded on the teacher's
// `structs.Map` usage in runtime/modules.go for exposing Go values to its
// embedded script layer - here used for JSON-agnostic CLI/table rendering.
func (d *Decision) AsMap() map[string]any {
	return structs.Map(d)
}

// InputByID looks up a DecisionInput by id.
func (d *Decision) InputByID(id string) (DecisionInput, bool) {
	for _, in := range d.Inputs {
		if in.ID == id {
			return in, true
		}
	}
	return DecisionInput{}, false
}

// OutputByID looks up a DecisionOutput by id.
func (d *Decision) OutputByID(id string) (DecisionOutput, bool) {
	for _, out := range d.Outputs {
		if out.ID == id {
			return out, true
		}
	}
	return DecisionOutput{}, false
}

// CheckRuleCount enforces I5: ruleCount == |rules|.
func (d *Decision) CheckRuleCount() error {
	if d.RuleCount != len(d.Rules) {
		return xerr.ErrInvalidRequest("decision %s: ruleCount %d does not match rule count %d", d.ID, d.RuleCount, len(d.Rules))
	}
	return nil
}

// CanDelete enforces I3: only a DRAFT may be deleted.
func (d *Decision) CanDelete() bool {
	return d.Status == StatusDraft
}

// CanPublish enforces the publish prerequisite of §3's Lifecycles: a
// decision must be DRAFT to be published.
func (d *Decision) CanPublish() bool {
	return d.Status == StatusDraft
}

// CanSuspend enforces I4: only PUBLISHED may be SUSPENDED.
func (d *Decision) CanSuspend() bool {
	return d.Status == StatusPublished
}

// CanActivate enforces I4: only SUSPENDED may be (re-)PUBLISHED via
// activate.
func (d *Decision) CanActivate() bool {
	return d.Status == StatusSuspended
}

// IsExecutable reports whether the decision may be evaluated (spec §4.7
// step 1: "the key-path requires status=PUBLISHED").
func (d *Decision) IsExecutable() bool {
	return d.Status == StatusPublished
}

// ExecutionRecord is one append-only audit-log entry (spec §3).
type ExecutionRecord struct {
	ID                string         `json:"id" structs:"id"`
	DecisionID        string         `json:"decisionId" structs:"decisionId"`
	DecisionKey       string         `json:"decisionKey" structs:"decisionKey"`
	DecisionVersion   int            `json:"decisionVersion" structs:"decisionVersion"`
	Status            ExecutionStatus `json:"status" structs:"status"`
	InputData         map[string]any `json:"inputData" structs:"inputData"`
	OutputResult      any            `json:"outputResult,omitempty" structs:"outputResult"`
	MatchedRuleIDs    []string       `json:"matchedRuleIds,omitempty" structs:"matchedRuleIds"`
	MatchedCount      int            `json:"matchedCount" structs:"matchedCount"`
	ExecutionTimeMs   int64          `json:"executionTimeMs" structs:"executionTimeMs"`
	ProcessInstanceID string         `json:"processInstanceId,omitempty" structs:"processInstanceId"`
	ActivityID        string         `json:"activityId,omitempty" structs:"activityId"`
	TaskID            string         `json:"taskId,omitempty" structs:"taskId"`
	TenantID          string         `json:"tenantId,omitempty" structs:"tenantId"`
	ErrorMessage      string         `json:"errorMessage,omitempty" structs:"errorMessage"`
	ErrorDetails      string         `json:"errorDetails,omitempty" structs:"errorDetails"`
	AuditContainer    any            `json:"auditContainer,omitempty" structs:"auditContainer"`
	CreateTime        time.Time      `json:"createTime" structs:"createTime"`
}

// AsMap flattens ExecutionRecord into a generic map (same rationale as
// Decision.AsMap).
func (r *ExecutionRecord) AsMap() map[string]any {
	return structs.Map(r)
}
