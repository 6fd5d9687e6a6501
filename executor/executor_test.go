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

package executor_test

import (
	"context"
	"testing"

	"github.com/dmnflow/dmnflow/executor"
	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
	"github.com/dmnflow/dmnflow/store/memstore"
)

func uniqueDecision() *model.Decision {
	return &model.Decision{
		ID:          "d1",
		DecisionKey: "eligibility",
		Version:     1,
		Status:      model.StatusPublished,
		HitPolicy:   "UNIQUE",
		Inputs: []model.DecisionInput{
			{ID: "age", Type: "number"},
		},
		Outputs: []model.DecisionOutput{
			{ID: "approved", Name: "approved", Type: "boolean"},
		},
		Rules: []model.Rule{
			{
				ID:         "r1",
				Conditions: []model.Condition{{InputID: "age", Operator: ">=", Value: 18.0}},
				Outputs:    []model.OutputEntry{{OutputID: "approved", Value: true}},
			},
			{
				ID:         "r2",
				Conditions: []model.Condition{{InputID: "age", Operator: "<", Value: 18.0}},
				Outputs:    []model.OutputEntry{{OutputID: "approved", Value: false}},
			},
		},
		RuleCount: 2,
	}
}

func newTestExecutor(t *testing.T, d *model.Decision) (*executor.Executor, *memstore.DecisionStore) {
	t.Helper()
	decisions := memstore.NewDecisionStore()
	if err := decisions.Save(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	ex, err := executor.New(decisions, memstore.NewExecutionStore(), store.SystemClock{}, memstore.IDGenerator{}, 4)
	if err != nil {
		t.Fatal(err)
	}
	return ex, decisions
}

func TestExecuteMatchesSingleRule(t *testing.T) {
	ex, _ := newTestExecutor(t, uniqueDecision())
	result, err := ex.Execute(context.Background(), executor.ExecuteRequest{
		DecisionID: "d1",
		InputData:  map[string]any{"age": 25.0},
	}, executor.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != "success" {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if result.MatchedCount != 1 {
		t.Errorf("MatchedCount = %d, want 1", result.MatchedCount)
	}
	out := result.OutputResult.(map[string]any)
	if out["approved"] != true {
		t.Errorf("approved = %v, want true", out["approved"])
	}
	if result.Audit == nil || len(result.Audit.RuleExecutions) != 2 {
		t.Fatal("expected an audit trail covering both rules")
	}
}

func TestExecuteNoMatch(t *testing.T) {
	d := uniqueDecision()
	d.Rules = d.Rules[:1]
	d.RuleCount = 1
	ex, _ := newTestExecutor(t, d)
	result, err := ex.Execute(context.Background(), executor.ExecuteRequest{
		DecisionID: "d1",
		InputData:  map[string]any{"age": 10.0},
	}, executor.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != "no_match" {
		t.Errorf("Status = %q, want no_match", result.Status)
	}
}

func TestExecuteUnknownDecisionErrors(t *testing.T) {
	ex, _ := newTestExecutor(t, uniqueDecision())
	_, err := ex.Execute(context.Background(), executor.ExecuteRequest{DecisionID: "missing"}, executor.DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for an unknown decision id")
	}
}

func TestExecuteUniqueViolationStrictModeErrors(t *testing.T) {
	d := uniqueDecision()
	// Both rules match on overlapping conditions so UNIQUE is violated.
	d.Rules[1].Conditions[0] = model.Condition{InputID: "age", Operator: ">=", Value: 18.0}
	ex, _ := newTestExecutor(t, d)
	_, err := ex.Execute(context.Background(), executor.ExecuteRequest{
		DecisionID: "d1",
		InputData:  map[string]any{"age": 25.0},
	}, executor.DefaultOptions())
	if err == nil {
		t.Fatal("expected a policy-violation error under strict mode")
	}
}

func TestExecuteUniqueViolationNonStrictRecordsOnAudit(t *testing.T) {
	d := uniqueDecision()
	d.Rules[1].Conditions[0] = model.Condition{InputID: "age", Operator: ">=", Value: 18.0}
	ex, _ := newTestExecutor(t, d)
	opts := executor.DefaultOptions()
	opts.StrictMode = false
	result, err := ex.Execute(context.Background(), executor.ExecuteRequest{
		DecisionID: "d1",
		InputData:  map[string]any{"age": 25.0},
	}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.Audit == nil || result.Audit.ValidationMessage == "" {
		t.Error("expected a validation message recorded on the audit trail")
	}
}

func TestExecuteRejectsUnpublishedDecision(t *testing.T) {
	d := uniqueDecision()
	d.Status = model.StatusDraft
	decisions := memstore.NewDecisionStore()
	if err := decisions.Save(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	ex, err := executor.New(decisions, memstore.NewExecutionStore(), store.SystemClock{}, memstore.IDGenerator{}, 4)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ex.Execute(context.Background(), executor.ExecuteRequest{
		DecisionKey: "eligibility",
		InputData:   map[string]any{"age": 25.0},
	}, executor.DefaultOptions())
	if err == nil {
		t.Fatal("expected an error resolving by key when the only version is DRAFT")
	}
}

func TestExecuteBatchRunsAllInputs(t *testing.T) {
	ex, _ := newTestExecutor(t, uniqueDecision())
	inputs := []map[string]any{
		{"age": 25.0},
		{"age": 10.0},
		{"age": 40.0},
	}
	results := ex.ExecuteBatch(context.Background(), "d1", inputs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d is nil", i)
		}
	}
	if results[0].Status != "success" || results[1].Status != "success" || results[2].Status != "success" {
		t.Errorf("unexpected statuses: %q %q %q", results[0].Status, results[1].Status, results[2].Status)
	}
}

func TestValidateDetectsOverlap(t *testing.T) {
	d := uniqueDecision()
	d.Rules = append(d.Rules, model.Rule{
		ID:         "r3",
		Conditions: []model.Condition{{InputID: "age", Operator: ">=", Value: 18.0}},
		Outputs:    []model.OutputEntry{{OutputID: "approved", Value: true}},
	})
	d.RuleCount = 3
	ex, _ := newTestExecutor(t, d)
	result, err := ex.Validate(context.Background(), "d1")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("expected the decision to be structurally valid, got errors %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if w != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a best-effort overlap warning for two identical rule conditions under UNIQUE")
	}
}

func TestValidateDetectsUnknownReferences(t *testing.T) {
	d := uniqueDecision()
	d.Rules[0].Conditions[0].InputID = "nonexistent"
	ex, _ := newTestExecutor(t, d)
	result, err := ex.Validate(context.Background(), "d1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid {
		t.Error("expected validation to fail for a rule referencing an unknown input id")
	}
}
