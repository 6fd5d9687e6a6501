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

package audit

import "testing"

func TestNewAndRecordRule(t *testing.T) {
	c := New("d1", "loan-decision", 3, "FIRST", true, false)
	if c.DecisionID != "d1" || c.DecisionVersion != 3 || !c.StrictMode {
		t.Fatalf("unexpected container: %+v", c)
	}
	c.RecordRule(RuleTrace{RuleNumber: 1, RuleID: "r1", Matched: false})
	c.RecordRule(RuleTrace{RuleNumber: 2, RuleID: "r2", Matched: true})
	c.RecordRule(RuleTrace{RuleNumber: 3, RuleID: "r3", Matched: true})

	if c.MatchedCount() != 2 {
		t.Errorf("MatchedCount() = %d, want 2", c.MatchedCount())
	}
	ids := c.MatchedRuleIDs()
	if len(ids) != 2 || ids[0] != "r2" || ids[1] != "r3" {
		t.Errorf("MatchedRuleIDs() = %v", ids)
	}
	if len(c.RuleExecutions) != 3 {
		t.Errorf("expected declared order preserved regardless of match, got %d entries", len(c.RuleExecutions))
	}
}

func TestValidateAndSetResult(t *testing.T) {
	c := New("d1", "k", 1, "UNIQUE", false, false)
	c.Validate("UNIQUE hit policy violated: more than one rule matched")
	if c.ValidationMessage == "" {
		t.Error("expected ValidationMessage to be set")
	}
	c.SetResult(map[string]any{"out": "x"})
	if c.DecisionResult.(map[string]any)["out"] != "x" {
		t.Errorf("SetResult: got %v", c.DecisionResult)
	}
}

func TestMatchedCountEmptyContainer(t *testing.T) {
	c := New("d1", "k", 1, "ANY", true, false)
	if c.MatchedCount() != 0 {
		t.Errorf("expected 0 matches on an empty container, got %d", c.MatchedCount())
	}
	if len(c.MatchedRuleIDs()) != 0 {
		t.Error("expected no matched rule ids on an empty container")
	}
}
