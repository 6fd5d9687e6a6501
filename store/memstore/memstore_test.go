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

package memstore

import (
	"context"
	"testing"

	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
)

func TestSaveAndFindByID(t *testing.T) {
	ctx := context.Background()
	s := NewDecisionStore()
	d := &model.Decision{DecisionKey: "k1", Version: 1, Status: model.StatusDraft}
	if err := s.Save(ctx, d); err != nil {
		t.Fatal(err)
	}
	if d.ID == "" {
		t.Fatal("expected Save to assign an id")
	}

	got, err := s.FindByID(ctx, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DecisionKey != "k1" {
		t.Errorf("DecisionKey = %q", got.DecisionKey)
	}

	if _, err := s.FindByID(ctx, "missing"); err == nil {
		t.Error("expected an error for an unknown id")
	}
}

func TestFindByIDReturnsAClone(t *testing.T) {
	ctx := context.Background()
	s := NewDecisionStore()
	d := &model.Decision{DecisionKey: "k1", Version: 1, Rules: []model.Rule{{ID: "r1"}}}
	s.Save(ctx, d)

	got, _ := s.FindByID(ctx, d.ID)
	got.Rules[0].ID = "mutated"

	again, _ := s.FindByID(ctx, d.ID)
	if again.Rules[0].ID != "r1" {
		t.Error("expected FindByID to return an independent copy, not a shared slice")
	}
}

func TestFindHighestPublishedByKey(t *testing.T) {
	ctx := context.Background()
	s := NewDecisionStore()
	s.Save(ctx, &model.Decision{DecisionKey: "k", TenantID: "t", Version: 1, Status: model.StatusPublished})
	s.Save(ctx, &model.Decision{DecisionKey: "k", TenantID: "t", Version: 3, Status: model.StatusPublished})
	s.Save(ctx, &model.Decision{DecisionKey: "k", TenantID: "t", Version: 2, Status: model.StatusDraft})

	got, err := s.FindHighestPublishedByKey(ctx, "k", "t")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 3 {
		t.Errorf("Version = %d, want 3 (highest published, draft ignored)", got.Version)
	}

	if _, err := s.FindHighestPublishedByKey(ctx, "nonexistent", "t"); err == nil {
		t.Error("expected an error when no published version exists")
	}
}

func TestDeleteRequiresExistence(t *testing.T) {
	ctx := context.Background()
	s := NewDecisionStore()
	d := &model.Decision{DecisionKey: "k"}
	s.Save(ctx, d)

	if err := s.Delete(ctx, d); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindByID(ctx, d.ID); err == nil {
		t.Error("expected the decision to be gone after Delete")
	}
	if err := s.Delete(ctx, d); err == nil {
		t.Error("expected deleting an already-deleted decision to error")
	}
}

func TestQueryFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewDecisionStore()
	for i := 0; i < 5; i++ {
		s.Save(ctx, &model.Decision{DecisionKey: "k", Category: "loans", Status: model.StatusPublished})
	}
	s.Save(ctx, &model.Decision{DecisionKey: "other", Category: "fraud", Status: model.StatusDraft})

	results, total, err := s.Query(ctx, store.DecisionFilter{Category: "loans"}, store.Page{Page: 1, Size: 3})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(results) != 3 {
		t.Errorf("page 1 size 3: got %d results", len(results))
	}

	results2, _, err := s.Query(ctx, store.DecisionFilter{Category: "loans"}, store.Page{Page: 2, Size: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results2) != 2 {
		t.Errorf("page 2 size 3: got %d results, want 2", len(results2))
	}
}

func TestExecutionStoreAppendAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewExecutionStore()
	s.Append(ctx, &model.ExecutionRecord{DecisionID: "d1", Status: model.ExecutionSuccess, ExecutionTimeMs: 10})
	s.Append(ctx, &model.ExecutionRecord{DecisionID: "d1", Status: model.ExecutionFailed, ExecutionTimeMs: 20})
	s.Append(ctx, &model.ExecutionRecord{DecisionID: "d1", Status: model.ExecutionNoMatch, ExecutionTimeMs: 30})
	s.Append(ctx, &model.ExecutionRecord{DecisionID: "d2", Status: model.ExecutionSuccess, ExecutionTimeMs: 5})

	stats, err := s.Stats(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalExecutions != 3 || stats.SuccessCount != 1 || stats.FailedCount != 1 || stats.NoMatchCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AvgExecutionMs != 20 {
		t.Errorf("AvgExecutionMs = %v, want 20", stats.AvgExecutionMs)
	}

	records, total, err := s.Query(ctx, "d1", "", store.Page{Page: 1, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(records) != 3 {
		t.Errorf("Query: total=%d len=%d, want 3/3", total, len(records))
	}
}

func TestIDGeneratorProducesUniqueIDs(t *testing.T) {
	gen := IDGenerator{}
	a := gen.NewID()
	b := gen.NewID()
	if a == "" || b == "" || a == b {
		t.Errorf("NewID() = %q, %q, want distinct non-empty ids", a, b)
	}
}
