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

// Package memstore provides in-memory reference implementations of
// store.DecisionStore and store.ExecutionStore, used by cmd/dmnctl and the
// test suite - a storage-agnostic stand-in for whatever relational layer a
// real deployment plugs in (spec §1 treats persistence as an external
// collaborator). Grounded on the teacher's loader/file.go in-process
// collection pattern, generalized to a mutex-guarded map since this layer
// must tolerate concurrent appends (spec §5).
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
	"github.com/dmnflow/dmnflow/xerr"
)

// DecisionStore is an in-memory store.DecisionStore keyed by id, with
// secondary indexing by (decisionKey, tenantId, version) done via linear
// scan - adequate for tests and the CLI harness, not a production store.
type DecisionStore struct {
	mu         sync.RWMutex
	byID       map[string]*model.Decision
}

// NewDecisionStore returns an empty in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{byID: map[string]*model.Decision{}}
}

func cloneDecision(d *model.Decision) *model.Decision {
	c := *d
	c.Inputs = append([]model.DecisionInput(nil), d.Inputs...)
	c.Outputs = append([]model.DecisionOutput(nil), d.Outputs...)
	c.Rules = append([]model.Rule(nil), d.Rules...)
	return &c
}

func (s *DecisionStore) FindByID(ctx context.Context, id string) (*model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, xerr.ErrNotFound("decision %s not found", id)
	}
	return cloneDecision(d), nil
}

func (s *DecisionStore) FindByKey(ctx context.Context, key, tenantID string, version int) (*model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.byID {
		if d.DecisionKey == key && d.TenantID == tenantID && d.Version == version {
			return cloneDecision(d), nil
		}
	}
	return nil, xerr.ErrNotFound("decision %s version %d not found", key, version)
}

func (s *DecisionStore) FindHighestPublishedByKey(ctx context.Context, key, tenantID string) (*model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *model.Decision
	for _, d := range s.byID {
		if d.DecisionKey != key || d.TenantID != tenantID || d.Status != model.StatusPublished {
			continue
		}
		if best == nil || d.Version > best.Version {
			best = d
		}
	}
	if best == nil {
		return nil, xerr.ErrNotFound("no published decision for key %s", key)
	}
	return cloneDecision(best), nil
}

func (s *DecisionStore) Save(ctx context.Context, d *model.Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[d.ID] = cloneDecision(d)
	return nil
}

func (s *DecisionStore) Delete(ctx context.Context, d *model.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[d.ID]; !ok {
		return xerr.ErrNotFound("decision %s not found", d.ID)
	}
	delete(s.byID, d.ID)
	return nil
}

func (s *DecisionStore) Query(ctx context.Context, filter store.DecisionFilter, page store.Page) ([]*model.Decision, int, error) {
	page = page.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.Decision, 0, len(s.byID))
	for _, d := range s.byID {
		if !matchesFilter(d, filter) {
			continue
		}
		matched = append(matched, d)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreateTime.After(matched[j].CreateTime)
	})

	total := len(matched)
	start := (page.Page - 1) * page.Size
	if start >= total {
		return []*model.Decision{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	out := make([]*model.Decision, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, cloneDecision(d))
	}
	return out, total, nil
}

func matchesFilter(d *model.Decision, f store.DecisionFilter) bool {
	if f.ID != "" && d.ID != f.ID {
		return false
	}
	if f.DecisionKey != "" && d.DecisionKey != f.DecisionKey {
		return false
	}
	if f.Name != "" && d.Name != f.Name {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.TenantID != "" && d.TenantID != f.TenantID {
		return false
	}
	if f.Version != 0 && d.Version != f.Version {
		return false
	}
	return true
}

// ExecutionStore is an in-memory, append-only store.ExecutionStore.
type ExecutionStore struct {
	mu      sync.RWMutex
	records []*model.ExecutionRecord
}

// NewExecutionStore returns an empty in-memory execution-record store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{}
}

func (s *ExecutionStore) Append(ctx context.Context, r *model.ExecutionRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *ExecutionStore) Query(ctx context.Context, decisionID, processInstanceID string, page store.Page) ([]*model.ExecutionRecord, int, error) {
	page = page.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*model.ExecutionRecord, 0, len(s.records))
	for _, r := range s.records {
		if decisionID != "" && r.DecisionID != decisionID {
			continue
		}
		if processInstanceID != "" && r.ProcessInstanceID != processInstanceID {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreateTime.After(matched[j].CreateTime)
	})

	total := len(matched)
	start := (page.Page - 1) * page.Size
	if start >= total {
		return []*model.ExecutionRecord{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *ExecutionStore) Stats(ctx context.Context, decisionID string) (store.ExecutionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats store.ExecutionStats
	var totalMs int64
	for _, r := range s.records {
		if r.DecisionID != decisionID {
			continue
		}
		stats.TotalExecutions++
		totalMs += r.ExecutionTimeMs
		switch r.Status {
		case model.ExecutionSuccess:
			stats.SuccessCount++
		case model.ExecutionFailed:
			stats.FailedCount++
		case model.ExecutionNoMatch:
			stats.NoMatchCount++
		}
	}
	if stats.TotalExecutions > 0 {
		stats.AvgExecutionMs = float64(totalMs) / float64(stats.TotalExecutions)
	}
	return stats, nil
}

// IDGenerator is a store.IDGenerator backed by google/uuid.
type IDGenerator struct{}

func (IDGenerator) NewID() string { return uuid.NewString() }
