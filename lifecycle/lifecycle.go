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

// Package lifecycle is the decision lifecycle manager (spec §4.10,
// component C10): create/update/publish/suspend/activate/version/delete
// plus query and statistics, enforcing invariants I1-I4. Grounded on the
// teacher's index/validate.go (a dedicated validation pass that collects
// errors instead of panicking) and index/commit.go (the "stage, validate,
// then commit" mutation shape), generalized here to the
// DRAFT->PUBLISHED->SUSPENDED->ARCHIVED status machine.
package lifecycle

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/pkg/errors"

	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
	"github.com/dmnflow/dmnflow/xerr"
)

// Manager is C10, wrapping a DecisionStore and ExecutionStore with the
// CRUD/lifecycle operations spec §4.10 names.
type Manager struct {
	Decisions  store.DecisionStore
	Executions store.ExecutionStore
	Clock      store.Clock
	IDs        store.IDGenerator
}

// New builds a Manager over the given collaborators.
func New(decisions store.DecisionStore, executions store.ExecutionStore, clock store.Clock, ids store.IDGenerator) *Manager {
	return &Manager{Decisions: decisions, Executions: executions, Clock: clock, IDs: ids}
}

// Create enforces I1 (key+version+tenant uniqueness) and persists a new
// DRAFT decision at version 1.
func (m *Manager) Create(ctx context.Context, d *model.Decision) (*model.Decision, error) {
	if d.DecisionKey == "" {
		return nil, xerr.ErrInvalidRequest("decision requires a decisionKey")
	}
	existing, err := m.Decisions.FindByKey(ctx, d.DecisionKey, d.TenantID, 1)
	if err != nil && !isNotFound(err) {
		return nil, errors.Wrap(err, "lifecycle: create lookup")
	}
	if existing != nil {
		return nil, xerr.ErrInvalidRequest("decision key %q already exists for tenant %q", d.DecisionKey, d.TenantID)
	}

	d.ID = m.IDs.NewID()
	d.Version = 1
	d.Status = model.StatusDraft
	d.CreateTime = m.Clock.Now()
	if d.RuleCount == 0 {
		d.RuleCount = len(d.Rules)
	}
	if err := d.CheckRuleCount(); err != nil {
		return nil, err
	}
	if err := m.Decisions.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "lifecycle: create save")
	}
	return d, nil
}

// Update mutates a DRAFT decision in place (spec's Lifecycles: a
// PUBLISHED decision is immutable per I2; only DRAFT may be edited
// directly).
func (m *Manager) Update(ctx context.Context, d *model.Decision) (*model.Decision, error) {
	existing, err := m.Decisions.FindByID(ctx, d.ID)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: update lookup")
	}
	if existing.Status != model.StatusDraft {
		return nil, xerr.ErrInvalidRequest("decision %s is %s; only DRAFT decisions may be updated", d.ID, existing.Status)
	}
	d.Status = model.StatusDraft
	d.Version = existing.Version
	d.CreateTime = existing.CreateTime
	d.RuleCount = len(d.Rules)
	if err := d.CheckRuleCount(); err != nil {
		return nil, err
	}
	if err := m.Decisions.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "lifecycle: update save")
	}
	return d, nil
}

// Publish moves a DRAFT to PUBLISHED, stamping PublishTime.
func (m *Manager) Publish(ctx context.Context, id string) (*model.Decision, error) {
	d, err := m.Decisions.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: publish lookup")
	}
	if !d.CanPublish() {
		return nil, xerr.ErrInvalidRequest("decision %s is %s; only DRAFT may be published", id, d.Status)
	}
	if err := d.CheckRuleCount(); err != nil {
		return nil, err
	}
	now := m.Clock.Now()
	d.Status = model.StatusPublished
	d.PublishTime = &now
	if err := m.Decisions.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "lifecycle: publish save")
	}
	return d, nil
}

// Suspend enforces I4: only PUBLISHED may move to SUSPENDED.
func (m *Manager) Suspend(ctx context.Context, id string) (*model.Decision, error) {
	d, err := m.Decisions.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: suspend lookup")
	}
	if !d.CanSuspend() {
		return nil, xerr.ErrInvalidRequest("decision %s is %s; only PUBLISHED may be suspended", id, d.Status)
	}
	d.Status = model.StatusSuspended
	if err := m.Decisions.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "lifecycle: suspend save")
	}
	return d, nil
}

// Activate enforces I4: only SUSPENDED may return to PUBLISHED.
func (m *Manager) Activate(ctx context.Context, id string) (*model.Decision, error) {
	d, err := m.Decisions.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: activate lookup")
	}
	if !d.CanActivate() {
		return nil, xerr.ErrInvalidRequest("decision %s is %s; only SUSPENDED may be activated", id, d.Status)
	}
	d.Status = model.StatusPublished
	if err := m.Decisions.Save(ctx, d); err != nil {
		return nil, errors.Wrap(err, "lifecycle: activate save")
	}
	return d, nil
}

// CreateNewVersion copies an existing decision's definition into a new
// DRAFT, with version = max(existing versions for key+tenant) + 1 (spec
// §4.10).
func (m *Manager) CreateNewVersion(ctx context.Context, id string) (*model.Decision, error) {
	base, err := m.Decisions.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: create-version lookup")
	}

	maxVersion := base.Version
	_, total, err := m.Decisions.Query(ctx, store.DecisionFilter{DecisionKey: base.DecisionKey, TenantID: base.TenantID}, store.Page{Page: 1, Size: 1})
	if err == nil && total > 0 {
		all, _, qerr := m.Decisions.Query(ctx, store.DecisionFilter{DecisionKey: base.DecisionKey, TenantID: base.TenantID}, store.Page{Page: 1, Size: total})
		if qerr == nil {
			for _, other := range all {
				if other.Version > maxVersion {
					maxVersion = other.Version
				}
			}
		}
	}

	next := &model.Decision{
		ID:          m.IDs.NewID(),
		DecisionKey: base.DecisionKey,
		Version:     maxVersion + 1,
		Status:      model.StatusDraft,
		HitPolicy:   base.HitPolicy,
		Aggregation: base.Aggregation,
		Inputs:      append([]model.DecisionInput(nil), base.Inputs...),
		Outputs:     append([]model.DecisionOutput(nil), base.Outputs...),
		Rules:       append([]model.Rule(nil), base.Rules...),
		RuleCount:   len(base.Rules),
		Category:    base.Category,
		Name:        base.Name,
		Description: base.Description,
		TenantID:    base.TenantID,
		CreateTime:  m.Clock.Now(),
	}
	if err := m.Decisions.Save(ctx, next); err != nil {
		return nil, errors.Wrap(err, "lifecycle: create-version save")
	}
	return next, nil
}

// Delete enforces I3: only DRAFT decisions may be deleted.
func (m *Manager) Delete(ctx context.Context, id string) error {
	d, err := m.Decisions.FindByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "lifecycle: delete lookup")
	}
	if !d.CanDelete() {
		return xerr.ErrInvalidRequest("decision %s is %s; only DRAFT may be deleted", id, d.Status)
	}
	if err := m.Decisions.Delete(ctx, d); err != nil {
		return errors.Wrap(err, "lifecycle: delete")
	}
	return nil
}

// Query lists decisions by filter with pagination, ordered by createTime
// descending (spec §4.10). Store implementations are expected to apply
// the ordering; Query re-sorts defensively so the contract holds
// regardless of collaborator.
func (m *Manager) Query(ctx context.Context, filter store.DecisionFilter, page store.Page) ([]*model.Decision, int, error) {
	page = page.Normalize()
	results, total, err := m.Decisions.Query(ctx, filter, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "lifecycle: query")
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreateTime.After(results[j].CreateTime)
	})
	return results, total, nil
}

// Statistics returns derived execution aggregates for a decision (spec
// §4.10: "null aggregates are coerced to 0").
func (m *Manager) Statistics(ctx context.Context, decisionID string) (store.ExecutionStats, error) {
	stats, err := m.Executions.Stats(ctx, decisionID)
	if err != nil {
		return store.ExecutionStats{}, errors.Wrap(err, "lifecycle: statistics")
	}
	return stats, nil
}

func isNotFound(err error) bool {
	var nf xerr.NotFoundError
	return stderrors.As(err, &nf)
}
