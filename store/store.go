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

// Package store declares the collaborator interfaces the engine consumes
// (spec §6): decision storage, execution-record storage, a clock, and an id
// generator. The core depends only on these interfaces - persistence,
// caching, and transport are external collaborators per spec §1. Grounded
// on the teacher's loader package split between "how to load" (loader/*.go)
// and "what is loaded" (index/*.go).
package store

import (
	"context"
	"time"

	"github.com/dmnflow/dmnflow/model"
)

// DecisionFilter is queryDecisions's filter shape (spec §4.10).
type DecisionFilter struct {
	ID          string
	DecisionKey string
	Name        string
	Status      model.Status
	Category    string
	TenantID    string
	Version     int
}

// Page is 1-based pagination (spec §4.10: "page>=1, size>=1 (defaults
// 1/20)").
type Page struct {
	Page int
	Size int
}

// Normalize applies the defaults spec §4.10 specifies.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	return p
}

// DecisionStore is the decision-definition collaborator (spec §6).
type DecisionStore interface {
	FindByID(ctx context.Context, id string) (*model.Decision, error)
	FindByKey(ctx context.Context, key, tenantID string, version int) (*model.Decision, error)
	FindHighestPublishedByKey(ctx context.Context, key, tenantID string) (*model.Decision, error)
	Save(ctx context.Context, d *model.Decision) error
	Delete(ctx context.Context, d *model.Decision) error
	Query(ctx context.Context, filter DecisionFilter, page Page) ([]*model.Decision, int, error)
}

// ExecutionStats is getDecisionStatistics's return shape (spec §4.10).
type ExecutionStats struct {
	TotalExecutions int
	SuccessCount    int
	FailedCount     int
	NoMatchCount    int
	AvgExecutionMs  float64
}

// ExecutionStore is the append-only audit-log collaborator (spec §6). It
// must tolerate concurrent appends with no cross-request transactional
// guarantee (spec §5).
type ExecutionStore interface {
	Append(ctx context.Context, r *model.ExecutionRecord) error
	Query(ctx context.Context, decisionID, processInstanceID string, page Page) ([]*model.ExecutionRecord, int, error)
	Stats(ctx context.Context, decisionID string) (ExecutionStats, error)
}

// Clock is the injectable time source (spec §6).
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator produces opaque unique ids for decisions and executions
// (spec §6).
type IDGenerator interface {
	NewID() string
}
