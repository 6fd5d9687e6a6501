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

package dmnctl

import (
	"context"
	"fmt"
	"os"

	"github.com/dmnflow/dmnflow/dmnxml"
	"github.com/dmnflow/dmnflow/executor"
	"github.com/dmnflow/dmnflow/lifecycle"
	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
	"github.com/dmnflow/dmnflow/store/memstore"
)

// loadedEngine bundles an in-memory reference store pre-seeded from a DMN
// XML file with the executor/lifecycle collaborators that operate on it -
// enough for a one-shot CLI invocation.
type loadedEngine struct {
	Decision  *model.Decision
	Executor  *executor.Executor
	Lifecycle *lifecycle.Manager
	Warnings  []string
}

func loadEngine(ctx context.Context, path string) (*loadedEngine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := dmnxml.Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(result.Decisions) == 0 {
		return nil, fmt.Errorf("%s: no decision elements found", path)
	}

	decisions := memstore.NewDecisionStore()
	executions := memstore.NewExecutionStore()
	clock := store.SystemClock{}
	ids := memstore.IDGenerator{}

	decision := result.Decisions[0]
	decision.Status = model.StatusPublished
	decision.RuleCount = len(decision.Rules)
	if decision.ID == "" {
		decision.ID = ids.NewID()
	}
	if err := decisions.Save(ctx, decision); err != nil {
		return nil, err
	}

	exec, err := executor.New(decisions, executions, clock, ids, 8)
	if err != nil {
		return nil, err
	}

	return &loadedEngine{
		Decision:  decision,
		Executor:  exec,
		Lifecycle: lifecycle.New(decisions, executions, clock, ids),
		Warnings:  result.Warnings,
	}, nil
}
