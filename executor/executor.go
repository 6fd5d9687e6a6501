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

// Package executor implements the rule-engine executor (spec §4.7,
// component C7): the per-request orchestrator that resolves a decision,
// runs its rules, consults the selected hit-policy handler, aggregates,
// builds the audit trail, and persists the execution record. Grounded on
// the teacher's runtime/executor.go top-level orchestration shape
// (NewExecutor / ExecRule driving fact injection -> rule evaluation ->
// trace attachment) and its puddle-pooled resource pattern for bounding
// concurrent work, repurposed here from a VM pool to an evaluation-scratch
// pool bounding ExecuteBatch concurrency (spec §5's
// MaxConcurrentEvaluations).
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/puddle/v2"
	"github.com/pkg/errors"

	"github.com/dmnflow/dmnflow/audit"
	"github.com/dmnflow/dmnflow/condition"
	"github.com/dmnflow/dmnflow/feel/builtins"
	"github.com/dmnflow/dmnflow/feel/eval"
	"github.com/dmnflow/dmnflow/feel/eval/direct"
	"github.com/dmnflow/dmnflow/feel/parser"
	"github.com/dmnflow/dmnflow/hitpolicy"
	"github.com/dmnflow/dmnflow/model"
	"github.com/dmnflow/dmnflow/store"
	"github.com/dmnflow/dmnflow/xerr"
)

// ExecuteRequest is executeDecision's input (spec §6).
type ExecuteRequest struct {
	DecisionID        string
	DecisionKey       string
	Version           int
	InputData         map[string]any
	ProcessInstanceID string
	ExecutionID       string
	ActivityID        string
	TaskID            string
	TenantID          string
}

// Options are executeDecision's evaluation flags (spec §4.7 step 3/§6).
type Options struct {
	StrictMode  bool
	ForceDMN11  bool
	EnableAudit bool
}

// DefaultOptions matches spec §6: "{strictMode=true, forceDMN11=false,
// enableAudit=true}".
func DefaultOptions() Options {
	return Options{StrictMode: true, ForceDMN11: false, EnableAudit: true}
}

// DecisionResult is executeDecision's JSON-shaped return value (spec §6).
type DecisionResult struct {
	ExecutionID     string
	DecisionID      string
	DecisionKey     string
	DecisionVersion int
	Status          string
	OutputResult    any
	MatchedRules    []string
	MatchedCount    int
	ExecutionTimeMs int64
	ErrorMessage    string
	Audit           *audit.Container
}

// ValidationResult is validateDecision's return shape (spec §4.7).
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Executor orchestrates decision execution (spec §4.7).
type Executor struct {
	Decisions  store.DecisionStore
	Executions store.ExecutionStore
	Clock      store.Clock
	IDs        store.IDGenerator

	// scratchPool bounds concurrent ExecuteBatch work (spec §5's
	// MaxConcurrentEvaluations), grounded on the teacher's
	// puddle.NewPool[*JSInstance] VM pool in runtime/executor.go's
	// bindUses, repurposed here to pool a zero-cost evaluation-scratch
	// marker rather than a real VM.
	scratchPool *puddle.Pool[*evalScratch]
}

// evalScratch is the resource puddle pools to bound ExecuteBatch
// concurrency. It carries no state of its own - a FEEL evaluation context
// is built fresh per execution - it exists purely as a concurrency token.
type evalScratch struct{}

// New builds an Executor, sizing its batch-concurrency pool from
// maxConcurrent (spec §4.11's config.Engine.MaxConcurrentEvaluations).
func New(decisions store.DecisionStore, executions store.ExecutionStore, clock store.Clock, ids store.IDGenerator, maxConcurrent int) (*Executor, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	pool, err := puddle.NewPool(&puddle.Config[*evalScratch]{
		Constructor: func(ctx context.Context) (*evalScratch, error) { return &evalScratch{}, nil },
		Destructor:  func(*evalScratch) {},
		MaxSize:     int32(maxConcurrent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "executor: building scratch pool")
	}
	return &Executor{
		Decisions:   decisions,
		Executions:  executions,
		Clock:       clock,
		IDs:         ids,
		scratchPool: pool,
	}, nil
}

// Execute implements spec §4.7's 9-step sequence.
func (e *Executor) Execute(ctx context.Context, req ExecuteRequest, opts Options) (*DecisionResult, error) {
	start := e.Clock.Now()

	// Step 1: resolve decision.
	decision, err := e.resolveDecision(ctx, req)
	if err != nil {
		return nil, err
	}

	result, execErr := e.evaluate(ctx, decision, req, opts, start)

	// Step 9: persist (best-effort - a persistence failure never masks the
	// primary result, spec §4.7/§5).
	record := e.buildRecord(decision, req, result, execErr, start)
	if perr := e.Executions.Append(ctx, record); perr != nil {
		// swallow: logged here, never returned to the caller.
		slog.WarnContext(ctx, "executor: persisting execution record failed", "error", perr)
	}

	if execErr != nil {
		return nil, execErr
	}
	return result, nil
}

func (e *Executor) resolveDecision(ctx context.Context, req ExecuteRequest) (*model.Decision, error) {
	if req.DecisionID != "" {
		d, err := e.Decisions.FindByID(ctx, req.DecisionID)
		if err != nil {
			return nil, xerr.ErrInvalidRequest("decision %s not found", req.DecisionID)
		}
		return d, nil
	}
	if req.DecisionKey == "" {
		return nil, xerr.ErrInvalidRequest("executeDecision requires decisionId or decisionKey")
	}
	var d *model.Decision
	var err error
	if req.Version > 0 {
		d, err = e.Decisions.FindByKey(ctx, req.DecisionKey, req.TenantID, req.Version)
	} else {
		d, err = e.Decisions.FindHighestPublishedByKey(ctx, req.DecisionKey, req.TenantID)
	}
	if err != nil {
		return nil, xerr.ErrInvalidRequest("decision %s not found", req.DecisionKey)
	}
	if !d.IsExecutable() {
		return nil, xerr.ErrInvalidRequest("decision %s is not published (status=%s)", d.DecisionKey, d.Status)
	}
	return d, nil
}

// evaluate runs steps 2-8 of spec §4.7.
func (e *Executor) evaluate(ctx context.Context, decision *model.Decision, req ExecuteRequest, opts Options, start time.Time) (*DecisionResult, error) {
	container := audit.New(decision.ID, decision.DecisionKey, decision.Version, decision.HitPolicy, opts.StrictMode, opts.ForceDMN11)

	handler, err := hitpolicy.New(hitpolicy.Policy(decision.HitPolicy), decision.Aggregation)
	if err != nil {
		return nil, errors.Wrap(err, "executor")
	}

	evalCtx := newFeelContext(req.InputData, e.Clock)

	results := make([]hitpolicy.RuleResult, 0, len(decision.Rules))
	for idx, rule := range decision.Rules {
		rr, trace, err := e.evaluateRule(evalCtx, decision, idx, rule)
		if err != nil {
			container.RecordRule(trace)
			return nil, xerr.ErrEvaluation(xerr.RuntimeError, "rule %s: %v", rule.ID, err)
		}
		container.RecordRule(trace)
		results = append(results, rr)

		if continuer, ok := hitpolicy.IsContinueEvaluatingBehavior(handler); ok {
			if shouldContinue, _ := continuer.ShouldContinueEvaluating(rr.Matched); !shouldContinue {
				break
			}
		}
	}

	outcome, err := handler.Handle(results)
	if err != nil {
		return nil, errors.Wrap(err, "executor: hit policy handle")
	}

	if validator, ok := hitpolicy.IsRuleValidityBehavior(handler); ok {
		matched := matchedResults(results)
		if valid, msg := validator.EvaluateRuleValidity(matched, opts.StrictMode); !valid {
			if opts.StrictMode {
				return nil, xerr.ErrPolicyViolation(msg)
			}
			container.Validate(msg)
		}
	}

	finalOutput := outcome.Output
	var validationNotes []string
	if composer, ok := hitpolicy.IsComposeDecisionResultsBehavior(handler); ok {
		composed, cerr := composer.ComposeDecisionResults(hitpolicy.ComposeContext{
			Matched:         matchedResults(results),
			OutputPriority:  outputPriorityOf(decision),
			Aggregator:      decision.Aggregation,
			ForceDMN11:      opts.ForceDMN11,
			StrictMode:      opts.StrictMode,
			ValidationNotes: &validationNotes,
		})
		if cerr != nil {
			return nil, cerr
		}
		finalOutput = composed
	} else if decision.HitPolicy == string(hitpolicy.Collect) && decision.Aggregation != "" {
		finalOutput = hitpolicy.Aggregate(matchedResults(results), decision.Aggregation)
	}
	for _, note := range validationNotes {
		container.Validate(note)
	}

	container.SetResult(finalOutput)

	status := "no_match"
	if outcome.HasMatch {
		status = "success"
	}

	return &DecisionResult{
		ExecutionID:     executionIDOf(req, e.IDs),
		DecisionID:      decision.ID,
		DecisionKey:     decision.DecisionKey,
		DecisionVersion: decision.Version,
		Status:          status,
		OutputResult:    finalOutput,
		MatchedRules:    outcome.MatchedRuleIDs,
		MatchedCount:    len(outcome.MatchedRuleIDs),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		Audit:           containerOrNil(container, opts.EnableAudit),
	}, nil
}

func containerOrNil(c *audit.Container, enabled bool) *audit.Container {
	if !enabled {
		return nil
	}
	return c
}

func executionIDOf(req ExecuteRequest, ids store.IDGenerator) string {
	if req.ExecutionID != "" {
		return req.ExecutionID
	}
	return ids.NewID()
}

func matchedResults(results []hitpolicy.RuleResult) []hitpolicy.RuleResult {
	out := make([]hitpolicy.RuleResult, 0, len(results))
	for _, r := range results {
		if r.Matched {
			out = append(out, r)
		}
	}
	return out
}

func outputPriorityOf(d *model.Decision) map[string][]any {
	out := map[string][]any{}
	for _, o := range d.Outputs {
		if len(o.PriorityList) == 0 {
			continue
		}
		vals := make([]any, len(o.PriorityList))
		for i, v := range o.PriorityList {
			vals[i] = v
		}
		out[o.ID] = vals
	}
	return out
}

// evaluateRule implements spec §4.7 step 5: evaluate every condition
// (conjunction only), using the input map value at condition.inputId, or
// the input's declared expression via FEEL when the caller omitted it.
func (e *Executor) evaluateRule(evalCtx *eval.Context, decision *model.Decision, idx int, rule model.Rule) (hitpolicy.RuleResult, audit.RuleTrace, error) {
	trace := audit.RuleTrace{RuleNumber: idx + 1, RuleID: ruleIDOf(rule, idx)}
	matched := true

	for _, cond := range rule.Conditions {
		inputValue, err := e.resolveInputValue(evalCtx, decision, cond.InputID)
		if err != nil {
			return hitpolicy.RuleResult{}, trace, err
		}
		ok := condition.Eval(nil, inputValue, cond.Operator, cond.Value)
		trace.InputEntries = append(trace.InputEntries, audit.InputEntry{
			InputID:        cond.InputID,
			InputValue:     inputValue,
			Operator:       cond.Operator,
			ConditionValue: cond.Value,
			Matched:        ok,
		})
		if !ok {
			matched = false
		}
	}

	trace.Matched = matched
	outputs := map[string]any{}
	if matched {
		for _, oe := range rule.Outputs {
			outputs[oe.OutputID] = oe.Value
			trace.OutputEntries = append(trace.OutputEntries, audit.OutputEntry{OutputID: oe.OutputID, OutputValue: oe.Value})
		}
	}

	return hitpolicy.RuleResult{RuleIndex: idx, RuleID: trace.RuleID, Matched: matched, Outputs: outputs}, trace, nil
}

func ruleIDOf(rule model.Rule, idx int) string {
	if rule.ID != "" {
		return rule.ID
	}
	return syntheticRuleID(idx)
}

func syntheticRuleID(idx int) string {
	return "rule_" + strconv.Itoa(idx)
}

func (e *Executor) resolveInputValue(evalCtx *eval.Context, decision *model.Decision, inputID string) (any, error) {
	if v, ok := evalCtx.Variables[inputID]; ok {
		return v, nil
	}
	in, ok := decision.InputByID(inputID)
	if !ok {
		return nil, xerr.ErrInvalidRequest("rule references unknown input id %s", inputID)
	}
	if in.Expression == "" {
		return nil, nil
	}
	// spec §4.5's direct-string mode: try the fast path first for the
	// common decision-table idioms, falling back to the full
	// tokenize/parse/walk path for anything outside its narrow grammar.
	if v, ok, err := direct.Eval(evalCtx, in.Expression); ok {
		return v, err
	}
	expr, perrs := parser.Parse(in.Expression)
	if len(perrs) > 0 {
		return nil, xerr.ErrEvaluation(xerr.SyntaxError, "input %s expression %q: %v", inputID, in.Expression, perrs[0].Message)
	}
	return eval.Eval(evalCtx, expr)
}

func newFeelContext(inputData map[string]any, clock store.Clock) *eval.Context {
	ctx := eval.NewContext(inputData)
	fns := builtins.Functions()
	for k, v := range builtins.NowFunctions(clock.Now) {
		fns[k] = v
	}
	ctx.Functions = fns
	ctx.Now = clock.Now
	return ctx
}

func (e *Executor) buildRecord(decision *model.Decision, req ExecuteRequest, result *DecisionResult, execErr error, start time.Time) *model.ExecutionRecord {
	rec := &model.ExecutionRecord{
		DecisionID:        decision.ID,
		DecisionKey:       decision.DecisionKey,
		DecisionVersion:   decision.Version,
		InputData:         req.InputData,
		ProcessInstanceID: req.ProcessInstanceID,
		ActivityID:        req.ActivityID,
		TaskID:            req.TaskID,
		TenantID:          req.TenantID,
		ExecutionTimeMs:   time.Since(start).Milliseconds(),
		CreateTime:        e.Clock.Now(),
	}
	switch {
	case execErr != nil:
		rec.Status = model.ExecutionFailed
		rec.ErrorMessage = execErr.Error()
		rec.ErrorDetails = errors.Cause(execErr).Error()
	case result.Status == "success":
		rec.Status = model.ExecutionSuccess
		rec.OutputResult = result.OutputResult
		rec.MatchedRuleIDs = result.MatchedRules
		rec.MatchedCount = result.MatchedCount
		rec.AuditContainer = result.Audit
	default:
		rec.Status = model.ExecutionNoMatch
		rec.AuditContainer = result.Audit
	}
	return rec
}

// ExecuteBatch implements spec §4.7's "executeBatch": iterates single-mode
// invocations, converting any thrown error into a FAILED result - the
// batch itself never throws. Concurrency is bounded by the executor's
// scratch pool (spec §5's MaxConcurrentEvaluations).
func (e *Executor) ExecuteBatch(ctx context.Context, decisionID string, inputs []map[string]any) []*DecisionResult {
	out := make([]*DecisionResult, len(inputs))
	done := make(chan struct{}, len(inputs))

	for i, input := range inputs {
		go func(i int, input map[string]any) {
			defer func() { done <- struct{}{} }()
			res, err := e.scratchPool.Acquire(ctx)
			if err != nil {
				out[i] = &DecisionResult{DecisionID: decisionID, Status: "failed", ErrorMessage: err.Error()}
				return
			}
			defer res.Release()

			result, execErr := e.Execute(ctx, ExecuteRequest{DecisionID: decisionID, InputData: input}, DefaultOptions())
			if execErr != nil {
				out[i] = &DecisionResult{DecisionID: decisionID, Status: "failed", ErrorMessage: execErr.Error()}
				return
			}
			out[i] = result
		}(i, input)
	}

	for range inputs {
		<-done
	}
	return out
}

// Validate implements spec §4.7's "validateDecision".
func (e *Executor) Validate(ctx context.Context, decisionID string) (ValidationResult, error) {
	decision, err := e.Decisions.FindByID(ctx, decisionID)
	if err != nil {
		return ValidationResult{}, xerr.ErrNotFound("decision %s not found", decisionID)
	}

	result := ValidationResult{Valid: true}

	inputIDs := map[string]bool{}
	for _, in := range decision.Inputs {
		inputIDs[in.ID] = true
	}
	outputIDs := map[string]bool{}
	for _, out := range decision.Outputs {
		outputIDs[out.ID] = true
	}

	if len(decision.Inputs) == 0 {
		result.Errors = append(result.Errors, "decision has no inputs")
	}
	if len(decision.Outputs) == 0 {
		result.Errors = append(result.Errors, "decision has no outputs")
	}
	if len(decision.Rules) == 0 {
		result.Warnings = append(result.Warnings, "decision has zero rules")
	}

	for _, rule := range decision.Rules {
		if len(rule.Conditions) == 0 {
			result.Warnings = append(result.Warnings, "rule "+rule.ID+" has zero conditions")
		}
		for _, c := range rule.Conditions {
			if !inputIDs[c.InputID] {
				result.Errors = append(result.Errors, "rule "+rule.ID+" references unknown input id "+c.InputID)
			}
		}
		for _, oe := range rule.Outputs {
			if !outputIDs[oe.OutputID] {
				result.Errors = append(result.Errors, "rule "+rule.ID+" references unknown output id "+oe.OutputID)
			}
		}
	}

	if decision.HitPolicy == string(hitpolicy.Unique) {
		if overlap := detectOverlap(decision.Rules); overlap {
			result.Warnings = append(result.Warnings, "UNIQUE hit policy: possible rule overlap detected (best-effort check)")
		}
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// detectOverlap is a best-effort check (spec §4.7: "documented as best
// -effort"): flags decisions where two rules share every (inputId,
// operator, value) condition tuple verbatim.
func detectOverlap(rules []model.Rule) bool {
	seen := map[string]bool{}
	for _, r := range rules {
		key := conditionsKey(r.Conditions)
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func conditionsKey(conds []model.Condition) string {
	key := ""
	for _, c := range conds {
		key += c.InputID + "|" + c.Operator + "|" + toKeyString(c.Value) + ";"
	}
	return key
}

func toKeyString(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
