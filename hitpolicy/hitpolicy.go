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

// Package hitpolicy implements the eight DMN hit-policy handlers (spec
// §4.6, component C6). Each handler exposes the base Handler interface and
// optionally one or more small behavior-trait interfaces, discoverable by
// the executor via a single type assertion rather than a runtime string
// probe (Design Note 1) - grounded on the teacher's capability-style
// interfaces in index/policy.go and runtime's per-node-kind dispatch, which
// favor small explicit Go interfaces over reflection or string switches.
package hitpolicy

import (
	"sort"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"

	"github.com/dmnflow/dmnflow/xerr"
)

// RuleResult is one rule's outcome as seen by a hit-policy handler: whether
// it matched, its declared index (0-based internally, spec §3), and the
// output values it produced keyed by output id.
type RuleResult struct {
	RuleIndex int
	RuleID    string
	Matched   bool
	Outputs   map[string]any
}

// Outcome is the handler's base decision (spec §4.6's `handle` operation).
type Outcome struct {
	HasMatch         bool
	MatchedRuleIDs   []string
	Output           any
	NeedsAggregation bool
	MultipleResults  bool
}

// Handler is the base operation every hit-policy implements.
type Handler interface {
	Name() string
	Handle(results []RuleResult) (Outcome, error)
}

// ContinueEvaluating lets FIRST short-circuit rule iteration (spec §4.6).
type ContinueEvaluating interface {
	ShouldContinueEvaluating(currentRuleMatched bool) (shouldContinue bool, reason string)
}

// RuleValidityEvaluator lets UNIQUE and ANY detect policy violations across
// the full matched set (spec §4.6).
type RuleValidityEvaluator interface {
	EvaluateRuleValidity(matched []RuleResult, strictMode bool) (valid bool, errorMessage string)
}

// DecisionComposer overrides the base Outcome's Output with policy-specific
// composition logic (spec §4.6: PRIORITY, OUTPUT ORDER, COLLECT-with-
// aggregator, UNIQUE's non-strict fallback).
type DecisionComposer interface {
	ComposeDecisionResults(ctx ComposeContext) (any, error)
}

// ComposeContext is everything a DecisionComposer needs beyond the matched
// RuleResults themselves.
type ComposeContext struct {
	Matched         []RuleResult
	OutputPriority  map[string][]any // outputId -> declared priority list (spec §4.6 PRIORITY)
	Aggregator      string           // SUM | MIN | MAX | COUNT | "" (spec §4.7 aggregation)
	ForceDMN11      bool
	StrictMode      bool
	ValidationNotes *[]string
}

// Aggregator names recognized by COLLECT (spec §4.6/§4.7).
const (
	AggregatorSum   = "SUM"
	AggregatorMin   = "MIN"
	AggregatorMax   = "MAX"
	AggregatorCount = "COUNT"
)

// Policy enumerates the eight DMN 1.3 hit policies (spec §4.6).
type Policy string

const (
	Unique      Policy = "UNIQUE"
	First       Policy = "FIRST"
	Priority    Policy = "PRIORITY"
	Any         Policy = "ANY"
	Collect     Policy = "COLLECT"
	RuleOrder   Policy = "RULE_ORDER"
	OutputOrder Policy = "OUTPUT_ORDER"
	Unordered   Policy = "UNORDERED"
)

// New is the factory selecting a Handler by policy (spec §4.6: "A factory
// selects the handler by policy enum").
func New(policy Policy, aggregator string) (Handler, error) {
	switch policy {
	case Unique:
		return &uniqueHandler{}, nil
	case First:
		return &firstHandler{}, nil
	case Priority:
		return &priorityHandler{}, nil
	case Any:
		return &anyHandler{}, nil
	case Collect:
		return &collectHandler{aggregator: aggregator}, nil
	case RuleOrder:
		return &ruleOrderHandler{}, nil
	case OutputOrder:
		return &outputOrderHandler{}, nil
	case Unordered:
		return &unorderedHandler{}, nil
	default:
		return nil, errors.Wrapf(xerr.ErrInvalidRequest("unknown hit policy: %s", policy), "hitpolicy.New")
	}
}

// IsContinueEvaluatingBehavior probes h without an executor-side type
// switch, per spec §4.6's factory contract.
func IsContinueEvaluatingBehavior(h Handler) (ContinueEvaluating, bool) {
	c, ok := h.(ContinueEvaluating)
	return c, ok
}

// IsRuleValidityBehavior probes h for EvaluateRuleValidity support.
func IsRuleValidityBehavior(h Handler) (RuleValidityEvaluator, bool) {
	r, ok := h.(RuleValidityEvaluator)
	return r, ok
}

// IsComposeDecisionResultsBehavior probes h for custom composition.
func IsComposeDecisionResultsBehavior(h Handler) (DecisionComposer, bool) {
	c, ok := h.(DecisionComposer)
	return c, ok
}

func matchedOf(results []RuleResult) []RuleResult {
	out := make([]RuleResult, 0, len(results))
	for _, r := range results {
		if r.Matched {
			out = append(out, r)
		}
	}
	return out
}

func matchedIDs(matched []RuleResult) []string {
	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		ids = append(ids, m.RuleID)
	}
	return ids
}

// outputsHash identifies a rule's output tuple for deduplication (ANY
// agreement checks, forceDMN11 COLLECT dedup), grounded on the teacher's
// runtime/eval_call.go use of hashstructure for memoization - the same
// "hash a map of values" idiom applied to dedup instead of caching.
func outputsHash(outputs map[string]any) (uint64, error) {
	h, err := hashstructure.Hash(outputs, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, errors.Wrap(err, "hitpolicy: hashing rule outputs")
	}
	return h, nil
}

// --- UNIQUE -----------------------------------------------------------

type uniqueHandler struct{}

func (h *uniqueHandler) Name() string { return string(Unique) }

func (h *uniqueHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	out := Outcome{
		HasMatch:       len(matched) > 0,
		MatchedRuleIDs: matchedIDs(matched),
	}
	if len(matched) == 1 {
		out.Output = matched[0].Outputs
	}
	return out, nil
}

func (h *uniqueHandler) EvaluateRuleValidity(matched []RuleResult, strictMode bool) (bool, string) {
	if len(matched) <= 1 {
		return true, ""
	}
	return false, "UNIQUE hit policy violated: more than one rule matched"
}

func (h *uniqueHandler) ComposeDecisionResults(ctx ComposeContext) (any, error) {
	if len(ctx.Matched) <= 1 {
		if len(ctx.Matched) == 0 {
			return nil, nil
		}
		return ctx.Matched[0].Outputs, nil
	}
	// Non-strict fallback: merge preserving the last non-null value per
	// output key (spec §4.6).
	merged := map[string]any{}
	for _, m := range ctx.Matched {
		for k, v := range m.Outputs {
			if v != nil {
				merged[k] = v
			} else if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}
	if ctx.ValidationNotes != nil {
		*ctx.ValidationNotes = append(*ctx.ValidationNotes, "UNIQUE: multiple matches merged (non-strict mode)")
	}
	return merged, nil
}

// --- FIRST --------------------------------------------------------------

type firstHandler struct{}

func (h *firstHandler) Name() string { return string(First) }

func (h *firstHandler) Handle(results []RuleResult) (Outcome, error) {
	for _, r := range results {
		if r.Matched {
			return Outcome{HasMatch: true, MatchedRuleIDs: []string{r.RuleID}, Output: r.Outputs}, nil
		}
	}
	return Outcome{HasMatch: false}, nil
}

func (h *firstHandler) ShouldContinueEvaluating(currentRuleMatched bool) (bool, string) {
	if currentRuleMatched {
		return false, "FIRST: stopping after first match"
	}
	return true, ""
}

// --- PRIORITY -------------------------------------------------------------

type priorityHandler struct{}

func (h *priorityHandler) Name() string { return string(Priority) }

func (h *priorityHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	return Outcome{HasMatch: len(matched) > 0, MatchedRuleIDs: matchedIDs(matched)}, nil
}

func (h *priorityHandler) EvaluateRuleValidity(matched []RuleResult, strictMode bool) (bool, string) {
	if len(matched) == 0 {
		return true, ""
	}
	// Missing priority list is flagged at composition time, where the
	// declared list is actually available; validity here always reports
	// valid.
	return true, ""
}

func (h *priorityHandler) ComposeDecisionResults(ctx ComposeContext) (any, error) {
	if len(ctx.Matched) == 0 {
		return nil, nil
	}
	priorityRank := func(outputID string, value any) int {
		list, ok := ctx.OutputPriority[outputID]
		if !ok {
			return -1
		}
		for i, v := range list {
			if v == value {
				return i
			}
		}
		return len(list)
	}
	hasPriority := len(ctx.OutputPriority) > 0
	if !hasPriority {
		if ctx.StrictMode {
			return nil, xerr.ErrPolicyViolation("PRIORITY hit policy requires a declared output priority list")
		}
		if ctx.ValidationNotes != nil {
			*ctx.ValidationNotes = append(*ctx.ValidationNotes, "PRIORITY: no declared priority list, falling back to first match")
		}
		return ctx.Matched[0].Outputs, nil
	}
	best := ctx.Matched[0]
	bestRank := bestRankOf(best, priorityRank)
	for _, m := range ctx.Matched[1:] {
		r := bestRankOf(m, priorityRank)
		if r < bestRank {
			best, bestRank = m, r
		}
	}
	return best.Outputs, nil
}

func bestRankOf(r RuleResult, rankFn func(string, any) int) int {
	total := 0
	for k, v := range r.Outputs {
		total += rankFn(k, v)
	}
	return total
}

// --- ANY ------------------------------------------------------------------

type anyHandler struct{}

func (h *anyHandler) Name() string { return string(Any) }

func (h *anyHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	out := Outcome{HasMatch: len(matched) > 0, MatchedRuleIDs: matchedIDs(matched)}
	if len(matched) > 0 {
		out.Output = matched[len(matched)-1].Outputs
	}
	return out, nil
}

func (h *anyHandler) EvaluateRuleValidity(matched []RuleResult, strictMode bool) (bool, string) {
	if len(matched) <= 1 {
		return true, ""
	}
	first, err := outputsHash(matched[0].Outputs)
	if err != nil {
		return false, err.Error()
	}
	for _, m := range matched[1:] {
		h, err := outputsHash(m.Outputs)
		if err != nil {
			return false, err.Error()
		}
		if h != first {
			return false, "ANY hit policy violated: matched rules disagree on output"
		}
	}
	return true, ""
}

func (h *anyHandler) ComposeDecisionResults(ctx ComposeContext) (any, error) {
	if len(ctx.Matched) == 0 {
		return nil, nil
	}
	if ctx.ValidationNotes != nil {
		*ctx.ValidationNotes = append(*ctx.ValidationNotes, "ANY: taking last matched rule's output (non-strict mode)")
	}
	return ctx.Matched[len(ctx.Matched)-1].Outputs, nil
}

// --- COLLECT ----------------------------------------------------------

type collectHandler struct {
	aggregator string
}

func (h *collectHandler) Name() string { return string(Collect) }

func (h *collectHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	out := Outcome{
		HasMatch:         len(matched) > 0,
		MatchedRuleIDs:   matchedIDs(matched),
		NeedsAggregation: h.aggregator != "",
		MultipleResults:  h.aggregator == "",
	}
	if h.aggregator == "" {
		list := make([]any, 0, len(matched))
		for _, m := range matched {
			list = append(list, m.Outputs)
		}
		out.Output = list
	}
	return out, nil
}

func (h *collectHandler) ComposeDecisionResults(ctx ComposeContext) (any, error) {
	matched := ctx.Matched
	if ctx.ForceDMN11 {
		matched = dedupeByOutput(matched)
	}
	if h.aggregator == "" {
		list := make([]any, 0, len(matched))
		for _, m := range matched {
			list = append(list, m.Outputs)
		}
		return list, nil
	}
	return Aggregate(matched, h.aggregator), nil
}

func dedupeByOutput(matched []RuleResult) []RuleResult {
	seen := map[uint64]bool{}
	out := make([]RuleResult, 0, len(matched))
	for _, m := range matched {
		h, err := outputsHash(m.Outputs)
		if err != nil || !seen[h] {
			if err == nil {
				seen[h] = true
			}
			out = append(out, m)
		}
	}
	return out
}

// Aggregate applies one of SUM/MIN/MAX/COUNT to each output column across
// matched rules (spec §4.7's "Aggregation (COLLECT)").
func Aggregate(matched []RuleResult, aggregator string) map[string]any {
	columns := map[string][]any{}
	for _, m := range matched {
		for k, v := range m.Outputs {
			columns[k] = append(columns[k], v)
		}
	}
	out := map[string]any{}
	for col, values := range columns {
		out[col] = aggregateColumn(values, aggregator)
	}
	return out
}

func aggregateColumn(values []any, aggregator string) any {
	switch aggregator {
	case AggregatorCount:
		n := 0
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		return float64(n)
	case AggregatorSum:
		var sum float64
		for _, v := range values {
			sum += numericOr0(v)
		}
		return sum
	case AggregatorMin:
		var min float64
		started := false
		for _, v := range values {
			n, ok := numeric(v)
			if !ok {
				continue
			}
			if !started || n < min {
				min, started = n, true
			}
		}
		if !started {
			return nil
		}
		return min
	case AggregatorMax:
		var max float64
		started := false
		for _, v := range values {
			n, ok := numeric(v)
			if !ok {
				continue
			}
			if !started || n > max {
				max, started = n, true
			}
		}
		if !started {
			return nil
		}
		return max
	default:
		return values
	}
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func numericOr0(v any) float64 {
	n, ok := numeric(v)
	if !ok {
		return 0
	}
	return n
}

// --- RULE ORDER -------------------------------------------------------

type ruleOrderHandler struct{}

func (h *ruleOrderHandler) Name() string { return string(RuleOrder) }

func (h *ruleOrderHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].RuleIndex < matched[j].RuleIndex })
	list := make([]any, 0, len(matched))
	for _, m := range matched {
		list = append(list, m.Outputs)
	}
	return Outcome{HasMatch: len(matched) > 0, MatchedRuleIDs: matchedIDs(matched), Output: list, MultipleResults: true}, nil
}

// --- OUTPUT ORDER -----------------------------------------------------

type outputOrderHandler struct{}

func (h *outputOrderHandler) Name() string { return string(OutputOrder) }

func (h *outputOrderHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	return Outcome{HasMatch: len(matched) > 0, MatchedRuleIDs: matchedIDs(matched), MultipleResults: true}, nil
}

func (h *outputOrderHandler) ComposeDecisionResults(ctx ComposeContext) (any, error) {
	matched := append([]RuleResult(nil), ctx.Matched...)
	if len(ctx.OutputPriority) == 0 {
		// spec §4.6: "identical to PRIORITY on missing priority list"
		if ctx.StrictMode {
			return nil, xerr.ErrPolicyViolation("OUTPUT ORDER hit policy requires a declared output priority list")
		}
		if ctx.ValidationNotes != nil {
			*ctx.ValidationNotes = append(*ctx.ValidationNotes, "OUTPUT ORDER: no declared priority list, falling back to declared rule order")
		}
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].RuleIndex < matched[j].RuleIndex })
	} else {
		rank := func(r RuleResult) int {
			total := 0
			for k, v := range r.Outputs {
				list := ctx.OutputPriority[k]
				idx := len(list)
				for i, lv := range list {
					if lv == v {
						idx = i
						break
					}
				}
				total += idx
			}
			return total
		}
		sort.SliceStable(matched, func(i, j int) bool { return rank(matched[i]) < rank(matched[j]) })
	}
	list := make([]any, 0, len(matched))
	for _, m := range matched {
		list = append(list, m.Outputs)
	}
	return list, nil
}

// --- UNORDERED ----------------------------------------------------------

type unorderedHandler struct{}

func (h *unorderedHandler) Name() string { return string(Unordered) }

func (h *unorderedHandler) Handle(results []RuleResult) (Outcome, error) {
	matched := matchedOf(results)
	list := make([]any, 0, len(matched))
	for _, m := range matched {
		list = append(list, m.Outputs)
	}
	return Outcome{HasMatch: len(matched) > 0, MatchedRuleIDs: matchedIDs(matched), Output: list, MultipleResults: true}, nil
}
