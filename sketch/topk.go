/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sketch

import (
	"fmt"
	"sort"
)

// TokenCount is one categorical token with its accumulated frequency.
// Weighted statistics accumulate fractional frequencies, so counts are
// carried as float64.
type TokenCount struct {
	Token string
	Count float64
}

// TopKCounter tracks frequency counts for categorical tokens with a
// bounded memory budget. When the tracked set exceeds the budget it is
// truncated back to the budget keeping the highest counts; ties are
// broken by lexicographic token order so that truncation is deterministic
// under any grouping or ordering of Add and Merge calls.
type TopKCounter struct {
	budget    int
	counts    map[string]float64
	truncated bool
}

// NewTopKCounter creates a counter tracking at most budget distinct tokens.
func NewTopKCounter(budget int) *TopKCounter {
	if budget < 1 {
		budget = 1
	}
	return &TopKCounter{
		budget: budget,
		counts: make(map[string]float64),
	}
}

// Add increments token by weight.
func (t *TopKCounter) Add(token string, weight float64) {
	t.counts[token] += weight
	if len(t.counts) > t.budget {
		t.truncate()
	}
}

// Merge folds other into t by count-wise union, then truncates back to
// the budget. Budgets must match.
func (t *TopKCounter) Merge(other *TopKCounter) error {
	if other == nil {
		return nil
	}
	if other.budget != t.budget {
		return fmt.Errorf("topk counter: cannot merge budget %d into %d", other.budget, t.budget)
	}
	for token, c := range other.counts {
		t.counts[token] += c
	}
	t.truncated = t.truncated || other.truncated
	if len(t.counts) > t.budget {
		t.truncate()
	}
	return nil
}

// Truncated reports whether any truncation occurred, in which case the
// tracked counts are a lower bound on true frequencies.
func (t *TopKCounter) Truncated() bool { return t.truncated }

// Distinct returns the number of tokens currently tracked.
func (t *TopKCounter) Distinct() int { return len(t.counts) }

// Total returns the sum of all tracked counts.
func (t *TopKCounter) Total() float64 {
	var sum float64
	for _, c := range t.counts {
		sum += c
	}
	return sum
}

// Top returns the k highest-frequency tokens in (count desc, token asc)
// order. k <= 0 returns every tracked token.
func (t *TopKCounter) Top(k int) []TokenCount {
	out := make([]TokenCount, 0, len(t.counts))
	for token, c := range t.counts {
		out = append(out, TokenCount{Token: token, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func (t *TopKCounter) truncate() {
	t.truncated = true
	kept := t.Top(t.budget)
	t.counts = make(map[string]float64, len(kept))
	for _, tc := range kept {
		t.counts[tc.Token] = tc.Count
	}
}
