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
	"math"
	"sort"
)

// QuantileSketch is a mergeable bounded-error streaming quantile summary.
//
// Items live in weighted levels: an item at level i represents 2^i original
// observations. When a level overflows its capacity the sorted items are
// halved (every other one survives) and promoted one level up, so the
// summary size stays O(k * log(n/k)) while the rank error stays O(1/k) of
// the total count. Because merging appends level-wise and re-compacts, the
// error bound depends only on k and the total observation count, not on
// how many partial merges produced the final sketch.
//
// The survivor offset alternates per level between compactions, which keeps
// the structure fully deterministic: the same multiset of observations
// yields the same summary under any grouping of Add and Merge calls with
// the same compaction schedule.
type QuantileSketch struct {
	k      int
	levels [][]float64
	parity []bool
	count  int64
	min    float64
	max    float64
}

// NewQuantileSketch creates a sketch with per-level capacity k.
// Larger k lowers the rank error (roughly 1/k of total count) at the cost
// of memory. k must be at least 2.
func NewQuantileSketch(k int) *QuantileSketch {
	if k < 2 {
		k = 2
	}
	return &QuantileSketch{
		k:   k,
		min: math.Inf(1),
		max: math.Inf(-1),
	}
}

// Count returns the total number of observations absorbed.
func (q *QuantileSketch) Count() int64 { return q.count }

// Min returns the smallest observation, or +Inf when empty.
func (q *QuantileSketch) Min() float64 { return q.min }

// Max returns the largest observation, or -Inf when empty.
func (q *QuantileSketch) Max() float64 { return q.max }

// Add absorbs one observation.
func (q *QuantileSketch) Add(v float64) {
	if math.IsNaN(v) {
		return
	}
	q.count++
	if v < q.min {
		q.min = v
	}
	if v > q.max {
		q.max = v
	}
	if len(q.levels) == 0 {
		q.levels = append(q.levels, nil)
		q.parity = append(q.parity, false)
	}
	q.levels[0] = append(q.levels[0], v)
	q.compactFrom(0)
}

// Merge folds other into q. Both sketches must share the same k; merging
// summaries of different precision is a contract violation.
func (q *QuantileSketch) Merge(other *QuantileSketch) error {
	if other == nil || other.count == 0 {
		return nil
	}
	if other.k != q.k {
		return fmt.Errorf("quantile sketch: cannot merge precision k=%d into k=%d", other.k, q.k)
	}
	for len(q.levels) < len(other.levels) {
		q.levels = append(q.levels, nil)
		q.parity = append(q.parity, false)
	}
	for i, items := range other.levels {
		q.levels[i] = append(q.levels[i], items...)
	}
	q.count += other.count
	if other.min < q.min {
		q.min = other.min
	}
	if other.max > q.max {
		q.max = other.max
	}
	for i := 0; i < len(q.levels); i++ {
		q.compactFrom(i)
	}
	return nil
}

// compactFrom halves overflowing levels starting at level, cascading the
// promoted survivors upward.
func (q *QuantileSketch) compactFrom(level int) {
	for i := level; i < len(q.levels); i++ {
		if len(q.levels[i]) <= q.k {
			continue
		}
		items := q.levels[i]
		sort.Float64s(items)
		offset := 0
		if q.parity[i] {
			offset = 1
		}
		q.parity[i] = !q.parity[i]

		survivors := make([]float64, 0, (len(items)+1)/2)
		for j := offset; j < len(items); j += 2 {
			survivors = append(survivors, items[j])
		}
		q.levels[i] = items[:0]
		if i+1 == len(q.levels) {
			q.levels = append(q.levels, nil)
			q.parity = append(q.parity, false)
		}
		q.levels[i+1] = append(q.levels[i+1], survivors...)
	}
}

type weightedItem struct {
	value  float64
	weight int64
}

func (q *QuantileSketch) weightedItems() []weightedItem {
	var items []weightedItem
	for level, vals := range q.levels {
		w := int64(1) << uint(level)
		for _, v := range vals {
			items = append(items, weightedItem{value: v, weight: w})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].value < items[j].value })
	return items
}

// Quantiles returns num+1 boundaries dividing the observed distribution
// into num equal-rank buckets: boundary 0 is the minimum and boundary num
// the maximum. Returns nil when the sketch is empty or num < 1.
func (q *QuantileSketch) Quantiles(num int) []float64 {
	if q.count == 0 || num < 1 {
		return nil
	}
	items := q.weightedItems()

	// 按权重累计求每个分位点
	var totalWeight int64
	for _, it := range items {
		totalWeight += it.weight
	}

	out := make([]float64, num+1)
	out[0] = q.min
	out[num] = q.max
	for j := 1; j < num; j++ {
		target := int64(math.Ceil(float64(totalWeight) * float64(j) / float64(num)))
		var cum int64
		val := q.max
		for _, it := range items {
			cum += it.weight
			if cum >= target {
				val = it.value
				break
			}
		}
		out[j] = val
	}
	return out
}

// Median returns the approximate median, or false when empty.
func (q *QuantileSketch) Median() (float64, bool) {
	if q.count == 0 {
		return 0, false
	}
	qs := q.Quantiles(2)
	return qs[1], true
}
