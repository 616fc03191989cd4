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

package generators

import (
	"sort"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/sketch"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// TopKGenerator computes categorical value counts per feature: the k most
// frequent values with their frequencies, and the weight-adjusted variant
// when a weight feature is configured. String and integer values are
// treated as categorical tokens; floats are not.
type TopKGenerator struct {
	weightFeature string
	numTopValues  int
	budget        int
	maxDomainSize int
}

// NewTopKGenerator creates the categorical value-count generator.
func NewTopKGenerator(cfg *types.Config) *TopKGenerator {
	return &TopKGenerator{
		weightFeature: cfg.WeightFeature,
		numTopValues:  cfg.NumTopValues,
		budget:        cfg.TopKBudget,
		maxDomainSize: cfg.MaxDomainSize,
	}
}

// Name implements CombinerStatsGenerator.
func (g *TopKGenerator) Name() string { return types.GeneratorTopK }

type topkState struct {
	path     model.Path
	counts   *sketch.TopKCounter
	weighted *sketch.TopKCounter
}

type topkAccumulator struct {
	order    []string
	features map[string]*topkState
	budget   int
	weighted bool
}

func (a *topkAccumulator) GeneratorName() string { return types.GeneratorTopK }

func (a *topkAccumulator) feature(path model.Path) *topkState {
	key := path.String()
	st, ok := a.features[key]
	if !ok {
		st = &topkState{path: path, counts: sketch.NewTopKCounter(a.budget)}
		if a.weighted {
			st.weighted = sketch.NewTopKCounter(a.budget)
		}
		a.features[key] = st
		a.order = append(a.order, key)
	}
	return st
}

// CreateAccumulator implements CombinerStatsGenerator.
func (g *TopKGenerator) CreateAccumulator() Accumulator {
	return &topkAccumulator{
		features: make(map[string]*topkState),
		budget:   g.budget,
		weighted: g.weightFeature != "",
	}
}

// AddInput implements CombinerStatsGenerator.
func (g *TopKGenerator) AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error) {
	a, ok := acc.(*topkAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	for _, col := range batch.Columns() {
		for row, values := range col.Rows {
			var weight float64
			if a.weighted {
				weight = rowWeight(g.weightFeature, batch, row)
			}
			for _, v := range values {
				if v.Kind != model.KindString && v.Kind != model.KindInt {
					continue
				}
				st := a.feature(col.Path)
				token := v.AsString()
				st.counts.Add(token, 1)
				if st.weighted != nil {
					st.weighted.Add(token, weight)
				}
			}
		}
	}
	return a, nil
}

// MergeAccumulators implements CombinerStatsGenerator.
func (g *TopKGenerator) MergeAccumulators(accs []Accumulator) (Accumulator, error) {
	out := g.CreateAccumulator().(*topkAccumulator)
	for _, acc := range accs {
		a, ok := acc.(*topkAccumulator)
		if !ok {
			return nil, mergeError(g.Name(), acc)
		}
		for _, key := range a.order {
			src := a.features[key]
			dst := out.feature(src.path)
			if err := dst.counts.Merge(src.counts); err != nil {
				return nil, err
			}
			if dst.weighted != nil && src.weighted != nil {
				if err := dst.weighted.Merge(src.weighted); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

// ExtractOutput implements CombinerStatsGenerator.
func (g *TopKGenerator) ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error) {
	a, ok := acc.(*topkAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	out := statistics.NewDatasetFeatureStatistics("")
	for _, key := range a.order {
		st := a.features[key]
		if st.counts.Distinct() == 0 {
			continue
		}
		cat := &statistics.CategoricalStats{
			Distinct:  int64(st.counts.Distinct()),
			Truncated: st.counts.Truncated(),
			TopValues: toValueCounts(st.counts.Top(g.numTopValues)),
		}
		if !cat.Truncated && st.counts.Distinct() <= g.maxDomainSize {
			all := st.counts.Top(0)
			values := make([]string, 0, len(all))
			for _, tc := range all {
				values = append(values, tc.Token)
			}
			sort.Strings(values)
			cat.DomainValues = values
		}
		if st.weighted != nil {
			cat.WeightedTopValues = toValueCounts(st.weighted.Top(g.numTopValues))
		}
		fs := &statistics.FeatureStats{Path: st.path, Cat: cat}
		if err := out.AddFeature(fs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toValueCounts(tokens []sketch.TokenCount) []statistics.ValueCount {
	out := make([]statistics.ValueCount, 0, len(tokens))
	for _, tc := range tokens {
		out = append(out, statistics.ValueCount{Value: tc.Token, Count: tc.Count})
	}
	return out
}
