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
	"unicode/utf8"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/sketch"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// StringGenerator computes the string statistic block per feature: value
// length bounds and average, plus a distinct-value estimate from the
// mergeable register sketch.
type StringGenerator struct {
	precision uint8
}

// NewStringGenerator creates the string statistics generator.
func NewStringGenerator(cfg *types.Config) *StringGenerator {
	return &StringGenerator{precision: cfg.DistinctPrecision}
}

// Name implements CombinerStatsGenerator.
func (g *StringGenerator) Name() string { return types.GeneratorString }

type stringState struct {
	path      model.Path
	count     int64
	sumLength int64
	minLength int64
	maxLength int64
	distinct  *sketch.DistinctCounter
}

type stringAccumulator struct {
	order     []string
	features  map[string]*stringState
	precision uint8
}

func (a *stringAccumulator) GeneratorName() string { return types.GeneratorString }

func (a *stringAccumulator) feature(path model.Path) *stringState {
	key := path.String()
	st, ok := a.features[key]
	if !ok {
		st = &stringState{path: path, distinct: sketch.NewDistinctCounter(a.precision)}
		a.features[key] = st
		a.order = append(a.order, key)
	}
	return st
}

// CreateAccumulator implements CombinerStatsGenerator.
func (g *StringGenerator) CreateAccumulator() Accumulator {
	return &stringAccumulator{
		features:  make(map[string]*stringState),
		precision: g.precision,
	}
}

// AddInput implements CombinerStatsGenerator. Only string-kind values
// contribute; numeric slots of a heterogeneous column are ignored here.
func (g *StringGenerator) AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error) {
	a, ok := acc.(*stringAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	for _, col := range batch.Columns() {
		for _, values := range col.Rows {
			for _, v := range values {
				if v.Kind != model.KindString {
					continue
				}
				st := a.feature(col.Path)
				length := int64(utf8.RuneCountInString(v.S))
				if st.count == 0 || length < st.minLength {
					st.minLength = length
				}
				if length > st.maxLength {
					st.maxLength = length
				}
				st.count++
				st.sumLength += length
				st.distinct.Add(v.S)
			}
		}
	}
	return a, nil
}

// MergeAccumulators implements CombinerStatsGenerator.
func (g *StringGenerator) MergeAccumulators(accs []Accumulator) (Accumulator, error) {
	out := g.CreateAccumulator().(*stringAccumulator)
	for _, acc := range accs {
		a, ok := acc.(*stringAccumulator)
		if !ok {
			return nil, mergeError(g.Name(), acc)
		}
		for _, key := range a.order {
			src := a.features[key]
			dst := out.feature(src.path)
			if dst.count == 0 {
				dst.minLength = src.minLength
				dst.maxLength = src.maxLength
			} else if src.count > 0 {
				if src.minLength < dst.minLength {
					dst.minLength = src.minLength
				}
				if src.maxLength > dst.maxLength {
					dst.maxLength = src.maxLength
				}
			}
			dst.count += src.count
			dst.sumLength += src.sumLength
			if err := dst.distinct.Merge(src.distinct); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ExtractOutput implements CombinerStatsGenerator.
func (g *StringGenerator) ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error) {
	a, ok := acc.(*stringAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	out := statistics.NewDatasetFeatureStatistics("")
	for _, key := range a.order {
		st := a.features[key]
		if st.count == 0 {
			continue
		}
		fs := &statistics.FeatureStats{
			Path: st.path,
			Str: &statistics.StringStats{
				Count:     st.count,
				AvgLength: float64(st.sumLength) / float64(st.count),
				MinLength: st.minLength,
				MaxLength: st.maxLength,
				Unique:    st.distinct.Estimate(),
			},
		}
		if err := out.AddFeature(fs); err != nil {
			return nil, err
		}
	}
	return out, nil
}
