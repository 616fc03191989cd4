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
	"math"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/sketch"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// NumericGenerator computes the numeric statistic block per feature:
// mean and standard deviation (mergeable Chan-style moment combination),
// min/max, zero counts, and quantiles through the mergeable quantile
// sketch. With a weight feature configured it also produces the
// weight-adjusted mean and standard deviation.
type NumericGenerator struct {
	weightFeature string
	numQuantiles  int
	sketchSize    int
}

// NewNumericGenerator creates the numeric statistics generator.
func NewNumericGenerator(cfg *types.Config) *NumericGenerator {
	return &NumericGenerator{
		weightFeature: cfg.WeightFeature,
		numQuantiles:  cfg.NumQuantiles,
		sketchSize:    cfg.QuantileSketchSize,
	}
}

// Name implements CombinerStatsGenerator.
func (g *NumericGenerator) Name() string { return types.GeneratorNumeric }

type numericState struct {
	path  model.Path
	count int64
	mean  float64
	m2    float64
	zeros int64
	qs    *sketch.QuantileSketch

	// 加权矩（West增量算法）
	sumWeights float64
	wMean      float64
	wM2        float64
}

// add absorbs one numeric observation with its record weight.
func (s *numericState) add(v, weight float64) {
	s.count++
	delta := v - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (v - s.mean)

	if v == 0 {
		s.zeros++
	}
	s.qs.Add(v)

	if weight > 0 {
		s.sumWeights += weight
		wDelta := v - s.wMean
		s.wMean += (weight / s.sumWeights) * wDelta
		s.wM2 += weight * wDelta * (v - s.wMean)
	}
}

// merge combines two partial moment sets (Chan et al. parallel update).
func (s *numericState) merge(o *numericState) error {
	if o.count > 0 {
		n := float64(s.count + o.count)
		delta := o.mean - s.mean
		s.mean += delta * float64(o.count) / n
		s.m2 += o.m2 + delta*delta*float64(s.count)*float64(o.count)/n
		s.count += o.count
		s.zeros += o.zeros
	}
	if o.sumWeights > 0 {
		w := s.sumWeights + o.sumWeights
		delta := o.wMean - s.wMean
		s.wMean += delta * o.sumWeights / w
		s.wM2 += o.wM2 + delta*delta*s.sumWeights*o.sumWeights/w
		s.sumWeights = w
	}
	return s.qs.Merge(o.qs)
}

type numericAccumulator struct {
	order    []string
	features map[string]*numericState
	sketchK  int
	weighted bool
}

func (a *numericAccumulator) GeneratorName() string { return types.GeneratorNumeric }

func (a *numericAccumulator) feature(path model.Path) *numericState {
	key := path.String()
	st, ok := a.features[key]
	if !ok {
		st = &numericState{path: path, qs: sketch.NewQuantileSketch(a.sketchK)}
		a.features[key] = st
		a.order = append(a.order, key)
	}
	return st
}

// CreateAccumulator implements CombinerStatsGenerator.
func (g *NumericGenerator) CreateAccumulator() Accumulator {
	return &numericAccumulator{
		features: make(map[string]*numericState),
		sketchK:  g.sketchSize,
		weighted: g.weightFeature != "",
	}
}

// AddInput implements CombinerStatsGenerator. Non-numeric values are not
// absorbed; the count generator owns the type-mismatch signal.
func (g *NumericGenerator) AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error) {
	a, ok := acc.(*numericAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	for _, col := range batch.Columns() {
		for row, values := range col.Rows {
			if values == nil {
				continue
			}
			var weight float64
			if g.weightFeature != "" {
				weight = rowWeight(g.weightFeature, batch, row)
			}
			for _, v := range values {
				if !v.IsNumeric() {
					continue
				}
				f, _ := v.AsFloat()
				a.feature(col.Path).add(f, weight)
			}
		}
	}
	return a, nil
}

// MergeAccumulators implements CombinerStatsGenerator.
func (g *NumericGenerator) MergeAccumulators(accs []Accumulator) (Accumulator, error) {
	out := g.CreateAccumulator().(*numericAccumulator)
	for _, acc := range accs {
		a, ok := acc.(*numericAccumulator)
		if !ok {
			return nil, mergeError(g.Name(), acc)
		}
		for _, key := range a.order {
			src := a.features[key]
			if err := out.feature(src.path).merge(src); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// ExtractOutput implements CombinerStatsGenerator. Features with zero
// numeric observations produce no numeric block at all: mean and standard
// deviation stay undefined instead of surfacing as zero.
func (g *NumericGenerator) ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error) {
	a, ok := acc.(*numericAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	out := statistics.NewDatasetFeatureStatistics("")
	for _, key := range a.order {
		st := a.features[key]
		if st.count == 0 {
			continue
		}
		num := &statistics.NumericStats{
			Count:    st.count,
			Mean:     st.mean,
			StdDev:   math.Sqrt(st.m2 / float64(st.count)),
			Min:      st.qs.Min(),
			Max:      st.qs.Max(),
			NumZeros: st.zeros,
		}
		num.Quantiles = st.qs.Quantiles(g.numQuantiles)
		if med, ok := st.qs.Median(); ok {
			num.Median = med
		}

		fs := &statistics.FeatureStats{Path: st.path, Num: num}
		if a.weighted && st.sumWeights > 0 {
			fs.WeightedNum = &statistics.WeightedNumericStats{
				SumWeights: st.sumWeights,
				Mean:       st.wMean,
				StdDev:     math.Sqrt(st.wM2 / st.sumWeights),
			}
		}
		if err := out.AddFeature(fs); err != nil {
			return nil, err
		}
	}
	return out, nil
}
