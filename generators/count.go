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
	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// CountGenerator computes presence statistics: how many records carry
// each feature, how many values each present record carries, the
// weight-adjusted counterparts, and the dominant runtime type with a
// type-mismatch signal for heterogeneous columns.
type CountGenerator struct {
	weightFeature string
}

// NewCountGenerator creates the presence/count generator.
func NewCountGenerator(cfg *types.Config) *CountGenerator {
	return &CountGenerator{weightFeature: cfg.WeightFeature}
}

// Name implements CombinerStatsGenerator.
func (g *CountGenerator) Name() string { return types.GeneratorCount }

type featureCount struct {
	path        model.Path
	present     int64
	totalValues int64
	minValues   int64
	maxValues   int64
	weighted    float64
	// 每种运行时类型的取值数量
	kindCounts map[model.ValueKind]int64
}

type countAccumulator struct {
	numRecords      int64
	weightedRecords float64
	order           []string
	features        map[string]*featureCount
}

func (a *countAccumulator) GeneratorName() string { return types.GeneratorCount }

func (a *countAccumulator) feature(path model.Path) *featureCount {
	key := path.String()
	fc, ok := a.features[key]
	if !ok {
		fc = &featureCount{path: path, kindCounts: make(map[model.ValueKind]int64)}
		a.features[key] = fc
		a.order = append(a.order, key)
	}
	return fc
}

// CreateAccumulator implements CombinerStatsGenerator.
func (g *CountGenerator) CreateAccumulator() Accumulator {
	return &countAccumulator{features: make(map[string]*featureCount)}
}

// AddInput implements CombinerStatsGenerator.
func (g *CountGenerator) AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error) {
	a, ok := acc.(*countAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	a.numRecords += int64(batch.NumRows())
	for row := 0; row < batch.NumRows(); row++ {
		a.weightedRecords += rowWeight(g.weightFeature, batch, row)
	}

	for _, col := range batch.Columns() {
		fc := a.feature(col.Path)
		for row, values := range col.Rows {
			if values == nil {
				continue
			}
			fc.present++
			fc.weighted += rowWeight(g.weightFeature, batch, row)
			n := int64(len(values))
			fc.totalValues += n
			if fc.present == 1 || n < fc.minValues {
				fc.minValues = n
			}
			if n > fc.maxValues {
				fc.maxValues = n
			}
			for _, v := range values {
				fc.kindCounts[v.Kind]++
			}
		}
	}
	return a, nil
}

// MergeAccumulators implements CombinerStatsGenerator.
func (g *CountGenerator) MergeAccumulators(accs []Accumulator) (Accumulator, error) {
	out := g.CreateAccumulator().(*countAccumulator)
	for _, acc := range accs {
		a, ok := acc.(*countAccumulator)
		if !ok {
			return nil, mergeError(g.Name(), acc)
		}
		out.numRecords += a.numRecords
		out.weightedRecords += a.weightedRecords
		for _, key := range a.order {
			fc := a.features[key]
			dst := out.feature(fc.path)
			if dst.present == 0 {
				dst.minValues = fc.minValues
				dst.maxValues = fc.maxValues
			} else if fc.present > 0 {
				if fc.minValues < dst.minValues {
					dst.minValues = fc.minValues
				}
				if fc.maxValues > dst.maxValues {
					dst.maxValues = fc.maxValues
				}
			}
			dst.present += fc.present
			dst.weighted += fc.weighted
			dst.totalValues += fc.totalValues
			for kind, c := range fc.kindCounts {
				dst.kindCounts[kind] += c
			}
		}
	}
	return out, nil
}

// ExtractOutput implements CombinerStatsGenerator.
func (g *CountGenerator) ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error) {
	a, ok := acc.(*countAccumulator)
	if !ok {
		return nil, mergeError(g.Name(), acc)
	}

	out := statistics.NewDatasetFeatureStatistics("")
	out.NumRecords = a.numRecords
	out.WeightedNumRecords = a.weightedRecords
	for _, key := range a.order {
		fc := a.features[key]
		featureType, mismatches := dominantType(fc.kindCounts)
		fs := &statistics.FeatureStats{
			Path:           fc.path,
			Type:           featureType,
			Count:          fc.present,
			Missing:        a.numRecords - fc.present,
			TotalValues:    fc.totalValues,
			MinValueCount:  fc.minValues,
			MaxValueCount:  fc.maxValues,
			WeightedCount:  fc.weighted,
			TypeMismatches: mismatches,
		}
		if err := out.AddFeature(fs); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dominantType classifies a feature from its per-kind value counts and
// reports how many values contradicted the dominant kind. Mixed int and
// float observations widen to float, matching how numeric columns with
// occasional decimal values should be read.
func dominantType(kindCounts map[model.ValueKind]int64) (statistics.FeatureType, int64) {
	ints := kindCounts[model.KindInt]
	floats := kindCounts[model.KindFloat]
	strings := kindCounts[model.KindString]

	switch {
	case ints+floats == 0 && strings == 0:
		return statistics.TypeUnknown, 0
	case strings >= ints+floats:
		return statistics.TypeString, ints + floats
	case floats > 0:
		return statistics.TypeFloat, strings
	default:
		return statistics.TypeInt, strings
	}
}
