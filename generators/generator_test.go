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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

func runCombiner(t *testing.T, g CombinerStatsGenerator, batches ...*model.Batch) *statistics.DatasetFeatureStatistics {
	t.Helper()
	acc := g.CreateAccumulator()
	var err error
	for _, b := range batches {
		acc, err = g.AddInput(acc, b)
		require.NoError(t, err)
	}
	out, err := g.ExtractOutput(acc)
	require.NoError(t, err)
	return out
}

func TestCountGenerator(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"age": 30, "color": "red"},
		{"age": 40, "color": "blue", "tags": []interface{}{"a", "b", "c"}},
		{"color": "red"},
	})

	out := runCombiner(t, NewCountGenerator(types.NewConfig()), batch)
	assert.Equal(t, int64(3), out.NumRecords)

	age := out.Feature(model.NewPath("age"))
	require.NotNil(t, age)
	assert.Equal(t, int64(2), age.Count)
	assert.Equal(t, int64(1), age.Missing)
	assert.Equal(t, statistics.TypeInt, age.Type)
	assert.Equal(t, int64(1), age.MinValueCount)
	assert.Equal(t, int64(1), age.MaxValueCount)

	tags := out.Feature(model.NewPath("tags"))
	require.NotNil(t, tags)
	assert.Equal(t, int64(1), tags.Count)
	assert.Equal(t, int64(2), tags.Missing)
	assert.Equal(t, int64(3), tags.TotalValues)
	assert.Equal(t, int64(3), tags.MinValueCount)
	assert.Equal(t, int64(3), tags.MaxValueCount)
}

func TestCountGenerator_TypeMismatch(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"age": 30},
		{"age": "unknown"},
		{"age": 31},
		{"age": 29},
	})

	out := runCombiner(t, NewCountGenerator(types.NewConfig()), batch)
	age := out.Feature(model.NewPath("age"))
	require.NotNil(t, age)
	assert.Equal(t, statistics.TypeInt, age.Type)
	assert.Equal(t, int64(1), age.TypeMismatches, "string slot in a numeric column must signal, not fail")
}

func TestCountGenerator_MixedNumericWidensToFloat(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"x": 1},
		{"x": 2.5},
	})

	out := runCombiner(t, NewCountGenerator(types.NewConfig()), batch)
	assert.Equal(t, statistics.TypeFloat, out.Feature(model.NewPath("x")).Type)
}

func TestCountGenerator_Weighted(t *testing.T) {
	cfg := types.NewConfig()
	cfg.WeightFeature = "w"
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"color": "red", "w": 2.0},
		{"color": "blue", "w": 3.0},
		{"w": 5.0},
	})

	out := runCombiner(t, NewCountGenerator(cfg), batch)
	assert.Equal(t, 10.0, out.WeightedNumRecords)
	assert.Equal(t, 5.0, out.Feature(model.NewPath("color")).WeightedCount)
}

func TestCountGenerator_MergeEqualsSinglePass(t *testing.T) {
	records := []map[string]interface{}{
		{"age": 1, "color": "red"},
		{"age": 2},
		{"color": "blue"},
		{"age": 3, "color": "red"},
	}
	g := NewCountGenerator(types.NewConfig())

	single := runCombiner(t, g, model.BatchFromRecords(records))

	accA := g.CreateAccumulator()
	accA, err := g.AddInput(accA, model.BatchFromRecords(records[:2]))
	require.NoError(t, err)
	accB := g.CreateAccumulator()
	accB, err = g.AddInput(accB, model.BatchFromRecords(records[2:]))
	require.NoError(t, err)

	merged, err := g.MergeAccumulators([]Accumulator{accA, accB})
	require.NoError(t, err)
	split, err := g.ExtractOutput(merged)
	require.NoError(t, err)

	require.Len(t, split.Features, len(single.Features))
	for i, want := range single.Features {
		assert.Equal(t, want, split.Features[i])
	}
}

func TestNumericGenerator(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"age": 10.0},
		{"age": 20.0},
		{"age": 0.0},
		{"age": 30.0},
	})

	out := runCombiner(t, NewNumericGenerator(types.NewConfig()), batch)
	age := out.Feature(model.NewPath("age"))
	require.NotNil(t, age)
	require.NotNil(t, age.Num)
	assert.Equal(t, int64(4), age.Num.Count)
	assert.InDelta(t, 15.0, age.Num.Mean, 1e-9)
	assert.InDelta(t, 11.180339887, age.Num.StdDev, 1e-6)
	assert.Equal(t, 0.0, age.Num.Min)
	assert.Equal(t, 30.0, age.Num.Max)
	assert.Equal(t, int64(1), age.Num.NumZeros)
	require.Len(t, age.Num.Quantiles, types.NewConfig().NumQuantiles+1)
}

func TestNumericGenerator_NoNumericValuesYieldsNoBlock(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"color": "red"},
		{"color": "blue"},
	})

	out := runCombiner(t, NewNumericGenerator(types.NewConfig()), batch)
	assert.Nil(t, out.Feature(model.NewPath("color")),
		"all-string feature must produce no numeric block, not zeros")
}

func TestNumericGenerator_ChanMerge(t *testing.T) {
	g := NewNumericGenerator(types.NewConfig())

	all := []map[string]interface{}{
		{"x": 1.0}, {"x": 2.0}, {"x": 3.0}, {"x": 4.0}, {"x": 5.0}, {"x": 100.0},
	}
	single := runCombiner(t, g, model.BatchFromRecords(all))

	accA := g.CreateAccumulator()
	accA, err := g.AddInput(accA, model.BatchFromRecords(all[:2]))
	require.NoError(t, err)
	accB := g.CreateAccumulator()
	accB, err = g.AddInput(accB, model.BatchFromRecords(all[2:]))
	require.NoError(t, err)

	merged, err := g.MergeAccumulators([]Accumulator{accA, accB})
	require.NoError(t, err)
	split, err := g.ExtractOutput(merged)
	require.NoError(t, err)

	want := single.Feature(model.NewPath("x")).Num
	got := split.Feature(model.NewPath("x")).Num
	assert.Equal(t, want.Count, got.Count)
	assert.InDelta(t, want.Mean, got.Mean, 1e-9)
	assert.InDelta(t, want.StdDev, got.StdDev, 1e-9)
	assert.Equal(t, want.Min, got.Min)
	assert.Equal(t, want.Max, got.Max)
}

func TestNumericGenerator_Weighted(t *testing.T) {
	cfg := types.NewConfig()
	cfg.WeightFeature = "w"
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"x": 10.0, "w": 1.0},
		{"x": 20.0, "w": 3.0},
	})

	out := runCombiner(t, NewNumericGenerator(cfg), batch)
	x := out.Feature(model.NewPath("x"))
	require.NotNil(t, x.WeightedNum)
	assert.InDelta(t, 4.0, x.WeightedNum.SumWeights, 1e-9)
	// (10*1 + 20*3) / 4 = 17.5
	assert.InDelta(t, 17.5, x.WeightedNum.Mean, 1e-9)
}

func TestNumericGenerator_ExtractIdempotent(t *testing.T) {
	g := NewNumericGenerator(types.NewConfig())
	acc := g.CreateAccumulator()
	acc, err := g.AddInput(acc, model.BatchFromRecords([]map[string]interface{}{
		{"x": 1.0}, {"x": 2.0}, {"x": 3.0},
	}))
	require.NoError(t, err)

	first, err := g.ExtractOutput(acc)
	require.NoError(t, err)
	second, err := g.ExtractOutput(acc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStringGenerator(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"color": "red"},
		{"color": "green"},
		{"color": "red"},
		{"color": "蓝色"},
	})

	out := runCombiner(t, NewStringGenerator(types.NewConfig()), batch)
	color := out.Feature(model.NewPath("color"))
	require.NotNil(t, color)
	require.NotNil(t, color.Str)
	assert.Equal(t, int64(4), color.Str.Count)
	assert.Equal(t, int64(2), color.Str.MinLength, "lengths count runes, not bytes")
	assert.Equal(t, int64(5), color.Str.MaxLength)
	assert.InDelta(t, (3+5+3+2)/4.0, color.Str.AvgLength, 1e-9)
	assert.Equal(t, int64(3), color.Str.Unique)
}

func TestTopKGenerator(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"color": "red"}, {"color": "red"}, {"color": "red"},
		{"color": "blue"}, {"color": "blue"},
		{"color": "green"},
	})

	cfg := types.NewConfig()
	cfg.NumTopValues = 2
	out := runCombiner(t, NewTopKGenerator(cfg), batch)

	color := out.Feature(model.NewPath("color"))
	require.NotNil(t, color)
	require.NotNil(t, color.Cat)
	assert.Equal(t, int64(3), color.Cat.Distinct)
	assert.False(t, color.Cat.Truncated)
	require.Len(t, color.Cat.TopValues, 2)
	assert.Equal(t, statistics.ValueCount{Value: "red", Count: 3}, color.Cat.TopValues[0])
	assert.Equal(t, statistics.ValueCount{Value: "blue", Count: 2}, color.Cat.TopValues[1])
}

func TestTopKGenerator_IntTokensAndFloatsIgnored(t *testing.T) {
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"code": 7}, {"code": 7}, {"code": 9}, {"temp": 21.5},
	})

	out := runCombiner(t, NewTopKGenerator(types.NewConfig()), batch)
	code := out.Feature(model.NewPath("code"))
	require.NotNil(t, code)
	assert.Equal(t, statistics.ValueCount{Value: "7", Count: 2}, code.Cat.TopValues[0])

	assert.Nil(t, out.Feature(model.NewPath("temp")), "float features are not categorical")
}

func TestTopKGenerator_Weighted(t *testing.T) {
	cfg := types.NewConfig()
	cfg.WeightFeature = "w"
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"color": "red", "w": 1.0},
		{"color": "blue", "w": 10.0},
	})

	out := runCombiner(t, NewTopKGenerator(cfg), batch)
	cat := out.Feature(model.NewPath("color")).Cat
	require.NotEmpty(t, cat.WeightedTopValues)
	assert.Equal(t, statistics.ValueCount{Value: "blue", Count: 10}, cat.WeightedTopValues[0])
	// unweighted order differs
	assert.Equal(t, statistics.ValueCount{Value: "blue", Count: 1}, cat.TopValues[0])
}

func TestCorrelationGenerator(t *testing.T) {
	g := NewCorrelationGenerator(types.NewConfig())
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"x": 1.0, "y": 2.0, "z": 9.0},
		{"x": 2.0, "y": 4.0, "z": 5.0},
		{"x": 3.0, "y": 6.0, "z": 1.0},
	})

	derived, err := g.Transform(batch)
	require.NoError(t, err)

	c := g.Combiner()
	acc := c.CreateAccumulator()
	acc, err = c.AddInput(acc, derived)
	require.NoError(t, err)
	out, err := c.ExtractOutput(acc)
	require.NoError(t, err)

	require.Len(t, out.CrossFeatures, 3)
	byPair := make(map[string]float64)
	for _, cf := range out.CrossFeatures {
		byPair[cf.PathX.String()+","+cf.PathY.String()] = cf.Pearson
	}
	assert.InDelta(t, 1.0, byPair["x,y"], 1e-9, "y = 2x is perfectly correlated")
	assert.InDelta(t, -1.0, byPair["x,z"], 1e-9, "z = 13 - 4x is perfectly anti-correlated")
}

func TestCorrelationGenerator_ConstantFeatureOmitted(t *testing.T) {
	g := NewCorrelationGenerator(types.NewConfig())
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"x": 1.0, "c": 5.0},
		{"x": 2.0, "c": 5.0},
	})

	derived, err := g.Transform(batch)
	require.NoError(t, err)

	c := g.Combiner()
	acc, err := c.AddInput(c.CreateAccumulator(), derived)
	require.NoError(t, err)
	out, err := c.ExtractOutput(acc)
	require.NoError(t, err)
	assert.Empty(t, out.CrossFeatures, "correlation with a constant feature is undefined")
}

func TestCorrelationGenerator_MissingRows(t *testing.T) {
	g := NewCorrelationGenerator(types.NewConfig())
	batch := model.BatchFromRecords([]map[string]interface{}{
		{"x": 1.0, "y": 1.0},
		{"x": 2.0},
		{"y": 3.0},
		{"x": 4.0, "y": 4.0},
		{"x": 5.0, "y": 5.0},
	})

	derived, err := g.Transform(batch)
	require.NoError(t, err)

	c := g.Combiner()
	acc, err := c.AddInput(c.CreateAccumulator(), derived)
	require.NoError(t, err)
	out, err := c.ExtractOutput(acc)
	require.NoError(t, err)

	require.Len(t, out.CrossFeatures, 1)
	assert.Equal(t, int64(3), out.CrossFeatures[0].Count, "only rows with both features present count")
}

func TestMergeShapeViolation(t *testing.T) {
	cfg := types.NewConfig()
	count := NewCountGenerator(cfg)
	numeric := NewNumericGenerator(cfg)

	_, err := count.MergeAccumulators([]Accumulator{
		count.CreateAccumulator(),
		numeric.CreateAccumulator(),
	})
	require.Error(t, err, "kind-mismatched merge is a contract violation")
	assert.Contains(t, err.Error(), "cannot merge")

	_, err = numeric.AddInput(count.CreateAccumulator(), model.NewBatch(0))
	require.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	cfg := types.NewConfig()
	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	assert.Len(t, reg.Combiners, 4)
	assert.Empty(t, reg.Transforms)

	cfg.Generators = []string{types.GeneratorNumeric, types.GeneratorCorrelation}
	reg, err = NewRegistry(cfg)
	require.NoError(t, err)
	assert.Len(t, reg.Combiners, 1)
	assert.Len(t, reg.Transforms, 1)

	cfg.Generators = []string{"histogram3d"}
	_, err = NewRegistry(cfg)
	assert.Error(t, err)
}
