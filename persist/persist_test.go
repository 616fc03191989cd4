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

package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/schema"
	"github.com/rulego/datacheck/statistics"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	min, max := 0.0, 99.0
	s := schema.New()
	require.NoError(t, s.AddFeature(&schema.Feature{
		Path:     model.NewPath("age"),
		Kind:     schema.KindNumeric,
		Presence: schema.Presence{MinFraction: 0.9},
		Domain:   &schema.Domain{Min: &min, Max: &max},
		Shape:    schema.Shape{Fixed: true, ValueCount: 1},
	}))
	require.NoError(t, s.AddFeature(&schema.Feature{
		Path:     model.NewPath("color"),
		Kind:     schema.KindCategorical,
		Presence: schema.Presence{Required: true, MinFraction: 1},
		Domain:   &schema.Domain{Values: []string{"blue", "red"}},
	}))
	return s
}

func TestSchemaRoundTrip(t *testing.T) {
	original := testSchema(t)

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, SaveSchema(path, original))

	loaded, err := LoadSchema(path)
	require.NoError(t, err)

	require.Len(t, loaded.Features, 2)
	age := loaded.GetFeature(model.NewPath("age"))
	require.NotNil(t, age)
	assert.Equal(t, schema.KindNumeric, age.Kind)
	assert.Equal(t, 0.0, *age.Domain.Min)
	assert.Equal(t, 99.0, *age.Domain.Max)
	assert.True(t, age.Shape.Fixed)

	color := loaded.GetFeature(model.NewPath("color"))
	require.NotNil(t, color)
	assert.True(t, color.Presence.Required)
	assert.Equal(t, []string{"blue", "red"}, color.Domain.Values)
}

func TestDecodeSchemaRejectsUnknownFields(t *testing.T) {
	_, err := DecodeSchema([]byte(`{"features": [], "surprise": true}`))
	assert.Error(t, err)
}

func TestDecodeSchemaRejectsInconsistent(t *testing.T) {
	// 下界高于上界的 schema 在加载时就被拒绝
	_, err := DecodeSchema([]byte(`{"features": [
		{"path": "a", "kind": 0, "presence": {"required": false, "minFraction": 0},
		 "domain": {"min": 9, "max": 1}, "shape": {"fixed": false}}
	]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent")
}

func TestEncodeSchemaRejectsInconsistent(t *testing.T) {
	min, max := 9.0, 1.0
	s := schema.New()
	require.NoError(t, s.AddFeature(&schema.Feature{
		Path:   model.NewPath("a"),
		Kind:   schema.KindNumeric,
		Domain: &schema.Domain{Min: &min, Max: &max},
	}))
	_, err := EncodeSchema(s)
	assert.Error(t, err)
}

func TestStatisticsRoundTrip(t *testing.T) {
	stats := &statistics.DatasetFeatureStatistics{
		Name:       statistics.AllRecordsSlice,
		NumRecords: 100,
	}
	require.NoError(t, stats.AddFeature(&statistics.FeatureStats{
		Path:          model.NewPath("age"),
		Type:          statistics.TypeInt,
		Count:         95,
		Missing:       5,
		TotalValues:   95,
		MinValueCount: 1,
		MaxValueCount: 1,
		Num:           &statistics.NumericStats{Count: 95, Mean: 48.2, Min: 0, Max: 99},
	}))
	list := &statistics.DatasetFeatureStatisticsList{
		Datasets: []*statistics.DatasetFeatureStatistics{stats},
	}

	path := filepath.Join(t.TempDir(), "stats.snappy")
	require.NoError(t, SaveStatistics(path, list))

	loaded, err := LoadStatistics(path)
	require.NoError(t, err)

	def := loaded.Default()
	require.NotNil(t, def)
	assert.Equal(t, int64(100), def.NumRecords)

	// 反序列化后按路径查找依旧可用
	age := def.Feature(model.NewPath("age"))
	require.NotNil(t, age)
	assert.Equal(t, int64(95), age.Count)
	assert.Equal(t, 48.2, age.Num.Mean)
}

func TestDecodeStatisticsRejectsGarbage(t *testing.T) {
	_, err := DecodeStatistics([]byte("not snappy data"))
	assert.Error(t, err)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSchema(filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
	_, err = LoadStatistics(filepath.Join(dir, "nope.snappy"))
	assert.Error(t, err)
}
