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

// Package types defines the configuration surface of the DataCheck engine.
// All knobs live in an explicit Config value passed to the engine at
// construction; there is no process-wide mutable registry.
package types

import "fmt"

// Generator names of the built-in statistic catalog.
const (
	GeneratorCount       = "count"
	GeneratorNumeric     = "numeric"
	GeneratorString      = "string"
	GeneratorTopK        = "topk"
	GeneratorCorrelation = "correlation"
)

// BuiltinGenerators lists every statistic generator the engine ships,
// in execution order.
func BuiltinGenerators() []string {
	return []string{
		GeneratorCount,
		GeneratorNumeric,
		GeneratorString,
		GeneratorTopK,
		GeneratorCorrelation,
	}
}

// SliceConfig names one dataset slice and the predicate expression that
// routes records into it. The expression is evaluated per record against
// an environment of feature name to value; a true result places the
// record in the slice.
type SliceConfig struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// Config 统计任务配置
type Config struct {
	// Generators is the active statistic generator set. Empty means all
	// built-in generators except correlation.
	Generators []string `json:"generators"`

	// Slices are the named record subsets statistics are additionally
	// computed for. The synthetic "all records" slice is always present.
	Slices []SliceConfig `json:"slices"`

	// WeightFeature, when set, names the feature whose numeric value
	// weights each record for the weighted statistic variants.
	WeightFeature string `json:"weightFeature"`

	// NumTopValues is how many categorical values are reported per
	// feature (top-k by frequency).
	NumTopValues int `json:"numTopValues"`

	// TopKBudget caps how many distinct tokens one top-k accumulator
	// tracks before truncation.
	TopKBudget int `json:"topKBudget"`

	// NumQuantiles is how many equal-rank buckets the quantile summary
	// reports per numeric feature.
	NumQuantiles int `json:"numQuantiles"`

	// QuantileSketchSize is the per-level capacity of the quantile
	// sketch; larger values lower the rank error.
	QuantileSketchSize int `json:"quantileSketchSize"`

	// DistinctPrecision is the register precision of the distinct-count
	// estimator, in [4, 16].
	DistinctPrecision uint8 `json:"distinctPrecision"`

	// EnumThreshold: a feature whose distinct-value count is at or below
	// this bound is classified categorical during schema inference. The
	// bound is absolute rather than a ratio of record count: under a
	// ratio the same feature would flip between categorical and string
	// as the dataset grows.
	EnumThreshold int64 `json:"enumThreshold"`

	// MaxDomainSize caps the enumerated domain recorded for a
	// categorical feature; larger observed domains degrade to no
	// enumeration.
	MaxDomainSize int `json:"maxDomainSize"`

	// MinPresenceFraction is the default minimum present fraction for
	// features inferred optional.
	MinPresenceFraction float64 `json:"minPresenceFraction"`

	// UnexpectedFeatureIsError escalates the "feature not in schema"
	// anomaly from warning to error.
	UnexpectedFeatureIsError bool `json:"unexpectedFeatureIsError"`

	// Parallelism is the number of partitions processed concurrently.
	// Zero or negative selects a single worker.
	Parallelism int `json:"parallelism"`
}

// NewConfig returns a Config populated with the default thresholds.
func NewConfig() *Config {
	return &Config{
		Generators:          nil,
		NumTopValues:        10,
		TopKBudget:          1024,
		NumQuantiles:        10,
		QuantileSketchSize:  256,
		DistinctPrecision:   12,
		EnumThreshold:       100,
		MaxDomainSize:       50,
		MinPresenceFraction: 0.9,
		Parallelism:         1,
	}
}

// ActiveGenerators resolves the configured generator set, applying the
// default when none was chosen explicitly.
func (c *Config) ActiveGenerators() []string {
	if len(c.Generators) > 0 {
		return c.Generators
	}
	return []string{GeneratorCount, GeneratorNumeric, GeneratorString, GeneratorTopK}
}

// Validate reports configuration errors. These are fatal at job setup:
// no statistics run starts with an invalid configuration.
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, name := range BuiltinGenerators() {
		known[name] = true
	}
	for _, name := range c.ActiveGenerators() {
		if !known[name] {
			return fmt.Errorf("config: unknown generator %q", name)
		}
	}

	seen := make(map[string]bool)
	for _, s := range c.Slices {
		if s.Name == "" {
			return fmt.Errorf("config: slice with empty name")
		}
		if s.Expression == "" {
			return fmt.Errorf("config: slice %q has empty expression", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("config: duplicate slice name %q", s.Name)
		}
		seen[s.Name] = true
	}

	if c.NumTopValues < 1 {
		return fmt.Errorf("config: numTopValues must be >= 1, got %d", c.NumTopValues)
	}
	if c.TopKBudget < c.NumTopValues {
		return fmt.Errorf("config: topKBudget %d below numTopValues %d", c.TopKBudget, c.NumTopValues)
	}
	if c.NumQuantiles < 2 {
		return fmt.Errorf("config: numQuantiles must be >= 2, got %d", c.NumQuantiles)
	}
	if c.QuantileSketchSize < 2 {
		return fmt.Errorf("config: quantileSketchSize must be >= 2, got %d", c.QuantileSketchSize)
	}
	if c.DistinctPrecision < 4 || c.DistinctPrecision > 16 {
		return fmt.Errorf("config: distinctPrecision must be in [4,16], got %d", c.DistinctPrecision)
	}
	if c.EnumThreshold < 1 {
		return fmt.Errorf("config: enumThreshold must be >= 1, got %d", c.EnumThreshold)
	}
	if c.MaxDomainSize < 1 {
		return fmt.Errorf("config: maxDomainSize must be >= 1, got %d", c.MaxDomainSize)
	}
	if c.MinPresenceFraction < 0 || c.MinPresenceFraction > 1 {
		return fmt.Errorf("config: minPresenceFraction must be in [0,1], got %v", c.MinPresenceFraction)
	}
	return nil
}
