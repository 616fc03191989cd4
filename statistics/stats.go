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

// Package statistics defines the finalized statistics records produced by
// one statistics run: per-feature counts and typed statistic blocks,
// grouped per dataset slice. The records are immutable value objects once
// a run completes and are shared freely by reference.
package statistics

import (
	"fmt"

	"github.com/rulego/datacheck/model"
)

// AllRecordsSlice is the name of the synthetic slice covering every record.
const AllRecordsSlice = "all_records"

// FeatureType classifies the dominant runtime type observed for a feature.
type FeatureType int

const (
	// TypeUnknown means no typed values were observed
	TypeUnknown FeatureType = iota
	// TypeInt means integer values dominate
	TypeInt
	// TypeFloat means floating point values dominate
	TypeFloat
	// TypeString means string values dominate
	TypeString
	// TypeStruct marks a struct feature addressed through nested paths
	TypeStruct
)

// String returns string representation of the feature type
func (t FeatureType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeStruct:
		return "STRUCT"
	default:
		return "UNKNOWN"
	}
}

// NumericStats is the numeric statistic block of one feature.
// The block is absent (nil pointer on FeatureStats) when no numeric value
// was observed: derived moments are undefined, never reported as zero.
type NumericStats struct {
	Count     int64     `json:"count"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"stdDev"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	NumZeros  int64     `json:"numZeros"`
	Median    float64   `json:"median"`
	Quantiles []float64 `json:"quantiles,omitempty"`
}

// WeightedNumericStats carries the weight-adjusted moments of a numeric
// feature when a weight feature is configured.
type WeightedNumericStats struct {
	SumWeights float64 `json:"sumWeights"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
}

// StringStats is the string statistic block of one feature.
type StringStats struct {
	Count     int64   `json:"count"`
	AvgLength float64 `json:"avgLength"`
	MinLength int64   `json:"minLength"`
	MaxLength int64   `json:"maxLength"`
	Unique    int64   `json:"unique"`
}

// ValueCount is one categorical value with its observed frequency.
type ValueCount struct {
	Value string  `json:"value"`
	Count float64 `json:"count"`
}

// CategoricalStats is the value-count statistic block of one feature.
type CategoricalStats struct {
	// Distinct is the number of distinct tokens tracked. When the
	// accumulator budget was exceeded this is a lower bound.
	Distinct int64 `json:"distinct"`
	// Truncated reports whether the tracked token set was cut back to
	// the accumulator budget, making Distinct a lower bound.
	Truncated bool `json:"truncated,omitempty"`
	// TopValues holds the k most frequent values, count descending,
	// ties broken by value.
	TopValues []ValueCount `json:"topValues"`
	// DomainValues is the complete observed value set in lexicographic
	// order, populated only when the tracked set is exact and within
	// the configured domain cap. Schema inference derives enumerated
	// domains from it; an oversized domain leaves it empty.
	DomainValues []string `json:"domainValues,omitempty"`
	// WeightedTopValues mirrors TopValues under record weights.
	WeightedTopValues []ValueCount `json:"weightedTopValues,omitempty"`
}

// CrossFeatureStats reports the correlation of one numeric feature pair.
type CrossFeatureStats struct {
	PathX   model.Path `json:"pathX"`
	PathY   model.Path `json:"pathY"`
	Count   int64      `json:"count"`
	Pearson float64    `json:"pearson"`
}

// FeatureStats is the finalized statistics record of one feature within
// one slice. Statistic blocks a generator did not populate stay nil.
type FeatureStats struct {
	Path model.Path  `json:"path"`
	Type FeatureType `json:"type"`

	// Count is the number of records where the feature was present.
	Count int64 `json:"count"`
	// Missing is the number of records where the feature was absent.
	Missing int64 `json:"missing"`
	// TotalValues counts individual values across present records
	// (repeated features contribute more than one per record).
	TotalValues int64 `json:"totalValues"`
	// MinValueCount / MaxValueCount bound the per-record value counts,
	// the raw material of shape inference.
	MinValueCount int64 `json:"minValueCount"`
	MaxValueCount int64 `json:"maxValueCount"`
	// WeightedCount is the weight-adjusted presence count.
	WeightedCount float64 `json:"weightedCount,omitempty"`
	// TypeMismatches counts values whose runtime kind contradicted the
	// dominant kind of the feature.
	TypeMismatches int64 `json:"typeMismatches,omitempty"`

	Num         *NumericStats         `json:"num,omitempty"`
	WeightedNum *WeightedNumericStats `json:"weightedNum,omitempty"`
	Str         *StringStats          `json:"str,omitempty"`
	Cat         *CategoricalStats     `json:"cat,omitempty"`

	// Warnings records per-batch soft failures attached to this feature.
	Warnings []string `json:"warnings,omitempty"`
}

// PresentFraction returns the fraction of records where the feature was
// present, or 0 when the slice was empty.
func (f *FeatureStats) PresentFraction() float64 {
	total := f.Count + f.Missing
	if total == 0 {
		return 0
	}
	return float64(f.Count) / float64(total)
}

// absorb copies the statistic blocks another generator produced for the
// same feature into f. Scalar counts are taken from whichever side
// populated them; two generators never fill the same field.
func (f *FeatureStats) absorb(other *FeatureStats) {
	if f.Type == TypeUnknown {
		f.Type = other.Type
	}
	if f.Count == 0 && f.Missing == 0 {
		f.Count = other.Count
		f.Missing = other.Missing
	}
	if f.TotalValues == 0 {
		f.TotalValues = other.TotalValues
		f.MinValueCount = other.MinValueCount
		f.MaxValueCount = other.MaxValueCount
	}
	if f.WeightedCount == 0 {
		f.WeightedCount = other.WeightedCount
	}
	f.TypeMismatches += other.TypeMismatches
	if f.Num == nil {
		f.Num = other.Num
	}
	if f.WeightedNum == nil {
		f.WeightedNum = other.WeightedNum
	}
	if f.Str == nil {
		f.Str = other.Str
	}
	if f.Cat == nil {
		f.Cat = other.Cat
	}
	f.Warnings = append(f.Warnings, other.Warnings...)
}

// DatasetFeatureStatistics holds the finalized statistics of one slice.
// Features appear in first-observed order.
type DatasetFeatureStatistics struct {
	Name               string               `json:"name"`
	NumRecords         int64                `json:"numRecords"`
	WeightedNumRecords float64              `json:"weightedNumRecords,omitempty"`
	Features           []*FeatureStats      `json:"features"`
	CrossFeatures      []*CrossFeatureStats `json:"crossFeatures,omitempty"`

	// Warnings records per-batch soft failures that could not be pinned
	// to a single feature, e.g. a transform that rejected a whole batch.
	Warnings []string `json:"warnings,omitempty"`

	byPath map[string]*FeatureStats
}

// NewDatasetFeatureStatistics creates an empty statistics record for one
// named slice.
func NewDatasetFeatureStatistics(name string) *DatasetFeatureStatistics {
	return &DatasetFeatureStatistics{
		Name:   name,
		byPath: make(map[string]*FeatureStats),
	}
}

// Feature returns the statistics of one feature, or nil when the feature
// was never observed in this slice.
func (d *DatasetFeatureStatistics) Feature(path model.Path) *FeatureStats {
	if d.byPath == nil {
		d.reindex()
	}
	return d.byPath[path.String()]
}

// AddFeature appends a finalized feature record, preserving insertion
// order. Duplicate paths are a contract violation.
func (d *DatasetFeatureStatistics) AddFeature(fs *FeatureStats) error {
	if d.byPath == nil {
		d.reindex()
	}
	if _, dup := d.byPath[fs.Path.String()]; dup {
		return fmt.Errorf("statistics: duplicate feature %q in slice %q", fs.Path, d.Name)
	}
	d.Features = append(d.Features, fs)
	d.byPath[fs.Path.String()] = fs
	return nil
}

// Absorb merges another generator's partial output for the same slice
// into d, feature by feature. First-observed feature order is kept: new
// features append, known features gain the partial's statistic blocks.
func (d *DatasetFeatureStatistics) Absorb(other *DatasetFeatureStatistics) error {
	if other == nil {
		return nil
	}
	if d.NumRecords == 0 {
		d.NumRecords = other.NumRecords
	}
	if d.WeightedNumRecords == 0 {
		d.WeightedNumRecords = other.WeightedNumRecords
	}
	for _, fs := range other.Features {
		if existing := d.Feature(fs.Path); existing != nil {
			existing.absorb(fs)
			continue
		}
		if err := d.AddFeature(fs); err != nil {
			return err
		}
	}
	d.CrossFeatures = append(d.CrossFeatures, other.CrossFeatures...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	return nil
}

// reindex rebuilds the path index, needed after JSON decoding.
func (d *DatasetFeatureStatistics) reindex() {
	d.byPath = make(map[string]*FeatureStats, len(d.Features))
	for _, fs := range d.Features {
		d.byPath[fs.Path.String()] = fs
	}
}

// DatasetFeatureStatisticsList is the complete output of one statistics
// run: the all-records slice first, remaining slices in the order each
// was first populated.
type DatasetFeatureStatisticsList struct {
	Datasets []*DatasetFeatureStatistics `json:"datasets"`
}

// Default returns the all-records slice, or nil for an empty list.
func (l *DatasetFeatureStatisticsList) Default() *DatasetFeatureStatistics {
	return l.Slice(AllRecordsSlice)
}

// Slice returns the statistics of one named slice, or nil.
func (l *DatasetFeatureStatisticsList) Slice(name string) *DatasetFeatureStatistics {
	for _, d := range l.Datasets {
		if d.Name == name {
			return d
		}
	}
	return nil
}
