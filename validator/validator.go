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

// Package validator compares finalized statistics against a schema and
// reports every disagreement as an anomaly. Validation is read-only on
// both sides: it never mutates the schema or the statistics, and each
// anomaly carries the explicit schema update that would make the data
// admissible, so callers decide whether the schema or the data is wrong.
//
// # Core Features
//
//   - Closed anomaly catalog: every finding is one of the AnomalyKind
//     constants, never a free-form condition
//   - Per-feature independence: one feature can surface several
//     anomalies, and a broken feature never masks the next one
//   - Deterministic report order: schema features in declaration order,
//     then statistics-only features in statistics order
//   - Suggested fixes phrased as the schema update operations that
//     would accept the observed data
package validator

import (
	"fmt"
	"strings"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/schema"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// AnomalyKind identifies one class of schema/statistics disagreement.
type AnomalyKind int

const (
	// AnomalySchemaMissing: the statistics contain a feature the schema
	// does not declare.
	AnomalySchemaMissing AnomalyKind = iota
	// AnomalyStatsMissing: the schema declares a feature the statistics
	// never observed.
	AnomalyStatsMissing
	// AnomalyTypeMismatch: observed values disagree with the declared kind.
	AnomalyTypeMismatch
	// AnomalyOutOfRange: numeric values fall outside the declared range.
	AnomalyOutOfRange
	// AnomalyDomainMismatch: categorical tokens outside the enumerated domain.
	AnomalyDomainMismatch
	// AnomalyLowPresence: the feature was present in fewer records than required.
	AnomalyLowPresence
	// AnomalyShapeMismatch: per-record value counts violate the fixed shape.
	AnomalyShapeMismatch
)

// String returns string representation of the anomaly kind
func (k AnomalyKind) String() string {
	switch k {
	case AnomalySchemaMissing:
		return "SCHEMA_MISSING_FEATURE"
	case AnomalyStatsMissing:
		return "STATS_MISSING_FEATURE"
	case AnomalyTypeMismatch:
		return "TYPE_MISMATCH"
	case AnomalyOutOfRange:
		return "OUT_OF_RANGE"
	case AnomalyDomainMismatch:
		return "DOMAIN_MISMATCH"
	case AnomalyLowPresence:
		return "LOW_PRESENCE"
	case AnomalyShapeMismatch:
		return "SHAPE_MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// Severity grades an anomaly.
type Severity int

const (
	// SeverityWarning flags findings worth a look that do not block the data.
	SeverityWarning Severity = iota
	// SeverityError flags findings that make the data inadmissible.
	SeverityError
)

// String returns string representation of the severity
func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "WARNING"
}

// Anomaly is one disagreement between statistics and schema.
type Anomaly struct {
	// Path is the feature the anomaly concerns.
	Path model.Path `json:"path"`
	// Kind classifies the disagreement.
	Kind AnomalyKind `json:"kind"`
	// Severity grades the finding.
	Severity Severity `json:"severity"`
	// Description is a human-readable account of the observed conflict.
	Description string `json:"description"`
	// SuggestedFix names the explicit schema update that would accept
	// the observed data, empty when only the data can change.
	SuggestedFix string `json:"suggestedFix,omitempty"`
}

// Report is the full validation outcome for one statistics slice.
type Report struct {
	// SliceName is the statistics slice the report covers.
	SliceName string `json:"sliceName"`
	// Anomalies lists every disagreement in deterministic order.
	Anomalies []Anomaly `json:"anomalies"`
}

// Clean reports whether validation found no anomalies at all.
func (r *Report) Clean() bool {
	return len(r.Anomalies) == 0
}

// Errors returns only the error-severity anomalies.
func (r *Report) Errors() []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Severity == SeverityError {
			out = append(out, a)
		}
	}
	return out
}

// ByPath returns the anomalies concerning one feature, in report order.
func (r *Report) ByPath(path model.Path) []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Path == path {
			out = append(out, a)
		}
	}
	return out
}

// Validate compares one slice's statistics against a schema. A schema
// failing its own self-check is a structural fault and aborts before
// any per-feature work; everything after that is collected into the
// report rather than returned as an error, so one bad feature never
// hides the findings on the rest.
func Validate(stats *statistics.DatasetFeatureStatistics, sch *schema.Schema, cfg *types.Config) (*Report, error) {
	if stats == nil {
		return nil, fmt.Errorf("validator: cannot validate nil statistics")
	}
	if sch == nil {
		return nil, fmt.Errorf("validator: cannot validate against nil schema")
	}
	if cfg == nil {
		cfg = types.NewConfig()
	}
	if err := sch.Check(); err != nil {
		return nil, fmt.Errorf("validator: schema rejected: %w", err)
	}

	report := &Report{SliceName: stats.Name}

	// 先按 schema 声明顺序检查每个特征，保证报告顺序确定
	for _, f := range sch.Features {
		fs := stats.Feature(f.Path)
		if fs == nil || (fs.Count == 0 && fs.Missing == 0) {
			report.add(featureAbsent(f))
			continue
		}
		checkPresence(report, f, fs, stats.NumRecords)
		checkType(report, f, fs)
		checkDomain(report, f, fs)
		checkShape(report, f, fs)
	}

	// 统计中出现但 schema 未声明的特征
	unexpectedSeverity := SeverityWarning
	if cfg.UnexpectedFeatureIsError {
		unexpectedSeverity = SeverityError
	}
	for _, fs := range stats.Features {
		if sch.GetFeature(fs.Path) != nil {
			continue
		}
		report.add(Anomaly{
			Path:         fs.Path,
			Kind:         AnomalySchemaMissing,
			Severity:     unexpectedSeverity,
			Description:  fmt.Sprintf("feature %q appears in the data but is not declared in the schema", fs.Path),
			SuggestedFix: fmt.Sprintf("declare feature %q in the schema", fs.Path),
		})
	}

	return report, nil
}

func (r *Report) add(a Anomaly) {
	r.Anomalies = append(r.Anomalies, a)
}

func featureAbsent(f *schema.Feature) Anomaly {
	severity := SeverityWarning
	if f.Presence.Required || f.Presence.MinFraction > 0 {
		severity = SeverityError
	}
	return Anomaly{
		Path:         f.Path,
		Kind:         AnomalyStatsMissing,
		Severity:     severity,
		Description:  fmt.Sprintf("feature %q is declared in the schema but absent from the data", f.Path),
		SuggestedFix: fmt.Sprintf("remove feature %q from the schema", f.Path),
	}
}

func checkPresence(r *Report, f *schema.Feature, fs *statistics.FeatureStats, numRecords int64) {
	observed := fs.PresentFraction()
	if f.Presence.Required && fs.Missing > 0 {
		r.add(Anomaly{
			Path:     f.Path,
			Kind:     AnomalyLowPresence,
			Severity: SeverityError,
			Description: fmt.Sprintf("feature %q is required but missing in %d of %d records",
				f.Path, fs.Missing, numRecords),
			SuggestedFix: fmt.Sprintf("relax presence of %q to %.4f", f.Path, observed),
		})
		return
	}
	if !f.Presence.Required && observed < f.Presence.MinFraction {
		r.add(Anomaly{
			Path:     f.Path,
			Kind:     AnomalyLowPresence,
			Severity: SeverityError,
			Description: fmt.Sprintf("feature %q present in %.4f of records, below the required %.4f",
				f.Path, observed, f.Presence.MinFraction),
			SuggestedFix: fmt.Sprintf("relax presence of %q to %.4f", f.Path, observed),
		})
	}
}

func checkType(r *Report, f *schema.Feature, fs *statistics.FeatureStats) {
	if fs.Count == 0 {
		return
	}
	// 少数值类型不一致是容忍的软状态，TypeMismatches 已记录在统计里，
	// 只有主导类型与声明冲突才算异常
	if !kindAccepts(f.Kind, fs.Type) {
		r.add(Anomaly{
			Path:     f.Path,
			Kind:     AnomalyTypeMismatch,
			Severity: SeverityError,
			Description: fmt.Sprintf("feature %q declared %s but observed as %s",
				f.Path, f.Kind, fs.Type),
		})
	}
}

// kindAccepts maps declared kinds onto the observed dominant type.
func kindAccepts(kind schema.FeatureKind, ft statistics.FeatureType) bool {
	switch kind {
	case schema.KindNumeric:
		return ft == statistics.TypeInt || ft == statistics.TypeFloat
	case schema.KindCategorical, schema.KindString:
		// 枚举域也可能建立在整数令牌之上
		return ft == statistics.TypeString || ft == statistics.TypeInt
	case schema.KindStruct:
		return ft == statistics.TypeStruct
	case schema.KindAny:
		return true
	default:
		return false
	}
}

func checkDomain(r *Report, f *schema.Feature, fs *statistics.FeatureStats) {
	if f.Domain == nil {
		return
	}
	if f.Domain.IsNumeric() {
		if fs.Num == nil || fs.Num.Count == 0 {
			return
		}
		var violations []string
		if f.Domain.Min != nil && fs.Num.Min < *f.Domain.Min {
			violations = append(violations, fmt.Sprintf("min %v below %v", fs.Num.Min, *f.Domain.Min))
		}
		if f.Domain.Max != nil && fs.Num.Max > *f.Domain.Max {
			violations = append(violations, fmt.Sprintf("max %v above %v", fs.Num.Max, *f.Domain.Max))
		}
		if len(violations) > 0 {
			r.add(Anomaly{
				Path:     f.Path,
				Kind:     AnomalyOutOfRange,
				Severity: SeverityError,
				Description: fmt.Sprintf("feature %q out of range: %s",
					f.Path, strings.Join(violations, ", ")),
				SuggestedFix: fmt.Sprintf("widen range of %q to [%v, %v]", f.Path, fs.Num.Min, fs.Num.Max),
			})
		}
		return
	}
	if len(f.Domain.Values) == 0 || fs.Cat == nil {
		return
	}
	var unexpected []string
	for _, tv := range fs.Cat.TopValues {
		if !f.Domain.Contains(tv.Value) {
			unexpected = append(unexpected, tv.Value)
		}
	}
	for _, v := range fs.Cat.DomainValues {
		if !f.Domain.Contains(v) && !containsToken(unexpected, v) {
			unexpected = append(unexpected, v)
		}
	}
	if len(unexpected) > 0 {
		r.add(Anomaly{
			Path:     f.Path,
			Kind:     AnomalyDomainMismatch,
			Severity: SeverityError,
			Description: fmt.Sprintf("feature %q carried values outside its domain: %s",
				f.Path, strings.Join(unexpected, ", ")),
			SuggestedFix: fmt.Sprintf("add values to domain of %q: %s", f.Path, strings.Join(unexpected, ", ")),
		})
	}
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func checkShape(r *Report, f *schema.Feature, fs *statistics.FeatureStats) {
	if !f.Shape.Fixed || fs.Count == 0 {
		return
	}
	if fs.MinValueCount != f.Shape.ValueCount || fs.MaxValueCount != f.Shape.ValueCount {
		r.add(Anomaly{
			Path:     f.Path,
			Kind:     AnomalyShapeMismatch,
			Severity: SeverityError,
			Description: fmt.Sprintf("feature %q expects %d values per record, observed between %d and %d",
				f.Path, f.Shape.ValueCount, fs.MinValueCount, fs.MaxValueCount),
		})
	}
}
