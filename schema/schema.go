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

// Package schema models the structural expectations of a dataset: per
// feature its declared type, presence requirement, value domain and
// shape. Schemas are inferred from finalized statistics or loaded from
// text, and change only through explicit update operations — validation
// never mutates a schema implicitly.
package schema

import (
	"fmt"

	"github.com/rulego/datacheck/model"
)

// FeatureKind is the declared type of a schema feature.
type FeatureKind int

const (
	// KindNumeric covers integer and floating point features
	KindNumeric FeatureKind = iota
	// KindCategorical covers features drawn from an enumerated value set
	KindCategorical
	// KindString covers free-form string features
	KindString
	// KindStruct covers nested struct features
	KindStruct
	// KindAny places no type constraint. Inference declares it for
	// features observed without a single typed value, so the feature
	// stays accounted for in the schema.
	KindAny
)

// String returns string representation of the feature kind
func (k FeatureKind) String() string {
	switch k {
	case KindNumeric:
		return "NUMERIC"
	case KindCategorical:
		return "CATEGORICAL"
	case KindString:
		return "STRING"
	case KindStruct:
		return "STRUCT"
	case KindAny:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// Presence is the presence requirement of one feature.
type Presence struct {
	// Required means the feature must be present in every record.
	Required bool `json:"required"`
	// MinFraction is the minimum fraction of records that must carry
	// the feature when it is optional.
	MinFraction float64 `json:"minFraction"`
}

// Domain is the admissible value set of one feature. Exactly one of the
// range bounds pair or Values is populated; a feature without a domain
// accepts any value of its kind.
type Domain struct {
	// Min/Max bound numeric features inclusively.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	// Values enumerates the admissible tokens of categorical features.
	Values []string `json:"values,omitempty"`
}

// IsNumeric reports whether the domain is a numeric range.
func (d *Domain) IsNumeric() bool {
	return d != nil && (d.Min != nil || d.Max != nil)
}

// Contains reports whether token is an admissible enumerated value.
func (d *Domain) Contains(token string) bool {
	for _, v := range d.Values {
		if v == token {
			return true
		}
	}
	return false
}

// Shape is the per-record value-count constraint of one feature.
type Shape struct {
	// Fixed means each present record carries exactly ValueCount values.
	Fixed bool `json:"fixed"`
	// ValueCount is the required count when Fixed.
	ValueCount int64 `json:"valueCount,omitempty"`
}

// Feature is the declared expectation for one feature.
type Feature struct {
	Path     model.Path  `json:"path"`
	Kind     FeatureKind `json:"kind"`
	Presence Presence    `json:"presence"`
	Domain   *Domain     `json:"domain,omitempty"`
	Shape    Shape       `json:"shape"`
}

// Schema maps feature paths to their declared expectations. Feature
// order is the order of addition.
type Schema struct {
	Features []*Feature `json:"features"`

	byPath map[string]*Feature
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{byPath: make(map[string]*Feature)}
}

// GetFeature returns the declared expectation for path, or nil when the
// schema does not declare the feature.
func (s *Schema) GetFeature(path model.Path) *Feature {
	if s.byPath == nil {
		s.reindex()
	}
	return s.byPath[path.String()]
}

// AddFeature declares a feature. Duplicate paths are rejected to keep
// the schema self-consistent.
func (s *Schema) AddFeature(f *Feature) error {
	if s.byPath == nil {
		s.reindex()
	}
	if _, dup := s.byPath[f.Path.String()]; dup {
		return fmt.Errorf("schema: duplicate feature %q", f.Path)
	}
	s.Features = append(s.Features, f)
	s.byPath[f.Path.String()] = f
	return nil
}

func (s *Schema) reindex() {
	s.byPath = make(map[string]*Feature, len(s.Features))
	for _, f := range s.Features {
		s.byPath[f.Path.String()] = f
	}
}

// Check verifies schema self-consistency: unique paths, well-ordered
// numeric bounds, sane presence fractions. A schema failing Check is a
// structural fault; validation refuses to compare against it.
func (s *Schema) Check() error {
	seen := make(map[string]bool, len(s.Features))
	for _, f := range s.Features {
		key := f.Path.String()
		if key == "" {
			return fmt.Errorf("schema: feature with empty path")
		}
		if seen[key] {
			return fmt.Errorf("schema: duplicate feature %q", f.Path)
		}
		seen[key] = true

		if f.Domain != nil && f.Domain.Min != nil && f.Domain.Max != nil && *f.Domain.Min > *f.Domain.Max {
			return fmt.Errorf("schema: feature %q domain min %v above max %v", f.Path, *f.Domain.Min, *f.Domain.Max)
		}
		if f.Domain != nil && f.Domain.IsNumeric() && len(f.Domain.Values) > 0 {
			return fmt.Errorf("schema: feature %q mixes numeric range and enumerated domain", f.Path)
		}
		if f.Presence.MinFraction < 0 || f.Presence.MinFraction > 1 {
			return fmt.Errorf("schema: feature %q presence fraction %v outside [0,1]", f.Path, f.Presence.MinFraction)
		}
		if f.Shape.Fixed && f.Shape.ValueCount < 1 {
			return fmt.Errorf("schema: feature %q fixed shape with value count %d", f.Path, f.Shape.ValueCount)
		}
	}
	return nil
}

// WidenRange is an explicit update operation extending a numeric domain
// to cover [min, max].
func (s *Schema) WidenRange(path model.Path, min, max float64) error {
	f := s.GetFeature(path)
	if f == nil {
		return fmt.Errorf("schema: unknown feature %q", path)
	}
	if f.Domain == nil {
		f.Domain = &Domain{}
	}
	if len(f.Domain.Values) > 0 {
		return fmt.Errorf("schema: feature %q has an enumerated domain, not a range", path)
	}
	if f.Domain.Min == nil || min < *f.Domain.Min {
		f.Domain.Min = &min
	}
	if f.Domain.Max == nil || max > *f.Domain.Max {
		f.Domain.Max = &max
	}
	return nil
}

// AddDomainValues is an explicit update operation extending an
// enumerated domain with new admissible tokens.
func (s *Schema) AddDomainValues(path model.Path, values ...string) error {
	f := s.GetFeature(path)
	if f == nil {
		return fmt.Errorf("schema: unknown feature %q", path)
	}
	if f.Domain == nil {
		f.Domain = &Domain{}
	}
	if f.Domain.IsNumeric() {
		return fmt.Errorf("schema: feature %q has a numeric range, not an enumerated domain", path)
	}
	for _, v := range values {
		if !f.Domain.Contains(v) {
			f.Domain.Values = append(f.Domain.Values, v)
		}
	}
	return nil
}

// RelaxPresence is an explicit update operation lowering a feature's
// presence requirement to the given minimum fraction.
func (s *Schema) RelaxPresence(path model.Path, minFraction float64) error {
	f := s.GetFeature(path)
	if f == nil {
		return fmt.Errorf("schema: unknown feature %q", path)
	}
	if minFraction < 0 || minFraction > 1 {
		return fmt.Errorf("schema: presence fraction %v outside [0,1]", minFraction)
	}
	f.Presence.Required = false
	f.Presence.MinFraction = minFraction
	return nil
}
