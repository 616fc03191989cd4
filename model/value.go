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

package model

import (
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// ValueKind identifies the runtime type of a single observed value slot.
// Batches carry dynamically typed data, so accumulators pattern-match on
// the kind instead of inspecting Go types at every call site.
type ValueKind uint8

const (
	// KindMissing marks an explicitly absent value slot
	KindMissing ValueKind = iota
	// KindInt is a 64-bit integer value
	KindInt
	// KindFloat is a 64-bit floating point value
	KindFloat
	// KindString is a UTF-8 string value
	KindString
)

// String returns string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case KindMissing:
		return "MISSING"
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged variant holding one observed value.
// Only the field matching Kind is meaningful.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	S    string
}

// Missing returns the explicit missing-value marker.
func Missing() Value { return Value{Kind: KindMissing} }

// Int wraps an integer observation.
func Int(v int64) Value { return Value{Kind: KindInt, I: v} }

// Float wraps a floating point observation.
func Float(v float64) Value { return Value{Kind: KindFloat, F: v} }

// String wraps a string observation.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// FromAny coerces an arbitrary Go value into a tagged Value.
// Unsupported types fall back to their string rendering so a malformed
// record degrades to a type-mismatch signal downstream instead of a fault.
func FromAny(v interface{}) Value {
	if v == nil {
		return Missing()
	}
	switch x := v.(type) {
	case Value:
		return x
	case bool:
		if x {
			return Int(1)
		}
		return Int(0)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Int(cast.ToInt64(x))
	case float32, float64:
		return Float(cast.ToFloat64(x))
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	default:
		return String(cast.ToString(x))
	}
}

// IsNumeric reports whether the value carries an int or float payload.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

// AsFloat returns the numeric payload as float64.
// For strings it attempts a parse; ok is false when the value has no
// usable numeric interpretation.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	case KindString:
		f, err := strconv.ParseFloat(v.S, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString returns a canonical string rendering of the value.
// Used as the categorical token for value-count statistics.
func (v Value) AsString() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindString:
		return v.S
	default:
		return ""
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I == o.I
	case KindFloat:
		return v.F == o.F
	case KindString:
		return v.S == o.S
	default:
		return true
	}
}

// GoString implements fmt.GoStringer for readable test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.AsString())
}
