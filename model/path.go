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

import "strings"

// Path identifies one logical feature column. Nested struct features are
// addressed by dot-separated steps, e.g. "address.city".
// A Path is an immutable value; the zero Path is invalid.
type Path struct {
	raw string
}

// NewPath builds a path from its dotted string form.
func NewPath(name string) Path {
	return Path{raw: name}
}

// PathFromSteps builds a path from individual step names.
func PathFromSteps(steps ...string) Path {
	return Path{raw: strings.Join(steps, ".")}
}

// String returns the dotted form of the path.
func (p Path) String() string { return p.raw }

// Steps returns the individual step names of the path.
func (p Path) Steps() []string {
	if p.raw == "" {
		return nil
	}
	return strings.Split(p.raw, ".")
}

// IsNested reports whether the path addresses a struct member.
func (p Path) IsNested() bool {
	return strings.Contains(p.raw, ".")
}

// Parent returns the enclosing struct path and true, or the zero path
// and false for a top-level feature.
func (p Path) Parent() (Path, bool) {
	idx := strings.LastIndex(p.raw, ".")
	if idx < 0 {
		return Path{}, false
	}
	return Path{raw: p.raw[:idx]}, true
}

// Child returns the path extended by one step.
func (p Path) Child(step string) Path {
	if p.raw == "" {
		return Path{raw: step}
	}
	return Path{raw: p.raw + "." + step}
}

// Less provides a stable lexicographic ordering, used wherever output
// needs a deterministic order that does not depend on map iteration.
func (p Path) Less(o Path) bool { return p.raw < o.raw }

// MarshalText serializes the path as its dotted form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.raw), nil
}

// UnmarshalText parses the dotted form.
func (p *Path) UnmarshalText(b []byte) error {
	p.raw = string(b)
	return nil
}
