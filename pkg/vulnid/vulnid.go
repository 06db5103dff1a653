// Copyright 2025 boring91
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vulnid normalizes and validates vulnerability identifiers.
//
// Supported namespaces are CVE, GO, HSEC and PYSEC, each followed by a
// four-digit year and a 1-7 digit sequence number, e.g. CVE-2024-3094 or
// GO-2022-0646.
package vulnid

import (
	"regexp"
	"strings"
)

var pattern = regexp.MustCompile(`^(?:CVE|GO|HSEC|PYSEC)-\d{4}-\d{1,7}$`)

// Normalize trims surrounding whitespace and upper-cases the id. It does not
// validate; pair with IsValid.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// IsValid reports whether the id, after normalization, is a well-formed
// vulnerability identifier.
func IsValid(id string) bool {
	return pattern.MatchString(Normalize(id))
}
