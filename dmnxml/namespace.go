// Copyright 2026 The dmnflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dmnxml

import "strings"

// Version is a DMN schema generation this codec understands (spec §4.8).
type Version string

const (
	Version11 Version = "1.1"
	Version12 Version = "1.2"
	Version13 Version = "1.3"
)

// sniffVersion maps a `definitions` element's xmlns to a DMN generation
// (spec §4.8: "DMN 1.1 (...20151101...), 1.2 (...20180521...), 1.3
// (...20191111...); unknown -> assume 1.3 with warning").
func sniffVersion(xmlns string) (Version, string) {
	switch {
	case strings.Contains(xmlns, "20151101"):
		return Version11, ""
	case strings.Contains(xmlns, "20180521"):
		return Version12, ""
	case strings.Contains(xmlns, "20191111"):
		return Version13, ""
	default:
		return Version13, "unrecognized DMN namespace, assuming 1.3"
	}
}

func namespaceFor(v Version) string {
	switch v {
	case Version11:
		return "https://www.omg.org/spec/DMN/20151101/dmn.xsd"
	case Version12:
		return "https://www.omg.org/spec/DMN/20180521/MODEL/"
	default:
		return "https://www.omg.org/spec/DMN/20191111/MODEL/"
	}
}
