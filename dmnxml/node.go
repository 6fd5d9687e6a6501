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

// Package dmnxml is the bidirectional DMN 1.1/1.2/1.3 XML codec (spec
// §4.8, §4.9 - components C8/C9). Grounded on the teacher's
// loader/pack.go idiom of "read raw, decode into a loosely-typed
// intermediate, then build the strongly-typed domain struct" - the
// teacher reads TOML into pack.PackFile generically before the index
// layer re-types it; this package reads XML into a generic node tree
// first (so the `definitions` root's element and attribute names resolve
// regardless of namespace prefix) before building model.Decision values.
package dmnxml

import (
	"encoding/xml"
	"strings"
)

// node is a generic, namespace-agnostic XML tree, used so `dmn:decision`
// and a default-namespaced `decision` parse identically - the DMN XML
// exporters in the wild are inconsistent about prefixing.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

// localName strips any namespace prefix/URI, comparing only the local
// element name.
func localName(n node) string {
	return n.XMLName.Local
}

func (n node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n node) childrenNamed(name string) []node {
	var out []node
	for _, c := range n.Children {
		if localName(c) == name {
			out = append(out, c)
		}
	}
	return out
}

func (n node) child(name string) (node, bool) {
	cs := n.childrenNamed(name)
	if len(cs) == 0 {
		return node{}, false
	}
	return cs[0], true
}

func (n node) text() string {
	return strings.TrimSpace(n.Content)
}

func parseRoot(xmlBytes []byte) (node, error) {
	var root node
	if err := xml.Unmarshal(xmlBytes, &root); err != nil {
		return node{}, err
	}
	return root, nil
}
