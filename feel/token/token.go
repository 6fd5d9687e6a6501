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

// Package token defines the lexical tokens produced by the FEEL tokenizer
// (spec §4.2).
package token

import "fmt"

// Kind is the lexical category of a token.
type Kind string

const (
	EOF        Kind = "EOF"
	Error      Kind = "Error"
	Number     Kind = "Number"
	String     Kind = "String"
	Boolean    Kind = "Boolean"
	Null       Kind = "Null"
	Identifier Kind = "Identifier"
	Operator   Kind = "Operator"

	LParen   Kind = "LParen"
	RParen   Kind = "RParen"
	LBracket Kind = "LBracket"
	RBracket Kind = "RBracket"
	LBrace   Kind = "LBrace"
	RBrace   Kind = "RBrace"

	Comma Kind = "Comma"
	Dot   Kind = "Dot"
	Colon Kind = "Colon"
	Range Kind = "Range" // ".."
)

// Keyword operators and words are tokenized as Identifier/Operator with a
// distinguishing Value; the parser recognizes them by Value rather than by a
// separate Kind, mirroring the teacher's keyword-lookup-by-string approach
// (tokens/token_kind.go) but keeping the token kind set itself small.
var Keywords = map[string]bool{
	"if": true, "then": true, "else": true,
	"and": true, "or": true, "not": true,
	"between": true, "in": true,
	"some": true, "every": true, "satisfies": true,
	"for": true, "return": true,
	"true": true, "false": true, "null": true,
}

// Position is the absolute, line, and column location of a token's first
// rune.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Instance is one lexed token.
type Instance struct {
	Kind  Kind
	Value string
	Pos   Position
}

func New(kind Kind, value string, pos Position) Instance {
	return Instance{Kind: kind, Value: value, Pos: pos}
}

func (t Instance) IsKeyword(word string) bool {
	return t.Kind == Identifier && t.Value == word && Keywords[word]
}

func (t Instance) String() string {
	if t.Kind == EOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Value, t.Pos.String())
}
