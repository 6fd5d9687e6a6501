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

// Package parser implements the FEEL recursive-descent parser (spec §4.3).
// Precedence, lowest to highest: or, and, comparison/between/in, additive,
// multiplicative, power, unary, postfix, primary. Parse always returns a
// tree - a NullLiteral substitutes for hopeless fragments - plus the
// collected error list; callers distinguish success by emptiness of errors.
// One method per grammar production, mirroring the teacher's
// parser/*.go one-file(-ish)-per-production layout (parser/expression.go,
// parser/primary.go, parser/ternary.go, ...), collapsed here into a single
// file because the grammar is materially smaller than the teacher's DSL.
package parser

import (
	"fmt"
	"strconv"

	"github.com/dmnflow/dmnflow/feel/ast"
	"github.com/dmnflow/dmnflow/feel/lexer"
	"github.com/dmnflow/dmnflow/feel/token"
)

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// ParseError is one collected parse error with source position.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Message)
}

type Parser struct {
	toks   []token.Instance
	pos    int
	errors []ParseError
}

// Parse tokenizes and parses a FEEL expression string. It always returns a
// non-nil *ast.Expression root; errs is empty iff parsing fully succeeded.
func Parse(src string) (ast.Expression, []ParseError) {
	p := &Parser{toks: lexer.Tokenize(src)}
	expr := p.parseExpression()
	if p.cur().Kind != token.EOF {
		p.errorf("unexpected trailing input: %s", p.cur().String())
	}
	return expr, p.errors
}

func (p *Parser) cur() token.Instance {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Instance {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Instance {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, ParseError{Pos: p.cur().Pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) nullAt(pos token.Position) ast.Expression {
	return ast.NullLiteral{Base: ast.At(pos)}
}

func (p *Parser) isKeyword(word string) bool {
	t := p.cur()
	return t.Kind == token.Identifier && t.Value == word
}

func (p *Parser) expectKeyword(word string) bool {
	if p.isKeyword(word) {
		p.advance()
		return true
	}
	p.errorf("expected keyword %q, got %s", word, p.cur().String())
	return false
}

func (p *Parser) expect(kind token.Kind) token.Instance {
	if p.cur().Kind == kind {
		return p.advance()
	}
	p.errorf("expected %s, got %s", kind, p.cur().String())
	return p.cur()
}

// expression := if | quantified | for | or
func (p *Parser) parseExpression() ast.Expression {
	switch {
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("some"), p.isKeyword("every"):
		return p.parseQuantified()
	case p.isKeyword("for"):
		return p.parseFor()
	default:
		return p.parseOr()
	}
}

func (p *Parser) parseIf() ast.Expression {
	pos := p.cur().Pos
	p.expectKeyword("if")
	cond := p.parseExpression()
	p.expectKeyword("then")
	thenExpr := p.parseExpression()
	p.expectKeyword("else")
	elseExpr := p.parseExpression()
	return ast.IfExpr{Base: ast.At(pos), Cond: cond, Then: thenExpr, Else: elseExpr}
}

func (p *Parser) parseQuantified() ast.Expression {
	pos := p.cur().Pos
	every := p.isKeyword("every")
	p.advance() // "some" | "every"
	name := p.expect(token.Identifier).Value
	p.expectKeyword("in")
	in := p.parseOr()
	p.expectKeyword("satisfies")
	pred := p.parseExpression()
	return ast.QuantifiedExpr{Base: ast.At(pos), Every: every, Var: name, In: in, Pred: pred}
}

func (p *Parser) parseFor() ast.Expression {
	pos := p.cur().Pos
	p.expectKeyword("for")
	name := p.expect(token.Identifier).Value
	p.expectKeyword("in")
	in := p.parseOr()
	p.expectKeyword("return")
	body := p.parseExpression()
	return ast.ForExpr{Base: ast.At(pos), Var: name, In: in, Body: body}
}

// or := and ("or" and)*
func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.isKeyword("or") {
		pos := p.advance().Pos
		right := p.parseAnd()
		left = ast.BinaryExpr{Base: ast.At(pos), Op: "or", Left: left, Right: right}
	}
	return left
}

// and := comparison ("and" comparison)*
func (p *Parser) parseAnd() ast.Expression {
	left := p.parseComparison()
	for p.isKeyword("and") {
		pos := p.advance().Pos
		right := p.parseComparison()
		left = ast.BinaryExpr{Base: ast.At(pos), Op: "and", Left: left, Right: right}
	}
	return left
}

// comparison := between (("=="|"!="|"<"|"<="|">"|">="|"in") additive)?
func (p *Parser) parseComparison() ast.Expression {
	left := p.parseBetween()
	if p.cur().Kind == token.Operator {
		switch p.cur().Value {
		case "==", "!=", "<", "<=", ">", ">=":
			op := p.advance().Value
			right := p.parseAdditive()
			return ast.BinaryExpr{Base: ast.At(left.Position()), Op: op, Left: left, Right: right}
		}
	}
	if p.isKeyword("in") {
		pos := p.advance().Pos
		right := p.parseInRHS()
		return ast.BinaryExpr{Base: ast.At(pos), Op: "in", Left: left, Right: right}
	}
	return left
}

// parseInRHS accepts either a bracketed list `[a, b]` or a single value;
// the evaluator accepts only a list on the right of "in" and reports a
// type error for any other value.
func (p *Parser) parseInRHS() ast.Expression {
	if p.cur().Kind == token.LBracket {
		return p.parsePrimary()
	}
	return p.parseAdditive()
}

// between := additive ("between" additive "and" additive)?
func (p *Parser) parseBetween() ast.Expression {
	left := p.parseAdditive()
	if p.isKeyword("between") {
		pos := p.advance().Pos
		lo := p.parseAdditive()
		p.expectKeyword("and")
		hi := p.parseAdditive()
		return ast.BinaryExpr{Base: ast.At(pos), Op: "between", Left: left, Right: lo, Between: hi}
	}
	return left
}

// additive := multiplicative (("+"|"-") multiplicative)*
func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.cur().Kind == token.Operator && (p.cur().Value == "+" || p.cur().Value == "-") {
		op := p.advance().Value
		right := p.parseMultiplicative()
		left = ast.BinaryExpr{Base: ast.At(left.Position()), Op: op, Left: left, Right: right}
	}
	return left
}

// multiplicative := power (("*"|"/") power)*
func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parsePower()
	for p.cur().Kind == token.Operator && (p.cur().Value == "*" || p.cur().Value == "/") {
		op := p.advance().Value
		right := p.parsePower()
		left = ast.BinaryExpr{Base: ast.At(left.Position()), Op: op, Left: left, Right: right}
	}
	return left
}

// power := unary ("**" power)?
func (p *Parser) parsePower() ast.Expression {
	left := p.parseUnary()
	if p.cur().Kind == token.Operator && p.cur().Value == "**" {
		pos := p.advance().Pos
		right := p.parsePower()
		return ast.BinaryExpr{Base: ast.At(pos), Op: "**", Left: left, Right: right}
	}
	return left
}

// unary := ("-" | "not") unary | postfix
func (p *Parser) parseUnary() ast.Expression {
	if p.cur().Kind == token.Operator && p.cur().Value == "-" {
		pos := p.advance().Pos
		operand := p.parseUnary()
		return ast.UnaryExpr{Base: ast.At(pos), Op: "-", Operand: operand}
	}
	if p.isKeyword("not") {
		pos := p.advance().Pos
		operand := p.parseUnary()
		return ast.UnaryExpr{Base: ast.At(pos), Op: "not", Operand: operand}
	}
	return p.parsePostfix()
}

// postfix := primary (("." IDENT) | "(" args ")" | "[" expression "]")*
func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.Dot:
			p.advance()
			name := p.expect(token.Identifier).Value
			expr = ast.PathExpr{Base: ast.At(expr.Position()), Target: expr, Field: name}
		case token.LParen:
			expr = p.parseCallArgs(expr)
		case token.LBracket:
			p.advance()
			filter := p.parseExpression()
			p.expect(token.RBracket)
			expr = ast.IndexExpr{Base: ast.At(expr.Position()), Target: expr, Filter: filter}
		default:
			return expr
		}
	}
}

// mergedCallName looks ahead from the current token for the longest run of
// consecutive Identifier tokens immediately followed by "(" - built-in
// names like "string length" or "years and months duration" lex as several
// identifier tokens with no dedicated multi-word token kind. Returns the
// space-joined name and the run length, or ("", 0) if no such run is
// followed by a call.
func (p *Parser) mergedCallName() (string, int) {
	best := 0
	for n := 1; ; n++ {
		t := p.peekAt(n - 1)
		if t.Kind != token.Identifier {
			break
		}
		if p.peekAt(n).Kind == token.LParen {
			best = n
		}
	}
	if best <= 1 {
		return "", 0
	}
	words := make([]string, best)
	for i := 0; i < best; i++ {
		words[i] = p.peekAt(i).Value
	}
	name := words[0]
	for _, w := range words[1:] {
		name += " " + w
	}
	return name, best
}

func (p *Parser) parseCallArgs(callee ast.Expression) ast.Expression {
	p.expect(token.LParen)
	var args []ast.Expression
	named := map[string]ast.Expression{}
	for p.cur().Kind != token.RParen && p.cur().Kind != token.EOF {
		if p.cur().Kind == token.Identifier && p.peekAt(1).Kind == token.Colon {
			name := p.advance().Value
			p.advance() // colon
			named[name] = p.parseExpression()
		} else {
			args = append(args, p.parseExpression())
		}
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RParen)
	return ast.CallExpr{Base: ast.At(callee.Position()), Callee: callee, Args: args, Named: named}
}

// primary := NUMBER | STRING | BOOLEAN | NULL
//          | "(" expression ")" | list | context | range | IDENT
func (p *Parser) parsePrimary() ast.Expression {
	t := p.cur()
	switch t.Kind {
	case token.Number:
		p.advance()
		return ast.NumberLiteral{Base: ast.At(t.Pos), Value: parseFloat(t.Value)}
	case token.String:
		p.advance()
		return ast.StringLiteral{Base: ast.At(t.Pos), Value: t.Value}
	case token.Boolean:
		p.advance()
		return ast.BooleanLiteral{Base: ast.At(t.Pos), Value: t.Value == "true"}
	case token.Null:
		p.advance()
		return ast.NullLiteral{Base: ast.At(t.Pos)}
	case token.Identifier:
		if name, n := p.mergedCallName(); n > 1 {
			for i := 0; i < n; i++ {
				p.advance()
			}
			return ast.Identifier{Base: ast.At(t.Pos), Name: name}
		}
		p.advance()
		return ast.Identifier{Base: ast.At(t.Pos), Name: t.Value}
	case token.LParen:
		return p.parseParenOrRange(t.Pos, true)
	case token.LBracket:
		return p.parseBracket(t.Pos)
	case token.LBrace:
		return p.parseContext(t.Pos)
	default:
		p.errorf("unexpected token %s", t.String())
		p.advance()
		return p.nullAt(t.Pos)
	}
}

// parseBracket disambiguates a list literal from a closed-low range: both
// start with "[". A range is `"[" expr ".." expr ("]" | ")")`.
func (p *Parser) parseBracket(pos token.Position) ast.Expression {
	p.advance() // '['
	if p.cur().Kind == token.RBracket {
		p.advance()
		return ast.ListExpr{Base: ast.At(pos)}
	}
	first := p.parseExpression()
	if p.cur().Kind == token.Range {
		return p.finishRange(pos, first, true)
	}
	elems := []ast.Expression{first}
	for p.cur().Kind == token.Comma {
		p.advance()
		elems = append(elems, p.parseExpression())
	}
	p.expect(token.RBracket)
	return ast.ListExpr{Base: ast.At(pos), Elements: elems}
}

// parseParenOrRange disambiguates a parenthesized sub-expression from an
// open-low range `(lo..hi]`/`(lo..hi)`.
func (p *Parser) parseParenOrRange(pos token.Position, lowOpen bool) ast.Expression {
	p.advance() // '('
	first := p.parseExpression()
	if p.cur().Kind == token.Range {
		return p.finishRange(pos, first, false)
	}
	p.expect(token.RParen)
	return first
}

func (p *Parser) finishRange(pos token.Position, low ast.Expression, lowClosed bool) ast.Expression {
	p.expect(token.Range)
	high := p.parseExpression()
	highClosed := false
	switch p.cur().Kind {
	case token.RBracket:
		highClosed = true
		p.advance()
	case token.RParen:
		highClosed = false
		p.advance()
	default:
		p.errorf("expected ']' or ')' to close range, got %s", p.cur().String())
	}
	return ast.RangeExpr{Base: ast.At(pos), Low: low, High: high, LowClosed: lowClosed, HighClosed: highClosed}
}

// context := "{" (IDENT ":" expression ("," IDENT ":" expression)*)? "}"
func (p *Parser) parseContext(pos token.Position) ast.Expression {
	p.advance() // '{'
	var entries []ast.ContextEntry
	for p.cur().Kind != token.RBrace && p.cur().Kind != token.EOF {
		var key string
		if p.cur().Kind == token.Identifier {
			key = p.advance().Value
		} else if p.cur().Kind == token.String {
			key = p.advance().Value
		} else {
			p.errorf("expected context key, got %s", p.cur().String())
			break
		}
		p.expect(token.Colon)
		value := p.parseExpression()
		entries = append(entries, ast.ContextEntry{Key: key, Value: value})
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBrace)
	return ast.ContextExpr{Base: ast.At(pos), Entries: entries}
}
