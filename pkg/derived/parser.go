// Copyright 2025 UMH Systems GmbH
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

package derived

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// The evaluator is a hand-written tokenizer and recursive-descent parser
// over pure arithmetic. Expressions never touch host bindings; the only
// callable things are the five whitelisted functions.

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
)

type token struct {
	kind  tokenKind
	text  string
	value float64
}

var errDivisionByZero = errors.New("division by zero")

func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || (runes[i] == '.' && !seenDot)) {
				if runes[i] == '.' {
					seenDot = true
				}
				i++
			}
			text := string(runes[start:i])
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", text, err)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, value: value})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i])})
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
			tokens = append(tokens, token{kind: tokenOperator, text: string(r)})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ","})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) expect(kind tokenKind) error {
	t, ok := p.next()
	if !ok || t.kind != kind {
		return fmt.Errorf("unexpected token %q", t.text)
	}
	return nil
}

// parseExpression := term (('+'|'-') term)*
func (p *parser) parseExpression() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOperator || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// parseTerm := power (('*'|'/') power)*
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOperator || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		if t.text == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, errDivisionByZero
			}
			left /= right
		}
	}
}

// parsePower := unary ('^' power)?   (right associative)
func (p *parser) parsePower() (float64, error) {
	base, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokenOperator || t.text != "^" {
		return base, nil
	}
	p.pos++
	exponent, err := p.parsePower()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exponent), nil
}

// parseUnary := ('+'|'-') unary | primary
func (p *parser) parseUnary() (float64, error) {
	t, ok := p.peek()
	if ok && t.kind == tokenOperator && (t.text == "+" || t.text == "-") {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePrimary()
}

// parsePrimary := number | func '(' args ')' | '(' expression ')'
func (p *parser) parsePrimary() (float64, error) {
	t, ok := p.next()
	if !ok {
		return 0, errors.New("unexpected end of expression")
	}
	switch t.kind {
	case tokenNumber:
		return t.value, nil
	case tokenLeftParen:
		v, err := p.parseExpression()
		if err != nil {
			return 0, err
		}
		if err := p.expect(tokenRightParen); err != nil {
			return 0, err
		}
		return v, nil
	case tokenIdent:
		if !isFunctionName(t.text) {
			return 0, fmt.Errorf("unresolved identifier %q", t.text)
		}
		if err := p.expect(tokenLeftParen); err != nil {
			return 0, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return 0, err
		}
		return applyFunction(t.text, args)
	default:
		return 0, fmt.Errorf("unexpected token %q", t.text)
	}
}

// parseArgs consumes expressions until the closing parenthesis.
func (p *parser) parseArgs() ([]float64, error) {
	var args []float64
	if t, ok := p.peek(); ok && t.kind == tokenRightParen {
		p.pos++
		return args, nil
	}
	for {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		t, ok := p.next()
		if !ok {
			return nil, errors.New("unterminated function call")
		}
		switch t.kind {
		case tokenComma:
			continue
		case tokenRightParen:
			return args, nil
		default:
			return nil, fmt.Errorf("unexpected token %q in arguments", t.text)
		}
	}
}

func applyFunction(name string, args []float64) (float64, error) {
	switch name {
	case "sqrt":
		if len(args) != 1 {
			return 0, fmt.Errorf("sqrt takes 1 argument, got %d", len(args))
		}
		return math.Sqrt(args[0]), nil
	case "log":
		if len(args) != 1 {
			return 0, fmt.Errorf("log takes 1 argument, got %d", len(args))
		}
		return math.Log(args[0]), nil
	case "abs":
		if len(args) != 1 {
			return 0, fmt.Errorf("abs takes 1 argument, got %d", len(args))
		}
		return math.Abs(args[0]), nil
	case "min":
		if len(args) == 0 {
			return 0, errors.New("min needs at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v, nil
	case "max":
		if len(args) == 0 {
			return 0, errors.New("max needs at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}
