package basic

import (
	"fmt"
)

// parser consumes one token sequence produced by Tokenize.
type parser struct {
	tokens []Token
	pos    int
}

// Parse produces one syntax node from a token sequence: EmptyStmt for a
// blank line, a ProgramLine when the sequence starts with a line number, or
// a single immediate-mode statement otherwise.
func Parse(tokens []Token) (Node, error) {
	p := &parser{tokens: tokens}

	if p.atEnd() {
		return &EmptyStmt{}, nil
	}

	if p.peek().Kind == TokenNumber {
		numTok := p.next()
		number := int(numTok.Num)
		if float64(number) != numTok.Num || number <= 0 {
			return nil, NewBasicError(ErrCategorySyntax,
				"INVALID LINE NUMBER "+numTok.Text)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ProgramLine{Number: number, Stmt: stmt}, nil
	}

	return p.parseStatement()
}

func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) atEnd() bool {
	k := p.peek().Kind
	return k == TokenEOL || k == TokenEOF
}

// expect advances past the next token if it matches, or fails naming the
// expected versus actual token.
func (p *parser) expect(kind TokenKind, text string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind || (text != "" && tok.Text != text) {
		want := tokenKindNames[kind]
		if text != "" {
			want = text
		}
		return Token{}, NewBasicError(ErrCategorySyntax,
			fmt.Sprintf("EXPECTED %s, GOT %s", want, tok.Describe()))
	}
	return p.next(), nil
}

func (p *parser) parseStatement() (Statement, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenEOL, TokenEOF:
		return &EmptyStmt{}, nil

	case TokenIdentifier:
		// Bare identifier is sugar for LET without the keyword.
		return p.parseLetBody()

	case TokenKeyword:
		p.next()
		switch tok.Text {
		case "PRINT":
			return p.parsePrint()
		case "LET":
			return p.parseLetBody()
		case "INPUT":
			return p.parseInput()
		case "IF":
			return p.parseIf()
		case "GOTO":
			return p.parseGoto()
		case "FOR":
			return p.parseFor()
		case "NEXT":
			return p.parseNext()
		case "REM":
			// Everything after REM is comment text.
			for !p.atEnd() {
				p.next()
			}
			return &RemStmt{}, nil
		case "END":
			return &EndStmt{}, nil
		case "LIST":
			return p.parseList()
		case "RUN":
			return &RunStmt{}, nil
		case "NEW":
			return &NewStmt{}, nil
		case "HOME":
			return &HomeStmt{}, nil
		case "SAVE":
			return p.parseSave()
		case "LOAD":
			return p.parseLoad()
		case "GOSUB", "RETURN":
			return nil, NewBasicError(ErrCategorySyntax, tok.Text+" IS NOT SUPPORTED")
		default:
			return nil, NewBasicError(ErrCategorySyntax, "UNEXPECTED "+tok.Describe())
		}

	default:
		return nil, NewBasicError(ErrCategorySyntax, "UNEXPECTED "+tok.Describe())
	}
}

// parsePrint parses a list of expressions interleaved with ; and ,
// separators, stopping at end of line or on any other trailing token.
func (p *parser) parsePrint() (Statement, error) {
	stmt := &PrintStmt{}

	for !p.atEnd() {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Exprs = append(stmt.Exprs, expr)

		tok := p.peek()
		if tok.Kind == TokenPunctuation && (tok.Text == ";" || tok.Text == ",") {
			p.next()
			stmt.Seps = append(stmt.Seps, tok.Text)
			continue
		}
		stmt.Seps = append(stmt.Seps, "")
		break
	}

	return stmt, nil
}

func (p *parser) parseLetBody() (Statement, error) {
	nameTok, err := p.expect(TokenIdentifier, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOperator, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &LetStmt{Name: nameTok.Text, Value: value}, nil
}

// parseInput parses an optional leading string literal as prompt, where a
// following , appends a literal comma to the prompt and a ; is silent, then
// requires one identifier.
func (p *parser) parseInput() (Statement, error) {
	stmt := &InputStmt{}

	if p.peek().Kind == TokenString {
		stmt.Prompt = p.next().Text
		stmt.HasPrompt = true
		sep := p.peek()
		if sep.Kind == TokenPunctuation && (sep.Text == ";" || sep.Text == ",") {
			p.next()
			if sep.Text == "," {
				stmt.Prompt += ","
			}
		}
	}

	nameTok, err := p.expect(TokenIdentifier, "")
	if err != nil {
		return nil, err
	}
	stmt.Name = nameTok.Text
	return stmt, nil
}

// parseIf parses <expr> THEN <target>, where the then-branch is either a
// bare line number (sugar for GOTO) or a nested statement.
func (p *parser) parseIf() (Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, "THEN"); err != nil {
		return nil, err
	}

	if p.peek().Kind == TokenNumber {
		numTok := p.next()
		target := int(numTok.Num)
		if float64(target) != numTok.Num || target <= 0 {
			return nil, NewBasicError(ErrCategorySyntax,
				"INVALID LINE NUMBER "+numTok.Text)
		}
		return &IfStmt{Cond: cond, Then: &GotoStmt{Target: target}}, nil
	}

	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &IfStmt{Cond: cond, Then: then}, nil
}

func (p *parser) parseGoto() (Statement, error) {
	numTok, err := p.expect(TokenNumber, "")
	if err != nil {
		return nil, err
	}
	target := int(numTok.Num)
	if float64(target) != numTok.Num || target <= 0 {
		return nil, NewBasicError(ErrCategorySyntax,
			"INVALID LINE NUMBER "+numTok.Text)
	}
	return &GotoStmt{Target: target}, nil
}

// parseFor parses <id> = <expr> TO <expr> with an optional STEP <expr>
// defaulting to the constant 1.
func (p *parser) parseFor() (Statement, error) {
	nameTok, err := p.expect(TokenIdentifier, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOperator, "="); err != nil {
		return nil, err
	}
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenKeyword, "TO"); err != nil {
		return nil, err
	}
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var step Expression = &NumberLit{Value: 1}
	if p.peek().Kind == TokenKeyword && p.peek().Text == "STEP" {
		p.next()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	return &ForStmt{Name: nameTok.Text, Start: start, End: end, Step: step}, nil
}

func (p *parser) parseNext() (Statement, error) {
	stmt := &NextStmt{}
	if p.peek().Kind == TokenIdentifier {
		stmt.Name = p.next().Text
	}
	return stmt, nil
}

func (p *parser) parseList() (Statement, error) {
	stmt := &ListStmt{}
	if p.atEnd() {
		return stmt, nil
	}

	startTok, err := p.expect(TokenNumber, "")
	if err != nil {
		return nil, err
	}
	start := int(startTok.Num)
	stmt.Start = &start

	if p.peek().Kind == TokenPunctuation && p.peek().Text == "," {
		p.next()
		endTok, err := p.expect(TokenNumber, "")
		if err != nil {
			return nil, err
		}
		end := int(endTok.Num)
		stmt.End = &end
	}

	return stmt, nil
}

func (p *parser) parseSave() (Statement, error) {
	nameTok, err := p.expect(TokenString, "")
	if err != nil {
		return nil, err
	}
	return &SaveStmt{Name: nameTok.Text}, nil
}

func (p *parser) parseLoad() (Statement, error) {
	nameTok, err := p.expect(TokenString, "")
	if err != nil {
		return nil, err
	}
	return &LoadStmt{Name: nameTok.Text}, nil
}

// Expression grammar, precedence low to high:
// comparison -> additive -> multiplicative -> primary. Every binary level is
// an iterative left-fold, so all operators are left-associative.

func (p *parser) parseExpression() (Expression, error) {
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenOperator || !isComparisonOp(tok.Text) {
			return left, nil
		}
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Text, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenOperator || (tok.Text != "+" && tok.Text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Text, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenOperator || (tok.Text != "*" && tok.Text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Text, Left: left, Right: right}
	}
}

// parsePrimary handles literals, variable references, parenthesized
// sub-expressions and unary minus applied to a primary.
func (p *parser) parsePrimary() (Expression, error) {
	tok := p.peek()

	switch {
	case tok.Kind == TokenNumber:
		p.next()
		return &NumberLit{Value: tok.Num}, nil

	case tok.Kind == TokenString:
		p.next()
		return &StringLit{Value: tok.Text}, nil

	case tok.Kind == TokenIdentifier:
		p.next()
		return &VarRef{Name: tok.Text}, nil

	case tok.Kind == TokenOperator && tok.Text == "-":
		p.next()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		// Fold a literal operand immediately so FOR steps stay constants.
		if lit, ok := operand.(*NumberLit); ok {
			return &NumberLit{Value: -lit.Value}, nil
		}
		return &UnaryExpr{Op: "-", Operand: operand}, nil

	case tok.Kind == TokenPunctuation && tok.Text == "(":
		p.next()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenPunctuation, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, NewBasicError(ErrCategorySyntax, "UNEXPECTED "+tok.Describe())
	}
}

func isComparisonOp(op string) bool {
	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return true
	}
	return false
}
