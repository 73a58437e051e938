// Package basic implements the retrobasic language toolchain: a tokenizer,
// a recursive-descent parser and a tree-walking interpreter for a small
// line-numbered BASIC dialect.
package basic

import (
	"strconv"
	"strings"
)

// TokenKind classifies one lexical token.
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenString
	TokenKeyword
	TokenIdentifier
	TokenOperator
	TokenPunctuation
	TokenEOL
	TokenEOF
)

var tokenKindNames = map[TokenKind]string{
	TokenNumber:      "NUMBER",
	TokenString:      "STRING",
	TokenKeyword:     "KEYWORD",
	TokenIdentifier:  "IDENTIFIER",
	TokenOperator:    "OPERATOR",
	TokenPunctuation: "PUNCTUATION",
	TokenEOL:         "END OF LINE",
	TokenEOF:         "END OF INPUT",
}

// Token is one lexical unit of a source line. Text carries the token's
// canonical spelling (keywords and identifiers uppercased, strings without
// their quotes), Num the parsed value for number tokens, and Col the 1-based
// source column the token started at.
type Token struct {
	Kind TokenKind
	Text string
	Num  float64
	Col  int
}

// Describe returns the token's user-facing description for error messages.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOL, TokenEOF:
		return tokenKindNames[t.Kind]
	case TokenString:
		return "STRING \"" + t.Text + "\""
	default:
		return tokenKindNames[t.Kind] + " " + t.Text
	}
}

// keywords is the closed keyword set. GOSUB and RETURN are tokenized for
// compatibility but have no executable statement form.
var keywords = map[string]bool{
	"PRINT":  true,
	"LET":    true,
	"INPUT":  true,
	"IF":     true,
	"THEN":   true,
	"GOTO":   true,
	"GOSUB":  true,
	"RETURN": true,
	"FOR":    true,
	"TO":     true,
	"STEP":   true,
	"NEXT":   true,
	"REM":    true,
	"END":    true,
	"LIST":   true,
	"RUN":    true,
	"NEW":    true,
	"HOME":   true,
	"SAVE":   true,
	"LOAD":   true,
}

// twoCharOps must be matched before the single-character operators.
var twoCharOps = []string{"<>", "<=", ">="}

const singleCharOps = "=<>+-*/"

const punctuation = "(),;:"

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// Tokenize turns one source line into a flat token sequence. It is pure:
// no state is carried between calls. The returned sequence always ends with
// exactly one EOL token.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	pos := 0

	for pos < len(line) {
		ch := line[pos]

		if isSpace(ch) {
			pos++
			continue
		}

		col := pos + 1

		switch {
		case isDigit(ch):
			tok, next := scanNumber(line, pos)
			tok.Col = col
			tokens = append(tokens, tok)
			pos = next

		case ch == '"':
			tok, next := scanString(line, pos)
			tok.Col = col
			tokens = append(tokens, tok)
			pos = next

		case isLetter(ch):
			tok, next := scanWord(line, pos)
			tok.Col = col
			tokens = append(tokens, tok)
			pos = next

		default:
			if op, ok := matchOperator(line, pos); ok {
				tokens = append(tokens, Token{Kind: TokenOperator, Text: op, Col: col})
				pos += len(op)
				continue
			}
			if strings.IndexByte(punctuation, ch) >= 0 {
				tokens = append(tokens, Token{Kind: TokenPunctuation, Text: string(ch), Col: col})
				pos++
				continue
			}
			return nil, NewBasicError(ErrCategorySyntax,
				"UNKNOWN CHARACTER '"+string(ch)+"' AT COLUMN "+strconv.Itoa(col))
		}
	}

	tokens = append(tokens, Token{Kind: TokenEOL, Col: len(line) + 1})
	return tokens, nil
}

// scanNumber consumes an integer or floating-point literal. A second decimal
// point ends the number.
func scanNumber(line string, pos int) (Token, int) {
	start := pos
	sawDot := false
	for pos < len(line) {
		ch := line[pos]
		if isDigit(ch) {
			pos++
			continue
		}
		if ch == '.' && !sawDot {
			sawDot = true
			pos++
			continue
		}
		break
	}
	text := line[start:pos]
	num, _ := strconv.ParseFloat(text, 64)
	return Token{Kind: TokenNumber, Text: text, Num: num}, pos
}

// scanString consumes a quoted string literal. An unterminated string runs
// silently to the end of the line.
func scanString(line string, pos int) (Token, int) {
	pos++ // opening quote
	start := pos
	for pos < len(line) && line[pos] != '"' {
		pos++
	}
	text := line[start:pos]
	if pos < len(line) {
		pos++ // closing quote
	}
	return Token{Kind: TokenString, Text: text}, pos
}

// scanWord consumes a letter-led word of letters and digits plus an optional
// trailing $, uppercases it, and classifies it keyword or identifier.
func scanWord(line string, pos int) (Token, int) {
	start := pos
	for pos < len(line) && (isLetter(line[pos]) || isDigit(line[pos])) {
		pos++
	}
	if pos < len(line) && line[pos] == '$' {
		pos++
	}
	text := strings.ToUpper(line[start:pos])
	kind := TokenIdentifier
	if keywords[text] {
		kind = TokenKeyword
	}
	return Token{Kind: kind, Text: text}, pos
}

func matchOperator(line string, pos int) (string, bool) {
	for _, op := range twoCharOps {
		if strings.HasPrefix(line[pos:], op) {
			return op, true
		}
	}
	ch := line[pos]
	if strings.IndexByte(singleCharOps, ch) >= 0 {
		return string(ch), true
	}
	return "", false
}
