package term

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a surface-syntax token.
type TokenType int

// Token types of the term surface syntax.
const (
	TokenEOF TokenType = iota
	TokenError
	TokenIdent
	TokenInt
	TokenFloat
	TokenQuestion // leading '?' of a placeholder
	TokenLParen
	TokenRParen
	TokenComma
	TokenColon
	TokenColonEq
	TokenArrow  // ->
	TokenDArrow // =>
	TokenForall
	TokenFun
	TokenLet
	TokenIn
	TokenProp
	TokenSet
	TokenType_
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenError:    "ERROR",
	TokenIdent:    "IDENT",
	TokenInt:      "INT",
	TokenFloat:    "FLOAT",
	TokenQuestion: "?",
	TokenLParen:   "(",
	TokenRParen:   ")",
	TokenComma:    ",",
	TokenColon:    ":",
	TokenColonEq:  ":=",
	TokenArrow:    "->",
	TokenDArrow:   "=>",
	TokenForall:   "forall",
	TokenFun:      "fun",
	TokenLet:      "let",
	TokenIn:       "in",
	TokenProp:     "Prop",
	TokenSet:      "Set",
	TokenType_:    "Type",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

var keywords = map[string]TokenType{
	"forall": TokenForall,
	"fun":    TokenFun,
	"let":    TokenLet,
	"in":     TokenIn,
	"Prop":   TokenProp,
	"Set":    TokenSet,
	"Type":   TokenType_,
}

// Token is one lexical unit with its source offset.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
}

// Lexer tokenizes the term surface syntax.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a lexer over input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) peek() (rune, int) {
	if l.pos >= len(l.input) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *Lexer) skipSpace() {
	for {
		r, w := l.peek()
		if w == 0 || !unicode.IsSpace(r) {
			return
		}
		l.pos += w
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	// Dots allow fully qualified constant paths, primes follow the
	// calculus' naming habits.
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '\''
}

// NextToken returns the next token, TokenEOF at end of input and TokenError
// on an unexpected rune.
func (l *Lexer) NextToken() Token {
	l.skipSpace()
	start := l.pos
	r, w := l.peek()
	if w == 0 {
		return Token{Type: TokenEOF, Offset: start}
	}

	switch r {
	case '(':
		l.pos += w
		return Token{Type: TokenLParen, Value: "(", Offset: start}
	case ')':
		l.pos += w
		return Token{Type: TokenRParen, Value: ")", Offset: start}
	case ',':
		l.pos += w
		return Token{Type: TokenComma, Value: ",", Offset: start}
	case '?':
		l.pos += w
		return Token{Type: TokenQuestion, Value: "?", Offset: start}
	case ':':
		l.pos += w
		if r2, w2 := l.peek(); r2 == '=' {
			l.pos += w2
			return Token{Type: TokenColonEq, Value: ":=", Offset: start}
		}
		return Token{Type: TokenColon, Value: ":", Offset: start}
	case '-':
		l.pos += w
		if r2, w2 := l.peek(); r2 == '>' {
			l.pos += w2
			return Token{Type: TokenArrow, Value: "->", Offset: start}
		}
		return Token{Type: TokenError, Value: "-", Offset: start}
	case '=':
		l.pos += w
		if r2, w2 := l.peek(); r2 == '>' {
			l.pos += w2
			return Token{Type: TokenDArrow, Value: "=>", Offset: start}
		}
		return Token{Type: TokenError, Value: "=", Offset: start}
	}

	if unicode.IsDigit(r) {
		isFloat := false
		for {
			r2, w2 := l.peek()
			if w2 == 0 {
				break
			}
			if r2 == '.' {
				// A dot followed by a digit continues a float; anything
				// else ends the number.
				if l.pos+w2 < len(l.input) {
					r3, _ := utf8.DecodeRuneInString(l.input[l.pos+w2:])
					if unicode.IsDigit(r3) {
						isFloat = true
						l.pos += w2
						continue
					}
				}
				break
			}
			if !unicode.IsDigit(r2) {
				break
			}
			l.pos += w2
		}
		tt := TokenInt
		if isFloat {
			tt = TokenFloat
		}
		return Token{Type: tt, Value: l.input[start:l.pos], Offset: start}
	}

	if isIdentStart(r) {
		for {
			r2, w2 := l.peek()
			if w2 == 0 || !isIdentPart(r2) {
				break
			}
			l.pos += w2
		}
		value := l.input[start:l.pos]
		if kw, ok := keywords[value]; ok {
			return Token{Type: kw, Value: value, Offset: start}
		}
		return Token{Type: TokenIdent, Value: value, Offset: start}
	}

	l.pos += w
	return Token{Type: TokenError, Value: string(r), Offset: start}
}

// Tokenize consumes the whole input, stopping after EOF or the first error.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return toks
		}
	}
}
