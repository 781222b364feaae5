package term

import (
	"fmt"
	"strconv"
)

// Parser builds terms from the surface syntax. Identifiers bound by an
// enclosing forall/fun/let become de Bruijn references; free identifiers
// become global constants.
//
// Grammar:
//
//	term   := "forall" ident+ ":" term "," term
//	        | "fun" ident+ ":" term "=>" term
//	        | "let" ident ":=" term ":" term "in" term
//	        | app ("->" term)?
//	app    := atom atom*
//	atom   := ident | "?" ident | int | float | "Prop" | "Set" | "Type" | "(" term ")"
type Parser struct {
	tokens []Token
	pos    int
	input  string
}

// NewParser creates a parser over input.
func NewParser(input string) *Parser {
	return &Parser{tokens: NewLexer(input).Tokenize(), input: input}
}

// Parse parses input as a single term.
func Parse(input string) (Term, error) {
	p := NewParser(input)
	t, err := p.parseTerm(nil)
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "unexpected %q after term", tok.Value)
	}
	return t, nil
}

// MustParse is Parse for inputs known to be well formed, mainly tests.
func MustParse(input string) Term {
	t, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return t
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, found %q", tt, tok.Value)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return fmt.Errorf("parse error at offset %d: %s", tok.Offset, fmt.Sprintf(format, args...))
}

// parseTerm parses a full term; ctx is the stack of enclosing binder names,
// innermost last.
func (p *Parser) parseTerm(ctx []string) (Term, error) {
	switch p.current().Type {
	case TokenForall:
		p.advance()
		return p.parseBinders(ctx, TokenComma, func(name string, domain, body Term) Term {
			return &Prod{Binder: name, Domain: domain, Body: body}
		})
	case TokenFun:
		p.advance()
		return p.parseBinders(ctx, TokenDArrow, func(name string, domain, body Term) Term {
			return &Lambda{Binder: name, Domain: domain, Body: body}
		})
	case TokenLet:
		p.advance()
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColonEq); err != nil {
			return nil, err
		}
		value, err := p.parseTerm(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		typ, err := p.parseTerm(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenIn); err != nil {
			return nil, err
		}
		body, err := p.parseTerm(append(ctx, name.Value))
		if err != nil {
			return nil, err
		}
		return &LetIn{Binder: name.Value, Value: value, Type: typ, Body: body}, nil
	}

	left, err := p.parseApp(ctx)
	if err != nil {
		return nil, err
	}
	if p.current().Type == TokenArrow {
		p.advance()
		// Non-dependent product: the codomain does not use the binder.
		body, err := p.parseTerm(append(ctx, "_"))
		if err != nil {
			return nil, err
		}
		return &Prod{Binder: "_", Domain: left, Body: body}, nil
	}
	return left, nil
}

// parseBinders parses "x y : T <sep> body", nesting one binder node per
// name, all sharing the domain.
func (p *Parser) parseBinders(ctx []string, sep TokenType, mk func(string, Term, Term) Term) (Term, error) {
	var names []string
	for p.current().Type == TokenIdent {
		names = append(names, p.advance().Value)
	}
	if len(names) == 0 {
		return nil, p.errorf(p.current(), "expected binder name, found %q", p.current().Value)
	}
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	domain, err := p.parseTerm(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sep); err != nil {
		return nil, err
	}
	inner := ctx
	for _, n := range names {
		inner = append(inner, n)
	}
	body, err := p.parseTerm(inner)
	if err != nil {
		return nil, err
	}
	// The shared domain is parsed outside all the new binders; lift it for
	// each binder it moves under.
	for i := len(names) - 1; i >= 0; i-- {
		body = mk(names[i], Lift(i, domain), body)
	}
	return body, nil
}

func (p *Parser) parseApp(ctx []string) (Term, error) {
	fn, err := p.parseAtom(ctx)
	if err != nil {
		return nil, err
	}
	var args []Term
	for p.atomAhead() {
		arg, err := p.parseAtom(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return MkApp(fn, args...), nil
}

func (p *Parser) atomAhead() bool {
	switch p.current().Type {
	case TokenIdent, TokenQuestion, TokenInt, TokenFloat, TokenLParen, TokenProp, TokenSet, TokenType_:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAtom(ctx []string) (Term, error) {
	tok := p.advance()
	switch tok.Type {
	case TokenIdent:
		for i := len(ctx) - 1; i >= 0; i-- {
			if ctx[i] == tok.Value {
				return &Rel{Index: len(ctx) - i}, nil
			}
		}
		return &Const{Name: tok.Value}, nil
	case TokenQuestion:
		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}
		return &Evar{Key: name.Value}, nil
	case TokenInt:
		v, err := strconv.ParseUint(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid integer literal %q", tok.Value)
		}
		return &IntLit{Value: v}, nil
	case TokenFloat:
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid float literal %q", tok.Value)
		}
		return &FloatLit{Value: v}, nil
	case TokenProp:
		return &Sort{Family: Prop}, nil
	case TokenSet:
		return &Sort{Family: Set}, nil
	case TokenType_:
		return &Sort{Family: Type}, nil
	case TokenLParen:
		t, err := p.parseTerm(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, p.errorf(tok, "unexpected %q", tok.Value)
	}
}
