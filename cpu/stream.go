package cpu

import (
	"github.com/ezrec/ulang/source"
)

// tokenStream is a seekable cursor over a token slice.
type tokenStream struct {
	tokens []Token
	index  int
}

// hasMore returns false once the cursor reaches the EOF token.
func (ts *tokenStream) hasMore() bool {
	return ts.index < len(ts.tokens) && ts.tokens[ts.index].Type != TOKEN_EOF
}

func (ts *tokenStream) peek() Token {
	if ts.index >= len(ts.tokens) {
		return ts.tokens[len(ts.tokens)-1]
	}
	return ts.tokens[ts.index]
}

// peekAt returns the token n places past the cursor.
func (ts *tokenStream) peekAt(n int) Token {
	if ts.index+n >= len(ts.tokens) {
		return ts.tokens[len(ts.tokens)-1]
	}
	return ts.tokens[ts.index+n]
}

func (ts *tokenStream) next() (tok Token) {
	tok = ts.peek()
	if ts.index < len(ts.tokens)-1 {
		ts.index++
	}
	return
}

// previous returns the last consumed token.
func (ts *tokenStream) previous() Token {
	if ts.index == 0 {
		return ts.peek()
	}
	return ts.tokens[ts.index-1]
}

func (ts *tokenStream) match(text string, consume bool) bool {
	if !ts.peek().Is(text) {
		return false
	}
	if consume {
		ts.next()
	}
	return true
}

func (ts *tokenStream) matchType(tt TokenType, consume bool) bool {
	if ts.peek().Type != tt {
		return false
	}
	if consume {
		ts.next()
	}
	return true
}

// expect consumes a token with the given text, or fails with a syntax error.
func (ts *tokenStream) expect(text string) (tok Token, err error) {
	tok = ts.peek()
	if !tok.Is(text) {
		err = source.Errorf(ErrSyntax, tok.Span, "Expected '%v'", text)
		return
	}
	ts.next()
	return
}

// expectType consumes a token of the given type, or fails with a syntax error.
func (ts *tokenStream) expectType(tt TokenType) (tok Token, err error) {
	tok = ts.peek()
	if tok.Type != tt {
		err = source.Errorf(ErrSyntax, tok.Span, "Expected %v, got '%v'", tt.String(), tok.Text())
		return
	}
	ts.next()
	return
}

// spanFrom returns the span from token index start through the last consumed token.
func (ts *tokenStream) spanFrom(start int) source.Span {
	first := ts.tokens[start]
	if ts.index <= start {
		return first.Span
	}
	return first.Span.To(ts.tokens[ts.index-1].Span)
}
