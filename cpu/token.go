package cpu

import (
	"unicode/utf8"

	"github.com/ezrec/ulang/source"
)

// TokenType is the lexical class of a token.
type TokenType int

const (
	TOKEN_INTEGER      = TokenType(0) // integer
	TOKEN_FLOAT        = TokenType(1) // float
	TOKEN_STRING       = TokenType(2) // string
	TOKEN_IDENTIFIER   = TokenType(3) // identifier
	TOKEN_SPECIAL_CHAR = TokenType(4) // special character
	TOKEN_EOF          = TokenType(5) // end of file
)

var tokenTypeNames = [...]string{
	TOKEN_INTEGER:      "integer",
	TOKEN_FLOAT:        "float",
	TOKEN_STRING:       "string",
	TOKEN_IDENTIFIER:   "identifier",
	TOKEN_SPECIAL_CHAR: "special character",
	TOKEN_EOF:          "end of file",
}

func (tt TokenType) String() string {
	if tt < 0 || int(tt) >= len(tokenTypeNames) {
		return "unknown"
	}
	return tokenTypeNames[tt]
}

// Token is a typed span of source text.
type Token struct {
	Type TokenType
	Span source.Span
}

// Text returns the source text of the token.
func (tok Token) Text() string {
	return tok.Span.Text()
}

// Is returns true if the token text equals text.
func (tok Token) Is(text string) bool {
	if tok.Type == TOKEN_EOF || tok.Span.Len() != len(text) {
		return false
	}
	return tok.Span.Text() == text
}

// charStream walks a source file one codepoint at a time.
type charStream struct {
	file  *source.File
	index int
	line  int

	spanStart     int
	spanLineStart int
}

func (cs *charStream) hasMore() bool {
	return cs.index < len(cs.file.Data)
}

func (cs *charStream) peek() (r rune, size int) {
	if !cs.hasMore() {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(cs.file.Data[cs.index:])
}

func (cs *charStream) consume() (r rune) {
	r, size := cs.peek()
	cs.index += size
	return
}

// match tests for a literal ASCII needle at the cursor.
func (cs *charStream) match(needle string, consume bool) bool {
	end := cs.index + len(needle)
	if end > len(cs.file.Data) || string(cs.file.Data[cs.index:end]) != needle {
		return false
	}
	if consume {
		cs.index = end
	}
	return true
}

func (cs *charStream) matchByte(fn func(c byte) bool, consume bool) bool {
	if !cs.hasMore() || !fn(cs.file.Data[cs.index]) {
		return false
	}
	if consume {
		cs.index++
	}
	return true
}

func (cs *charStream) matchFunc(fn func(r rune) bool, consume bool) bool {
	r, size := cs.peek()
	if size == 0 || !fn(r) {
		return false
	}
	if consume {
		cs.index += size
	}
	return true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Identifiers are classified by raw byte: UTF-8 lead bytes (0xc0 and up)
// may start one, continuation bytes (0x80 to 0xbf) only continue one.
func isIdentifierStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c >= 0xc0
}

func isIdentifierPart(c byte) bool {
	return isIdentifierStart(c) || (c >= '0' && c <= '9') || c >= 0x80
}

func (cs *charStream) skipWhiteSpace() {
	for cs.hasMore() {
		switch cs.file.Data[cs.index] {
		case '#':
			for cs.hasMore() && cs.file.Data[cs.index] != '\n' {
				cs.index++
			}
		case ' ', '\r', '\t':
			cs.index++
		case '\n':
			cs.index++
			cs.line++
		default:
			return
		}
	}
}

func (cs *charStream) startSpan() {
	cs.spanStart = cs.index
	cs.spanLineStart = cs.line
}

func (cs *charStream) endSpan() source.Span {
	return source.Span{
		File:      cs.file,
		Start:     cs.spanStart,
		End:       cs.index,
		StartLine: cs.spanLineStart,
		EndLine:   cs.line,
	}
}

// Tokenize splits a source file into tokens. The returned slice always ends
// with a TOKEN_EOF token.
func Tokenize(file *source.File) (tokens []Token, err error) {
	cs := &charStream{file: file, line: 1}

	for {
		cs.skipWhiteSpace()
		if !cs.hasMore() {
			break
		}
		cs.startSpan()

		// Numbers: -?(0x[hex]*|[0-9]*(.[0-9]*)?)b?
		if cs.match("-", false) || cs.matchFunc(isDigit, false) {
			if cs.match("-", true) && !cs.matchFunc(isDigit, false) {
				tokens = append(tokens, Token{Type: TOKEN_SPECIAL_CHAR, Span: cs.endSpan()})
				continue
			}
			tt := TOKEN_INTEGER
			if cs.match("0x", true) {
				for cs.matchFunc(isHexDigit, true) {
				}
			} else {
				for cs.matchFunc(isDigit, true) {
				}
				if cs.match(".", true) {
					tt = TOKEN_FLOAT
					for cs.matchFunc(isDigit, true) {
					}
				}
			}
			if cs.match("b", false) {
				save := cs.index
				cs.index++
				if cs.matchByte(isIdentifierPart, false) {
					cs.index = save
				} else if tt == TOKEN_FLOAT {
					err = source.Errorf(ErrLexical, cs.endSpan(), "Byte literal can not have a decimal point.")
					return nil, err
				}
			}
			tokens = append(tokens, Token{Type: tt, Span: cs.endSpan()})
			continue
		}

		// String literal; escapes are decoded by the consumer.
		if cs.match("\"", true) {
			closed := false
			for cs.hasMore() {
				if cs.match("\\", true) {
					if cs.match("\n", false) {
						cs.line++
					}
					cs.consume()
					continue
				}
				if cs.match("\"", true) {
					closed = true
					break
				}
				if cs.match("\n", false) {
					cs.line++
				}
				cs.consume()
			}
			if !closed {
				err = source.Errorf(ErrLexical, cs.endSpan(), "String literal is not closed by double quote")
				return nil, err
			}
			tokens = append(tokens, Token{Type: TOKEN_STRING, Span: cs.endSpan()})
			continue
		}

		if cs.matchByte(isIdentifierStart, true) {
			for cs.matchByte(isIdentifierPart, true) {
			}
			tokens = append(tokens, Token{Type: TOKEN_IDENTIFIER, Span: cs.endSpan()})
			continue
		}

		cs.consume()
		tokens = append(tokens, Token{Type: TOKEN_SPECIAL_CHAR, Span: cs.endSpan()})
	}

	cs.startSpan()
	tokens = append(tokens, Token{Type: TOKEN_EOF, Span: cs.endSpan()})
	return
}
