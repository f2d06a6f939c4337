package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Lexer holds all mutable state for a single scanning pass over src,
// including the one-token peek cache and one-slot unget buffer. This state
// lives on the instance, never at package scope, so concurrent lexing
// passes never collide.
type Lexer struct {
	file string
	src  []byte
	pos  int
	line int
	col  int

	peeked   *Token
	ungotten *Token

	Diags Diagnostics
}

// NewLexer initialises a Lexer over source text attributed to filename.
func NewLexer(source, filename string) *Lexer {
	return &Lexer{file: filename, src: []byte(source), pos: 0, line: 1, col: 1}
}

// LexAll drains a fresh Lexer over source to completion, for callers (such
// as -dump-tokens) that want every token up front rather than one at a
// time. It mirrors NewParser's own drain loop.
func LexAll(source, filename string) ([]Token, Diagnostics) {
	lex := NewLexer(source, filename)
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks, lex.Diags
}

func (l *Lexer) HadError() bool { return l.Diags.HasErrors() }
func (l *Lexer) ErrorMsg() string {
	if d := l.Diags.First(); d != nil {
		return d.Error()
	}
	return ""
}

func (l *Lexer) latch(pos Position, format string, args ...any) Token {
	msg := fmt.Sprintf(format, args...)
	l.Diags.AddError(&Diagnostic{Kind: DiagLexical, Pos: pos, Message: msg})
	return Token{Kind: ERROR, Lexeme: msg, Pos: pos}
}

func (l *Lexer) curPos() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByte2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advanceByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isAlnum(b byte) bool { return isAlpha(b) || isDigit(b) }

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		for l.pos < len(l.src) {
			b := l.peekByte()
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				l.advanceByte()
				continue
			}
			break
		}
		if l.peekByte() == '/' && l.peekByte2() == '/' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advanceByte()
			}
			continue
		}
		if l.peekByte() == '/' && l.peekByte2() == '*' {
			startPos := l.curPos()
			l.advanceByte()
			l.advanceByte()
			closed := false
			for l.pos < len(l.src) {
				if l.peekByte() == '*' && l.peekByte2() == '/' {
					l.advanceByte()
					l.advanceByte()
					closed = true
					break
				}
				l.advanceByte()
			}
			if !closed {
				return fmt.Errorf("unterminated block comment starting at %s", startPos)
			}
			continue
		}
		return nil
	}
}

// Peek returns the next token without consuming it, caching the result so a
// following Next returns the same token instead of re-scanning.
func (l *Lexer) Peek() Token {
	if l.ungotten != nil {
		return *l.ungotten
	}
	if l.peeked == nil {
		tok := l.scan()
		l.peeked = &tok
	}
	return *l.peeked
}

// Unget pushes tok back into the one-slot buffer; the next Next or Peek
// call returns it without touching the source. Only one token of pushback
// is supported.
func (l *Lexer) Unget(tok Token) {
	l.ungotten = &tok
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if l.ungotten != nil {
		tok := *l.ungotten
		l.ungotten = nil
		return tok
	}
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.scan()
}

func (l *Lexer) scan() Token {
	if err := l.skipWhitespaceAndComments(); err != nil {
		pos := l.curPos()
		return l.latch(pos, "%s", err.Error())
	}

	pos := l.curPos()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: pos}
	}

	b := l.peekByte()
	switch {
	case isAlpha(b):
		return l.scanIdent(pos)
	case isDigit(b):
		return l.scanNumber(pos)
	case b == '.' && isDigit(l.peekByte2()):
		return l.scanNumber(pos)
	case b == '"':
		return l.scanString(pos)
	case b == '\'':
		return l.scanChar(pos)
	default:
		return l.scanOperator(pos)
	}
}

func (l *Lexer) scanIdent(pos Position) Token {
	start := l.pos
	for l.pos < len(l.src) && isAlnum(l.peekByte()) {
		l.advanceByte()
	}
	lexeme := string(l.src[start:l.pos])
	kind := IDENT
	if kw, ok := keywords[lexeme]; ok {
		kind = kw
	}
	return Token{Kind: kind, Lexeme: truncateLexeme(lexeme), Pos: pos}
}

// scanNumber handles the numeric-literal rules: 0x/0X hex, 0b/0B binary, a
// leading 0 followed by further digits octal, otherwise decimal; a '.' or
// unescaped exponent promotes the literal to float; trailing u/U/l/L/f/F
// suffixes are consumed and discarded.
func (l *Lexer) scanNumber(pos Position) Token {
	start := l.pos
	isFloat := false

	if l.peekByte() == '0' && (l.peekByte2() == 'x' || l.peekByte2() == 'X') {
		l.advanceByte()
		l.advanceByte()
		for l.pos < len(l.src) && isHexDigit(l.peekByte()) {
			l.advanceByte()
		}
		return l.finishInt(pos, start, 16)
	}
	if l.peekByte() == '0' && (l.peekByte2() == 'b' || l.peekByte2() == 'B') {
		l.advanceByte()
		l.advanceByte()
		for l.pos < len(l.src) && (l.peekByte() == '0' || l.peekByte() == '1') {
			l.advanceByte()
		}
		return l.finishInt(pos, start, 2)
	}

	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advanceByte()
	}
	if l.peekByte() == '.' && isDigit(l.peekByte2()) {
		isFloat = true
		l.advanceByte()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advanceByte()
		}
	}
	if (l.peekByte() == 'e' || l.peekByte() == 'E') {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advanceByte()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advanceByte()
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for l.pos < len(l.src) && isDigit(l.peekByte()) {
				l.advanceByte()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}

	if isFloat {
		return l.finishFloat(pos, start)
	}

	// Leading zero followed immediately by more digits is octal; any other
	// leading-zero form was already handled above.
	lexeme := string(l.src[start:l.pos])
	if len(lexeme) > 1 && lexeme[0] == '0' {
		return l.finishInt(pos, start, 8)
	}
	return l.finishInt(pos, start, 10)
}

func (l *Lexer) finishInt(pos Position, start int, base int) Token {
	digits := string(l.src[start:l.pos])
	scanDigits := digits
	switch base {
	case 16:
		scanDigits = digits[2:]
	case 2:
		scanDigits = digits[2:]
	}
	l.consumeNumericSuffix()
	lexeme := string(l.src[start:l.pos])
	if scanDigits == "" {
		return l.latch(pos, "malformed numeric literal %q", lexeme)
	}
	v, err := strconv.ParseInt(scanDigits, base, 64)
	if err != nil {
		return l.latch(pos, "malformed numeric literal %q", lexeme)
	}
	isUnsigned := strings.ContainsAny(lexeme, "uU")
	return Token{Kind: INT_LIT, Lexeme: truncateLexeme(lexeme), IntVal: v, IsUnsigned: isUnsigned, Pos: pos}
}

func (l *Lexer) finishFloat(pos Position, start int) Token {
	l.consumeNumericSuffix()
	lexeme := string(l.src[start:l.pos])
	numPart := strings.TrimRight(lexeme, "fFlL")
	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return l.latch(pos, "malformed floating literal %q", lexeme)
	}
	return Token{Kind: FLOAT_LIT, Lexeme: truncateLexeme(lexeme), FltVal: v, IsFloat: true, Pos: pos}
}

func (l *Lexer) consumeNumericSuffix() {
	for {
		b := l.peekByte()
		if b == 'u' || b == 'U' || b == 'l' || b == 'L' || b == 'f' || b == 'F' {
			l.advanceByte()
			continue
		}
		break
	}
}

var charEscapes = map[byte]byte{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, '\\': '\\',
	'\'': '\'', '"': '"', 'a': '\a', 'b': '\b', 'f': '\f', 'v': '\v',
}

func (l *Lexer) scanEscape(pos Position) (byte, bool, Token) {
	l.advanceByte() // consume backslash
	b := l.peekByte()
	if b == 'x' {
		l.advanceByte()
		start := l.pos
		for l.pos < len(l.src) && isHexDigit(l.peekByte()) {
			l.advanceByte()
		}
		hex := string(l.src[start:l.pos])
		if hex == "" {
			return 0, false, l.latch(pos, "invalid \\x escape")
		}
		v, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return 0, false, l.latch(pos, "invalid \\x escape %q", hex)
		}
		return byte(v), true, Token{}
	}
	if esc, ok := charEscapes[b]; ok {
		l.advanceByte()
		return esc, true, Token{}
	}
	return 0, false, l.latch(pos, "unknown escape sequence '\\%c'", b)
}

func (l *Lexer) scanString(pos Position) Token {
	l.advanceByte() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return l.latch(pos, "unterminated string literal")
		}
		b := l.peekByte()
		if b == '"' {
			l.advanceByte()
			break
		}
		if b == '\n' {
			return l.latch(pos, "unterminated string literal (embedded newline)")
		}
		if b == '\\' {
			c, ok, errTok := l.scanEscape(pos)
			if !ok {
				return errTok
			}
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte(b)
		l.advanceByte()
	}
	return Token{Kind: STRING_LIT, Lexeme: truncateLexeme(sb.String()), Pos: pos}
}

func (l *Lexer) scanChar(pos Position) Token {
	l.advanceByte() // opening quote
	if l.peekByte() == '\'' {
		return l.latch(pos, "empty character literal")
	}
	var v byte
	if l.peekByte() == '\\' {
		c, ok, errTok := l.scanEscape(pos)
		if !ok {
			return errTok
		}
		v = c
	} else {
		v = l.peekByte()
		l.advanceByte()
	}
	if l.peekByte() != '\'' {
		return l.latch(pos, "unterminated character literal")
	}
	l.advanceByte()
	return Token{Kind: CHAR_LIT, Lexeme: string(v), IntVal: int64(v), Pos: pos}
}

// scanOperator matches longest-first: three-byte forms before two-byte
// forms before one-byte forms.
func (l *Lexer) scanOperator(pos Position) Token {
	three := map[string]TokenKind{
		"<<=": SHL_ASSIGN, ">>=": SHR_ASSIGN,
	}
	two := map[string]TokenKind{
		"->": ARROW, "++": INC, "--": DEC,
		"==": EQ, "!=": NE, "<=": LE, ">=": GE,
		"&&": AND_AND, "||": OR_OR,
		"+=": PLUS_ASSIGN, "-=": MINUS_ASSIGN, "*=": STAR_ASSIGN,
		"/=": SLASH_ASSIGN, "%=": PERCENT_ASSIGN, "&=": AMP_ASSIGN,
		"|=": PIPE_ASSIGN, "^=": CARET_ASSIGN,
		"<<": SHL, ">>": SHR,
	}
	one := map[byte]TokenKind{
		'{': LBRACE, '}': RBRACE, '(': LPAREN, ')': RPAREN,
		'[': LBRACKET, ']': RBRACKET,
		'.': DOT, ';': SEMICOLON, ',': COMMA, ':': COLON, '?': QUESTION,
		'+': PLUS, '-': MINUS, '*': STAR, '/': SLASH, '%': PERCENT,
		'&': AMP, '|': PIPE, '^': CARET, '~': TILDE, '!': NOT,
		'=': ASSIGN, '<': LT, '>': GT,
	}

	if l.pos+3 <= len(l.src) {
		cand := string(l.src[l.pos : l.pos+3])
		if kind, ok := three[cand]; ok {
			l.advanceByte()
			l.advanceByte()
			l.advanceByte()
			return Token{Kind: kind, Lexeme: cand, Pos: pos}
		}
	}
	if l.pos+2 <= len(l.src) {
		cand := string(l.src[l.pos : l.pos+2])
		if kind, ok := two[cand]; ok {
			l.advanceByte()
			l.advanceByte()
			return Token{Kind: kind, Lexeme: cand, Pos: pos}
		}
	}
	b := l.peekByte()
	if kind, ok := one[b]; ok {
		l.advanceByte()
		return Token{Kind: kind, Lexeme: string(b), Pos: pos}
	}
	l.advanceByte()
	return l.latch(pos, "unexpected character %q", string(b))
}
