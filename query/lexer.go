package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/derekwisong/datui/frame"
)

type lexer struct {
	input string
	pos   int  // position of ch
	next  int  // position after ch
	ch    byte // current character, 0 at EOF
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.next >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.next]
	}
	l.pos = l.next
	l.next++
}

func (l *lexer) peekChar() byte {
	if l.next >= len(l.input) {
		return 0
	}
	return l.input[l.next]
}

// tokenize scans the whole input. Scanning stops at the first lexical
// error; the returned SyntaxError carries the byte offset.
func tokenize(input string) ([]Token, error) {
	l := newLexer(input)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	start := l.pos

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: start}, nil
	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Value: ",", Pos: start}, nil
	case l.ch == ':':
		l.readChar()
		return Token{Type: TokenColon, Value: ":", Pos: start}, nil
	case l.ch == '|':
		l.readChar()
		return Token{Type: TokenPipe, Value: "|", Pos: start}, nil
	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Value: "(", Pos: start}, nil
	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Value: ")", Pos: start}, nil
	case l.ch == '[':
		l.readChar()
		return Token{Type: TokenLBracket, Value: "[", Pos: start}, nil
	case l.ch == ']':
		l.readChar()
		return Token{Type: TokenRBracket, Value: "]", Pos: start}, nil
	case l.ch == '"':
		return l.readString()
	case l.ch == '^':
		l.readChar()
		return Token{Type: TokenOp, Value: "^", Pos: start}, nil
	case l.ch == '+' || l.ch == '-' || l.ch == '*' || l.ch == '%' || l.ch == '=' ||
		l.ch == '<' || l.ch == '>' || l.ch == '!':
		return l.readOperator()
	case l.ch == '.':
		// A dot followed by a digit starts a decimal number; otherwise it
		// is the accessor dot.
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		l.readChar()
		return Token{Type: TokenDot, Value: ".", Pos: start}, nil
	case isDigit(l.ch):
		return l.readNumber()
	case isIdentStart(l.ch):
		return l.readIdent(), nil
	default:
		return Token{}, syntaxErrorf(start, "unexpected character %q", string(l.ch))
	}
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *lexer) readOperator() (Token, error) {
	start := l.pos
	first := l.ch
	l.readChar()
	op := string(first)
	second := l.ch
	switch {
	case first == '<' && (second == '=' || second == '>'),
		first == '>' && second == '=',
		first == '!' && second == '=':
		op += string(second)
		l.readChar()
	case first == '!':
		return Token{}, syntaxErrorf(start, "unexpected character %q", "!")
	}
	return Token{Type: TokenOp, Value: op, Pos: start}, nil
}

func (l *lexer) readString() (Token, error) {
	start := l.pos
	l.readChar() // opening quote
	var b strings.Builder
	for {
		switch l.ch {
		case 0:
			return Token{}, syntaxErrorf(start, "unterminated string literal")
		case '"':
			l.readChar()
			return Token{Type: TokenString, Value: b.String(), Pos: start}, nil
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 0:
				return Token{}, syntaxErrorf(l.pos, "unterminated escape sequence in string")
			default:
				// Unknown escape passes through verbatim.
				b.WriteByte('\\')
				b.WriteByte(l.ch)
			}
			l.readChar()
		default:
			b.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readNumber scans a run of digits and dots, then decides whether it is a
// date literal, the date part of a timestamp literal, or a plain number.
func (l *lexer) readNumber() (Token, error) {
	start := l.pos
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	text := l.input[start:l.pos]

	if _, ok := parseDateLiteral(text); ok && l.ch == 'T' {
		return l.readTimestamp(start, text)
	}
	if d, ok := parseDateLiteral(text); ok {
		return Token{Type: TokenDate, Value: text, Pos: start, Time: d}, nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return Token{}, syntaxErrorf(start, "invalid number %q", text)
	}
	return Token{Type: TokenNumber, Value: text, Pos: start}, nil
}

// readTimestamp continues after the date part of YYYY.MM.DDTHH:MM:SS[.frac].
// The fractional digit count selects the time unit: 1-3 millisecond, 4-6
// microsecond, 7-9 nanosecond. No fraction defaults to microsecond.
func (l *lexer) readTimestamp(start int, datePart string) (Token, error) {
	l.readChar() // consume 'T'
	timeStart := l.pos
	for isDigit(l.ch) || l.ch == ':' || l.ch == '.' {
		l.readChar()
	}
	timePart := l.input[timeStart:l.pos]

	parts := strings.Split(timePart, ":")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) < 2 {
		return Token{}, syntaxErrorf(start, "invalid timestamp literal %q", datePart+"T"+timePart)
	}
	secPart, fracPart := parts[2], ""
	if i := strings.IndexByte(secPart, '.'); i >= 0 {
		secPart, fracPart = secPart[:i], secPart[i+1:]
	}

	unit := frame.UnitMicroseconds
	switch n := len(fracPart); {
	case n == 0:
		unit = frame.UnitMicroseconds
	case n <= 3:
		unit = frame.UnitMilliseconds
	case n <= 6:
		unit = frame.UnitMicroseconds
	default:
		unit = frame.UnitNanoseconds
	}

	date, ok := parseDateLiteral(datePart)
	if !ok {
		return Token{}, syntaxErrorf(start, "invalid timestamp literal %q", datePart+"T"+timePart)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	second, err3 := strconv.Atoi(secPart)
	if err1 != nil || err2 != nil || err3 != nil {
		return Token{}, syntaxErrorf(start, "invalid timestamp literal %q", datePart+"T"+timePart)
	}
	nanos := 0
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.Atoi(fracPart)
		if err != nil {
			return Token{}, syntaxErrorf(start, "invalid timestamp literal %q", datePart+"T"+timePart)
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nanos = frac
	}

	ts := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, nanos, time.UTC)
	return Token{
		Type:       TokenTimestamp,
		Value:      datePart + "T" + timePart,
		Pos:        start,
		Time:       ts,
		Unit:       unit,
		FracDigits: len(fracPart),
	}, nil
}

func (l *lexer) readIdent() Token {
	start := l.pos
	for isIdentStart(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	text := l.input[start:l.pos]
	switch text {
	case "select":
		return Token{Type: TokenSelect, Value: text, Pos: start}
	case "by":
		return Token{Type: TokenBy, Value: text, Pos: start}
	case "where":
		return Token{Type: TokenWhere, Value: text, Pos: start}
	}
	return Token{Type: TokenIdent, Value: text, Pos: start}
}

// parseDateLiteral recognizes YYYY.MM.DD with a 4-digit year in 1000-9999,
// month 1-12 and day 1-31.
func parseDateLiteral(s string) (time.Time, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 1000 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isIdentStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}
