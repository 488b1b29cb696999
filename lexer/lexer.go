package lexer

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/smasher164/xid"
)

// Ext is the file extension of proof sources.
const Ext = ".pf"

type Lexer struct {
	file  string
	ch    rune
	pos   int
	i     int // position in buffer
	err   error
	buf   []rune
	rdr   *bufio.Reader
	lines []int
}

const eof = -1

func (l *Lexer) lexWS() Token {
	startPos := l.pos
	for unicode.IsSpace(l.ch) {
		l.next()
	}
	return Token{Type: Whitespace, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
}

// λ is a letter but lexes as fun.
func isLetter(ch rune) bool {
	return ch == '_' || (xid.Start(ch) && ch != 'λ')
}

// Identifiers may carry primes, as in x'.
func isIdentContinue(ch rune) bool {
	return xid.Continue(ch) || ch == '\''
}

func (l *Lexer) lexIdentOrKeyword() Token {
	startPos := l.pos
	l.next()
	for isIdentContinue(l.ch) {
		l.next()
	}
	ident := l.bufString()
	if ttyp, ok := Keywords[ident]; ok {
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	return Token{Type: Ident, Span: l.spanOf(startPos, l.pos-1), Data: ident}
}

func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }

func (l *Lexer) lexNumber() Token {
	startPos := l.pos
	var tok Token
	setErr := func(pos int, msg string) {
		if tok.Type != Illegal {
			tok = Token{Type: Illegal, Span: l.spanOf(pos, pos), Data: msg}
		}
	}
	_allowed := false
	for {
		if l.ch == '_' {
			if _allowed {
				_allowed = false
			} else {
				setErr(l.pos, "'_' must separate successive digits")
			}
		} else if isDecimal(l.ch) {
			_allowed = true
		} else if isLetter(l.ch) {
			setErr(l.pos, fmt.Sprintf("%q is not a valid digit", l.ch))
		} else {
			if !_allowed {
				setErr(l.pos-1, "'_' must separate successive digits")
			}
			break
		}
		l.next()
	}
	if tok.Type == Illegal {
		return tok
	}
	return Token{Type: Number, Span: l.spanOf(startPos, l.pos-1), Data: strings.ReplaceAll(l.bufString(), "_", "")}
}

func (l *Lexer) lexLineComment() Token {
	startPos := l.pos
	l.until('\n')
	endPos := l.pos - 1
	return Token{Type: SingleLineComment, Span: l.spanOf(startPos, endPos), Data: l.bufString()}
}

func (l *Lexer) lexMultiLineComment() Token {
	startPos := l.pos
	l.nextN(2)
	for {
		switch {
		case l.ch == eof:
			return Token{Type: Illegal, Span: l.spanOf(startPos, l.pos), Data: "comment not terminated"}
		case l.ch == '*' && l.peek() == '/':
			l.nextN(2)
			return Token{Type: MultiLineComment, Span: l.spanOf(startPos, l.pos-1), Data: l.bufString()}
		}
		l.next()
	}
}

func (l *Lexer) next() {
	if l.ch == eof {
		return
	}
	l.i++
	l.pos++
	if l.i < len(l.buf) {
		l.ch = l.buf[l.i]
	} else {
		r, _, err := l.rdr.ReadRune()
		if err != nil {
			l.ch = eof
			if err != io.EOF {
				l.err = err
			}
		} else {
			l.ch = r
		}
		l.buf = append(l.buf, l.ch)
	}
	if l.ch == '\n' {
		if len(l.lines) == 0 || len(l.lines) > 0 && l.lines[len(l.lines)-1] < l.pos+1 {
			l.lines = append(l.lines, l.pos+1)
		}
	}
}

func (l *Lexer) backup() {
	if l.i > 0 {
		l.i--
		l.pos--
		l.ch = l.buf[l.i]
	}
}

func (l *Lexer) peek() rune {
	if l.ch == eof {
		return eof
	}
	l.next()
	ch := l.ch
	l.backup()
	return ch
}

func (l *Lexer) peek2() rune {
	if l.ch == eof {
		return eof
	}
	l.next()
	ch := l.peek()
	l.backup()
	return ch
}

func (l *Lexer) nextN(n int) {
	for i := 0; i < n; i++ {
		l.next()
	}
}

func (l *Lexer) until(r rune) (dst []rune) {
	for l.ch != r && l.ch != eof {
		dst = append(dst, l.ch)
		l.next()
	}
	return dst
}

func (l *Lexer) bufString() string {
	return string(l.buf[:l.i])
}

func (l *Lexer) lineIndex(offset int) int {
	line, found := sort.Find(len(l.lines), func(i int) int {
		v := l.lines[i]
		if offset == v {
			return 0
		}
		if offset < v {
			return -1
		}
		return 1
	})
	if found {
		return line
	}
	return line - 1
}

func (l *Lexer) posOf(offset int) Pos {
	line := l.lineIndex(offset)
	return Pos{Offset: offset, Line: line + 1, Column: offset - l.lines[line] + 1}
}

func (l *Lexer) spanOf(off1, off2 int) Span {
	start := l.posOf(off1)
	var end Pos
	if off1 >= off2 {
		end = start
	} else {
		end = l.posOf(off2)
	}
	return Span{File: l.file, Start: start, End: end}
}

func (l *Lexer) resetPos() {
	l.buf = l.buf[l.i:]
	l.i = 0
	l.ch = l.buf[l.i]
}

// Err reports a read error encountered while lexing, if any.
func (l *Lexer) Err() error {
	return l.err
}

func (l *Lexer) NextToken() Token {
	defer l.resetPos()
	startPos := l.pos
	switch {
	case l.ch == eof:
		return Token{Type: EOF, Span: l.spanOf(startPos, startPos)}
	case unicode.IsSpace(l.ch):
		return l.lexWS()
	case isLetter(l.ch):
		return l.lexIdentOrKeyword()
	case isDecimal(l.ch):
		return l.lexNumber()
	case l.ch == '/' && l.peek() == '/':
		return l.lexLineComment()
	case l.ch == '/' && l.peek() == '*':
		return l.lexMultiLineComment()
	case l.ch == '.' && l.peek() == '.' && l.peek2() == '.':
		l.nextN(3)
		return Token{Type: Ellipsis, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := DoubleCharTokens[[2]rune{l.ch, l.peek()}]; ok {
		l.nextN(2)
		return Token{Type: ttyp, Span: l.spanOf(startPos, l.pos-1)}
	}
	if ttyp, ok := SingleCharTokens[l.ch]; ok {
		l.next()
		return Token{Type: ttyp, Span: l.spanOf(startPos, startPos)}
	}
	ch := l.ch
	l.next()
	return Token{Type: Illegal, Span: l.spanOf(startPos, startPos), Data: fmt.Sprintf("unexpected character %q", ch)}
}

// Next returns the next significant token, attaching any whitespace and
// comments before it as leading trivia.
func (l *Lexer) Next() Token {
	var t Token
	var trivia []Token
	for t = l.NextToken(); t.Type == Whitespace || t.Type == SingleLineComment || t.Type == MultiLineComment; t = l.NextToken() {
		trivia = append(trivia, t)
	}
	t.LeadingTrivia = trivia
	return t
}

func newLexer(name string, r io.Reader) *Lexer {
	l := &Lexer{
		file:  name,
		rdr:   bufio.NewReader(r),
		i:     -1,
		pos:   -1,
		lines: []int{0},
	}
	l.next()
	return l
}

func NewLexer(fsys fs.FS, filename string) (*Lexer, error) {
	if filepath.Ext(filename) != Ext {
		return nil, fmt.Errorf("invalid file extension %q, expected %q", filepath.Ext(filename), Ext)
	}
	f, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	return newLexer(filename, f), nil
}

// NewLexerString lexes source text held in memory. name is used in spans.
func NewLexerString(name, src string) *Lexer {
	return newLexer(name, strings.NewReader(src))
}
