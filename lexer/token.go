package lexer

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Whitespace
	SingleLineComment
	MultiLineComment

	Ident
	Number

	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Comma
	Colon
	Semicolon
	Period
	Ellipsis
	Bar
	QuestionMark
	Hash
	At

	Equals
	NotEquals
	LessThan
	GreaterThan
	LessThanEquals
	GreaterThanEquals
	Plus
	PlusPlus
	Minus
	Times
	Divide
	Remainder
	Caret
	RightArrow
	FatArrow

	All
	Some
	If
	Then
	Else
	Switch
	Case
	Fun
	Generic
	Define
	Union
	Recursive
	Operator
	Measure
	Of
	Terminates
	Theorem
	Lemma
	Proof
	End
	Postulate
	Import
	Public
	Private
	Opaque
	Module
	Export
	Associative
	In
	Auto
	Assert
	Print
	And
	Or
	Not
	Implies
	True
	False
	Have
	By
	Conclude
	Suffices
	Assume
	Arbitrary
	Choose
	Obtain
	Where
	From
	Rewrite
	Expand
	Evaluate
	Cases
	Induction
	Apply
	To
	Symmetric
	Transitive
	Injective
	Extensionality
	Conjunct
	Recall
	Reflexive
	Sorry
	BoolKw
	IntKw
	TypeKw
	FnKw
	ArrayKw
)

var SingleCharTokens = map[rune]TokenType{
	'(': LeftParen,
	')': RightParen,
	'{': LeftBrace,
	'}': RightBrace,
	'[': LeftBracket,
	']': RightBracket,
	',': Comma,
	':': Colon,
	';': Semicolon,
	'.': Period,
	'|': Bar,
	'?': QuestionMark,
	'#': Hash,
	'@': At,
	'=': Equals,
	'<': LessThan,
	'>': GreaterThan,
	'+': Plus,
	'-': Minus,
	'*': Times,
	'/': Divide,
	'%': Remainder,
	'^': Caret,
	'≠': NotEquals,
	'≤': LessThanEquals,
	'≥': GreaterThanEquals,
	'→': RightArrow,
	'⇒': FatArrow,
	'∀': All,
	'∃': Some,
	'λ': Fun,
	'∧': And,
	'∨': Or,
	'¬': Not,
	eof: EOF,
}

var DoubleCharTokens = map[[2]rune]TokenType{
	{'-', '>'}: RightArrow,
	{'=', '>'}: FatArrow,
	{'/', '='}: NotEquals,
	{'<', '='}: LessThanEquals,
	{'>', '='}: GreaterThanEquals,
	{'+', '+'}: PlusPlus,
}

var Keywords = map[string]TokenType{
	"all":            All,
	"some":           Some,
	"if":             If,
	"then":           Then,
	"else":           Else,
	"switch":         Switch,
	"case":           Case,
	"fun":            Fun,
	"generic":        Generic,
	"define":         Define,
	"union":          Union,
	"recursive":      Recursive,
	"operator":       Operator,
	"measure":        Measure,
	"of":             Of,
	"terminates":     Terminates,
	"theorem":        Theorem,
	"lemma":          Lemma,
	"proof":          Proof,
	"end":            End,
	"postulate":      Postulate,
	"import":         Import,
	"public":         Public,
	"private":        Private,
	"opaque":         Opaque,
	"module":         Module,
	"export":         Export,
	"associative":    Associative,
	"in":             In,
	"auto":           Auto,
	"assert":         Assert,
	"print":          Print,
	"and":            And,
	"or":             Or,
	"not":            Not,
	"implies":        Implies,
	"true":           True,
	"false":          False,
	"have":           Have,
	"by":             By,
	"conclude":       Conclude,
	"suffices":       Suffices,
	"assume":         Assume,
	"arbitrary":      Arbitrary,
	"choose":         Choose,
	"obtain":         Obtain,
	"where":          Where,
	"from":           From,
	"rewrite":        Rewrite,
	"expand":         Expand,
	"evaluate":       Evaluate,
	"cases":          Cases,
	"induction":      Induction,
	"apply":          Apply,
	"to":             To,
	"symmetric":      Symmetric,
	"transitive":     Transitive,
	"injective":      Injective,
	"extensionality": Extensionality,
	"conjunct":       Conjunct,
	"recall":         Recall,
	"reflexive":      Reflexive,
	"sorry":          Sorry,
	"bool":           BoolKw,
	"int":            IntKw,
	"type":           TypeKw,
	"fn":             FnKw,
	"array":          ArrayKw,
}

var tokenNames = map[TokenType]string{
	EOF:               "end of file",
	Illegal:           "illegal token",
	Whitespace:        "whitespace",
	SingleLineComment: "comment",
	MultiLineComment:  "comment",
	Ident:             "identifier",
	Number:            "number",
	LeftParen:         "(",
	RightParen:        ")",
	LeftBrace:         "{",
	RightBrace:        "}",
	LeftBracket:       "[",
	RightBracket:      "]",
	Comma:             ",",
	Colon:             ":",
	Semicolon:         ";",
	Period:            ".",
	Ellipsis:          "...",
	Bar:               "|",
	QuestionMark:      "?",
	Hash:              "#",
	At:                "@",
	Equals:            "=",
	NotEquals:         "≠",
	RightArrow:        "->",
	FatArrow:          "=>",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	if s, ok := OperatorSymbols[t]; ok {
		return s
	}
	for k, v := range Keywords {
		if v == t {
			return k
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// OperatorSymbols maps the tokens that may name a user-defined operator to
// their spelling.
var OperatorSymbols = map[TokenType]string{
	Plus:              "+",
	PlusPlus:          "++",
	Minus:             "-",
	Times:             "*",
	Divide:            "/",
	Remainder:         "%",
	Caret:             "^",
	LessThan:          "<",
	GreaterThan:       ">",
	LessThanEquals:    "≤",
	GreaterThanEquals: "≥",
}

type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) Min(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset < other.Offset {
		return p
	}
	return other
}

func (p Pos) Max(other Pos) Pos {
	if p.Column == 0 {
		return other
	}
	if other.Column == 0 {
		return p
	}
	if p.Offset > other.Offset {
		return p
	}
	return other
}

type Span struct {
	File  string
	Start Pos
	End   Pos
}

func (span Span) Add(other Span) Span {
	file := span.File
	if file == "" {
		file = other.File
	}
	return Span{file, span.Start.Min(other.Start), span.End.Max(other.End)}
}

func (s Span) IsZero() bool {
	return s.Start.Column == 0 && s.End.Column == 0
}

func (s Span) String() string {
	prefix := ""
	if s.File != "" {
		prefix = s.File + ":"
	}
	if s.Start == s.End {
		return fmt.Sprintf("%s%d:%d", prefix, s.Start.Line, s.Start.Column)
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s%d:%d-%d", prefix, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s%d:%d-%d:%d", prefix, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

type Token struct {
	LeadingTrivia []Token
	Type          TokenType
	Span          Span
	Data          string
}

func (t Token) String() string {
	if t.Data == "" {
		return fmt.Sprintf("%s:%s", t.Span, t.Type)
	}
	return fmt.Sprintf("%s:%s %q", t.Span, t.Type, t.Data)
}

func (b Token) Eq(a Token) bool {
	return a.Type == b.Type && a.Data == b.Data
}

func (a Token) ExactEq(b Token) bool {
	return a.Type == b.Type && a.Span == b.Span && a.Data == b.Data && slices.EqualFunc(a.LeadingTrivia, b.LeadingTrivia, Token.ExactEq)
}

func (t Token) IsKeyword() bool {
	return t.Type >= All
}

// IsOperator reports whether the token can name a user-defined binary operator.
func (t Token) IsOperator() bool {
	_, ok := OperatorSymbols[t.Type]
	return ok
}

const MinPrec = 1

// Prec is the binding power of binary term operators. Logical connectives
// and quantifiers are handled by the parser's precedence levels above these.
func (t Token) Prec() int {
	switch t.Type {
	case Caret:
		return 6
	case Times, Divide, Remainder:
		return 5
	case Plus, Minus, PlusPlus:
		return 4
	case LessThan, GreaterThan, LessThanEquals, GreaterThanEquals:
		return 3
	case Equals, NotEquals:
		return 2
	}
	return 0
}

func (t Token) IsRightAssoc() bool {
	return t.Type == Caret
}

func (t Token) String2() string {
	if s, ok := OperatorSymbols[t.Type]; ok {
		return s
	}
	return t.Data
}
