package parser

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/smasher164/deduce/ast"
	"github.com/smasher164/deduce/lexer"
	"golang.org/x/exp/slices"
)

const debug = false

type parser struct {
	l      *lexer.Lexer
	tok    lexer.Token
	prev   lexer.Token
	buf    []lexer.Token
	indent int
}

// SyntaxError is a lexical or grammatical error at a source location.
type SyntaxError struct {
	Span lexer.Span
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

func (p *parser) trace(msg string) func() {
	if debug {
		fmt.Printf("%*s%s\n", p.indent*2, "", msg)
		p.indent++
		return func() {
			p.indent--
		}
	}
	return func() {}
}

// ParseFile parses the statements of a proof file.
func ParseFile(fsys fs.FS, filename string) ([]ast.Statement, error) {
	l, err := lexer.NewLexer(fsys, filename)
	if err != nil {
		return nil, err
	}
	return parse(l)
}

// ParseString parses src as the contents of a file called name.
func ParseString(name, src string) ([]ast.Statement, error) {
	return parse(lexer.NewLexerString(name, src))
}

func parse(l *lexer.Lexer) (stmts []ast.Statement, err error) {
	p := &parser{l: l}
	defer func() {
		if r := recover(); r != nil {
			serr, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			stmts, err = nil, serr
		}
	}()
	stmts = p.parseFile()
	if err := l.Err(); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) errorf(span lexer.Span, format string, args ...any) {
	panic(&SyntaxError{Span: span, Msg: fmt.Sprintf(format, args...)})
}

func describe(t lexer.Token) string {
	switch t.Type {
	case lexer.Ident:
		return "identifier " + t.Data
	case lexer.Number:
		return "number " + t.Data
	case lexer.EOF:
		return "end of file"
	}
	return strconv.Quote(t.Type.String())
}

func (p *parser) next() {
	p.prev = p.tok
	if len(p.buf) > 0 {
		p.tok = p.buf[0]
		p.buf = p.buf[1:]
	} else {
		p.tok = p.l.Next()
	}
	if p.tok.Type == lexer.Illegal {
		p.errorf(p.tok.Span, "%s", p.tok.Data)
	}
}

func (p *parser) peek() lexer.Token {
	if len(p.buf) == 0 {
		p.buf = append(p.buf, p.l.Next())
	}
	return p.buf[0]
}

func (p *parser) got(ttype lexer.TokenType) bool {
	if p.tok.Type == ttype {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(ttype lexer.TokenType) lexer.Token {
	tok := p.tok
	if tok.Type != ttype {
		p.errorf(tok.Span, "expected %q, found %s", ttype, describe(tok))
	}
	p.next()
	return tok
}

func (p *parser) ident() (string, lexer.Span) {
	tok := p.tok
	if tok.Type != lexer.Ident {
		p.errorf(tok.Span, "expected identifier, found %s", describe(tok))
	}
	p.next()
	return tok.Data, tok.Span
}

// since is the span from start up to the last consumed token.
func (p *parser) since(start lexer.Span) ast.Loc {
	return ast.At(start.Add(p.prev.Span))
}

func (p *parser) parseFile() []ast.Statement {
	defer p.trace("parseFile")()
	p.next()
	var stmts []ast.Statement
	for p.tok.Type != lexer.EOF {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *parser) parseStatement() ast.Statement {
	defer p.trace("parseStatement")()
	start := p.tok.Span
	var private, opaque, public bool
	for modifier := true; modifier; {
		switch p.tok.Type {
		case lexer.Private:
			private = true
		case lexer.Opaque:
			opaque = true
		case lexer.Public:
			public = true
		default:
			modifier = false
			continue
		}
		p.next()
	}
	if public && p.tok.Type != lexer.Import {
		p.errorf(p.tok.Span, "public only applies to import")
	}
	if opaque {
		switch p.tok.Type {
		case lexer.Define, lexer.Recursive:
		default:
			p.errorf(p.tok.Span, "opaque only applies to define and recursive")
		}
	}
	switch p.tok.Type {
	case lexer.Import:
		p.next()
		name, _ := p.ident()
		return &ast.Import{Loc: p.since(start), Name: name, Public: public}
	case lexer.Module:
		p.next()
		name, _ := p.ident()
		return &ast.Module{Loc: p.since(start), Name: name}
	case lexer.Export:
		p.next()
		return &ast.Export{Loc: p.since(start), Name: p.parseName()}
	case lexer.Union:
		return p.parseUnion(start, private)
	case lexer.Recursive:
		return p.parseRecursive(start, private, opaque)
	case lexer.Define:
		p.next()
		name, _ := p.ident()
		var typ ast.Type
		if p.got(lexer.Colon) {
			typ = p.parseType()
		}
		p.expect(lexer.Equals)
		body := p.parseTerm()
		return &ast.Define{Loc: p.since(start), Name: name, Type: typ, Body: body, Private: private, Opaque: opaque}
	case lexer.Theorem, lexer.Lemma:
		lemma := p.tok.Type == lexer.Lemma
		p.next()
		name, _ := p.ident()
		p.expect(lexer.Colon)
		formula := p.parseTerm()
		p.expect(lexer.Proof)
		pf := p.parseProof()
		if pf == nil {
			p.errorf(p.tok.Span, "expected proof, found %s", describe(p.tok))
		}
		p.expect(lexer.End)
		return &ast.Theorem{Loc: p.since(start), Name: name, Formula: formula, Proof: pf, IsLemma: lemma, Private: private}
	case lexer.Postulate:
		p.next()
		name, _ := p.ident()
		p.expect(lexer.Colon)
		formula := p.parseTerm()
		return &ast.Postulate{Loc: p.since(start), Name: name, Formula: formula, Private: private}
	case lexer.Associative:
		p.next()
		op := p.parseName()
		tparams := p.parseTypeParams()
		p.expect(lexer.In)
		typ := p.parseType()
		return &ast.Associative{Loc: p.since(start), Operator: op, TypeParams: tparams, Typ: typ}
	case lexer.Auto:
		p.next()
		return &ast.Auto{Loc: p.since(start), Name: p.parseName()}
	case lexer.Assert:
		p.next()
		return &ast.Assert{Loc: p.since(start), Formula: p.parseTerm()}
	case lexer.Print:
		p.next()
		return &ast.Print{Loc: p.since(start), Subject: p.parseTerm()}
	}
	p.errorf(p.tok.Span, "expected statement, found %s", describe(p.tok))
	panic("unreachable")
}

// parseName parses an identifier or operator name, as in export f or
// auto +, optionally written operator +.
func (p *parser) parseName() *ast.Var {
	start := p.tok.Span
	p.got(lexer.Operator)
	if p.tok.IsOperator() {
		sym := p.tok.String2()
		p.next()
		return &ast.Var{Loc: p.since(start), Name: sym}
	}
	name, _ := p.ident()
	return &ast.Var{Loc: p.since(start), Name: name}
}

func (p *parser) parseTypeParams() []string {
	if !p.got(lexer.LessThan) {
		return nil
	}
	var params []string
	for {
		name, _ := p.ident()
		params = append(params, name)
		if !p.got(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.GreaterThan)
	return params
}

func (p *parser) parseUnion(start lexer.Span, private bool) ast.Statement {
	defer p.trace("parseUnion")()
	p.expect(lexer.Union)
	name, _ := p.ident()
	u := &ast.Union{Name: name, TypeParams: p.parseTypeParams(), Private: private}
	p.expect(lexer.LeftBrace)
	for p.tok.Type != lexer.RightBrace {
		cstart := p.tok.Span
		cname, _ := p.ident()
		c := &ast.Constructor{Name: cname}
		if p.got(lexer.LeftParen) {
			c.Params = p.parseTypeList(lexer.RightParen)
		}
		c.Loc = p.since(cstart)
		u.Constructors = append(u.Constructors, c)
		p.got(lexer.Comma)
	}
	p.expect(lexer.RightBrace)
	u.Loc = p.since(start)
	return u
}

func (p *parser) parseTypeList(closing lexer.TokenType) []ast.Type {
	var types []ast.Type
	for p.tok.Type != closing {
		types = append(types, p.parseType())
		if !p.got(lexer.Comma) {
			break
		}
	}
	p.expect(closing)
	return types
}

// parseRecursive parses a recursive function. Parameters written as
// bare types give a function defined by cases on its first argument;
// named parameters give a function with a single body and a measure.
func (p *parser) parseRecursive(start lexer.Span, private, opaque bool) ast.Statement {
	defer p.trace("parseRecursive")()
	p.expect(lexer.Recursive)
	name := p.parseName().Name
	tparams := p.parseTypeParams()
	p.expect(lexer.LeftParen)
	if p.tok.Type == lexer.Ident && p.peek().Type == lexer.Colon {
		return p.parseGenRecFun(start, name, tparams, private, opaque)
	}
	fn := &ast.RecFun{Name: name, TypeParams: tparams, Private: private, Opaque: opaque}
	fn.Params = p.parseTypeList(lexer.RightParen)
	p.expect(lexer.RightArrow)
	fn.Return = p.parseType()
	p.expect(lexer.LeftBrace)
	for p.tok.Type != lexer.RightBrace {
		fn.Cases = append(fn.Cases, p.parseFunCase(name))
	}
	p.expect(lexer.RightBrace)
	fn.Loc = p.since(start)
	return fn
}

func (p *parser) parseFunCase(name string) *ast.FunCase {
	defer p.trace("parseFunCase")()
	start := p.tok.Span
	if got := p.parseName(); got.Name != name {
		p.errorf(got.Span(), "expected a case of %s, found %s", name, got.Name)
	}
	p.expect(lexer.LeftParen)
	c := &ast.FunCase{Pattern: p.parsePattern()}
	for p.got(lexer.Comma) {
		param, _ := p.ident()
		c.Params = append(c.Params, param)
	}
	p.expect(lexer.RightParen)
	p.expect(lexer.Equals)
	c.Body = p.parseTerm()
	c.Loc = p.since(start)
	return c
}

func (p *parser) parseGenRecFun(start lexer.Span, name string, tparams []string, private, opaque bool) ast.Statement {
	fn := &ast.GenRecFun{Name: name, TypeParams: tparams, Private: private, Opaque: opaque}
	fn.Params = p.parseBindings()
	p.expect(lexer.RightParen)
	p.expect(lexer.RightArrow)
	fn.Return = p.parseType()
	p.expect(lexer.Measure)
	fn.Measure = p.parseTerm()
	p.expect(lexer.Of)
	fn.MeasureType = p.parseType()
	p.expect(lexer.LeftBrace)
	fn.Body = p.parseTerm()
	p.expect(lexer.RightBrace)
	if p.got(lexer.Terminates) {
		p.expect(lexer.LeftBrace)
		fn.Terminates = p.parseProof()
		p.expect(lexer.RightBrace)
	}
	fn.Loc = p.since(start)
	return fn
}

func (p *parser) parsePattern() ast.Pattern {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.True, lexer.False:
		v := p.tok.Type == lexer.True
		p.next()
		return &ast.PatternBool{Loc: p.since(start), Value: v}
	}
	name, span := p.ident()
	pat := &ast.PatternCons{Constructor: &ast.Var{Loc: ast.At(span), Name: name}}
	if p.got(lexer.LeftParen) {
		for p.tok.Type != lexer.RightParen {
			param, _ := p.ident()
			pat.Params = append(pat.Params, param)
			if !p.got(lexer.Comma) {
				break
			}
		}
		p.expect(lexer.RightParen)
	}
	pat.Loc = p.since(start)
	return pat
}

func (p *parser) parseBinding() ast.Binding {
	start := p.tok.Span
	name, _ := p.ident()
	p.expect(lexer.Colon)
	typ := p.parseType()
	return ast.Binding{Loc: p.since(start), Name: name, Type: typ}
}

func (p *parser) parseBindings() []ast.Binding {
	bs := []ast.Binding{p.parseBinding()}
	for p.got(lexer.Comma) {
		bs = append(bs, p.parseBinding())
	}
	return bs
}

// Types

func (p *parser) parseType() ast.Type {
	defer p.trace("parseType")()
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.BoolKw:
		p.next()
		return &ast.BoolType{Loc: p.since(start)}
	case lexer.IntKw:
		p.next()
		return &ast.IntType{Loc: p.since(start)}
	case lexer.TypeKw:
		p.next()
		return &ast.TypeType{Loc: p.since(start)}
	case lexer.LeftParen:
		p.next()
		t := p.parseType()
		p.expect(lexer.RightParen)
		return t
	case lexer.ArrayKw:
		p.next()
		p.expect(lexer.LessThan)
		elem := p.parseType()
		p.expect(lexer.GreaterThan)
		return &ast.ArrayType{Loc: p.since(start), Elem: elem}
	case lexer.FnKw:
		p.next()
		fn := &ast.FunctionType{TypeParams: p.parseTypeParams()}
		if p.got(lexer.LeftParen) {
			fn.Params = p.parseTypeList(lexer.RightParen)
		} else {
			fn.Params = []ast.Type{p.parseType()}
		}
		p.expect(lexer.RightArrow)
		fn.Return = p.parseType()
		fn.Loc = p.since(start)
		return fn
	case lexer.Ident:
		name, span := p.ident()
		v := &ast.Var{Loc: ast.At(span), Name: name}
		if p.got(lexer.LessThan) {
			args := p.parseTypeList(lexer.GreaterThan)
			return &ast.TypeInst{Loc: p.since(start), Typ: v, Args: args}
		}
		return v
	}
	p.errorf(p.tok.Span, "expected type, found %s", describe(p.tok))
	panic("unreachable")
}

// Terms, from loosest to tightest binding.

func (p *parser) parseTerm() ast.Term {
	defer p.trace("parseTerm")()
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.All, lexer.Some:
		some := p.tok.Type == lexer.Some
		p.next()
		bs := p.parseBindings()
		p.expect(lexer.Period)
		body := p.parseTerm()
		loc := p.since(start)
		for i := len(bs) - 1; i >= 0; i-- {
			pos := ast.BlockPos{Index: i, Count: len(bs)}
			if some {
				body = &ast.Some{Loc: loc, Var: bs[i], Pos: pos, Body: body}
			} else {
				body = &ast.All{Loc: loc, Var: bs[i], Pos: pos, Body: body}
			}
		}
		return body
	case lexer.Define:
		p.next()
		name, _ := p.ident()
		p.expect(lexer.Equals)
		rhs := p.parseTerm()
		p.expect(lexer.Semicolon)
		body := p.parseTerm()
		return &ast.TLet{Loc: p.since(start), Name: name, Rhs: rhs, Body: body}
	}
	lhs := p.parseOr()
	if p.tok.Type == lexer.Implies || p.tok.Type == lexer.FatArrow {
		p.next()
		rhs := p.parseTerm()
		return &ast.IfThen{Loc: p.since(start), Premise: lhs, Conclusion: rhs}
	}
	return lhs
}

func (p *parser) parseOr() ast.Term {
	start := p.tok.Span
	args := []ast.Term{p.parseAnd()}
	for p.got(lexer.Or) {
		args = append(args, p.parseAnd())
	}
	if len(args) == 1 {
		return args[0]
	}
	return ast.MkOr(p.since(start).At, args...)
}

func (p *parser) parseAnd() ast.Term {
	start := p.tok.Span
	args := []ast.Term{p.parseNot()}
	for p.got(lexer.And) {
		args = append(args, p.parseNot())
	}
	if len(args) == 1 {
		return args[0]
	}
	return ast.MkAnd(p.since(start).At, args...)
}

func (p *parser) parseNot() ast.Term {
	start := p.tok.Span
	if p.got(lexer.Not) {
		t := p.parseNot()
		return ast.Not(p.since(start).At, t)
	}
	return p.parseBinaryExpr(lexer.MinPrec)
}

func (p *parser) parseBinaryExpr(minPrec int) ast.Term {
	defer p.trace("parseBinaryExpr")()
	start := p.tok.Span
	res := p.parsePostfix()
	for p.tok.Prec() >= minPrec {
		op := p.tok
		p.next()
		nextMinPrec := op.Prec()
		if !op.IsRightAssoc() {
			nextMinPrec++
		}
		rhs := p.parseBinaryExpr(nextMinPrec)
		span := p.since(start).At
		switch op.Type {
		case lexer.Equals:
			res = ast.MkEqual(span, res, rhs)
		case lexer.NotEquals:
			res = ast.Not(span, ast.MkEqual(span, res, rhs))
		default:
			rator := &ast.Var{Loc: ast.At(op.Span), Name: op.String2()}
			res = &ast.Call{Loc: ast.At(span), Rator: rator, Args: []ast.Term{res, rhs}}
		}
	}
	return res
}

func (p *parser) parseTerms(closing lexer.TokenType) []ast.Term {
	var ts []ast.Term
	for p.tok.Type != closing {
		ts = append(ts, p.parseTerm())
		if !p.got(lexer.Comma) {
			break
		}
	}
	p.expect(closing)
	return ts
}

func (p *parser) parsePostfix() ast.Term {
	start := p.tok.Span
	t := p.parseOperand()
	for {
		switch p.tok.Type {
		case lexer.LeftParen:
			p.next()
			args := p.parseTerms(lexer.RightParen)
			t = &ast.Call{Loc: p.since(start), Rator: t, Args: args}
		case lexer.LeftBracket:
			p.next()
			idx := p.parseTerm()
			p.expect(lexer.RightBracket)
			t = &ast.ArrayGet{Loc: p.since(start), Array: t, Index: idx}
		default:
			return t
		}
	}
}

func (p *parser) parseOperand() ast.Term {
	defer p.trace("parseOperand")()
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.Ident:
		name, span := p.ident()
		return &ast.Var{Loc: ast.At(span), Name: name}
	case lexer.Operator:
		return p.parseName()
	case lexer.Number:
		tok := p.tok
		p.next()
		n, err := strconv.Atoi(tok.Data)
		if err != nil {
			p.errorf(tok.Span, "invalid number %s: %v", tok.Data, err)
		}
		return &ast.IntLit{Loc: ast.At(tok.Span), Value: n}
	case lexer.True, lexer.False:
		v := p.tok.Type == lexer.True
		p.next()
		return &ast.BoolLit{Loc: p.since(start), Value: v}
	case lexer.LeftParen:
		p.next()
		t := p.parseTerm()
		p.expect(lexer.RightParen)
		return t
	case lexer.QuestionMark:
		p.next()
		return &ast.Hole{Loc: p.since(start)}
	case lexer.Ellipsis:
		p.next()
		return &ast.Omitted{Loc: p.since(start)}
	case lexer.Hash:
		p.next()
		t := p.parseTerm()
		p.expect(lexer.Hash)
		return &ast.Mark{Loc: p.since(start), Subject: t}
	case lexer.If:
		p.next()
		cond := p.parseTerm()
		p.expect(lexer.Then)
		then := p.parseTerm()
		if !p.got(lexer.Else) {
			return &ast.IfThen{Loc: p.since(start), Premise: cond, Conclusion: then}
		}
		els := p.parseTerm()
		return &ast.Conditional{Loc: p.since(start), Cond: cond, Then: then, Else: els}
	case lexer.Fun:
		p.next()
		params := p.parseBindings()
		p.expect(lexer.LeftBrace)
		body := p.parseTerm()
		p.expect(lexer.RightBrace)
		return &ast.Lambda{Loc: p.since(start), Params: params, Body: body}
	case lexer.Generic:
		p.next()
		var tparams []string
		for {
			name, _ := p.ident()
			tparams = append(tparams, name)
			if !p.got(lexer.Comma) {
				break
			}
		}
		p.expect(lexer.LeftBrace)
		body := p.parseTerm()
		p.expect(lexer.RightBrace)
		return &ast.Generic{Loc: p.since(start), TypeParams: tparams, Body: body}
	case lexer.At:
		p.next()
		subject := p.parseOperand()
		p.expect(lexer.LessThan)
		args := p.parseTypeList(lexer.GreaterThan)
		return &ast.TermInst{Loc: p.since(start), Subject: subject, TypeArgs: args}
	case lexer.Switch:
		p.next()
		sw := &ast.Switch{Subject: p.parseTerm()}
		p.expect(lexer.LeftBrace)
		for p.tok.Type == lexer.Case {
			cstart := p.tok.Span
			p.next()
			pat := p.parsePattern()
			p.expect(lexer.LeftBrace)
			body := p.parseTerm()
			p.expect(lexer.RightBrace)
			sw.Cases = append(sw.Cases, &ast.SwitchCase{Loc: p.since(cstart), Pattern: pat, Body: body})
		}
		p.expect(lexer.RightBrace)
		sw.Loc = p.since(start)
		return sw
	case lexer.LeftBracket:
		p.next()
		elems := p.parseTerms(lexer.RightBracket)
		return &ast.ArrayLit{Loc: p.since(start), Elems: elems}
	case lexer.ArrayKw:
		p.next()
		p.expect(lexer.LeftParen)
		list := p.parseTerm()
		p.expect(lexer.RightParen)
		return &ast.MakeArray{Loc: p.since(start), List: list}
	}
	p.errorf(p.tok.Span, "expected term, found %s", describe(p.tok))
	panic("unreachable")
}

// Proofs

var proofEnd = []lexer.TokenType{lexer.End, lexer.RightBrace, lexer.RightParen, lexer.Case, lexer.EOF}

// parseProof parses a proof that may continue with further steps. It
// returns nil when no proof follows.
func (p *parser) parseProof() ast.Proof {
	defer p.trace("parseProof")()
	if slices.Contains(proofEnd, p.tok.Type) {
		return nil
	}
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.Have:
		p.next()
		var label string
		if p.tok.Type == lexer.Ident && p.peek().Type == lexer.Colon {
			label, _ = p.ident()
		}
		p.expect(lexer.Colon)
		formula := p.parseTerm()
		p.expect(lexer.By)
		because := p.parseProofExpr()
		loc := p.since(start)
		return &ast.PLet{Loc: loc, Label: label, Formula: formula, Because: because, Body: p.parseProof()}
	case lexer.Suffices:
		p.next()
		claim := p.parseTerm()
		var reason ast.Proof
		if p.got(lexer.By) {
			reason = p.parseProofExpr()
		}
		loc := p.since(start)
		return &ast.Suffices{Loc: loc, Claim: claim, Reason: reason, Body: p.parseProof()}
	case lexer.Conclude:
		p.next()
		claim := p.parseTerm()
		p.expect(lexer.By)
		reason := p.parseProofExpr()
		return &ast.PAnnot{Loc: p.since(start), Claim: claim, Reason: reason}
	case lexer.Assume:
		p.next()
		label, _ := p.ident()
		var premise ast.Term
		if p.got(lexer.Colon) {
			premise = p.parseTerm()
		}
		loc := p.since(start)
		return &ast.ImpIntro{Loc: loc, Label: label, Premise: premise, Body: p.parseProof()}
	case lexer.Arbitrary:
		p.next()
		bs := p.parseBindings()
		loc := p.since(start)
		body := p.parseProof()
		for i := len(bs) - 1; i >= 0; i-- {
			body = &ast.AllIntro{Loc: loc, Var: bs[i], Body: body}
		}
		return body
	case lexer.Choose:
		p.next()
		ws := []ast.Term{p.parseTerm()}
		for p.got(lexer.Comma) {
			ws = append(ws, p.parseTerm())
		}
		loc := p.since(start)
		return &ast.SomeIntro{Loc: loc, Witnesses: ws, Body: p.parseProof()}
	case lexer.Obtain:
		p.next()
		el := &ast.SomeElim{}
		for {
			w, _ := p.ident()
			el.Witnesses = append(el.Witnesses, w)
			if !p.got(lexer.Comma) {
				break
			}
		}
		p.expect(lexer.Where)
		el.Label, _ = p.ident()
		if p.got(lexer.Colon) {
			el.Prop = p.parseTerm()
		}
		p.expect(lexer.From)
		el.Some = p.parseProofExpr()
		el.Loc = p.since(start)
		el.Body = p.parseProof()
		return el
	case lexer.Define:
		p.next()
		name, _ := p.ident()
		p.expect(lexer.Equals)
		rhs := p.parseTerm()
		loc := p.since(start)
		return &ast.PTLet{Loc: loc, Name: name, Rhs: rhs, Body: p.parseProof()}
	case lexer.Rewrite, lexer.Expand, lexer.Evaluate:
		return p.parseTransform(true)
	case lexer.Cases:
		p.next()
		cs := &ast.Cases{Subject: p.parseProofExpr()}
		for p.tok.Type == lexer.Case {
			cstart := p.tok.Span
			p.next()
			c := &ast.PCase{}
			c.Label, _ = p.ident()
			if p.got(lexer.Colon) {
				c.Prop = p.parseTerm()
			}
			c.Body = p.parseBlock()
			c.Loc = p.since(cstart)
			cs.Cases = append(cs.Cases, c)
		}
		cs.Loc = p.since(start)
		return cs
	case lexer.Induction:
		p.next()
		ind := &ast.Induction{Typ: p.parseType()}
		for p.tok.Type == lexer.Case {
			cstart := p.tok.Span
			p.next()
			pat, ok := p.parsePattern().(*ast.PatternCons)
			if !ok {
				p.errorf(p.prev.Span, "induction cases must name a constructor")
			}
			c := &ast.IndCase{Pattern: pat}
			if p.got(lexer.Assume) {
				for {
					var h ast.IndHyp
					h.Label, _ = p.ident()
					if p.got(lexer.Colon) {
						h.Prop = p.parseTerm()
					}
					c.Hyps = append(c.Hyps, h)
					if !p.got(lexer.Comma) {
						break
					}
				}
			}
			c.Body = p.parseBlock()
			c.Loc = p.since(cstart)
			ind.Cases = append(ind.Cases, c)
		}
		ind.Loc = p.since(start)
		return ind
	case lexer.Switch:
		p.next()
		sw := &ast.SwitchProof{Subject: p.parseTerm()}
		p.expect(lexer.LeftBrace)
		for p.tok.Type == lexer.Case {
			cstart := p.tok.Span
			p.next()
			c := &ast.SwitchProofCase{Pattern: p.parsePattern()}
			if p.got(lexer.Assume) {
				c.Label, _ = p.ident()
				if p.got(lexer.Colon) {
					c.Prop = p.parseTerm()
				}
			}
			c.Body = p.parseBlock()
			c.Loc = p.since(cstart)
			sw.Cases = append(sw.Cases, c)
		}
		p.expect(lexer.RightBrace)
		sw.Loc = p.since(start)
		return sw
	}
	return p.parseProofExpr()
}

func (p *parser) parseBlock() ast.Proof {
	start := p.expect(lexer.LeftBrace).Span
	pf := p.parseProof()
	if pf == nil {
		pf = &ast.PHole{Loc: ast.At(start)}
	}
	p.expect(lexer.RightBrace)
	return pf
}

// parseTransform parses rewrite, expand and evaluate. With in, the
// transformed fact is the proof. Otherwise the goal is transformed and,
// when withBody is set, the rest of the proof continues from the new goal.
func (p *parser) parseTransform(withBody bool) ast.Proof {
	start := p.tok.Span
	kind := p.tok.Type
	p.next()
	var eqs []ast.Proof
	var defs []*ast.Var
	switch kind {
	case lexer.Rewrite:
		eqs = append(eqs, p.parseProofPostfix())
		for p.got(lexer.Bar) {
			eqs = append(eqs, p.parseProofPostfix())
		}
	case lexer.Expand:
		defs = append(defs, p.parseName())
		for p.got(lexer.Bar) {
			defs = append(defs, p.parseName())
		}
	}
	if p.got(lexer.In) {
		subject := p.parseProofPostfix()
		loc := p.since(start)
		switch kind {
		case lexer.Rewrite:
			return &ast.RewriteFact{Loc: loc, Subject: subject, Equations: eqs}
		case lexer.Expand:
			return &ast.ApplyDefsFact{Loc: loc, Defs: defs, Subject: subject}
		}
		return &ast.EvaluateFact{Loc: loc, Subject: subject}
	}
	loc := p.since(start)
	var body ast.Proof
	if withBody {
		body = p.parseProof()
	}
	switch kind {
	case lexer.Rewrite:
		return &ast.RewriteGoal{Loc: loc, Equations: eqs, Body: body}
	case lexer.Expand:
		return &ast.ApplyDefsGoal{Loc: loc, Defs: defs, Body: body}
	}
	return &ast.EvaluateGoal{Loc: loc, Body: body}
}

// parseProofExpr parses a proof without continuation, such as the
// justification after by.
func (p *parser) parseProofExpr() ast.Proof {
	defer p.trace("parseProofExpr")()
	start := p.tok.Span
	first := p.parseProofAtom()
	if p.tok.Type != lexer.Comma {
		return first
	}
	args := []ast.Proof{first}
	for p.got(lexer.Comma) {
		args = append(args, p.parseProofAtom())
	}
	return &ast.PTuple{Loc: p.since(start), Args: args}
}

func (p *parser) parseProofAtom() ast.Proof {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.Apply:
		p.next()
		imp := p.parseProofPostfix()
		p.expect(lexer.To)
		arg := p.parseProofAtom()
		return &ast.ModusPonens{Loc: p.since(start), Implication: imp, Arg: arg}
	case lexer.Symmetric:
		p.next()
		return &ast.PSymmetric{Loc: p.since(start), Body: p.parseProofAtom()}
	case lexer.Transitive:
		p.next()
		first := p.parseProofPostfix()
		second := p.parseProofAtom()
		return &ast.PTransitive{Loc: p.since(start), First: first, Second: second}
	case lexer.Injective:
		p.next()
		ctor := p.parseName()
		return &ast.PInjective{Loc: p.since(start), Constructor: ctor, Body: p.parseProofAtom()}
	case lexer.Extensionality:
		p.next()
		return &ast.PExtensionality{Loc: p.since(start), Body: p.parseProofAtom()}
	case lexer.Conjunct:
		p.next()
		tok := p.expect(lexer.Number)
		idx, err := strconv.Atoi(tok.Data)
		if err != nil {
			p.errorf(tok.Span, "invalid conjunct index %s", tok.Data)
		}
		p.expect(lexer.Of)
		return &ast.PAndElim{Loc: p.since(start), Index: idx, Subject: p.parseProofAtom()}
	case lexer.Recall:
		p.next()
		facts := []ast.Term{p.parseTerm()}
		for p.got(lexer.Comma) {
			facts = append(facts, p.parseTerm())
		}
		return &ast.PRecall{Loc: p.since(start), Facts: facts}
	case lexer.Rewrite, lexer.Expand, lexer.Evaluate:
		return p.parseTransform(false)
	}
	return p.parseProofPostfix()
}

func (p *parser) parseProofPostfix() ast.Proof {
	start := p.tok.Span
	pf := p.parseProofPrimary()
	for {
		switch p.tok.Type {
		case lexer.LeftBracket:
			p.next()
			args := p.parseTerms(lexer.RightBracket)
			pf = &ast.AllElim{Loc: p.since(start), Univ: pf, Args: args}
		case lexer.LessThan:
			p.next()
			types := p.parseTypeList(lexer.GreaterThan)
			pf = &ast.AllElimTypes{Loc: p.since(start), Univ: pf, Types: types}
		default:
			return pf
		}
	}
}

func (p *parser) parseProofPrimary() ast.Proof {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.Ident:
		name, span := p.ident()
		return &ast.PVar{Loc: ast.At(span), Ref: &ast.Var{Loc: ast.At(span), Name: name}}
	case lexer.Period:
		p.next()
		return &ast.PTrue{Loc: p.since(start)}
	case lexer.QuestionMark:
		p.next()
		return &ast.PHole{Loc: p.since(start)}
	case lexer.Sorry:
		p.next()
		return &ast.PSorry{Loc: p.since(start)}
	case lexer.Reflexive:
		p.next()
		return &ast.PReflexive{Loc: p.since(start)}
	case lexer.LeftParen:
		p.next()
		pf := p.parseProofExpr()
		p.expect(lexer.RightParen)
		return pf
	case lexer.LeftBrace:
		return p.parseBlock()
	}
	p.errorf(p.tok.Span, "expected proof, found %s", describe(p.tok))
	panic("unreachable")
}
