package parser

import (
	"strconv"

	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/token"
)

const arrowDescription = "'=>', ':=>', or '[T] :=>'"

func (p *Parser) expression() (ast.Expr, error) {
	t := p.peek(0)

	switch t.Kind {
	case token.Ellipsis:
		p.pos++

		x, err := p.index(true)
		if err != nil {
			return nil, err
		}

		return &ast.MethodCall{
			Base: base(t),
			Left: &ast.Variable{Base: base(t), Name: "unpack"},
			Args: []ast.Expr{x},
		}, nil

	case token.OpenParen:
		if p.tupleAhead() {
			// A parenthesized list followed by an arrow is a parameter list.
			tuple, _, err := tryNotMatch(p, p.lambdaHead, p.tuple)
			if err != nil {
				return nil, err
			}

			if tuple != nil {
				return tuple, nil
			}
		}

		return p.binary()

	case token.OpenCurly:
		switch p.peek(1).Kind {
		case token.CloseCurly:
			return p.binary()

		case token.Ident:
			// "{ key:" starts a table unless the whole first statement of a
			// block parses.
			b, ok, err := tryNotMatch(p, func() error {
				p.pos++
				if _, err := p.ident(); err != nil {
					return err
				}

				_, err := p.eat(token.Colon)

				return err
			}, p.blockExpr)
			if ok {
				return b, err
			}

			b, ok, err = tryMatch(p, func() error {
				p.pos++
				if _, err := p.statement(); err != nil {
					return err
				}

				_, err := p.eat(token.Semicolon)

				return err
			}, p.blockExpr)
			if ok {
				return b, err
			}

			return p.binary()
		}

		return p.blockExpr()
	}

	return p.binary()
}

// lambdaHead matches "( expressions ) arrow".
func (p *Parser) lambdaHead() error {
	if _, err := p.eat(token.OpenParen); err != nil {
		return err
	}

	if _, err := p.expressionList(); err != nil {
		return err
	}

	if _, err := p.eat(token.CloseParen); err != nil {
		return err
	}

	return p.arrow()
}

// arrow matches "=>", ":=>", or "[T] :=>".
func (p *Parser) arrow() error {
	switch p.peek(0).Kind {
	case token.Arrow, token.SelfArrow:
		p.pos++

		return nil

	case token.OpenSquare:
		p.pos++

		if _, err := p.expression(); err != nil {
			return err
		}

		if _, err := p.eat(token.CloseSquare); err != nil {
			return err
		}

		_, err := p.eat(token.SelfArrow)

		return err
	}

	return p.expected(arrowDescription)
}

func (p *Parser) blockExpr() (ast.Expr, error) {
	b := &ast.BlockExpr{Base: base(p.peek(0))}

	_, err := p.within(false, func() error {
		var err error

		b.Stmts, err = p.block()

		return err
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (p *Parser) tuple() (ast.Expr, error) {
	open, err := p.eat(token.OpenParen)
	if err != nil {
		return nil, err
	}

	head, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.Comma); err != nil {
		return nil, err
	}

	tail, err := p.expressionList()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.CloseParen); err != nil {
		return nil, err
	}

	return &ast.Tuple{Base: base(open), Values: append([]ast.Expr{head}, tail...)}, nil
}

// tupleAhead reports whether a tuple starts at the cursor. Nested
// parentheses reach the same position once per enclosing trial, so the
// outcome is kept for each position and jump context.
func (p *Parser) tupleAhead() bool {
	key := p.trialKey()
	if ok, seen := p.tuples[key]; seen {
		return ok
	}

	ok := p.try(ignore(p.tuple))

	if p.tuples == nil {
		p.tuples = make(map[trialKey]bool)
	}

	p.tuples[key] = ok

	return ok
}

func (p *Parser) binary() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	op := p.peek(0)
	if !op.Kind.IsBinaryOp() {
		return left, nil
	}

	p.pos++

	right, err := p.binary()
	if err != nil {
		return nil, err
	}

	return leftify(&ast.Binary{Base: base(op), Left: left, Op: op.Kind, Right: right}), nil
}

func (p *Parser) unary() (ast.Expr, error) {
	t := p.peek(0)

	switch t.Kind {
	case token.Excl, token.Minus:
		p.pos++

		right, err := p.unary()
		if err != nil {
			return nil, err
		}

		return &ast.Unary{Base: base(t), Op: t.Kind, Right: right}, nil

	case token.Ident:
		switch t.Value {
		case "super":
			p.pos++

			if !p.try(ignore(func() ([]ast.Expr, error) { return p.callArgs(true) })) {
				return &ast.SuperValue{Base: base(t)}, nil
			}

			args, err := p.callArgs(true)
			if err != nil {
				return nil, err
			}

			return &ast.SuperCall{Base: base(t), Args: args}, nil

		case "len":
			p.pos++

			v, err := p.unary()
			if err != nil {
				return nil, err
			}

			return &ast.Len{Base: base(t), Value: v}, nil

		case "if":
			return p.ifExpr()
		case "try":
			return p.tryExpr()
		case "match":
			return p.matchExpr()
		case "for":
			return p.forExpr()
		}
	}

	return p.index(true)
}

func (p *Parser) ifExpr() (ast.Expr, error) {
	at := p.next()

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.Comma); err != nil {
		return nil, err
	}

	e := &ast.IfExpr{Base: base(at), Cond: cond}

	if e.Then, err = p.expression(); err != nil {
		return nil, err
	}

	if p.matchWord("else") {
		if e.Else, err = p.expression(); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (p *Parser) tryExpr() (ast.Expr, error) {
	at := p.next()

	body, err := p.expression()
	if err != nil {
		return nil, err
	}

	e := &ast.TryExpr{Base: base(at), Body: body}

	if p.matchWord("else") {
		if e.Else, err = p.expression(); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (p *Parser) matchExpr() (ast.Expr, error) {
	at := p.next()

	decl, arms, def, err := parseMatch(p, p.expression, token.Comma)
	if err != nil {
		return nil, err
	}

	e := &ast.MatchExpr{Base: base(at), Decl: decl, Default: def}
	for _, a := range arms {
		e.Cases = append(e.Cases, ast.ExprCase{Cond: a.cond, Value: a.value})
	}

	return e, nil
}

func (p *Parser) forExpr() (ast.Expr, error) {
	at, vars, iter, err := p.forHead()
	if err != nil {
		return nil, err
	}

	body, err := p.expression()
	if err != nil {
		return nil, err
	}

	return &ast.ForInExpr{Base: base(at), Vars: vars, Iter: iter, Body: body}, nil
}

// index parses a primary expression followed by postfix operations and an
// optional call shorthand. In statement position (isExpr false) the
// shorthand argument may be any expression.
func (p *Parser) index(isExpr bool) (ast.Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}

	var chain []ast.Expr

postfix:
	for {
		t := p.peek(0)

		switch t.Kind {
		case token.Dot:
			p.pos++

			name, err := p.ident()
			if err != nil {
				return nil, err
			}

			chain = append(chain, &ast.IndexObject{Base: base(t), Name: name.Value})

		case token.Pound:
			p.pos++

			key, err := p.primary()
			if err != nil {
				return nil, err
			}

			chain = append(chain, &ast.IndexKey{Base: base(t), Key: key})

		case token.Colon:
			p.pos++

			name, err := p.ident()
			if err != nil {
				return nil, err
			}

			args, err := p.callArgs(isExpr)
			if err != nil {
				return nil, err
			}

			chain = append(chain, &ast.SelfMethodCall{Base: base(t), Member: name.Value, Args: args})

		case token.OpenParen:
			p.pos++

			args, err := p.argList()
			if err != nil {
				return nil, err
			}

			chain = append(chain, &ast.MethodCall{Base: base(t), Args: args})

		case token.Excl:
			// "f!" calls f without arguments unless an operand follows, as
			// in "f !x".
			p.pos++

			if p.try(ignore(p.unary)) {
				p.back()

				break postfix
			}

			chain = append(chain, &ast.MethodCall{Base: base(t), Args: []ast.Expr{}})

		default:
			break postfix
		}
	}

	call, err := p.shorthand(isExpr)
	if err != nil {
		return nil, err
	}

	if call != nil {
		chain = append(chain, call)
	}

	return leftifyArray(left, chain), nil
}

// shorthand parses a single-argument call without parentheses, as in
// "print x". It returns nil if no argument follows. A leading '-' is
// always read as subtraction.
func (p *Parser) shorthand(isExpr bool) (*ast.MethodCall, error) {
	if p.isWord(keywords...) {
		return nil, nil
	}

	at := p.peek(0)

	var (
		arg ast.Expr
		ok  bool
		err error
	)

	if isExpr {
		if p.match(token.Minus) {
			return nil, nil
		}

		arg, ok, err = tryMatch(p, ignore(p.binary), p.unary)
		if !ok {
			arg, ok, err = tryMatch(p, ignore(p.expression), p.expression)
		}
	} else {
		arg, ok, err = tryMatch(p, ignore(p.expression), p.expression)
	}

	if err != nil || !ok {
		return nil, err
	}

	return &ast.MethodCall{Base: base(at), Args: []ast.Expr{arg}}, nil
}

// callArgs parses the arguments of a call: "(args)", "!" for no
// arguments, or a shorthand argument.
func (p *Parser) callArgs(isExpr bool) ([]ast.Expr, error) {
	switch p.peek(0).Kind {
	case token.OpenParen:
		p.pos++

		return p.argList()

	case token.Excl:
		p.pos++

		return []ast.Expr{}, nil
	}

	call, err := p.shorthand(isExpr)
	if err != nil {
		return nil, err
	}

	if call == nil {
		return nil, p.expected("a function call")
	}

	return call.Args, nil
}

// argList parses the arguments after '(' up to and including ')'.
func (p *Parser) argList() ([]ast.Expr, error) {
	if p.match(token.CloseParen) {
		p.pos++

		return []ast.Expr{}, nil
	}

	args, err := p.expressionList()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.CloseParen); err != nil {
		return nil, err
	}

	return args, nil
}

func (p *Parser) expressionList() ([]ast.Expr, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}

	list := []ast.Expr{e}

	for p.match(token.Comma) {
		p.pos++

		if e, err = p.expression(); err != nil {
			return nil, err
		}

		list = append(list, e)
	}

	return list, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	t := p.peek(0)

	switch t.Kind {
	case token.Zoom:
		p.pos++

		b := &ast.BlockExpr{Base: base(t)}

		_, err := p.within(false, func() error {
			s, err := p.statement()
			b.Stmts = []ast.Stmt{s}

			return err
		})
		if err != nil {
			return nil, err
		}

		return b, nil

	case token.At:
		p.pos++

		if !p.match(token.Ident) {
			return self(t), nil
		}

		name := p.next()
		call := func() ([]ast.Expr, error) { return p.callArgs(true) }

		args, ok, err := tryMatch(p, ignore(call), call)
		if err != nil {
			return nil, err
		}

		if ok {
			return &ast.SelfMethodCall{Base: base(t), Left: self(t), Member: name.Value, Args: args}, nil
		}

		return &ast.IndexObject{Base: base(t), Left: self(t), Name: name.Value}, nil

	case token.OpenCurly:
		return p.table(token.Comma, token.Semicolon)

	case token.OpenSquare:
		return p.array()

	case token.LShift:
		return p.group()

	case token.OpenParen:
		return p.parenthesized()

	case token.Number:
		p.pos++

		v, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, p.errorAt(t.Pos, "invalid number %s", t.Value)
		}

		return &ast.Number{Base: base(t), Value: v, Raw: t.Value}, nil

	case token.String:
		p.pos++

		return p.str(t)

	case token.Ident:
		switch t.Value {
		case "true", "false":
			p.pos++

			return &ast.Bool{Base: base(t), Value: t.Value == "true"}, nil

		case "nil":
			p.pos++

			return &ast.Nil{Base: base(t)}, nil

		case "else", "in":
			return nil, p.expected("a value or expression")
		}

		// "x => body" is a function of one parameter.
		fn, ok, err := tryMatch(p, func() error {
			if _, err := p.parameter(); err != nil {
				return err
			}

			return p.arrow()
		}, p.function)
		if ok {
			return fn, err
		}

		return p.variable()
	}

	return nil, p.expected("a value or expression")
}

func (p *Parser) variable() (ast.Expr, error) {
	t, err := p.ident()
	if err != nil {
		return nil, err
	}

	return &ast.Variable{Base: base(t), Name: t.Value}, nil
}

func (p *Parser) str(t token.Token) (ast.Expr, error) {
	if len(t.Fragments) == 0 {
		return &ast.String{Base: base(t), Value: t.Value}, nil
	}

	f := &ast.FString{Base: base(t), Format: t.Value}

	for _, frag := range t.Fragments {
		sub := New(frag, WithLogger(p.logger))
		sub.speculating = p.speculating

		e, err := sub.Expression()
		if err != nil {
			return nil, err
		}

		f.Values = append(f.Values, e)
	}

	return f, nil
}

// parenthesized parses what follows '(' in a primary position: a
// parameter list or a bracketed expression.
func (p *Parser) parenthesized() (ast.Expr, error) {
	open := p.next()

	if p.match(token.CloseParen) || (p.match(token.Ident) && p.peek(1).Kind == token.Comma) {
		p.back()

		return p.function()
	}

	// "(x: T," and "(x: T =" can only start a parameter list.
	typed := p.try(func() error {
		if _, err := p.ident(); err != nil {
			return err
		}

		if _, err := p.eat(token.Colon); err != nil {
			return err
		}

		if _, err := p.typeAnnotation(); err != nil {
			return err
		}

		return p.expect("',' or '='", token.Comma, token.Equals)
	})

	if typed || p.try(func() error {
		if _, err := p.parameterList(); err != nil {
			return err
		}

		if _, err := p.eat(token.CloseParen); err != nil {
			return err
		}

		return p.arrow()
	}) {
		p.back()

		return p.function()
	}

	inner, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.CloseParen); err != nil {
		return nil, err
	}

	return &ast.Brackets{Base: base(open), Inner: inner}, nil
}

func (p *Parser) array() (ast.Expr, error) {
	open := p.next()
	a := &ast.Array{Base: base(open), Elements: []ast.Expr{}}

	if p.match(token.CloseSquare) {
		p.pos++

		return a, nil
	}

	var err error
	if a.Elements, err = p.expressionList(); err != nil {
		return nil, err
	}

	if _, err := p.eat(token.CloseSquare); err != nil {
		return nil, err
	}

	return a, nil
}

func (p *Parser) group() (ast.Expr, error) {
	open := p.next()
	g := &ast.Group{Base: base(open), Elements: []ast.Expr{}}

	if p.match(token.Zoom) {
		p.pos++

		return g, nil
	}

	var err error
	if g.Elements, err = p.expressionList(); err != nil {
		return nil, err
	}

	if _, err := p.eat(token.Zoom); err != nil {
		return nil, err
	}

	return g, nil
}

// table parses "{ key: value sep ... }". A trailing separator is allowed.
func (p *Parser) table(separators ...token.Kind) (*ast.Table, error) {
	open, err := p.eat(token.OpenCurly)
	if err != nil {
		return nil, err
	}

	tbl := &ast.Table{Base: base(open), Entries: []ast.Entry{}}

	if p.match(token.Ident) {
		for {
			key, err := p.ident()
			if err != nil {
				return nil, err
			}

			if _, err := p.eat(token.Colon); err != nil {
				return nil, err
			}

			value, err := p.expression()
			if err != nil {
				return nil, err
			}

			tbl.Entries = append(tbl.Entries, ast.Entry{At: key.Pos, Key: key.Value, Value: value})

			if !p.match(separators...) {
				break
			}

			p.pos++

			if p.match(token.CloseCurly) {
				break
			}
		}
	}

	if _, err := p.eat(token.CloseCurly); err != nil {
		return nil, err
	}

	return tbl, nil
}

func (p *Parser) typeAnnotation() (*ast.TypeAnnotation, error) {
	t, err := p.ident()
	if err != nil {
		return nil, err
	}

	a := &ast.TypeAnnotation{Allowed: []string{t.Value}}

	for p.match(token.Union) {
		p.pos++

		if t, err = p.ident(); err != nil {
			return nil, err
		}

		a.Allowed = append(a.Allowed, t.Value)
	}

	if p.match(token.Question) {
		p.pos++
		a.Optional = true
	}

	return a, nil
}

func (p *Parser) parameter() (ast.Param, error) {
	t, err := p.ident()
	if err != nil {
		return ast.Param{}, err
	}

	prm := ast.Param{At: t.Pos, Name: t.Value}

	if p.match(token.Ellipsis) {
		p.pos++
		prm.Variadic = true

		return prm, nil
	}

	if p.match(token.Colon) {
		p.pos++

		if prm.Type, err = p.typeAnnotation(); err != nil {
			return prm, err
		}
	}

	if p.match(token.Equals) {
		p.pos++

		if prm.Default, err = p.expression(); err != nil {
			return prm, err
		}
	}

	return prm, nil
}

func (p *Parser) parameterList() ([]ast.Param, error) {
	prm, err := p.parameter()
	if err != nil {
		return nil, err
	}

	params := []ast.Param{prm}

	for p.match(token.Comma) {
		p.pos++

		if prm, err = p.parameter(); err != nil {
			return nil, err
		}

		params = append(params, prm)
	}

	return params, nil
}

// function parses "(params) arrow body" or "param arrow body".
func (p *Parser) function() (ast.Expr, error) {
	at := p.peek(0)
	fn := &ast.Function{Base: base(at), Params: []ast.Param{}}

	var err error

	if p.match(token.OpenParen) {
		p.pos++

		if !p.match(token.CloseParen) {
			if fn.Params, err = p.parameterList(); err != nil {
				return nil, err
			}
		}

		if _, err := p.eat(token.CloseParen); err != nil {
			return nil, err
		}
	} else {
		prm, err := p.parameter()
		if err != nil {
			return nil, err
		}

		fn.Params = []ast.Param{prm}
	}

	for _, prm := range fn.Params[:max(len(fn.Params)-1, 0)] {
		if prm.Variadic {
			return nil, p.errorAt(prm.At, "only the last parameter of a function may be variadic")
		}
	}

	fn.Variadic = len(fn.Params) > 0 && fn.Params[len(fn.Params)-1].Variadic

	switch p.peek(0).Kind {
	case token.Arrow:
		p.pos++

	case token.SelfArrow:
		p.pos++
		fn.TakesSelf = true

	case token.OpenSquare:
		p.pos++
		fn.TakesSelf = true

		if fn.SelfType, err = p.expression(); err != nil {
			return nil, err
		}

		if _, err := p.eat(token.CloseSquare); err != nil {
			return nil, err
		}

		if _, err := p.eat(token.SelfArrow); err != nil {
			return nil, err
		}

	default:
		return nil, p.expected(arrowDescription)
	}

	_, err = p.within(false, func() error {
		var err error

		fn.Body, err = p.expression()

		return err
	})
	if err != nil {
		return nil, err
	}

	return fn, nil
}
