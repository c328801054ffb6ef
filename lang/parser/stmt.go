package parser

import (
	"github.com/ardnew/jammy/lang/ast"
	"github.com/ardnew/jammy/lang/token"
)

func (p *Parser) statement() (ast.Stmt, error) {
	t := p.peek(0)

	switch t.Kind {
	case token.OpenCurly:
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}

		return &ast.BlockStmt{Base: base(t), Stmts: stmts}, nil

	case token.Arrow:
		p.pos++

		v, err := p.expression()
		if err != nil {
			return nil, err
		}

		return p.returnStmt(t, v), nil

	case token.At:
		call, ok, err := tryMatch(p, func() error {
			p.pos++
			if _, err := p.ident(); err != nil {
				return err
			}

			_, err := p.callArgs(false)

			return err
		}, func() (ast.Stmt, error) {
			at := p.next()
			name := p.next()
			args, err := p.callArgs(false)

			return &ast.SelfMethodCall{
				Base:   base(at),
				Left:   self(at),
				Member: name.Value,
				Args:   args,
			}, err
		})
		if ok {
			return call, err
		}

		return p.identifierStatement()

	case token.Ident:
		switch t.Value {
		case "export":
			return p.export()
		case "prototype":
			return p.prototype()
		case "super":
			p.pos++

			args, err := p.callArgs(false)
			if err != nil {
				return nil, err
			}

			return &ast.SuperCall{Base: base(t), Args: args}, nil
		case "let":
			return p.varDec(false)
		case "if":
			return p.ifStmt()
		case "try":
			return p.tryStmt()
		case "for":
			return p.forStmt()
		case "while":
			return p.whileStmt()
		case "use":
			return p.use()
		case "break", "continue":
			return p.jump()
		case "match":
			return p.matchStmt()
		}

		return p.identifierStatement()
	}

	return p.callStatement()
}

func self(at token.Token) *ast.Variable {
	return &ast.Variable{Base: base(at), Name: "self"}
}

// returnStmt marks the enclosing try statements of the current function as
// returning through their protected call.
func (p *Parser) returnStmt(at token.Token, v ast.Expr) *ast.ReturnStmt {
	r := &ast.ReturnStmt{Base: base(at), Value: v}

	for i := len(p.rets) - 1; i >= 0 && p.rets[i].virtual; i-- {
		p.rets[i].used = true
		r.Virtual = true
	}

	return r
}

func (p *Parser) jump() (ast.Stmt, error) {
	t := p.next()

	n := len(p.loops)
	if n == 0 || p.loops[n-1].barrier {
		return nil, p.errorAt(t.Pos, "'%s' outside of a loop", t.Value)
	}

	if t.Value == "break" {
		p.loops[n-1].UsesBreak = true

		return &ast.BreakStmt{Base: base(t)}, nil
	}

	p.loops[n-1].UsesContinue = true

	return &ast.ContinueStmt{Base: base(t)}, nil
}

// identifierStatement parses a call or an assignment.
func (p *Parser) identifierStatement() (ast.Stmt, error) {
	at := p.peek(0)

	head, err := p.index(false)
	if err != nil {
		return nil, err
	}

	if ast.IsCall(head) {
		return head.(ast.Stmt), nil
	}

	if !p.match(token.Comma, token.Equals) {
		return nil, p.expected(token.Equals.Describe())
	}

	if !ast.IsAssignable(head) {
		return nil, p.errorAt(at.Pos,
			"the left-hand side of an assignment must end in a field, variable, or index")
	}

	targets := []ast.Expr{head}

	for p.match(token.Comma) {
		p.pos++

		target, err := p.assignable()
		if err != nil {
			return nil, err
		}

		targets = append(targets, target)
	}

	eq, err := p.eat(token.Equals)
	if err != nil {
		return nil, err
	}

	values, err := p.expressionList()
	if err != nil {
		return nil, err
	}

	return &ast.VarAssign{Base: base(eq), Targets: targets, Values: values}, nil
}

func (p *Parser) assignable() (ast.Expr, error) {
	at := p.peek(0)

	e, err := p.index(false)
	if err != nil {
		return nil, err
	}

	if !ast.IsAssignable(e) {
		return nil, p.errorAt(at.Pos,
			"the left-hand side of an assignment must end in a field, variable, or index")
	}

	return e, nil
}

func (p *Parser) callStatement() (ast.Stmt, error) {
	at := p.peek(0)

	e, err := p.index(false)
	if err != nil {
		return nil, err
	}

	if !ast.IsCall(e) {
		return nil, p.errorAt(at.Pos, "expected a function call but got %s", at.Describe())
	}

	return e.(ast.Stmt), nil
}

func (p *Parser) export() (ast.Stmt, error) {
	at := p.next()

	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	as := name
	if p.matchWord("as") {
		if as, err = p.ident(); err != nil {
			return nil, err
		}
	}

	return &ast.Export{Base: base(at), Name: name.Value, As: as.Value}, nil
}

func (p *Parser) prototype() (ast.Stmt, error) {
	at := p.next()

	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	c := &ast.Class{Base: base(at), Name: name.Value}

	if p.matchWord("from") {
		parent, err := p.ident()
		if err != nil {
			return nil, err
		}

		c.Extends = parent.Value
	}

	if c.Table, err = p.table(token.Semicolon); err != nil {
		return nil, err
	}

	return c, nil
}

func (p *Parser) identifierList() ([]string, error) {
	t, err := p.ident()
	if err != nil {
		return nil, err
	}

	names := []string{t.Value}

	for p.match(token.Comma) {
		p.pos++

		if t, err = p.ident(); err != nil {
			return nil, err
		}

		names = append(names, t.Value)
	}

	return names, nil
}

func (p *Parser) varDec(valueRequired bool) (*ast.VarDec, error) {
	at := p.peek(0)
	if err := p.eatWord("let"); err != nil {
		return nil, err
	}

	names, err := p.identifierList()
	if err != nil {
		return nil, err
	}

	d := &ast.VarDec{Base: base(at), Names: names}

	if valueRequired || p.match(token.Equals) {
		if _, err := p.eat(token.Equals); err != nil {
			return nil, err
		}

		if d.Values, err = p.expressionList(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	at := p.next()

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.Comma); err != nil {
		return nil, err
	}

	s := &ast.IfStmt{Base: base(at), Cond: cond}

	if s.Then, err = p.statement(); err != nil {
		return nil, err
	}

	if p.matchWord("else") {
		if s.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (p *Parser) tryStmt() (ast.Stmt, error) {
	at := p.next()

	n := len(p.rets)
	s := &ast.TryStmt{Base: base(at), Nested: n > 0 && p.rets[n-1].virtual}

	frame, err := p.within(true, func() error {
		var err error

		s.Body, err = p.statement()

		return err
	})
	if err != nil {
		return nil, err
	}

	s.UsesReturn = frame.used

	if p.matchWord("else") {
		if s.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	at := p.next()

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.Comma); err != nil {
		return nil, err
	}

	s := &ast.WhileStmt{Base: base(at), Cond: cond}

	s.Loop, err = p.loop(func() error {
		var err error

		s.Body, err = p.statement()

		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// forHead parses "for [vars] in iter," which both loop forms share.
func (p *Parser) forHead() (token.Token, []string, ast.Expr, error) {
	at := p.next()

	vars := []string{"_"}

	if p.match(token.Ident) && !p.isWord("in") {
		var err error
		if vars, err = p.identifierList(); err != nil {
			return at, nil, nil, err
		}
	}

	if err := p.eatWord("in"); err != nil {
		return at, nil, nil, err
	}

	iter, err := p.expression()
	if err != nil {
		return at, nil, nil, err
	}

	if _, err := p.eat(token.Comma); err != nil {
		return at, nil, nil, err
	}

	return at, vars, iter, nil
}

func (p *Parser) forStmt() (ast.Stmt, error) {
	at, vars, iter, err := p.forHead()
	if err != nil {
		return nil, err
	}

	s := &ast.ForInStmt{Base: base(at), Vars: vars, Iter: iter}

	s.Loop, err = p.loop(func() error {
		var err error

		s.Body, err = p.statement()

		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (p *Parser) use() (ast.Stmt, error) {
	at := p.next()

	path, err := p.eat(token.String)
	if err != nil {
		return nil, err
	}

	if len(path.Fragments) > 0 {
		return nil, p.errorAt(path.Pos,
			"file paths in use statements cannot contain string interpolations")
	}

	return &ast.Use{Base: base(at), Path: path.Value}, nil
}

func (p *Parser) matchStmt() (ast.Stmt, error) {
	at := p.next()

	decl, arms, def, err := parseMatch(p, p.statement, token.Semicolon)
	if err != nil {
		return nil, err
	}

	s := &ast.MatchStmt{Base: base(at), Decl: decl, Default: def}
	for _, a := range arms {
		s.Cases = append(s.Cases, ast.StmtCase{Cond: a.cond, Body: a.value})
	}

	return s, nil
}

type matchArm[T ast.Node] struct {
	cond  ast.Expr
	value T
}

// parseMatch parses "[(let ...)] { cond => body sep ... else body }". A bare
// name or parenthesized name before "=>" is a condition, not a lambda
// parameter.
func parseMatch[T ast.Node](p *Parser, body func() (T, error), sep token.Kind) (*ast.VarDec, []matchArm[T], T, error) {
	var (
		decl *ast.VarDec
		arms []matchArm[T]
		def  T
		err  error
	)

	if p.match(token.OpenParen) {
		p.pos++

		if decl, err = p.varDec(true); err != nil {
			return nil, nil, def, err
		}

		if _, err := p.eat(token.CloseParen); err != nil {
			return nil, nil, def, err
		}
	}

	if _, err := p.eat(token.OpenCurly); err != nil {
		return nil, nil, def, err
	}

	armEnd := func() error {
		if _, err := p.eat(token.Arrow); err != nil {
			return err
		}

		if _, err := body(); err != nil {
			return err
		}

		return p.expect(sep.Describe()+" or '}'", sep, token.CloseCurly)
	}

	for !p.match(token.CloseCurly) {
		cond, ok, err := tryMatch(p, func() error {
			if _, err := p.ident(); err != nil {
				return err
			}

			return armEnd()
		}, p.variable)

		if !ok {
			cond, ok, err = tryMatch(p, func() error {
				if _, err := p.eat(token.OpenParen); err != nil {
					return err
				}

				if _, err := p.ident(); err != nil {
					return err
				}

				if _, err := p.eat(token.CloseParen); err != nil {
					return err
				}

				return armEnd()
			}, func() (ast.Expr, error) {
				p.pos++
				v, _ := p.variable()
				_, err := p.eat(token.CloseParen)

				return v, err
			})
		}

		if err != nil {
			return nil, nil, def, err
		}

		if !ok {
			if cond, err = p.expression(); err != nil {
				return nil, nil, def, err
			}
		}

		if _, err := p.eat(token.Arrow); err != nil {
			return nil, nil, def, err
		}

		value, err := body()
		if err != nil {
			return nil, nil, def, err
		}

		arms = append(arms, matchArm[T]{cond: cond, value: value})

		if !p.match(sep) {
			break
		}

		p.pos++

		if p.isWord("else") {
			break
		}
	}

	if p.matchWord("else") {
		if def, err = body(); err != nil {
			return nil, nil, def, err
		}
	}

	if p.match(sep) {
		p.pos++
	}

	if _, err := p.eat(token.CloseCurly); err != nil {
		return nil, nil, def, err
	}

	return decl, arms, def, nil
}
