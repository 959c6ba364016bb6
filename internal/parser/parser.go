package parser

import (
    "fmt"
    "strconv"

    "github.com/tinyrange/cinterp/internal/ast"
    "github.com/tinyrange/cinterp/internal/lexer"
    "github.com/tinyrange/cinterp/internal/types"
)

type Parser struct {
    lx  *lexer.Lexer
    tok lexer.Token
}

func ParseFile(filename, src string) (*ast.File, error) {
    p := &Parser{lx: lexer.New(src)}
    p.next()
    f := &ast.File{}
    for p.tok.Type != lexer.EOF {
        ds, err := p.parseDecl()
        if err != nil { return nil, err }
        f.Decls = append(f.Decls, ds...)
    }
    return f, nil
}

func (p *Parser) next() { p.tok = p.lx.Next() }

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
    if p.tok.Type != tt {
        return lexer.Token{}, fmt.Errorf("expected %v, got %v at %d:%d", tt, p.tok.Type, p.tok.Line, p.tok.Col)
    }
    t := p.tok
    p.next()
    return t, nil
}

func (p *Parser) errorf(format string, args ...any) error {
    args = append(args, p.tok.Line, p.tok.Col)
    return fmt.Errorf(format+" at %d:%d", args...)
}

// parseDecl handles one external declaration: a function definition, an
// extern prototype, or a (possibly comma-separated) list of variables.
func (p *Parser) parseDecl() ([]ast.Decl, error) {
    if p.tok.Type == lexer.KW_EXTERN { p.next() }
    base, err := p.parseBaseType()
    if err != nil { return nil, err }
    typ, name, err := p.parseDeclarator(base)
    if err != nil { return nil, err }
    if name == "" {
        return nil, p.errorf("expected identifier")
    }
    if p.tok.Type == lexer.LPAREN {
        fd, err := p.parseFuncRest(typ, name)
        if err != nil { return nil, err }
        return []ast.Decl{fd}, nil
    }
    var decls []ast.Decl
    d, err := p.finishVarDecl(typ, name)
    if err != nil { return nil, err }
    decls = append(decls, d)
    for p.tok.Type == lexer.COMMA {
        p.next()
        typ, name, err = p.parseDeclarator(base)
        if err != nil { return nil, err }
        if name == "" { return nil, p.errorf("expected identifier") }
        d, err = p.finishVarDecl(typ, name)
        if err != nil { return nil, err }
        decls = append(decls, d)
    }
    if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
    return decls, nil
}

func (p *Parser) parseBaseType() (types.Type, error) {
    switch p.tok.Type {
    case lexer.KW_INT:
        p.next()
        return types.IntT(), nil
    case lexer.KW_VOID:
        p.next()
        return types.VoidT(), nil
    default:
        return types.Type{}, p.errorf("expected type name, got %v", p.tok.Type)
    }
}

// parseDeclarator reads leading '*'s and an optional identifier.
func (p *Parser) parseDeclarator(base types.Type) (types.Type, string, error) {
    t := base
    for p.tok.Type == lexer.STAR {
        t = types.PointerTo(t)
        p.next()
    }
    name := ""
    if p.tok.Type == lexer.IDENT {
        name = p.tok.Lex
        p.next()
    }
    return t, name, nil
}

// finishVarDecl reads the optional array suffix and initialiser.
func (p *Parser) finishVarDecl(typ types.Type, name string) (*ast.VarDecl, error) {
    if p.tok.Type == lexer.LBRACK {
        p.next()
        szTok, err := p.expect(lexer.INT)
        if err != nil { return nil, err }
        n, err := strconv.Atoi(szTok.Lex)
        if err != nil { return nil, fmt.Errorf("bad array size %q at %d:%d", szTok.Lex, szTok.Line, szTok.Col) }
        if _, err := p.expect(lexer.RBRACK); err != nil { return nil, err }
        typ = types.ArrayOf(typ, n)
    }
    d := &ast.VarDecl{Name: name, Typ: typ}
    if p.tok.Type == lexer.ASSIGN {
        p.next()
        init, err := p.parseExpr()
        if err != nil { return nil, err }
        d.Init = init
    }
    return d, nil
}

func (p *Parser) parseFuncRest(ret types.Type, name string) (*ast.FuncDecl, error) {
    if _, err := p.expect(lexer.LPAREN); err != nil { return nil, err }
    params, err := p.parseParams()
    if err != nil { return nil, err }
    if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
    fd := &ast.FuncDecl{Name: name, Params: params, Ret: ret}
    if p.tok.Type == lexer.SEMI {
        // prototype, no body
        p.next()
        return fd, nil
    }
    body, err := p.parseBlock()
    if err != nil { return nil, err }
    fd.Body = body
    return fd, nil
}

func (p *Parser) parseParams() ([]*ast.VarDecl, error) {
    var params []*ast.VarDecl
    if p.tok.Type == lexer.RPAREN {
        return params, nil
    }
    for {
        base, err := p.parseBaseType()
        if err != nil { return nil, err }
        // f(void) declares no parameters
        if base.IsVoid() && len(params) == 0 && p.tok.Type == lexer.RPAREN {
            return nil, nil
        }
        typ, name, err := p.parseDeclarator(base)
        if err != nil { return nil, err }
        params = append(params, &ast.VarDecl{Name: name, Typ: typ})
        if p.tok.Type == lexer.COMMA { p.next(); continue }
        break
    }
    return params, nil
}

func (p *Parser) parseBlock() (*ast.CompoundStmt, error) {
    if _, err := p.expect(lexer.LBRACE); err != nil { return nil, err }
    var stmts []ast.Stmt
    for p.tok.Type != lexer.RBRACE && p.tok.Type != lexer.EOF {
        s, err := p.parseStmt()
        if err != nil { return nil, err }
        stmts = append(stmts, s)
    }
    if _, err := p.expect(lexer.RBRACE); err != nil { return nil, err }
    return &ast.CompoundStmt{List: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
    switch p.tok.Type {
    case lexer.KW_RETURN:
        p.next()
        s := &ast.ReturnStmt{}
        if p.tok.Type != lexer.SEMI {
            e, err := p.parseExpr()
            if err != nil { return nil, err }
            s.Result = e
        }
        if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
        return s, nil
    case lexer.KW_INT, lexer.KW_VOID:
        return p.parseDeclStmt()
    case lexer.LBRACE:
        return p.parseBlock()
    case lexer.KW_IF:
        p.next()
        if _, err := p.expect(lexer.LPAREN); err != nil { return nil, err }
        cond, err := p.parseExpr()
        if err != nil { return nil, err }
        if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
        then, err := p.parseStmt()
        if err != nil { return nil, err }
        s := &ast.IfStmt{Cond: cond, Then: then}
        if p.tok.Type == lexer.KW_ELSE {
            p.next()
            s.Else, err = p.parseStmt()
            if err != nil { return nil, err }
        }
        return s, nil
    case lexer.KW_WHILE:
        p.next()
        if _, err := p.expect(lexer.LPAREN); err != nil { return nil, err }
        cond, err := p.parseExpr()
        if err != nil { return nil, err }
        if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
        body, err := p.parseStmt()
        if err != nil { return nil, err }
        return &ast.WhileStmt{Cond: cond, Body: body}, nil
    case lexer.KW_FOR:
        return p.parseFor()
    case lexer.SEMI:
        p.next()
        return &ast.CompoundStmt{}, nil
    default:
        e, err := p.parseExpr()
        if err != nil { return nil, err }
        if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
        return &ast.ExprStmt{X: e}, nil
    }
}

func (p *Parser) parseDeclStmt() (ast.Stmt, error) {
    base, err := p.parseBaseType()
    if err != nil { return nil, err }
    s := &ast.DeclStmt{}
    for {
        typ, name, err := p.parseDeclarator(base)
        if err != nil { return nil, err }
        if name == "" { return nil, p.errorf("expected identifier") }
        d, err := p.finishVarDecl(typ, name)
        if err != nil { return nil, err }
        s.Decls = append(s.Decls, d)
        if p.tok.Type == lexer.COMMA { p.next(); continue }
        break
    }
    if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
    return s, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
    p.next()
    if _, err := p.expect(lexer.LPAREN); err != nil { return nil, err }
    s := &ast.ForStmt{}
    var err error
    if p.tok.Type != lexer.SEMI {
        s.Init, err = p.parseExpr()
        if err != nil { return nil, err }
    }
    if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
    if p.tok.Type != lexer.SEMI {
        s.Cond, err = p.parseExpr()
        if err != nil { return nil, err }
    }
    if _, err := p.expect(lexer.SEMI); err != nil { return nil, err }
    if p.tok.Type != lexer.RPAREN {
        s.Post, err = p.parseExpr()
        if err != nil { return nil, err }
    }
    if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
    s.Body, err = p.parseStmt()
    if err != nil { return nil, err }
    return s, nil
}

// Expr grammar, lowest to highest precedence:
// assign = equality [ '=' assign ]
// equality = relational { (==|!=) relational }
// relational = additive { (<|<=|>|>=) additive }
// additive = multiplicative { (+|-) multiplicative }
// multiplicative = unary { (*|/|%) unary }
// unary = (-|*) unary | postfix
// postfix = primary { '(' args ')' | '[' expr ']' }
// primary = IDENT | INT | '(' expr ')' | sizeof '(' operand ')'
func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (ast.Expr, error) {
    left, err := p.parseEquality()
    if err != nil { return nil, err }
    if p.tok.Type == lexer.ASSIGN {
        p.next()
        right, err := p.parseAssign()
        if err != nil { return nil, err }
        return &ast.BinaryExpr{Op: ast.Assign, X: left, Y: right}, nil
    }
    return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
    left, err := p.parseRelational()
    if err != nil { return nil, err }
    for p.tok.Type == lexer.EQEQ || p.tok.Type == lexer.NEQ {
        op := ast.Eq
        if p.tok.Type == lexer.NEQ { op = ast.Ne }
        p.next()
        right, err := p.parseRelational()
        if err != nil { return nil, err }
        left = &ast.BinaryExpr{Op: op, X: left, Y: right}
    }
    return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
    left, err := p.parseAdditive()
    if err != nil { return nil, err }
    for {
        var op ast.BinOp
        switch p.tok.Type {
        case lexer.LT: op = ast.Lt
        case lexer.LE: op = ast.Le
        case lexer.GT: op = ast.Gt
        case lexer.GE: op = ast.Ge
        default:
            return left, nil
        }
        p.next()
        right, err := p.parseAdditive()
        if err != nil { return nil, err }
        left = &ast.BinaryExpr{Op: op, X: left, Y: right}
    }
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
    left, err := p.parseMultiplicative()
    if err != nil { return nil, err }
    for p.tok.Type == lexer.PLUS || p.tok.Type == lexer.MINUS {
        op := ast.Add
        if p.tok.Type == lexer.MINUS { op = ast.Sub }
        p.next()
        right, err := p.parseMultiplicative()
        if err != nil { return nil, err }
        left = &ast.BinaryExpr{Op: op, X: left, Y: right}
    }
    return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
    left, err := p.parseUnary()
    if err != nil { return nil, err }
    for {
        var op ast.BinOp
        switch p.tok.Type {
        case lexer.STAR: op = ast.Mul
        case lexer.SLASH: op = ast.Div
        case lexer.PERCENT: op = ast.Rem
        default:
            return left, nil
        }
        p.next()
        right, err := p.parseUnary()
        if err != nil { return nil, err }
        left = &ast.BinaryExpr{Op: op, X: left, Y: right}
    }
}

func (p *Parser) parseUnary() (ast.Expr, error) {
    switch p.tok.Type {
    case lexer.MINUS:
        p.next()
        x, err := p.parseUnary()
        if err != nil { return nil, err }
        // fold negated literals so constants like -3 stay literals
        if lit, ok := x.(*ast.IntLit); ok {
            lit.Value = -lit.Value
            return lit, nil
        }
        return &ast.UnaryExpr{Op: ast.Neg, X: x}, nil
    case lexer.STAR:
        p.next()
        x, err := p.parseUnary()
        if err != nil { return nil, err }
        return &ast.UnaryExpr{Op: ast.Deref, X: x}, nil
    default:
        return p.parsePostfix()
    }
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
    x, err := p.parsePrimary()
    if err != nil { return nil, err }
    for {
        switch p.tok.Type {
        case lexer.LPAREN:
            ref, ok := x.(*ast.DeclRef)
            if !ok {
                return nil, p.errorf("called object is not a function name")
            }
            p.next()
            var args []ast.Expr
            if p.tok.Type != lexer.RPAREN {
                for {
                    a, err := p.parseExpr()
                    if err != nil { return nil, err }
                    args = append(args, a)
                    if p.tok.Type == lexer.COMMA { p.next(); continue }
                    break
                }
            }
            if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
            x = &ast.CallExpr{Fun: ref, Args: args}
        case lexer.LBRACK:
            p.next()
            idx, err := p.parseExpr()
            if err != nil { return nil, err }
            if _, err := p.expect(lexer.RBRACK); err != nil { return nil, err }
            x = &ast.IndexExpr{X: x, Index: idx}
        default:
            return x, nil
        }
    }
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
    switch p.tok.Type {
    case lexer.IDENT:
        ref := &ast.DeclRef{Name: p.tok.Lex}
        p.next()
        return ref, nil
    case lexer.INT:
        v, err := strconv.ParseInt(p.tok.Lex, 10, 64)
        if err != nil { return nil, p.errorf("bad integer literal %q", p.tok.Lex) }
        lit := &ast.IntLit{Value: v}
        p.next()
        return lit, nil
    case lexer.LPAREN:
        p.next()
        e, err := p.parseExpr()
        if err != nil { return nil, err }
        if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
        return &ast.ParenExpr{X: e}, nil
    case lexer.KW_SIZEOF:
        return p.parseSizeof()
    default:
        return nil, p.errorf("unexpected token %v", p.tok.Type)
    }
}

func (p *Parser) parseSizeof() (ast.Expr, error) {
    p.next()
    if _, err := p.expect(lexer.LPAREN); err != nil { return nil, err }
    s := &ast.SizeofExpr{}
    if p.tok.Type == lexer.KW_INT || p.tok.Type == lexer.KW_VOID {
        base, err := p.parseBaseType()
        if err != nil { return nil, err }
        t := base
        for p.tok.Type == lexer.STAR {
            t = types.PointerTo(t)
            p.next()
        }
        s.Arg = t
    } else {
        x, err := p.parseExpr()
        if err != nil { return nil, err }
        s.X = x
    }
    if _, err := p.expect(lexer.RPAREN); err != nil { return nil, err }
    return s, nil
}
