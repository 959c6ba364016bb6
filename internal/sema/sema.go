package sema

import (
    "fmt"

    "github.com/tinyrange/cinterp/internal/ast"
    "github.com/tinyrange/cinterp/internal/types"
)

// Check resolves every identifier, assigns every expression its type, and
// inserts the implicit value adjustments (lvalue-to-rvalue loads, array
// decay) the evaluator's cast handling relies on. The tree is rewritten in
// place; Check must run before evaluation.
func Check(f *ast.File) error {
    c := &checker{globals: newScope(nil)}
    // declare everything first so functions can refer to themselves and to
    // later definitions
    for _, d := range f.Decls {
        switch d := d.(type) {
        case *ast.FuncDecl:
            c.globals.define(d.Name, d)
        case *ast.VarDecl:
            if err := c.globalVar(d); err != nil { return err }
            c.globals.define(d.Name, d)
        }
    }
    for _, d := range f.Decls {
        fd, ok := d.(*ast.FuncDecl)
        if !ok || fd.Body == nil { continue }
        if err := c.function(fd); err != nil { return err }
    }
    return nil
}

type scope struct {
    parent *scope
    names  map[string]ast.Decl
}

func newScope(parent *scope) *scope {
    return &scope{parent: parent, names: map[string]ast.Decl{}}
}

func (s *scope) define(name string, d ast.Decl) { s.names[name] = d }

func (s *scope) lookup(name string) ast.Decl {
    for sc := s; sc != nil; sc = sc.parent {
        if d, ok := sc.names[name]; ok { return d }
    }
    return nil
}

type checker struct {
    globals *scope
    scope   *scope
    fn      *ast.FuncDecl
}

func (c *checker) globalVar(d *ast.VarDecl) error {
    if d.Typ.IsVoid() {
        return fmt.Errorf("variable %s declared void", d.Name)
    }
    return c.checkInit(d)
}

// checkInit enforces the dialect's literal-only initialisers.
func (c *checker) checkInit(d *ast.VarDecl) error {
    if d.Init == nil { return nil }
    if d.Typ.IsArray() {
        return fmt.Errorf("array %s cannot have an initialiser", d.Name)
    }
    lit, ok := d.Init.(*ast.IntLit)
    if !ok {
        return fmt.Errorf("initialiser of %s is not an integer literal", d.Name)
    }
    lit.Typ = types.IntT()
    return nil
}

func (c *checker) function(fd *ast.FuncDecl) error {
    c.fn = fd
    c.scope = newScope(c.globals)
    for _, p := range fd.Params {
        if !p.Typ.IsInteger() && !p.Typ.IsPointer() {
            return fmt.Errorf("%s: parameter %s has unsupported type %s", fd.Name, p.Name, p.Typ)
        }
        if p.Name != "" { c.scope.define(p.Name, p) }
    }
    err := c.stmt(fd.Body)
    c.scope = nil
    c.fn = nil
    return err
}

func (c *checker) stmt(s ast.Stmt) error {
    switch s := s.(type) {
    case *ast.CompoundStmt:
        outer := c.scope
        c.scope = newScope(outer)
        for _, sub := range s.List {
            if err := c.stmt(sub); err != nil { return err }
        }
        c.scope = outer
        return nil
    case *ast.DeclStmt:
        for _, d := range s.Decls {
            if d.Typ.IsVoid() {
                return fmt.Errorf("variable %s declared void", d.Name)
            }
            if err := c.checkInit(d); err != nil { return err }
            c.scope.define(d.Name, d)
        }
        return nil
    case *ast.ExprStmt:
        if s.X == nil { return nil }
        x, err := c.expr(s.X)
        if err != nil { return err }
        s.X = x
        return nil
    case *ast.IfStmt:
        cond, err := c.cond(s.Cond)
        if err != nil { return err }
        s.Cond = cond
        if err := c.stmt(s.Then); err != nil { return err }
        if s.Else != nil {
            return c.stmt(s.Else)
        }
        return nil
    case *ast.WhileStmt:
        cond, err := c.cond(s.Cond)
        if err != nil { return err }
        s.Cond = cond
        return c.stmt(s.Body)
    case *ast.ForStmt:
        var err error
        if s.Init != nil {
            if s.Init, err = c.expr(s.Init); err != nil { return err }
        }
        // a missing condition is the evaluator's problem, not ours
        if s.Cond != nil {
            if s.Cond, err = c.cond(s.Cond); err != nil { return err }
        }
        if s.Post != nil {
            if s.Post, err = c.expr(s.Post); err != nil { return err }
        }
        return c.stmt(s.Body)
    case *ast.ReturnStmt:
        if s.Result == nil { return nil }
        if c.fn.Ret.IsVoid() {
            return fmt.Errorf("%s: void function returns a value", c.fn.Name)
        }
        x, err := c.expr(s.Result)
        if err != nil { return err }
        s.Result = x
        return nil
    default:
        return fmt.Errorf("unknown statement %T", s)
    }
}

func (c *checker) cond(e ast.Expr) (ast.Expr, error) {
    x, err := c.expr(e)
    if err != nil { return nil, err }
    if !x.Type().IsInteger() {
        return nil, fmt.Errorf("condition has type %s, want int", x.Type())
    }
    return x, nil
}

// expr resolves and types e as an r-value: variable reads and dereferences
// get an lvalue-to-rvalue cast, arrays decay to pointers.
func (c *checker) expr(e ast.Expr) (ast.Expr, error) {
    switch e := e.(type) {
    case *ast.IntLit:
        e.Typ = types.IntT()
        return e, nil
    case *ast.DeclRef:
        if err := c.resolve(e); err != nil { return nil, err }
        if e.Typ.IsFunc() {
            return nil, fmt.Errorf("function %s used as a value", e.Name)
        }
        return c.rvalue(e), nil
    case *ast.ParenExpr:
        x, err := c.expr(e.X)
        if err != nil { return nil, err }
        e.X = x
        e.Typ = x.Type()
        return e, nil
    case *ast.UnaryExpr:
        switch e.Op {
        case ast.Neg:
            x, err := c.expr(e.X)
            if err != nil { return nil, err }
            if !x.Type().IsInteger() {
                return nil, fmt.Errorf("cannot negate %s", x.Type())
            }
            e.X = x
            e.Typ = types.IntT()
            return e, nil
        case ast.Deref:
            x, err := c.deref(e)
            if err != nil { return nil, err }
            return c.rvalue(x), nil
        }
        return nil, fmt.Errorf("unknown unary operator %v", e.Op)
    case *ast.BinaryExpr:
        return c.binary(e)
    case *ast.CallExpr:
        return c.call(e)
    case *ast.IndexExpr:
        // the subscript performs its own load; no cast on top
        return e, c.index(e)
    case *ast.SizeofExpr:
        if e.X != nil {
            x, err := c.expr(e.X)
            if err != nil { return nil, err }
            e.X = x
        }
        e.Typ = types.IntT()
        return e, nil
    case *ast.CastExpr:
        return e, nil // already processed
    default:
        return nil, fmt.Errorf("unknown expression %T", e)
    }
}

// lvalue resolves and types e as an assignment target; no cast is inserted.
func (c *checker) lvalue(e ast.Expr) (ast.Expr, error) {
    switch e := e.(type) {
    case *ast.DeclRef:
        if err := c.resolve(e); err != nil { return nil, err }
        if e.Typ.IsFunc() || e.Typ.IsArray() {
            return nil, fmt.Errorf("%s is not assignable", e.Name)
        }
        return e, nil
    case *ast.ParenExpr:
        x, err := c.lvalue(e.X)
        if err != nil { return nil, err }
        e.X = x
        e.Typ = x.Type()
        return e, nil
    case *ast.UnaryExpr:
        if e.Op != ast.Deref {
            return nil, fmt.Errorf("expression is not assignable")
        }
        return c.deref(e)
    case *ast.IndexExpr:
        return e, c.index(e)
    default:
        return nil, fmt.Errorf("expression is not assignable")
    }
}

func (c *checker) resolve(e *ast.DeclRef) error {
    sc := c.scope
    if sc == nil { sc = c.globals }
    d := sc.lookup(e.Name)
    if d == nil {
        return fmt.Errorf("undefined: %s", e.Name)
    }
    e.Ref = d
    switch d := d.(type) {
    case *ast.FuncDecl:
        e.Typ = types.FuncT()
    case *ast.VarDecl:
        e.Typ = d.Typ
    }
    return nil
}

// deref types *p; the operand is loaded, the node itself is not.
func (c *checker) deref(e *ast.UnaryExpr) (*ast.UnaryExpr, error) {
    x, err := c.expr(e.X)
    if err != nil { return nil, err }
    if !x.Type().IsPointer() {
        return nil, fmt.Errorf("cannot dereference %s", x.Type())
    }
    e.X = x
    e.Typ = *x.Type().Elem
    return e, nil
}

func (c *checker) index(e *ast.IndexExpr) error {
    x, err := c.expr(e.X)
    if err != nil { return err }
    t := x.Type()
    if !t.IsPointer() {
        return fmt.Errorf("cannot subscript %s", t)
    }
    idx, err := c.expr(e.Index)
    if err != nil { return err }
    if !idx.Type().IsInteger() {
        return fmt.Errorf("array subscript has type %s, want int", idx.Type())
    }
    e.X = x
    e.Index = idx
    e.Typ = *t.Elem
    return nil
}

func (c *checker) binary(e *ast.BinaryExpr) (ast.Expr, error) {
    if e.Op == ast.Assign {
        lhs, err := c.lvalue(e.X)
        if err != nil { return nil, err }
        rhs, err := c.expr(e.Y)
        if err != nil { return nil, err }
        e.X = lhs
        e.Y = rhs
        e.Typ = lhs.Type()
        return e, nil
    }
    x, err := c.expr(e.X)
    if err != nil { return nil, err }
    y, err := c.expr(e.Y)
    if err != nil { return nil, err }
    e.X = x
    e.Y = y
    lt, rt := x.Type(), y.Type()
    switch e.Op {
    case ast.Add, ast.Sub:
        if lt.IsPointer() && rt.IsInteger() {
            e.Typ = lt
            return e, nil
        }
        if rt.IsPointer() && lt.IsInteger() {
            e.Typ = rt
            return e, nil
        }
        fallthrough
    case ast.Mul, ast.Div, ast.Rem:
        if !lt.IsInteger() || !rt.IsInteger() {
            return nil, fmt.Errorf("invalid operands to %v (%s and %s)", e.Op, lt, rt)
        }
        e.Typ = types.IntT()
        return e, nil
    case ast.Eq, ast.Ne, ast.Lt, ast.Le, ast.Gt, ast.Ge:
        // pointers compare against pointers and against integer zero alike
        if (!lt.IsInteger() && !lt.IsPointer()) || (!rt.IsInteger() && !rt.IsPointer()) {
            return nil, fmt.Errorf("invalid comparison of %s and %s", lt, rt)
        }
        e.Typ = types.IntT()
        return e, nil
    }
    return nil, fmt.Errorf("unknown binary operator %v", e.Op)
}

func (c *checker) call(e *ast.CallExpr) (ast.Expr, error) {
    if err := c.resolve(e.Fun); err != nil { return nil, err }
    fd, ok := e.Fun.Ref.(*ast.FuncDecl)
    if !ok {
        return nil, fmt.Errorf("called object %s is not a function", e.Fun.Name)
    }
    for i, a := range e.Args {
        x, err := c.expr(a)
        if err != nil { return nil, err }
        e.Args[i] = x
    }
    e.Typ = fd.Ret
    return e, nil
}

// rvalue wraps a loadable expression in the implicit cast the evaluator
// expects: a pointer decay for arrays, an lvalue-to-rvalue load otherwise.
func (c *checker) rvalue(e ast.Expr) ast.Expr {
    t := e.Type()
    if t.IsArray() {
        return &ast.CastExpr{Kind: ast.ArrayDecay, X: e, Typ: t.Decay()}
    }
    return &ast.CastExpr{Kind: ast.LvalueToRvalue, X: e, Typ: t}
}
