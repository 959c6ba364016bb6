package interp

import (
    "fmt"
    "io"

    "github.com/tinyrange/cinterp/internal/ast"
)

// Evaluator drives recursion over the AST. Children are visited in source
// order; after every child visit the frame depth is compared against the
// depth before it, and any drop means a return is unwinding somewhere below,
// so the current visitor aborts without touching its own node.
type Evaluator struct {
    env   *Environment
    Trace io.Writer // when set, every visited node is logged
}

func New(env *Environment) *Evaluator { return &Evaluator{env: env} }

// Run front-to-back: initialise the environment from the translation unit,
// then walk main's body statement by statement under the unwind protocol.
func Run(f *ast.File, stdin io.Reader, stderr io.Writer, trace io.Writer) error {
    env := NewEnvironment(stdin, stderr)
    if err := env.Init(f); err != nil { return err }
    entry := env.Entry()
    if entry == nil || entry.Body == nil {
        return fmt.Errorf("%w: main", ErrUnboundDecl)
    }
    ev := New(env)
    ev.Trace = trace
    if err := ev.Stmt(entry.Body); err != nil {
        if pc := env.top().PC(); pc != nil {
            return fmt.Errorf("%w (while evaluating %s)", err, ast.Summary(pc))
        }
        return err
    }
    return nil
}

func (ev *Evaluator) trace(n any) {
    if ev.Trace != nil {
        fmt.Fprintf(ev.Trace, "visit %s\n", ast.Summary(n))
    }
}

// Stmt evaluates one statement. On normal completion the frame depth is
// unchanged; a lower depth on return means an in-flight unwind.
func (ev *Evaluator) Stmt(s ast.Stmt) error {
    ev.trace(s)
    switch s := s.(type) {
    case *ast.CompoundStmt:
        depth := ev.env.Depth()
        for _, sub := range s.List {
            if err := ev.Stmt(sub); err != nil { return err }
            if ev.env.Depth() != depth { break }
        }
        return nil
    case *ast.DeclStmt:
        return ev.env.Decl(s)
    case *ast.ExprStmt:
        if s.X == nil { return nil }
        return ev.Expr(s.X)
    case *ast.IfStmt:
        depth := ev.env.Depth()
        if err := ev.Expr(s.Cond); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        v, err := ev.env.exprVal(s.Cond)
        if err != nil { return err }
        if v != 0 {
            return ev.Stmt(s.Then)
        }
        if s.Else != nil {
            return ev.Stmt(s.Else)
        }
        return nil
    case *ast.WhileStmt:
        depth := ev.env.Depth()
        for {
            if err := ev.Expr(s.Cond); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
            v, err := ev.env.exprVal(s.Cond)
            if err != nil { return err }
            if v == 0 { return nil }
            if err := ev.Stmt(s.Body); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
        }
    case *ast.ForStmt:
        if s.Cond == nil {
            return fmt.Errorf("%w: for statement without condition", ErrUnsupportedForm)
        }
        depth := ev.env.Depth()
        if s.Init != nil {
            if err := ev.Expr(s.Init); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
        }
        for {
            if err := ev.Expr(s.Cond); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
            v, err := ev.env.exprVal(s.Cond)
            if err != nil { return err }
            if v == 0 { return nil }
            if err := ev.Stmt(s.Body); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
            if s.Post != nil {
                if err := ev.Expr(s.Post); err != nil { return err }
                if ev.env.Depth() != depth { return nil }
            }
        }
    case *ast.ReturnStmt:
        if s.Result != nil {
            depth := ev.env.Depth()
            if err := ev.Expr(s.Result); err != nil { return err }
            if ev.env.Depth() != depth { return nil }
        }
        return ev.env.Return(s)
    default:
        return fmt.Errorf("%w: statement %s", ErrUnsupportedForm, ast.Summary(s))
    }
}

// Expr evaluates one expression post-order: children first, depth check
// after each, then the Environment operation for the node itself.
func (ev *Evaluator) Expr(x ast.Expr) error {
    ev.trace(x)
    depth := ev.env.Depth()
    switch x := x.(type) {
    case *ast.IntLit:
        ev.env.Integer(x)
        return nil
    case *ast.DeclRef:
        return ev.env.DeclRef(x)
    case *ast.SizeofExpr:
        // the operand is unevaluated
        ev.env.Sizeof(x)
        return nil
    case *ast.ParenExpr:
        if err := ev.Expr(x.X); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        return ev.env.Paren(x)
    case *ast.CastExpr:
        if err := ev.Expr(x.X); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        return ev.env.Cast(x)
    case *ast.UnaryExpr:
        if err := ev.Expr(x.X); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        return ev.env.Unary(x)
    case *ast.BinaryExpr:
        if err := ev.Expr(x.X); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        if err := ev.Expr(x.Y); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        return ev.env.Binary(x)
    case *ast.IndexExpr:
        if err := ev.Expr(x.X); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        if err := ev.Expr(x.Index); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
        return ev.env.Subscript(x)
    case *ast.CallExpr:
        return ev.call(x, depth)
    default:
        return fmt.Errorf("%w: expression %s", ErrUnsupportedOp, ast.Summary(x))
    }
}

func (ev *Evaluator) call(x *ast.CallExpr, depth int) error {
    if err := ev.Expr(x.Fun); err != nil { return err }
    for _, a := range x.Args {
        if err := ev.Expr(a); err != nil { return err }
        if ev.env.Depth() != depth { return nil }
    }
    descend, err := ev.env.Call(x)
    if err != nil || !descend { return err }
    callee := ev.env.Entry()
    inDepth := ev.env.Depth()
    if callee.Body != nil {
        if err := ev.Stmt(callee.Body); err != nil { return err }
    }
    if ev.env.Depth() == inDepth {
        // the body ran out of statements without returning
        if callee.Ret.IsVoid() {
            ev.env.PopFrame()
            return nil
        }
        return fmt.Errorf("%w: %s fell off the end without a return", ErrMissingExprValue, callee.Name)
    }
    return nil
}
