package interp

import (
    "fmt"
    "io"

    "github.com/tinyrange/cinterp/internal/ast"
)

// Environment owns all evaluation state: the frame stack, the heap, the
// global table, the intrinsic identities, the entry cursor and the return
// plumbing. It exposes one operation per AST node kind; the Evaluator drives
// recursion and calls back in post-order.
type Environment struct {
    stack   []*Frame
    heap    Heap
    globals map[ast.Decl]Value

    // intrinsic declarations, matched by name during Init
    free   *ast.FuncDecl
    malloc *ast.FuncDecl
    input  *ast.FuncDecl
    output *ast.FuncDecl

    // entry is the most recently entered function: main after Init, then
    // each user callee as it is called, so the visitor can fetch the body to
    // descend into; it is not restored when a call returns
    entry *ast.FuncDecl

    // calls holds the pending non-void call expressions awaiting a value;
    // one entry per active non-void user call
    calls []*ast.CallExpr

    stdin  io.Reader
    stderr io.Writer
}

func NewEnvironment(stdin io.Reader, stderr io.Writer) *Environment {
    return &Environment{globals: map[ast.Decl]Value{}, stdin: stdin, stderr: stderr}
}

// Init walks the translation unit's top-level declarations once, populating
// the intrinsic slots, the entry slot and the global table, and pushes the
// single pre-main frame.
func (e *Environment) Init(f *ast.File) error {
    for _, d := range f.Decls {
        switch d := d.(type) {
        case *ast.FuncDecl:
            switch d.Name {
            case "FREE":
                e.free = d
            case "MALLOC":
                e.malloc = d
            case "GET":
                e.input = d
            case "PRINT":
                e.output = d
            case "main":
                e.entry = d
            default:
                e.globals[d] = Value(len(d.Params))
            }
        case *ast.VarDecl:
            switch {
            case d.Typ.IsInteger():
                if lit, ok := d.Init.(*ast.IntLit); ok {
                    e.globals[d] = lit.Value
                } else {
                    e.globals[d] = 0
                }
            case d.Typ.IsArray():
                e.globals[d] = e.heap.Alloc(int64(d.Typ.Len))
            default:
                return fmt.Errorf("%w: global %s declared as %s", ErrUnsupportedType, d.Name, d.Typ)
            }
        }
    }
    e.stack = append(e.stack, newFrame())
    return nil
}

// Entry returns the most recently entered function (see the entry field).
func (e *Environment) Entry() *ast.FuncDecl { return e.entry }

// Depth is the number of active frames; the visitor compares it around every
// child visit to detect an in-flight return.
func (e *Environment) Depth() int { return len(e.stack) }

func (e *Environment) top() *Frame { return e.stack[len(e.stack)-1] }

// PopFrame drops the top frame. The visitor calls it when a void callee's
// body runs out of statements.
func (e *Environment) PopFrame() { e.stack = e.stack[:len(e.stack)-1] }

func (e *Environment) exprVal(x ast.Expr) (Value, error) {
    v, ok := e.top().ExprVal(x)
    if !ok {
        return 0, fmt.Errorf("%w: %s", ErrMissingExprValue, ast.Summary(x))
    }
    return v, nil
}

func (e *Environment) lookup(d ast.Decl) (Value, error) {
    if v, ok := e.top().DeclVal(d); ok {
        return v, nil
    }
    if v, ok := e.globals[d]; ok {
        return v, nil
    }
    return 0, fmt.Errorf("%w: %s", ErrUnboundDecl, ast.Summary(d))
}

// rebind updates whichever binding currently holds the declaration: the top
// frame's locals first, then the global table, else a fresh local.
func (e *Environment) rebind(d ast.Decl, v Value) {
    if _, ok := e.top().DeclVal(d); ok {
        e.top().BindDecl(d, v)
        return
    }
    if _, ok := e.globals[d]; ok {
        e.globals[d] = v
        return
    }
    e.top().BindDecl(d, v)
}

func (e *Environment) Integer(x *ast.IntLit) {
    e.top().BindExpr(x, x.Value)
}

func (e *Environment) Paren(x *ast.ParenExpr) error {
    v, err := e.exprVal(x.X)
    if err != nil { return err }
    e.top().BindExpr(x, v)
    return nil
}

// Sizeof stores the operand's size without evaluating it; every admissible
// type in this dialect is 8 bytes wide.
func (e *Environment) Sizeof(x *ast.SizeofExpr) {
    t := x.Arg
    if x.X != nil {
        t = x.X.Type()
    }
    e.top().BindExpr(x, Value(t.Size()))
}

func (e *Environment) DeclRef(x *ast.DeclRef) error {
    e.top().SetPC(x)
    t := x.Type()
    if t.IsInteger() || t.IsArray() || t.IsPointer() {
        v, err := e.lookup(x.Ref)
        if err != nil { return err }
        e.top().BindExpr(x, v)
    }
    // function references feed call targets and carry no value
    return nil
}

func (e *Environment) Cast(x *ast.CastExpr) error {
    e.top().SetPC(x)
    if u, ok := x.X.(*ast.UnaryExpr); ok && u.Op == ast.Deref {
        // reading through *p: the operand holds the encoded pointer
        p, err := e.exprVal(u)
        if err != nil { return err }
        h, off := decodePtr(p)
        e.top().BindExpr(x, e.heap.Block(h).Cells[off])
        return nil
    }
    t := x.Type()
    if t.IsInteger() || t.IsPointer() {
        v, err := e.exprVal(x.X)
        if err != nil { return err }
        e.top().BindExpr(x, v)
        return nil
    }
    return fmt.Errorf("%w: cast to %s", ErrUnsupportedType, t)
}

func (e *Environment) Subscript(x *ast.IndexExpr) error {
    base, err := e.exprVal(x.X)
    if err != nil { return err }
    idx, err := e.exprVal(x.Index)
    if err != nil { return err }
    h, off := decodePtr(base)
    e.top().BindExpr(x, e.heap.Block(h).Cells[off+idx])
    return nil
}

func (e *Environment) Unary(x *ast.UnaryExpr) error {
    switch x.Op {
    case ast.Neg:
        v, err := e.exprVal(x.X)
        if err != nil { return err }
        e.top().BindExpr(x, -v)
        return nil
    case ast.Deref:
        // bind the raw pointer; the enclosing cast reads through it and
        // assignment writes through it
        v, err := e.exprVal(x.X)
        if err != nil { return err }
        e.top().BindExpr(x, v)
        return nil
    default:
        return fmt.Errorf("%w: unary %v", ErrUnsupportedOp, x.Op)
    }
}

func (e *Environment) Binary(x *ast.BinaryExpr) error {
    if x.Op == ast.Assign {
        return e.assign(x)
    }
    l, err := e.exprVal(x.X)
    if err != nil { return err }
    r, err := e.exprVal(x.Y)
    if err != nil { return err }
    var v Value
    switch x.Op {
    case ast.Add, ast.Sub:
        if x.X.Type().IsPointer() {
            h, off := decodePtr(l)
            if x.Op == ast.Add { off += r } else { off -= r }
            e.top().BindExpr(x, encodePtr(h, off))
            return nil
        }
        if x.Y.Type().IsPointer() {
            h, off := decodePtr(r)
            if x.Op == ast.Add { off += l } else { off -= l }
            e.top().BindExpr(x, encodePtr(h, off))
            return nil
        }
        if x.Op == ast.Add { v = l + r } else { v = l - r }
    case ast.Mul:
        v = l * r
    case ast.Div:
        v = l / r
    case ast.Rem:
        v = l % r
    case ast.Eq:
        v = b2i(l == r)
    case ast.Ne:
        v = b2i(l != r)
    case ast.Lt:
        v = b2i(l < r)
    case ast.Le:
        v = b2i(l <= r)
    case ast.Gt:
        v = b2i(l > r)
    case ast.Ge:
        v = b2i(l >= r)
    default:
        return fmt.Errorf("%w: binary %v", ErrUnsupportedOp, x.Op)
    }
    e.top().BindExpr(x, v)
    return nil
}

// assign dispatches on the shape of the left side: array element, pointer
// target or plain variable.
func (e *Environment) assign(x *ast.BinaryExpr) error {
    v, err := e.exprVal(x.Y)
    if err != nil { return err }
    switch l := ast.Unparen(x.X).(type) {
    case *ast.IndexExpr:
        base, err := e.exprVal(l.X)
        if err != nil { return err }
        idx, err := e.exprVal(l.Index)
        if err != nil { return err }
        h, off := decodePtr(base)
        e.heap.Block(h).Cells[off+idx] = v
    case *ast.UnaryExpr:
        p, err := e.exprVal(l.X)
        if err != nil { return err }
        h, off := decodePtr(p)
        e.heap.Block(h).Cells[off] = v
    case *ast.DeclRef:
        e.rebind(l.Ref, v)
        e.top().BindExpr(l, v)
    default:
        return fmt.Errorf("%w: assignment to %s", ErrUnsupportedOp, ast.Summary(x.X))
    }
    e.top().BindExpr(x, v)
    return nil
}

// Call evaluates a call whose arguments are already bound. Intrinsics are
// handled in place and descend=false; a user call pushes the new frame,
// rewrites the entry cursor and asks the visitor to descend into the body.
func (e *Environment) Call(x *ast.CallExpr) (descend bool, err error) {
    e.top().SetPC(x)
    callee, ok := x.Fun.Ref.(*ast.FuncDecl)
    if !ok {
        return false, fmt.Errorf("%w: callee %s", ErrUnboundDecl, x.Fun.Name)
    }
    switch callee {
    case e.input:
        fmt.Fprint(e.stderr, "Please Input an Integer Value : ")
        var v int64
        if _, err := fmt.Fscan(e.stdin, &v); err != nil {
            return false, fmt.Errorf("GET: %v", err)
        }
        e.top().BindExpr(x, v)
    case e.output:
        if len(x.Args) < 1 {
            return false, fmt.Errorf("%w: PRINT expects 1 argument", ErrArityMismatch)
        }
        v, err := e.exprVal(x.Args[0])
        if err != nil { return false, err }
        fmt.Fprintf(e.stderr, "%d", v)
    case e.malloc:
        if len(x.Args) < 1 {
            return false, fmt.Errorf("%w: MALLOC expects 1 argument", ErrArityMismatch)
        }
        n, err := e.exprVal(x.Args[0])
        if err != nil { return false, err }
        // compatibility quirk, kept deliberately: a literal argument is a
        // byte count and is scaled by the 8-byte cell size; anything else
        // is already a cell count
        if _, ok := ast.Unparen(x.Args[0]).(*ast.IntLit); ok {
            n *= 8
        }
        e.top().BindExpr(x, e.heap.Alloc(n))
    case e.free:
        // freeing is a no-op; blocks stay live until interpreter exit
    default:
        arity, ok := e.globals[callee]
        if !ok {
            return false, fmt.Errorf("%w: function %s", ErrUnboundDecl, callee.Name)
        }
        if int(arity) != len(x.Args) {
            return false, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArityMismatch, callee.Name, arity, len(x.Args))
        }
        frame := newFrame()
        for i, p := range callee.Params {
            v, err := e.exprVal(x.Args[i])
            if err != nil { return false, err }
            frame.BindDecl(p, v)
        }
        if !callee.Ret.IsVoid() {
            e.calls = append(e.calls, x)
        }
        e.stack = append(e.stack, frame)
        e.entry = callee
        return true, nil
    }
    return false, nil
}

// Decl binds each declared variable in the current frame; arrays get a fresh
// heap block, pointers start null.
func (e *Environment) Decl(s *ast.DeclStmt) error {
    for _, d := range s.Decls {
        switch {
        case d.Typ.IsInteger():
            if lit, ok := d.Init.(*ast.IntLit); ok {
                e.top().BindDecl(d, lit.Value)
            } else {
                e.top().BindDecl(d, 0)
            }
        case d.Typ.IsArray():
            e.top().BindDecl(d, e.heap.Alloc(int64(d.Typ.Len)))
        case d.Typ.IsPointer():
            e.top().BindDecl(d, 0)
        default:
            return fmt.Errorf("%w: %s declared as %s", ErrUnsupportedType, d.Name, d.Typ)
        }
    }
    return nil
}

// Return delivers the pending value and unwinds one frame. Returning from
// main, or returning without a value, manipulates no frames: the visitor's
// depth comparison is what turns the pop into an unwind.
func (e *Environment) Return(s *ast.ReturnStmt) error {
    if s.Result == nil || len(e.stack) <= 1 {
        return nil
    }
    v, err := e.exprVal(s.Result)
    if err != nil { return err }
    if len(e.calls) == 0 {
        return fmt.Errorf("%w: no pending call for return", ErrMissingExprValue)
    }
    call := e.calls[len(e.calls)-1]
    e.calls = e.calls[:len(e.calls)-1]
    e.stack = e.stack[:len(e.stack)-1]
    e.top().BindExpr(call, v)
    return nil
}

func b2i(b bool) Value {
    if b { return 1 }
    return 0
}
