package sema

import (
    "strings"
    "testing"

    "github.com/tinyrange/cinterp/internal/ast"
    "github.com/tinyrange/cinterp/internal/parser"
)

func check(t *testing.T, src string) *ast.File {
    t.Helper()
    f, err := parser.ParseFile("test.c", src)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    if err := Check(f); err != nil {
        t.Fatalf("check: %v\nsource:\n%s", err, src)
    }
    return f
}

func wantCheckError(t *testing.T, src, fragment string) {
    t.Helper()
    f, err := parser.ParseFile("test.c", src)
    if err != nil {
        t.Fatalf("parse: %v", err)
    }
    err = Check(f)
    if err == nil {
        t.Fatalf("no error for:\n%s", src)
    }
    if !strings.Contains(err.Error(), fragment) {
        t.Fatalf("error %q does not mention %q", err, fragment)
    }
}

func mainBody(f *ast.File) []ast.Stmt {
    for _, d := range f.Decls {
        if fd, ok := d.(*ast.FuncDecl); ok && fd.Name == "main" {
            return fd.Body.List
        }
    }
    return nil
}

func TestResolvesLocalsAndGlobals(t *testing.T) {
    f := check(t, `
int g;
int main(){ int x; x = g; return x; }`)
    body := mainBody(f)
    assign := body[1].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    lhs := assign.X.(*ast.DeclRef)
    if lhs.Ref == nil || lhs.Name != "x" {
        t.Fatalf("lhs unresolved: %+v", lhs)
    }
    rhs := assign.Y.(*ast.CastExpr)
    if rhs.Kind != ast.LvalueToRvalue {
        t.Fatalf("rhs cast kind = %v", rhs.Kind)
    }
    ref := rhs.X.(*ast.DeclRef)
    if ref.Name != "g" || ref.Ref == nil {
        t.Fatalf("g unresolved: %+v", ref)
    }
}

func TestShadowing(t *testing.T) {
    f := check(t, `
int x;
int main(){ int x; { int x; x = 1; } x = 2; return 0; }`)
    body := mainBody(f)
    outer := body[0].(*ast.DeclStmt).Decls[0]
    inner := body[1].(*ast.CompoundStmt).List[0].(*ast.DeclStmt).Decls[0]
    innerAssign := body[1].(*ast.CompoundStmt).List[1].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    if innerAssign.X.(*ast.DeclRef).Ref != ast.Decl(inner) {
        t.Fatal("inner x resolved to the wrong declaration")
    }
    outerAssign := body[2].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    if outerAssign.X.(*ast.DeclRef).Ref != ast.Decl(outer) {
        t.Fatal("outer x resolved to the wrong declaration")
    }
}

func TestReadGetsLvalueToRvalueCast(t *testing.T) {
    f := check(t, `int main(){ int a; int b; a = 1; b = a + 2; return 0; }`)
    body := mainBody(f)
    add := body[3].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.BinaryExpr)
    c, ok := add.X.(*ast.CastExpr)
    if !ok || c.Kind != ast.LvalueToRvalue || !c.Typ.IsInteger() {
        t.Fatalf("read of a is %T (%+v)", add.X, add.X)
    }
}

func TestArrayDecayCast(t *testing.T) {
    f := check(t, `int main(){ int a[4]; int * p; p = a; return 0; }`)
    body := mainBody(f)
    assign := body[2].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    c, ok := assign.Y.(*ast.CastExpr)
    if !ok || c.Kind != ast.ArrayDecay {
        t.Fatalf("rhs is %T, want ArrayDecay cast", assign.Y)
    }
    if !c.Typ.IsPointer() || !c.Typ.Elem.IsInteger() {
        t.Fatalf("decayed type = %v", c.Typ)
    }
}

func TestSubscriptBaseDecays(t *testing.T) {
    f := check(t, `int main(){ int a[4]; a[1] = 2; return a[1]; }`)
    body := mainBody(f)
    assign := body[1].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    idx := assign.X.(*ast.IndexExpr)
    if c, ok := idx.X.(*ast.CastExpr); !ok || c.Kind != ast.ArrayDecay {
        t.Fatalf("subscript base is %T", idx.X)
    }
    if !idx.Typ.IsInteger() {
        t.Fatalf("subscript type = %v", idx.Typ)
    }
    // the subscript loads its own value; no cast wraps the read
    ret := body[2].(*ast.ReturnStmt)
    if _, ok := ret.Result.(*ast.IndexExpr); !ok {
        t.Fatalf("return value is %T, want bare IndexExpr", ret.Result)
    }
}

func TestDerefReadWrapsUnary(t *testing.T) {
    f := check(t, `
extern void PRINT(int);
int main(){ int a[2]; int * p; p = a; PRINT(*(p+1)); *p = 3; return 0; }`)
    body := mainBody(f)
    call := body[3].(*ast.ExprStmt).X.(*ast.CallExpr)
    c, ok := call.Args[0].(*ast.CastExpr)
    if !ok || c.Kind != ast.LvalueToRvalue {
        t.Fatalf("deref read is %T", call.Args[0])
    }
    if _, ok := c.X.(*ast.UnaryExpr); !ok {
        t.Fatalf("cast operand is %T, want unary deref", c.X)
    }
    // write target stays a bare unary
    assign := body[4].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    if _, ok := assign.X.(*ast.UnaryExpr); !ok {
        t.Fatalf("write target is %T", assign.X)
    }
}

func TestPointerArithmeticTypes(t *testing.T) {
    f := check(t, `int main(){ int a[4]; int * p; p = a + 1; return 0; }`)
    body := mainBody(f)
    add := body[2].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.BinaryExpr)
    if !add.Typ.IsPointer() {
        t.Fatalf("a+1 typed %v", add.Typ)
    }
}

func TestCallTyping(t *testing.T) {
    f := check(t, `
int f(int n){ return n; }
int main(){ int x; x = f(1); return 0; }`)
    body := mainBody(f)
    call := body[1].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.CallExpr)
    if !call.Typ.IsInteger() {
        t.Fatalf("call typed %v", call.Typ)
    }
    if call.Fun.Ref == nil {
        t.Fatal("callee unresolved")
    }
}

func TestForwardCall(t *testing.T) {
    check(t, `
int main(){ return later(1); }
int later(int n){ return n; }`)
}

func TestErrors(t *testing.T) {
    wantCheckError(t, `int main(){ x = 1; return 0; }`, "undefined")
    wantCheckError(t, `int main(){ int x = 1 + 2; return 0; }`, "not an integer literal")
    wantCheckError(t, `int g = h; int main(){ return 0; }`, "not an integer literal")
    wantCheckError(t, `void f(){ return 1; } int main(){ return 0; }`, "void function returns a value")
    wantCheckError(t, `int main(){ int a[2]; a = 1; return 0; }`, "not assignable")
    wantCheckError(t, `int main(){ 1 = 2; return 0; }`, "not assignable")
    wantCheckError(t, `int main(){ int x; x = x(); return 0; }`, "not a function")
    wantCheckError(t, `int main(){ int x; return *x; }`, "cannot dereference")
    wantCheckError(t, `int main(){ int x; return x[0]; }`, "cannot subscript")
    wantCheckError(t, `int main(){ void v; return 0; }`, "declared void")
    wantCheckError(t, `int main(){ int * p; while(p) p = p; return 0; }`, "condition")
    wantCheckError(t, `int f(int n){ return n; } int main(){ return f; }`, "used as a value")
}
