package parser

import (
    "testing"

    "github.com/tinyrange/cinterp/internal/ast"
    "github.com/tinyrange/cinterp/internal/types"
)

func parse(t *testing.T, src string) *ast.File {
    t.Helper()
    f, err := ParseFile("test.c", src)
    if err != nil {
        t.Fatalf("parse error: %v\nsource:\n%s", err, src)
    }
    return f
}

func TestFunctionDecl(t *testing.T) {
    f := parse(t, `int add(int a, int b){ return a+b; }`)
    if len(f.Decls) != 1 {
        t.Fatalf("got %d decls", len(f.Decls))
    }
    fd, ok := f.Decls[0].(*ast.FuncDecl)
    if !ok {
        t.Fatalf("decl is %T", f.Decls[0])
    }
    if fd.Name != "add" || len(fd.Params) != 2 || !fd.Ret.IsInteger() {
        t.Fatalf("bad function: %+v", fd)
    }
    if fd.Params[0].Name != "a" || !fd.Params[1].Typ.IsInteger() {
        t.Fatalf("bad params: %+v", fd.Params)
    }
    if fd.Body == nil || len(fd.Body.List) != 1 {
        t.Fatalf("bad body")
    }
}

func TestExternPrototypes(t *testing.T) {
    f := parse(t, `
extern int GET();
extern void * MALLOC(int);
extern void FREE(void *);
extern void PRINT(int);`)
    if len(f.Decls) != 4 {
        t.Fatalf("got %d decls", len(f.Decls))
    }
    m := f.Decls[1].(*ast.FuncDecl)
    if m.Name != "MALLOC" || m.Body != nil || !m.Ret.IsPointer() {
        t.Fatalf("bad MALLOC prototype: %+v", m)
    }
    fr := f.Decls[2].(*ast.FuncDecl)
    if len(fr.Params) != 1 || !fr.Params[0].Typ.IsPointer() || fr.Params[0].Name != "" {
        t.Fatalf("bad FREE param: %+v", fr.Params)
    }
}

func TestVoidParamListIsEmpty(t *testing.T) {
    f := parse(t, `int f(void){ return 0; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    if len(fd.Params) != 0 {
        t.Fatalf("f(void) has %d params", len(fd.Params))
    }
}

func TestGlobalVariables(t *testing.T) {
    f := parse(t, `int g = 3, h; int a[10];`)
    if len(f.Decls) != 3 {
        t.Fatalf("got %d decls", len(f.Decls))
    }
    g := f.Decls[0].(*ast.VarDecl)
    if lit, ok := g.Init.(*ast.IntLit); !ok || lit.Value != 3 {
        t.Fatalf("bad initialiser: %+v", g.Init)
    }
    h := f.Decls[1].(*ast.VarDecl)
    if h.Init != nil || !h.Typ.IsInteger() {
        t.Fatalf("bad h: %+v", h)
    }
    a := f.Decls[2].(*ast.VarDecl)
    if !a.Typ.IsArray() || a.Typ.Len != 10 || !a.Typ.Elem.IsInteger() {
        t.Fatalf("bad array type: %v", a.Typ)
    }
}

func TestDeclaratorStars(t *testing.T) {
    f := parse(t, `int main(){ int **pp; return 0; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    ds := fd.Body.List[0].(*ast.DeclStmt)
    typ := ds.Decls[0].Typ
    if !typ.IsPointer() || !typ.Elem.IsPointer() || !typ.Elem.Elem.IsInteger() {
        t.Fatalf("int ** parsed as %v", typ)
    }
}

func TestPrecedence(t *testing.T) {
    f := parse(t, `int main(){ x = 1+2*3; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    assign := fd.Body.List[0].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    if assign.Op != ast.Assign {
        t.Fatalf("top op = %v", assign.Op)
    }
    add := assign.Y.(*ast.BinaryExpr)
    if add.Op != ast.Add {
        t.Fatalf("rhs op = %v, want +", add.Op)
    }
    mul := add.Y.(*ast.BinaryExpr)
    if mul.Op != ast.Mul {
        t.Fatalf("nested op = %v, want *", mul.Op)
    }
}

func TestComparisonPrecedence(t *testing.T) {
    f := parse(t, `int main(){ x = a+1 < b*2; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    assign := fd.Body.List[0].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    lt := assign.Y.(*ast.BinaryExpr)
    if lt.Op != ast.Lt {
        t.Fatalf("rhs op = %v, want <", lt.Op)
    }
    if lt.X.(*ast.BinaryExpr).Op != ast.Add || lt.Y.(*ast.BinaryExpr).Op != ast.Mul {
        t.Fatalf("operand shapes wrong: %T %T", lt.X, lt.Y)
    }
}

func TestNegativeLiteralFolding(t *testing.T) {
    f := parse(t, `int main(){ x = -3; y = -(3); }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    lit, ok := fd.Body.List[0].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.IntLit)
    if !ok || lit.Value != -3 {
        t.Fatalf("-3 did not fold to a literal: %+v", lit)
    }
    // a parenthesised operand stays a unary expression
    if _, ok := fd.Body.List[1].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.UnaryExpr); !ok {
        t.Fatalf("-(3) unexpectedly folded")
    }
}

func TestControlFlow(t *testing.T) {
    f := parse(t, `
int main(){
    if (a) b = 1; else b = 2;
    while (b < 10) b = b + 1;
    for (i = 0; i < 3; i = i + 1) PRINT(i);
    for (;;) ;
}`)
    body := f.Decls[0].(*ast.FuncDecl).Body.List
    ifs := body[0].(*ast.IfStmt)
    if ifs.Else == nil {
        t.Fatal("else branch missing")
    }
    if _, ok := body[1].(*ast.WhileStmt); !ok {
        t.Fatalf("want while, got %T", body[1])
    }
    fs := body[2].(*ast.ForStmt)
    if fs.Init == nil || fs.Cond == nil || fs.Post == nil {
        t.Fatalf("for pieces missing: %+v", fs)
    }
    empty := body[3].(*ast.ForStmt)
    if empty.Init != nil || empty.Cond != nil || empty.Post != nil {
        t.Fatalf("for(;;) pieces should be nil: %+v", empty)
    }
}

func TestCallAndIndex(t *testing.T) {
    f := parse(t, `int main(){ x = f(1, g(2))[3]; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    idx := fd.Body.List[0].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.IndexExpr)
    call := idx.X.(*ast.CallExpr)
    if call.Fun.Name != "f" || len(call.Args) != 2 {
        t.Fatalf("bad call: %+v", call)
    }
    if inner, ok := call.Args[1].(*ast.CallExpr); !ok || inner.Fun.Name != "g" {
        t.Fatalf("bad nested call: %+v", call.Args[1])
    }
}

func TestSizeofForms(t *testing.T) {
    f := parse(t, `int main(){ x = sizeof(int); y = sizeof(int *); z = sizeof(x); }`)
    body := f.Decls[0].(*ast.FuncDecl).Body.List
    s0 := body[0].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.SizeofExpr)
    if s0.X != nil || !s0.Arg.IsInteger() {
        t.Fatalf("sizeof(int) parsed as %+v", s0)
    }
    s1 := body[1].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.SizeofExpr)
    if !s1.Arg.IsPointer() {
        t.Fatalf("sizeof(int *) parsed as %v", s1.Arg)
    }
    s2 := body[2].(*ast.ExprStmt).X.(*ast.BinaryExpr).Y.(*ast.SizeofExpr)
    if s2.X == nil {
        t.Fatalf("sizeof(x) lost its operand")
    }
}

func TestDerefAssignment(t *testing.T) {
    f := parse(t, `int main(){ *(p+1) = 5; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    assign := fd.Body.List[0].(*ast.ExprStmt).X.(*ast.BinaryExpr)
    u, ok := assign.X.(*ast.UnaryExpr)
    if !ok || u.Op != ast.Deref {
        t.Fatalf("lhs is %T", assign.X)
    }
}

func TestParseErrors(t *testing.T) {
    bad := []string{
        `int main(){ return 1 }`,  // missing semicolon
        `int (){ return 0; }`,     // missing name
        `int main(){ x = ; }`,     // missing operand
        `int main(){ 3(1); }`,     // literal is not callable
        `float main(){}`,          // unknown type
    }
    for _, src := range bad {
        if _, err := ParseFile("test.c", src); err == nil {
            t.Fatalf("no error for %q", src)
        }
    }
    _, err := ParseFile("test.c", `int main(){ return 1 }`)
    if err == nil {
        t.Fatal("expected error")
    }
}

func TestArraySizeType(t *testing.T) {
    f := parse(t, `int main(){ int a[4]; a[0] = 1; }`)
    fd := f.Decls[0].(*ast.FuncDecl)
    d := fd.Body.List[0].(*ast.DeclStmt).Decls[0]
    want := types.ArrayOf(types.IntT(), 4)
    if d.Typ.K != want.K || d.Typ.Len != want.Len {
        t.Fatalf("type = %v", d.Typ)
    }
}
