package ast

import (
    "fmt"
    "io"
    "strings"
)

// Dump writes an indented tree of the translation unit, one node per line.
// It backs the interpreter's -trace mode.
func Dump(w io.Writer, f *File) {
    for _, d := range f.Decls {
        dumpDecl(w, d, 0)
    }
}

func indent(w io.Writer, depth int) {
    io.WriteString(w, strings.Repeat("  ", depth))
}

func dumpDecl(w io.Writer, d Decl, depth int) {
    indent(w, depth)
    switch d := d.(type) {
    case *VarDecl:
        if d.Init != nil {
            fmt.Fprintf(w, "VarDecl %s %s =\n", d.Name, d.Typ)
            dumpExpr(w, d.Init, depth+1)
        } else {
            fmt.Fprintf(w, "VarDecl %s %s\n", d.Name, d.Typ)
        }
    case *FuncDecl:
        fmt.Fprintf(w, "FuncDecl %s %s/%d\n", d.Name, d.Ret, len(d.Params))
        for _, p := range d.Params {
            indent(w, depth+1)
            fmt.Fprintf(w, "Param %s %s\n", p.Name, p.Typ)
        }
        if d.Body != nil {
            dumpStmt(w, d.Body, depth+1)
        }
    }
}

func dumpStmt(w io.Writer, s Stmt, depth int) {
    indent(w, depth)
    switch s := s.(type) {
    case *CompoundStmt:
        io.WriteString(w, "CompoundStmt\n")
        for _, sub := range s.List {
            dumpStmt(w, sub, depth+1)
        }
    case *DeclStmt:
        io.WriteString(w, "DeclStmt\n")
        for _, d := range s.Decls {
            dumpDecl(w, d, depth+1)
        }
    case *ExprStmt:
        io.WriteString(w, "ExprStmt\n")
        if s.X != nil { dumpExpr(w, s.X, depth+1) }
    case *IfStmt:
        io.WriteString(w, "IfStmt\n")
        dumpExpr(w, s.Cond, depth+1)
        dumpStmt(w, s.Then, depth+1)
        if s.Else != nil { dumpStmt(w, s.Else, depth+1) }
    case *WhileStmt:
        io.WriteString(w, "WhileStmt\n")
        dumpExpr(w, s.Cond, depth+1)
        dumpStmt(w, s.Body, depth+1)
    case *ForStmt:
        io.WriteString(w, "ForStmt\n")
        if s.Init != nil { dumpExpr(w, s.Init, depth+1) }
        if s.Cond != nil { dumpExpr(w, s.Cond, depth+1) }
        if s.Post != nil { dumpExpr(w, s.Post, depth+1) }
        dumpStmt(w, s.Body, depth+1)
    case *ReturnStmt:
        io.WriteString(w, "ReturnStmt\n")
        if s.Result != nil { dumpExpr(w, s.Result, depth+1) }
    }
}

func dumpExpr(w io.Writer, e Expr, depth int) {
    indent(w, depth)
    fmt.Fprintf(w, "%s %s\n", Summary(e), e.Type())
    for _, c := range children(e) {
        dumpExpr(w, c, depth+1)
    }
}

func children(e Expr) []Expr {
    switch e := e.(type) {
    case *ParenExpr:
        return []Expr{e.X}
    case *CastExpr:
        return []Expr{e.X}
    case *UnaryExpr:
        return []Expr{e.X}
    case *BinaryExpr:
        return []Expr{e.X, e.Y}
    case *CallExpr:
        return e.Args
    case *IndexExpr:
        return []Expr{e.X, e.Index}
    case *SizeofExpr:
        if e.X != nil { return []Expr{e.X} }
    }
    return nil
}

// Summary returns a one-line description of a node, used by -trace and by
// evaluator error messages.
func Summary(n any) string {
    switch n := n.(type) {
    case *IntLit:
        return fmt.Sprintf("IntLit %d", n.Value)
    case *DeclRef:
        return "DeclRef " + n.Name
    case *ParenExpr:
        return "ParenExpr"
    case *CastExpr:
        return "CastExpr " + n.Kind.String()
    case *UnaryExpr:
        return "UnaryExpr " + n.Op.String()
    case *BinaryExpr:
        return "BinaryExpr " + n.Op.String()
    case *CallExpr:
        return "CallExpr " + n.Fun.Name
    case *IndexExpr:
        return "IndexExpr"
    case *SizeofExpr:
        return "SizeofExpr"
    case *CompoundStmt:
        return "CompoundStmt"
    case *DeclStmt:
        return "DeclStmt"
    case *ExprStmt:
        return "ExprStmt"
    case *IfStmt:
        return "IfStmt"
    case *WhileStmt:
        return "WhileStmt"
    case *ForStmt:
        return "ForStmt"
    case *ReturnStmt:
        return "ReturnStmt"
    case *VarDecl:
        return "VarDecl " + n.Name
    case *FuncDecl:
        return "FuncDecl " + n.Name
    case nil:
        return "<nil>"
    default:
        return fmt.Sprintf("%T", n)
    }
}
