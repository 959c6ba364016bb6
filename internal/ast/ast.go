package ast

import "github.com/tinyrange/cinterp/internal/types"

// File is one translation unit as delivered by the front-end.
type File struct {
    Decls []Decl
}

type Decl interface{ isDecl() }

// VarDecl covers globals, locals and parameters. Sema guarantees Init is
// either nil or an *IntLit; other initialisers are not part of the dialect.
type VarDecl struct {
    Name string
    Typ  types.Type
    Init Expr
}
func (*VarDecl) isDecl() {}

type FuncDecl struct {
    Name   string
    Params []*VarDecl
    Ret    types.Type
    Body   *CompoundStmt // nil for extern prototypes
}
func (*FuncDecl) isDecl() {}

type Stmt interface{ isStmt() }

type CompoundStmt struct { List []Stmt }
func (*CompoundStmt) isStmt() {}

type DeclStmt struct { Decls []*VarDecl }
func (*DeclStmt) isStmt() {}

type ExprStmt struct { X Expr }
func (*ExprStmt) isStmt() {}

type IfStmt struct {
    Cond Expr
    Then Stmt
    Else Stmt // may be nil
}
func (*IfStmt) isStmt() {}

type WhileStmt struct {
    Cond Expr
    Body Stmt
}
func (*WhileStmt) isStmt() {}

type ForStmt struct {
    Init Expr // may be nil
    Cond Expr // may be nil (rejected at evaluation time)
    Post Expr // may be nil
    Body Stmt
}
func (*ForStmt) isStmt() {}

type ReturnStmt struct { Result Expr } // Result may be nil
func (*ReturnStmt) isStmt() {}

// Expr nodes carry the type classifier sema computed for them; the evaluator
// dispatches on it to tell integers, pointers and array handles apart.
type Expr interface {
    isExpr()
    Type() types.Type
}

type IntLit struct {
    Value int64
    Typ   types.Type
}
func (*IntLit) isExpr() {}
func (e *IntLit) Type() types.Type { return e.Typ }

type DeclRef struct {
    Name string
    Ref  Decl // filled by sema
    Typ  types.Type
}
func (*DeclRef) isExpr() {}
func (e *DeclRef) Type() types.Type { return e.Typ }

type ParenExpr struct {
    X   Expr
    Typ types.Type
}
func (*ParenExpr) isExpr() {}
func (e *ParenExpr) Type() types.Type { return e.Typ }

// CastKind names the implicit value adjustments sema inserts; the dialect has
// no explicit casts.
type CastKind int

const (
    LvalueToRvalue CastKind = iota
    ArrayDecay
)

func (k CastKind) String() string {
    switch k {
    case LvalueToRvalue: return "LvalueToRvalue"
    case ArrayDecay: return "ArrayDecay"
    default: return "?"
    }
}

type CastExpr struct {
    Kind CastKind
    X    Expr
    Typ  types.Type
}
func (*CastExpr) isExpr() {}
func (e *CastExpr) Type() types.Type { return e.Typ }

type UnOp int

const (
    Neg UnOp = iota // -x
    Deref           // *p
)

func (op UnOp) String() string {
    switch op {
    case Neg: return "-"
    case Deref: return "*"
    default: return "?"
    }
}

type UnaryExpr struct {
    Op  UnOp
    X   Expr
    Typ types.Type
}
func (*UnaryExpr) isExpr() {}
func (e *UnaryExpr) Type() types.Type { return e.Typ }

type BinOp int

const (
    Assign BinOp = iota
    Add
    Sub
    Mul
    Div
    Rem
    Eq
    Ne
    Lt
    Le
    Gt
    Ge
)

func (op BinOp) String() string {
    switch op {
    case Assign: return "="
    case Add: return "+"
    case Sub: return "-"
    case Mul: return "*"
    case Div: return "/"
    case Rem: return "%"
    case Eq: return "=="
    case Ne: return "!="
    case Lt: return "<"
    case Le: return "<="
    case Gt: return ">"
    case Ge: return ">="
    default: return "?"
    }
}

type BinaryExpr struct {
    Op   BinOp
    X, Y Expr
    Typ  types.Type
}
func (*BinaryExpr) isExpr() {}
func (e *BinaryExpr) Type() types.Type { return e.Typ }

type CallExpr struct {
    Fun  *DeclRef
    Args []Expr
    Typ  types.Type
}
func (*CallExpr) isExpr() {}
func (e *CallExpr) Type() types.Type { return e.Typ }

type IndexExpr struct {
    X     Expr
    Index Expr
    Typ   types.Type
}
func (*IndexExpr) isExpr() {}
func (e *IndexExpr) Type() types.Type { return e.Typ }

// SizeofExpr holds either a type operand (Arg) or an expression operand (X).
// The operand is never evaluated.
type SizeofExpr struct {
    Arg types.Type
    X   Expr // nil when Arg is set
    Typ types.Type
}
func (*SizeofExpr) isExpr() {}
func (e *SizeofExpr) Type() types.Type { return e.Typ }

// Unparen strips parenthesised wrappers; assignment dispatches on the shape
// underneath them.
func Unparen(e Expr) Expr {
    for {
        p, ok := e.(*ParenExpr)
        if !ok { return e }
        e = p.X
    }
}
