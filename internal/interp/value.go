package interp

import "github.com/tinyrange/cinterp/internal/ast"

// Value is the uniform machine word shared by integers, array handles and
// encoded pointers. The static type on the AST node being evaluated decides
// which reading applies; there is no runtime tag.
type Value = int64

// A pointer value packs (heap handle, element offset) into one word:
// handle + ptrBase*offset. Pointer arithmetic moves the offset, dereference
// indexes heap[handle].Cells[offset]. The base is not user-visible.
const ptrBase = 10000

func encodePtr(handle, offset int64) Value { return handle + offset*ptrBase }

func decodePtr(v Value) (handle, offset int64) { return v % ptrBase, v / ptrBase }

// HeapBlock is one interpreter-owned allocation: a contiguous run of 8-byte
// cells with a stable handle. Blocks are never freed before exit.
type HeapBlock struct {
    Cells    []Value
    ElemSize int // always 8 in this dialect
}

type Heap struct {
    blocks []*HeapBlock
}

// Alloc creates a zeroed block of n cells and returns its handle. Handles
// are dense indices and are never reused.
func (h *Heap) Alloc(n int64) Value {
    h.blocks = append(h.blocks, &HeapBlock{Cells: make([]Value, n), ElemSize: 8})
    return Value(len(h.blocks) - 1)
}

func (h *Heap) Block(handle int64) *HeapBlock { return h.blocks[handle] }

func (h *Heap) Len() int { return len(h.blocks) }

// Frame is the per-call evaluation context: parameter and local bindings,
// the value every visited expression node produced, and the most recently
// visited referencing expression (diagnostics only).
type Frame struct {
    locals map[ast.Decl]Value
    exprs  map[ast.Expr]Value
    pc     ast.Expr
}

func newFrame() *Frame {
    return &Frame{locals: map[ast.Decl]Value{}, exprs: map[ast.Expr]Value{}}
}

func (f *Frame) BindDecl(d ast.Decl, v Value) { f.locals[d] = v }

func (f *Frame) DeclVal(d ast.Decl) (Value, bool) {
    v, ok := f.locals[d]
    return v, ok
}

func (f *Frame) BindExpr(e ast.Expr, v Value) { f.exprs[e] = v }

func (f *Frame) ExprVal(e ast.Expr) (Value, bool) {
    v, ok := f.exprs[e]
    return v, ok
}

func (f *Frame) SetPC(e ast.Expr) { f.pc = e }

func (f *Frame) PC() ast.Expr { return f.pc }
