package interp

import "errors"

// The evaluator's failure modes. All are fatal; the driver reports the kind
// and exits non-zero. User-program faults (division by zero, wild pointers)
// are not detected and surface as host panics.
var (
    ErrUnsupportedType  = errors.New("unsupported type")
    ErrUnsupportedOp    = errors.New("unsupported operator")
    ErrUnsupportedForm  = errors.New("unsupported form")
    ErrArityMismatch    = errors.New("arity mismatch")
    ErrUnboundDecl      = errors.New("unbound declaration")
    ErrMissingExprValue = errors.New("missing expression value")
)
