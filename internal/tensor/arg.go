package tensor

import "fmt"

// Arg wraps a tensor with the argument name and position it was passed
// under, so validation failures can name the offending argument. It is a
// non-owning diagnostic view; it carries no data of its own.
type Arg struct {
	T    *RawTensor
	Name string
	Pos  int
}

// NewArg wraps a tensor as a named, positioned argument.
func NewArg(t *RawTensor, name string, pos int) Arg {
	return Arg{T: t, Name: name, Pos: pos}
}

// String identifies the argument for error messages.
func (a Arg) String() string {
	return fmt.Sprintf("argument #%d '%s'", a.Pos, a.Name)
}
