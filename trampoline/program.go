package trampoline

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
)

// OpCode is a trampoline instruction.
type OpCode uint8

const (
	// OpFetchWrapper recovers the core wrapper from the store by token.
	OpFetchWrapper OpCode = iota
	// OpNewArgs allocates the core argument array of length A.
	OpNewArgs
	// OpLoadArg stores trampoline parameter B into core argument A,
	// dereferencing reference slots.
	OpLoadArg
	// OpCall invokes the wrapper with the argument array.
	OpCall
	// OpSkipIfNoAssignments jumps to instruction B when the call returned no
	// assignment map.
	OpSkipIfNoAssignments
	// OpStoreRef writes assignment Name through reference parameter B when
	// the map holds it.
	OpStoreRef
	// OpReturnBool returns the primary value coerced to bool.
	OpReturnBool
	// OpReturn returns nothing.
	OpReturn
)

var opNames = [...]string{
	OpFetchWrapper:        "fetch_wrapper",
	OpNewArgs:             "new_args",
	OpLoadArg:             "load_arg",
	OpCall:                "call",
	OpSkipIfNoAssignments: "skip_if_no_assignments",
	OpStoreRef:            "store_ref",
	OpReturnBool:          "return_bool",
	OpReturn:              "return",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// Instr is one instruction. Operand meaning depends on Op.
type Instr struct {
	Name string
	Op   OpCode
	A    int
	B    int
}

// Program is the compiled body of one trampoline.
type Program struct {
	Name   string
	Instrs []Instr
	Token  entities.Token
}

// Compile lowers spec into a Program bound to the wrapper stored under token.
func Compile(spec *Specification, token entities.Token) *Program {
	p := &Program{Name: spec.Name, Token: token}
	emit := func(in Instr) int {
		p.Instrs = append(p.Instrs, in)
		return len(p.Instrs) - 1
	}

	emit(Instr{Op: OpFetchWrapper})
	emit(Instr{Op: OpNewArgs, A: len(spec.CoreParams)})
	for i, name := range spec.CoreParams {
		emit(Instr{Op: OpLoadArg, A: i, B: spec.ParamIndex(name), Name: name})
	}
	emit(Instr{Op: OpCall})

	if len(spec.Refs) > 0 {
		skip := emit(Instr{Op: OpSkipIfNoAssignments})
		for _, ref := range spec.Refs {
			emit(Instr{Op: OpStoreRef, B: spec.ParamIndex(ref), Name: ref})
		}
		p.Instrs[skip].B = len(p.Instrs)
	}

	if spec.Kind == entities.PatchPrefix {
		emit(Instr{Op: OpReturnBool})
	} else {
		emit(Instr{Op: OpReturn})
	}
	return p
}

// String disassembles the program.
func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (token %d):\n", p.Name, p.Token)
	for i, in := range p.Instrs {
		fmt.Fprintf(&sb, "  %3d %-22s", i, in.Op)
		switch in.Op {
		case OpNewArgs:
			fmt.Fprintf(&sb, " %d", in.A)
		case OpLoadArg:
			fmt.Fprintf(&sb, " args[%d] <- p%d (%s)", in.A, in.B, in.Name)
		case OpSkipIfNoAssignments:
			fmt.Fprintf(&sb, " -> %d", in.B)
		case OpStoreRef:
			fmt.Fprintf(&sb, " p%d <- %q", in.B, in.Name)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
