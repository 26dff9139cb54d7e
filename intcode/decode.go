package intcode

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
)

// Param is one decoded operand.
type Param struct {
	Mode  program.Mode
	Value int64
}

func Position(addr int64) Param { return Param{Mode: program.ModePosition, Value: addr} }
func Immediate(value int64) Param { return Param{Mode: program.ModeImmediate, Value: value} }
func Relative(offset int64) Param { return Param{Mode: program.ModeRelative, Value: offset} }

// Read resolves the operand to a value.
func (p Param) Read(mem *Memory) (int64, error) {
	switch p.Mode {
	case program.ModeImmediate:
		return p.Value, nil
	case program.ModeRelative:
		cell, err := mem.Relative(p.Value)
		if err != nil {
			return 0, err
		}
		return *cell, nil
	default:
		return mem.Get(p.Value)
	}
}

// Cell resolves the operand to a writable cell.
func (p Param) Cell(mem *Memory) (*int64, error) {
	switch p.Mode {
	case program.ModeImmediate:
		return nil, fmt.Errorf("%w (immediate %d as destination)", vmerrors.ErrInvalidAddress, p.Value)
	case program.ModeRelative:
		return mem.Relative(p.Value)
	default:
		return mem.Cell(p.Value)
	}
}

func (p Param) String() string {
	switch p.Mode {
	case program.ModeImmediate:
		return fmt.Sprintf("#%d", p.Value)
	case program.ModeRelative:
		return fmt.Sprintf("rb[%d]", p.Value)
	default:
		return fmt.Sprintf("[%d]", p.Value)
	}
}

// Instruction is an opcode with its fixed-arity operands.
type Instruction struct {
	Opcode int64
	Params [program.MaxArity]Param
	Arity  int
}

// Args returns the operands actually used by the opcode.
func (i Instruction) Args() []Param {
	return i.Params[:i.Arity]
}

// Width is the number of cells the instruction occupies.
func (i Instruction) Width() int {
	return i.Arity + 1
}

func (i Instruction) String() string {
	parts := make([]string, 0, i.Arity+1)
	parts = append(parts, program.Name(i.Opcode))
	for _, p := range i.Args() {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " ")
}

// Decode turns a lookahead window into an instruction and its width.
func Decode(window [program.MaxWidth]int64) (Instruction, int, error) {
	descriptor := window[0]
	if descriptor < 0 {
		return Instruction{}, 0, fmt.Errorf("%w (descriptor=%d)", vmerrors.ErrInvalidOpcode, descriptor)
	}
	opcode, modeDigits := program.SplitDescriptor(descriptor)
	if !program.IsValid(opcode) {
		return Instruction{}, 0, fmt.Errorf("%w (opcode=%d)", vmerrors.ErrInvalidOpcode, opcode)
	}
	arity := program.Arity(opcode)
	modes, ok := program.ExtractModes(modeDigits, arity)
	if !ok {
		return Instruction{}, 0, fmt.Errorf("%w (descriptor=%d has an unknown parameter mode)", vmerrors.ErrInvalidOpcode, descriptor)
	}
	if program.WritesLastParam(opcode) && modes[arity-1] == program.ModeImmediate {
		return Instruction{}, 0, fmt.Errorf("%w (descriptor=%d writes through an immediate parameter)", vmerrors.ErrInvalidAddress, descriptor)
	}

	instr := Instruction{Opcode: opcode, Arity: arity}
	for i := 0; i < arity; i++ {
		instr.Params[i] = Param{Mode: modes[i], Value: window[i+1]}
	}
	return instr, instr.Width(), nil
}
