package intcode

import (
	"fmt"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
)

type ExecResult uint8

const (
	ExecOK ExecResult = iota
	ExecHalt
)

// CPU holds the program counter. All other state lives in Memory.
type CPU struct {
	pc    int64
	steps uint64
	trace bool
}

func (cpu *CPU) PC() int64 {
	return cpu.pc
}

// Steps is the number of instructions executed so far, Halt included.
func (cpu *CPU) Steps() uint64 {
	return cpu.steps
}

// ExecNext decodes and executes the instruction at pc. The pc is advanced
// past the instruction before it runs, so jumps overwrite it.
func (cpu *CPU) ExecNext(mem *Memory, world IO) (ExecResult, error) {
	at := cpu.pc
	window, err := mem.Read4(at)
	if err != nil {
		return ExecHalt, err
	}
	instr, width, err := Decode(window)
	if err != nil {
		return ExecHalt, fmt.Errorf("pc=%d: %w", at, err)
	}
	cpu.pc += int64(width)
	cpu.steps++

	if cpu.trace {
		log.Trace(log.VMMonitoring, "exec", "pc", at, "instr", instr.String(),
			"category", program.GetCategoryName(program.GetInstructionCategory(instr.Opcode)))
	}

	if err := cpu.exec(instr, mem, world); err != nil {
		return ExecHalt, fmt.Errorf("pc=%d %s: %w", at, program.Name(instr.Opcode), err)
	}
	if instr.Opcode == program.HALT {
		return ExecHalt, nil
	}
	return ExecOK, nil
}

func (cpu *CPU) exec(instr Instruction, mem *Memory, world IO) error {
	p := instr.Params
	switch instr.Opcode {
	case program.ADD:
		return binaryOp(mem, p, func(a, b int64) int64 { return a + b })
	case program.MUL:
		return binaryOp(mem, p, func(a, b int64) int64 { return a * b })
	case program.LESS_THAN:
		return binaryOp(mem, p, func(a, b int64) int64 { return boolToInt(a < b) })
	case program.EQUALS:
		return binaryOp(mem, p, func(a, b int64) int64 { return boolToInt(a == b) })
	case program.INPUT:
		dest, err := p[0].Cell(mem)
		if err != nil {
			return err
		}
		v, err := world.NextValue()
		if err != nil {
			return err
		}
		*dest = v
	case program.OUTPUT:
		v, err := p[0].Read(mem)
		if err != nil {
			return err
		}
		return world.Accept(v)
	case program.JUMP_IF_TRUE, program.JUMP_IF_FALSE:
		cond, err := p[0].Read(mem)
		if err != nil {
			return err
		}
		if (cond != 0) != (instr.Opcode == program.JUMP_IF_TRUE) {
			return nil
		}
		dest, err := p[1].Read(mem)
		if err != nil {
			return err
		}
		if dest < 0 {
			return fmt.Errorf("%w (jump target=%d)", vmerrors.ErrInvalidAddress, dest)
		}
		cpu.pc = dest
	case program.ADJUST_RELATIVE_BASE:
		delta, err := p[0].Read(mem)
		if err != nil {
			return err
		}
		mem.MoveRelativeBase(delta)
	case program.HALT:
	}
	return nil
}

func binaryOp(mem *Memory, p [program.MaxArity]Param, op func(a, b int64) int64) error {
	lhs, err := p[0].Read(mem)
	if err != nil {
		return err
	}
	rhs, err := p[1].Read(mem)
	if err != nil {
		return err
	}
	dest, err := p[2].Cell(mem)
	if err != nil {
		return err
	}
	*dest = op(lhs, rhs)
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
