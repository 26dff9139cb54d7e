package program

// Intcode Instructions - Unified Definition
// All other packages should import and use these constants instead of defining their own.

// Arithmetic, three parameters, last one written.
const (
	ADD = 1
	MUL = 2
)

// I/O, one parameter.
const (
	INPUT  = 3
	OUTPUT = 4
)

// Conditional jumps, two parameters.
const (
	JUMP_IF_TRUE  = 5
	JUMP_IF_FALSE = 6
)

// Comparisons, three parameters, last one written.
const (
	LESS_THAN = 7
	EQUALS    = 8
)

// Relative base, one parameter.
const (
	ADJUST_RELATIVE_BASE = 9
)

const (
	HALT = 99
)

// MaxArity is the largest parameter count of any instruction.
const MaxArity = 3

// MaxWidth is the decode window: one opcode cell plus MaxArity parameters.
const MaxWidth = MaxArity + 1

var opcodeArity = map[int64]int{
	ADD:                  3,
	MUL:                  3,
	INPUT:                1,
	OUTPUT:               1,
	JUMP_IF_TRUE:         2,
	JUMP_IF_FALSE:        2,
	LESS_THAN:            3,
	EQUALS:               3,
	ADJUST_RELATIVE_BASE: 1,
	HALT:                 0,
}

var opcodeNames = map[int64]string{
	ADD:                  "ADD",
	MUL:                  "MUL",
	INPUT:                "INPUT",
	OUTPUT:               "OUTPUT",
	JUMP_IF_TRUE:         "JUMP_IF_TRUE",
	JUMP_IF_FALSE:        "JUMP_IF_FALSE",
	LESS_THAN:            "LESS_THAN",
	EQUALS:               "EQUALS",
	ADJUST_RELATIVE_BASE: "ADJUST_RELATIVE_BASE",
	HALT:                 "HALT",
}

// IsValid reports whether opcode is in the instruction table.
func IsValid(opcode int64) bool {
	_, ok := opcodeArity[opcode]
	return ok
}

// Arity returns the parameter count of opcode, or -1 if it is unknown.
func Arity(opcode int64) int {
	if n, ok := opcodeArity[opcode]; ok {
		return n
	}
	return -1
}

// Name returns the mnemonic of opcode.
func Name(opcode int64) string {
	if name, ok := opcodeNames[opcode]; ok {
		return name
	}
	return "UNKNOWN"
}

// WritesLastParam reports whether the final parameter of opcode is a write target.
func WritesLastParam(opcode int64) bool {
	switch opcode {
	case ADD, MUL, INPUT, LESS_THAN, EQUALS:
		return true
	}
	return false
}

// InstructionCategory represents the category of an instruction
type InstructionCategory int

const (
	CategoryUnknown InstructionCategory = iota
	CategoryArithmetic
	CategoryIO
	CategoryControlFlow
)

// GetInstructionCategory returns the category of an instruction
func GetInstructionCategory(opcode int64) InstructionCategory {
	switch opcode {
	case ADD, MUL, LESS_THAN, EQUALS, ADJUST_RELATIVE_BASE:
		return CategoryArithmetic
	case INPUT, OUTPUT:
		return CategoryIO
	case JUMP_IF_TRUE, JUMP_IF_FALSE, HALT:
		return CategoryControlFlow
	default:
		return CategoryUnknown
	}
}

// GetCategoryName returns the string name of an instruction category
func GetCategoryName(category InstructionCategory) string {
	switch category {
	case CategoryArithmetic:
		return "Arithmetic"
	case CategoryIO:
		return "IO"
	case CategoryControlFlow:
		return "ControlFlow"
	default:
		return "Unknown"
	}
}
