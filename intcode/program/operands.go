package program

import "fmt"

// Mode is a per-operand addressing mode digit.
type Mode uint8

const (
	ModePosition  Mode = 0 // x = mem[v]
	ModeImmediate Mode = 1 // x = v
	ModeRelative  Mode = 2 // x = mem[relative_base + v]
)

func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// SplitDescriptor separates an opcode descriptor into its opcode (the two
// low decimal digits) and the remaining parameter-mode digits.
func SplitDescriptor(descriptor int64) (opcode int64, modes int64) {
	return descriptor % 100, descriptor / 100
}

// ExtractModes peels n mode digits from modes, least significant digit
// first. ok is false if any digit is not a known mode.
func ExtractModes(modes int64, n int) (out [MaxArity]Mode, ok bool) {
	for i := 0; i < n; i++ {
		digit := modes % 10
		modes /= 10
		switch Mode(digit) {
		case ModePosition, ModeImmediate, ModeRelative:
			out[i] = Mode(digit)
		default:
			return out, false
		}
	}
	return out, true
}
