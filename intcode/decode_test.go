package intcode

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name   string
		window [4]int64
		opcode int64
		args   []Param
		width  int
	}{
		{"add positional", [4]int64{1, 2, 3, 4}, program.ADD, []Param{Position(2), Position(3), Position(4)}, 4},
		{"mul mixed", [4]int64{1002, 4, 3, 4}, program.MUL, []Param{Position(4), Immediate(3), Position(4)}, 4},
		{"input relative", [4]int64{203, -1, 0, 0}, program.INPUT, []Param{Relative(-1)}, 2},
		{"output immediate", [4]int64{104, 7, 0, 0}, program.OUTPUT, []Param{Immediate(7)}, 2},
		{"jump if true", [4]int64{1105, 1, 9, 0}, program.JUMP_IF_TRUE, []Param{Immediate(1), Immediate(9)}, 3},
		{"jump if false", [4]int64{6, 1, 2, 0}, program.JUMP_IF_FALSE, []Param{Position(1), Position(2)}, 3},
		{"less than", [4]int64{21107, 1, 2, 3}, program.LESS_THAN, []Param{Immediate(1), Immediate(2), Relative(3)}, 4},
		{"equals", [4]int64{8, 1, 2, 3}, program.EQUALS, []Param{Position(1), Position(2), Position(3)}, 4},
		{"relative base", [4]int64{109, 19, 0, 0}, program.ADJUST_RELATIVE_BASE, []Param{Immediate(19)}, 2},
		{"halt", [4]int64{99, 1, 2, 3}, program.HALT, []Param{}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			instr, width, err := Decode(tc.window)
			require.NoError(t, err)
			assert.Equal(t, tc.opcode, instr.Opcode)
			assert.Equal(t, tc.args, instr.Args())
			assert.Equal(t, tc.width, width)
			assert.Equal(t, tc.width, instr.Width())
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, window := range [][4]int64{
		{42, 0, 0, 0},
		{0, 0, 0, 0},
		{-1, 0, 0, 0},
		{301, 0, 0, 0},
		{104 + 800, 0, 0, 0},
	} {
		_, _, err := Decode(window)
		assert.True(t, errors.Is(err, vmerrors.ErrInvalidOpcode), "window %v", window)
	}
}

func TestInstructionString(t *testing.T) {
	instr, _, err := Decode([4]int64{21101, 3, 4, -2})
	require.NoError(t, err)
	assert.Equal(t, "ADD #3 #4 rb[-2]", instr.String())
}

func TestDecodeImmediateDestination(t *testing.T) {
	for _, window := range [][4]int64{
		{11101, 1, 1, 0},
		{103, 5, 0, 0},
		{10008, 1, 2, 3},
	} {
		_, _, err := Decode(window)
		assert.True(t, errors.Is(err, vmerrors.ErrInvalidAddress), "window %v", window)
	}
}

func TestImmediateIsNotWritable(t *testing.T) {
	_, err := Immediate(5).Cell(NewMemory(nil))
	assert.True(t, errors.Is(err, vmerrors.ErrInvalidAddress))
}
