package intcode

import (
	"fmt"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
	"golang.org/x/exp/slices"
)

// growSlack is how many extra zero cells are added past the requested
// address whenever memory has to grow.
const growSlack = 1024

// MaxAddress is the highest addressable cell. Programs reaching past it
// fail with ErrInvalidAddress instead of exhausting the host.
const MaxAddress int64 = 1<<28 - 1

// Memory is the tape of one VM. It only ever grows.
type Memory struct {
	cells        []int64
	relativeBase int64
}

// NewMemory copies image into a fresh tape.
func NewMemory(image []int64) *Memory {
	return &Memory{cells: slices.Clone(image)}
}

func (m *Memory) Len() int {
	return len(m.cells)
}

func (m *Memory) RelativeBase() int64 {
	return m.relativeBase
}

func (m *Memory) MoveRelativeBase(delta int64) {
	m.relativeBase += delta
}

// Get reads the cell at addr. Cells past the end read as zero.
func (m *Memory) Get(addr int64) (int64, error) {
	cell, err := m.Cell(addr)
	if err != nil {
		return 0, err
	}
	return *cell, nil
}

// Cell returns a writable reference to the cell at addr, growing memory if needed.
func (m *Memory) Cell(addr int64) (*int64, error) {
	if addr < 0 || addr > MaxAddress {
		return nil, fmt.Errorf("%w (address=%d)", vmerrors.ErrInvalidAddress, addr)
	}
	if addr >= int64(len(m.cells)) {
		m.grow(addr + 1)
	}
	return &m.cells[addr], nil
}

// Relative returns the cell at offset from the relative base.
func (m *Memory) Relative(offset int64) (*int64, error) {
	return m.Cell(offset + m.relativeBase)
}

// Read4 returns the decode window starting at pc.
func (m *Memory) Read4(pc int64) ([program.MaxWidth]int64, error) {
	var window [program.MaxWidth]int64
	if pc < 0 || pc > MaxAddress {
		return window, fmt.Errorf("%w (pc=%d)", vmerrors.ErrInvalidAddress, pc)
	}
	if end := pc + program.MaxWidth; end > int64(len(m.cells)) {
		m.grow(end)
	}
	copy(window[:], m.cells[pc:pc+program.MaxWidth])
	return window, nil
}

// Snapshot returns a copy of every cell, including grown ones.
func (m *Memory) Snapshot() []int64 {
	return slices.Clone(m.cells)
}

func (m *Memory) grow(minSize int64) {
	if minSize <= int64(len(m.cells)) {
		return
	}
	m.cells = append(m.cells, make([]int64, minSize+growSlack-int64(len(m.cells)))...)
}
