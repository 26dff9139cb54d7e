package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	lines []string
}

func (s *scripted) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestNumericInput(t *testing.T) {
	var out bytes.Buffer
	c := &Console{rl: &scripted{lines: []string{"1, 2", "oops", "-3"}}, out: &out}
	d := c.Driver()
	for _, want := range []int64{1, 2, -3} {
		v, err := d.NextValue()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	assert.Contains(t, out.String(), "invalid input")

	_, err := d.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrInputExhausted))
	assert.NoError(t, c.Close())
}

func TestASCIIMode(t *testing.T) {
	var out bytes.Buffer
	d := (&Console{rl: &scripted{lines: []string{"go"}}, out: &out, ascii: true}).Driver()
	var got []int64
	for i := 0; i < 3; i++ {
		v, err := d.NextValue()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int64{'g', 'o', '\n'}, got)

	for _, v := range []int64{'o', 'k', '\n', 1000} {
		require.NoError(t, d.Accept(v))
	}
	assert.Equal(t, "ok\n1000\n", out.String())
}

func TestNumericOutput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&Console{out: &out}).Driver().Accept(65))
	assert.Equal(t, "65\n", out.String())
}

func TestConsoleDrivesVM(t *testing.T) {
	var out bytes.Buffer
	c := &Console{rl: &scripted{lines: []string{"21"}}, out: &out}
	vm := intcode.Load(program.MustParse("3,0,1002,0,2,0,4,0,99")).Driver(c.Driver())
	_, err := vm.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
}
