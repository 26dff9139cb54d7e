package intcode

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/intcode/vmerrors"
)

// Input supplies the value consumed by an INPUT instruction.
// It is the only place a running VM may block.
type Input interface {
	NextValue() (int64, error)
}

// Output consumes the value produced by an OUTPUT instruction.
type Output interface {
	Accept(value int64) error
}

// IO is a driver offering both capabilities. A VM can only be built once
// both sides are present.
type IO interface {
	Input
	Output
}

// Split joins two independent halves into one driver.
type Split struct {
	In  Input
	Out Output
}

func (s Split) NextValue() (int64, error) { return s.In.NextValue() }
func (s Split) Accept(value int64) error { return s.Out.Accept(value) }

// Pure is the driver for programs that never read and whose output is
// not needed. Reading from it fails.
type Pure struct{}

func (Pure) NextValue() (int64, error) {
	return 0, fmt.Errorf("%w (no input available)", vmerrors.ErrInputExhausted)
}

func (Pure) Accept(int64) error { return nil }

// Iter supplies a fixed list of values in order.
type Iter struct {
	values []int64
	next   int
}

func NewIter(values ...int64) *Iter {
	return &Iter{values: values}
}

// ASCII supplies the bytes of text, one value per byte.
func ASCII(text string) *Iter {
	values := make([]int64, len(text))
	for i := 0; i < len(text); i++ {
		values[i] = int64(text[i])
	}
	return NewIter(values...)
}

func (it *Iter) NextValue() (int64, error) {
	if it.next >= len(it.values) {
		return 0, fmt.Errorf("%w (all %d values consumed)", vmerrors.ErrInputExhausted, len(it.values))
	}
	v := it.values[it.next]
	it.next++
	return v, nil
}

// Remaining is the number of values not yet consumed.
func (it *Iter) Remaining() int {
	return len(it.values) - it.next
}

// SingleOutput keeps only the most recent value.
type SingleOutput struct {
	value int64
	set   bool
}

func (o *SingleOutput) Accept(value int64) error {
	o.value, o.set = value, true
	return nil
}

// Get returns the last value written, if any.
func (o *SingleOutput) Get() (int64, bool) {
	return o.value, o.set
}

// Collect keeps every value in order.
type Collect struct {
	Values []int64
}

func (c *Collect) Accept(value int64) error {
	c.Values = append(c.Values, value)
	return nil
}

// String renders the collected values as text, for programs that emit ASCII.
// Values outside the byte range are written as decimal numbers on their own line.
func (c *Collect) String() string {
	buf := make([]byte, 0, len(c.Values))
	for _, v := range c.Values {
		if v >= 0 && v < 256 {
			buf = append(buf, byte(v))
			continue
		}
		buf = fmt.Appendf(buf, "%d\n", v)
	}
	return string(buf)
}

// InputFunc adapts a function to Input.
type InputFunc func() (int64, error)

func (f InputFunc) NextValue() (int64, error) { return f() }

// OutputFunc adapts a function to Output.
type OutputFunc func(value int64) error

func (f OutputFunc) Accept(value int64) error { return f(value) }

// ChannelInput blocks until a value arrives on C.
type ChannelInput struct {
	ctx context.Context
	C   <-chan int64
}

func NewChannelInput(ctx context.Context, c <-chan int64) *ChannelInput {
	return &ChannelInput{ctx: ctx, C: c}
}

func (ci *ChannelInput) NextValue() (int64, error) {
	select {
	case v, ok := <-ci.C:
		if !ok {
			return 0, fmt.Errorf("%w (receive)", vmerrors.ErrChannelClosed)
		}
		return v, nil
	case <-ci.ctx.Done():
		return 0, ci.ctx.Err()
	}
}

// ChannelOutput sends every value on C, blocking while it is full.
type ChannelOutput struct {
	ctx context.Context
	C   chan<- int64
}

func NewChannelOutput(ctx context.Context, c chan<- int64) *ChannelOutput {
	return &ChannelOutput{ctx: ctx, C: c}
}

// Accept must not race with a close of C; only the owner of the channel
// closes it, after its writer has returned.
func (co *ChannelOutput) Accept(value int64) error {
	select {
	case co.C <- value:
		return nil
	case <-co.ctx.Done():
		return co.ctx.Err()
	}
}
