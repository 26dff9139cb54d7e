package intcode

import (
	"context"
	"errors"
	"testing"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterAndASCII(t *testing.T) {
	it := ASCII("Hi\n")
	assert.Equal(t, 3, it.Remaining())
	for _, want := range []int64{'H', 'i', '\n'} {
		v, err := it.NextValue()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err := it.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrInputExhausted))
}

func TestCollectString(t *testing.T) {
	c := &Collect{}
	for _, v := range []int64{'o', 'k', '\n', 19349722} {
		require.NoError(t, c.Accept(v))
	}
	assert.Equal(t, "ok\n19349722\n", c.String())
}

func TestChannelInputClosed(t *testing.T) {
	ch := make(chan int64, 1)
	ch <- 5
	close(ch)
	in := NewChannelInput(context.Background(), ch)

	v, err := in.NextValue()
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	_, err = in.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrChannelClosed))
}

func TestChannelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChannelInput(ctx, make(chan int64)).NextValue()
	assert.True(t, errors.Is(err, context.Canceled))

	err = NewChannelOutput(ctx, make(chan int64)).Accept(1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestChannelDrivenVM(t *testing.T) {
	in := make(chan int64, 1)
	out := make(chan int64, 1)
	in <- 21

	vm := Load(program.MustParse("3,0,1002,0,2,0,4,0,99")).
		Input(NewChannelInput(context.Background(), in)).
		Output(NewChannelOutput(context.Background(), out))
	_, err := vm.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), <-out)
}

func TestFuncAdapters(t *testing.T) {
	var got []int64
	vm := Load(program.MustParse("3,0,4,0,4,0,99")).
		Input(InputFunc(func() (int64, error) { return 9, nil })).
		Output(OutputFunc(func(v int64) error {
			got = append(got, v)
			return nil
		}))
	_, err := vm.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 9}, got)
}

func TestOutputErrorAborts(t *testing.T) {
	stop := errors.New("sink full")
	vm := Load(program.MustParse("104,1,104,2,99")).NoInput().Output(OutputFunc(func(int64) error { return stop }))
	res, err := vm.Run(context.Background())
	assert.True(t, errors.Is(err, stop))
	assert.Equal(t, uint64(1), res.Steps)
}
