package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/telemetry"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Node 0 sends (255, 7, 42) once; every node then polls its queue forever.
const natOnce = "3,100,1008,100,0,101,1006,101,15,104,255,104,7,104,42,3,102,1105,1,15"

func read(t *testing.T, nic *NIC) int64 {
	t.Helper()
	v, err := nic.NextValue()
	require.NoError(t, err)
	return v
}

func sendPacket(t *testing.T, nic *NIC, dest, x, y int64) error {
	t.Helper()
	require.NoError(t, nic.Accept(dest))
	require.NoError(t, nic.Accept(x))
	return nic.Accept(y)
}

func TestQueuesSeededWithAddress(t *testing.T) {
	net := NewNetwork(3, 10, ModeRepeatedNATDelivery)
	for addr := 0; addr < 3; addr++ {
		assert.Equal(t, int64(addr), read(t, net.NIC(addr)))
	}
	assert.Equal(t, NoPacket, read(t, net.NIC(1)))
}

func TestPacketRouting(t *testing.T) {
	net := NewNetwork(2, 10, ModeRepeatedNATDelivery)
	nic0, nic1 := net.NIC(0), net.NIC(1)

	require.NoError(t, sendPacket(t, nic0, 1, 10, 20))
	require.NoError(t, sendPacket(t, nic0, 1, 11, 21))
	assert.Equal(t, int64(1), read(t, nic1))
	assert.Equal(t, []int64{10, 20, 11, 21}, []int64{read(t, nic1), read(t, nic1), read(t, nic1), read(t, nic1)})
	assert.Equal(t, NoPacket, read(t, nic1))
}

func TestInvalidDestination(t *testing.T) {
	net := NewNetwork(2, 10, ModeRepeatedNATDelivery)
	err := sendPacket(t, net.NIC(0), 7, 1, 2)
	assert.True(t, errors.Is(err, vmerrors.ErrInvalidAddress))

	err = sendPacket(t, net.NIC(0), -1, 1, 2)
	assert.True(t, errors.Is(err, vmerrors.ErrInvalidAddress))
}

func TestNATResendAndRepeat(t *testing.T) {
	net := NewNetwork(2, 2, ModeRepeatedNATDelivery)
	nic0, nic1 := net.NIC(0), net.NIC(1)
	read(t, nic0)
	read(t, nic1)

	// idle with no NAT packet held: nothing happens
	for i := 0; i < 4; i++ {
		assert.Equal(t, NoPacket, read(t, nic0))
	}
	assert.Empty(t, net.History())

	require.NoError(t, sendPacket(t, nic1, NATAddress, 3, 4))

	// output reset the counter, so two idle reads pass before the resend
	assert.Equal(t, NoPacket, read(t, nic1))
	assert.Equal(t, NoPacket, read(t, nic1))
	assert.Equal(t, NoPacket, read(t, nic1))
	assert.Equal(t, []Resend{{Packet: Packet{X: 3, Y: 4}}}, net.History())

	assert.Equal(t, int64(3), read(t, nic0))
	assert.Equal(t, int64(4), read(t, nic0))
	assert.False(t, net.Stopped())

	assert.Equal(t, NoPacket, read(t, nic0))
	assert.Equal(t, NoPacket, read(t, nic0))
	_, err := nic0.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrNetworkStopped))

	answer, ok := net.Answer()
	require.True(t, ok)
	assert.Equal(t, int64(4), answer)
	assert.Len(t, net.History(), 2)
	assert.True(t, net.History()[1].Repeated)

	select {
	case <-net.Done():
	default:
		t.Fatal("done channel not closed")
	}
	_, err = nic1.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrNetworkStopped))
	assert.True(t, errors.Is(nic1.Accept(0), vmerrors.ErrNetworkStopped))
}

func TestNewNATPacketIsNotARepeat(t *testing.T) {
	net := NewNetwork(1, 1, ModeRepeatedNATDelivery)
	nic := net.NIC(0)
	read(t, nic)

	require.NoError(t, sendPacket(t, nic, NATAddress, 1, 5))
	read(t, nic) // idle 1
	assert.Equal(t, int64(1), read(t, nic))
	assert.Equal(t, int64(5), read(t, nic))

	require.NoError(t, sendPacket(t, nic, NATAddress, 1, 6))
	read(t, nic)
	assert.Equal(t, int64(1), read(t, nic))
	assert.False(t, net.Stopped())

	first, ok := net.FirstPacket()
	require.True(t, ok)
	assert.Equal(t, Packet{X: 1, Y: 5}, first)
}

func TestNewerNATPacketReplacesHeld(t *testing.T) {
	net := NewNetwork(1, 1, ModeRepeatedNATDelivery)
	nic := net.NIC(0)
	read(t, nic)

	require.NoError(t, sendPacket(t, nic, NATAddress, 1, 5))
	require.NoError(t, sendPacket(t, nic, NATAddress, 2, 6))
	assert.Equal(t, NoPacket, read(t, nic))
	assert.Equal(t, int64(2), read(t, nic))
	assert.Equal(t, int64(6), read(t, nic))
	assert.Equal(t, []Resend{{Packet: Packet{X: 2, Y: 6}}}, net.History())

	// no newer packet arrives, so the held one goes out again as the repeat
	assert.Equal(t, NoPacket, read(t, nic))
	_, err := nic.NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrNetworkStopped))
	answer, _ := net.Answer()
	assert.Equal(t, int64(6), answer)
	assert.Equal(t, []Resend{{Packet: Packet{X: 2, Y: 6}}, {Packet: Packet{X: 2, Y: 6}, Repeated: true}}, net.History())
}

func TestFirstNATPacketMode(t *testing.T) {
	net := NewNetwork(2, 100, ModeFirstNATPacket)
	require.NoError(t, sendPacket(t, net.NIC(1), NATAddress, 9, 99))
	assert.True(t, net.Stopped())

	answer, _ := net.Answer()
	assert.Equal(t, int64(99), answer)
	_, err := net.NIC(0).NextValue()
	assert.True(t, errors.Is(err, vmerrors.ErrNetworkStopped))
}

func TestRunRepeatedDelivery(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	cfg := Config{Size: DefaultSize, IdleThreshold: 1000, Telemetry: telemetry.NewTelemetryClientWithProcessor(rec)}

	report, err := Run(context.Background(), program.MustParse(natOnce), ModeRepeatedNATDelivery, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(42), report.Answer)
	assert.Equal(t, Packet{X: 7, Y: 42}, report.FirstPacket)
	assert.Equal(t, []Resend{
		{Packet: Packet{X: 7, Y: 42}},
		{Packet: Packet{X: 7, Y: 42}, Repeated: true},
	}, report.History)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, telemetry.SpanNetworkRun, ended[0].Name())
	assert.Len(t, ended[0].Events(), 3)
}

func TestRunFirstNATPacket(t *testing.T) {
	answer, err := FirstNATPacket(context.Background(), program.MustParse(natOnce), Config{IdleThreshold: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(42), answer)

	answer, err = FirstRepeatedNATDelivery(context.Background(), program.MustParse(natOnce), Config{Size: 5, IdleThreshold: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(42), answer)
}

func TestRunWithoutNATPacket(t *testing.T) {
	_, err := Run(context.Background(), program.MustParse("3,0,99"), ModeRepeatedNATDelivery, Config{Size: 4})
	assert.True(t, errors.Is(err, vmerrors.ErrNoNATPacket))
}

func TestRunNICFailure(t *testing.T) {
	_, err := Run(context.Background(), program.MustParse("104,7,104,1,104,2,99"), ModeRepeatedNATDelivery, Config{Size: 2})
	assert.True(t, errors.Is(err, vmerrors.ErrInvalidAddress))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// polls forever without ever talking to the NAT
	_, err := Run(ctx, program.MustParse("3,100,1105,1,0"), ModeRepeatedNATDelivery, Config{Size: 3, IdleThreshold: 10})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestReportToTree(t *testing.T) {
	report := &Report{
		Mode:        ModeRepeatedNATDelivery,
		Answer:      42,
		FirstPacket: Packet{X: 7, Y: 42},
		History: []Resend{
			{Packet: Packet{X: 7, Y: 42}},
			{Packet: Packet{X: 7, Y: 42}, Repeated: true},
		},
	}
	out := report.ToTree().String()
	assert.Contains(t, out, "repeated-nat-delivery: answer 42")
	assert.Contains(t, out, "2 NAT deliveries to address 0")
	assert.Contains(t, out, "#2 x=7 y=42 (repeated, stopped)")
}
