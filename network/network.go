package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/telemetry"
	"github.com/colorfulnotion/intcode/vmerrors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/slices"
)

const (
	NATAddress           = 255
	DefaultSize          = 50
	DefaultIdleThreshold = 100000
	// NoPacket is what a NIC reads when its queue is empty.
	NoPacket int64 = -1
)

// Mode decides which NAT event ends the simulation.
type Mode uint8

const (
	// ModeRepeatedNATDelivery stops when the NAT is about to resend a Y value
	// it already delivered to address 0.
	ModeRepeatedNATDelivery Mode = iota
	// ModeFirstNATPacket stops at the first packet addressed to the NAT.
	ModeFirstNATPacket
)

func (m Mode) String() string {
	switch m {
	case ModeRepeatedNATDelivery:
		return "repeated-nat-delivery"
	case ModeFirstNATPacket:
		return "first-nat-packet"
	}
	return "unknown"
}

type Packet struct {
	X, Y int64
}

// Resend is one NAT delivery to address 0. Repeated marks the delivery
// that was suppressed because its Y had been sent before.
type Resend struct {
	Packet
	Repeated bool
}

// Network is the shared state of every NIC. All fields are guarded by mu.
type Network struct {
	mu        sync.Mutex
	queues    [][]int64
	nat       *Packet
	natSent   map[int64]struct{}
	idle      int
	threshold int
	mode      Mode
	history   []Resend
	first     *Packet

	done     chan struct{}
	stopped  bool
	answer   int64
	delivery uint64

	ctx       context.Context
	telemetry *telemetry.TelemetryClient
}

// NewNetwork creates size nodes, each queue seeded with the node's own address.
func NewNetwork(size, idleThreshold int, mode Mode) *Network {
	queues := make([][]int64, size)
	for addr := range queues {
		queues[addr] = []int64{int64(addr)}
	}
	return &Network{
		queues:    queues,
		natSent:   make(map[int64]struct{}),
		threshold: idleThreshold,
		mode:      mode,
		done:      make(chan struct{}),
		ctx:       context.Background(),
		telemetry: telemetry.NewNoOpTelemetryClient(),
	}
}

// observe attaches the span carried by ctx to NAT events.
func (n *Network) observe(ctx context.Context, tc *telemetry.TelemetryClient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ctx, n.telemetry = ctx, tc
}

func (n *Network) Size() int {
	return len(n.queues)
}

// NIC returns the I/O driver for the node at addr.
func (n *Network) NIC(addr int) *NIC {
	return &NIC{net: n, addr: addr}
}

// Done is closed once the simulation has an answer.
func (n *Network) Done() <-chan struct{} {
	return n.done
}

// Answer returns the Y value that ended the simulation.
func (n *Network) Answer() (int64, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.answer, n.stopped
}

// History returns every NAT delivery so far, in order.
func (n *Network) History() []Resend {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.history)
}

// FirstPacket returns the first packet sent to the NAT, if any.
func (n *Network) FirstPacket() (Packet, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.first == nil {
		return Packet{}, false
	}
	return *n.first, true
}

func (n *Network) Stopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stopped
}

func (n *Network) stop(y int64) {
	n.stopped = true
	n.answer = y
	close(n.done)
	log.Info(log.NetworkMonitoring, "network stopped", "mode", n.mode, "answer", y, "deliveries", n.delivery)
}

// touch records output activity.
func (n *Network) touch() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return vmerrors.ErrNetworkStopped
	}
	n.idle = 0
	return nil
}

func (n *Network) send(from int, dest int64, p Packet) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return vmerrors.ErrNetworkStopped
	}
	n.idle = 0
	n.delivery++

	if dest == NATAddress {
		n.nat = &p
		if n.first == nil {
			n.first = &p
			n.telemetry.Event(n.ctx, telemetry.EventNATPacket,
				attribute.Int64("x", p.X), attribute.Int64(telemetry.AttrNATY, p.Y), attribute.Int("from", from))
			if n.mode == ModeFirstNATPacket {
				n.stop(p.Y)
			}
		}
		log.Debug(log.NetworkMonitoring, "nat packet", "from", from, "x", p.X, "y", p.Y)
		return nil
	}
	if dest < 0 || dest >= int64(len(n.queues)) {
		return fmt.Errorf("%w (packet from %d to %d)", vmerrors.ErrInvalidAddress, from, dest)
	}
	n.queues[dest] = append(n.queues[dest], p.X, p.Y)
	log.Trace(log.NetworkMonitoring, "packet", "from", from, "to", dest, "x", p.X, "y", p.Y)
	return nil
}

func (n *Network) receive(addr int) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return 0, vmerrors.ErrNetworkStopped
	}

	if n.allEmpty() {
		if n.idle < n.threshold {
			n.idle++
		} else if n.nat != nil {
			if stop := n.resend(*n.nat); stop {
				return 0, vmerrors.ErrNetworkStopped
			}
		}
	}

	q := n.queues[addr]
	if len(q) == 0 {
		return NoPacket, nil
	}
	v := q[0]
	n.queues[addr] = q[1:]
	return v, nil
}

// resend delivers the held NAT packet to address 0 and reports whether
// that ends the simulation. Callers hold mu.
//
// n.nat is not cleared: a network that idles again without a newer NAT
// packet resends the same one, and that second delivery of its Y counts
// as the repeat.
func (n *Network) resend(p Packet) bool {
	_, seen := n.natSent[p.Y]
	n.history = append(n.history, Resend{Packet: p, Repeated: seen})
	n.telemetry.Event(n.ctx, telemetry.EventNATResend,
		attribute.Int64("x", p.X), attribute.Int64(telemetry.AttrNATY, p.Y), attribute.Bool("repeated", seen))
	if seen {
		n.stop(p.Y)
		return true
	}
	log.Debug(log.NetworkMonitoring, "nat resend", "x", p.X, "y", p.Y, "idle", n.idle)
	n.natSent[p.Y] = struct{}{}
	n.queues[0] = append(n.queues[0], p.X, p.Y)
	n.idle = 0
	return false
}

func (n *Network) allEmpty() bool {
	for _, q := range n.queues {
		if len(q) > 0 {
			return false
		}
	}
	return true
}

type parserState uint8

const (
	awaitAddr parserState = iota
	awaitX
	awaitY
)

// NIC is the I/O driver of one node. It never blocks: reading an empty
// queue yields NoPacket. Outputs are parsed as (dest, X, Y) triples.
type NIC struct {
	net   *Network
	addr  int
	state parserState
	dest  int64
	x     int64
}

func (nic *NIC) Addr() int {
	return nic.addr
}

func (nic *NIC) NextValue() (int64, error) {
	return nic.net.receive(nic.addr)
}

func (nic *NIC) Accept(value int64) error {
	switch nic.state {
	case awaitAddr:
		nic.dest, nic.state = value, awaitX
	case awaitX:
		nic.x, nic.state = value, awaitY
	default:
		nic.state = awaitAddr
		return nic.net.send(nic.addr, nic.dest, Packet{X: nic.x, Y: value})
	}
	return nic.net.touch()
}
