package amplifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/telemetry"
	"github.com/colorfulnotion/intcode/vmerrors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const DefaultChannelCapacity = 64

// Mode selects how the amplifiers are wired together.
type Mode uint8

const (
	// Serial feeds amplifier k into k+1; the last one's output is the signal.
	Serial Mode = iota
	// Feedback closes the chain into a ring; the last value left on
	// channel 0 is the signal.
	Feedback
)

func (m Mode) String() string {
	switch m {
	case Serial:
		return "serial"
	case Feedback:
		return "feedback"
	}
	return "unknown"
}

// Chain runs copies of one program wired through buffered channels,
// one goroutine per amplifier.
type Chain struct {
	image     program.Program
	capacity  int
	telemetry *telemetry.TelemetryClient
}

type Option func(*Chain)

// WithChannelCapacity sets the buffer size of every edge. Values below 2
// are raised to 2 so seeding never blocks.
func WithChannelCapacity(n int) Option {
	return func(c *Chain) { c.capacity = n }
}

func WithTelemetry(tc *telemetry.TelemetryClient) Option {
	return func(c *Chain) { c.telemetry = tc }
}

func New(image []int64, opts ...Option) *Chain {
	c := &Chain{
		image:     slices.Clone(image),
		capacity:  DefaultChannelCapacity,
		telemetry: telemetry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capacity < 2 {
		c.capacity = 2
	}
	return c
}

// RunFeedback runs the ring with the default options.
func RunFeedback(ctx context.Context, image []int64, phases []int64) (int64, error) {
	return New(image).Run(ctx, Feedback, phases)
}

// RunSerial runs the linear chain with the default options.
func RunSerial(ctx context.Context, image []int64, phases []int64) (int64, error) {
	return New(image).Run(ctx, Serial, phases)
}

// Run wires one amplifier per phase setting and returns the final signal.
// The first amplifier error cancels the others and is returned.
func (c *Chain) Run(ctx context.Context, mode Mode, phases []int64) (int64, error) {
	n := len(phases)
	if n == 0 {
		return 0, vmerrors.ErrNoPhaseSettings
	}

	ctx, span := c.telemetry.StartSpan(ctx, telemetry.SpanAmplifierRun,
		attribute.String(telemetry.AttrProgramHash, c.image.ShortHash()),
		attribute.String(telemetry.AttrPhases, FormatPhases(phases)),
		attribute.Bool(telemetry.AttrFeedback, mode == Feedback),
	)
	defer span.End()

	edges := n
	if mode == Serial {
		edges = n + 1
	}
	chans := make([]chan int64, edges)
	for i := range chans {
		chans[i] = make(chan int64, c.capacity)
	}
	for k, phase := range phases {
		chans[k] <- phase
	}
	chans[0] <- 0
	if mode == Serial {
		// nothing writes to the head of a chain after seeding
		close(chans[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for k := 0; k < n; k++ {
		k := k
		in, out := chans[k], chans[(k+1)%edges]
		vm := intcode.Load(c.image).
			Named(fmt.Sprintf("amp-%d", k)).
			Input(intcode.NewChannelInput(gctx, in)).
			Output(intcode.NewChannelOutput(gctx, out))
		g.Go(func() error {
			// Each edge has exactly one writer, so closing on exit lets a
			// starved reader fail instead of blocking forever.
			defer close(out)
			res, err := vm.Run(gctx)
			if err != nil {
				return fmt.Errorf("amplifier %d (phase %d): %w", k, phases[k], err)
			}
			c.telemetry.Event(gctx, telemetry.EventVMHalted, attribute.Int("amplifier", k), attribute.Int64("steps", int64(res.Steps)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug(log.PipelineMonitoring, "amplifier chain failed", "mode", mode, "phases", FormatPhases(phases), "err", err)
		span.RecordError(err)
		return 0, err
	}

	result := chans[0]
	if mode == Serial {
		result = chans[n]
	}
	signal, ok := lastValue(result)
	if !ok {
		return 0, vmerrors.ErrNoSignal
	}
	span.SetAttributes(attribute.Int64(telemetry.AttrSignal, signal))
	log.Debug(log.PipelineMonitoring, "amplifier chain halted", "mode", mode, "phases", FormatPhases(phases), "signal", signal)
	return signal, nil
}

// lastValue drains a closed channel and returns the final value in it.
func lastValue(ch <-chan int64) (int64, bool) {
	var (
		last int64
		ok   bool
	)
	for v := range ch {
		last, ok = v, true
	}
	return last, ok
}

// Best is the winning ordering found by MaxSignal.
type Best struct {
	Signal int64
	Phases []int64
	Tried  int
}

// MaxSignal runs every ordering of phaseSet and keeps the strongest signal.
func (c *Chain) MaxSignal(ctx context.Context, mode Mode, phaseSet []int64) (*Best, error) {
	if len(phaseSet) == 0 {
		return nil, vmerrors.ErrNoPhaseSettings
	}
	ctx, span := c.telemetry.StartSpan(ctx, telemetry.SpanMaxSignal,
		attribute.String(telemetry.AttrPhases, FormatPhases(phaseSet)),
		attribute.Bool(telemetry.AttrFeedback, mode == Feedback),
	)
	defer span.End()

	var best *Best
	tried := 0
	err := Permutations(phaseSet, func(phases []int64) error {
		tried++
		signal, err := c.Run(ctx, mode, phases)
		if err != nil {
			return err
		}
		if best == nil || signal > best.Signal {
			best = &Best{Signal: signal, Phases: slices.Clone(phases)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	best.Tried = tried
	span.SetAttributes(attribute.Int64(telemetry.AttrSignal, best.Signal))
	log.Info(log.PipelineMonitoring, "max signal", "mode", mode, "signal", best.Signal, "phases", FormatPhases(best.Phases), "tried", tried)
	return best, nil
}

// MaxSignal searches with the default options.
func MaxSignal(ctx context.Context, image []int64, phaseSet []int64, mode Mode) (*Best, error) {
	return New(image).MaxSignal(ctx, mode, phaseSet)
}

// Permutations calls fn with every ordering of values (Heap's algorithm).
// The slice passed to fn is reused between calls.
func Permutations(values []int64, fn func([]int64) error) error {
	perm := slices.Clone(values)
	n := len(perm)
	counters := make([]int, n)
	if err := fn(perm); err != nil {
		return err
	}
	for i := 0; i < n; {
		if counters[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[counters[i]], perm[i] = perm[i], perm[counters[i]]
			}
			if err := fn(perm); err != nil {
				return err
			}
			counters[i]++
			i = 0
			continue
		}
		counters[i] = 0
		i++
	}
	return nil
}

// ParsePhases reads "9,8,7,6,5" or "98765".
func ParsePhases(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, vmerrors.ErrNoPhaseSettings
	}
	if !strings.Contains(s, ",") {
		phases := make([]int64, 0, len(s))
		for _, r := range s {
			if r < '0' || r > '9' {
				return nil, fmt.Errorf("invalid phase %q in %q", r, s)
			}
			phases = append(phases, int64(r-'0'))
		}
		return phases, nil
	}
	parts := strings.Split(s, ",")
	phases := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid phase %q: %w", p, err)
		}
		phases[i] = v
	}
	return phases, nil
}

func FormatPhases(phases []int64) string {
	parts := make([]string, len(phases))
	for i, p := range phases {
		parts[i] = strconv.FormatInt(p, 10)
	}
	return strings.Join(parts, ",")
}
