package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/telemetry"
	"github.com/colorfulnotion/intcode/vmerrors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Config sizes a simulation. Zero fields take the defaults.
type Config struct {
	Size          int
	IdleThreshold int
	Telemetry     *telemetry.TelemetryClient
}

func (c Config) withDefaults() Config {
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = DefaultIdleThreshold
	}
	if c.Telemetry == nil {
		c.Telemetry = telemetry.Default()
	}
	return c
}

// Report is the outcome of a finished simulation.
type Report struct {
	Mode        Mode
	Answer      int64
	FirstPacket Packet
	History     []Resend
}

// FirstRepeatedNATDelivery returns the first Y the NAT would deliver to
// address 0 for a second time.
func FirstRepeatedNATDelivery(ctx context.Context, image []int64, cfg Config) (int64, error) {
	report, err := Run(ctx, image, ModeRepeatedNATDelivery, cfg)
	if err != nil {
		return 0, err
	}
	return report.Answer, nil
}

// FirstNATPacket returns the Y of the first packet sent to address 255.
func FirstNATPacket(ctx context.Context, image []int64, cfg Config) (int64, error) {
	report, err := Run(ctx, image, ModeFirstNATPacket, cfg)
	if err != nil {
		return 0, err
	}
	return report.Answer, nil
}

// Run boots one VM per node and waits until the network has an answer.
// NICs never halt on their own, so every VM is cancelled once it does.
func Run(ctx context.Context, image []int64, mode Mode, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	net := NewNetwork(cfg.Size, cfg.IdleThreshold, mode)

	ctx, span := cfg.Telemetry.StartSpan(ctx, telemetry.SpanNetworkRun,
		attribute.String(telemetry.AttrProgramHash, program.Program(image).ShortHash()),
		attribute.Int(telemetry.AttrNetworkSize, cfg.Size),
		attribute.Int(telemetry.AttrIdleThreshold, cfg.IdleThreshold),
	)
	defer span.End()
	net.observe(ctx, cfg.Telemetry)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for addr := 0; addr < cfg.Size; addr++ {
		addr := addr
		vm := intcode.Load(image).Named(fmt.Sprintf("nic-%d", addr)).Driver(net.NIC(addr))
		g.Go(func() error {
			_, err := vm.Run(gctx)
			if err == nil || errors.Is(err, vmerrors.ErrNetworkStopped) {
				return nil
			}
			if errors.Is(err, context.Canceled) && net.Stopped() {
				return nil
			}
			return fmt.Errorf("nic %d: %w", addr, err)
		})
	}

	joined := make(chan struct{})
	go func() {
		select {
		case <-net.Done():
			cancel()
		case <-joined:
		}
	}()
	err := g.Wait()
	close(joined)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	answer, ok := net.Answer()
	if !ok {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, vmerrors.ErrNoNATPacket
	}
	report := &Report{
		Mode:    mode,
		Answer:  answer,
		History: net.History(),
	}
	report.FirstPacket, _ = net.FirstPacket()
	span.SetAttributes(attribute.Int64(telemetry.AttrNATY, answer))
	log.Debug(log.NetworkMonitoring, "network joined", "mode", mode, "answer", answer, "resends", len(report.History))
	return report, nil
}
