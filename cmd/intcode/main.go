// intcode runs Intcode programs, amplifier chains and NIC networks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/colorfulnotion/intcode/amplifier"
	"github.com/colorfulnotion/intcode/config"
	"github.com/colorfulnotion/intcode/console"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/intcode/program"
	log "github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/network"
	"github.com/colorfulnotion/intcode/programs"
	"github.com/colorfulnotion/intcode/telemetry"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "intcode",
		Short: "Intcode virtual machine and harnesses",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true

	var (
		configPath        string
		logLevel          string
		debug             string
		telemetryEndpoint string
		cfg               *config.Config
		tc                *telemetry.TelemetryClient
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "comma separated log modules to enable (vm_mod,amp_mod,net_mod,console_mod,config_mod or all)")
	rootCmd.PersistentFlags().StringVar(&telemetryEndpoint, "telemetry", "", "OTLP/HTTP endpoint (host:port) for trace export")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if debug != "" {
			cfg.Debug = debug
		}
		if telemetryEndpoint != "" {
			cfg.Telemetry = telemetryEndpoint
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		initLogging(cfg)
		log.Debug(log.ConfigMonitoring, "effective config", "config", cfg.String())

		tc, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
		return err
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if tc == nil {
			return nil
		}
		return tc.Close(context.Background())
	}

	var (
		inputs      string
		asciiInput  string
		interactive bool
		asciiOutput bool
		dumpMemory  int
	)
	var runCmd = &cobra.Command{
		Use:   "run <program>",
		Short: "Run a program and print its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := programs.ReadProgram(args[0])
			if err != nil {
				return err
			}
			log.Info(log.VMMonitoring, "loaded program", "program", args[0], "cells", len(prog), "hash", prog.ShortHash())

			loader := intcode.Load(prog).Named(args[0])
			var vm *intcode.VM
			switch {
			case interactive:
				con, err := console.New(cfg.Console, asciiOutput || asciiInput != "")
				if err != nil {
					return err
				}
				defer con.Close()
				vm = loader.Driver(con.Driver())
			case asciiInput != "":
				vm = loader.Input(intcode.ASCII(unescape(asciiInput))).Collect()
			default:
				values, err := inputValues(inputs)
				if err != nil {
					return err
				}
				vm = loader.InputValues(values...).Collect()
			}

			res, err := vm.Run(cmd.Context())
			if err != nil {
				return describeError(err)
			}
			if it, ok := res.In.(*intcode.Iter); ok && it.Remaining() > 0 {
				log.Warn(log.VMMonitoring, "program halted with unread input", "unread", it.Remaining())
			}
			if out, ok := res.Out.(*intcode.Collect); ok {
				if asciiOutput || asciiInput != "" {
					fmt.Print(out.String())
				} else {
					for _, v := range out.Values {
						fmt.Println(v)
					}
				}
			}
			if dumpMemory > 0 {
				n := min(dumpMemory, len(res.Memory))
				fmt.Printf("memory[0:%d] = %s\n", n, program.Encode(res.Memory[:n]))
			}
			fmt.Fprintf(os.Stderr, "halted after %d steps\n", res.Steps)
			return nil
		},
	}
	runCmd.Flags().StringVar(&inputs, "input", "", "comma separated input values")
	runCmd.Flags().StringVar(&asciiInput, "ascii", "", "text fed as input bytes (\\n escapes allowed)")
	runCmd.Flags().BoolVar(&interactive, "interactive", false, "read input from a readline console")
	runCmd.Flags().BoolVar(&asciiOutput, "ascii-output", false, "print outputs as text")
	runCmd.Flags().IntVar(&dumpMemory, "dump", 0, "print the first N memory cells after halting")

	var (
		phases   string
		feedback bool
		exact    bool
	)
	var amplifyCmd = &cobra.Command{
		Use:   "amplify <program>",
		Short: "Search amplifier phase orderings for the strongest signal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := programs.ReadProgram(args[0])
			if err != nil {
				return err
			}
			mode := amplifier.Serial
			if feedback {
				mode = amplifier.Feedback
			}
			if phases == "" {
				phases = "0,1,2,3,4"
				if feedback {
					phases = "5,6,7,8,9"
				}
			}
			phaseSet, err := amplifier.ParsePhases(phases)
			if err != nil {
				return err
			}
			chain := amplifier.New(prog,
				amplifier.WithChannelCapacity(cfg.Pipeline.ChannelCapacity),
				amplifier.WithTelemetry(tc),
			)
			if exact {
				signal, err := chain.Run(cmd.Context(), mode, phaseSet)
				if err != nil {
					return err
				}
				fmt.Println(signal)
				return nil
			}
			best, err := chain.MaxSignal(cmd.Context(), mode, phaseSet)
			if err != nil {
				return err
			}
			fmt.Println(best.ToTree(mode).String())
			fmt.Println(best.Signal)
			return nil
		},
	}
	amplifyCmd.Flags().StringVar(&phases, "phases", "", "phase settings, e.g. 5,6,7,8,9 or 98765")
	amplifyCmd.Flags().BoolVar(&feedback, "feedback", false, "wire the amplifiers into a feedback ring")
	amplifyCmd.Flags().BoolVar(&exact, "exact", false, "run the given ordering only instead of searching")

	var (
		firstNAT      bool
		size          int
		idleThreshold int
	)
	var networkCmd = &cobra.Command{
		Use:   "network <program>",
		Short: "Boot one NIC per address and watch the NAT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := programs.ReadProgram(args[0])
			if err != nil {
				return err
			}
			ncfg := network.Config{
				Size:          cfg.Network.Size,
				IdleThreshold: cfg.Network.IdleThreshold,
				Telemetry:     tc,
			}
			if size > 0 {
				ncfg.Size = size
			}
			if idleThreshold > 0 {
				ncfg.IdleThreshold = idleThreshold
			}
			mode := network.ModeRepeatedNATDelivery
			if firstNAT {
				mode = network.ModeFirstNATPacket
			}
			report, err := network.Run(cmd.Context(), prog, mode, ncfg)
			if err != nil {
				return err
			}
			fmt.Println(report.ToTree().String())
			fmt.Println(report.Answer)
			return nil
		},
	}
	networkCmd.Flags().BoolVar(&firstNAT, "first-nat", false, "stop at the first packet sent to address 255")
	networkCmd.Flags().IntVar(&size, "size", 0, "number of NICs (default from config)")
	networkCmd.Flags().IntVar(&idleThreshold, "idle-threshold", 0, "idle reads before the NAT resends (default from config)")

	var programsCmd = &cobra.Command{
		Use:   "programs",
		Short: "List embedded sample programs",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range programs.List() {
				fmt.Printf("%-14s %s\n", s.Name, s.Description)
			}
		},
	}

	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := cfg.TOML()
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("intcode %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(runCmd, amplifyCmd, networkCmd, programsCmd, configCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func initLogging(cfg *config.Config) {
	lvl, _ := log.ParseLevel(cfg.LogLevel)
	if cfg.LogJson {
		log.SetDefault(log.NewLogger(log.NewJSONHandlerWithLevel(os.Stderr, lvl)))
	} else {
		log.InitLogger(cfg.LogLevel)
	}
	if cfg.Debug != "" {
		log.EnableModules(cfg.Debug)
	}
}

// inputValues reads --input with the program cell syntax. Empty means no input.
func inputValues(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	values, err := program.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --input: %w", err)
	}
	return values, nil
}

// describeError prefixes VM faults with their catalogue code and description.
func describeError(err error) error {
	if vmerrors.GetErrorCode(err) == "" {
		return err
	}
	desc := strings.TrimSuffix(vmerrors.GetErrorDesc(err), ".")
	return fmt.Errorf("%s (%s): %w", vmerrors.GetErrorCodeWithName(err), desc, err)
}

func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
}
