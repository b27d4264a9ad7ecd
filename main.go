package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-looper/config"
	"go-looper/debug"
	"go-looper/midi"
	"go-looper/sequencer"
	"go-looper/theme"
	"go-looper/tui"
)

var (
	configPath string
	debugFlag  bool
	headless   bool
	thruFlag   bool
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:          "go-looper",
	Short:        "Bar-quantized MIDI looper synced to an external clock",
	SilenceUsage: true,
	RunE:         runLooper,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports, serial lines and sound cards",
	RunE:  runPorts,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/go-looper/config.json)")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "write a debug log to ~/.config/go-looper/debug.log")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without the terminal UI")
	rootCmd.Flags().BoolVar(&thruFlag, "thru", false, "echo played notes to the output")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output endpoint, e.g. port:Synth or card:Y12")
	rootCmd.AddCommand(portsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file; flags given on the command line win
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = debugFlag
	}
	if flags.Changed("headless") {
		cfg.UI.Headless = headless
	}
	if flags.Changed("thru") {
		thru := thruFlag
		cfg.Thru = &thru
	}
	if flags.Changed("output") {
		cfg.Output = outputFlag
	}
	return cfg, nil
}

// openManager opens every configured endpoint and wires them to a Manager
func openManager(cfg *config.Config) (*sequencer.Manager, error) {
	opener := midi.NewOpener()

	var inputs []sequencer.Input
	closeInputs := func() {
		for _, in := range inputs {
			in.Source.Close()
		}
	}

	for _, ic := range cfg.Inputs {
		roles, err := sequencer.ParseRoles(ic.Roles)
		if err != nil {
			closeInputs()
			return nil, fmt.Errorf("input %s: %w", ic.Endpoint, err)
		}
		src, err := opener.OpenSource(ic.Endpoint)
		if err != nil {
			closeInputs()
			return nil, fmt.Errorf("input %s: %w", ic.Endpoint, err)
		}
		debug.Log("main", "input %s routed to %s", src.ID(), roles)
		inputs = append(inputs, sequencer.Input{Source: src, Roles: roles})
	}

	var output midi.Sink
	if cfg.Output != "" {
		sink, err := opener.OpenSink(cfg.Output)
		if err != nil {
			closeInputs()
			return nil, fmt.Errorf("output %s: %w", cfg.Output, err)
		}
		output = sink
	}

	var feedback midi.Sink
	switch {
	case cfg.Feedback == "":
	case cfg.Feedback == cfg.Output:
		feedback = output
	default:
		sink, err := opener.OpenSink(cfg.Feedback)
		if err != nil {
			closeInputs()
			if output != nil {
				output.Close()
			}
			return nil, fmt.Errorf("feedback %s: %w", cfg.Feedback, err)
		}
		feedback = sink
	}

	thru := cfg.ThruEnabled()
	debug.Log("main", "output=%q feedback=%q thru=%v", cfg.Output, cfg.Feedback, thru)

	return sequencer.NewManager(sequencer.Options{
		Inputs:   inputs,
		Output:   output,
		Feedback: feedback,
		Thru:     thru,
	}), nil
}

func runLooper(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("debug log disabled: %v\n", err)
		}
		defer debug.Disable()
	}
	if debug.Enabled() {
		debug.Log("main", "config: %d inputs, output %q", len(cfg.Inputs), cfg.Output)
	}

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UI.Headless {
		fmt.Println("go-looper running, Ctrl+C to stop")
		err := manager.Run(ctx)
		if errors.Is(err, sequencer.ErrQuit) {
			fmt.Println("stopping...")
			return nil
		}
		return err
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "%v", err)
	}
	th := theme.New(palette)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.NewModel(manager, th), tea.WithAltScreen())

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		err := manager.Run(ctx)
		p.Send(tui.DoneMsg{Err: err})
	}()

	final, err := p.Run()
	cancel()
	<-runDone
	if err != nil {
		return err
	}

	if m, ok := final.(tui.Model); ok {
		if err := m.Err(); err != nil && !errors.Is(err, sequencer.ErrQuit) {
			return err
		}
	}
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ins, outs, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Printf("MIDI ports: %v\n", err)
	} else {
		fmt.Println("=== MIDI Input Ports ===")
		for i, name := range ins {
			fmt.Printf("  %d: port:%s\n", i, name)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, name := range outs {
			fmt.Printf("  %d: port:%s\n", i, name)
		}
	}

	if serials, err := midi.ListSerialPorts(); err == nil && len(serials) > 0 {
		fmt.Println("\n=== Serial Lines ===")
		for _, name := range serials {
			fmt.Printf("  serial:%s@%d\n", name, midi.DefaultSerialBaud)
		}
	}

	if data, err := os.ReadFile(midi.CardsPath); err == nil {
		fmt.Println("\n=== Sound Cards ===")
		fmt.Println(strings.TrimRight(string(data), "\n"))
	}
	return nil
}
