package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/guslan/vip8"
	"github.com/spf13/cobra"
)

// currentReleaseVersion is printed by the version command
const currentReleaseVersion = "v0.2.0"

var (
	speed     uint
	quirkName string
	logLevel  string
)

// rootCmd is the base for all commands.
var rootCmd = &cobra.Command{
	Use:           "vip8 [command]",
	Short:         "vip8 is a CHIP-8 interpreter",
	Long:          "vip8 runs CHIP-8 programs in the terminal, in a browser or in a desktop window",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().UintVar(&speed, "speed", vip8.DefaultSpeed,
		fmt.Sprintf("instructions per second, in the range [%d, %d]", vip8.MinSpeed, vip8.MaxSpeed))
	rootCmd.PersistentFlags().StringVar(&quirkName, "quirks", "default",
		fmt.Sprintf("quirk preset, one of %s", strings.Join(vip8.QuirkPresets(), ", ")))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "one of debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs vip8 according to the user's command/subcommand/flags
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))

	return nil
}

// cpuConfig turns the persistent flags into CPU settings
func cpuConfig() (vip8.CpuConfigCb, error) {
	quirks, err := vip8.QuirksByName(quirkName)
	if err != nil {
		return nil, err
	}

	return func(config *vip8.CpuConfig) {
		config.Speed = speed
		config.Quirks = quirks
		config.Logger = slog.Default()
	}, nil
}

func readProgram(path string) ([]byte, error) {
	program, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	return program, nil
}
