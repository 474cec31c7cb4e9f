package main

import (
	"context"
	"log/slog"

	"github.com/guslan/vip8"
	"github.com/guslan/vip8/audio"
	"github.com/spf13/cobra"
)

var withSound bool

// runCmd runs a program in the terminal until it fails or the user quits
var runCmd = &cobra.Command{
	Use:   "run path/to/rom",
	Short: "run a program in the terminal",
	Long:  "Run a program in the terminal. Keys 1234/QWER/ASDF/ZXCV are the keypad, Esc or Ctrl-C quits.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTerminal,
}

func init() {
	runCmd.Flags().BoolVar(&withSound, "sound", false, "play the buzzer through the speaker")
}

func runTerminal(cmd *cobra.Command, args []string) error {
	program, err := readProgram(args[0])
	if err != nil {
		return err
	}

	config, err := cpuConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	kb := vip8.NewTerminalKeyboard()
	kb.OnInterrupt = cancel
	defer kb.Close()

	var buzzer vip8.Buzzer = vip8.NewDummyBuzzer()
	if withSound {
		buzzer = audio.NewBeepBuzzer()
	}

	cpu := vip8.NewCpu(vip8.NewMemory(), vip8.NewTerminalDisplay(), kb, buzzer, config)
	if err := cpu.LoadProgram(program); err != nil {
		return err
	}
	if err := cpu.Boot(); err != nil {
		return err
	}

	slog.Debug("running", slog.Uint64("speed", uint64(cpu.SpeedInHz())), slog.String("quirks", cpu.Quirks.String()))

	return cpu.Loop(ctx)
}
