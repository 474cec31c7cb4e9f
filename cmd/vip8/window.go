package main

import (
	"github.com/guslan/vip8"
	"github.com/guslan/vip8/audio"
	"github.com/guslan/vip8/gui"
	"github.com/spf13/cobra"
)

var (
	autostart   bool
	windowSound bool
)

// windowCmd opens the desktop window
var windowCmd = &cobra.Command{
	Use:   "window [path/to/rom]",
	Short: "run the console in a desktop window",
	Long:  "Run the console in a desktop window. A program can also be loaded by dropping it onto the window.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWindow,
}

func init() {
	windowCmd.Flags().BoolVar(&autostart, "start", false, "start the console as soon as a program is loaded")
	windowCmd.Flags().BoolVar(&windowSound, "sound", true, "play the buzzer through the speaker")
}

func runWindow(cmd *cobra.Command, args []string) error {
	config, err := cpuConfig()
	if err != nil {
		return err
	}

	app := gui.NewConsoleApp(func(c *gui.AppConfig) {
		c.Autostart = autostart
		c.Cpu = append(c.Cpu, config)
		if windowSound {
			c.Buzzer = audio.NewBeepBuzzer()
		} else {
			c.Buzzer = vip8.NewDummyBuzzer()
		}
	})

	if len(args) > 0 {
		if err := app.Load(args[0]); err != nil {
			return err
		}
	}

	return app.Run(cmd.Context())
}
